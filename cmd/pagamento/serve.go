package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/app/payments"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/config"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
	payments_http "github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/handler/http/payments"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/infrastructure/collaborators"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/infrastructure/database"
	kafka_infra "github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/infrastructure/kafka"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/outbox"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/repository/outbox_repo"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/repository/payments_repo"
)

func serveCmd(configPath *string) *cobra.Command {
	var skipMigrations bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer appLogger.Sync()
			return runServe(cfg, appLogger, !skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on startup")
	return cmd
}

func runServe(cfg *config.Config, appLogger *zap.Logger, migrateOnStart bool) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	terminalPolicy, err := domain.ParseTerminalPolicy(cfg.Policy.TerminalTransition)
	if err != nil {
		return err
	}
	unavailablePolicy, err := payments.ParseUnavailablePolicy(cfg.Policy.UnavailableTotal)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Payment service starting...", zap.String("version", Version))

	db, err := database.ConnectWithRetry(ctx, cfg.DB, appLogger.With(zap.String("component", "Database")))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		} else {
			appLogger.Info("Database connection closed.")
		}
	}()

	if migrateOnStart {
		if err := database.MigrateUp(cfg.DB, appLogger.With(zap.String("component", "Migrations"))); err != nil {
			return err
		}
	}

	paymentRepository := payments_repo.NewPaymentRepository()
	outboxRepository := outbox_repo.NewOutboxRepository()

	httpClient := &http.Client{}
	resolver := collaborators.NewResolver(cfg.Collaborators.Services)
	accounts := collaborators.NewAccountClient(resolver, httpClient, cfg.Collaborators.Timeout,
		appLogger.With(zap.String("component", "AccountClient")))
	sales := collaborators.NewSalesClient(resolver, httpClient, cfg.Collaborators.Timeout,
		appLogger.With(zap.String("component", "SalesClient")))
	scheduling := collaborators.NewSchedulingClient(resolver, httpClient, cfg.Collaborators.Timeout,
		appLogger.With(zap.String("component", "SchedulingClient")))

	opts := payments.Options{
		TerminalPolicy:    terminalPolicy,
		UnavailablePolicy: unavailablePolicy,
	}
	if cfg.Kafka.Enabled {
		opts.EventsTopic = cfg.Kafka.PaymentEventsTopic
	}

	paymentService := payments.NewPaymentService(
		db,
		paymentRepository,
		outboxRepository,
		accounts,
		sales,
		scheduling,
		opts,
		appLogger.With(zap.String("component", "PaymentService")),
	)
	appLogger.Info("Payment Service initialized.",
		zap.String("terminal_policy", string(terminalPolicy)),
		zap.String("unavailable_policy", string(unavailablePolicy)))

	var wg sync.WaitGroup
	if cfg.Kafka.Enabled {
		topicsCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := kafka_infra.EnsureTopics(topicsCtx, cfg.Kafka.Brokers, []string{cfg.Kafka.PaymentEventsTopic},
			appLogger.With(zap.String("component", "KafkaAdmin")))
		cancel()
		if err != nil {
			return err
		}

		kafkaProducer := kafka_infra.NewProducer(cfg.Kafka.Brokers, appLogger.With(zap.String("component", "KafkaProducer")))
		defer func() {
			if err := kafkaProducer.Close(); err != nil {
				appLogger.Error("Error closing Kafka producer", zap.Error(err))
			} else {
				appLogger.Info("Kafka producer closed.")
			}
		}()

		outboxProcessor := outbox.NewProcessor(
			db,
			outboxRepository,
			kafkaProducer,
			cfg.Outbox.PollInterval,
			cfg.Outbox.PollTimeout,
			cfg.Outbox.PublishTimeout,
			cfg.Outbox.BatchSize,
			appLogger.With(zap.String("component", "OutboxProcessor")),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			outboxProcessor.Start(ctx)
		}()
	} else {
		appLogger.Info("Kafka disabled, payment events will not be published.")
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      payments_http.NewRouter(cfg.HTTP, paymentService, appLogger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		appLogger.Info("Shutting down application...")
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server failed: %w", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		appLogger.Info("HTTP server gracefully shut down.")
	}

	wg.Wait()
	appLogger.Info("Application gracefully shut down.")
	return runErr
}
