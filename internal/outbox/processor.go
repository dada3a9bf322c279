package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
	kafkaInfra "github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/infrastructure/kafka"
)

type OutboxRepository interface {
	GetPendingMessages(ctx context.Context, querier domain.Querier, limit int) ([]domain.OutboxMessage, error)
	MarkMessagesAsSent(ctx context.Context, querier domain.Querier, ids []string) error
	MarkMessagesAsFailed(ctx context.Context, querier domain.Querier, ids []string) error
}

// Processor publishes pending outbox messages to Kafka. Rows are locked with
// SKIP LOCKED, so several instances can poll the same table.
type Processor struct {
	db             *sql.DB
	outboxRepo     OutboxRepository
	kafkaProducer  kafkaInfra.Producer
	pollInterval   time.Duration
	pollTimeout    time.Duration
	publishTimeout time.Duration
	batchSize      int
	logger         *zap.Logger
	shutdownSignal chan struct{}
	shutdownOnce   sync.Once
}

func NewProcessor(
	db *sql.DB,
	outboxRepo OutboxRepository,
	kafkaProducer kafkaInfra.Producer,
	pollInterval time.Duration,
	pollTimeout time.Duration,
	publishTimeout time.Duration,
	batchSize int,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		db:             db,
		outboxRepo:     outboxRepo,
		kafkaProducer:  kafkaProducer,
		pollInterval:   pollInterval,
		pollTimeout:    pollTimeout,
		publishTimeout: publishTimeout,
		batchSize:      batchSize,
		logger:         logger,
		shutdownSignal: make(chan struct{}),
	}
}

// Start polls until ctx is done or Stop is called.
func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("Starting outbox processor", zap.Duration("poll_interval", p.pollInterval))
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor stopped", zap.Error(ctx.Err()))
			return
		case <-p.shutdownSignal:
			p.logger.Info("Outbox processor stopped")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error("Failed to process outbox batch", zap.Error(err))
			}
		}
	}
}

func (p *Processor) Stop() {
	p.shutdownOnce.Do(func() {
		p.logger.Info("Signaling outbox processor to stop...")
		close(p.shutdownSignal)
	})
}

// ProcessBatch publishes up to batchSize pending messages and marks the
// published ones as sent. A message the broker rejects permanently is marked
// failed; any other publish error leaves it pending for the next poll. It
// returns the number of messages marked sent.
func (p *Processor) ProcessBatch(ctx context.Context) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin outbox transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback()
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	messages, err := p.outboxRepo.GetPendingMessages(fetchCtx, tx, p.batchSize)
	cancel()
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return 0, tx.Commit()
	}

	p.logger.Debug("Found pending outbox messages", zap.Int("count", len(messages)))

	sent := make([]string, 0, len(messages))
	var failed []string
	for _, msg := range messages {
		if err := p.publish(ctx, msg); err != nil {
			fields := []zap.Field{
				zap.String("message_id", msg.ID),
				zap.String("message_type", msg.MessageType),
				zap.String("topic", msg.Topic),
				zap.Error(err),
			}
			if kafkaInfra.IsPermanent(err) {
				p.logger.Error("Outbox message rejected by broker, marking failed", fields...)
				failed = append(failed, msg.ID)
				continue
			}
			p.logger.Warn("Failed to publish outbox message, will retry", fields...)
			continue
		}
		sent = append(sent, msg.ID)
	}

	if err := p.outboxRepo.MarkMessagesAsSent(ctx, tx, sent); err != nil {
		return 0, err
	}
	if err := p.outboxRepo.MarkMessagesAsFailed(ctx, tx, failed); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit outbox transaction: %w", err)
	}

	if len(sent) > 0 {
		p.logger.Info("Outbox messages published", zap.Int("sent", len(sent)), zap.Int("pending", len(messages)-len(sent)))
	}
	return len(sent), nil
}

// publish bounds a single send by publishTimeout, since the batch's row locks
// are held until it returns.
func (p *Processor) publish(ctx context.Context, msg domain.OutboxMessage) error {
	publishCtx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()
	return p.kafkaProducer.Produce(publishCtx, msg.Topic, msg.Key, msg.Payload)
}
