package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/config"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/logger"
)

var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "pagamento",
		Short:         "Payment tracking service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.ConfigPathFromEnv(),
		"path to a YAML config file (env: PAYMENTS_CONFIG)")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the configuration and builds the application logger.
func bootstrap(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading configuration: %w", err)
	}
	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, appLogger, nil
}
