package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/config"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/database"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/logging"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/server"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "Gondar city data collection dashboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./dashboard.yaml or /etc/dashboard/dashboard.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().String("db-url", "", "PostgreSQL connection URL, overrides the database.* settings")

	root.AddCommand(newServeCmd(), newEnsureSchemaCmd())
	return root
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, cfg, logger)
			if err != nil {
				logger.Error("startup failed", "err", err)
				return err
			}

			if err := srv.Run(ctx); err != nil {
				logger.Error("server stopped with error", "err", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().Int("port", 0, "HTTP port (default 8080)")
	return cmd
}

func newEnsureSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-schema",
		Short: "Create the system tables if they are missing, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := database.Connect(ctx, cfg.Database, logger)
			if err != nil {
				logger.Error("database connection failed", "err", err)
				return err
			}
			defer pool.Close()

			if err := database.EnsureSchema(ctx, pool, logger); err != nil {
				logger.Error("schema setup failed", "err", err)
				return err
			}
			logger.Info("schema is up to date")
			return nil
		},
	}
}

func setup(cmd *cobra.Command) (config.Config, *log.Logger, error) {
	cfg, err := config.Load(cmd, cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading config:", err)
		return config.Config{}, nil, err
	}

	logger := logging.New(cfg.Log)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		return config.Config{}, nil, err
	}

	return cfg, logger, nil
}
