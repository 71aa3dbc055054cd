package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/eatly/dishes-api/internal/config"
	"github.com/eatly/dishes-api/internal/repository"
	"github.com/eatly/dishes-api/internal/service"
	"github.com/eatly/dishes-api/pkg/logger"
)

var (
	// Global flags
	dbURL      string
	jsonOutput bool
	logLevel   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dishctl",
	Short: "dishctl - administer the dishes table",
	Long: `dishctl runs the same schema and seed operations as the dishes API
directly against the configured store.

Configuration is read from the environment (and a .env file) exactly like
the server; --db overrides the connection and forces the postgres driver.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// newService builds the service for a command run. Tests replace it.
var newService = openService

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func openService(ctx context.Context) (*service.DishService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if dbURL != "" {
		cfg.Database.URL = dbURL
		cfg.StorageDriver = config.StorageDriverPostgres
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)

	repo, closeRepo, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	return service.NewDishService(repo, cfg.Database.Table, log), closeRepo, nil
}

// withService opens the store, runs fn and closes the store again.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.DishService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, closeRepo, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	if err := svc.Ping(ctx); err != nil {
		return err
	}

	return fn(ctx, svc)
}

// render writes v as indented JSON with --json, otherwise calls text.
func render(w io.Writer, v any, text func(w io.Writer)) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
