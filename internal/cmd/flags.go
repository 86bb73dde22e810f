package cmd

import (
	"context"
	"fmt"

	"github.com/harrison/phishdrill/internal/config"
	"github.com/harrison/phishdrill/internal/logger"
	"github.com/harrison/phishdrill/internal/store"
	"github.com/spf13/cobra"
)

// addStoreFlags registers the flags shared by every command that opens a store.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: .phishdrill/config.yaml)")
	cmd.Flags().String("table", "", "Result table name")
	cmd.Flags().String("db-path", "", "Path to the SQLite results database")
	cmd.Flags().String("dsn", "", "PostgreSQL connection string (switches the store to postgres)")
}

// addOutputFlags registers report export flags.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "Comma separated export formats (csv, json, markdown, html)")
	cmd.Flags().String("output-dir", "", "Directory for exported reports")
}

// loadConfig loads the config file, applies flags that were set, and validates.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		if configPath != "" {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var f config.FlagOverrides
	f.Users = changedInt(cmd, "users")
	f.Simulations = changedInt(cmd, "simulations")
	f.TrainingIntervalDays = changedInt(cmd, "interval-days")
	if changed(cmd, "seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		f.Seed = &seed
	}
	f.Table = changedString(cmd, "table")
	f.LogLevel = changedString(cmd, "log-level")
	f.LogDir = changedString(cmd, "log-dir")
	f.OutputDir = changedString(cmd, "output-dir")
	f.DBPath = changedString(cmd, "db-path")
	f.DSN = changedString(cmd, "dsn")
	if format := changedString(cmd, "format"); format != nil {
		f.Formats = config.ParseFormats(*format)
	}
	cfg.MergeWithFlags(f)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func changed(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Lookup(name) != nil && cmd.Flags().Changed(name)
}

func changedInt(cmd *cobra.Command, name string) *int {
	if !changed(cmd, name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

func changedString(cmd *cobra.Command, name string) *string {
	if !changed(cmd, name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

// openStore opens the configured store. Replace conflicts that get retried
// are reported to log when it is non-nil.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	opts := store.Options{
		Driver: cfg.Store.Driver,
		DBPath: cfg.Store.DBPath,
		DSN:    cfg.Store.DSN,
	}
	if log != nil {
		opts.Retry = store.DefaultReplaceRetry
		opts.Retry.OnRetry = func(table string, attempt int, err error) {
			log.LogWarn(fmt.Sprintf("Replace of %s hit a conflict (attempt %d), retrying: %v", table, attempt, err))
		}
	}
	st, err := store.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	return st, nil
}
