package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harrison/phishdrill/internal/config"
	"github.com/harrison/phishdrill/internal/filelock"
	"github.com/harrison/phishdrill/internal/logger"
	"github.com/harrison/phishdrill/internal/report"
	"github.com/harrison/phishdrill/internal/simulation"
	"github.com/harrison/phishdrill/internal/store"
	"github.com/spf13/cobra"
)

// startLayouts are the accepted --start formats
var startLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a training simulation and store the results",
		Long: `Generate an organization, run every phishing exercise, replace the result
table with the new records, and print the per-user and per-day reports.

Settings come from .phishdrill/config.yaml; flags override the file.

Examples:
  phishdrill run
  phishdrill run --users 50 --simulations 6 --seed 42
  phishdrill run --format csv,html --output-dir reports
  phishdrill run --dsn postgres://localhost/phishdrill`,
		Args: cobra.NoArgs,
		RunE: runCommand,
	}

	addStoreFlags(cmd)
	addOutputFlags(cmd)
	cmd.Flags().Int("users", 0, "Number of simulated users")
	cmd.Flags().Int("simulations", 0, "Exercises each user goes through")
	cmd.Flags().Int("interval-days", 0, "Days between exercises")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks one from the clock)")
	cmd.Flags().String("start", "", "Time of the first exercise (RFC3339 or YYYY-MM-DD, default now)")
	cmd.Flags().String("log-dir", "", "Directory for run logs")
	cmd.Flags().String("log-level", "", "Console log level (trace, debug, info, warn, error)")
	cmd.Flags().Bool("no-export", false, "Print reports without writing export files")

	return cmd
}

func runCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	start := time.Now().Truncate(time.Second)
	if s, _ := cmd.Flags().GetString("start"); s != "" {
		if start, err = parseStart(s); err != nil {
			return err
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	if cfg.Store.Driver == config.DriverSQLite && cfg.Store.DBPath != ":memory:" {
		lock, err := filelock.AcquireRunLock(cfg.Store.DBPath)
		if err != nil {
			return fmt.Errorf("another run is using %s: %w", cfg.Store.DBPath, err)
		}
		defer lock.Unlock()
	}

	console := logger.NewConsoleLogger(out, cfg.LogLevel)
	fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, "debug")
	if err != nil {
		// Run logs are optional; keep going on the console
		console.LogWarn(fmt.Sprintf("Run log disabled: %v", err))
	} else {
		defer fileLog.Close()
	}
	var log logger.Logger = console
	if fileLog != nil {
		log = logger.NewMultiLogger(console, fileLog)
	}

	dist, err := cfg.ArchetypeDistribution()
	if err != nil {
		return err
	}
	weights, err := cfg.ProfileWeights()
	if err != nil {
		return err
	}

	org, err := simulation.NewOrganization(simulation.Options{
		Users:        cfg.Users,
		Trials:       cfg.Simulations,
		Interval:     cfg.TrainingInterval(),
		Start:        start,
		Seed:         seed,
		Distribution: dist,
		Weights:      weights,
		Observer:     log,
	})
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	log.LogDebug(org.String())

	log.LogTrainingStart(logger.TrainingPlan{
		Users:    cfg.Users,
		Trials:   cfg.Simulations,
		Interval: cfg.TrainingInterval(),
		Start:    start,
		Seed:     seed,
	})
	if err := org.RunTraining(); err != nil {
		log.LogError(err.Error())
		return fmt.Errorf("training failed: %w", err)
	}
	results := org.CollectResults()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	began := time.Now()
	if err := st.Replace(ctx, cfg.Table, results); err != nil {
		log.LogError(err.Error())
		return fmt.Errorf("failed to store results: %w", err)
	}
	log.LogStored(cfg.Table, results.Len(), time.Since(began))

	run := &store.Run{
		Table:        cfg.Table,
		Seed:         seed,
		Users:        cfg.Users,
		Trials:       cfg.Simulations,
		IntervalDays: cfg.TrainingIntervalDays,
		Records:      results.Len(),
		StartedAt:    start,
	}
	if err := st.RecordRun(ctx, run); err != nil {
		// The results are already stored; losing the metadata row is not fatal
		log.LogWarn(fmt.Sprintf("Failed to record run metadata: %v", err))
	}

	noExport, _ := cmd.Flags().GetBool("no-export")
	printer := report.NewPrinter(out)
	for _, kind := range report.Kinds() {
		t, err := report.Build(ctx, st, cfg.Table, kind)
		if err != nil {
			return fmt.Errorf("failed to build %s report: %w", kind, err)
		}
		fmt.Fprintln(out)
		if err := printer.Print(t); err != nil {
			return err
		}
		if noExport {
			continue
		}
		paths, err := report.Export(t, cfg.OutputDir, cfg.Formats)
		if err != nil {
			return fmt.Errorf("failed to export %s report: %w", kind, err)
		}
		for _, p := range paths {
			log.LogDebug(fmt.Sprintf("Wrote %s", p))
		}
	}
	if !noExport {
		log.LogInfo(fmt.Sprintf("Reports exported to %s", displayPath(cfg.OutputDir)))
	}

	fmt.Fprintln(out)
	log.LogSummary(org.Summary())
	if fileLog != nil {
		log.LogDebug(fmt.Sprintf("Run log: %s", fileLog.Path()))
	}
	return nil
}

// parseStart accepts an RFC3339 timestamp, a local timestamp, or a date.
func parseStart(s string) (time.Time, error) {
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --start %q: use RFC3339 or YYYY-MM-DD", s)
}

// displayPath shortens p relative to the working directory when possible.
func displayPath(p string) string {
	wd, err := os.Getwd()
	if err != nil {
		return p
	}
	if rel, err := filepath.Rel(wd, p); err == nil && !filepath.IsAbs(rel) && len(rel) < len(p) {
		return rel
	}
	return p
}
