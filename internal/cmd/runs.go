package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/harrison/phishdrill/internal/config"
	"github.com/harrison/phishdrill/internal/models"
	"github.com/harrison/phishdrill/internal/report"
	"github.com/harrison/phishdrill/internal/store"
	"github.com/spf13/cobra"
)

// NewRunsCommand creates the 'phishdrill runs' command
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded simulation runs",
		Long: `List the metadata of previous runs, most recent first: destination table,
seed, population size, exercise count and the time of the first exercise.

The seed of a listed run reproduces its users report:
  phishdrill run --seed <seed> --users <users> --simulations <trials>`,
		Args: cobra.NoArgs,
		RunE: runRuns,
	}

	addStoreFlags(cmd)
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 lists all)")

	return cmd
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	output := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	if cfg.Store.Driver == config.DriverSQLite {
		if _, err := os.Stat(cfg.Store.DBPath); os.IsNotExist(err) {
			fmt.Fprintln(output, "No runs recorded.")
			return nil
		}
	}

	st, err := openStore(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.Runs(ctx, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(output, "No runs recorded.")
		return nil
	}

	return report.NewPrinter(output).Print(runsTable(runs))
}

// runsTable lays out run metadata for the report printer.
func runsTable(runs []*store.Run) *report.Table {
	t := &report.Table{
		Name:    "runs",
		Title:   "Simulation runs",
		Columns: []string{"id", "table", "seed", "users", "trials", "interval_days", "records", "started_at"},
	}
	for _, r := range runs {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Table,
			strconv.FormatUint(r.Seed, 10),
			strconv.Itoa(r.Users),
			strconv.Itoa(r.Trials),
			strconv.Itoa(r.IntervalDays),
			strconv.Itoa(r.Records),
			models.FormatTimestamp(r.StartedAt.Local()),
		})
	}
	return t
}
