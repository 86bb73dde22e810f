package cmd

import (
	"fmt"
	"os"

	"github.com/harrison/phishdrill/internal/config"
	"github.com/harrison/phishdrill/internal/report"
	"github.com/spf13/cobra"
)

// NewReportCommand creates the 'phishdrill report' command
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [users|dates]",
		Short: "Show outcome counts from the stored results",
		Long: `Query the result table of the last run and print outcome counts.

  users  successes, fails and misses per user, most successes first
  dates  successes, fails and misses per calendar day

Without an argument both reports are printed. With --export the reports are
also written to the output directory in every configured format.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: report.Kinds(),
		RunE:      runReport,
	}

	addStoreFlags(cmd)
	addOutputFlags(cmd)
	cmd.Flags().Bool("export", false, "Also write the reports to the output directory")

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	output := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	kinds := report.Kinds()
	if len(args) == 1 {
		kinds = []string{args[0]}
	}

	if cfg.Store.Driver == config.DriverSQLite {
		if _, err := os.Stat(cfg.Store.DBPath); os.IsNotExist(err) {
			fmt.Fprintln(output, "No results found. Run 'phishdrill run' first.")
			fmt.Fprintf(output, "Database path: %s\n", cfg.Store.DBPath)
			return nil
		}
	}

	st, err := openStore(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	export, _ := cmd.Flags().GetBool("export")
	printer := report.NewPrinter(output)
	for i, kind := range kinds {
		t, err := report.Build(ctx, st, cfg.Table, kind)
		if err != nil {
			return fmt.Errorf("build %s report: %w", kind, err)
		}
		if i > 0 {
			fmt.Fprintln(output)
		}
		if err := printer.Print(t); err != nil {
			return err
		}
		if !export {
			continue
		}
		paths, err := report.Export(t, cfg.OutputDir, cfg.Formats)
		if err != nil {
			return fmt.Errorf("export %s report: %w", kind, err)
		}
		for _, p := range paths {
			fmt.Fprintf(output, "Wrote %s\n", displayPath(p))
		}
	}
	return nil
}
