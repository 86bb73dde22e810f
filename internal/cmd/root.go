package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for phishdrill
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phishdrill",
		Short: "Phishing-training simulation and reporting",
		Long: `phishdrill simulates an organization whose users go through repeated
phishing-awareness exercises.

Each user follows a behavioral archetype that decides how often they report,
fall for, or ignore a simulated phishing email. Results are stored in a
SQLite file (or PostgreSQL) and summarized per user and per day.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewReportCommand())
	cmd.AddCommand(NewRunsCommand())

	return cmd
}
