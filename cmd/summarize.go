package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yourorg/pmdminer/core"
	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/internal/outwriter"
)

// summarizeSetupWrapper provides PreRunE for the summarize command.
func summarizeSetupWrapper(_ *cobra.Command, args []string) error {
	return outputSetup(args)
}

// summarizeCmd regenerates the run summary from the records on disk.
var summarizeCmd = &cobra.Command{
	Use:   "summarize [repo-location]",
	Short: "Rebuild and print the run summary from recorded results.",
	Long: `Aggregate the per-commit records of a previous mining run into the
repository-wide summary, rewrite summary.json and print the report.

Runs entirely from the output directory, so it works after an interrupted
run and long after the mining machine state is gone.

Examples:
  # Summarize the default output directory
  pmdminer summarize

  # Summarize a specific run and export the report
  pmdminer summarize --output-dir ./results --output json --output-file summary.json

  # Include the per-commit table
  pmdminer summarize --commits`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: summarizeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		start := time.Now()

		summary, err := core.ExecuteSummarize(rootCtx, cfg)
		if err != nil {
			contract.LogFatal("Cannot summarize results", err)
		}

		writer := outwriter.NewOutWriter()
		if err := writer.WriteSummary(summary, cfg, time.Since(start)); err != nil {
			contract.LogFatal("Cannot write summary", err)
		}

		if viper.GetBool("commits") {
			records, _, err := core.LoadRecords(cfg.ResultsDir())
			if err != nil {
				contract.LogFatal("Cannot load commit records", err)
			}
			if err := writer.WriteCommits(records, cfg); err != nil {
				contract.LogFatal("Cannot write commit table", err)
			}
		}
	},
}
