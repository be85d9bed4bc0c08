package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourorg/pmdminer/core"
	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/internal/parquet"
)

// exportSetupWrapper provides PreRunE for the export command.
func exportSetupWrapper(_ *cobra.Command, args []string) error {
	if err := outputSetup(args); err != nil {
		return err
	}
	if cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for export")
	}
	return nil
}

// exportCmd exports mined results to Parquet files.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export mined results to Parquet for analytics tools",
	Long: `Export the per-commit records of a mining run to Parquet format.

Exports two datasets:
- Commit results - one row per analyzed commit
- Rule warnings  - one row per (commit, rule) count pair

Parquet format enables:
- Fast querying with DuckDB, Apache Spark, pandas
- Efficient storage with columnar compression
- Direct import into BI tools

Requires: --output-file parameter

Examples:
  # Export all records
  pmdminer export --output-dir ./results --output-file mined.parquet

  # Query with DuckDB afterwards
  duckdb -c "SELECT * FROM read_parquet('mined.parquet') ORDER BY num_warnings DESC LIMIT 10"`,
	PreRunE: exportSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		records, _, err := core.LoadRecords(cfg.ResultsDir())
		if err != nil {
			contract.LogFatal("Failed to load commit records", err)
		}
		if len(records) == 0 {
			contract.LogFatal("Nothing to export", fmt.Errorf("no records found in %s", cfg.ResultsDir()))
		}

		resultsPath := cfg.OutputFile
		rulesPath := rulesExportPath(resultsPath)

		if err := parquet.WriteCommitResultsParquet(parquet.ConvertCommitRecords(records), resultsPath); err != nil {
			contract.LogFatal("Failed to export commit results", err)
		}
		if err := parquet.WriteRuleWarningsParquet(parquet.ExplodeRuleWarnings(records), rulesPath); err != nil {
			contract.LogFatal("Failed to export rule warnings", err)
		}

		contract.LogInfo("Exported %d commits to %s and rule counts to %s", len(records), resultsPath, rulesPath)
	},
}

// rulesExportPath derives the sibling file name for the rule-warnings dataset.
func rulesExportPath(resultsPath string) string {
	if ext := ".parquet"; strings.HasSuffix(resultsPath, ext) {
		return strings.TrimSuffix(resultsPath, ext) + "_rules" + ext
	}
	return resultsPath + "_rules"
}
