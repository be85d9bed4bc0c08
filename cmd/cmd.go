// Package cmd defines the command-line interface for pmdminer.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("ruleset", "r", "", "Path to the PMD ruleset XML file")
	rootCmd.PersistentFlags().StringP("output-dir", "o", contract.DefaultOutputDir, "Directory for the clone, worktrees and results")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers and worktrees")
	rootCmd.PersistentFlags().String("analyzer", string(schema.CLIAnalyzerKind), "Analyzer transport: cli or http")
	rootCmd.PersistentFlags().String("pmd-path", "", "Path to the PMD executable (defaults to pmd on PATH)")
	rootCmd.PersistentFlags().String("server-url", "", "Base URL of the PMD analysis daemon (http analyzer)")
	rootCmd.PersistentFlags().String("aux-classpath", "", "Comma-separated classpath entries passed to PMD")
	rootCmd.PersistentFlags().String("extension", contract.DefaultExtension, "Source file extension to analyze")
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	rootCmd.PersistentFlags().String("ref", "", "Branch or ref to mine (empty means full history)")
	rootCmd.PersistentFlags().String("timeout", "", "Per-commit analysis timeout (e.g. 5m)")
	rootCmd.PersistentFlags().String("persist-every", "", "Interval between mid-run cache snapshots (e.g. 2m)")
	rootCmd.PersistentFlags().Int("checkout-attempts", contract.DefaultCheckoutAttempts, "Retry budget for worktree checkouts")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.JSONBackend), "Cache backend: json or sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for run tracking")
	rootCmd.PersistentFlags().String("output", string(schema.TableOut), "Output format: table or json or csv")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().Bool("progress", true, "Render an interactive progress bar")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored log labels (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of summarizeCmd to Viper
	summarizeCmd.Flags().Bool("commits", false, "Also print the per-commit result table")
	if err := viper.BindPFlags(summarizeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding summarize flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
