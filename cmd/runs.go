package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/internal/iocache"
	"github.com/yourorg/pmdminer/schema"
)

// runsSetup loads minimal configuration needed for run-tracking operations.
func runsSetup() error {
	if err := outputSetup(nil); err != nil {
		return err
	}

	// Handle empty backend as NoneBackend
	backend := schema.CacheBackend(viper.GetString("runs-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	connStr := viper.GetString("runs-db-connect")

	if _, ok := schema.ValidRunsBackends[backend]; !ok {
		return fmt.Errorf("unsupported runs backend %q", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for runs commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsCmd focused on mining-run tracking.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage historical mining-run tracking",
	Long: `Manage the store that records every mining run.

When enabled, pmdminer records the start and end of each run together with
commit tallies and the configuration used, so long-lived setups can audit
how a repository was mined over time.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run tracking statistics
  migrate - Run database schema migrations

Examples:
  # Check run tracking status
  pmdminer runs status --runs-backend sqlite`,
}

// runsStatusCmd shows run-store status.
var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run tracking statistics and connection details",
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := iocache.NewRunStore(cfg.RunsBackend, cfg.RunsDBConnect, cfg.RunsDBFilePath())
		if err != nil {
			contract.LogFatal("Failed to open run store", err)
		}
		defer func() { _ = store.Close() }()

		status, err := store.Status()
		if err != nil {
			contract.LogFatal("Failed to get runs status", err)
		}
		iocache.PrintRunsStatus(status)
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run-tracking store.

By default, migrates to the latest version. Use --target-version for
specific versions.

Examples:
  # Migrate to latest version (default)
  pmdminer runs migrate --runs-backend sqlite

  # Rollback to the initial state
  pmdminer runs migrate --runs-backend sqlite --target-version 0`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, cfg.RunsDBFilePath(), targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println("Migrations applied successfully.")
	},
}
