package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/internal/iocache"
	"github.com/yourorg/pmdminer/schema"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This avoids ruleset and analyzer validation for simple store management.
func cacheSetup() error {
	if err := outputSetup(nil); err != nil {
		return err
	}

	backend := schema.CacheBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	if _, ok := schema.ValidCacheBackends[backend]; !ok {
		return fmt.Errorf("unsupported cache backend %q", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on content cache management.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the PMD content cache (improves performance)",
	Long: `Manage the content cache that memoizes PMD findings per file fingerprint.

The cache means a file whose content was already analyzed is never sent to
PMD again, across commits and across runs. Clearing it forces the next run
to re-analyze everything.

Supported backends: JSON snapshot (default), SQLite, MySQL, PostgreSQL, or None

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached findings

Examples:
  # Check cache status
  pmdminer cache status

  # Clear cache after switching rulesets
  pmdminer cache clear`,
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display cache statistics and connection details",
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := iocache.NewCacheStore(cfg)
		if err != nil {
			contract.LogFatal("Failed to open cache store", err)
		}
		defer func() { _ = store.Close() }()

		status, err := store.Status()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(status)
	},
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached PMD findings",
	Long: `Delete all memoized findings from the configured backend.

Use this when:
- The ruleset changed and stale findings must not linger
- The cache may be corrupted
- Measuring cold-start performance

Examples:
  # Clear the default JSON snapshot
  pmdminer cache clear

  # Clear a MySQL-backed cache (set connection string via env variable)
  PMDMINER_CACHE_BACKEND=mysql PMDMINER_CACHE_DB_CONNECT="..." pmdminer cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := iocache.NewCacheStore(cfg)
		if err != nil {
			contract.LogFatal("Failed to open cache store", err)
		}
		defer func() { _ = store.Close() }()

		if err := store.Clear(); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}
