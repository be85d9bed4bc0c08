package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourorg/pmdminer/core"
	"github.com/yourorg/pmdminer/internal/contract"
)

// mineCmd runs the full history-mining pipeline.
var mineCmd = &cobra.Command{
	Use:   "mine <repo-location>",
	Short: "Analyze every commit of a repository with PMD.",
	Long: `Clone or refresh a repository, walk its history oldest-first and run PMD
at every commit, writing one result record per commit.

The run is resumable: commits that already have a record on disk are
skipped, so an interrupted run picks up where it left off. Unchanged file
contents are served from the content cache instead of re-analyzing them.

Examples:
  # Mine a remote repository with the default ruleset search
  pmdminer mine https://github.com/example/app.git --ruleset rules.xml

  # Mine only one branch with eight workers
  pmdminer mine /path/to/repo --ruleset rules.xml --ref main --workers 8

  # Use a warm PMD daemon instead of the CLI
  pmdminer mine /path/to/repo --ruleset rules.xml --analyzer http --server-url http://localhost:8080

  # Keep the content cache in SQLite instead of a JSON snapshot
  pmdminer mine /path/to/repo --ruleset rules.xml --cache-backend sqlite`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Ctrl-C stops dispatch; in-flight commits finish and persist.
		ctx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := core.ExecuteMine(ctx, cfg); err != nil {
			contract.LogFatal("Cannot run mining", err)
		}
	},
}
