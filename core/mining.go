package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/yourorg/pmdminer/internal/analyzer"
	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/internal/iocache"
	"github.com/yourorg/pmdminer/internal/pool"
)

// ExecuteMine runs a full mining pass over the repository's history.
// It serves as the main entry point for the 'mine' subcommand.
func ExecuteMine(ctx context.Context, cfg *contract.Config) error {
	client := contract.NewLocalGitClient()
	anlz, err := analyzer.New(cfg)
	if err != nil {
		return err
	}
	return runMining(ctx, cfg, client, anlz, iocache.Manager)
}

// runMining is the injectable body of ExecuteMine.
func runMining(ctx context.Context, cfg *contract.Config, client contract.GitClient, anlz contract.Analyzer, mgr contract.CacheManager) error {
	start := time.Now()

	repoPath, err := setupBaseRepo(ctx, cfg, client)
	if err != nil {
		return contract.NewSetupError(err)
	}

	commits, err := client.ListCommits(ctx, repoPath, cfg.Ref)
	if err != nil {
		return contract.NewSetupError(err)
	}
	if len(commits) == 0 {
		return contract.NewSetupError(errors.New("no commits found to analyze"))
	}
	contract.LogInfo("mining %d commits from %s", len(commits), cfg.RepoLocation)

	if err := os.MkdirAll(cfg.ResultsDir(), 0o755); err != nil {
		return contract.NewSetupError(err)
	}

	// Never spin up more worktrees than there are commits to process.
	slots := min(cfg.Workers, len(commits))

	workPool := pool.New(client, repoPath, cfg.WorktreesDir(), contract.RetryPolicy{
		MaxAttempts: cfg.CheckoutAttempts,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	})
	if err := workPool.Init(ctx, slots, commits[0]); err != nil {
		return contract.NewSetupError(err)
	}
	defer func() {
		// Teardown uses a fresh context so cancellation cannot leave
		// stale worktrees behind.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := workPool.Close(cleanupCtx); err != nil {
			contract.LogWarn("worktree cleanup incomplete", err)
		}
	}()

	runStore := mgr.RunStore()
	runID, err := runStore.BeginRun(start, map[string]any{
		"location": cfg.RepoLocation,
		"ref":      cfg.Ref,
		"workers":  slots,
		"analyzer": string(cfg.Analyzer),
		"ruleset":  cfg.RulesetPath,
	})
	if err != nil {
		contract.LogWarn("run tracking initialization failed", err)
	}

	sched := &scheduler{
		cfg:      cfg,
		git:      client,
		analyzer: anlz,
		cache:    mgr.ContentCache(),
		pool:     workPool,
	}
	tally := sched.run(ctx, commits)

	if err := sched.cache.Persist(); err != nil {
		contract.LogWarn("final cache persist failed", err)
	}

	if runID > 0 {
		if err := runStore.EndRun(runID, time.Now(), tally.Analyzed, tally.Skipped, tally.Failed); err != nil {
			contract.LogWarn("failed to finalize run tracking", err)
		}
	}

	summary, err := Summarize(cfg, len(commits))
	if err != nil {
		return err
	}
	if err := writeJSONFile(cfg.SummaryPath(), summary); err != nil {
		return err
	}

	reportRunPerformance(tally, time.Since(start))

	if ctx.Err() != nil {
		return fmt.Errorf("mining interrupted: %d of %d commits recorded", tally.Analyzed+tally.Skipped+tally.Failed, len(commits))
	}
	return nil
}

// setupBaseRepo clones the repository on first use and fetches updates on
// later runs. A failed fetch falls back to the existing clone, so offline
// resumes keep working.
func setupBaseRepo(ctx context.Context, cfg *contract.Config, client contract.GitClient) (string, error) {
	repoPath := cfg.RepoBaseDir()

	if _, err := os.Stat(repoPath); err == nil {
		contract.LogDebug("reusing base repository at %s", repoPath)
		if err := client.Fetch(ctx, repoPath); err != nil {
			contract.LogWarn("fetch failed, mining the existing clone", err)
		}
		return repoPath, nil
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return "", err
	}
	contract.LogInfo("cloning %s", cfg.RepoLocation)
	if err := client.Clone(ctx, cfg.RepoLocation, repoPath); err != nil {
		return "", err
	}
	return repoPath, nil
}

// reportRunPerformance logs how the run compares to the per-commit time
// target. Skipped commits are excluded; they cost almost nothing.
func reportRunPerformance(tally runTally, elapsed time.Duration) {
	worked := tally.Analyzed + tally.Failed
	contract.LogInfo("run finished in %s: %d analyzed, %d skipped, %d failed",
		elapsed.Round(time.Second), tally.Analyzed, tally.Skipped, tally.Failed)
	if worked == 0 {
		return
	}
	avg := elapsed / time.Duration(worked)
	if avg > contract.CommitTimeTarget {
		contract.LogWarn(fmt.Sprintf("average commit time %.2fs exceeds the %.0fs target",
			avg.Seconds(), contract.CommitTimeTarget.Seconds()), nil)
	} else {
		contract.LogInfo("average commit time %.2fs is within the %.0fs target",
			avg.Seconds(), contract.CommitTimeTarget.Seconds())
	}
}
