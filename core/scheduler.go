package core

import (
	"context"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/internal/pool"
	"github.com/yourorg/pmdminer/schema"
)

// runTally counts terminal commit states for one run.
type runTally struct {
	Analyzed int
	Skipped  int
	Failed   int
}

// buildLineages splits the chronological commit list round-robin across n
// slots. Each slot's sub-sequence keeps chronological order, which is what
// makes the incremental diff step cheap: consecutive commits on one slot
// are usually close in history.
func buildLineages(commits []string, n int) [][]string {
	lineages := make([][]string, n)
	for i, commit := range commits {
		slot := i % n
		lineages[slot] = append(lineages[slot], commit)
	}
	return lineages
}

// scheduler fans lineages out to worker goroutines and collects outcomes.
type scheduler struct {
	cfg      *contract.Config
	git      contract.GitClient
	analyzer contract.Analyzer
	cache    contract.ContentCache
	pool     *pool.Pool
}

// run processes all commits and returns the tallies. Worker failures are
// absorbed into failed counts; only context cancellation stops the run
// early, and even then everything recorded so far stays on disk.
func (s *scheduler) run(ctx context.Context, commits []string) runTally {
	lineages := buildLineages(commits, s.pool.Size())
	outcomeCh := make(chan schema.CommitOutcome, len(commits))

	var wg sync.WaitGroup
	for i := 0; i < s.pool.Size(); i++ {
		slot := s.pool.Slot(i)
		lineage := lineages[i]
		wg.Go(func() {
			proc := newProcessor(s.cfg, s.git, s.analyzer, s.cache, s.pool, slot)
			for _, commit := range lineage {
				if ctx.Err() != nil {
					return
				}
				outcomeCh <- proc.process(ctx, commit)
			}
		})
	}

	// Persist the cache on a timer so a crash loses at most one interval
	// of analyzer work.
	persistDone := make(chan struct{})
	persistStopped := make(chan struct{})
	go func() {
		defer close(persistStopped)
		ticker := time.NewTicker(s.cfg.PersistEvery)
		defer ticker.Stop()
		for {
			select {
			case <-persistDone:
				return
			case <-ticker.C:
				if err := s.cache.Persist(); err != nil {
					contract.LogWarn("periodic cache persist failed", err)
				} else {
					contract.LogDebug("persisted %d cache entries", s.cache.Len())
				}
			}
		}
	}()

	tally := s.collect(outcomeCh, len(commits), &wg)

	close(persistDone)
	<-persistStopped
	return tally
}

// collect drains worker outcomes and reports progress until all workers
// are done.
func (s *scheduler) collect(outcomeCh chan schema.CommitOutcome, total int, wg *sync.WaitGroup) runTally {
	go func() {
		wg.Wait()
		close(outcomeCh)
	}()

	var bar *progressbar.ProgressBar
	if s.cfg.Progress {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("mining"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var tally runTally
	processed := 0
	for outcome := range outcomeCh {
		processed++
		switch outcome.State {
		case schema.RecordedState:
			tally.Analyzed++
		case schema.SkippedState:
			tally.Skipped++
		case schema.FailedState:
			tally.Failed++
		}

		if bar != nil {
			_ = bar.Add(1)
		} else if processed%contract.ProgressLogEvery == 0 || processed == total {
			contract.LogInfo("processed %d/%d commits (%d analyzed, %d skipped, %d failed)",
				processed, total, tally.Analyzed, tally.Skipped, tally.Failed)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return tally
}
