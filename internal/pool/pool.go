// Package pool manages the long-lived git worktrees the workers run in.
package pool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// Slot is one worktree owned by exactly one worker goroutine at a time.
type Slot struct {
	ID   int
	Path string
}

// Pool creates worktree slots under a common parent directory and tears
// them down at the end of a run. Slots are created once and reused for
// every commit a worker processes.
type Pool struct {
	git      contract.GitClient
	repoPath string
	baseDir  string
	checkout contract.RetryPolicy
	slots    []*Slot
}

// New creates a pool rooted at baseDir for the repository at repoPath.
func New(git contract.GitClient, repoPath, baseDir string, checkout contract.RetryPolicy) *Pool {
	return &Pool{
		git:      git,
		repoPath: repoPath,
		baseDir:  baseDir,
		checkout: checkout,
	}
}

// Init clears leftovers from prior runs and creates n slots pinned to
// pinCommit. Stale wt_* directories from a crashed run are removed first,
// so Init is safe to call on a dirty output directory.
func (p *Pool) Init(ctx context.Context, n int, pinCommit string) error {
	if n < 1 {
		return fmt.Errorf("pool size must be at least 1, got %d", n)
	}
	if err := os.MkdirAll(p.baseDir, 0o755); err != nil {
		return fmt.Errorf("create worktrees dir: %w", err)
	}
	if err := p.clearStale(ctx); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		path := filepath.Join(p.baseDir, fmt.Sprintf("%s%d", schema.WorktreePrefix, i))
		if err := p.git.AddWorktree(ctx, p.repoPath, path, pinCommit); err != nil {
			return fmt.Errorf("add worktree %d: %w", i, err)
		}
		p.slots = append(p.slots, &Slot{ID: i, Path: path})
	}
	return nil
}

// clearStale removes any wt_* directory a prior run left behind, then
// prunes the registrations git still holds for them.
func (p *Pool) clearStale(ctx context.Context) error {
	entries, err := os.ReadDir(p.baseDir)
	if err != nil {
		return fmt.Errorf("read worktrees dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), schema.WorktreePrefix) {
			continue
		}
		stalePath := filepath.Join(p.baseDir, entry.Name())
		contract.LogDebug("removing stale worktree %s", stalePath)
		if err := p.git.RemoveWorktree(ctx, p.repoPath, stalePath); err != nil {
			// Registration may already be gone; the directory still has to go.
			if err := os.RemoveAll(stalePath); err != nil {
				return fmt.Errorf("remove stale worktree %s: %w", stalePath, err)
			}
		}
	}
	return p.git.PruneWorktrees(ctx, p.repoPath)
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return len(p.slots)
}

// Slot returns the slot with the given index.
func (p *Pool) Slot(i int) *Slot {
	return p.slots[i]
}

// Checkout forcibly moves a slot to the given commit, retrying transient
// failures. A crashed git process can leave an index.lock behind; the retry
// hook clears it before the next attempt.
func (p *Pool) Checkout(ctx context.Context, slot *Slot, commit string) error {
	policy := p.checkout
	policy.OnRetry = func(attempt int, err error) {
		contract.LogDebug("checkout retry %d for %s in %s: %v", attempt, contract.ShortHash(commit), slot.Path, err)
		lockPath := filepath.Join(p.repoPath, ".git", "worktrees", filepath.Base(slot.Path), "index.lock")
		if removeErr := os.Remove(lockPath); removeErr == nil {
			contract.LogDebug("removed stale lock %s", lockPath)
		}
	}
	return policy.Do(ctx, func() error {
		return p.git.Checkout(ctx, slot.Path, commit)
	})
}

// Close removes every slot and prunes their registrations. All removals are
// attempted even if one fails.
func (p *Pool) Close(ctx context.Context) error {
	var errs []error
	for _, slot := range p.slots {
		if err := p.git.RemoveWorktree(ctx, p.repoPath, slot.Path); err != nil {
			errs = append(errs, fmt.Errorf("remove worktree %d: %w", slot.ID, err))
		}
	}
	if err := p.git.PruneWorktrees(ctx, p.repoPath); err != nil {
		errs = append(errs, err)
	}
	p.slots = nil
	return errors.Join(errs...)
}
