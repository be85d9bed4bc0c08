// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/yourorg/pmdminer/schema"
)

// GitClient defines the version-control oracle the miner depends on.
// This allows the orchestration logic to be tested without a real git executable.
type GitClient interface {
	// --- Generic / Low-Level ---

	// Run executes a git command inside repoPath and returns its stdout.
	// Its use should be minimized in favor of the explicit methods below.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// --- Repository Setup ---

	// Clone clones location into dest.
	Clone(ctx context.Context, location, dest string) error

	// Fetch updates all remotes of an existing clone.
	Fetch(ctx context.Context, repoPath string) error

	// --- History ---

	// ListCommits returns commit hashes in chronological order, oldest first.
	// An empty ref means the full history across all refs.
	ListCommits(ctx context.Context, repoPath string, ref string) ([]string, error)

	// DiffChanges returns the file-level changes between two commits.
	DiffChanges(ctx context.Context, repoPath string, commitA, commitB string) ([]FileChange, error)

	// --- Working Trees ---

	// Checkout forcibly resets a working tree to the given commit.
	Checkout(ctx context.Context, worktreePath string, commit string) error

	// AddWorktree registers a new detached worktree at path, pinned to commit.
	AddWorktree(ctx context.Context, repoPath string, path string, commit string) error

	// RemoveWorktree deregisters and removes the worktree at path.
	RemoveWorktree(ctx context.Context, repoPath string, path string) error

	// PruneWorktrees drops stale worktree registrations left by prior runs.
	PruneWorktrees(ctx context.Context, repoPath string) error
}

// FileChange is one entry of a commit-to-commit diff. Renames contribute
// two entries: a deletion of the old path and a change at the new one.
type FileChange struct {
	Path    string
	Deleted bool
}

// Analyzer is the static-analysis oracle: a blocking call with a bounded
// timeout that returns structured violations or fails. A nil or empty file
// list means "analyze the whole tree".
type Analyzer interface {
	Analyze(ctx context.Context, root string, files []string) (*schema.AnalyzerReport, error)
	Kind() schema.AnalyzerKind
}

// ContentCache is the shared fingerprint-to-findings map. Lookup and Store
// must be safe under concurrent use from all workers.
type ContentCache interface {
	Lookup(fingerprint string) (schema.CacheEntry, bool)
	Store(fingerprint string, entry schema.CacheEntry)
	Len() int

	// Persist writes a whole-cache snapshot to the backing store.
	// Failures degrade to cache-miss behavior on the next run; they are
	// never fatal.
	Persist() error
}

// CacheStore persists and restores whole cache snapshots.
type CacheStore interface {
	Load() (*schema.CacheSnapshot, error)
	Persist(snapshot *schema.CacheSnapshot) error
	Status() (schema.CacheStatus, error)
	Clear() error
	Close() error
}

// RunStore tracks mining runs for later inspection.
type RunStore interface {
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)
	EndRun(runID int64, endTime time.Time, analyzed, skipped, failed int) error
	Status() (schema.RunsStatus, error)
	Close() error
}

// CacheManager bundles the stores the scheduler owns the lifecycle of.
// This allows the persistence layer to be mocked for testing.
type CacheManager interface {
	ContentCache() ContentCache
	RunStore() RunStore
}
