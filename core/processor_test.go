package core

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/internal/pool"
	"github.com/yourorg/pmdminer/schema"
)

func readCommitRecord(t *testing.T, resultsDir, commit string) schema.CommitRecord {
	t.Helper()
	data, err := os.ReadFile(recordPath(resultsDir, commit))
	require.NoError(t, err)
	var record schema.CommitRecord
	require.NoError(t, json.Unmarshal(data, &record))
	return record
}

func readErrorRecord(t *testing.T, resultsDir, commit string) schema.ErrorRecord {
	t.Helper()
	data, err := os.ReadFile(errorRecordPath(resultsDir, commit))
	require.NoError(t, err)
	var record schema.ErrorRecord
	require.NoError(t, json.Unmarshal(data, &record))
	return record
}

// TestProcessorLifecycle walks one worker through the full per-commit state
// machine: cold full scan, incremental analysis, cache-only commits,
// skipping, content dedup across paths, failure isolation and recovery.
func TestProcessorLifecycle(t *testing.T) {
	skipIfGitNotAvailable(t)
	ctx := context.Background()

	repo := t.TempDir()
	gitRun(t, repo, "init", "-q")
	c1 := commitFiles(t, repo, "first", map[string]*string{
		"src/A.java": str("class A {}"),
		"src/B.java": str("class B {}"),
	})
	c2 := commitFiles(t, repo, "second", map[string]*string{
		"src/A.java": str("class A { int x; }"),
		"src/C.java": str("class C {}"),
	})
	c3 := commitFiles(t, repo, "docs only", map[string]*string{
		"README.md": str("docs"),
	})
	c4 := commitFiles(t, repo, "copied content", map[string]*string{
		"src/Copy.java": str("class A { int x; }"),
	})
	c5 := commitFiles(t, repo, "will fail", map[string]*string{
		"src/A.java": str("class A { long y; }"),
	})
	c6 := commitFiles(t, repo, "recovery", map[string]*string{
		"src/C.java": str("class C { int z; }"),
	})

	cfg := testConfig(t, repo, t.TempDir())
	require.NoError(t, os.MkdirAll(cfg.ResultsDir(), 0o755))
	resultsDir := cfg.ResultsDir()

	git := contract.NewLocalGitClient()
	stub := &stubAnalyzer{}
	cache := newTestCache(t)

	workPool := pool.New(git, repo, cfg.WorktreesDir(), contract.DefaultCheckoutPolicy())
	require.NoError(t, workPool.Init(ctx, 1, c1))
	defer func() { _ = workPool.Close(ctx) }()

	proc := newProcessor(cfg, git, stub, cache, workPool, workPool.Slot(0))

	// Cold start: everything misses, so the whole tree is scanned at once.
	outcome := proc.process(ctx, c1)
	assert.Equal(t, schema.RecordedState, outcome.State)
	assert.Equal(t, 1, stub.callCount())
	assert.Empty(t, stub.lastCall(), "all-miss commits use a whole-tree scan")

	record := readCommitRecord(t, resultsDir, c1)
	assert.Equal(t, 2, record.NumJavaFiles)
	assert.Equal(t, 2, record.NumWarnings)
	assert.Equal(t, 2, record.FilesAnalyzed)
	assert.Equal(t, 0, record.CacheHits)
	assert.Equal(t, map[string]int{"UnusedLocalVariable": 2}, record.WarningsByRule)

	// Incremental: only the modified and the added file hit the analyzer.
	outcome = proc.process(ctx, c2)
	assert.Equal(t, schema.RecordedState, outcome.State)
	assert.Equal(t, 2, stub.callCount())
	assert.ElementsMatch(t, []string{"src/A.java", "src/C.java"}, stub.lastCall())

	record = readCommitRecord(t, resultsDir, c2)
	assert.Equal(t, 3, record.NumJavaFiles)
	assert.Equal(t, 2, record.FilesAnalyzed)
	assert.Equal(t, 1, record.CacheHits)
	assert.Equal(t, 3, record.NumWarnings)

	// A commit touching no eligible files produces a record without any
	// analyzer call.
	outcome = proc.process(ctx, c3)
	assert.Equal(t, schema.RecordedState, outcome.State)
	assert.Equal(t, 2, stub.callCount())

	record = readCommitRecord(t, resultsDir, c3)
	assert.Equal(t, 3, record.NumJavaFiles)
	assert.Equal(t, 0, record.FilesAnalyzed)
	assert.Equal(t, 3, record.CacheHits)
	assert.Equal(t, 3, record.NumWarnings)

	// Same content under a new path is a pure cache hit.
	outcome = proc.process(ctx, c4)
	assert.Equal(t, schema.RecordedState, outcome.State)
	assert.Equal(t, 2, stub.callCount())

	record = readCommitRecord(t, resultsDir, c4)
	assert.Equal(t, 4, record.NumJavaFiles)
	assert.Equal(t, 0, record.FilesAnalyzed)
	assert.Equal(t, 4, record.NumWarnings)

	// Already-recorded commits are skipped outright.
	outcome = proc.process(ctx, c1)
	assert.Equal(t, schema.SkippedState, outcome.State)
	assert.Equal(t, 2, stub.callCount())

	// An analyzer failure isolates to the commit and leaves an error record.
	stub.setError(errors.New("jvm fell over"))
	outcome = proc.process(ctx, c5)
	assert.Equal(t, schema.FailedState, outcome.State)
	assert.Equal(t, schema.AnalysisError, outcome.Kind)

	failure := readErrorRecord(t, resultsDir, c5)
	assert.Equal(t, schema.AnalysisError, failure.ErrorKind)
	assert.Contains(t, failure.Message, "jvm fell over")

	// After a failure the tree state is gone; the next commit rescans and
	// re-analyzes exactly the content the cache has never seen.
	stub.setError(nil)
	outcome = proc.process(ctx, c6)
	assert.Equal(t, schema.RecordedState, outcome.State)
	assert.Equal(t, 3, stub.callCount())
	assert.ElementsMatch(t, []string{"src/A.java", "src/C.java"}, stub.lastCall())

	record = readCommitRecord(t, resultsDir, c6)
	assert.Equal(t, 4, record.NumJavaFiles)
	assert.Equal(t, 2, record.FilesAnalyzed)
	assert.Equal(t, 2, record.CacheHits)
	assert.Equal(t, 4, record.NumWarnings)
}

// cancelAnalyzer cancels the run context at the start of every call and
// then delegates, mimicking an interrupt arriving mid-analysis.
type cancelAnalyzer struct {
	inner  contract.Analyzer
	cancel context.CancelFunc
}

func (c *cancelAnalyzer) Kind() schema.AnalyzerKind { return c.inner.Kind() }

func (c *cancelAnalyzer) Analyze(ctx context.Context, root string, files []string) (*schema.AnalyzerReport, error) {
	c.cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.inner.Analyze(ctx, root, files)
}

// TestProcessorInterrupt covers cancellation mid-run: the commit in flight
// when the run context is canceled still settles with a record, and a
// cancellation surfacing as a per-commit error settles nothing at all.
func TestProcessorInterrupt(t *testing.T) {
	skipIfGitNotAvailable(t)

	repo := t.TempDir()
	gitRun(t, repo, "init", "-q")
	c1 := commitFiles(t, repo, "first", map[string]*string{"src/A.java": str("class A {}")})
	c2 := commitFiles(t, repo, "second", map[string]*string{"src/B.java": str("class B {}")})

	cfg := testConfig(t, repo, t.TempDir())
	require.NoError(t, os.MkdirAll(cfg.ResultsDir(), 0o755))

	git := contract.NewLocalGitClient()
	workPool := pool.New(git, repo, cfg.WorktreesDir(), contract.DefaultCheckoutPolicy())
	require.NoError(t, workPool.Init(context.Background(), 1, c1))
	defer func() { _ = workPool.Close(context.Background()) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stub := &stubAnalyzer{}
	proc := newProcessor(cfg, git, &cancelAnalyzer{inner: stub, cancel: cancel}, newTestCache(t), workPool, workPool.Slot(0))

	// Canceling during the analyzer call must not poison the commit with
	// a permanent error record; the in-flight work runs to completion.
	outcome := proc.process(ctx, c1)
	assert.Equal(t, schema.RecordedState, outcome.State)
	assert.Equal(t, 1, stub.callCount())
	record := readCommitRecord(t, cfg.ResultsDir(), c1)
	assert.True(t, record.PMDSuccess)

	// A cancellation error under a canceled run context leaves no record,
	// so a resumed run processes the commit again from scratch.
	stub.setError(context.Canceled)
	proc.analyzer = stub
	outcome = proc.process(ctx, c2)
	assert.Equal(t, schema.PendingState, outcome.State)
	assert.False(t, RecordExists(cfg.ResultsDir(), c2), "interrupted commits must stay unsettled")
}

func TestProcessorCheckoutFailure(t *testing.T) {
	skipIfGitNotAvailable(t)
	ctx := context.Background()

	repo := t.TempDir()
	gitRun(t, repo, "init", "-q")
	c1 := commitFiles(t, repo, "first", map[string]*string{"src/A.java": str("class A {}")})

	cfg := testConfig(t, repo, t.TempDir())
	require.NoError(t, os.MkdirAll(cfg.ResultsDir(), 0o755))

	git := contract.NewLocalGitClient()
	workPool := pool.New(git, repo, cfg.WorktreesDir(), contract.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond})
	require.NoError(t, workPool.Init(ctx, 1, c1))
	defer func() { _ = workPool.Close(ctx) }()

	proc := newProcessor(cfg, git, &stubAnalyzer{}, newTestCache(t), workPool, workPool.Slot(0))

	outcome := proc.process(ctx, "0000000000000000000000000000000000000000")
	assert.Equal(t, schema.FailedState, outcome.State)
	assert.Equal(t, schema.CheckoutError, outcome.Kind)

	failure := readErrorRecord(t, cfg.ResultsDir(), "0000000000000000000000000000000000000000")
	assert.Equal(t, schema.CheckoutError, failure.ErrorKind)
}
