package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/internal/pool"
	"github.com/yourorg/pmdminer/schema"
)

// processor drives one commit at a time through the per-commit state
// machine on a single pool slot. Each worker goroutine owns exactly one
// processor, so the tree state needs no locking.
type processor struct {
	cfg      *contract.Config
	git      contract.GitClient
	analyzer contract.Analyzer
	cache    contract.ContentCache
	pool     *pool.Pool
	slot     *pool.Slot
	tree     *treeState
}

func newProcessor(cfg *contract.Config, git contract.GitClient, anlz contract.Analyzer, cache contract.ContentCache, p *pool.Pool, slot *pool.Slot) *processor {
	return &processor{
		cfg:      cfg,
		git:      git,
		analyzer: anlz,
		cache:    cache,
		pool:     p,
		slot:     slot,
		tree:     newTreeState(),
	}
}

// process runs one commit through skip-check, checkout, resolve, analyze
// and record. Failures are isolated: they produce an error record and a
// failed outcome, never an aborted run.
func (p *processor) process(ctx context.Context, commit string) schema.CommitOutcome {
	start := time.Now()
	outcome := schema.CommitOutcome{CommitHash: commit, Slot: p.slot.ID}

	// A commit with any record on disk is settled. The worktree stays where
	// it is, so the lineage predecessor does not advance either.
	if RecordExists(p.cfg.ResultsDir(), commit) {
		outcome.State = schema.SkippedState
		outcome.Duration = time.Since(start)
		return outcome
	}

	// The commit's own work runs detached from run cancellation: an
	// interrupt stops dispatch in the scheduler, while the in-flight
	// commit completes its transitions and lands a record.
	record, err := p.processNew(context.WithoutCancel(ctx), commit)
	outcome.Duration = time.Since(start)
	if err != nil {
		if interrupted(ctx, err) {
			// Canceled mid-commit. Leave nothing on disk so a resumed
			// run picks this commit up again from scratch.
			contract.LogDebug("commit %s interrupted, left unrecorded", contract.ShortHash(commit))
			p.tree.reset()
			outcome.State = schema.PendingState
			return outcome
		}
		return p.fail(commit, err, outcome)
	}

	record.DurationSec = schema.Round2(outcome.Duration.Seconds())
	if err := WriteCommitRecord(p.cfg.ResultsDir(), record); err != nil {
		return p.fail(commit, contract.NewCacheIOError(commit, err), outcome)
	}

	if outcome.Duration > contract.CommitTimeTarget {
		contract.LogWarn(fmt.Sprintf("commit %s took %.2fs (%d files analyzed)",
			contract.ShortHash(commit), outcome.Duration.Seconds(), record.FilesAnalyzed), nil)
	}

	outcome.State = schema.RecordedState
	return outcome
}

// processNew handles the non-skipped path up to a finished record.
func (p *processor) processNew(ctx context.Context, commit string) (*schema.CommitRecord, error) {
	if err := p.pool.Checkout(ctx, p.slot, commit); err != nil {
		return nil, contract.NewCheckoutError(commit, err)
	}

	// Resolve errors arrive already classified: checkout for diff
	// failures, cacheio for fingerprint IO.
	res, err := p.tree.resolve(ctx, p.git, p.cfg, p.slot.Path, commit)
	if err != nil {
		return nil, err
	}

	// Only changed files whose fingerprints are unknown need the analyzer.
	var misses []string
	for _, path := range res.changed {
		if _, ok := p.cache.Lookup(p.tree.files[path]); !ok {
			misses = append(misses, path)
		}
	}

	if len(misses) > 0 {
		if err := p.analyzeMisses(ctx, misses); err != nil {
			return nil, contract.NewAnalysisError(commit, err)
		}
	}

	return p.buildRecord(commit, len(misses)), nil
}

// analyzeMisses runs the analyzer over the miss set and folds the findings
// into the shared cache. Every miss gets an entry, including clean files,
// so the next identical content is a hit either way.
func (p *processor) analyzeMisses(ctx context.Context, misses []string) error {
	// When everything missed (typically the first commit on a cold cache)
	// a whole-tree scan saves the file-list plumbing.
	files := misses
	if len(misses) == len(p.tree.files) {
		files = nil
	}

	report, err := p.analyzer.Analyze(ctx, p.slot.Path, files)
	if err != nil {
		return err
	}

	byPath := make(map[string][]schema.Violation, len(report.Files))
	for _, fileReport := range report.Files {
		rel, err := filepath.Rel(p.slot.Path, fileReport.Filename)
		if err != nil {
			rel = fileReport.Filename
		}
		byPath[filepath.ToSlash(rel)] = fileReport.Violations
	}

	for _, path := range misses {
		p.cache.Store(p.tree.files[path], schema.EntryFromReport(byPath[path]))
	}
	return nil
}

// buildRecord aggregates the whole tree's findings from the cache.
func (p *processor) buildRecord(commit string, analyzed int) *schema.CommitRecord {
	record := &schema.CommitRecord{
		CommitHash:     commit,
		PMDSuccess:     true,
		NumJavaFiles:   len(p.tree.files),
		FilesAnalyzed:  analyzed,
		CacheHits:      len(p.tree.files) - analyzed,
		WarningsByRule: map[string]int{},
	}
	for _, fp := range p.tree.files {
		if entry, ok := p.cache.Lookup(fp); ok {
			record.NumWarnings += entry.Violations
			record.WarningsByRule = schema.MergeRuleCounts(record.WarningsByRule, entry.Rules)
		}
	}
	return record
}

// interrupted reports whether err is the cancellation of the run context
// surfacing through a per-commit call, as opposed to a genuine failure.
// Per-call analyzer timeouts are derived contexts and do not match.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}

// fail writes the error record and resets the tree state. The reset forces
// the next commit on this slot to do a full rescan, since the worktree may
// be in any state after a failed checkout or analysis.
func (p *processor) fail(commit string, err error, outcome schema.CommitOutcome) schema.CommitOutcome {
	kind := contract.KindOf(err)
	contract.LogWarn(fmt.Sprintf("commit %s failed", contract.ShortHash(commit)), err)

	failure := &schema.ErrorRecord{
		CommitHash:  commit,
		ErrorKind:   kind,
		Message:     err.Error(),
		DurationSec: schema.Round2(outcome.Duration.Seconds()),
	}
	if writeErr := WriteErrorRecord(p.cfg.ResultsDir(), failure); writeErr != nil {
		contract.LogWarn(fmt.Sprintf("could not record failure for %s", contract.ShortHash(commit)), writeErr)
	}

	p.tree.reset()
	outcome.State = schema.FailedState
	outcome.Kind = kind
	return outcome
}
