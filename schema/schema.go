// Package schema has configs, models and shared constants for all parts of pmdminer.
package schema

import "time"

// Violation is a single finding reported by PMD for one file.
type Violation struct {
	Rule        string `json:"rule"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	BeginLine   int    `json:"beginline"`
}

// FileReport holds the violations PMD reported for one file.
// The field names follow the PMD JSON report format.
type FileReport struct {
	Filename   string      `json:"filename"`
	Violations []Violation `json:"violations"`
}

// AnalyzerReport is the parsed output of one analyzer invocation.
type AnalyzerReport struct {
	Files []FileReport `json:"files"`
}

// CacheEntry holds the memoized findings for one file fingerprint.
// Identical fingerprints always map to identical findings because the
// analyzer is a pure function of file content and ruleset.
type CacheEntry struct {
	Violations int            `json:"violations"`
	Rules      map[string]int `json:"rules,omitempty"`
}

// CacheSnapshot is the durable whole-cache image. The ruleset fingerprint
// guards against reusing findings computed under a different ruleset.
type CacheSnapshot struct {
	RulesetFingerprint string                `json:"ruleset_fingerprint"`
	SavedAt            time.Time             `json:"saved_at"`
	Entries            map[string]CacheEntry `json:"entries"`
}

// CommitRecord is the persisted result for one successfully analyzed commit.
// Field names follow the original miner's per-commit records so existing
// tooling can keep reading them.
type CommitRecord struct {
	CommitHash     string         `json:"commit_hash"`
	PMDSuccess     bool           `json:"pmd_success"`
	NumJavaFiles   int            `json:"num_java_files"`
	NumWarnings    int            `json:"num_warnings"`
	WarningsByRule map[string]int `json:"warnings_by_rule"`
	FilesAnalyzed  int            `json:"files_analyzed"`
	CacheHits      int            `json:"cache_hits"`
	DurationSec    float64        `json:"analysis_duration_sec"`
}

// ErrorRecord is the persisted result for a commit whose checkout or
// analysis failed. Its existence makes the commit skippable on re-run,
// same as a success record.
type ErrorRecord struct {
	CommitHash  string    `json:"commit_hash"`
	ErrorKind   ErrorKind `json:"error_kind"`
	Message     string    `json:"message"`
	DurationSec float64   `json:"analysis_duration_sec"`
}

// RepoStats aggregates commit counts and averages for the run summary.
type RepoStats struct {
	AnalyzedOK   int     `json:"number_of_commits_analyzed_successfully"`
	Failed       int     `json:"number_of_commits_failed"`
	Unprocessed  int     `json:"number_of_commits_unprocessed"`
	TotalCommits int     `json:"total_commits_in_repo"`
	AvgJavaFiles float64 `json:"avg_of_num_java_files"`
	AvgWarnings  float64 `json:"avg_of_num_warnings"`
}

// RunSummary is the repository-wide report, derived entirely from the
// persisted per-commit records so it can be regenerated after a crash.
type RunSummary struct {
	Location   string            `json:"location"`
	Repository RepoStats         `json:"stat_of_repository"`
	Warnings   map[string]int    `json:"stat_of_warnings"`
	Failures   map[ErrorKind]int `json:"stat_of_failures,omitempty"`
}

// CommitOutcome is what a worker reports back to the scheduler for each
// commit it was routed. It never leaves the process.
type CommitOutcome struct {
	CommitHash string
	Slot       int
	State      CommitState
	Kind       ErrorKind // set when State is FailedState
	Duration   time.Duration
}

// CacheStatus describes the content cache persistence backend.
type CacheStatus struct {
	Backend       CacheBackend
	Connected     bool
	TotalEntries  int
	LastPersist   time.Time
	SnapshotPath  string
	SnapshotBytes int64
}

// MiningRun is one row of the run-tracking store.
type MiningRun struct {
	RunID           int64
	StartTime       time.Time
	EndTime         *time.Time
	CommitsTotal    int
	CommitsAnalyzed int
	CommitsSkipped  int
	CommitsFailed   int
	ConfigParams    string
}

// RunsStatus describes the run-tracking store.
type RunsStatus struct {
	Backend     CacheBackend
	Connected   bool
	TotalRuns   int
	LastRunID   int64
	LastRunTime time.Time
}
