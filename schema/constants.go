package schema

// Custom string types for type safety.
type (
	// AnalyzerKind selects how the external PMD oracle is reached.
	AnalyzerKind string

	// CacheBackend represents the persistence backend for the content cache.
	CacheBackend string

	// ErrorKind classifies mining failures for records and summaries.
	ErrorKind string

	// CommitState tracks a commit through the processor state machine.
	CommitState string

	// OutputFormat selects how reports are rendered on the console.
	OutputFormat string
)

// All analyzer kinds supported.
const (
	CLIAnalyzerKind  AnalyzerKind = "cli" // default
	HTTPAnalyzerKind AnalyzerKind = "http"
)

// All cache backends supported.
const (
	JSONBackend       CacheBackend = "json" // default: snapshot file in the output dir
	SQLiteBackend     CacheBackend = "sqlite"
	MySQLBackend      CacheBackend = "mysql"
	PostgreSQLBackend CacheBackend = "postgresql"
	NoneBackend       CacheBackend = "none"
)

// All output formats supported.
const (
	TableOut OutputFormat = "table" // default
	JSONOut  OutputFormat = "json"
	CSVOut   OutputFormat = "csv"
)

// All error kinds recorded for failed commits or runs.
const (
	SetupError    ErrorKind = "setup"
	CheckoutError ErrorKind = "checkout"
	AnalysisError ErrorKind = "analysis"
	CacheIOError  ErrorKind = "cacheio"
)

// Commit processor states. Skipped and Failed are terminal; the others
// advance in order.
const (
	PendingState    CommitState = "pending"
	CheckedOutState CommitState = "checked_out"
	ResolvedState   CommitState = "resolved"
	AnalyzedState   CommitState = "analyzed"
	RecordedState   CommitState = "recorded"
	SkippedState    CommitState = "skipped"
	FailedState     CommitState = "failed"
)

// Layout of the output directory. Everything the miner persists lives under
// one user-chosen root so a run can be resumed or summarized from disk alone.
const (
	RepoBaseDirName   = "repo_base"
	WorktreesDirName  = "worktrees"
	ResultsDirName    = "commit_results"
	SummaryFileName   = "summary.json"
	SnapshotFileName  = "pmd_cache.json"
	WorktreePrefix    = "wt_"
	ErrorRecordSuffix = ".error.json"
	RecordSuffix      = ".json"
)

// PMD exit codes that count as a successful analysis. Code 4 means
// violations were found, which is the expected outcome for most commits.
var SuccessfulPMDExitCodes = map[int]struct{}{0: {}, 4: {}}

// ValidAnalyzerKinds lists all valid analyzer kinds.
var ValidAnalyzerKinds = map[AnalyzerKind]struct{}{
	CLIAnalyzerKind:  {},
	HTTPAnalyzerKind: {},
}

// ValidOutputFormats lists all valid output formats.
var ValidOutputFormats = map[OutputFormat]struct{}{
	TableOut: {},
	JSONOut:  {},
	CSVOut:   {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[CacheBackend]struct{}{
	JSONBackend:       {},
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidRunsBackends lists backends usable for the run-tracking store.
// The JSON snapshot backend only makes sense for the content cache.
var ValidRunsBackends = map[CacheBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
