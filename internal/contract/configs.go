package contract

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/yourorg/pmdminer/schema"
)

// Default values for configuration.
const (
	DefaultOutputDir        = "analysis_results"
	DefaultExtension        = ".java"
	DefaultAnalyzeTimeout   = 5 * time.Minute
	DefaultPersistEvery     = 2 * time.Minute
	DefaultCheckoutAttempts = 3

	// CommitTimeTarget is the per-commit wall-clock budget the original
	// miner was built around. Slower commits get a warning, and the
	// end-of-run report compares the overall average against it.
	CommitTimeTarget = time.Second

	// ProgressLogEvery controls how often a plain progress line is logged.
	ProgressLogEvery = 100
)

// DefaultWorkers is the default number of pool slots and workers.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration for a mining run.
// This struct remains the "final, validated" config.
type Config struct {
	RepoLocation string // URL or local path of the mined repository
	OutputDir    string // Absolute path to the output root
	RulesetPath  string // Absolute path to the PMD ruleset XML
	Ref          string // Branch/ref to mine; empty means full history
	Extension    string // Eligible source file extension
	Excludes     []string
	Workers      int

	Analyzer     schema.AnalyzerKind
	PMDPath      string   // CLI analyzer executable
	ServerURL    string   // HTTP analyzer endpoint
	AuxClasspath []string // Extra classpath entries passed to PMD

	AnalyzeTimeout   time.Duration
	PersistEvery     time.Duration
	CheckoutAttempts int

	CacheBackend   schema.CacheBackend
	CacheDBConnect string // Please use env var as this is plaintext
	RunsBackend    schema.CacheBackend
	RunsDBConnect  string // Please use env var as this is plaintext

	Output     schema.OutputFormat
	OutputFile string // Empty means stdout
	Width      int    // Terminal width override for table output

	Progress  bool // Render an interactive progress bar
	UseColors bool // Enable colored log labels
	Verbose   bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoLocationStr string

	Ruleset          string `mapstructure:"ruleset"`
	OutputDir        string `mapstructure:"output-dir"`
	Workers          int    `mapstructure:"workers"`
	Analyzer         string `mapstructure:"analyzer"`
	PMDPath          string `mapstructure:"pmd-path"`
	ServerURL        string `mapstructure:"server-url"`
	AuxClasspath     string `mapstructure:"aux-classpath"`
	Extension        string `mapstructure:"extension"`
	Exclude          string `mapstructure:"exclude"`
	Ref              string `mapstructure:"ref"`
	Timeout          string `mapstructure:"timeout"`
	PersistEvery     string `mapstructure:"persist-every"`
	CheckoutAttempts int    `mapstructure:"checkout-attempts"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	RunsBackend      string `mapstructure:"runs-backend"`
	RunsDBConnect    string `mapstructure:"runs-db-connect"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Width            int    `mapstructure:"width"`
	Progress         bool   `mapstructure:"progress"`
	Color            string `mapstructure:"color"`
	Verbose          bool   `mapstructure:"verbose"`
}

// Derived output-directory paths. Everything a run persists lives under
// OutputDir so resume and summarize work from disk alone.

// RepoBaseDir is where the base clone lives.
func (c *Config) RepoBaseDir() string {
	return filepath.Join(c.OutputDir, schema.RepoBaseDirName)
}

// WorktreesDir is the parent of all pool slots.
func (c *Config) WorktreesDir() string {
	return filepath.Join(c.OutputDir, schema.WorktreesDirName)
}

// ResultsDir holds the per-commit result records.
func (c *Config) ResultsDir() string {
	return filepath.Join(c.OutputDir, schema.ResultsDirName)
}

// SummaryPath is the run summary file.
func (c *Config) SummaryPath() string {
	return filepath.Join(c.OutputDir, schema.SummaryFileName)
}

// SnapshotPath is the JSON cache snapshot file.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.OutputDir, schema.SnapshotFileName)
}

// CacheDBFilePath is the default SQLite file for the content cache.
func (c *Config) CacheDBFilePath() string {
	return filepath.Join(c.OutputDir, "pmdminer_cache.db")
}

// RunsDBFilePath is the default SQLite file for run tracking.
func (c *Config) RunsDBFilePath() string {
	return filepath.Join(c.OutputDir, "pmdminer_runs.db")
}

// Clone returns a shallow copy safe for per-call overrides.
func (c *Config) Clone() *Config {
	dup := *c
	dup.Excludes = append([]string(nil), c.Excludes...)
	dup.AuxClasspath = append([]string(nil), c.AuxClasspath...)
	return &dup
}

// ProcessAndValidate converts raw input into the final Config. It resolves
// paths, parses durations, and rejects anything that would only fail later
// in the middle of a long run.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if input.RepoLocationStr == "" {
		return fmt.Errorf("repository location is required")
	}
	cfg.RepoLocation = input.RepoLocationStr

	if input.Ruleset == "" {
		return fmt.Errorf("a PMD ruleset is required (--ruleset)")
	}
	rulesetPath, err := filepath.Abs(input.Ruleset)
	if err != nil {
		return fmt.Errorf("invalid ruleset path %q: %w", input.Ruleset, err)
	}
	if info, err := os.Stat(rulesetPath); err != nil || info.IsDir() {
		return fmt.Errorf("ruleset file not found at %q", rulesetPath)
	}
	cfg.RulesetPath = rulesetPath

	outputDir := input.OutputDir
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	if cfg.OutputDir, err = filepath.Abs(outputDir); err != nil {
		return fmt.Errorf("invalid output dir %q: %w", outputDir, err)
	}

	if input.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", input.Workers)
	}
	cfg.Workers = input.Workers

	kind := schema.AnalyzerKind(input.Analyzer)
	if _, ok := schema.ValidAnalyzerKinds[kind]; !ok {
		return fmt.Errorf("unsupported analyzer %q: must be cli or http", input.Analyzer)
	}
	cfg.Analyzer = kind

	switch kind {
	case schema.CLIAnalyzerKind:
		pmdPath := input.PMDPath
		if pmdPath == "" {
			// Fall back to whatever is on PATH, same as the original miner.
			if pmdPath, err = exec.LookPath("pmd"); err != nil {
				return fmt.Errorf("PMD executable not found: set --pmd-path or add pmd to PATH")
			}
		} else if _, err := os.Stat(pmdPath); err != nil {
			return fmt.Errorf("PMD executable not found at %q", pmdPath)
		}
		cfg.PMDPath = pmdPath
	case schema.HTTPAnalyzerKind:
		if input.ServerURL == "" {
			return fmt.Errorf("--server-url is required with the http analyzer")
		}
		if _, err := url.ParseRequestURI(input.ServerURL); err != nil {
			return fmt.Errorf("invalid --server-url %q: %w", input.ServerURL, err)
		}
		cfg.ServerURL = strings.TrimRight(input.ServerURL, "/")
	}

	cfg.Extension = input.Extension
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	if !strings.HasPrefix(cfg.Extension, ".") {
		cfg.Extension = "." + cfg.Extension
	}

	cfg.Excludes = splitAndTrim(input.Exclude)
	cfg.AuxClasspath = splitAndTrim(input.AuxClasspath)
	cfg.Ref = input.Ref

	if cfg.AnalyzeTimeout, err = parseDurationOrDefault(input.Timeout, DefaultAnalyzeTimeout); err != nil {
		return fmt.Errorf("invalid --timeout: %w", err)
	}
	if cfg.PersistEvery, err = parseDurationOrDefault(input.PersistEvery, DefaultPersistEvery); err != nil {
		return fmt.Errorf("invalid --persist-every: %w", err)
	}

	cfg.CheckoutAttempts = input.CheckoutAttempts
	if cfg.CheckoutAttempts < 1 {
		cfg.CheckoutAttempts = DefaultCheckoutAttempts
	}

	cacheBackend := schema.CacheBackend(input.CacheBackend)
	if _, ok := schema.ValidCacheBackends[cacheBackend]; !ok {
		return fmt.Errorf("unsupported cache backend %q", input.CacheBackend)
	}
	if err := ValidateDatabaseConnectionString(cacheBackend, input.CacheDBConnect); err != nil {
		return err
	}
	cfg.CacheBackend = cacheBackend
	cfg.CacheDBConnect = input.CacheDBConnect

	runsBackend := schema.CacheBackend(input.RunsBackend)
	if runsBackend == "" {
		runsBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidRunsBackends[runsBackend]; !ok {
		return fmt.Errorf("unsupported runs backend %q", input.RunsBackend)
	}
	if err := ValidateDatabaseConnectionString(runsBackend, input.RunsDBConnect); err != nil {
		return err
	}
	cfg.RunsBackend = runsBackend
	cfg.RunsDBConnect = input.RunsDBConnect

	output := schema.OutputFormat(input.Output)
	if output == "" {
		output = schema.TableOut
	}
	if _, ok := schema.ValidOutputFormats[output]; !ok {
		return fmt.Errorf("unsupported output format %q: must be table, json or csv", input.Output)
	}
	cfg.Output = output
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	cfg.Progress = input.Progress
	cfg.UseColors = ParseBoolFlag(input.Color, true)
	cfg.Verbose = input.Verbose
	SetVerbose(cfg.Verbose)

	return nil
}

// ValidateDatabaseConnectionString ensures DB-server backends come with a
// connection string. File and no-op backends need none.
func ValidateDatabaseConnectionString(backend schema.CacheBackend, connStr string) error {
	switch backend {
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("%s backend requires a connection string", backend)
		}
	}
	return nil
}

// ParseBoolFlag interprets the yes/no style toggles accepted on the CLI.
func ParseBoolFlag(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1", "on":
		return true
	case "no", "false", "0", "off":
		return false
	default:
		return fallback
	}
}

func parseDurationOrDefault(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}

func splitAndTrim(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
