package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// analyzeRequest is the wire format the PMD daemon accepts.
type analyzeRequest struct {
	Path         string   `json:"path"`
	Ruleset      string   `json:"ruleset"`
	AuxClasspath string   `json:"auxClasspath,omitempty"`
	Files        []string `json:"files,omitempty"`
}

// analyzeError is the daemon's failure body.
type analyzeError struct {
	Error string `json:"error"`
}

// HTTPAnalyzer delegates analysis to a long-lived PMD daemon, which keeps
// one warm JVM for the whole run instead of one cold start per commit.
type HTTPAnalyzer struct {
	serverURL    string
	rulesetPath  string
	auxClasspath []string
	client       *http.Client
}

var _ contract.Analyzer = &HTTPAnalyzer{} // Compile-time check

// NewHTTPAnalyzer creates an HTTP analyzer from the validated config.
func NewHTTPAnalyzer(cfg *contract.Config) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		serverURL:    cfg.ServerURL,
		rulesetPath:  cfg.RulesetPath,
		auxClasspath: cfg.AuxClasspath,
		client:       &http.Client{Timeout: cfg.AnalyzeTimeout},
	}
}

// Kind implements the Analyzer interface.
func (a *HTTPAnalyzer) Kind() schema.AnalyzerKind {
	return schema.HTTPAnalyzerKind
}

// Analyze implements the Analyzer interface. Files are sent repo-relative;
// the daemon resolves them against the worktree path it is handed.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, root string, files []string) (*schema.AnalyzerReport, error) {
	payload, err := json.Marshal(analyzeRequest{
		Path:         root,
		Ruleset:      a.rulesetPath,
		AuxClasspath: joinClasspath(a.auxClasspath),
		Files:        files,
	})
	if err != nil {
		return nil, fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.serverURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pmd daemon unreachable at %s: %w", a.serverURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read daemon response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var daemonErr analyzeError
		if json.Unmarshal(body, &daemonErr) == nil && daemonErr.Error != "" {
			return nil, fmt.Errorf("pmd daemon error: %s", daemonErr.Error)
		}
		return nil, fmt.Errorf("pmd daemon returned status %d after %s", resp.StatusCode, time.Since(start).Round(time.Millisecond))
	}
	return ParseReport(body)
}
