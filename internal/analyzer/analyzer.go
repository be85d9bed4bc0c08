// Package analyzer has the PMD analyzer backends.
package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// New builds the analyzer backend selected by the config.
func New(cfg *contract.Config) (contract.Analyzer, error) {
	switch cfg.Analyzer {
	case schema.CLIAnalyzerKind:
		return NewCLIAnalyzer(cfg), nil
	case schema.HTTPAnalyzerKind:
		return NewHTTPAnalyzer(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported analyzer kind %q", cfg.Analyzer)
	}
}

// ParseReport decodes a PMD JSON report. An empty body means a clean run
// with no findings.
func ParseReport(data []byte) (*schema.AnalyzerReport, error) {
	if len(data) == 0 {
		return &schema.AnalyzerReport{}, nil
	}
	var report schema.AnalyzerReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("malformed PMD report: %w", err)
	}
	return &report, nil
}

// joinClasspath renders aux classpath entries the way PMD expects them.
func joinClasspath(entries []string) string {
	return strings.Join(entries, ":")
}
