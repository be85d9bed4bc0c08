// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"golang.org/x/term"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// OutWriter provides a unified interface for all report output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteSummary prints the run summary using the configured output format.
func (ow *OutWriter) WriteSummary(summary *schema.RunSummary, cfg *contract.Config, duration time.Duration) error {
	return WriteSummaryResults(summary, cfg, duration)
}

// WriteCommits prints per-commit results using the configured output format.
func (ow *OutWriter) WriteCommits(records []schema.CommitRecord, cfg *contract.Config) error {
	return WriteCommitResults(records, cfg)
}

// getMaxRuleWidth calculates the maximum width for rule names in table
// output based on terminal width and table configuration.
func getMaxRuleWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for the count and share columns plus borders and padding
	baseWidth := 30

	available := termWidth - baseWidth
	if available < 15 {
		// Minimum reasonable rule width
		return 15
	}
	if available > 60 {
		// Maximum rule width to prevent overly long names
		return 60
	}
	return available
}
