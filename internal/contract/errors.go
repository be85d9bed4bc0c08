package contract

import (
	"errors"
	"fmt"

	"github.com/yourorg/pmdminer/schema"
)

// MiningError wraps a failure with its classification and, for per-commit
// failures, the commit it belongs to. Per-commit errors are isolated to that
// commit's record; only setup errors abort a run.
type MiningError struct {
	Kind   schema.ErrorKind
	Commit string
	Err    error
}

func (e *MiningError) Error() string {
	if e.Commit != "" {
		return fmt.Sprintf("%s error for commit %s: %v", e.Kind, ShortHash(e.Commit), e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *MiningError) Unwrap() error {
	return e.Err
}

// NewSetupError classifies a fatal setup-phase failure.
func NewSetupError(err error) error {
	return &MiningError{Kind: schema.SetupError, Err: err}
}

// NewCheckoutError classifies a per-commit checkout failure.
func NewCheckoutError(commit string, err error) error {
	return &MiningError{Kind: schema.CheckoutError, Commit: commit, Err: err}
}

// NewAnalysisError classifies a per-commit analysis failure. Timeouts are
// reported through this same kind.
func NewAnalysisError(commit string, err error) error {
	return &MiningError{Kind: schema.AnalysisError, Commit: commit, Err: err}
}

// NewCacheIOError classifies a per-commit fingerprint or record IO failure.
func NewCacheIOError(commit string, err error) error {
	return &MiningError{Kind: schema.CacheIOError, Commit: commit, Err: err}
}

// KindOf extracts the error classification, defaulting to AnalysisError for
// unclassified failures that reach a commit record.
func KindOf(err error) schema.ErrorKind {
	var me *MiningError
	if errors.As(err, &me) {
		return me.Kind
	}
	return schema.AnalysisError
}
