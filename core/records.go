package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// Per-commit records are the unit of idempotency: a commit with a record on
// disk (success or failure) is never processed again.

// recordPath is the success record for a commit.
func recordPath(resultsDir, commit string) string {
	return filepath.Join(resultsDir, commit+schema.RecordSuffix)
}

// errorRecordPath is the failure record for a commit.
func errorRecordPath(resultsDir, commit string) string {
	return filepath.Join(resultsDir, commit+schema.ErrorRecordSuffix)
}

// RecordExists reports whether the commit already has any record.
func RecordExists(resultsDir, commit string) bool {
	if _, err := os.Stat(recordPath(resultsDir, commit)); err == nil {
		return true
	}
	if _, err := os.Stat(errorRecordPath(resultsDir, commit)); err == nil {
		return true
	}
	return false
}

// writeJSONFile writes JSON through a sibling temp file and a rename, so a
// crash mid-write never leaves a half-record that would be skipped later.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// WriteCommitRecord persists a success record.
func WriteCommitRecord(resultsDir string, record *schema.CommitRecord) error {
	return writeJSONFile(recordPath(resultsDir, record.CommitHash), record)
}

// WriteErrorRecord persists a failure record.
func WriteErrorRecord(resultsDir string, record *schema.ErrorRecord) error {
	return writeJSONFile(errorRecordPath(resultsDir, record.CommitHash), record)
}

// LoadRecords reads every record in the results directory. Unreadable files
// are reported and skipped so one corrupt record cannot block a summary.
func LoadRecords(resultsDir string) ([]schema.CommitRecord, []schema.ErrorRecord, error) {
	entries, err := os.ReadDir(resultsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read results dir: %w", err)
	}

	var records []schema.CommitRecord
	var failures []schema.ErrorRecord
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, schema.RecordSuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(resultsDir, name))
		if err != nil {
			contract.LogWarn(fmt.Sprintf("skipping unreadable record %s", name), err)
			continue
		}

		if strings.HasSuffix(name, schema.ErrorRecordSuffix) {
			var failure schema.ErrorRecord
			if err := json.Unmarshal(data, &failure); err != nil {
				contract.LogWarn(fmt.Sprintf("skipping malformed record %s", name), err)
				continue
			}
			failures = append(failures, failure)
			continue
		}

		var record schema.CommitRecord
		if err := json.Unmarshal(data, &record); err != nil {
			contract.LogWarn(fmt.Sprintf("skipping malformed record %s", name), err)
			continue
		}
		records = append(records, record)
	}
	return records, failures, nil
}
