// Package parquet provides data structures and functions for exporting mined
// commit results to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/yourorg/pmdminer/schema"
)

// CommitResult is one analyzed commit, flattened for columnar storage.
// Field names follow the per-commit JSON records.
type CommitResult struct {
	// CommitHash is the full hash of the analyzed commit
	CommitHash string `parquet:"commit_hash,snappy"`

	// PMDSuccess indicates whether the analysis completed
	PMDSuccess bool `parquet:"pmd_success,snappy"`

	// NumJavaFiles is the eligible file count at this commit
	NumJavaFiles int32 `parquet:"num_java_files,snappy"`

	// NumWarnings is the total violation count across the tree
	NumWarnings int32 `parquet:"num_warnings,snappy"`

	// FilesAnalyzed is how many files actually hit the analyzer
	FilesAnalyzed int32 `parquet:"files_analyzed,snappy"`

	// CacheHits is how many files were served from the content cache
	CacheHits int32 `parquet:"cache_hits,snappy"`

	// DurationSec is the wall-clock processing time for the commit
	DurationSec float64 `parquet:"analysis_duration_sec,snappy"`
}

// RuleWarning is one (commit, rule) count pair, the exploded form of the
// per-commit warnings_by_rule map.
type RuleWarning struct {
	// CommitHash references the parent commit result
	CommitHash string `parquet:"commit_hash,snappy"`

	// Rule is the PMD rule name
	Rule string `parquet:"rule,snappy"`

	// Count is how many violations of the rule the commit's tree has
	Count int32 `parquet:"count,snappy"`
}

// WriteCommitResultsParquet writes a slice of CommitResult structs to a Parquet file.
func WriteCommitResultsParquet(data []CommitResult, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the CommitResult struct tags
	writer := parquet.NewGenericWriter[CommitResult](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return nil
}

// WriteRuleWarningsParquet writes a slice of RuleWarning structs to a Parquet file.
func WriteRuleWarningsParquet(data []RuleWarning, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the RuleWarning struct tags
	writer := parquet.NewGenericWriter[RuleWarning](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return nil
}

// ConvertCommitRecords converts schema.CommitRecord to CommitResult for Parquet export.
func ConvertCommitRecords(records []schema.CommitRecord) []CommitResult {
	result := make([]CommitResult, len(records))
	for i, record := range records {
		result[i] = CommitResult{
			CommitHash:    record.CommitHash,
			PMDSuccess:    record.PMDSuccess,
			NumJavaFiles:  int32(record.NumJavaFiles),
			NumWarnings:   int32(record.NumWarnings),
			FilesAnalyzed: int32(record.FilesAnalyzed),
			CacheHits:     int32(record.CacheHits),
			DurationSec:   record.DurationSec,
		}
	}
	return result
}

// ExplodeRuleWarnings flattens every record's rule counts into rows, with
// rules in alphabetical order so the output is reproducible.
func ExplodeRuleWarnings(records []schema.CommitRecord) []RuleWarning {
	var result []RuleWarning
	for _, record := range records {
		for _, rule := range schema.SortedRules(record.WarningsByRule) {
			result = append(result, RuleWarning{
				CommitHash: record.CommitHash,
				Rule:       rule,
				Count:      int32(record.WarningsByRule[rule]),
			})
		}
	}
	return result
}
