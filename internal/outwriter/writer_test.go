package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

func sampleSummary() *schema.RunSummary {
	return &schema.RunSummary{
		Location: "https://example.com/repo.git",
		Repository: schema.RepoStats{
			AnalyzedOK:   8,
			Failed:       1,
			Unprocessed:  1,
			TotalCommits: 10,
			AvgJavaFiles: 12.5,
			AvgWarnings:  3.25,
		},
		Warnings: map[string]int{
			"UnusedLocalVariable":  10,
			"CyclomaticComplexity": 25,
			"GodClass":             5,
		},
		Failures: map[schema.ErrorKind]int{schema.CheckoutError: 1},
	}
}

func sampleRecords() []schema.CommitRecord {
	return []schema.CommitRecord{
		{CommitHash: "aaaa111122223333", PMDSuccess: true, NumJavaFiles: 10, NumWarnings: 4, FilesAnalyzed: 2, CacheHits: 8, DurationSec: 0.31},
		{CommitHash: "bbbb111122223333", PMDSuccess: true, NumJavaFiles: 11, NumWarnings: 5, FilesAnalyzed: 1, CacheHits: 10, DurationSec: 0.12},
	}
}

func outputConfig(t *testing.T, format schema.OutputFormat) (*contract.Config, string) {
	t.Helper()
	outFile := filepath.Join(t.TempDir(), "out.txt")
	return &contract.Config{
		Output:       format,
		OutputFile:   outFile,
		Width:        120,
		CacheBackend: schema.JSONBackend,
	}, outFile
}

func TestWriteSummaryTable(t *testing.T) {
	cfg, outFile := outputConfig(t, schema.TableOut)

	require.NoError(t, NewOutWriter().WriteSummary(sampleSummary(), cfg, 2*time.Second))

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "CyclomaticComplexity")
	assert.Contains(t, text, "GodClass")
	assert.Contains(t, text, "Analyzed 8 of 10 commits (1 failed, 1 unprocessed)")
	assert.Contains(t, text, "Averages per commit: 12.50 files, 3.25 warnings")
	assert.Contains(t, text, "Failures by kind: checkout=1")

	// The most frequent rule ranks first.
	assert.Less(t, strings.Index(text, "CyclomaticComplexity"), strings.Index(text, "UnusedLocalVariable"))
	assert.Less(t, strings.Index(text, "UnusedLocalVariable"), strings.Index(text, "GodClass"))
}

func TestWriteSummaryJSON(t *testing.T) {
	cfg, outFile := outputConfig(t, schema.JSONOut)

	require.NoError(t, NewOutWriter().WriteSummary(sampleSummary(), cfg, 0))

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var decoded schema.RunSummary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *sampleSummary(), decoded)
}

func TestWriteSummaryCSV(t *testing.T) {
	cfg, outFile := outputConfig(t, schema.CSVOut)

	require.NoError(t, NewOutWriter().WriteSummary(sampleSummary(), cfg, 0))

	file, err := os.Open(outFile)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"rank", "rule", "count"}, rows[0])
	assert.Equal(t, []string{"1", "CyclomaticComplexity", "25"}, rows[1])
	assert.Equal(t, []string{"2", "UnusedLocalVariable", "10"}, rows[2])
	assert.Equal(t, []string{"3", "GodClass", "5"}, rows[3])
}

func TestWriteCommitTable(t *testing.T) {
	cfg, outFile := outputConfig(t, schema.TableOut)

	require.NoError(t, NewOutWriter().WriteCommits(sampleRecords(), cfg))

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "aaaa1111")
	assert.Contains(t, text, "bbbb1111")
	assert.Contains(t, text, "Showing 2 commits (files analyzed: 3, cache hits: 18)")
}

func TestWriteCommitCSV(t *testing.T) {
	cfg, outFile := outputConfig(t, schema.CSVOut)

	require.NoError(t, NewOutWriter().WriteCommits(sampleRecords(), cfg))

	file, err := os.Open(outFile)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "commit_hash", rows[0][0])
	assert.Equal(t, "aaaa111122223333", rows[1][0])
	assert.Equal(t, "0.31", rows[1][6])
}

func TestGetMaxRuleWidth(t *testing.T) {
	assert.Equal(t, 60, getMaxRuleWidth(&contract.Config{Width: 200}))
	assert.Equal(t, 50, getMaxRuleWidth(&contract.Config{Width: 80}))
	assert.Equal(t, 15, getMaxRuleWidth(&contract.Config{Width: 30}))
}
