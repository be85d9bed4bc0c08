package core

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// Summarize derives the repository-wide report from the per-commit records
// on disk. It reads nothing else, so it produces the same numbers whether
// it runs right after mining or weeks later.
func Summarize(cfg *contract.Config, totalCommits int) (*schema.RunSummary, error) {
	records, failures, err := LoadRecords(cfg.ResultsDir())
	if err != nil {
		return nil, err
	}

	stats := schema.RepoStats{
		AnalyzedOK:   len(records),
		Failed:       len(failures),
		TotalCommits: totalCommits,
	}
	if unprocessed := totalCommits - len(records) - len(failures); unprocessed > 0 {
		stats.Unprocessed = unprocessed
	}

	warnings := make(map[string]int)
	var sumFiles, sumWarnings int
	for _, record := range records {
		sumFiles += record.NumJavaFiles
		sumWarnings += record.NumWarnings
		warnings = schema.MergeRuleCounts(warnings, record.WarningsByRule)
	}
	if len(records) > 0 {
		stats.AvgJavaFiles = schema.Round2(float64(sumFiles) / float64(len(records)))
		stats.AvgWarnings = schema.Round2(float64(sumWarnings) / float64(len(records)))
	}

	summary := &schema.RunSummary{
		Location:   cfg.RepoLocation,
		Repository: stats,
		Warnings:   warnings,
	}
	if len(failures) > 0 {
		summary.Failures = make(map[schema.ErrorKind]int)
		for _, failure := range failures {
			summary.Failures[failure.ErrorKind]++
		}
	}
	return summary, nil
}

// ExecuteSummarize regenerates summary.json from an existing output
// directory. It serves as the main entry point for the 'summarize'
// subcommand, typically after an interrupted run.
func ExecuteSummarize(ctx context.Context, cfg *contract.Config) (*schema.RunSummary, error) {
	client := contract.NewLocalGitClient()

	total, err := totalCommitsOnDisk(ctx, cfg, client)
	if err != nil {
		return nil, err
	}

	summary, err := Summarize(cfg, total)
	if err != nil {
		return nil, err
	}
	if err := writeJSONFile(cfg.SummaryPath(), summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// totalCommitsOnDisk recounts history from the base clone when present.
// Without a clone, the records themselves are the best available floor.
func totalCommitsOnDisk(ctx context.Context, cfg *contract.Config, client contract.GitClient) (int, error) {
	repoPath := cfg.RepoBaseDir()
	if _, err := os.Stat(repoPath); err != nil {
		records, failures, loadErr := LoadRecords(cfg.ResultsDir())
		if loadErr != nil {
			return 0, loadErr
		}
		if len(records)+len(failures) == 0 {
			return 0, errors.New("nothing to summarize: no base clone and no records found")
		}
		contract.LogWarn(fmt.Sprintf("no base clone at %s, using record count as commit total", repoPath), nil)
		return len(records) + len(failures), nil
	}

	commits, err := client.ListCommits(ctx, repoPath, cfg.Ref)
	if err != nil {
		return 0, err
	}
	return len(commits), nil
}
