package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// ruleCount pairs a rule name with its repository-wide warning count.
type ruleCount struct {
	Rule  string
	Count int
}

// WriteSummaryResults outputs the run summary, dispatching based on the output format configured.
func WriteSummaryResults(summary *schema.RunSummary, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summary)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryCSV(w, summary)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryTable(summary, cfg, duration, w)
		}, "Wrote table")
	}
	return nil
}

// rankedRules orders the warning counts by frequency, then name, so the
// report reads the same on every run.
func rankedRules(warnings map[string]int) []ruleCount {
	ranked := make([]ruleCount, 0, len(warnings))
	for rule, count := range warnings {
		ranked = append(ranked, ruleCount{Rule: rule, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Rule < ranked[j].Rule
	})
	return ranked
}

// writeSummaryTable generates and writes the human-readable table.
func writeSummaryTable(summary *schema.RunSummary, cfg *contract.Config, duration time.Duration, writer io.Writer) error {
	ranked := rankedRules(summary.Warnings)

	totalWarnings := 0
	for _, rc := range ranked {
		totalWarnings += rc.Count
	}

	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Rank", "Rule", "Count", "Share"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	maxRule := getMaxRuleWidth(cfg)
	var data [][]string
	for i, rc := range ranked {
		share := "-"
		if totalWarnings > 0 {
			share = fmt.Sprintf("%.1f%%", 100*float64(rc.Count)/float64(totalWarnings))
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateText(rc.Rule, maxRule),
			strconv.Itoa(rc.Count),
			share,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	stats := summary.Repository
	if _, err := fmt.Fprintf(writer, "Analyzed %d of %d commits (%d failed, %d unprocessed)\n",
		stats.AnalyzedOK, stats.TotalCommits, stats.Failed, stats.Unprocessed); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Averages per commit: %.2f files, %.2f warnings\n",
		stats.AvgJavaFiles, stats.AvgWarnings); err != nil {
		return err
	}
	if len(summary.Failures) > 0 {
		if _, err := fmt.Fprintf(writer, "Failures by kind: %s\n", formatFailures(summary.Failures)); err != nil {
			return err
		}
	}
	if duration > 0 {
		if _, err := fmt.Fprintf(writer, "Summary generated in %v. Cache backend: %s\n", duration, cfg.CacheBackend); err != nil {
			return err
		}
	}
	return nil
}

// writeSummaryCSV writes one row per rule plus repository totals.
func writeSummaryCSV(w io.Writer, summary *schema.RunSummary) error {
	header := []string{"rank", "rule", "count"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for i, rc := range rankedRules(summary.Warnings) {
			rec := []string{
				strconv.Itoa(i + 1),
				rc.Rule,
				strconv.Itoa(rc.Count),
			}
			if err := csvWriter.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// formatFailures renders the failure-kind counts in a fixed kind order.
func formatFailures(failures map[schema.ErrorKind]int) string {
	kinds := make([]string, 0, len(failures))
	for kind := range failures {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	out := ""
	for i, kind := range kinds {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%d", kind, failures[schema.ErrorKind(kind)])
	}
	return out
}
