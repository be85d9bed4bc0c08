package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// WriteCommitResults outputs per-commit records, dispatching based on the output format configured.
func WriteCommitResults(records []schema.CommitRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, records)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCommitCSV(w, records)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCommitTable(records, cfg, w)
		}, "Wrote table")
	}
	return nil
}

// writeCommitTable generates and writes the human-readable table.
func writeCommitTable(records []schema.CommitRecord, cfg *contract.Config, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Commit", "Files", "Warnings", "Analyzed", "Cache Hits", "Duration"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	totalAnalyzed := 0
	totalHits := 0
	for _, record := range records {
		totalAnalyzed += record.FilesAnalyzed
		totalHits += record.CacheHits
		data = append(data, []string{
			contract.ShortHash(record.CommitHash),
			strconv.Itoa(record.NumJavaFiles),
			strconv.Itoa(record.NumWarnings),
			strconv.Itoa(record.FilesAnalyzed),
			strconv.Itoa(record.CacheHits),
			fmt.Sprintf("%.2fs", record.DurationSec),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(writer, "Showing %d commits (files analyzed: %d, cache hits: %d)\n",
		len(records), totalAnalyzed, totalHits); err != nil {
		return err
	}
	return nil
}

// writeCommitCSV writes the per-commit records in CSV format.
func writeCommitCSV(w io.Writer, records []schema.CommitRecord) error {
	header := []string{
		"commit_hash",
		"pmd_success",
		"num_java_files",
		"num_warnings",
		"files_analyzed",
		"cache_hits",
		"duration_sec",
	}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, record := range records {
			rec := []string{
				record.CommitHash,
				strconv.FormatBool(record.PMDSuccess),
				strconv.Itoa(record.NumJavaFiles),
				strconv.Itoa(record.NumWarnings),
				strconv.Itoa(record.FilesAnalyzed),
				strconv.Itoa(record.CacheHits),
				fmt.Sprintf("%.2f", record.DurationSec),
			}
			if err := csvWriter.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
