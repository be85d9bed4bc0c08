package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// CLIAnalyzer runs the pmd executable once per call. Each invocation pays
// JVM startup, which is exactly what the daemon backend exists to avoid.
type CLIAnalyzer struct {
	pmdPath      string
	rulesetPath  string
	auxClasspath []string
	timeout      time.Duration
}

var _ contract.Analyzer = &CLIAnalyzer{} // Compile-time check

// NewCLIAnalyzer creates a CLI analyzer from the validated config.
func NewCLIAnalyzer(cfg *contract.Config) *CLIAnalyzer {
	return &CLIAnalyzer{
		pmdPath:      cfg.PMDPath,
		rulesetPath:  cfg.RulesetPath,
		auxClasspath: cfg.AuxClasspath,
		timeout:      cfg.AnalyzeTimeout,
	}
}

// Kind implements the Analyzer interface.
func (a *CLIAnalyzer) Kind() schema.AnalyzerKind {
	return schema.CLIAnalyzerKind
}

// Analyze implements the Analyzer interface. A nil or empty file list scans
// the whole tree with --dir; otherwise only the listed files run, via a
// temporary --file-list file.
func (a *CLIAnalyzer) Analyze(ctx context.Context, root string, files []string) (*schema.AnalyzerReport, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reportFile, err := os.CreateTemp("", "pmd-report-*.json")
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}
	reportPath := reportFile.Name()
	_ = reportFile.Close()
	defer func() { _ = os.Remove(reportPath) }()

	args := []string{
		"check",
		"--rulesets", a.rulesetPath,
		"--format", "json",
		"--report-file", reportPath,
		"--fail-on-violation", "false",
	}
	if len(a.auxClasspath) > 0 {
		args = append(args, "--aux-classpath", joinClasspath(a.auxClasspath))
	}

	if len(files) == 0 {
		args = append(args, "--dir", root)
	} else {
		listPath, err := writeFileList(root, files)
		if err != nil {
			return nil, err
		}
		defer func() { _ = os.Remove(listPath) }()
		args = append(args, "--file-list", listPath)
	}

	cmd := exec.CommandContext(ctx, a.pmdPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("pmd timed out after %s", a.timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			if _, ok := schema.SuccessfulPMDExitCodes[code]; !ok {
				return nil, fmt.Errorf("pmd exited with code %d: %s", code, strings.TrimSpace(string(out)))
			}
			// Violations found is still a successful run.
		} else {
			return nil, fmt.Errorf("pmd failed to start: %w", err)
		}
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("read pmd report: %w", err)
	}
	return ParseReport(data)
}

// writeFileList materializes the absolute-path list file --file-list wants.
func writeFileList(root string, files []string) (string, error) {
	listFile, err := os.CreateTemp("", "pmd-files-*.txt")
	if err != nil {
		return "", fmt.Errorf("create file list: %w", err)
	}
	var sb strings.Builder
	for _, file := range files {
		sb.WriteString(filepath.Join(root, filepath.FromSlash(file)))
		sb.WriteByte('\n')
	}
	if _, err := listFile.WriteString(sb.String()); err != nil {
		_ = listFile.Close()
		_ = os.Remove(listFile.Name())
		return "", fmt.Errorf("write file list: %w", err)
	}
	if err := listFile.Close(); err != nil {
		_ = os.Remove(listFile.Name())
		return "", fmt.Errorf("close file list: %w", err)
	}
	return listFile.Name(), nil
}
