package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"
)

// Color variables for console log labels.
var (
	FatalColor = color.New(color.FgRed, color.Bold)
	WarnColor  = color.New(color.FgYellow)
	InfoColor  = color.New(color.FgGreen)
	DebugColor = color.New(color.FgCyan)
)

var verboseEnabled atomic.Bool

// SetVerbose toggles debug-level logging for the process.
func SetVerbose(enabled bool) {
	verboseEnabled.Store(enabled)
}

// SetColors toggles colored log labels for the process.
func SetColors(enabled bool) {
	color.NoColor = !enabled
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", FatalColor.Sprint("Fatal"), msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", WarnColor.Sprint("Warn"), msg, err)
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", WarnColor.Sprint("Warn"), msg)
}

// LogInfo logs an informational message to stderr, keeping stdout free for
// report output.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", InfoColor.Sprint("Info"), fmt.Sprintf(format, args...))
}

// LogDebug logs a message only when verbose mode is on.
func LogDebug(format string, args ...any) {
	if !verboseEnabled.Load() {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", DebugColor.Sprint("Debug"), fmt.Sprintf(format, args...))
}

// ShortHash abbreviates a commit hash for log output.
func ShortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

// ShouldIgnore returns true if the given path matches any of the exclude patterns.
// It supports simple glob patterns (using filepath.Match) when the pattern
// contains wildcard characters (*, ?, [ ]). Patterns ending with '/' are treated
// as prefixes. Patterns starting with '.' are treated as suffix (extension) matches.
// A user can provide patterns like "vendor/", "generated/", "*Test.java".
func ShouldIgnore(path string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		// If the pattern contains glob characters, try filepath.Match.
		if strings.ContainsAny(ex, "*?[") || strings.Contains(ex, "**") {
			pat := strings.ReplaceAll(ex, "**", "*")
			if ok, err := filepath.Match(pat, path); err == nil && ok {
				return true
			}
			// Also try matching against the base filename (e.g. *Test.java)
			if ok, err := filepath.Match(pat, filepath.Base(path)); err == nil && ok {
				return true
			}
			continue
		}

		// Handle prefix, suffix, or substring matches
		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(path, ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(path, ex) {
				return true
			}
		case strings.Contains(path, ex):
			return true
		}
	}
	return false
}

// EligibleFile reports whether a repo-relative path is in scope for analysis:
// matching extension, not under a dot-directory, not excluded. Paths use
// forward slashes, as produced by git.
func EligibleFile(path, extension string, excludes []string) bool {
	if !strings.HasSuffix(path, extension) {
		return false
	}
	for _, part := range strings.Split(path, "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return false
		}
	}
	return !ShouldIgnore(path, excludes)
}

// TruncateText shortens a string for table cells, keeping the head and
// marking the cut with an ellipsis.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 3 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}
