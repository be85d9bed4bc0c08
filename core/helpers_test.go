package core

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/internal/iocache"
	"github.com/yourorg/pmdminer/schema"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

func gitRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	fullArgs := append([]string{
		"-C", dir,
		"-c", "user.name=Test",
		"-c", "user.email=test@example.com",
		"-c", "commit.gpgsign=false",
	}, args...)
	out, err := exec.Command("git", fullArgs...).CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return strings.TrimSpace(string(out))
}

// commitFiles writes (or removes, for nil content) files and commits.
func commitFiles(t *testing.T, dir, message string, files map[string]*string) string {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if content == nil {
			require.NoError(t, os.Remove(path))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(*content), 0o644))
	}
	gitRun(t, dir, "add", "-A")
	gitRun(t, dir, "commit", "-q", "-m", message)
	return gitRun(t, dir, "rev-parse", "HEAD")
}

func str(s string) *string { return &s }

// testConfig builds a minimal validated-shape config rooted at outputDir.
func testConfig(t *testing.T, repoLocation, outputDir string) *contract.Config {
	t.Helper()
	return &contract.Config{
		RepoLocation:     repoLocation,
		OutputDir:        outputDir,
		RulesetPath:      "/etc/rules.xml",
		Extension:        ".java",
		Workers:          2,
		Analyzer:         schema.CLIAnalyzerKind,
		AnalyzeTimeout:   time.Minute,
		PersistEvery:     time.Hour,
		CheckoutAttempts: 1,
	}
}

// newTestCache builds a MemCache over a throwaway JSON snapshot.
func newTestCache(t *testing.T) *iocache.MemCache {
	t.Helper()
	store := iocache.NewJSONSnapshotStore(filepath.Join(t.TempDir(), "pmd_cache.json"))
	mc, err := iocache.NewMemCache(store, "test-ruleset")
	require.NoError(t, err)
	return mc
}

// stubAnalyzer reports exactly one violation per analyzed file, and records
// every call so tests can assert what actually hit the analyzer.
type stubAnalyzer struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

var _ contract.Analyzer = &stubAnalyzer{}

func (s *stubAnalyzer) Kind() schema.AnalyzerKind {
	return schema.CLIAnalyzerKind
}

func (s *stubAnalyzer) Analyze(_ context.Context, root string, files []string) (*schema.AnalyzerReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.calls = append(s.calls, append([]string(nil), files...))

	targets := files
	if len(targets) == 0 {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ".java") {
				rel, _ := filepath.Rel(root, path)
				targets = append(targets, filepath.ToSlash(rel))
			}
			return nil
		})
	}

	report := &schema.AnalyzerReport{}
	for _, target := range targets {
		report.Files = append(report.Files, schema.FileReport{
			Filename: filepath.Join(root, filepath.FromSlash(target)),
			Violations: []schema.Violation{
				{Rule: "UnusedLocalVariable", Description: "unused variable", Priority: 3, BeginLine: 1},
			},
		})
	}
	return report, nil
}

func (s *stubAnalyzer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubAnalyzer) lastCall() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	return s.calls[len(s.calls)-1]
}

func (s *stubAnalyzer) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
