//go:build basic || database

// Package integration contains end-to-end tests that drive the built
// pmdminer binary. These tests are excluded from normal test runs due to
// build tags. To run them: go test -tags basic ./integration
package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var (
	// sharedBinaryPath holds the path to a shared pmdminer binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getMinerBinary returns the path to the pmdminer binary, building it once if needed.
func getMinerBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "pmdminer-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "pmdminer")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/pmdminer")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build pmdminer: %v", err))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// runMinerCommand runs the shared binary from dir and returns its combined output.
func runMinerCommand(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getMinerBinary(), args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}

// writeFakePMD writes a stand-in PMD executable that emits an empty report.
// It keeps the end-to-end flow independent of a Java toolchain.
func writeFakePMD(t *testing.T, dir string) string {
	t.Helper()
	script := `#!/bin/sh
report=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "--report-file" ]; then report="$arg"; fi
  prev="$arg"
done
if [ -n "$report" ]; then printf '{"files":[]}' > "$report"; fi
exit 0
`
	path := filepath.Join(dir, "pmd")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		panic(fmt.Sprintf("failed to write fake pmd: %v", err))
	}
	return path
}

// gitRun executes a git command in dir with a fixed test identity.
func gitRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	fullArgs := append([]string{
		"-C", dir,
		"-c", "user.name=Test",
		"-c", "user.email=test@example.com",
		"-c", "commit.gpgsign=false",
	}, args...)
	out, err := exec.Command("git", fullArgs...).CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v: %s", args, err, out)
	}
	return strings.TrimSpace(string(out))
}

// buildTestRepo creates a small repository with three commits of Java files.
func buildTestRepo(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	gitRun(t, repo, "init", "-q")
	for _, name := range []string{"A", "B", "C"} {
		path := filepath.Join(repo, "src", name+".java")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("class "+name+" {}"), 0o644); err != nil {
			t.Fatal(err)
		}
		gitRun(t, repo, "add", "-A")
		gitRun(t, repo, "commit", "-q", "-m", "add "+name)
	}
	return repo
}

// writeRuleset writes a minimal ruleset file for validation to accept.
func writeRuleset(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "rules.xml")
	if err := os.WriteFile(path, []byte(`<?xml version="1.0"?><ruleset name="mining"/>`), 0o644); err != nil {
		panic(fmt.Sprintf("failed to write ruleset: %v", err))
	}
	return path
}
