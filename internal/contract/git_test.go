package contract

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// gitRun executes git inside dir, failing the test on any error.
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

// writeAndCommit writes files and commits them, returning the commit hash.
func writeAndCommit(t *testing.T, dir, message string, files map[string]string) string {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	gitRun(t, dir, "add", "-A")
	gitRun(t, dir, "commit", "-q", "-m", message)
	return gitRun(t, dir, "rev-parse", "HEAD")
}

// initTestRepo creates a repository with a single initial commit.
func initTestRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	gitRun(t, dir, "init", "-q")
	first := writeAndCommit(t, dir, "initial", map[string]string{
		"src/A.java": "class A {}\n",
		"src/B.java": "class B {}\n",
	})
	return dir, first
}

func TestNewLocalGitClient(t *testing.T) {
	client := NewLocalGitClient()
	assert.NotNil(t, client)
	assert.IsType(t, &LocalGitClient{}, client)
}

func TestLocalGitClient_RunErrors(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()

	_, err := client.Run(ctx, t.TempDir(), "rev-parse", "HEAD")
	assert.Error(t, err, "Run should fail outside a repository")
}

func TestLocalGitClient_ListCommits(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()

	dir, first := initTestRepo(t)
	second := writeAndCommit(t, dir, "second", map[string]string{"src/C.java": "class C {}\n"})
	third := writeAndCommit(t, dir, "third", map[string]string{"src/A.java": "class A { int x; }\n"})

	commits, err := client.ListCommits(ctx, dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{first, second, third}, commits, "commits should come back oldest first")

	commits, err = client.ListCommits(ctx, dir, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, []string{first, second, third}, commits)
}

func TestLocalGitClient_DiffChanges(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()

	dir, first := initTestRepo(t)

	// Modify A, delete B, add C in one commit.
	require.NoError(t, os.Remove(filepath.Join(dir, "src/B.java")))
	second := writeAndCommit(t, dir, "second", map[string]string{
		"src/A.java": "class A { int x; }\n",
		"src/C.java": "class C {}\n",
	})

	changes, err := client.DiffChanges(ctx, dir, first, second)
	require.NoError(t, err)
	assert.ElementsMatch(t, []FileChange{
		{Path: "src/A.java"},
		{Path: "src/B.java", Deleted: true},
		{Path: "src/C.java"},
	}, changes)
}

func TestLocalGitClient_DiffChangesRename(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()

	dir, _ := initTestRepo(t)
	before := gitRun(t, dir, "rev-parse", "HEAD")

	gitRun(t, dir, "mv", "src/B.java", "src/Renamed.java")
	gitRun(t, dir, "commit", "-q", "-m", "rename")
	after := gitRun(t, dir, "rev-parse", "HEAD")

	changes, err := client.DiffChanges(ctx, dir, before, after)
	require.NoError(t, err)
	assert.ElementsMatch(t, []FileChange{
		{Path: "src/B.java", Deleted: true},
		{Path: "src/Renamed.java"},
	}, changes)
}

func TestLocalGitClient_Worktrees(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()

	dir, first := initTestRepo(t)
	second := writeAndCommit(t, dir, "second", map[string]string{"src/C.java": "class C {}\n"})

	wtPath := filepath.Join(t.TempDir(), "wt_0")
	require.NoError(t, client.AddWorktree(ctx, dir, wtPath, first))

	// Pinned to the first commit, so C.java must not exist yet.
	assert.NoFileExists(t, filepath.Join(wtPath, "src/C.java"))

	require.NoError(t, client.Checkout(ctx, wtPath, second))
	assert.FileExists(t, filepath.Join(wtPath, "src/C.java"))

	require.NoError(t, client.RemoveWorktree(ctx, dir, wtPath))
	assert.NoDirExists(t, wtPath)

	require.NoError(t, client.PruneWorktrees(ctx, dir))
}

func TestLocalGitClient_CloneAndFetch(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()

	src, first := initTestRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")

	require.NoError(t, client.Clone(ctx, src, dest))

	commits, err := client.ListCommits(ctx, dest, "")
	require.NoError(t, err)
	assert.Contains(t, commits, first)

	require.NoError(t, client.Fetch(ctx, dest))
}
