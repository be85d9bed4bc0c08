package contract

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/yourorg/pmdminer/schema"
)

// MockGitClient is a mock implementation of GitClient for testing.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	callArgs := make([]any, 0, len(args)+2)
	callArgs = append(callArgs, ctx, repoPath)
	for _, arg := range args {
		callArgs = append(callArgs, arg)
	}
	ret := m.Called(callArgs...)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// Clone implements the GitClient interface.
func (m *MockGitClient) Clone(ctx context.Context, location, dest string) error {
	return m.Called(ctx, location, dest).Error(0)
}

// Fetch implements the GitClient interface.
func (m *MockGitClient) Fetch(ctx context.Context, repoPath string) error {
	return m.Called(ctx, repoPath).Error(0)
}

// ListCommits implements the GitClient interface.
func (m *MockGitClient) ListCommits(ctx context.Context, repoPath string, ref string) ([]string, error) {
	ret := m.Called(ctx, repoPath, ref)
	commits, _ := ret.Get(0).([]string)
	return commits, ret.Error(1)
}

// DiffChanges implements the GitClient interface.
func (m *MockGitClient) DiffChanges(ctx context.Context, repoPath string, commitA, commitB string) ([]FileChange, error) {
	ret := m.Called(ctx, repoPath, commitA, commitB)
	changes, _ := ret.Get(0).([]FileChange)
	return changes, ret.Error(1)
}

// Checkout implements the GitClient interface.
func (m *MockGitClient) Checkout(ctx context.Context, worktreePath string, commit string) error {
	return m.Called(ctx, worktreePath, commit).Error(0)
}

// AddWorktree implements the GitClient interface.
func (m *MockGitClient) AddWorktree(ctx context.Context, repoPath string, path string, commit string) error {
	return m.Called(ctx, repoPath, path, commit).Error(0)
}

// RemoveWorktree implements the GitClient interface.
func (m *MockGitClient) RemoveWorktree(ctx context.Context, repoPath string, path string) error {
	return m.Called(ctx, repoPath, path).Error(0)
}

// PruneWorktrees implements the GitClient interface.
func (m *MockGitClient) PruneWorktrees(ctx context.Context, repoPath string) error {
	return m.Called(ctx, repoPath).Error(0)
}

// MockAnalyzer is a mock implementation of Analyzer for testing.
type MockAnalyzer struct {
	mock.Mock
}

var _ Analyzer = &MockAnalyzer{} // Compile-time check

// Analyze implements the Analyzer interface.
func (m *MockAnalyzer) Analyze(ctx context.Context, root string, files []string) (*schema.AnalyzerReport, error) {
	ret := m.Called(ctx, root, files)
	report, _ := ret.Get(0).(*schema.AnalyzerReport)
	return report, ret.Error(1)
}

// Kind implements the Analyzer interface.
func (m *MockAnalyzer) Kind() schema.AnalyzerKind {
	ret := m.Called()
	kind, _ := ret.Get(0).(schema.AnalyzerKind)
	return kind
}
