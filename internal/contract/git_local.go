package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// Run executes a git command and returns its stdout output.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git %s failed in %q: %s", args[0], repoPath, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// Clone implements the GitClient interface. The destination does not exist
// yet, so this one runs without -C.
func (c *LocalGitClient) Clone(ctx context.Context, location, dest string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", location, dest)
	_, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return fmt.Errorf("git clone of %q failed: %s", location, stderr)
	} else if err != nil {
		return fmt.Errorf("git clone failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return nil
}

// Fetch implements the GitClient interface.
func (c *LocalGitClient) Fetch(ctx context.Context, repoPath string) error {
	_, err := c.Run(ctx, repoPath, "fetch", "--all", "--prune")
	return err
}

// ListCommits implements the GitClient interface. Commits come back oldest
// first, so lineage order is simply slice order.
func (c *LocalGitClient) ListCommits(ctx context.Context, repoPath string, ref string) ([]string, error) {
	args := []string{"rev-list", "--reverse"}
	if ref == "" {
		args = append(args, "--all")
	} else {
		args = append(args, ref)
	}
	out, err := c.Run(ctx, repoPath, args...)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return []string{}, nil
	}
	return lines, nil
}

// DiffChanges implements the GitClient interface. Renames are detected and
// reported as a deletion of the old path plus a change at the new one, which
// is how the incremental tree state wants to see them.
func (c *LocalGitClient) DiffChanges(ctx context.Context, repoPath string, commitA, commitB string) ([]FileChange, error) {
	out, err := c.Run(ctx, repoPath, "diff", "--name-status", "-M", commitA, commitB)
	if err != nil {
		return nil, err
	}

	var changes []FileChange
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("unexpected diff line %q", line)
		}
		status := fields[0]
		switch status[0] {
		case 'A', 'M', 'T':
			changes = append(changes, FileChange{Path: fields[1]})
		case 'D':
			changes = append(changes, FileChange{Path: fields[1], Deleted: true})
		case 'R', 'C':
			if len(fields) < 3 {
				return nil, fmt.Errorf("unexpected diff line %q", line)
			}
			if status[0] == 'R' {
				changes = append(changes, FileChange{Path: fields[1], Deleted: true})
			}
			changes = append(changes, FileChange{Path: fields[2]})
		default:
			// Unmerged and unknown statuses cannot appear between two
			// committed trees; treat them as changes to be safe.
			changes = append(changes, FileChange{Path: fields[len(fields)-1]})
		}
	}
	return changes, nil
}

// Checkout implements the GitClient interface.
func (c *LocalGitClient) Checkout(ctx context.Context, worktreePath string, commit string) error {
	_, err := c.Run(ctx, worktreePath, "checkout", commit, "--force")
	return err
}

// AddWorktree implements the GitClient interface.
func (c *LocalGitClient) AddWorktree(ctx context.Context, repoPath string, path string, commit string) error {
	_, err := c.Run(ctx, repoPath, "worktree", "add", "--detach", path, commit)
	return err
}

// RemoveWorktree implements the GitClient interface.
func (c *LocalGitClient) RemoveWorktree(ctx context.Context, repoPath string, path string) error {
	_, err := c.Run(ctx, repoPath, "worktree", "remove", "--force", path)
	return err
}

// PruneWorktrees implements the GitClient interface.
func (c *LocalGitClient) PruneWorktrees(ctx context.Context, repoPath string) error {
	_, err := c.Run(ctx, repoPath, "worktree", "prune")
	return err
}
