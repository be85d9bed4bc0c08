// Package core has core logic for mining, analysis and aggregation.
package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/internal/iocache"
)

// treeState is a worker's view of the eligible files in its worktree,
// keyed by repo-relative slash path, valued by content fingerprint. It is
// only valid while the worktree sits at prevCommit.
type treeState struct {
	prevCommit string
	files      map[string]string
}

// newTreeState starts with no knowledge, forcing a full scan.
func newTreeState() *treeState {
	return &treeState{files: make(map[string]string)}
}

// reset drops all state. The next commit on this slot does a full rescan.
func (t *treeState) reset() {
	t.prevCommit = ""
	t.files = make(map[string]string)
}

// resolution is the outcome of bringing the tree state up to date with a
// freshly checked-out commit.
type resolution struct {
	// changed holds the repo-relative paths whose fingerprints are new or
	// different since prevCommit. Only these can need analyzer work.
	changed []string
}

// resolve updates the tree state to match the worktree at commit. With no
// usable predecessor it walks the whole tree; otherwise it applies the git
// diff and re-fingerprints only the touched files.
func (t *treeState) resolve(ctx context.Context, git contract.GitClient, cfg *contract.Config, worktree, commit string) (*resolution, error) {
	if t.prevCommit == "" {
		files, err := scanWorktree(worktree, cfg.Extension, cfg.Excludes)
		if err != nil {
			return nil, contract.NewCacheIOError(commit, err)
		}
		t.files = files
		t.prevCommit = commit

		changed := make([]string, 0, len(files))
		for path := range files {
			changed = append(changed, path)
		}
		return &resolution{changed: changed}, nil
	}

	diff, err := git.DiffChanges(ctx, worktree, t.prevCommit, commit)
	if err != nil {
		return nil, contract.NewCheckoutError(commit, err)
	}

	var changed []string
	for _, change := range diff {
		if !contract.EligibleFile(change.Path, cfg.Extension, cfg.Excludes) {
			continue
		}
		if change.Deleted {
			delete(t.files, change.Path)
			continue
		}
		fp, err := iocache.FingerprintFile(filepath.Join(worktree, filepath.FromSlash(change.Path)))
		if err != nil {
			// The diff can name paths the checkout does not have, e.g.
			// case-only renames on case-insensitive filesystems. Such a
			// path is dropped from the tree, never a commit failure.
			if errors.Is(err, fs.ErrNotExist) {
				contract.LogWarn(fmt.Sprintf("skipping %s: reported as changed but missing from the worktree", change.Path), nil)
				delete(t.files, change.Path)
				continue
			}
			return nil, contract.NewCacheIOError(commit, err)
		}
		if t.files[change.Path] != fp {
			t.files[change.Path] = fp
			changed = append(changed, change.Path)
		}
	}
	t.prevCommit = commit
	return &resolution{changed: changed}, nil
}

// scanWorktree fingerprints every eligible file under root. Dot-directories
// (including .git) are never descended into.
func scanWorktree(root, extension string, excludes []string) (map[string]string, error) {
	files := make(map[string]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !contract.EligibleFile(rel, extension, excludes) {
			return nil
		}

		fp, err := iocache.FingerprintFile(path)
		if err != nil {
			return err
		}
		files[rel] = fp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan worktree %s: %w", root, err)
	}
	return files, nil
}
