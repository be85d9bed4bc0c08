// Package gitclient has the git client.
package gitclient

import "github.com/yourorg/pmdminer/internal/contract"

// GitClient defines the necessary operations for mining a repository's history.
// This allows the orchestration logic to be tested without needing a real git executable.
type GitClient = contract.GitClient
