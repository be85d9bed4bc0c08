// Package main provides a performance benchmarking tool for the pmdminer CLI.
// It mines each test repository three ways: a cold run with an empty content
// cache, a warm run against a fresh output directory with the cache retained,
// and a resume run against the populated output directory. Results are written
// as CSV for performance analysis and documentation.
//
// Prerequisites:
// - pmdminer binary installed and available in PATH
// - Test repositories cloned to the specified base directory
// - PMDMINER_RULESET and PMDMINER_PMD_PATH set in the environment
//
// Usage: go run benchmark/main.go [repo-base-dir]
//
//	repo-base-dir: Directory containing test repositories
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the timings of one repository's mining phases.
type BenchmarkResult struct {
	Repository string
	ColdTime   string
	WarmTime   string
	ResumeTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase     string
	Timeout      time.Duration
	Workers      int
	CacheBackend string
	TestRepos    []string
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [repo-base-dir]\n", os.Args[0])
		os.Exit(1)
	}
	repoBase := os.Args[1]

	config := BenchmarkConfig{
		RepoBase:     repoBase,
		Timeout:      30 * time.Minute,
		Workers:      8,
		CacheBackend: "sqlite",
	}

	if err := checkPrerequisites(&config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies the binary, environment, and test repositories,
// and discovers the repositories under the base directory.
func checkPrerequisites(config *BenchmarkConfig) error {
	if _, err := exec.LookPath("pmdminer"); err != nil {
		return fmt.Errorf("pmdminer binary not found in PATH")
	}
	for _, key := range []string{"PMDMINER_RULESET", "PMDMINER_PMD_PATH"} {
		if os.Getenv(key) == "" {
			return fmt.Errorf("%s is not set", key)
		}
	}

	entries, err := os.ReadDir(config.RepoBase)
	if err != nil {
		return fmt.Errorf("cannot read repo base %s: %w", config.RepoBase, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		gitDir := filepath.Join(config.RepoBase, entry.Name(), ".git")
		if _, err := os.Stat(gitDir); err == nil {
			config.TestRepos = append(config.TestRepos, entry.Name())
		}
	}
	if len(config.TestRepos) == 0 {
		return fmt.Errorf("no git repositories found under %s", config.RepoBase)
	}
	return nil
}

// runBenchmarks executes all mining phases across the discovered repositories.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, %d workers, %s cache\n",
		len(config.TestRepos), config.Timeout, config.Workers, config.CacheBackend)

	for _, repo := range config.TestRepos {
		fmt.Printf("Benchmarking %s\n", repo)
		results = append(results, runBenchmarkSuite(config, repo))
	}

	return results
}

// runBenchmarkSuite runs the cold, warm, and resume phases for one repository.
func runBenchmarkSuite(config BenchmarkConfig, repo string) BenchmarkResult {
	repoPath := filepath.Join(config.RepoBase, repo)

	baseDir, err := os.MkdirTemp("", "pmdminer-bench-*")
	if err != nil {
		fmt.Printf("  Skipping %s: %v\n", repo, err)
		return BenchmarkResult{Repository: repo, ColdTime: "ERROR", WarmTime: "ERROR", ResumeTime: "ERROR"}
	}
	defer func() { _ = os.RemoveAll(baseDir) }()

	coldDir := filepath.Join(baseDir, "cold")
	warmDir := filepath.Join(baseDir, "warm")

	// Phase 1: empty cache, fresh output directory.
	fmt.Printf("  Cold phase\n")
	clearCache(config)
	coldTime := runMine(config, repoPath, coldDir)

	// Phase 2: cache retained from the cold run, fresh output directory.
	// Every unchanged file should be a content-cache hit.
	fmt.Printf("  Warm phase\n")
	warmTime := runMine(config, repoPath, warmDir)

	// Phase 3: same output directory again. Every commit already has a
	// record, so this measures pure resume overhead.
	fmt.Printf("  Resume phase\n")
	resumeTime := runMine(config, repoPath, warmDir)

	result := BenchmarkResult{
		Repository: repo,
		ColdTime:   formatTime(coldTime),
		WarmTime:   formatTime(warmTime),
		ResumeTime: formatTime(resumeTime),
	}
	fmt.Printf("  Cold: %s, Warm: %s, Resume: %s\n", result.ColdTime, result.WarmTime, result.ResumeTime)
	return result
}

// clearCache empties the content cache between repositories.
func clearCache(config BenchmarkConfig) {
	cmd := exec.Command("pmdminer", "cache", "clear", "--cache-backend", config.CacheBackend)
	if output, err := cmd.CombinedOutput(); err != nil {
		fmt.Printf("  Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	}
}

// runMine executes one full mining run and returns its duration in seconds,
// or a negative value on failure or timeout.
func runMine(config BenchmarkConfig, repoPath, outputDir string) float64 {
	args := []string{
		"mine", repoPath,
		"--output-dir", outputDir,
		"--workers", fmt.Sprintf("%d", config.Workers),
		"--cache-backend", config.CacheBackend,
		"--progress=false",
		"--color", "no",
	}

	start := time.Now()
	cmd := exec.Command("pmdminer", args...)

	done := make(chan bool)
	var output []byte
	var cmdErr error

	go func() {
		output, cmdErr = cmd.CombinedOutput()
		done <- true
	}()

	select {
	case <-done:
		if cmdErr == nil && isSuccess(output) {
			return time.Since(start).Seconds()
		}
		return -1
	case <-time.After(config.Timeout):
		_ = cmd.Process.Kill()
		return -1
	}
}

// isSuccess checks if command output indicates successful completion.
func isSuccess(output []byte) bool {
	return strings.Contains(string(output), "run finished in")
}

// formatTime renders a phase duration, using TIMEOUT for failed runs.
func formatTime(seconds float64) string {
	if seconds < 0 {
		return "TIMEOUT"
	}
	return fmt.Sprintf("%.3fs", seconds)
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/pmdminer_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"repo", "cold_time", "warm_time", "resume_time"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Repository, result.ColdTime, result.WarmTime, result.ResumeTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-16s: Cold: %s, Warm: %s, Resume: %s\n",
			result.Repository, result.ColdTime, result.WarmTime, result.ResumeTime)
	}
	fmt.Printf("Benchmark script completed successfully\n")
}
