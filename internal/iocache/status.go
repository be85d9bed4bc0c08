package iocache

import (
	"fmt"

	"github.com/yourorg/pmdminer/schema"
)

// PrintCacheStatus prints content-cache status information.
func PrintCacheStatus(status schema.CacheStatus) {
	fmt.Printf("Cache Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Entries: %d\n", status.TotalEntries)
	if !status.LastPersist.IsZero() {
		fmt.Printf("Last Persist: %s\n", status.LastPersist.Format("2006-01-02 15:04:05"))
	}
	if status.SnapshotPath != "" {
		fmt.Printf("Snapshot: %s (%d bytes)\n", status.SnapshotPath, status.SnapshotBytes)
	}
}

// PrintRunsStatus prints run-tracking status information.
func PrintRunsStatus(status schema.RunsStatus) {
	fmt.Printf("Runs Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		fmt.Printf("Last Run ID: %d\n", status.LastRunID)
		fmt.Printf("Last Run: %s\n", status.LastRunTime.Format("2006-01-02 15:04:05"))
	}
}
