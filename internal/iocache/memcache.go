package iocache

import (
	"fmt"
	"sync"
	"time"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// MemCache is the in-memory content cache all workers share. It warms up
// from the backing store at construction and persists whole snapshots back
// through it.
type MemCache struct {
	mu        sync.RWMutex
	entries   map[string]schema.CacheEntry
	rulesetFP string
	store     contract.CacheStore
}

var _ contract.ContentCache = &MemCache{} // Compile-time check

// NewMemCache loads the persisted snapshot, discarding it when it was
// computed under a different ruleset. A corrupt or unreadable snapshot
// degrades to a cold start, never to a failed run.
func NewMemCache(store contract.CacheStore, rulesetFP string) (*MemCache, error) {
	mc := &MemCache{
		entries:   make(map[string]schema.CacheEntry),
		rulesetFP: rulesetFP,
		store:     store,
	}

	snapshot, err := store.Load()
	if err != nil {
		contract.LogWarn("cache snapshot unreadable, starting cold", err)
		return mc, nil
	}
	if snapshot == nil {
		return mc, nil
	}
	if snapshot.RulesetFingerprint != rulesetFP {
		contract.LogWarn(fmt.Sprintf("cache snapshot was built with a different ruleset (%s), discarding %d entries",
			snapshot.RulesetFingerprint, len(snapshot.Entries)), nil)
		if err := store.Clear(); err != nil {
			contract.LogWarn("failed to clear mismatched snapshot", err)
		}
		return mc, nil
	}

	for fp, entry := range snapshot.Entries {
		mc.entries[fp] = entry
	}
	contract.LogDebug("loaded %d cache entries", len(mc.entries))
	return mc, nil
}

// Lookup implements the ContentCache interface.
func (mc *MemCache) Lookup(fingerprint string) (schema.CacheEntry, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	entry, ok := mc.entries[fingerprint]
	return entry, ok
}

// Store implements the ContentCache interface.
func (mc *MemCache) Store(fingerprint string, entry schema.CacheEntry) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.entries[fingerprint] = entry
}

// Len implements the ContentCache interface.
func (mc *MemCache) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.entries)
}

// Persist implements the ContentCache interface. The snapshot is built from
// a copy so workers keep storing while the backend writes.
func (mc *MemCache) Persist() error {
	mc.mu.RLock()
	entries := make(map[string]schema.CacheEntry, len(mc.entries))
	for fp, entry := range mc.entries {
		entries[fp] = entry
	}
	mc.mu.RUnlock()

	return mc.store.Persist(&schema.CacheSnapshot{
		RulesetFingerprint: mc.rulesetFP,
		SavedAt:            time.Now().UTC(),
		Entries:            entries,
	})
}

// Close persists one final snapshot and releases the backing store.
func (mc *MemCache) Close() error {
	if err := mc.Persist(); err != nil {
		contract.LogWarn("final cache persist failed", err)
	}
	return mc.store.Close()
}
