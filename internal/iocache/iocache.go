// Package iocache is for caching analysis results across commits and runs.
package iocache

import (
	"fmt"
	"sync"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// cacheTable is the name of the table for content-cache entries.
const cacheTable = "pmd_cache"

// runsTable is the name of the table for run tracking.
const runsTable = "mining_runs"

// StoreManager manages the content cache and run store instances.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	content      contract.ContentCache
	runs         contract.RunStore
}

var _ contract.CacheManager = &StoreManager{} // Compile-time check

// ContentCache returns the shared content cache.
func (mgr *StoreManager) ContentCache() contract.ContentCache {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.content
}

// RunStore returns the run-tracking store.
func (mgr *StoreManager) RunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}

// NewManager builds a manager around explicit stores, mainly for tests.
func NewManager(content contract.ContentCache, runs contract.RunStore) *StoreManager {
	return &StoreManager{content: content, runs: runs}
}

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager from the validated config.
// Safe to call more than once; only the first call does work.
func InitStores(cfg *contract.Config, rulesetFingerprint string) error {
	var initErr error

	initOnce.Do(func() {
		cacheStore, err := NewCacheStore(cfg)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize content cache: %w", err)
			return
		}

		content, err := NewMemCache(cacheStore, rulesetFingerprint)
		if err != nil {
			_ = cacheStore.Close()
			initErr = fmt.Errorf("failed to load content cache: %w", err)
			return
		}

		runs, err := NewRunStore(cfg.RunsBackend, cfg.RunsDBConnect, cfg.RunsDBFilePath())
		if err != nil {
			_ = cacheStore.Close()
			initErr = fmt.Errorf("failed to initialize run store: %w", err)
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.content = content
		Manager.runs = runs
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if mc, ok := Manager.content.(*MemCache); ok && mc != nil {
			_ = mc.Close()
		}
		if Manager.runs != nil {
			_ = Manager.runs.Close()
		}
	})
}

// NewCacheStore builds the snapshot store selected by the config.
func NewCacheStore(cfg *contract.Config) (contract.CacheStore, error) {
	switch cfg.CacheBackend {
	case schema.JSONBackend:
		return NewJSONSnapshotStore(cfg.SnapshotPath()), nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
		return NewDBSnapshotStore(cfg.CacheBackend, cfg.CacheDBConnect, cfg.CacheDBFilePath())
	case schema.NoneBackend:
		return NewNoopStore(), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.CacheBackend)
	}
}
