package iocache

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// ContentCache implements the CacheManager interface.
func (m *MockCacheManager) ContentCache() contract.ContentCache {
	ret := m.Called()
	cache, _ := ret.Get(0).(contract.ContentCache)
	return cache
}

// RunStore implements the CacheManager interface.
func (m *MockCacheManager) RunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Load implements the CacheStore interface.
func (m *MockCacheStore) Load() (*schema.CacheSnapshot, error) {
	ret := m.Called()
	snapshot, _ := ret.Get(0).(*schema.CacheSnapshot)
	return snapshot, ret.Error(1)
}

// Persist implements the CacheStore interface.
func (m *MockCacheStore) Persist(snapshot *schema.CacheSnapshot) error {
	return m.Called(snapshot).Error(0)
}

// Status implements the CacheStore interface.
func (m *MockCacheStore) Status() (schema.CacheStatus, error) {
	ret := m.Called()
	status, _ := ret.Get(0).(schema.CacheStatus)
	return status, ret.Error(1)
}

// Clear implements the CacheStore interface.
func (m *MockCacheStore) Clear() error {
	return m.Called().Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	return m.Called().Error(0)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	ret := m.Called(startTime, configParams)
	id, _ := ret.Get(0).(int64)
	return id, ret.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endTime time.Time, analyzed, skipped, failed int) error {
	return m.Called(runID, endTime, analyzed, skipped, failed).Error(0)
}

// Status implements the RunStore interface.
func (m *MockRunStore) Status() (schema.RunsStatus, error) {
	ret := m.Called()
	status, _ := ret.Get(0).(schema.RunsStatus)
	return status, ret.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	return m.Called().Error(0)
}
