package iocache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// RunStoreImpl records mining runs in a SQL database for later inspection.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.CacheBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore initializes the run-tracking store for the given backend.
// NoneBackend disables tracking with a no-op store.
func NewRunStore(backend schema.CacheBackend, connStr, dbFilePath string) (contract.RunStore, error) {
	if backend == schema.NoneBackend || backend == "" {
		return &noopRunStore{}, nil
	}

	db, err := openDB(backend, connStr, dbFilePath)
	if err != nil {
		return nil, err
	}

	store := &RunStoreImpl{db: db, backend: backend}
	if _, err := db.Exec(createRunsTableQuery()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create runs table: %w", err)
	}
	return store, nil
}

// createRunsTableQuery is deliberately portable SQL: run IDs are generated
// in Go, so no backend-specific autoincrement is needed. The same shape
// lives in the versioned migrations for the migrate subcommand.
func createRunsTableQuery() string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id BIGINT PRIMARY KEY,
			start_time BIGINT NOT NULL,
			end_time BIGINT,
			commits_analyzed INTEGER NOT NULL DEFAULT 0,
			commits_skipped INTEGER NOT NULL DEFAULT 0,
			commits_failed INTEGER NOT NULL DEFAULT 0,
			config_params TEXT
		);
	`, runsTable)
}

func (rs *RunStoreImpl) placeholder(n int) string {
	if rs.backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// BeginRun implements the RunStore interface. The run ID doubles as the
// start timestamp in milliseconds.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	runID := startTime.UnixMilli()

	params, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("encode run params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, start_time, config_params) VALUES (%s, %s, %s)`,
		runsTable, rs.placeholder(1), rs.placeholder(2), rs.placeholder(3))
	if _, err := rs.db.Exec(query, runID, startTime.Unix(), string(params)); err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// EndRun implements the RunStore interface.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, analyzed, skipped, failed int) error {
	query := fmt.Sprintf(`UPDATE %s SET end_time = %s, commits_analyzed = %s, commits_skipped = %s, commits_failed = %s WHERE run_id = %s`,
		runsTable, rs.placeholder(1), rs.placeholder(2), rs.placeholder(3), rs.placeholder(4), rs.placeholder(5))
	if _, err := rs.db.Exec(query, endTime.Unix(), analyzed, skipped, failed, runID); err != nil {
		return fmt.Errorf("update run %d: %w", runID, err)
	}
	return nil
}

// Status implements the RunStore interface.
func (rs *RunStoreImpl) Status() (schema.RunsStatus, error) {
	status := schema.RunsStatus{
		Backend:   rs.backend,
		Connected: rs.db != nil,
	}
	if rs.db == nil {
		return status, nil
	}

	row := rs.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, runsTable))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}
	if status.TotalRuns == 0 {
		return status, nil
	}

	row = rs.db.QueryRow(fmt.Sprintf(`SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1`, runsTable))
	var startUnix int64
	if err := row.Scan(&status.LastRunID, &startUnix); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return status, fmt.Errorf("failed to get last run: %w", err)
	}
	status.LastRunTime = time.Unix(startUnix, 0)
	return status, nil
}

// Close implements the RunStore interface.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// noopRunStore is the disabled run tracker.
type noopRunStore struct{}

var _ contract.RunStore = &noopRunStore{} // Compile-time check

func (*noopRunStore) BeginRun(time.Time, map[string]any) (int64, error) {
	return 0, nil
}

func (*noopRunStore) EndRun(int64, time.Time, int, int, int) error {
	return nil
}

func (*noopRunStore) Status() (schema.RunsStatus, error) {
	return schema.RunsStatus{Backend: schema.NoneBackend}, nil
}

func (*noopRunStore) Close() error {
	return nil
}
