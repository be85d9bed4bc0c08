package iocache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// DBSnapshotStore persists cache entries as rows in a SQL database. A meta
// table carries the ruleset fingerprint and last persist time, so one
// database can be shared by runs against the same ruleset.
type DBSnapshotStore struct {
	db      *sql.DB
	backend schema.CacheBackend
}

var _ contract.CacheStore = &DBSnapshotStore{} // Compile-time check

// openDB opens a connection for the given backend. For SQLite, connStr may
// be empty, in which case dbFilePath is used.
func openDB(backend schema.CacheBackend, connStr, dbFilePath string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = dbFilePath
		}
		db, err = sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store at %q: %w. Ensure the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		db, err = sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=mysecretpassword dbname=postgres
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	default:
		return nil, fmt.Errorf("unsupported database backend: %s", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}
	return db, nil
}

// NewDBSnapshotStore initializes a SQL-backed cache store and creates its
// tables when missing.
func NewDBSnapshotStore(backend schema.CacheBackend, connStr, dbFilePath string) (*DBSnapshotStore, error) {
	db, err := openDB(backend, connStr, dbFilePath)
	if err != nil {
		return nil, err
	}

	store := &DBSnapshotStore{db: db, backend: backend}
	for _, query := range store.createTableQueries() {
		if _, err := db.Exec(query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create cache tables: %w", err)
		}
	}
	return store, nil
}

func (s *DBSnapshotStore) createTableQueries() []string {
	var blob string
	switch s.backend {
	case schema.MySQLBackend:
		blob = "BLOB"
	case schema.PostgreSQLBackend:
		blob = "BYTEA"
	default: // SQLite
		blob = "BLOB"
	}
	keyType := "TEXT"
	if s.backend == schema.MySQLBackend {
		// MySQL cannot index an unbounded TEXT primary key.
		keyType = "VARCHAR(64)"
	}
	return []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				fingerprint %s PRIMARY KEY,
				violations INTEGER NOT NULL,
				rules %s NOT NULL
			);
		`, cacheTable, keyType, blob),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s_meta (
				meta_key %s PRIMARY KEY,
				meta_value %s NOT NULL
			);
		`, cacheTable, keyType, blob),
	}
}

// placeholder returns the parameter placeholder for the backend.
func (s *DBSnapshotStore) placeholder(n int) string {
	if s.backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// upsertQuery returns the two-column UPSERT for the backend.
func (s *DBSnapshotStore) upsertQuery(table, keyCol string, valueCols ...string) string {
	cols := append([]string{keyCol}, valueCols...)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = s.placeholder(i + 1)
	}

	switch s.backend {
	case schema.MySQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new ON DUPLICATE KEY UPDATE `,
			table, joinCols(cols), joinCols(placeholders))
		for i, col := range valueCols {
			if i > 0 {
				query += ", "
			}
			query += fmt.Sprintf("%s = new.%s", col, col)
		}
		return query

	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET `,
			table, joinCols(cols), joinCols(placeholders), keyCol)
		for i, col := range valueCols {
			if i > 0 {
				query += ", "
			}
			query += fmt.Sprintf("%s = EXCLUDED.%s", col, col)
		}
		return query

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (%s)`,
			table, joinCols(cols), joinCols(placeholders))
	}
}

func joinCols(cols []string) string {
	out := ""
	for i, col := range cols {
		if i > 0 {
			out += ", "
		}
		out += col
	}
	return out
}

// Load implements the CacheStore interface.
func (s *DBSnapshotStore) Load() (*schema.CacheSnapshot, error) {
	snapshot := &schema.CacheSnapshot{Entries: make(map[string]schema.CacheEntry)}

	query := fmt.Sprintf(`SELECT meta_value FROM %s_meta WHERE meta_key = %s`, cacheTable, s.placeholder(1))
	var fp []byte
	err := s.db.QueryRow(query, "ruleset_fingerprint").Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // empty store, cold start
	}
	if err != nil {
		return nil, fmt.Errorf("read cache meta: %w", err)
	}
	snapshot.RulesetFingerprint = string(fp)

	rows, err := s.db.Query(fmt.Sprintf(`SELECT fingerprint, violations, rules FROM %s`, cacheTable))
	if err != nil {
		return nil, fmt.Errorf("read cache entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var fingerprint string
		var violations int
		var rulesRaw []byte
		if err := rows.Scan(&fingerprint, &violations, &rulesRaw); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		entry := schema.CacheEntry{Violations: violations}
		if len(rulesRaw) > 0 {
			if err := json.Unmarshal(rulesRaw, &entry.Rules); err != nil {
				return nil, fmt.Errorf("decode rules for %s: %w", fingerprint, err)
			}
		}
		snapshot.Entries[fingerprint] = entry
	}
	return snapshot, rows.Err()
}

// Persist implements the CacheStore interface. All rows go in one
// transaction so a crash never leaves a half-written snapshot.
func (s *DBSnapshotStore) Persist(snapshot *schema.CacheSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin cache persist: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	metaUpsert := s.upsertQuery(cacheTable+"_meta", "meta_key", "meta_value")
	if _, err := tx.Exec(metaUpsert, "ruleset_fingerprint", []byte(snapshot.RulesetFingerprint)); err != nil {
		return fmt.Errorf("persist cache meta: %w", err)
	}
	savedAt := snapshot.SavedAt.UTC().Format(time.RFC3339)
	if _, err := tx.Exec(metaUpsert, "saved_at", []byte(savedAt)); err != nil {
		return fmt.Errorf("persist cache meta: %w", err)
	}

	entryUpsert := s.upsertQuery(cacheTable, "fingerprint", "violations", "rules")
	for fingerprint, entry := range snapshot.Entries {
		rulesRaw, err := json.Marshal(entry.Rules)
		if err != nil {
			return fmt.Errorf("encode rules for %s: %w", fingerprint, err)
		}
		if _, err := tx.Exec(entryUpsert, fingerprint, entry.Violations, rulesRaw); err != nil {
			return fmt.Errorf("persist cache entry: %w", err)
		}
	}
	return tx.Commit()
}

// Status implements the CacheStore interface.
func (s *DBSnapshotStore) Status() (schema.CacheStatus, error) {
	status := schema.CacheStatus{
		Backend:   s.backend,
		Connected: s.db != nil,
	}
	if s.db == nil {
		return status, nil
	}

	row := s.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, cacheTable))
	if err := row.Scan(&status.TotalEntries); err != nil {
		return status, fmt.Errorf("failed to get total entries: %w", err)
	}

	query := fmt.Sprintf(`SELECT meta_value FROM %s_meta WHERE meta_key = %s`, cacheTable, s.placeholder(1))
	var savedRaw []byte
	err := s.db.QueryRow(query, "saved_at").Scan(&savedRaw)
	if err == nil {
		if ts, parseErr := time.Parse(time.RFC3339, string(savedRaw)); parseErr == nil {
			status.LastPersist = ts
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return status, fmt.Errorf("failed to get last persist time: %w", err)
	}
	return status, nil
}

// Clear implements the CacheStore interface.
func (s *DBSnapshotStore) Clear() error {
	for _, table := range []string{cacheTable, cacheTable + "_meta"} {
		if _, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Close implements the CacheStore interface.
func (s *DBSnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
