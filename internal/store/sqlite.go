package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/phishdrill/internal/models"
	"github.com/harrison/phishdrill/internal/query"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps results in an embedded SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// applies metadata migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite store: database path is required")
	}
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// execWithRetry retries a statement with exponential backoff while the
// database is locked by another connection.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Dialect implements query.Executor.
func (s *SQLiteStore) Dialect() query.Dialect {
	return query.SQLite
}

// Replace drops and recreates table and inserts results, all in one
// transaction.
func (s *SQLiteStore) Replace(ctx context.Context, table string, results models.ResultSet) error {
	if err := checkTable(table); err != nil {
		return err
	}
	d := query.SQLite
	qt := d.QuoteIdent(table)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+qt); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, resultTableDDL(d, table, "TEXT")); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	cols := make([]string, len(models.ResultColumns))
	for i, c := range models.ResultColumns {
		cols[i] = d.QuoteIdent(c)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?)", qt, strings.Join(cols, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", table, err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.ExecContext(ctx, r.Values()...); err != nil {
			return fmt.Errorf("insert record %d into %s: %w", i, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace of %s: %w", table, err)
	}
	return nil
}

// resultTableDDL returns the CREATE TABLE statement for a result table.
func resultTableDDL(d query.Dialect, table, textType string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
    %s %s NOT NULL,
    %s %s NOT NULL,
    %s %s NOT NULL,
    %s %s NOT NULL,
    %s %s NOT NULL CHECK (%s IN ('SUCCESS', 'FAIL', 'MISS'))
)`,
		d.QuoteIdent(table),
		d.QuoteIdent("timestamp"), textType,
		d.QuoteIdent("user_id"), textType,
		d.QuoteIdent("type"), textType,
		d.QuoteIdent("name"), textType,
		d.QuoteIdent("outcome"), textType, d.QuoteIdent("outcome"),
	)
}

// Query implements query.Executor.
func (s *SQLiteStore) Query(ctx context.Context, sqlText string, args ...any) (*query.Table, error) {
	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	table := &query.Table{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return table, nil
}

// RecordRun stores run metadata and sets run.ID.
func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO simulation_runs (table_name, seed, users, trials, interval_days, records, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Table, int64(run.Seed), run.Users, run.Trials, run.IntervalDays, run.Records, run.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert simulation run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	run.ID = id
	return nil
}

// Runs returns the most recent runs first. limit <= 0 returns all.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]*Run, error) {
	q := `SELECT id, table_name, seed, users, trials, interval_days, records, started_at, created_at
		FROM simulation_runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query simulation runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var seed int64
		if err := rows.Scan(&r.ID, &r.Table, &seed, &r.Users, &r.Trials, &r.IntervalDays, &r.Records, &r.StartedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan simulation run: %w", err)
		}
		r.Seed = uint64(seed)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulation runs: %w", err)
	}
	return runs, nil
}

// tableExists checks if a table exists in the database
func (s *SQLiteStore) tableExists(name string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table existence: %w", err)
	}
	return count > 0, nil
}
