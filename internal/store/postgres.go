package store

import (
	"context"
	"fmt"

	"github.com/harrison/phishdrill/internal/models"
	"github.com/harrison/phishdrill/internal/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres renders identifiers and placeholders for PostgreSQL.
var Postgres query.Dialect = postgresDialect{}

type postgresDialect struct{}

func (postgresDialect) Name() string { return DriverPostgres }

func (postgresDialect) QuoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) DateExpr(col string) string {
	return fmt.Sprintf("to_char(CAST(%s AS timestamp), 'YYYY-MM-DD')", col)
}

const postgresRunsDDL = `
CREATE TABLE IF NOT EXISTS simulation_runs (
    id BIGSERIAL PRIMARY KEY,
    table_name TEXT NOT NULL,
    seed BIGINT NOT NULL,
    users INTEGER NOT NULL,
    trials INTEGER NOT NULL,
    interval_days INTEGER NOT NULL,
    records INTEGER NOT NULL,
    started_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps results in a PostgreSQL database.
type PostgresStore struct {
	pool  *pgxpool.Pool
	retry ReplaceRetry
}

// NewPostgresStore connects to dsn and ensures the run metadata table exists.
// Replace uses DefaultReplaceRetry unless SetReplaceRetry is called.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store: dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresRunsDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create simulation_runs: %w", err)
	}
	return &PostgresStore{pool: pool, retry: DefaultReplaceRetry}, nil
}

// SetReplaceRetry changes how Replace handles transaction conflicts.
func (s *PostgresStore) SetReplaceRetry(r ReplaceRetry) {
	s.retry = r
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Dialect implements query.Executor.
func (s *PostgresStore) Dialect() query.Dialect {
	return Postgres
}

// Replace drops and recreates table, then bulk-loads results with COPY.
// DDL is transactional in PostgreSQL, so readers see either the old table or
// the new one.
func (s *PostgresStore) Replace(ctx context.Context, table string, results models.ResultSet) error {
	if err := checkTable(table); err != nil {
		return err
	}
	rows := make([][]any, len(results))
	for i, r := range results {
		rows[i] = r.Values()
	}

	return s.retry.replace(ctx, table, func(ctx context.Context) error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin replace transaction: %w", err)
		}
		defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+Postgres.QuoteIdent(table)); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
		if _, err := tx.Exec(ctx, resultTableDDL(Postgres, table, "TEXT")); err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, models.ResultColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy into %s: %w", table, err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy into %s: wrote %d of %d records", table, n, len(rows))
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit replace of %s: %w", table, err)
		}
		return nil
	})
}

// Query implements query.Executor.
func (s *PostgresStore) Query(ctx context.Context, sql string, args ...any) (*query.Table, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	table := &query.Table{Columns: make([]string, len(fields))}
	for i, f := range fields {
		table.Columns[i] = f.Name
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return table, nil
}

// RecordRun stores run metadata and sets run.ID and run.CreatedAt.
func (s *PostgresStore) RecordRun(ctx context.Context, run *Run) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO simulation_runs (table_name, seed, users, trials, interval_days, records, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		run.Table, int64(run.Seed), run.Users, run.Trials, run.IntervalDays, run.Records, run.StartedAt,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert simulation run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs first. limit <= 0 returns all.
func (s *PostgresStore) Runs(ctx context.Context, limit int) ([]*Run, error) {
	q := `SELECT id, table_name, seed, users, trials, interval_days, records, started_at, created_at
		FROM simulation_runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
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
