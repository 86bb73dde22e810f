// Package store persists simulation results and executes report queries.
//
// Two backends are provided: an embedded SQLite file (the default) and a
// PostgreSQL server. Both replace a destination table inside one
// transaction, so a failed write leaves the previous contents visible.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrison/phishdrill/internal/models"
	"github.com/harrison/phishdrill/internal/query"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrInvalidTable is returned for a destination name that is not a plain
	// identifier or that collides with the store's own metadata tables.
	ErrInvalidTable = errors.New("store: invalid table name")

	// ErrUnknownDriver is returned by Open for an unsupported driver.
	ErrUnknownDriver = errors.New("store: unknown driver")
)

// Sink accepts a result set and replaces the destination table with it.
type Sink interface {
	Replace(ctx context.Context, table string, results models.ResultSet) error
}

// Store is a Sink that can also answer report queries and keep run metadata.
type Store interface {
	Sink
	query.Executor
	RecordRun(ctx context.Context, run *Run) error
	Runs(ctx context.Context, limit int) ([]*Run, error)
	Close() error
}

// Run is the metadata of one persisted simulation.
type Run struct {
	ID           int64
	Table        string
	Seed         uint64
	Users        int
	Trials       int
	IntervalDays int
	Records      int
	StartedAt    time.Time // Time of trial 0
	CreatedAt    time.Time
}

// Options selects and configures a backend.
type Options struct {
	Driver string
	DBPath string // SQLite file, or ":memory:"
	DSN    string // PostgreSQL connection string

	// Retry applies to PostgreSQL Replace; the zero value means
	// DefaultReplaceRetry.
	Retry ReplaceRetry
}

// Open connects to the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		return NewSQLiteStore(opts.DBPath)
	case DriverPostgres:
		s, err := NewPostgresStore(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		if opts.Retry.Attempts > 0 {
			s.SetReplaceRetry(opts.Retry)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

var reservedTables = map[string]bool{
	"schema_version":  true,
	"simulation_runs": true,
}

func checkTable(table string) error {
	if !query.ValidIdentifier(table) || reservedTables[table] {
		return fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return nil
}
