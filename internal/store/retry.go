package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ReplaceRetry controls how PostgresStore.Replace reacts when its
// transaction loses a serialization conflict or a deadlock.
type ReplaceRetry struct {
	Attempts  int           // Total tries including the first; < 1 means one
	BaseDelay time.Duration // Wait before the second try, doubled after each retry

	// OnRetry is called before each retry with the destination table, the
	// failed attempt number and its error.
	OnRetry func(table string, attempt int, err error)
}

// DefaultReplaceRetry is used when Options.Retry is the zero value.
var DefaultReplaceRetry = ReplaceRetry{Attempts: 4, BaseDelay: 50 * time.Millisecond}

// conflictCode returns the SQLSTATE of a transient transaction conflict,
// or "" for any other error.
func conflictCode(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	switch pgErr.Code {
	case "40001", // serialization_failure
		"40P01": // deadlock_detected
		return pgErr.Code
	}
	return ""
}

// replace runs one replace transaction for table until it commits, fails
// with a non-conflict error, or the attempts are used up.
func (r ReplaceRetry) replace(ctx context.Context, table string, tx func(context.Context) error) error {
	attempts := max(r.Attempts, 1)
	delay := r.BaseDelay

	for attempt := 1; ; attempt++ {
		err := tx(ctx)
		if err == nil || conflictCode(err) == "" {
			return err
		}
		if attempt == attempts {
			return fmt.Errorf("replace %s: gave up after %d attempts: %w", table, attempt, err)
		}
		if r.OnRetry != nil {
			r.OnRetry(table, attempt, err)
		}

		wait := delay
		if delay > 0 {
			wait += time.Duration(rand.Int64N(int64(delay))) //nolint:gosec // jitter only
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("replace %s: %w", table, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}
}
