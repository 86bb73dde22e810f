// Package report turns stored training results into per-user and per-day
// outcome counts and exports them.
package report

import (
	"context"
	"fmt"

	"github.com/harrison/phishdrill/internal/config"
	"github.com/harrison/phishdrill/internal/models"
	"github.com/harrison/phishdrill/internal/query"
)

// Report kinds
const (
	KindUsers = "users"
	KindDates = "dates"
)

// Kinds lists every report in the order a run produces them.
func Kinds() []string {
	return []string{KindUsers, KindDates}
}

// UserCount is one user's outcome tally.
type UserCount struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Archetype string `json:"type"`
	Successes int64  `json:"successes"`
	Fails     int64  `json:"fails"`
	Misses    int64  `json:"misses"`
}

// DateCount is the outcome tally of one calendar day.
type DateCount struct {
	Date      string `json:"date"`
	Successes int64  `json:"successes"`
	Fails     int64  `json:"fails"`
	Misses    int64  `json:"misses"`
}

func outcomeCounts() []query.Expr {
	return []query.Expr{
		query.CountIf("outcome", string(models.OutcomeSuccess), "successes"),
		query.CountIf("outcome", string(models.OutcomeFail), "fails"),
		query.CountIf("outcome", string(models.OutcomeMiss), "misses"),
	}
}

// UserCountsSpec counts outcomes per user, most successes first.
func UserCountsSpec(table string) (*query.Spec, error) {
	selects := append([]query.Expr{query.Col("user_id"), query.Col("name"), query.Col("type")}, outcomeCounts()...)
	return query.From(table).
		Select(selects...).
		GroupBy("user_id", "name", "type").
		OrderBy(query.Desc("successes"), query.Asc("user_id")).
		Build()
}

// DateCountsSpec counts outcomes per day of the timestamp column, oldest first.
func DateCountsSpec(table string) (*query.Spec, error) {
	selects := append([]query.Expr{query.Date("timestamp", "date")}, outcomeCounts()...)
	return query.From(table).
		Select(selects...).
		GroupBy("date").
		OrderBy(query.Asc("date")).
		Build()
}

// UserCounts runs the per-user report against exec.
func UserCounts(ctx context.Context, exec query.Executor, table string) ([]UserCount, error) {
	spec, err := UserCountsSpec(table)
	if err != nil {
		return nil, err
	}
	rows, err := query.Run(ctx, exec, spec, config.UserReportColumns)
	if err != nil {
		return nil, fmt.Errorf("users report: %w", err)
	}

	out := make([]UserCount, 0, len(rows))
	for _, r := range rows {
		var uc UserCount
		var err error
		if uc.UserID, err = r.Text("user_id"); err != nil {
			return nil, err
		}
		if uc.Name, err = r.Text("name"); err != nil {
			return nil, err
		}
		if uc.Archetype, err = r.Text("type"); err != nil {
			return nil, err
		}
		if uc.Successes, uc.Fails, uc.Misses, err = readCounts(r); err != nil {
			return nil, err
		}
		out = append(out, uc)
	}
	return out, nil
}

// DateCounts runs the per-day report against exec.
func DateCounts(ctx context.Context, exec query.Executor, table string) ([]DateCount, error) {
	spec, err := DateCountsSpec(table)
	if err != nil {
		return nil, err
	}
	rows, err := query.Run(ctx, exec, spec, config.DateReportColumns)
	if err != nil {
		return nil, fmt.Errorf("dates report: %w", err)
	}

	out := make([]DateCount, 0, len(rows))
	for _, r := range rows {
		var dc DateCount
		var err error
		if dc.Date, err = r.Text("date"); err != nil {
			return nil, err
		}
		if dc.Successes, dc.Fails, dc.Misses, err = readCounts(r); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, nil
}

func readCounts(r query.Row) (successes, fails, misses int64, err error) {
	if successes, err = r.Int("successes"); err != nil {
		return
	}
	if fails, err = r.Int("fails"); err != nil {
		return
	}
	misses, err = r.Int("misses")
	return
}

// Build runs the named report and returns it as a Table.
func Build(ctx context.Context, exec query.Executor, table, kind string) (*Table, error) {
	switch kind {
	case KindUsers:
		counts, err := UserCounts(ctx, exec, table)
		if err != nil {
			return nil, err
		}
		return UsersTable(counts), nil
	case KindDates:
		counts, err := DateCounts(ctx, exec, table)
		if err != nil {
			return nil, err
		}
		return DatesTable(counts), nil
	default:
		return nil, fmt.Errorf("unknown report %q, must be one of: users, dates", kind)
	}
}
