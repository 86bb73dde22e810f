package report

import (
	"strconv"
)

// Table is a rendered report: string cells for text formats plus the typed
// records for JSON.
type Table struct {
	Name    string // File base name and report kind
	Title   string
	Columns []string
	Rows    [][]string
	records any
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// UsersTable renders per-user counts.
func UsersTable(counts []UserCount) *Table {
	t := &Table{
		Name:    KindUsers,
		Title:   "Outcomes per user",
		Columns: []string{"user_id", "name", "type", "successes", "fails", "misses"},
		Rows:    make([][]string, 0, len(counts)),
		records: counts,
	}
	for _, c := range counts {
		t.Rows = append(t.Rows, []string{c.UserID, c.Name, c.Archetype, itoa(c.Successes), itoa(c.Fails), itoa(c.Misses)})
	}
	return t
}

// DatesTable renders per-day counts.
func DatesTable(counts []DateCount) *Table {
	t := &Table{
		Name:    KindDates,
		Title:   "Outcomes per day",
		Columns: []string{"date", "successes", "fails", "misses"},
		Rows:    make([][]string, 0, len(counts)),
		records: counts,
	}
	for _, c := range counts {
		t.Rows = append(t.Rows, []string{c.Date, itoa(c.Successes), itoa(c.Fails), itoa(c.Misses)})
	}
	return t
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
