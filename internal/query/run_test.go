package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor returns a canned table and records the last query.
type fakeExecutor struct {
	table   *Table
	err     error
	sql     string
	args    []any
	queries int
}

func (f *fakeExecutor) Dialect() Dialect { return SQLite }

func (f *fakeExecutor) Query(ctx context.Context, sql string, args ...any) (*Table, error) {
	f.queries++
	f.sql = sql
	f.args = args
	return f.table, f.err
}

func TestRun_MapsRequestedColumnsInOrder(t *testing.T) {
	exec := &fakeExecutor{table: &Table{
		Columns: []string{"user_id", "successes", "fails", "misses"},
		Rows: [][]any{
			{[]byte("A"), int64(2), int64(1), int64(0)},
			{"B", int64(0), int64(1), int64(1)},
		},
	}}
	spec, err := userCountsBuilder().Build()
	require.NoError(t, err)

	rows, err := Run(context.Background(), exec, spec, []string{"misses", "user_id"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"misses", "user_id"}, rows[0].Columns())
	assert.Equal(t, []any{int64(0), "A"}, rows[0].Values())
	assert.Equal(t, map[string]any{"misses": int64(1), "user_id": "B"}, rows[1].Map())

	id, err := rows[0].Text("user_id")
	require.NoError(t, err)
	assert.Equal(t, "A", id)
	n, err := rows[1].Int("misses")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, []any{"SUCCESS", "FAIL", "MISS"}, exec.args)
}

func TestRun_DefaultsToAllOutputs(t *testing.T) {
	exec := &fakeExecutor{table: &Table{
		Columns: []string{"user_id", "successes", "fails", "misses"},
		Rows:    [][]any{{"A", int64(1), int64(0), int64(0)}},
	}}
	spec, err := userCountsBuilder().Build()
	require.NoError(t, err)

	rows, err := Run(context.Background(), exec, spec, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, spec.Outputs(), rows[0].Columns())
}

func TestRun_EmptyResultIsEmptySlice(t *testing.T) {
	exec := &fakeExecutor{table: &Table{Columns: []string{"user_id", "successes", "fails", "misses"}}}
	spec, err := userCountsBuilder().Build()
	require.NoError(t, err)

	rows, err := Run(context.Background(), exec, spec, nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestRun_UnknownColumnFailsBeforeExecution(t *testing.T) {
	exec := &fakeExecutor{table: &Table{}}
	spec, err := userCountsBuilder().Build()
	require.NoError(t, err)

	_, err = Run(context.Background(), exec, spec, []string{"user_id", "password"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownColumn)
	assert.Zero(t, exec.queries)
}

func TestRun_ColumnMissingFromResult(t *testing.T) {
	exec := &fakeExecutor{table: &Table{Columns: []string{"user_id"}, Rows: [][]any{{"A"}}}}
	spec, err := userCountsBuilder().Build()
	require.NoError(t, err)

	_, err = Run(context.Background(), exec, spec, []string{"successes"})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestRun_ExecutorErrorSurfaces(t *testing.T) {
	boom := errors.New("disk I/O error")
	exec := &fakeExecutor{err: boom}
	spec, err := userCountsBuilder().Build()
	require.NoError(t, err)

	_, err = Run(context.Background(), exec, spec, nil)
	assert.ErrorIs(t, err, boom)
}

func TestRow_Conversions(t *testing.T) {
	row := NewRow([]string{"a", "b", "c", "d"}, "12", float64(3), nil, []byte("txt"))

	n, err := row.Int("a")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	n, err = row.Int("b")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = row.Int("c")
	require.NoError(t, err)
	assert.Zero(t, n)

	s, err := row.Text("d")
	require.NoError(t, err)
	assert.Equal(t, "txt", s)

	_, err = row.Int("d")
	assert.Error(t, err)

	_, err = row.Text("zzz")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}
