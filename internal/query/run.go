package query

import (
	"context"
	"fmt"
	"strconv"
)

// Table is a tabular query result as returned by an Executor.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Executor runs compiled SQL against a store.
type Executor interface {
	Dialect() Dialect
	Query(ctx context.Context, sql string, args ...any) (*Table, error)
}

// Run compiles spec for the executor's dialect, executes it and maps every
// result row onto columns. An empty columns slice selects every output in
// select order. Requested columns are checked before the query runs.
func Run(ctx context.Context, exec Executor, spec *Spec, columns []string) ([]Row, error) {
	if exec == nil {
		return nil, fmt.Errorf("query: nil executor")
	}
	if spec == nil {
		return nil, fmt.Errorf("%w: nil specification", ErrInvalidSpec)
	}
	if len(columns) == 0 {
		columns = spec.Outputs()
	}
	for _, c := range columns {
		if _, ok := spec.output(c); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}

	compiled, err := Compile(spec, exec.Dialect())
	if err != nil {
		return nil, err
	}

	table, err := exec.Query(ctx, compiled.SQL, compiled.Args...)
	if err != nil {
		return nil, fmt.Errorf("execute query on %s: %w", spec.Source(), err)
	}

	index := make(map[string]int, len(table.Columns))
	for i, c := range table.Columns {
		index[c] = i
	}
	positions := make([]int, len(columns))
	for i, c := range columns {
		pos, ok := index[c]
		if !ok {
			return nil, fmt.Errorf("%w: %q missing from result", ErrUnknownColumn, c)
		}
		positions[i] = pos
	}

	rows := make([]Row, 0, len(table.Rows))
	for _, raw := range table.Rows {
		values := make(map[string]any, len(columns))
		for i, c := range columns {
			values[c] = normalize(raw[positions[i]])
		}
		rows = append(rows, Row{columns: columns, values: values})
	}
	return rows, nil
}

// Row maps requested output column names to values.
type Row struct {
	columns []string
	values  map[string]any
}

// NewRow builds a row; values are matched to columns by position.
func NewRow(columns []string, values ...any) Row {
	m := make(map[string]any, len(columns))
	for i, c := range columns {
		if i < len(values) {
			m[c] = normalize(values[i])
		}
	}
	return Row{columns: columns, values: m}
}

// Columns returns the column names in requested order.
func (r Row) Columns() []string { return append([]string(nil), r.columns...) }

// Get returns the value for a column.
func (r Row) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Values returns the values in requested column order.
func (r Row) Values() []any {
	out := make([]any, len(r.columns))
	for i, c := range r.columns {
		out[i] = r.values[c]
	}
	return out
}

// Map returns a copy of the column to value mapping.
func (r Row) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Text returns a column as a string.
func (r Row) Text(name string) (string, error) {
	v, ok := r.values[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		return fmt.Sprint(t), nil
	}
}

// Int returns a column as an integer.
func (r Row) Int(name string) (int64, error) {
	v, ok := r.values[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", name, err)
		}
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("column %q: cannot convert %T to int", name, v)
	}
}

// normalize turns driver byte slices into strings.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
