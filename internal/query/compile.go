package query

import (
	"fmt"
	"strings"
)

// Dialect renders the database-specific parts of a query.
type Dialect interface {
	Name() string
	QuoteIdent(name string) string
	Placeholder(n int) string // n is the 1-based parameter position
	DateExpr(quotedColumn string) string
}

// SQLite is the dialect for SQLite databases.
var SQLite Dialect = sqliteDialect{}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

// QuoteIdent uses backticks: SQLite reads a double-quoted name that matches
// no column as a string literal, a backticked one never.
func (sqliteDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) DateExpr(col string) string {
	return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", col)
}

// Compiled is an executable query with its bound arguments.
type Compiled struct {
	SQL     string
	Args    []any
	Columns []string // output column names in select order
}

// Compile renders spec for dialect d.
func Compile(spec *Spec, d Dialect) (Compiled, error) {
	if spec == nil {
		return Compiled{}, fmt.Errorf("%w: nil specification", ErrInvalidSpec)
	}
	if d == nil {
		return Compiled{}, fmt.Errorf("%w: nil dialect", ErrInvalidSpec)
	}

	var args []any
	var b strings.Builder

	selects := make([]string, len(spec.selects))
	for i, e := range spec.selects {
		rendered := e.sql(d, &args)
		if e.alias != "" {
			rendered += " AS " + d.QuoteIdent(e.alias)
		}
		selects[i] = rendered
	}
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selects, ", "))
	b.WriteString("\nFROM ")
	b.WriteString(d.QuoteIdent(spec.source))

	if len(spec.filters) > 0 {
		conds := make([]string, len(spec.filters))
		for i, f := range spec.filters {
			args = append(args, f.Literal)
			conds[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(f.Column), d.Placeholder(len(args)))
		}
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if len(spec.groupBy) > 0 {
		keys := make([]string, len(spec.groupBy))
		for i, key := range spec.groupBy {
			// group on the underlying expression so an alias never shadows a column
			if e, ok := spec.output(key); ok {
				keys[i] = e.sql(d, &args)
			} else {
				keys[i] = d.QuoteIdent(key)
			}
		}
		b.WriteString("\nGROUP BY ")
		b.WriteString(strings.Join(keys, ", "))
	}

	if len(spec.orderBy) > 0 {
		orders := make([]string, len(spec.orderBy))
		for i, o := range spec.orderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			orders[i] = d.QuoteIdent(o.Name) + " " + dir
		}
		b.WriteString("\nORDER BY ")
		b.WriteString(strings.Join(orders, ", "))
	}

	return Compiled{SQL: b.String(), Args: args, Columns: spec.Outputs()}, nil
}
