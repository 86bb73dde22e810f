package query

import (
	"fmt"
	"regexp"
	"strings"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name may be used as a table or column name.
func ValidIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

func checkIdent(kind, name string) error {
	if !ValidIdentifier(name) {
		return fmt.Errorf("%w: %s %q", ErrInvalidIdentifier, kind, name)
	}
	return nil
}

type exprKind int

const (
	kindColumn exprKind = iota
	kindCountIf
	kindCount
	kindDate
)

// Expr is one selected output expression. Only the constructors in this
// package can produce one, so the set of SQL shapes is closed.
type Expr struct {
	kind    exprKind
	column  string
	literal string
	alias   string
}

// Col selects a plain column.
func Col(name string) Expr {
	return Expr{kind: kindColumn, column: name}
}

// CountIf counts rows where column equals literal. The literal is always
// sent as a bound parameter.
func CountIf(column, literal, alias string) Expr {
	return Expr{kind: kindCountIf, column: column, literal: literal, alias: alias}
}

// Count counts all rows in the group.
func Count(alias string) Expr {
	return Expr{kind: kindCount, alias: alias}
}

// Date truncates a timestamp column to its calendar day (YYYY-MM-DD).
func Date(column, alias string) Expr {
	return Expr{kind: kindDate, column: column, alias: alias}
}

// As renames the expression's output column.
func (e Expr) As(alias string) Expr {
	e.alias = alias
	return e
}

// Name is the output column name of the expression.
func (e Expr) Name() string {
	if e.alias != "" {
		return e.alias
	}
	return e.column
}

// Aggregate reports whether the expression folds a group into one value.
func (e Expr) Aggregate() bool {
	return e.kind == kindCountIf || e.kind == kindCount
}

func (e Expr) validate() error {
	switch e.kind {
	case kindColumn:
		if err := checkIdent("column", e.column); err != nil {
			return err
		}
	case kindCountIf, kindDate:
		if err := checkIdent("column", e.column); err != nil {
			return err
		}
		if e.alias == "" {
			return fmt.Errorf("%w: computed expression on %q needs an alias", ErrInvalidSpec, e.column)
		}
	case kindCount:
		if e.alias == "" {
			return fmt.Errorf("%w: COUNT(*) needs an alias", ErrInvalidSpec)
		}
	default:
		return fmt.Errorf("%w: unknown expression kind %d", ErrInvalidSpec, e.kind)
	}
	if e.alias != "" {
		return checkIdent("alias", e.alias)
	}
	return nil
}

// sql renders the expression without its alias, appending bound literals to args.
func (e Expr) sql(d Dialect, args *[]any) string {
	switch e.kind {
	case kindCountIf:
		*args = append(*args, e.literal)
		return fmt.Sprintf("COUNT(CASE WHEN %s = %s THEN 1 END)", d.QuoteIdent(e.column), d.Placeholder(len(*args)))
	case kindCount:
		return "COUNT(*)"
	case kindDate:
		return d.DateExpr(d.QuoteIdent(e.column))
	default:
		return d.QuoteIdent(e.column)
	}
}

// Order sorts the result by one selected output column.
type Order struct {
	Name string
	Desc bool
}

// Asc orders by name ascending.
func Asc(name string) Order { return Order{Name: name} }

// Desc orders by name descending.
func Desc(name string) Order { return Order{Name: name, Desc: true} }

// ParseOrder accepts "name", "name ASC" or "name DESC".
func ParseOrder(s string) (Order, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return Order{}, fmt.Errorf("%w: order %q", ErrInvalidSpec, s)
	}
	o := Order{Name: fields[0]}
	if len(fields) == 2 {
		switch strings.ToUpper(fields[1]) {
		case "ASC":
		case "DESC":
			o.Desc = true
		default:
			return Order{}, fmt.Errorf("%w: order direction %q", ErrInvalidSpec, fields[1])
		}
	}
	if err := checkIdent("order", o.Name); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (o Order) String() string {
	if o.Desc {
		return o.Name + " DESC"
	}
	return o.Name + " ASC"
}

// Filter restricts rows to column = literal.
type Filter struct {
	Column  string
	Literal string
}
