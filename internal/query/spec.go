// Package query compiles a small declarative aggregation specification into
// a parameterized SQL query, runs it through an Executor, and maps the result
// back onto the caller's requested output columns.
//
// Identifiers are whitelisted and quoted by the Dialect; literals only ever
// travel as bound parameters. Grouping mistakes are reported when the
// specification is built, before anything reaches the database.
package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentifier is returned for a table, column or alias name that
	// is not a plain identifier.
	ErrInvalidIdentifier = errors.New("query: invalid identifier")

	// ErrInvalidSpec is returned for a structurally malformed specification.
	ErrInvalidSpec = errors.New("query: invalid specification")

	// ErrGrouping is returned when a selected expression is neither
	// aggregated nor listed in the group-by clause.
	ErrGrouping = errors.New("query: expression must be aggregated or grouped")

	// ErrUnknownColumn is returned when a caller requests an output column
	// the specification does not produce.
	ErrUnknownColumn = errors.New("query: unknown output column")
)

// Spec is an immutable, validated aggregation specification.
type Spec struct {
	source  string
	selects []Expr
	filters []Filter
	groupBy []string
	orderBy []Order
}

// Builder accumulates a specification. Build validates it.
type Builder struct {
	spec Spec
}

// From starts a specification over the named table.
func From(source string) *Builder {
	return &Builder{spec: Spec{source: source}}
}

// Select appends output expressions.
func (b *Builder) Select(exprs ...Expr) *Builder {
	b.spec.selects = append(b.spec.selects, exprs...)
	return b
}

// Where appends an equality filter.
func (b *Builder) Where(column, literal string) *Builder {
	b.spec.filters = append(b.spec.filters, Filter{Column: column, Literal: literal})
	return b
}

// GroupBy appends grouping keys. A key is either a selected output name or a
// source column.
func (b *Builder) GroupBy(keys ...string) *Builder {
	b.spec.groupBy = append(b.spec.groupBy, keys...)
	return b
}

// OrderBy appends sort keys; each must name a selected output column.
func (b *Builder) OrderBy(orders ...Order) *Builder {
	b.spec.orderBy = append(b.spec.orderBy, orders...)
	return b
}

// Build validates and freezes the specification.
func (b *Builder) Build() (*Spec, error) {
	s := &Spec{
		source:  b.spec.source,
		selects: append([]Expr(nil), b.spec.selects...),
		filters: append([]Filter(nil), b.spec.filters...),
		groupBy: append([]string(nil), b.spec.groupBy...),
		orderBy: append([]Order(nil), b.spec.orderBy...),
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Spec) validate() error {
	if err := checkIdent("table", s.source); err != nil {
		return err
	}
	if len(s.selects) == 0 {
		return fmt.Errorf("%w: no selected expressions", ErrInvalidSpec)
	}

	outputs := make(map[string]Expr, len(s.selects))
	hasAggregate := false
	for _, e := range s.selects {
		if err := e.validate(); err != nil {
			return err
		}
		if _, dup := outputs[e.Name()]; dup {
			return fmt.Errorf("%w: duplicate output column %q", ErrInvalidSpec, e.Name())
		}
		outputs[e.Name()] = e
		hasAggregate = hasAggregate || e.Aggregate()
	}

	for _, f := range s.filters {
		if err := checkIdent("filter column", f.Column); err != nil {
			return err
		}
	}

	grouped := make(map[string]bool, len(s.groupBy))
	for _, key := range s.groupBy {
		if err := checkIdent("group key", key); err != nil {
			return err
		}
		if e, ok := outputs[key]; ok && e.Aggregate() {
			return fmt.Errorf("%w: cannot group by aggregate %q", ErrInvalidSpec, key)
		}
		grouped[key] = true
	}

	if hasAggregate || len(s.groupBy) > 0 {
		for _, e := range s.selects {
			if e.Aggregate() {
				continue
			}
			if grouped[e.Name()] || (e.kind == kindColumn && grouped[e.column]) {
				continue
			}
			return fmt.Errorf("%w: %q", ErrGrouping, e.Name())
		}
	}

	for _, o := range s.orderBy {
		if _, ok := outputs[o.Name]; !ok {
			return fmt.Errorf("%w: order by %q is not a selected column", ErrInvalidSpec, o.Name)
		}
	}
	return nil
}

// Source returns the table the specification reads.
func (s *Spec) Source() string { return s.source }

// Outputs returns the output column names in select order.
func (s *Spec) Outputs() []string {
	names := make([]string, len(s.selects))
	for i, e := range s.selects {
		names[i] = e.Name()
	}
	return names
}

// GroupKeys returns the group-by keys.
func (s *Spec) GroupKeys() []string { return append([]string(nil), s.groupBy...) }

// Orders returns the order-by keys.
func (s *Spec) Orders() []Order { return append([]Order(nil), s.orderBy...) }

func (s *Spec) output(name string) (Expr, bool) {
	for _, e := range s.selects {
		if e.Name() == name {
			return e, true
		}
	}
	return Expr{}, false
}
