package repository

import (
	"sort"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// Filter collects the optional WHERE clauses of a list query. Empty values are
// skipped, so handlers can pass query parameters through without checking them.
type Filter struct {
	equal  map[string]interface{}
	bounds []timeBound
}

type timeBound struct {
	column string
	lower  bool
	at     time.Time
}

func NewFilter() *Filter {
	return &Filter{equal: make(map[string]interface{})}
}

// Equal requires column to equal value. Nil and "" leave the column unfiltered.
func (f *Filter) Equal(column string, value interface{}) *Filter {
	switch v := value.(type) {
	case nil:
		return f
	case string:
		if v == "" {
			return f
		}
	}
	f.equal[column] = value
	return f
}

// Since keeps rows whose column is at or after t.
func (f *Filter) Since(column string, t time.Time) *Filter {
	if !t.IsZero() {
		f.bounds = append(f.bounds, timeBound{column: column, lower: true, at: t})
	}
	return f
}

// Until keeps rows whose column is strictly before t.
func (f *Filter) Until(column string, t time.Time) *Filter {
	if !t.IsZero() {
		f.bounds = append(f.bounds, timeBound{column: column, at: t})
	}
	return f
}

func (f *Filter) Value(column string) (interface{}, bool) {
	v, ok := f.equal[column]
	return v, ok
}

// Expressions renders the filter with every column qualified by alias. Equality
// clauses come first in column order, then bounds in the order they were added.
func (f *Filter) Expressions(alias string) []exp.Expression {
	columns := make([]string, 0, len(f.equal))
	for column := range f.equal {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	exprs := make([]exp.Expression, 0, len(columns)+len(f.bounds))
	for _, column := range columns {
		exprs = append(exprs, qualify(alias, column).Eq(f.equal[column]))
	}
	for _, b := range f.bounds {
		if b.lower {
			exprs = append(exprs, qualify(alias, b.column).Gte(b.at))
		} else {
			exprs = append(exprs, qualify(alias, b.column).Lt(b.at))
		}
	}
	return exprs
}

func qualify(alias, column string) exp.IdentifierExpression {
	if alias == "" {
		return goqu.C(column)
	}
	return goqu.T(alias).Col(column)
}
