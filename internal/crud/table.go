package crud

import (
	"slices"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
)

// Table describes how one entity maps onto a Postgres table.
type Table[T any, K comparable] struct {
	Name    string
	Key     string
	Columns []string // selected in this order and passed to Scan

	SearchCols  []string
	SortCols    []string
	DefaultSort []string

	Scan   func(row pgx.Row) (T, error)
	Record func(item *T) goqu.Record
	SetKey func(item *T, id K)
}

func (t Table[T, K]) selectCols() []any {
	cols := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = goqu.C(c)
	}
	return cols
}

// sortColumns resolves a requested sort against the safelist, falling back to DefaultSort.
func (t Table[T, K]) sortColumns(sort string) []string {
	if sort != "" && slices.Contains(t.SortCols, sort) {
		return []string{sort}
	}
	if len(t.DefaultSort) > 0 {
		return t.DefaultSort
	}
	return []string{t.Key}
}
