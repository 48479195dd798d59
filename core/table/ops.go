package table

import (
	"fmt"
	"sort"
)

// Select returns a table containing the named columns in the given order.
// Names that do not exist are skipped; selecting nothing that exists yields
// an empty table with zero columns.
func (t *Table) Select(names []string) *Table {
	columns := make([]Column, 0, len(names))
	for _, name := range names {
		if position, ok := t.index[name]; ok {
			columns = append(columns, t.columns[position])
		}
	}
	out, _ := New(columns...)
	return out
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	dropped := make(map[string]bool, len(names))
	for _, name := range names {
		dropped[name] = true
	}

	columns := make([]Column, 0, len(t.columns))
	for _, column := range t.columns {
		if !dropped[column.Name] {
			columns = append(columns, column)
		}
	}
	out, _ := New(columns...)
	return out
}

// Rename returns a table with columns renamed per the mapping. Names absent
// from the mapping are kept. Renaming onto an existing name is an error.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	columns := make([]Column, len(t.columns))
	for position, column := range t.columns {
		renamed := column
		if newName, ok := mapping[column.Name]; ok {
			renamed.Name = newName
		}
		columns[position] = renamed
	}
	return New(columns...)
}

// WithColumn returns a table with the named column replaced, or appended
// when it does not exist. The value slice must match the row count, except
// on a zero-column table where it establishes the row count.
func (t *Table) WithColumn(name string, values []any) (*Table, error) {
	if len(t.columns) > 0 && len(values) != t.rows {
		return nil, fmt.Errorf("column %q has %d values, want %d", name, len(values), t.rows)
	}

	replacement := Col(name, values...)
	columns := make([]Column, len(t.columns))
	copy(columns, t.columns)

	if position, ok := t.index[name]; ok {
		columns[position] = replacement
		return New(columns...)
	}
	return New(append(columns, replacement)...)
}

// FilterRows returns the rows for which keep reports true, preserving order.
func (t *Table) FilterRows(keep func(row int) bool) *Table {
	rows := make([]int, 0, t.rows)
	for row := 0; row < t.rows; row++ {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return t.takeRows(rows)
}

// SortBy returns the table sorted by one column. The sort is stable; absent
// cells always order last regardless of direction.
func (t *Table) SortBy(name string, ascending bool) (*Table, error) {
	column, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("unknown sort column %q", name)
	}

	rows := rangeRows(t.rows)
	sort.SliceStable(rows, func(i, j int) bool {
		a := column.Cell(rows[i])
		b := column.Cell(rows[j])
		// Absent-last holds in both directions.
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		if ascending {
			return compareCells(a, b) < 0
		}
		return compareCells(a, b) > 0
	})
	return t.takeRows(rows), nil
}

// ConcatJoin selects the schema reconciliation mode for Concat.
type ConcatJoin string

const (
	// ConcatOuter unions the column sets; cells missing on one side are absent.
	ConcatOuter ConcatJoin = "outer"

	// ConcatInner intersects the column sets.
	ConcatInner ConcatJoin = "inner"
)

// Concat stacks tables vertically. Column order follows first appearance
// across the inputs (outer) or the first table's order filtered to the
// shared set (inner).
func Concat(tables []*Table, join ConcatJoin) (*Table, error) {
	if len(tables) == 0 {
		return Empty(), nil
	}

	var names []string
	switch join {
	case ConcatInner:
		names = intersectColumns(tables)
	case ConcatOuter, "":
		names = unionColumns(tables)
	default:
		return nil, fmt.Errorf("unknown concat join %q", join)
	}

	totalRows := 0
	for _, t := range tables {
		totalRows += t.NumRows()
	}

	columns := make([]Column, len(names))
	for position, name := range names {
		cells := make([]any, 0, totalRows)
		for _, t := range tables {
			if source, ok := t.Column(name); ok {
				cells = append(cells, source.cells...)
			} else {
				cells = append(cells, make([]any, t.NumRows())...)
			}
		}
		columns[position] = Column{Name: name, Kind: inferKind(cells), cells: cells}
	}
	return New(columns...)
}

func unionColumns(tables []*Table) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, t := range tables {
		for _, name := range t.ColumnNames() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func intersectColumns(tables []*Table) []string {
	names := make([]string, 0)
	for _, name := range tables[0].ColumnNames() {
		shared := true
		for _, t := range tables[1:] {
			if !t.HasColumn(name) {
				shared = false
				break
			}
		}
		if shared {
			names = append(names, name)
		}
	}
	return names
}
