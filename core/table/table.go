package table

import (
	"fmt"
)

// Kind identifies the inferred element kind of a column. Cells inside a
// column may still be absent (nil) regardless of the column kind.
type Kind string

const (
	// KindUnknown is used for empty columns and columns of mixed values.
	KindUnknown Kind = "unknown"

	// KindInt marks whole-number columns.
	KindInt Kind = "integer"

	// KindFloat marks real-number columns.
	KindFloat Kind = "real"

	// KindString marks text columns.
	KindString Kind = "text"

	// KindBool marks boolean columns.
	KindBool Kind = "boolean"

	// KindTime marks timestamp columns.
	KindTime Kind = "timestamp"

	// KindDate marks day-precision timestamp columns. Dates are stored as
	// time.Time values; the kind only affects JSON rendering.
	KindDate Kind = "date"
)

// Column is a named, typed vector of cells. A nil cell is an absent value.
// Cell values are restricted to int64, float64, string, bool, time.Time and
// nil; constructors normalize other numeric widths into these.
type Column struct {
	Name  string
	Kind  Kind
	cells []any
}

// Col builds a column from raw values, normalizing cell representations and
// inferring the column kind from the non-absent cells.
func Col(name string, values ...any) Column {
	cells := make([]any, len(values))
	for i, value := range values {
		cells[i] = normalizeCell(value)
	}
	return Column{Name: name, Kind: inferKind(cells), cells: cells}
}

// TypedCol builds a column with an explicit kind, bypassing inference.
// Values are still normalized.
func TypedCol(name string, kind Kind, values ...any) Column {
	column := Col(name, values...)
	column.Kind = kind
	return column
}

// Len reports the number of cells in the column.
func (c Column) Len() int { return len(c.cells) }

// Cell returns the cell at the given row, or nil when out of range.
func (c Column) Cell(row int) any {
	if row < 0 || row >= len(c.cells) {
		return nil
	}
	return c.cells[row]
}

// Table is an ordered sequence of rows under a labeled, ordered column
// schema. Tables are immutable from the caller's point of view: every
// operation returns a new Table and never mutates its receiver or inputs.
type Table struct {
	columns []Column
	rows    int
	index   map[string]int
}

// New assembles a table from columns. All columns must have equal length and
// unique names.
func New(columns ...Column) (*Table, error) {
	rows := 0
	if len(columns) > 0 {
		rows = columns[0].Len()
	}

	index := make(map[string]int, len(columns))
	for position, column := range columns {
		if column.Len() != rows {
			return nil, fmt.Errorf("column %q has %d cells, want %d", column.Name, column.Len(), rows)
		}
		if _, duplicate := index[column.Name]; duplicate {
			return nil, fmt.Errorf("duplicate column name %q", column.Name)
		}
		index[column.Name] = position
	}

	return &Table{columns: columns, rows: rows, index: index}, nil
}

// MustNew is New for statically known-good schemas, primarily in tests.
func MustNew(columns ...Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

// NumRows reports the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumColumns reports the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// ColumnNames returns the ordered column labels.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, column := range t.columns {
		names[i] = column.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// KindOf returns the element kind of the named column, or KindUnknown when
// the column does not exist.
func (t *Table) KindOf(name string) Kind {
	position, ok := t.index[name]
	if !ok {
		return KindUnknown
	}
	return t.columns[position].Kind
}

// Column returns the named column and whether it exists.
func (t *Table) Column(name string) (Column, bool) {
	position, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[position], true
}

// Cell returns the value at (row, column name), nil when absent or when the
// coordinates do not exist.
func (t *Table) Cell(row int, name string) any {
	position, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.columns[position].Cell(row)
}

// Row materializes one row as a name → value map. Absent cells map to nil.
func (t *Table) Row(row int) map[string]any {
	record := make(map[string]any, len(t.columns))
	for _, column := range t.columns {
		record[column.Name] = column.Cell(row)
	}
	return record
}

// Head returns a table containing at most n leading rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n >= t.rows {
		return t
	}
	return t.takeRows(rangeRows(n))
}

// takeRows builds a new table containing exactly the given row positions,
// in order. Column kinds are preserved.
func (t *Table) takeRows(rows []int) *Table {
	columns := make([]Column, len(t.columns))
	for position, column := range t.columns {
		cells := make([]any, len(rows))
		for i, row := range rows {
			cells[i] = column.cells[row]
		}
		columns[position] = Column{Name: column.Name, Kind: column.Kind, cells: cells}
	}
	out, _ := New(columns...)
	return out
}

func rangeRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
