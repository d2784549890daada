package schema

import (
	"fmt"

	dumperrors "github.com/hurou927/db-dump/internal/errors"
)

// Column represents a table column.
type Column struct {
	Name     string
	Type     StorageType
	Nullable bool
	Identity bool
	OrdPos   int // ordinal position (1-based)
}

// Relation records that a child table carries a foreign key column pointing at a
// parent table.
type Relation struct {
	Child  string
	Column string
	Parent string
}

// Table is a named batch of rows sharing one column layout. Rows are replaced on
// every flush while the columns persist.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any

	// Layout is the cached model layout the table was built from, nil for tables
	// assembled by hand.
	Layout *Layout
}

// NewTable creates an empty table with the given columns.
func NewTable(name string, columns ...Column) *Table {
	t := &Table{Name: name}
	for _, c := range columns {
		t.AddColumn(c)
	}
	return t
}

// ColumnNames returns all column names in ordinal order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// AddColumn appends a column and back-fills existing rows with nil. It returns the
// index of the column; an existing column with the same name is reused.
func (t *Table) AddColumn(c Column) int {
	if i := t.ColumnIndex(c.Name); i >= 0 {
		return i
	}
	c.OrdPos = len(t.Columns) + 1
	t.Columns = append(t.Columns, c)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], nil)
	}
	return len(t.Columns) - 1
}

// AddRow appends one row of values in column order.
func (t *Table) AddRow(values ...any) error {
	if len(values) != len(t.Columns) {
		return &dumperrors.ArgumentError{
			Name:    "values",
			Message: fmt.Sprintf("table %s has %d columns, got %d values", t.Name, len(t.Columns), len(values)),
		}
	}
	t.Rows = append(t.Rows, values)
	return nil
}

// Len returns the number of buffered rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Reset starts a new row buffer. Slices handed out before the call stay intact.
func (t *Table) Reset() {
	t.Rows = nil
}

// WithName returns a copy of the table's schema under another name, without rows.
func (t *Table) WithName(name string) *Table {
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	return &Table{Name: name, Columns: cols, Layout: t.Layout}
}

// TableSet is an ordered group of tables materialized from one source.
type TableSet struct {
	Tables    []*Table
	Relations []Relation
}

// Lookup returns the table with the given name, or nil.
func (s *TableSet) Lookup(name string) *Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Add appends a table to the set.
func (s *TableSet) Add(t *Table) {
	s.Tables = append(s.Tables, t)
}

// RowCount returns the number of buffered rows across all tables.
func (s *TableSet) RowCount() int {
	n := 0
	for _, t := range s.Tables {
		n += len(t.Rows)
	}
	return n
}

// Reset clears the row buffers of every table.
func (s *TableSet) Reset() {
	for _, t := range s.Tables {
		t.Reset()
	}
}
