// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package table holds bibliographic records as an in-memory table of text
// cells and moves tables to and from delimited files.
//
// Every cell is a string. Years, volumes, and issues are never parsed as
// numbers: source exports format them inconsistently ("2021", "2021a",
// "12-13") and keeping text avoids silent coercion.
package table

import (
	"fmt"
	"slices"

	"github.com/pdiddy/bibmerge/pkg/types"
)

// Table is an ordered list of rows sharing one header. Every row has exactly
// len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Append adds a row. The row must have one cell per column.
func (t *Table) Append(row ...string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("%w: row has %d cells, table has %d columns",
			types.ErrShapeMismatch, len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, slices.Clone(row))
	return nil
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	return slices.Index(t.Columns, name)
}

// Column returns every value of column name in row order.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: no column %q", types.ErrShapeMismatch, name)
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Get returns the value of column name in row i, or "" when the column does
// not exist.
func (t *Table) Get(i int, name string) string {
	idx := t.Index(name)
	if idx < 0 {
		return ""
	}
	return t.Rows[i][idx]
}

// SameShape reports whether both tables have identical column names in the
// same order.
func (t *Table) SameShape(other *Table) bool {
	return slices.Equal(t.Columns, other.Columns)
}

// Project returns a new table holding only the named columns, in the given
// order. A missing column yields ErrSchemaMismatch naming it.
func Project(t *Table, names []string) (*Table, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		j := t.Index(name)
		if j < 0 {
			return nil, fmt.Errorf("%w: column %q not found", types.ErrSchemaMismatch, name)
		}
		idx[i] = j
	}

	out := &Table{
		Columns: slices.Clone(names),
		Rows:    make([][]string, len(t.Rows)),
	}
	for r, row := range t.Rows {
		projected := make([]string, len(idx))
		for i, j := range idx {
			projected[i] = row[j]
		}
		out.Rows[r] = projected
	}
	return out, nil
}

// Rename returns a table whose columns are renamed through mapping. Columns
// absent from mapping keep their names. Rows are shared with t.
func Rename(t *Table, mapping map[string]string) (*Table, error) {
	cols := make([]string, len(t.Columns))
	seen := make(map[string]bool, len(cols))
	for i, c := range t.Columns {
		if renamed, ok := mapping[c]; ok {
			c = renamed
		}
		if seen[c] {
			return nil, fmt.Errorf("%w: rename produces duplicate column %q", types.ErrShapeMismatch, c)
		}
		seen[c] = true
		cols[i] = c
	}
	return &Table{Columns: cols, Rows: t.Rows}, nil
}

// Canonicalize renames a table read with schema from source names to
// canonical names using the schema's explicit field pairs. The table must
// have exactly the schema's source columns in schema order.
func Canonicalize(t *Table, schema types.SourceSchema) (*Table, error) {
	if !slices.Equal(t.Columns, schema.SourceFields()) {
		return nil, fmt.Errorf("%w: columns %v do not match %s schema %v",
			types.ErrShapeMismatch, t.Columns, schema.Label(), schema.SourceFields())
	}
	mapping := make(map[string]string, len(schema.Fields))
	for _, f := range schema.Fields {
		mapping[f.Source] = f.Canonical
	}
	return Rename(t, mapping)
}
