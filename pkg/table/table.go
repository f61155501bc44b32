// Package table provides the in-memory tabular data model used by the
// linkage pipeline. A Table is an ordered set of named columns and an
// ordered slice of rows; every pipeline stage takes tables and returns new
// tables without mutating its inputs.
package table

import (
	"encoding/json"
	"slices"
	"sort"

	"github.com/agentstation/masterlink/pkg/errors"
)

// Row is a single record keyed by column name. A nil value or an absent
// key is a missing value.
type Row map[string]any

// Get returns the value stored under col, or nil when absent.
func (r Row) Get(col string) any {
	if r == nil {
		return nil
	}
	return r[col]
}

// Copy returns a shallow copy of the row.
func (r Row) Copy() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered collection of rows sharing a column schema.
type Table struct {
	columns []string
	rows    []Row
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{}
	for _, c := range columns {
		t.addColumn(c)
	}
	return t
}

// FromRows builds a table from rows. The listed columns come first in the
// given order; any other keys found in the rows follow in sorted order.
func FromRows(rows []Row, columns ...string) *Table {
	t := New(columns...)
	extra := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			if !t.HasColumn(k) {
				extra[k] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(extra))
	for k := range extra {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, n := range names {
		t.addColumn(n)
	}
	t.rows = make([]Row, 0, len(rows))
	for _, r := range rows {
		t.rows = append(t.rows, r.Copy())
	}
	return t
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether the table has a column named name.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.columns, name)
}

// Row returns the i-th row. The returned row must not be modified.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Rows returns the rows of the table. The returned rows must not be modified.
func (t *Table) Rows() []Row {
	return slices.Clone(t.rows)
}

// Append adds a copy of row, extending the schema with unseen columns.
func (t *Table) Append(row Row) {
	keys := make([]string, 0, len(row))
	for k := range row {
		if !t.HasColumn(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.addColumn(k)
	}
	t.rows = append(t.rows, row.Copy())
}

// Column returns the values of a column in row order.
func (t *Table) Column(name string) []any {
	out := make([]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Get(name)
	}
	return out
}

// SetColumn returns a copy of the table with the named column replaced by
// values. values must be aligned with the table rows.
func (t *Table) SetColumn(name string, values []any) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, errors.NewValidationError(name, len(values), "column length does not match row count")
	}
	out := t.Copy()
	out.addColumn(name)
	for i := range out.rows {
		out.rows[i][name] = values[i]
	}
	return out, nil
}

// Project returns a table restricted to cols, in that order.
func (t *Table) Project(cols ...string) (*Table, error) {
	if err := t.Require(cols...); err != nil {
		return nil, err
	}
	out := New(cols...)
	out.rows = make([]Row, len(t.rows))
	for i, r := range t.rows {
		nr := make(Row, len(cols))
		for _, c := range cols {
			if v, ok := r[c]; ok {
				nr[c] = v
			}
		}
		out.rows[i] = nr
	}
	return out, nil
}

// Drop returns a table without the given columns. Unknown columns are ignored.
func (t *Table) Drop(cols ...string) *Table {
	out := &Table{}
	for _, c := range t.columns {
		if !slices.Contains(cols, c) {
			out.addColumn(c)
		}
	}
	out.rows = make([]Row, len(t.rows))
	for i, r := range t.rows {
		nr := r.Copy()
		for _, c := range cols {
			delete(nr, c)
		}
		out.rows[i] = nr
	}
	return out
}

// Rename returns a table with columns renamed according to mapping.
func (t *Table) Rename(mapping map[string]string) *Table {
	out := &Table{}
	for _, c := range t.columns {
		if n, ok := mapping[c]; ok {
			out.addColumn(n)
			continue
		}
		out.addColumn(c)
	}
	out.rows = make([]Row, len(t.rows))
	for i, r := range t.rows {
		nr := make(Row, len(r))
		for k, v := range r {
			if n, ok := mapping[k]; ok {
				nr[n] = v
				continue
			}
			nr[k] = v
		}
		out.rows[i] = nr
	}
	return out
}

// Copy returns a deep copy of the table structure. Cell values are shared.
func (t *Table) Copy() *Table {
	out := &Table{columns: slices.Clone(t.columns)}
	out.rows = make([]Row, len(t.rows))
	for i, r := range t.rows {
		out.rows[i] = r.Copy()
	}
	return out
}

// Require returns a ValidationError naming the first column that is absent.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if !t.HasColumn(c) {
			return errors.NewValidationError(c, nil, "column not present in table")
		}
	}
	return nil
}

// Records returns the rows with every column present, filling absent
// values with nil.
func (t *Table) Records() []Row {
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		nr := make(Row, len(t.columns))
		for _, c := range t.columns {
			nr[c] = r.Get(c)
		}
		out[i] = nr
	}
	return out
}

// MarshalJSON encodes the table as an array of records.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Records())
}

func (t *Table) addColumn(name string) {
	if !slices.Contains(t.columns, name) {
		t.columns = append(t.columns, name)
	}
}
