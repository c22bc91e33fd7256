package domain

import (
	"strconv"
	"strings"
	"time"
)

// Column is one named, typed sequence of values. Numeric columns fill
// Floats, categorical columns fill Strings.
type Column struct {
	Name    string     `json:"name"`
	Kind    ColumnKind `json:"kind"`
	Floats  []float64  `json:"floats,omitempty"`
	Strings []string   `json:"strings,omitempty"`
}

func (c *Column) Len() int {
	if c.Kind == ColumnKindCategorical {
		return len(c.Strings)
	}
	return len(c.Floats)
}

func (c *Column) Value(i int) any {
	if c.Kind == ColumnKindCategorical {
		return c.Strings[i]
	}
	return c.Floats[i]
}

// Format renders value i the way exporters write it: shortest round-trip
// decimal for floats, verbatim for strings.
func (c *Column) Format(i int) string {
	if c.Kind == ColumnKindCategorical {
		return c.Strings[i]
	}
	return strconv.FormatFloat(c.Floats[i], 'f', -1, 64)
}

// Table is an ordered set of equally long, uniquely named columns. A Table
// returned by the generator shares no memory with it.
type Table struct {
	Columns  []Column    `json:"columns"`
	RowCount int         `json:"row_count"`
	Index    []time.Time `json:"index,omitempty"`
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

func (t *Table) HasIndex() bool {
	return len(t.Index) > 0
}

// Row returns row i in column order, prefixed by the index timestamp when
// the table has one.
func (t *Table) Row(i int) []any {
	offset := 0
	if t.HasIndex() {
		offset = 1
	}
	row := make([]any, len(t.Columns)+offset)
	if offset == 1 {
		row[0] = t.Index[i]
	}
	for j := range t.Columns {
		row[j+offset] = t.Columns[j].Value(i)
	}
	return row
}

// Schema describes the columns a target must create to hold this table.
func (t *Table) Schema(name string) TableSchema {
	s := TableSchema{Name: name, HasIndex: t.HasIndex()}
	s.Columns = make([]SchemaColumn, len(t.Columns))
	for i, c := range t.Columns {
		s.Columns[i] = SchemaColumn{Name: c.Name, Kind: c.Kind}
	}
	return s
}

// IndexColumnName is the column an exporter writes the row index into.
const IndexColumnName = "ts"

// CollidesWithIndex reports whether a column called name would clash with
// the index column. SQL targets fold unquoted identifiers, so the match
// ignores case.
func CollidesWithIndex(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), IndexColumnName)
}

type SchemaColumn struct {
	Name string
	Kind ColumnKind
}

type TableSchema struct {
	Name     string
	HasIndex bool
	Columns  []SchemaColumn
}

// ColumnNames lists the physical column names in insert order.
func (s TableSchema) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns)+1)
	if s.HasIndex {
		names = append(names, IndexColumnName)
	}
	for _, c := range s.Columns {
		names = append(names, c.Name)
	}
	return names
}
