// Package table holds string tables read from CSV files and the schema
// resolution used to find logical fields in them.
package table

import (
	"math"
	"strconv"
	"strings"
)

// Table is a header plus rows of string cells
type Table struct {
	Name   string // source label used in diagnostics
	Header []string
	Rows   [][]string
}

// Column is a resolved handle to one header position
type Column struct {
	Index int
	Name  string
}

// New creates an empty table with the given header
func New(name string, header []string) *Table {
	return &Table{
		Name:   name,
		Header: append([]string(nil), header...),
	}
}

// Len returns the number of data rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table is nil or has no rows
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Append adds a row
func (t *Table) Append(row ...string) {
	t.Rows = append(t.Rows, row)
}

// Cell returns the value at row i in column c, "" when the row is short
func (t *Table) Cell(i int, c Column) string {
	row := t.Rows[i]
	if c.Index < 0 || c.Index >= len(row) {
		return ""
	}
	return row[c.Index]
}

// Lookup finds a column by case-insensitive, trimmed header name
func (t *Table) Lookup(name string) (Column, bool) {
	want := normalizeHeader(name)
	for i, h := range t.Header {
		if normalizeHeader(h) == want {
			return Column{Index: i, Name: h}, true
		}
	}
	return Column{Index: -1}, false
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	out := New(t.Name, t.Header)
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

// nullTokens are the cell values read as missing, as common CSV tooling does
var nullTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-NaN": {}, "-nan": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsNull reports whether a cell value stands for a missing value
func IsNull(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

// ParseNumber parses a numeric cell; missing or malformed cells report false
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if IsNull(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
