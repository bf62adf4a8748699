//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package table provides the tabular value used by the preparation
// pipeline. A Table wraps a gota DataFrame whose columns are all string
// series; numeric and date interpretation happens in the operations that
// need it. Missing cells are the series' NA elements.
package table

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// na is the token gota stores as a missing string element.
const na = "NaN"

// Value is a single cell. Valid is false for missing values.
type Value struct {
	S     string
	Valid bool
}

// Null is the missing cell.
var Null = Value{}

// String returns a valid cell holding s.
func String(s string) Value {
	return Value{S: s, Valid: true}
}

// Row is one record, aligned with the owning table's columns.
type Row []Value

// MissingColumnError is returned when a named column is not present.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("missing column %q", e.Column)
	}
	return fmt.Sprintf("table %s: missing column %q", e.Table, e.Column)
}

// Table is an ordered set of named string columns.
// Operations never modify the receiver in place.
type Table struct {
	name  string
	df    dataframe.DataFrame
	index map[string]int
}

// New creates an empty table with the given column names.
func New(name string, columns ...string) *Table {
	cols := make([]series.Series, len(columns))
	for i, c := range columns {
		cols[i] = series.New([]string{}, series.String, c)
	}
	return fromSeries(name, cols)
}

// FromRecords builds a table from string records. Null markers
// (see IsNullMarker) become missing cells; short records are padded
// with missing cells and long ones truncated.
func FromRecords(name string, header []string, records [][]string) *Table {
	if len(header) == 0 || len(records) == 0 {
		return New(name, header...)
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, append([]string(nil), header...))
	for _, rec := range records {
		row := make([]string, len(header))
		for i := range row {
			row[i] = na
			if i < len(rec) && !IsNullMarker(rec[i]) {
				row[i] = rec[i]
			}
		}
		rows = append(rows, row)
	}

	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{na}),
	)
	return fromFrame(name, df)
}

var nullMarkers = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

// IsNullMarker reports whether s denotes a missing value.
func IsNullMarker(s string) bool {
	return nullMarkers[strings.ToLower(strings.TrimSpace(s))]
}

func fromSeries(name string, cols []series.Series) *Table {
	if len(cols) == 0 {
		return &Table{name: name, index: map[string]int{}}
	}
	return fromFrame(name, dataframe.New(cols...))
}

// fromFrame wraps df. Frames are only built from rectangular string
// columns, so a gota error here is a programming error.
func fromFrame(name string, df dataframe.DataFrame) *Table {
	if df.Err != nil {
		panic(fmt.Sprintf("table %s: %v", name, df.Err))
	}
	t := &Table{name: name, df: df}
	t.index = make(map[string]int, df.Ncol())
	for i, c := range df.Names() {
		t.index[c] = i
	}
	return t
}

func column(name string, cells []Value) series.Series {
	vals := make([]string, len(cells))
	for i, v := range cells {
		vals[i] = na
		if v.Valid {
			vals[i] = v.S
		}
	}
	return series.New(vals, series.String, name)
}

// Name returns the table name used in log and error messages.
func (t *Table) Name() string {
	return t.name
}

// Columns returns a copy of the column names.
func (t *Table) Columns() []string {
	if len(t.index) == 0 {
		return []string{}
	}
	return t.df.Names()
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.index) == 0 {
		return 0
	}
	return t.df.Nrow()
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, &MissingColumnError{Table: t.name, Column: name}
	}
	return i, nil
}

func (t *Table) cell(r, c int) Value {
	e := t.df.Elem(r, c)
	if e.IsNA() {
		return Null
	}
	return String(e.String())
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) Row {
	r := make(Row, len(t.index))
	for c := range r {
		r[c] = t.cell(i, c)
	}
	return r
}

// Get returns the cell at row i of the named column.
func (t *Table) Get(i int, column string) Value {
	c, ok := t.index[column]
	if !ok {
		return Null
	}
	return t.cell(i, c)
}

// Column returns a copy of the cells of the named column.
func (t *Table) Column(name string) ([]Value, error) {
	c, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	return t.columnAt(c), nil
}

func (t *Table) columnAt(c int) []Value {
	out := make([]Value, t.Len())
	for i := range out {
		out[i] = t.cell(i, c)
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if len(t.index) == 0 {
		return New(t.name)
	}
	return fromFrame(t.name, t.df.Copy())
}

// Filter returns a new table containing the rows for which keep is true,
// in their original order.
func (t *Table) Filter(keep func(i int, r Row) bool) *Table {
	var idx []int
	for i := 0; i < t.Len(); i++ {
		if keep(i, t.Row(i)) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return New(t.name, t.Columns()...)
	}
	return fromFrame(t.name, t.df.Subset(idx))
}

// MapColumn returns a new table with fn applied to every cell of column.
func (t *Table) MapColumn(name string, fn func(Value) Value) (*Table, error) {
	cells, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return t.Clone(), nil
	}
	for i, v := range cells {
		cells[i] = fn(v)
	}
	return fromFrame(t.name, t.df.Mutate(column(name, cells))), nil
}

// Rename returns a new table with columns renamed according to mapping.
// Columns not in mapping keep their names.
func (t *Table) Rename(mapping map[string]string) *Table {
	cols := make([]series.Series, 0, len(t.index))
	for i, c := range t.Columns() {
		if n, ok := mapping[c]; ok {
			c = n
		}
		cols = append(cols, column(c, t.columnAt(i)))
	}
	return fromSeries(t.name, cols)
}

// Select returns a new table with only the named columns, in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	for _, c := range columns {
		if _, err := t.ColumnIndex(c); err != nil {
			return nil, err
		}
	}
	if len(columns) == 0 {
		return New(t.name), nil
	}
	return fromFrame(t.name, t.df.Select(columns)), nil
}

// WithName returns a shallow copy of t carrying a different name.
func (t *Table) WithName(name string) *Table {
	out := *t
	out.name = name
	return &out
}

// Records returns the header and rows as strings; missing cells are empty.
func (t *Table) Records() ([]string, [][]string) {
	records := make([][]string, t.Len())
	for i := range records {
		rec := make([]string, len(t.index))
		for c := range rec {
			if v := t.cell(i, c); v.Valid {
				rec[c] = v.S
			}
		}
		records[i] = rec
	}
	return t.Columns(), records
}
