//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package scrub implements reusable cleaning operations over tables.
//
// Every operation is a plain function: it takes a table, returns a new
// table and a count of affected rows or cells, and leaves its input alone.
package scrub

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pgEdge/pgedge-salescube/internal/table"
)

// ErrNotFound is matched by NotFoundError.
var ErrNotFound = errors.New("column not found")

// NotFoundError is returned by DetectColumn when no candidate matches.
type NotFoundError struct {
	Table      string
	Candidates []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("table %s: none of the columns %s found",
		e.Table, strings.Join(e.Candidates, ", "))
}

// Is makes errors.Is(err, ErrNotFound) succeed.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DetectColumn returns the first column of t matching one of candidates,
// compared case-insensitively after trimming. Candidates are tried in order.
func DetectColumn(t *table.Table, candidates ...string) (string, error) {
	byFold := make(map[string]string)
	for _, c := range t.Columns() {
		key := strings.ToLower(strings.TrimSpace(c))
		if _, seen := byFold[key]; !seen {
			byFold[key] = c
		}
	}

	for _, cand := range candidates {
		if col, ok := byFold[strings.ToLower(strings.TrimSpace(cand))]; ok {
			return col, nil
		}
	}

	return "", &NotFoundError{Table: t.Name(), Candidates: candidates}
}

// TrimAndLowercase trims and lowercases each named column. Absent
// columns are skipped. Returns the number of cells that changed.
func TrimAndLowercase(t *table.Table, columns ...string) (*table.Table, int) {
	changed := 0
	out := t
	for _, col := range columns {
		if !out.HasColumn(col) {
			continue
		}
		out, _ = out.MapColumn(col, func(v table.Value) table.Value {
			if !v.Valid {
				return v
			}
			n := strings.ToLower(strings.TrimSpace(v.S))
			if n != v.S {
				changed++
			}
			return table.String(n)
		})
	}
	return out, changed
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// TrimAll trims every cell and collapses internal whitespace runs to a
// single space. Cells that become empty are marked missing.
func TrimAll(t *table.Table) (*table.Table, int) {
	changed := 0
	out := t
	for _, col := range t.Columns() {
		out, _ = out.MapColumn(col, func(v table.Value) table.Value {
			if !v.Valid {
				return v
			}
			n := whitespaceRun.ReplaceAllString(strings.TrimSpace(v.S), " ")
			if n != v.S {
				changed++
			}
			if table.IsNullMarker(n) {
				return table.Null
			}
			return table.String(n)
		})
	}
	return out, changed
}

// DropDuplicates removes rows whose key columns repeat an earlier row,
// keeping the first occurrence. With no keys the whole row is compared.
// Returns the number of rows removed.
func DropDuplicates(t *table.Table, keys ...string) (*table.Table, int, error) {
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		i, err := t.ColumnIndex(k)
		if err != nil {
			return nil, 0, err
		}
		idx = append(idx, i)
	}
	if len(idx) == 0 {
		for i := range t.Columns() {
			idx = append(idx, i)
		}
	}

	seen := make(map[string]bool, t.Len())
	out := t.Filter(func(_ int, r table.Row) bool {
		var b strings.Builder
		for _, i := range idx {
			if r[i].Valid {
				b.WriteByte('v')
				b.WriteString(r[i].S)
			} else {
				b.WriteByte('n')
			}
			b.WriteByte(0)
		}
		key := b.String()
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})

	return out, t.Len() - out.Len(), nil
}

// DropMissing removes rows where column is missing.
func DropMissing(t *table.Table, column string) (*table.Table, int, error) {
	c, err := t.ColumnIndex(column)
	if err != nil {
		return nil, 0, err
	}
	out := t.Filter(func(_ int, r table.Row) bool { return r[c].Valid })
	return out, t.Len() - out.Len(), nil
}

// DropNegative removes rows whose numeric value in column is below zero.
// Missing and non-numeric cells are kept.
func DropNegative(t *table.Table, column string) (*table.Table, int, error) {
	c, err := t.ColumnIndex(column)
	if err != nil {
		return nil, 0, err
	}
	out := t.Filter(func(_ int, r table.Row) bool {
		f, ok := ParseFloat(r[c])
		return !ok || f >= 0
	})
	return out, t.Len() - out.Len(), nil
}
