//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package scrub

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pgEdge/pgedge-salescube/internal/table"
)

// DateLayout is the canonical date format written to prepared files.
const DateLayout = "2006-01-02"

// DateLayouts are the input layouts accepted by CoerceDate, tried in order.
var DateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
}

// ParseFloat interprets a cell as a finite number. Thousands separators
// and a leading currency sign are tolerated; infinities and NaN are not.
func ParseFloat(v table.Value) (float64, bool) {
	if !v.Valid {
		return 0, false
	}
	s := strings.TrimSpace(v.S)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ParseDate interprets a cell as a calendar date using DateLayouts.
func ParseDate(v table.Value) (time.Time, bool) {
	if !v.Valid {
		return time.Time{}, false
	}
	s := strings.TrimSpace(v.S)
	for _, layout := range DateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// CoerceNumeric normalises column to plain decimal numbers. Cells that do
// not parse become missing; the number of such cells is returned.
func CoerceNumeric(t *table.Table, column string) (*table.Table, int, error) {
	bad := 0
	out, err := t.MapColumn(column, func(v table.Value) table.Value {
		if !v.Valid {
			return v
		}
		f, ok := ParseFloat(v)
		if !ok {
			bad++
			return table.Null
		}
		return table.String(formatFloat(f))
	})
	if err != nil {
		return nil, 0, err
	}
	return out, bad, nil
}

// CoerceDate normalises column to DateLayout. Cells that are not a real
// calendar date (for example month 13) become missing; the number of such
// cells is returned.
func CoerceDate(t *table.Table, column string) (*table.Table, int, error) {
	bad := 0
	out, err := t.MapColumn(column, func(v table.Value) table.Value {
		if !v.Valid {
			return v
		}
		d, ok := ParseDate(v)
		if !ok {
			bad++
			return table.Null
		}
		return table.String(d.Format(DateLayout))
	})
	if err != nil {
		return nil, 0, err
	}
	return out, bad, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
