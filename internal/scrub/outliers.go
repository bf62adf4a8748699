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
	"fmt"
	"math"
	"sort"

	"github.com/pgEdge/pgedge-salescube/internal/table"
)

// Range is an inclusive numeric interval.
type Range struct {
	Lower float64
	Upper float64
}

// Contains reports whether f lies within the range.
func (r Range) Contains(f float64) bool {
	return f >= r.Lower && f <= r.Upper
}

func (r Range) finite() bool {
	return !math.IsInf(r.Lower, 0) && !math.IsInf(r.Upper, 0) &&
		!math.IsNaN(r.Lower) && !math.IsNaN(r.Upper)
}

// OutlierMethod derives the accepted range for a column.
type OutlierMethod interface {
	// Range returns the accepted interval for the given values. ok is
	// false when the values do not support a decision, including when
	// the interval would not be finite.
	Range(values []float64) (r Range, ok bool)
	String() string
}

// IQR accepts [Q1 - k*IQR, Q3 + k*IQR].
type IQR struct {
	Multiplier float64
}

func (m IQR) Range(values []float64) (Range, bool) {
	if len(values) == 0 {
		return Range{}, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	r := Range{Lower: q1 - m.Multiplier*iqr, Upper: q3 + m.Multiplier*iqr}
	return r, r.finite()
}

func (m IQR) String() string { return fmt.Sprintf("iqr(%g)", m.Multiplier) }

// StdDev accepts mean ± k sample standard deviations.
type StdDev struct {
	Multiplier float64
}

func (m StdDev) Range(values []float64) (Range, bool) {
	if len(values) < 2 {
		return Range{}, false
	}

	// Work on values scaled into [-1, 1] so sums of large amounts
	// cannot overflow.
	var scale float64
	for _, f := range values {
		scale = math.Max(scale, math.Abs(f))
	}
	if scale == 0 {
		return Range{}, true
	}

	n := float64(len(values))
	var sum float64
	for _, f := range values {
		sum += f / scale
	}
	mean := sum / n

	var ss float64
	for _, f := range values {
		d := f/scale - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / (n - 1))
	r := Range{Lower: (mean - m.Multiplier*sd) * scale, Upper: (mean + m.Multiplier*sd) * scale}
	return r, r.finite()
}

func (m StdDev) String() string { return fmt.Sprintf("stddev(%g)", m.Multiplier) }

// Bounds accepts a fixed absolute interval.
type Bounds struct {
	Lower float64
	Upper float64
}

func (m Bounds) Range([]float64) (Range, bool) {
	return Range(m), true
}

func (m Bounds) String() string { return fmt.Sprintf("bounds[%g, %g]", m.Lower, m.Upper) }

// RemoveOutliers drops rows whose value in column lies outside the range
// computed by method. Missing cells are kept; present cells that are not
// numeric are dropped. Returns the range used and the number of rows
// removed. When the method cannot decide, nothing is removed.
func RemoveOutliers(t *table.Table, column string, method OutlierMethod) (*table.Table, Range, int, error) {
	values, err := t.Column(column)
	if err != nil {
		return nil, Range{}, 0, err
	}

	r, ok := method.Range(numericValues(values))
	if !ok {
		return t.Clone(), Range{}, 0, nil
	}

	c, _ := t.ColumnIndex(column)
	out := t.Filter(func(_ int, row table.Row) bool {
		if !row[c].Valid {
			return true
		}
		f, ok := ParseFloat(row[c])
		return ok && r.Contains(f)
	})

	return out, r, t.Len() - out.Len(), nil
}
