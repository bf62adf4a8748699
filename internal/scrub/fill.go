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
	"sort"

	"github.com/pgEdge/pgedge-salescube/internal/table"
)

// FillStrategy computes the replacement for missing cells of a column.
type FillStrategy interface {
	// FillValue returns the replacement given the column's cells. ok is
	// false when no replacement can be derived.
	FillValue(values []table.Value) (v table.Value, ok bool)
	String() string
}

// Constant fills with a fixed value.
type Constant struct {
	Value string
}

func (c Constant) FillValue([]table.Value) (table.Value, bool) {
	return table.String(c.Value), true
}

func (c Constant) String() string { return fmt.Sprintf("constant(%q)", c.Value) }

// Mean fills with the arithmetic mean of the numeric cells, or 0 when the
// column has none.
type Mean struct{}

func (Mean) FillValue(values []table.Value) (table.Value, bool) {
	nums := numericValues(values)
	if len(nums) == 0 {
		return table.String("0"), true
	}
	var sum float64
	for _, f := range nums {
		sum += f
	}
	return table.String(formatFloat(sum / float64(len(nums)))), true
}

func (Mean) String() string { return "mean" }

// Median fills with the median of the numeric cells, or 0 when the column
// has none.
type Median struct{}

func (Median) FillValue(values []table.Value) (table.Value, bool) {
	nums := numericValues(values)
	if len(nums) == 0 {
		return table.String("0"), true
	}
	sort.Float64s(nums)
	return table.String(formatFloat(quantile(nums, 0.5))), true
}

func (Median) String() string { return "median" }

// Mode fills with the most frequent present value. Ties resolve to the
// lexically smallest value. An all-missing column is left as is.
type Mode struct{}

func (Mode) FillValue(values []table.Value) (table.Value, bool) {
	counts := make(map[string]int)
	for _, v := range values {
		if v.Valid {
			counts[v.S]++
		}
	}
	if len(counts) == 0 {
		return table.Null, false
	}

	best, bestCount := "", 0
	for s, n := range counts {
		if n > bestCount || (n == bestCount && s < best) {
			best, bestCount = s, n
		}
	}
	return table.String(best), true
}

func (Mode) String() string { return "mode" }

// ParseFillStrategy maps a numeric fill name to a strategy. Text columns
// always use a Constant placeholder, so "constant" is not a numeric fill.
func ParseFillStrategy(name string) (FillStrategy, error) {
	switch name {
	case "mean":
		return Mean{}, nil
	case "median":
		return Median{}, nil
	case "mode":
		return Mode{}, nil
	default:
		return nil, fmt.Errorf("unknown fill strategy: %s", name)
	}
}

// FillMissing replaces missing cells of column using strategy. Present
// cells are untouched. Returns the number of cells filled.
func FillMissing(t *table.Table, column string, strategy FillStrategy) (*table.Table, int, error) {
	values, err := t.Column(column)
	if err != nil {
		return nil, 0, err
	}

	fill, ok := strategy.FillValue(values)
	if !ok {
		return t.Clone(), 0, nil
	}

	filled := 0
	out, err := t.MapColumn(column, func(v table.Value) table.Value {
		if v.Valid {
			return v
		}
		filled++
		return fill
	})
	if err != nil {
		return nil, 0, err
	}
	return out, filled, nil
}

func numericValues(values []table.Value) []float64 {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := ParseFloat(v); ok {
			nums = append(nums, f)
		}
	}
	return nums
}

// quantile returns the q-quantile of sorted using linear interpolation
// between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}
