//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package olap

import (
	"fmt"
	"sort"
	"strconv"
)

// MonthlyTrends aggregates sales by calendar month and category, summing
// the same month across years.
func MonthlyTrends(c *Cube) (*Cube, error) {
	return Drilldown(c, Month, Category)
}

// RegionTotals aggregates sales by region, largest first.
func RegionTotals(c *Cube) (*Cube, error) {
	out, err := Drilldown(c, Region)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		return out.Rows[i].TotalSales > out.Rows[j].TotalSales
	})
	return out, nil
}

// PivotTable holds total sales with one dimension down the rows and
// another across the columns. Missing cells are 0.
type PivotTable struct {
	RowDimension    Dimension
	ColumnDimension Dimension
	RowKeys         []string
	ColumnKeys      []string
	Values          [][]float64
}

// Pivot cross-tabulates total sales of c by rows and cols.
func Pivot(c *Cube, rows, cols Dimension) (*PivotTable, error) {
	if rows == cols {
		return nil, fmt.Errorf("pivot needs two different dimensions, got %s twice", rows)
	}
	agg, err := Drilldown(c, rows, cols)
	if err != nil {
		return nil, err
	}

	rowKeys := distinct(agg.Rows, rows)
	colKeys := distinct(agg.Rows, cols)
	rowIdx := indexOf(rowKeys)
	colIdx := indexOf(colKeys)

	values := make([][]float64, len(rowKeys))
	for i := range values {
		values[i] = make([]float64, len(colKeys))
	}
	for _, r := range agg.Rows {
		values[rowIdx[r.Value(rows)]][colIdx[r.Value(cols)]] += r.TotalSales
	}

	return &PivotTable{
		RowDimension:    rows,
		ColumnDimension: cols,
		RowKeys:         rowKeys,
		ColumnKeys:      colKeys,
		Values:          values,
	}, nil
}

// distinct returns the sorted distinct values of d, numerically for
// year and month.
func distinct(rows []Row, d Dimension) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, r := range rows {
		v := r.Value(d)
		if !seen[v] {
			seen[v] = true
			keys = append(keys, v)
		}
	}
	if d.numeric() {
		sort.Slice(keys, func(i, j int) bool {
			a, _ := strconv.Atoi(keys[i])
			b, _ := strconv.Atoi(keys[j])
			return a < b
		})
	} else {
		sort.Strings(keys)
	}
	return keys
}

func indexOf(keys []string) map[string]int {
	idx := make(map[string]int, len(keys))
	for i, k := range keys {
		idx[k] = i
	}
	return idx
}
