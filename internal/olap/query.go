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
	"strconv"
	"strings"
)

// ParseDimension resolves a dimension name case-insensitively.
func ParseDimension(s string) (Dimension, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, d := range AllDimensions {
		if string(d) == name {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown dimension %q (valid: year, month, category, region)", s)
}

// ParseDimensions resolves a list of dimension names.
func ParseDimensions(names []string) ([]Dimension, error) {
	dims := make([]Dimension, 0, len(names))
	for _, n := range names {
		d, err := ParseDimension(n)
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, nil
}

// Predicate matches cube rows whose Dimension equals Value. Text values
// compare case-insensitively; year and month compare as integers.
type Predicate struct {
	Dimension Dimension
	Value     string
}

// ParsePredicate parses "dimension=value".
func ParsePredicate(s string) (Predicate, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return Predicate{}, fmt.Errorf("invalid predicate %q: expected dimension=value", s)
	}
	d, err := ParseDimension(name)
	if err != nil {
		return Predicate{}, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return Predicate{}, fmt.Errorf("invalid predicate %q: empty value", s)
	}
	if d.numeric() {
		if _, err := strconv.Atoi(value); err != nil {
			return Predicate{}, fmt.Errorf("invalid predicate %q: %s must be an integer", s, d)
		}
	}
	return Predicate{Dimension: d, Value: value}, nil
}

// Match reports whether r satisfies the predicate.
func (p Predicate) Match(r Row) bool {
	if p.Dimension.numeric() {
		want, err := strconv.Atoi(strings.TrimSpace(p.Value))
		if err != nil {
			return false
		}
		if p.Dimension == Year {
			return r.Year == want
		}
		return r.Month == want
	}
	return strings.EqualFold(strings.TrimSpace(r.Value(p.Dimension)), strings.TrimSpace(p.Value))
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s=%s", p.Dimension, p.Value)
}

// Slice filters the cube on a single dimension value.
func Slice(c *Cube, p Predicate) (*Cube, error) {
	return Dice(c, p)
}

// Dice filters the cube to rows matching every predicate.
func Dice(c *Cube, preds ...Predicate) (*Cube, error) {
	if len(preds) == 0 {
		return nil, fmt.Errorf("dice requires at least one predicate")
	}
	for _, p := range preds {
		if !c.Has(p.Dimension) {
			return nil, fmt.Errorf("cube has no %s dimension", p.Dimension)
		}
	}

	out := &Cube{Dimensions: append([]Dimension(nil), c.Dimensions...)}
	for _, r := range c.Rows {
		keep := true
		for _, p := range preds {
			if !p.Match(r) {
				keep = false
				break
			}
		}
		if keep {
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}

// Drilldown re-aggregates the cube to the given dimensions, which must be
// a subset of the cube's own. Totals and counts are re-summed and the
// average order value is recomputed from them. With no dimensions the
// result is a single grand-total row.
func Drilldown(c *Cube, dims ...Dimension) (*Cube, error) {
	for _, d := range dims {
		if !c.Has(d) {
			return nil, fmt.Errorf("cannot group by %s: cube has dimensions %v", d, c.Dimensions)
		}
	}

	g := newGrouper(canonical(dims))
	for _, r := range c.Rows {
		g.add(r, r.TotalSales, r.TransactionCount)
	}
	return g.cube()
}
