//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package olap builds an in-memory sales cube from the warehouse and
// answers slice, dice and drilldown queries over it.
package olap

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/pgEdge/pgedge-salescube/internal/model"
	"github.com/pgEdge/pgedge-salescube/internal/scrub"
	"github.com/pgEdge/pgedge-salescube/internal/table"
)

// Unknown labels a dimension value that could not be resolved.
const Unknown = "unknown"

// Dimension is a cube axis.
type Dimension string

const (
	Year     Dimension = "year"
	Month    Dimension = "month"
	Category Dimension = "category"
	Region   Dimension = "region"
)

// AllDimensions lists the cube axes in their canonical order.
var AllDimensions = []Dimension{Year, Month, Category, Region}

func (d Dimension) numeric() bool {
	return d == Year || d == Month
}

// Row is one aggregate cell of the cube. Dimensions not present in the
// owning cube hold their zero value.
type Row struct {
	Year              int     `csv:"year"`
	Month             int     `csv:"month"`
	Category          string  `csv:"category"`
	Region            string  `csv:"region"`
	TotalSales        float64 `csv:"total_sales"`
	TransactionCount  int     `csv:"transaction_count"`
	AverageOrderValue float64 `csv:"average_order_value"`
}

// Value returns the row's value for d as a string.
func (r Row) Value(d Dimension) string {
	switch d {
	case Year:
		return strconv.Itoa(r.Year)
	case Month:
		return strconv.Itoa(r.Month)
	case Category:
		return r.Category
	case Region:
		return r.Region
	}
	return ""
}

// Cube is a flat aggregate table keyed by Dimensions. Only combinations
// present in the data appear.
type Cube struct {
	Dimensions []Dimension
	Rows       []Row
}

// Has reports whether d is one of the cube's dimensions.
func (c *Cube) Has(d Dimension) bool {
	for _, cd := range c.Dimensions {
		if cd == d {
			return true
		}
	}
	return false
}

// Totals returns the sum of total_sales and transaction_count over all rows.
func (c *Cube) Totals() (float64, int) {
	var total float64
	var count int
	for _, r := range c.Rows {
		total += r.TotalSales
		count += r.TransactionCount
	}
	return total, count
}

// Facts holds the star-schema tables the cube is built from.
type Facts struct {
	Customers []model.Customer
	Products  []model.Product
	Sales     []model.Sale
}

// Source reads the star-schema tables.
type Source interface {
	Customers(ctx context.Context) ([]model.Customer, error)
	Products(ctx context.Context) ([]model.Product, error)
	Sales(ctx context.Context) ([]model.Sale, error)
}

// LoadFacts reads all three tables from src.
func LoadFacts(ctx context.Context, src Source) (*Facts, error) {
	customers, err := src.Customers(ctx)
	if err != nil {
		return nil, err
	}
	products, err := src.Products(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := src.Sales(ctx)
	if err != nil {
		return nil, err
	}
	return &Facts{Customers: customers, Products: products, Sales: sales}, nil
}

// Fact is a sale joined to its customer and product.
type Fact struct {
	SaleID     string
	CustomerID string
	ProductID  string
	Amount     float64
	Category   string
	Region     string

	// Date is zero when the sale date is missing or unparseable.
	Date time.Time
}

// Dated reports whether the fact has a usable sale date.
func (f Fact) Dated() bool {
	return !f.Date.IsZero()
}

// BuildStats describes the join feeding a cube.
type BuildStats struct {
	Sales             int
	Undated           int
	UnmatchedCustomer int
	UnmatchedProduct  int
	Rows              int
}

// Join left-joins sales to customers and products. Unmatched or empty
// region and category become Unknown.
func Join(f *Facts) ([]Fact, BuildStats) {
	regions := make(map[string]string, len(f.Customers))
	for _, c := range f.Customers {
		regions[c.CustomerID] = c.Region
	}
	categories := make(map[string]string, len(f.Products))
	for _, p := range f.Products {
		categories[p.ProductID] = p.Category
	}

	stats := BuildStats{Sales: len(f.Sales)}
	facts := make([]Fact, 0, len(f.Sales))
	for _, s := range f.Sales {
		fact := Fact{
			SaleID:     s.SaleID,
			CustomerID: s.CustomerID,
			ProductID:  s.ProductID,
			Amount:     s.SaleAmount,
			Region:     Unknown,
			Category:   Unknown,
		}
		if region, ok := regions[s.CustomerID]; ok {
			if region != "" {
				fact.Region = region
			}
		} else {
			stats.UnmatchedCustomer++
		}
		if category, ok := categories[s.ProductID]; ok {
			if category != "" {
				fact.Category = category
			}
		} else {
			stats.UnmatchedProduct++
		}
		if s.SaleDate != nil {
			if d, ok := scrub.ParseDate(table.String(*s.SaleDate)); ok {
				fact.Date = d
			}
		}
		if !fact.Dated() {
			stats.Undated++
		}
		facts = append(facts, fact)
	}
	return facts, stats
}

// BuildCube joins the facts and aggregates them by year, month, category
// and region. Sales without a usable date are excluded and counted.
func BuildCube(f *Facts) (*Cube, BuildStats, error) {
	facts, stats := Join(f)

	dated := facts[:0:0]
	for _, fact := range facts {
		if fact.Dated() {
			dated = append(dated, fact)
		}
	}

	cube, err := Aggregate(dated, AllDimensions...)
	if err != nil {
		return nil, stats, err
	}
	stats.Rows = len(cube.Rows)
	return cube, stats, nil
}

// Aggregate groups facts by the given dimensions. Undated facts carry
// year and month 0.
func Aggregate(facts []Fact, dims ...Dimension) (*Cube, error) {
	g := newGrouper(canonical(dims))
	for _, f := range facts {
		r := Row{Category: f.Category, Region: f.Region}
		if f.Dated() {
			r.Year = f.Date.Year()
			r.Month = int(f.Date.Month())
		}
		g.add(r, f.Amount, 1)
	}
	return g.cube()
}

// canonical orders dims as in AllDimensions and drops repeats.
func canonical(dims []Dimension) []Dimension {
	want := make(map[Dimension]bool, len(dims))
	for _, d := range dims {
		want[d] = true
	}
	out := make([]Dimension, 0, len(want))
	for _, d := range AllDimensions {
		if want[d] {
			out = append(out, d)
		}
	}
	return out
}

// grouper collects keyed totals into a dataframe and sums them per
// group. Text dimensions are dictionary encoded so every key column is an
// integer; dimensions outside the selection hold a constant code.
type grouper struct {
	dims []Dimension
	keep map[Dimension]bool

	labels     []string
	codes      map[string]int
	years      []int
	months     []int
	categories []int
	regions    []int
	totals     []float64
	counts     []int
}

func newGrouper(dims []Dimension) *grouper {
	keep := make(map[Dimension]bool, len(dims))
	for _, d := range dims {
		keep[d] = true
	}
	g := &grouper{dims: dims, keep: keep, codes: make(map[string]int)}
	g.code("")
	return g
}

func (g *grouper) code(label string) int {
	c, ok := g.codes[label]
	if !ok {
		c = len(g.labels)
		g.codes[label] = c
		g.labels = append(g.labels, label)
	}
	return c
}

func (g *grouper) add(r Row, total float64, count int) {
	var year, month, category, region int
	if g.keep[Year] {
		year = r.Year
	}
	if g.keep[Month] {
		month = r.Month
	}
	if g.keep[Category] {
		category = g.code(r.Category)
	}
	if g.keep[Region] {
		region = g.code(r.Region)
	}
	g.years = append(g.years, year)
	g.months = append(g.months, month)
	g.categories = append(g.categories, category)
	g.regions = append(g.regions, region)
	g.totals = append(g.totals, total)
	g.counts = append(g.counts, count)
}

func (g *grouper) cube() (*Cube, error) {
	rows := []Row{}
	if len(g.totals) == 0 {
		return &Cube{Dimensions: g.dims, Rows: rows}, nil
	}

	df := dataframe.New(
		series.New(g.years, series.Int, "year"),
		series.New(g.months, series.Int, "month"),
		series.New(g.categories, series.Int, "category"),
		series.New(g.regions, series.Int, "region"),
		series.New(g.totals, series.Float, "total"),
		series.New(g.counts, series.Int, "count"),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to build cube frame: %w", df.Err)
	}
	groups := df.GroupBy("year", "month", "category", "region")
	if groups.Err != nil {
		return nil, fmt.Errorf("failed to group cube frame: %w", groups.Err)
	}

	for _, group := range groups.GetGroups() {
		r, err := g.row(group)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	sortRows(rows)
	return &Cube{Dimensions: g.dims, Rows: rows}, nil
}

// row sums one group. All rows of a group share the key columns.
func (g *grouper) row(group dataframe.DataFrame) (Row, error) {
	var key [4]int
	for i, name := range []string{"year", "month", "category", "region"} {
		v, err := group.Col(name).Elem(0).Int()
		if err != nil {
			return Row{}, fmt.Errorf("failed to read %s key: %w", name, err)
		}
		key[i] = v
	}

	r := Row{Year: key[0], Month: key[1], Category: g.labels[key[2]], Region: g.labels[key[3]]}
	for _, t := range group.Col("total").Float() {
		r.TotalSales += t
	}
	for _, c := range group.Col("count").Float() {
		r.TransactionCount += int(c)
	}
	if r.TransactionCount > 0 {
		r.AverageOrderValue = r.TotalSales / float64(r.TransactionCount)
	}
	return r, nil
}

func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Region < b.Region
	})
}

// String renders the cube dimensions, e.g. "year x month".
func (c *Cube) String() string {
	s := ""
	for i, d := range c.Dimensions {
		if i > 0 {
			s += " x "
		}
		s += string(d)
	}
	return fmt.Sprintf("cube(%s, %d rows)", s, len(c.Rows))
}
