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
	"sort"
	"time"

	"github.com/pgEdge/pgedge-salescube/internal/scrub"
	"github.com/pgEdge/pgedge-salescube/internal/table"
)

// Customer segments by tenure.
const (
	SegmentNew     = "New (<1y)"
	SegmentActive  = "Active (1-3y)"
	SegmentLoyal   = "Loyal (3y+)"
	SegmentUnknown = "Unknown"
)

// CustomerValueRow summarises one customer's purchases.
type CustomerValueRow struct {
	CustomerID        string  `csv:"customer_id"`
	Name              string  `csv:"name"`
	Region            string  `csv:"region"`
	Segment           string  `csv:"segment"`
	TotalSpend        float64 `csv:"total_spend"`
	Transactions      int     `csv:"transactions"`
	AverageOrderValue float64 `csv:"average_order_value"`
	FirstPurchase     string  `csv:"first_purchase"`
	LastPurchase      string  `csv:"last_purchase"`
	JoinDate          string  `csv:"join_date,omitempty"`

	// TenureDays and TenureYears are nil when the join date is unknown.
	TenureDays  *int     `csv:"tenure_days,omitempty"`
	TenureYears *float64 `csv:"tenure_years,omitempty"`
}

// Segment labels a tenure in years.
func Segment(tenureYears *float64) string {
	switch {
	case tenureYears == nil:
		return SegmentUnknown
	case *tenureYears < 1:
		return SegmentNew
	case *tenureYears < 3:
		return SegmentActive
	default:
		return SegmentLoyal
	}
}

// CustomerValue aggregates dated sales per customer. Tenure is measured
// from the join date to the latest sale date in the data. Rows are
// sorted by total spend, largest first.
func CustomerValue(f *Facts) []CustomerValueRow {
	facts, _ := Join(f)

	type acc struct {
		total       float64
		count       int
		first, last time.Time
	}
	groups := make(map[string]*acc)
	var order []string
	var ref time.Time
	for _, fact := range facts {
		if !fact.Dated() {
			continue
		}
		a, ok := groups[fact.CustomerID]
		if !ok {
			a = &acc{first: fact.Date, last: fact.Date}
			groups[fact.CustomerID] = a
			order = append(order, fact.CustomerID)
		}
		a.total += fact.Amount
		a.count++
		if fact.Date.Before(a.first) {
			a.first = fact.Date
		}
		if fact.Date.After(a.last) {
			a.last = fact.Date
		}
		if fact.Date.After(ref) {
			ref = fact.Date
		}
	}

	type info struct {
		name, region string
		joined       time.Time
	}
	customers := make(map[string]info, len(f.Customers))
	for _, c := range f.Customers {
		i := info{name: c.Name, region: c.Region}
		if c.JoinDate != nil {
			if d, ok := scrub.ParseDate(table.String(*c.JoinDate)); ok {
				i.joined = d
			}
		}
		customers[c.CustomerID] = i
	}

	rows := make([]CustomerValueRow, 0, len(groups))
	for _, id := range order {
		a := groups[id]
		c := customers[id]
		row := CustomerValueRow{
			CustomerID:        id,
			Name:              c.name,
			Region:            c.region,
			TotalSpend:        a.total,
			Transactions:      a.count,
			AverageOrderValue: a.total / float64(a.count),
			FirstPurchase:     a.first.Format(scrub.DateLayout),
			LastPurchase:      a.last.Format(scrub.DateLayout),
		}
		if !c.joined.IsZero() {
			row.JoinDate = c.joined.Format(scrub.DateLayout)
			days := int(ref.Sub(c.joined).Hours() / 24)
			years := float64(days) / 365.0
			row.TenureDays = &days
			row.TenureYears = &years
		}
		row.Segment = Segment(row.TenureYears)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalSpend > rows[j].TotalSpend
	})
	return rows
}
