//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/pgEdge/pgedge-salescube/internal/datagen"
	"github.com/pgEdge/pgedge-salescube/internal/olap"
	"github.com/pgEdge/pgedge-salescube/internal/prepare"
	"github.com/pgEdge/pgedge-salescube/internal/warehouse"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	return t
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func deref[T any](p *T, format func(T) string) string {
	if p == nil {
		return ""
	}
	return format(*p)
}

func renderGenerate(w io.Writer, s *datagen.Summary) {
	t := newTable(w, "file", "rows")
	counts := []int{s.Customers, s.Products, s.Sales}
	for i, f := range s.Files {
		t.Append([]string{f, strconv.Itoa(counts[i])})
	}
	t.Render()

	if len(s.Defects) == 0 {
		return
	}
	kinds := make([]string, 0, len(s.Defects))
	for k := range s.Defects {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	d := newTable(w, "defect", "rows")
	for _, k := range kinds {
		d.Append([]string{k, strconv.Itoa(s.Defects[k])})
	}
	d.SetFooter([]string{"total", strconv.Itoa(s.DefectTotal())})
	d.Render()
}

func renderPrepare(w io.Writer, reports []*prepare.Report) {
	t := newTable(w, "table", "read", "written", "dropped", "unparseable", "filled", "output")
	for _, r := range reports {
		filled := 0
		for _, n := range r.Filled {
			filled += n
		}
		t.Append([]string{
			r.Entity,
			strconv.Itoa(r.RowsRead),
			strconv.Itoa(r.RowsWritten),
			dropSummary(r.Dropped),
			strconv.Itoa(r.UnparseableTotal()),
			strconv.Itoa(filled),
			r.Output,
		})
	}
	t.Render()
}

// dropSummary renders e.g. "3 (duplicate_key 2, outlier 1)".
func dropSummary(dropped map[string]int) string {
	total := 0
	reasons := make([]string, 0, len(dropped))
	for reason, n := range dropped {
		if n == 0 {
			continue
		}
		total += n
		reasons = append(reasons, fmt.Sprintf("%s %d", reason, n))
	}
	if total == 0 {
		return "0"
	}
	sort.Strings(reasons)
	return fmt.Sprintf("%d (%s)", total, strings.Join(reasons, ", "))
}

func renderLoad(w io.Writer, res *loadResult) {
	t := newTable(w, "table", "rows")
	for _, c := range res.Counts {
		t.Append([]string{c.Table, strconv.Itoa(c.Rows)})
	}
	t.Render()

	if r := res.Report; r != nil && len(r.Orphans) > 0 {
		fmt.Fprintf(w, "Skipped %d orphan sales (%d missing customer, %d missing product)\n",
			len(r.Orphans), r.MissingCustomers(), r.MissingProducts())
	}
	fmt.Fprintf(w, "Integrity check: %d orphan sales in warehouse\n", res.Orphans)

	if len(res.Sample) > 0 {
		renderSample(w, res.Sample)
	}
}

func renderSample(w io.Writer, sample []warehouse.JoinedSale) {
	str := func(s string) string { return s }
	t := newTable(w, "sale_id", "sale_date", "sale_amount", "name", "region", "product_name", "category")
	for _, s := range sample {
		t.Append([]string{
			s.SaleID,
			deref(s.SaleDate, str),
			deref(s.SaleAmount, money),
			deref(s.Name, str),
			deref(s.Region, str),
			deref(s.ProductName, str),
			deref(s.Category, str),
		})
	}
	t.Render()
}

// renderCube prints the cube's own dimensions plus the metric columns,
// with a grand-total footer.
func renderCube(w io.Writer, c *olap.Cube, limit int) {
	header := make([]string, 0, len(c.Dimensions)+3)
	for _, d := range c.Dimensions {
		header = append(header, string(d))
	}
	header = append(header, "total_sales", "transaction_count", "average_order_value")

	t := newTable(w, header...)
	rows := c.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, r := range rows {
		line := make([]string, 0, len(header))
		for _, d := range c.Dimensions {
			line = append(line, r.Value(d))
		}
		line = append(line,
			money(r.TotalSales),
			strconv.Itoa(r.TransactionCount),
			money(r.AverageOrderValue))
		t.Append(line)
	}

	total, count := c.Totals()
	footer := make([]string, len(header))
	if len(c.Dimensions) > 0 {
		footer[0] = "total"
	}
	footer[len(c.Dimensions)] = money(total)
	footer[len(c.Dimensions)+1] = strconv.Itoa(count)
	if count > 0 {
		footer[len(c.Dimensions)+2] = money(total / float64(count))
	}
	t.SetFooter(footer)
	t.Render()

	if len(rows) < len(c.Rows) {
		fmt.Fprintf(w, "Showing %d of %d rows\n", len(rows), len(c.Rows))
	}
}

func renderPivot(w io.Writer, p *olap.PivotTable) {
	header := append([]string{fmt.Sprintf("%s \\ %s", p.RowDimension, p.ColumnDimension)}, p.ColumnKeys...)
	t := newTable(w, header...)
	for i, key := range p.RowKeys {
		line := []string{key}
		for _, v := range p.Values[i] {
			line = append(line, money(v))
		}
		t.Append(line)
	}
	t.Render()
}

func renderCustomerValue(w io.Writer, rows []olap.CustomerValueRow, limit int) {
	t := newTable(w, "customer_id", "name", "region", "segment", "total_spend", "transactions",
		"average_order_value", "first_purchase", "last_purchase", "tenure_days")
	shown := rows
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, r := range shown {
		t.Append([]string{
			r.CustomerID,
			r.Name,
			r.Region,
			r.Segment,
			money(r.TotalSpend),
			strconv.Itoa(r.Transactions),
			money(r.AverageOrderValue),
			r.FirstPurchase,
			r.LastPurchase,
			deref(r.TenureDays, strconv.Itoa),
		})
	}
	t.Render()

	if len(shown) < len(rows) {
		fmt.Fprintf(w, "Showing %d of %d customers\n", len(shown), len(rows))
	}
}
