//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package prepare

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pgEdge/pgedge-salescube/internal/scrub"
	"github.com/pgEdge/pgedge-salescube/internal/table"
)

const rawCustomers = `CustomerID,Name,Region,JoinDate,LoyaltyPoints
C001, Alice ,North,2021-01-05,100
C002,Bob,,2022-13-01,200
C001,Alice Dup,South,2021-02-01,150
,Nobody,East,2020-01-01,50
C003,Cara,EAST,2023-03-03,
`

const rawSales = `TransactionID,SaleDate,CustomerID,ProductID,SaleAmount,PaymentType
1,2024-01-05,C001,P1,10,card
2,2023-13-01,C002,P1,12,
3,2024-02-05,C003,P2,11,cash
4,2024-03-05,C001,P2,abc,card
5,2024-03-06,C001,P2,13,card
`

func newPipeline(raw, prepared string) *Pipeline {
	return &Pipeline{
		RawDir:      raw,
		PreparedDir: prepared,
		Options:     DefaultOptions(),
		Log:         zerolog.Nop(),
	}
}

func readTable(t *testing.T, name, data string) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(name, strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	return tbl
}

func mustSpec(t *testing.T, name string) EntitySpec {
	t.Helper()
	spec, err := Get(name)
	if err != nil {
		t.Fatalf("Get(%s) failed: %v", name, err)
	}
	return spec
}

func TestRegistry(t *testing.T) {
	names := List()
	expected := []string{"customer", "product", "sale"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %d entities, got %d: %v", len(expected), len(names), names)
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("Expected entity %d to be '%s', got '%s'", i, name, names[i])
		}
	}

	if _, err := Get("supplier"); err == nil {
		t.Error("Expected error for unknown entity")
	}
}

func TestPrepareCustomers(t *testing.T) {
	p := newPipeline("", "")
	out, report, err := p.Prepare(mustSpec(t, "customer"), readTable(t, "customer", rawCustomers))
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if out.Len() != 3 {
		t.Fatalf("Expected 3 rows, got %d", out.Len())
	}

	// Duplicate C001 keeps the first occurrence.
	count := 0
	for i := 0; i < out.Len(); i++ {
		if out.Get(i, "customer_id").S == "C001" {
			count++
			if got := out.Get(i, "region").S; got != "north" {
				t.Errorf("Expected first C001 region 'north', got '%s'", got)
			}
			if got := out.Get(i, "name").S; got != "Alice" {
				t.Errorf("Expected trimmed name 'Alice', got '%s'", got)
			}
		}
	}
	if count != 1 {
		t.Errorf("Expected exactly one C001 row, got %d", count)
	}

	if got := out.Get(1, "region").S; got != "unknown" {
		t.Errorf("Expected placeholder region 'unknown', got '%s'", got)
	}
	if out.Get(1, "join_date").Valid {
		t.Error("Expected invalid join_date to be missing")
	}
	if got := out.Get(2, "loyalty_points").S; got != "150" {
		t.Errorf("Expected median fill '150', got '%s'", got)
	}
	if got := out.Get(2, "region").S; got != "east" {
		t.Errorf("Expected lowercased region 'east', got '%s'", got)
	}

	if report.RowsRead != 5 || report.RowsWritten != 3 {
		t.Errorf("Expected 5 read and 3 written, got %d and %d", report.RowsRead, report.RowsWritten)
	}
	if report.Dropped[ReasonMissingKey] != 1 {
		t.Errorf("Expected 1 row dropped for missing key, got %d", report.Dropped[ReasonMissingKey])
	}
	if report.Dropped[ReasonDuplicate] != 1 {
		t.Errorf("Expected 1 duplicate dropped, got %d", report.Dropped[ReasonDuplicate])
	}
	if report.DroppedTotal() != report.RowsRead-report.RowsWritten {
		t.Errorf("Dropped total %d does not account for %d lost rows",
			report.DroppedTotal(), report.RowsRead-report.RowsWritten)
	}
	if report.Unparseable["join_date"] != 1 {
		t.Errorf("Expected 1 unparseable join_date, got %d", report.Unparseable["join_date"])
	}
	if len(report.Missing) != 1 || report.Missing[0] != "customer_segment" {
		t.Errorf("Expected customer_segment reported missing, got %v", report.Missing)
	}

	expectedCols := []string{"customer_id", "name", "region", "join_date", "loyalty_points"}
	cols := out.Columns()
	if len(cols) != len(expectedCols) {
		t.Fatalf("Expected columns %v, got %v", expectedCols, cols)
	}
	for i, c := range expectedCols {
		if cols[i] != c {
			t.Errorf("Expected column %d '%s', got '%s'", i, c, cols[i])
		}
	}
}

func TestPrepareSales(t *testing.T) {
	p := newPipeline("", "")
	out, report, err := p.Prepare(mustSpec(t, "sale"), readTable(t, "sale", rawSales))
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if out.Len() != 5 {
		t.Fatalf("Expected 5 rows, got %d", out.Len())
	}

	// The invalid date is kept as missing rather than dropping the sale.
	if out.Get(1, "sale_id").S != "2" || out.Get(1, "sale_date").Valid {
		t.Errorf("Expected sale 2 kept with missing date, got %+v", out.Row(1))
	}
	if got := out.Get(3, "sale_amount").S; got != "11.5" {
		t.Errorf("Expected mean fill '11.5', got '%s'", got)
	}
	if got := out.Get(1, "payment_type").S; got != "card" {
		t.Errorf("Expected mode fill 'card', got '%s'", got)
	}
	if report.Unparseable["sale_date"] != 1 || report.Unparseable["sale_amount"] != 1 {
		t.Errorf("Unexpected unparseable counts: %v", report.Unparseable)
	}
}

func TestPrepareSalesNonFiniteAmount(t *testing.T) {
	raw := `TransactionID,SaleDate,CustomerID,ProductID,SaleAmount
1,2024-01-05,C001,P1,10
2,2024-01-06,C001,P1,12
3,2024-01-07,C002,P1,14
4,2024-01-08,C002,P2,16
5,2024-01-09,C003,P2,Infinity
6,2024-01-10,C003,P2,
`
	methods := []scrub.OutlierMethod{
		scrub.IQR{Multiplier: 1.5},
		scrub.StdDev{Multiplier: 3},
	}

	for _, method := range methods {
		t.Run(method.String(), func(t *testing.T) {
			p := newPipeline("", "")
			p.Options.Outliers = method

			out, report, err := p.Prepare(mustSpec(t, "sale"), readTable(t, "sale", raw))
			if err != nil {
				t.Fatalf("Prepare failed: %v", err)
			}
			if out.Len() != 6 {
				t.Errorf("Expected all 6 rows kept, got %d (dropped %v)", out.Len(), report.Dropped)
			}
			if report.Unparseable["sale_amount"] != 1 {
				t.Errorf("Expected Infinity counted as unparseable, got %v", report.Unparseable)
			}
			for i := 0; i < out.Len(); i++ {
				if _, ok := scrub.ParseFloat(out.Get(i, "sale_amount")); !ok {
					t.Errorf("Row %d has non-numeric amount %+v", i, out.Get(i, "sale_amount"))
				}
			}
			if got := out.Get(4, "sale_amount").S; got != "13" {
				t.Errorf("Expected Infinity replaced by the mean '13', got '%s'", got)
			}
		})
	}
}

func TestPrepareOutliersAndNegatives(t *testing.T) {
	raw := `ProductID,ProductName,Category,UnitPrice
P1,Shirt,Clothing,20
P2,Lamp,Home,22
P3,Desk,Home,21
P4,Sofa,Home,23
P5,Gold,Home,9000
P6,Broken,Home,-1
`
	p := newPipeline("", "")
	p.Options.Outliers = nil

	out, report, err := p.Prepare(mustSpec(t, "product"), readTable(t, "product", raw))
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	for i := 0; i < out.Len(); i++ {
		id := out.Get(i, "product_id").S
		if id == "P5" || id == "P6" {
			t.Errorf("Expected %s to be removed", id)
		}
	}
	if report.Dropped[ReasonOutlier]+report.Dropped[ReasonNegative] != 2 {
		t.Errorf("Expected 2 rows removed by outlier and validation stages, got %v", report.Dropped)
	}
	if got := out.Get(0, "category").S; got != "clothing" {
		t.Errorf("Expected lowercased category, got '%s'", got)
	}
}

func TestPrepareMissingRequiredColumn(t *testing.T) {
	raw := "TransactionID,SaleDate,CustomerID,ProductID\n1,2024-01-01,C1,P1\n"

	p := newPipeline("", "")
	_, _, err := p.Prepare(mustSpec(t, "sale"), readTable(t, "sale", raw))

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StageError, got %v", err)
	}
	if se.Stage != StageDetect || se.Table != "sale" {
		t.Errorf("Expected detect/sale, got %s/%s", se.Stage, se.Table)
	}
	var mc *table.MissingColumnError
	if !errors.As(err, &mc) || mc.Column != "sale_amount" {
		t.Errorf("Expected missing sale_amount, got %v", err)
	}
}

func TestRunWritesPreparedFiles(t *testing.T) {
	rawDir := t.TempDir()
	preparedDir := filepath.Join(t.TempDir(), "prepared")

	if err := os.WriteFile(filepath.Join(rawDir, "customers_data.csv"), []byte(rawCustomers), 0644); err != nil {
		t.Fatalf("Failed to write raw file: %v", err)
	}

	reports, err := newPipeline(rawDir, preparedDir).Run("customer")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(reports))
	}

	out, err := table.ReadCSVFile("customer", filepath.Join(preparedDir, "customers_prepared.csv"))
	if err != nil {
		t.Fatalf("Failed to read prepared file: %v", err)
	}
	if out.Len() != 3 {
		t.Errorf("Expected 3 prepared rows, got %d", out.Len())
	}
	if reports[0].Output != filepath.Join(preparedDir, "customers_prepared.csv") {
		t.Errorf("Unexpected output path %s", reports[0].Output)
	}
	last := reports[0].Stages[len(reports[0].Stages)-1]
	if last.Stage != StageWrite {
		t.Errorf("Expected last stage 'write', got '%s'", last.Stage)
	}
}

func TestRunEmptyTable(t *testing.T) {
	rawDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(rawDir, "products_data.csv"), []byte("ProductID,ProductName\n"), 0644); err != nil {
		t.Fatalf("Failed to write raw file: %v", err)
	}

	_, err := newPipeline(rawDir, t.TempDir()).Run("product")

	var empty *EmptyTableError
	if !errors.As(err, &empty) {
		t.Fatalf("Expected EmptyTableError, got %v", err)
	}
	if empty.Table != "product" {
		t.Errorf("Expected table 'product', got '%s'", empty.Table)
	}
}

func TestRunMissingFile(t *testing.T) {
	_, err := newPipeline(t.TempDir(), t.TempDir()).Run("sale")

	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageLoad {
		t.Fatalf("Expected load StageError, got %v", err)
	}
}
