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
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pgEdge/pgedge-salescube/internal/config"
	"github.com/pgEdge/pgedge-salescube/internal/datagen"
	"github.com/pgEdge/pgedge-salescube/internal/olap"
	"github.com/pgEdge/pgedge-salescube/internal/prepare"
	"github.com/pgEdge/pgedge-salescube/internal/testutil"
	"github.com/pgEdge/pgedge-salescube/internal/warehouse"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := config.DefaultConfig()
	c.Paths.RawDir = filepath.Join(dir, "raw")
	c.Paths.PreparedDir = filepath.Join(dir, "prepared")
	c.Paths.Warehouse = filepath.Join(dir, "dw", "smart_sales.db")
	return c
}

func TestPrepareOptions(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*config.Config)
		fill     string
		outliers string
		wantErr  bool
	}{
		{"defaults", func(c *config.Config) {}, "mean", "iqr(1.5)", false},
		{"stddev median", func(c *config.Config) {
			c.Cleaning.OutlierMethod = config.OutlierStdDev
			c.Cleaning.NumericFill = "median"
		}, "median", "stddev(3)", false},
		{"bounds", func(c *config.Config) {
			c.Cleaning.OutlierMethod = config.OutlierBounds
			c.Cleaning.LowerBound = 1
			c.Cleaning.UpperBound = 50
		}, "mean", "bounds[1, 50]", false},
		{"bad method", func(c *config.Config) { c.Cleaning.OutlierMethod = "zscore" }, "", "", true},
		{"bad fill", func(c *config.Config) { c.Cleaning.NumericFill = "max" }, "", "", true},
		{"constant fill", func(c *config.Config) { c.Cleaning.NumericFill = "constant" }, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.DefaultConfig()
			tt.modify(c)

			opts, err := prepareOptions(c)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := opts.NumericFill.String(); got != tt.fill {
				t.Errorf("Expected fill %s, got %s", tt.fill, got)
			}
			if got := opts.Outliers.String(); got != tt.outliers {
				t.Errorf("Expected outliers %s, got %s", tt.outliers, got)
			}
			if opts.Placeholder != "unknown" {
				t.Errorf("Expected placeholder 'unknown', got %s", opts.Placeholder)
			}
		})
	}
}

func TestRunPipeline(t *testing.T) {
	c := testConfig(t)
	testutil.WriteRawFixtures(t, c.Paths.RawDir)

	var out bytes.Buffer
	if err := runPipeline(context.Background(), c, &out, pipelineOptions{Report: true}); err != nil {
		t.Fatalf("Pipeline failed: %v\n%s", err, out.String())
	}

	for _, name := range []string{
		warehouse.CustomersFile, warehouse.ProductsFile, warehouse.SalesFile,
		CubeFile, CustomerValueFile,
	} {
		if _, err := os.Stat(filepath.Join(c.Paths.PreparedDir, name)); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
	}
	if _, err := os.Stat(c.Paths.Warehouse); err != nil {
		t.Errorf("Expected warehouse file: %v", err)
	}

	// The orphan sale (C999) is skipped; the invalid-date sale is loaded
	// but left out of the cube.
	ctx := context.Background()
	w, err := openWarehouse(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	sales, err := w.Sales(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var undated int
	for _, s := range sales {
		if s.CustomerID == "C999" {
			t.Error("Orphan sale was loaded")
		}
		if s.SaleDate == nil {
			undated++
		}
	}
	if undated != 1 {
		t.Errorf("Expected 1 undated sale in the warehouse, got %d", undated)
	}

	cube, err := buildCube(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	_, count := cube.Totals()
	if count != len(sales)-undated {
		t.Errorf("Expected %d transactions in the cube, got %d", len(sales)-undated, count)
	}

	if !strings.Contains(out.String(), "Sales by region") {
		t.Errorf("Expected report output, got:\n%s", out.String())
	}
}

func TestRunPipelineGenerated(t *testing.T) {
	c := testConfig(t)
	c.Generate.Customers = 30
	c.Generate.Products = 15
	c.Generate.Sales = 300
	c.Generate.Seed = 7
	c.Generate.DirtyRatio = 0.1

	var out bytes.Buffer
	if err := runPipeline(context.Background(), c, &out, pipelineOptions{Generate: true}); err != nil {
		t.Fatalf("Pipeline failed: %v\n%s", err, out.String())
	}

	f, err := os.Open(filepath.Join(c.Paths.PreparedDir, CubeFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := warehouse.Decode[olap.Row](f)
	if err != nil {
		t.Fatalf("Failed to read cube export: %v", err)
	}
	if len(rows) == 0 {
		t.Error("Expected cube rows")
	}
	for _, r := range rows {
		if r.TransactionCount > 0 && r.AverageOrderValue <= 0 {
			t.Errorf("Row with sales but no average order value: %+v", r)
		}
	}
}

func TestRunPipelineExtremeAmounts(t *testing.T) {
	c := testConfig(t)
	c.Generate.Customers = 40
	c.Generate.Products = 20
	c.Generate.Sales = 400
	c.Generate.Seed = 11
	c.Generate.DirtyRatio = 0.4
	c.Cleaning.NumericFill = "median"

	summary, err := generateStage(c)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// Add a sale whose amount is an infinity token.
	path := filepath.Join(c.Paths.RawDir, datagen.SalesFile)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	header, _, _ := strings.Cut(string(data), "\n")
	values := map[string]string{
		"TransactionID": "INF-1",
		"SaleDate":      "2024-06-01",
		"CustomerID":    "C0001",
		"ProductID":     "P0001",
		"SaleAmount":    "Infinity",
	}
	cols := strings.Split(header, ",")
	fields := make([]string, len(cols))
	for i, col := range cols {
		fields[i] = values[strings.TrimSpace(col)]
	}
	data = append(data, []byte(strings.Join(fields, ",")+"\n")...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if err := runPipeline(context.Background(), c, &bytes.Buffer{}, pipelineOptions{}); err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}

	ds, err := warehouse.ReadDataset(c.Paths.PreparedDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Sales) < summary.Sales/2 {
		t.Errorf("Expected most sales to survive preparation, got %d of %d", len(ds.Sales), summary.Sales)
	}
	var found bool
	for _, s := range ds.Sales {
		if math.IsInf(s.SaleAmount, 0) || math.IsNaN(s.SaleAmount) || s.SaleAmount < 0 {
			t.Errorf("Prepared sale %s has amount %v", s.SaleID, s.SaleAmount)
		}
		if s.SaleID == "INF-1" {
			found = true
		}
	}
	if !found {
		t.Error("Expected the sale with an infinite amount to be kept with a filled amount")
	}

	cube, err := buildCube(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range cube.Rows {
		if math.IsInf(r.TotalSales, 0) || math.IsNaN(r.AverageOrderValue) {
			t.Errorf("Non-finite cube row: %+v", r)
		}
	}
}

func TestRunPipelineMissingRawFile(t *testing.T) {
	c := testConfig(t)
	testutil.WriteFile(t, c.Paths.RawDir, "customers_data.csv", testutil.RawCustomers)

	err := runPipeline(context.Background(), c, &bytes.Buffer{}, pipelineOptions{})
	if err == nil {
		t.Fatal("Expected error for missing raw files")
	}
	var stageErr *prepare.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Expected StageError, got %T: %v", err, err)
	}
	if stageErr.Stage != prepare.StageLoad {
		t.Errorf("Expected load stage, got %s", stageErr.Stage)
	}
	if !strings.HasPrefix(err.Error(), "prepare: ") {
		t.Errorf("Expected error prefixed with the failing stage, got %v", err)
	}
}

func TestRunPipelineFailOnOrphans(t *testing.T) {
	c := testConfig(t)
	c.Warehouse.FailOnOrphans = true
	testutil.WriteRawFixtures(t, c.Paths.RawDir)

	err := runPipeline(context.Background(), c, &bytes.Buffer{}, pipelineOptions{})
	var orphanErr *warehouse.OrphanReferenceError
	if !errors.As(err, &orphanErr) {
		t.Fatalf("Expected OrphanReferenceError, got %v", err)
	}
	if len(orphanErr.Orphans) != 1 || orphanErr.Orphans[0].CustomerID != "C999" {
		t.Errorf("Unexpected orphans: %+v", orphanErr.Orphans)
	}
}

func TestRenderCube(t *testing.T) {
	cube := &olap.Cube{
		Dimensions: []olap.Dimension{olap.Region},
		Rows: []olap.Row{
			{Region: "north", TotalSales: 150, TransactionCount: 2, AverageOrderValue: 75},
			{Region: "south", TotalSales: 50, TransactionCount: 1, AverageOrderValue: 50},
		},
	}

	var buf bytes.Buffer
	renderCube(&buf, cube, 1)
	got := buf.String()

	if !strings.Contains(got, "north") || strings.Contains(got, "south") {
		t.Errorf("Expected only the first row, got:\n%s", got)
	}
	if !strings.Contains(got, "200.00") {
		t.Errorf("Expected grand total in footer, got:\n%s", got)
	}
	if !strings.Contains(got, "Showing 1 of 2 rows") {
		t.Errorf("Expected truncation note, got:\n%s", got)
	}
}

func TestDropSummary(t *testing.T) {
	tests := []struct {
		input    map[string]int
		expected string
	}{
		{nil, "0"},
		{map[string]int{prepare.ReasonOutlier: 0}, "0"},
		{map[string]int{prepare.ReasonDuplicate: 2, prepare.ReasonOutlier: 1}, "3 (duplicate_key 2, outlier 1)"},
	}

	for _, tt := range tests {
		if got := dropSummary(tt.input); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}

func TestParsePredicates(t *testing.T) {
	preds, err := parsePredicates([]string{"year=2025", "region=north"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(preds) != 2 || preds[1].Dimension != olap.Region {
		t.Errorf("Unexpected predicates: %+v", preds)
	}

	if _, err := parsePredicates([]string{"year=2025", "colour=red"}); err == nil {
		t.Error("Expected error for unknown dimension")
	}
}
