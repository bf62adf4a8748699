//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewFaker(t *testing.T) {
	f := NewFakerWithSeed(42)
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFakerWithSeed(42)
	for i := 0; i < 100; i++ {
		v := f.Int(10, 20)
		if v < 10 || v > 20 {
			t.Errorf("Int(10, 20) returned %d, out of range", v)
		}
	}
}

func TestFakerPrice(t *testing.T) {
	f := NewFakerWithSeed(42)
	for i := 0; i < 100; i++ {
		p := f.Price(5, 500)
		if p < 5 || p > 500 {
			t.Errorf("Price(5, 500) returned %f, out of range", p)
		}
	}
}

func TestFakerDateRange(t *testing.T) {
	f := NewFakerWithSeed(42)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		d := f.DateRange(start, end)
		if d.Before(start) || d.After(end) {
			t.Errorf("DateRange returned %v, outside %v..%v", d, start, end)
		}
	}
}

func TestFakerChance(t *testing.T) {
	f := NewFakerWithSeed(42)
	for i := 0; i < 20; i++ {
		if f.Chance(0) {
			t.Error("Chance(0) returned true")
		}
		if !f.Chance(1) {
			t.Error("Chance(1) returned false")
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFakerWithSeed(42)
	items := []string{"a", "b", "c"}

	for i := 0; i < 50; i++ {
		v := Choose(f, items)
		if v != "a" && v != "b" && v != "c" {
			t.Errorf("Choose returned unexpected value %q", v)
		}
	}

	if v := Choose(f, []string{}); v != "" {
		t.Errorf("Choose on empty slice returned %q", v)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFakerWithSeed(42)

	// A zero weight is never chosen
	for i := 0; i < 100; i++ {
		if v := ChooseWeighted(f, []string{"never", "always"}, []int{0, 10}); v != "always" {
			t.Fatalf("Expected 'always', got %q", v)
		}
	}

	if v := ChooseWeighted(f, []int{}, []int{}); v != 0 {
		t.Errorf("ChooseWeighted on empty slice returned %d", v)
	}
}

func TestMessy(t *testing.T) {
	f := NewFakerWithSeed(7)
	for i := 0; i < 50; i++ {
		v := f.Messy("north")
		if !strings.EqualFold(strings.TrimSpace(v), "north") {
			t.Errorf("Messy changed more than case and whitespace: %q", v)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0.00"},
		{19.999, "20.00"},
		{1234.5, "1234.50"},
		{-3.456, "-3.46"},
	}

	for _, tt := range tests {
		if got := FormatMoney(tt.input); got != tt.expected {
			t.Errorf("FormatMoney(%v): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.input); got != tt.expected {
			t.Errorf("FormatSize(%d): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func readRecords(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", path, err)
	}
	return records
}

func TestGeneratorClean(t *testing.T) {
	dir := t.TempDir()
	g := &Generator{Customers: 20, Products: 10, Sales: 100, Seed: 42, Log: zerolog.Nop()}

	summary, err := g.Write(dir)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if summary.DefectTotal() != 0 {
		t.Errorf("Expected no defects with a zero dirty ratio, got %v", summary.Defects)
	}
	if len(summary.Files) != 3 {
		t.Errorf("Expected 3 files, got %d", len(summary.Files))
	}

	sales := readRecords(t, filepath.Join(dir, SalesFile))
	if len(sales) != 101 {
		t.Fatalf("Expected header and 100 sales, got %d records", len(sales))
	}
	expectedHeader := "TransactionID,SaleDate,CustomerID,ProductID,StoreID,CampaignID,SaleAmount,DiscountPercent,PaymentType"
	if got := strings.Join(sales[0], ","); got != expectedHeader {
		t.Errorf("Expected header %s, got %s", expectedHeader, got)
	}
	for _, rec := range sales[1:] {
		if _, err := time.Parse(time.DateOnly, rec[1]); err != nil {
			t.Errorf("Clean sale has invalid date %q", rec[1])
		}
		if rec[2] > customerID(20) {
			t.Errorf("Clean sale references unknown customer %s", rec[2])
		}
	}

	customers := readRecords(t, filepath.Join(dir, CustomersFile))
	if len(customers) != 21 {
		t.Errorf("Expected header and 20 customers, got %d records", len(customers))
	}
	if customers[0][0] != "CustomerID" {
		t.Errorf("Expected CustomerID header, got %s", customers[0][0])
	}
}

func TestGeneratorDirty(t *testing.T) {
	g := &Generator{Customers: 50, Products: 20, Sales: 500, DirtyRatio: 1, Seed: 42, Log: zerolog.Nop()}

	summary, err := g.Write(t.TempDir())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if summary.Defects[DefectInvalidDate] == 0 {
		t.Error("Expected invalid dates with a dirty ratio of 1")
	}
	if summary.Defects[DefectOrphan] == 0 {
		t.Error("Expected orphan references with a dirty ratio of 1")
	}
	if summary.Sales < 500 {
		t.Errorf("Expected at least 500 sale rows, got %d", summary.Sales)
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	for _, dir := range []string{dir1, dir2} {
		g := &Generator{Customers: 10, Products: 5, Sales: 50, DirtyRatio: 0.3, Seed: 99, Log: zerolog.Nop()}
		if _, err := g.Write(dir); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	for _, name := range []string{CustomersFile, ProductsFile, SalesFile} {
		a, err := os.ReadFile(filepath.Join(dir1, name))
		if err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(filepath.Join(dir2, name))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("%s differs between runs with the same seed", name)
		}
	}
}

func TestGeneratorInvalidCounts(t *testing.T) {
	g := &Generator{Customers: 0, Products: 1, Sales: 1, Log: zerolog.Nop()}
	if _, err := g.Write(t.TempDir()); err == nil {
		t.Error("Expected error for zero customers")
	}
}
