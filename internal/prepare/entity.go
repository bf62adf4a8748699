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
	"fmt"
	"sort"
	"sync"

	"github.com/pgEdge/pgedge-salescube/internal/scrub"
)

// Kind is the value type of a column.
type Kind int

const (
	Text Kind = iota
	Numeric
	Date
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Date:
		return "date"
	default:
		return "text"
	}
}

// ColumnSpec describes one canonical column of an entity.
type ColumnSpec struct {
	// Name is the canonical column name written to the prepared snapshot.
	Name string

	// Aliases are the raw header names accepted for this column, tried in
	// order and compared case-insensitively.
	Aliases []string

	Kind Kind

	// Required columns abort the stage when absent. Optional columns are
	// skipped.
	Required bool

	// Key columns must be present on every row; rows missing one are dropped.
	Key bool

	// Lowercase applies to text columns only.
	Lowercase bool

	// Fill overrides the default fill strategy for the column's kind.
	Fill scrub.FillStrategy

	// Outliers enables outlier removal on a numeric column.
	Outliers bool

	// NonNegative drops rows with a negative value.
	NonNegative bool
}

// EntitySpec describes how one raw table is prepared.
type EntitySpec struct {
	// Name identifies the entity (customer, product, sale).
	Name string

	// RawFile and PreparedFile are file names relative to the raw and
	// prepared directories.
	RawFile      string
	PreparedFile string

	// NaturalKey is the column used for deduplication.
	NaturalKey string

	Columns []ColumnSpec
}

// Candidates returns the aliases of c followed by its canonical name.
func (c ColumnSpec) Candidates() []string {
	return append(append([]string(nil), c.Aliases...), c.Name)
}

var (
	registry = make(map[string]EntitySpec)
	mu       sync.RWMutex
)

// Register adds an entity spec to the registry.
func Register(spec EntitySpec) {
	mu.Lock()
	defer mu.Unlock()
	registry[spec.Name] = spec
}

// Get retrieves an entity spec by name.
func Get(name string) (EntitySpec, error) {
	mu.RLock()
	defer mu.RUnlock()

	spec, ok := registry[name]
	if !ok {
		return EntitySpec{}, fmt.Errorf("unknown entity: %s", name)
	}
	return spec, nil
}

// List returns all registered entity names in sorted order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(EntitySpec{
		Name:         "customer",
		RawFile:      "customers_data.csv",
		PreparedFile: "customers_prepared.csv",
		NaturalKey:   "customer_id",
		Columns: []ColumnSpec{
			{Name: "customer_id", Aliases: []string{"CustomerID", "Customer ID", "CustID"}, Required: true, Key: true},
			{Name: "name", Aliases: []string{"Name", "FullName", "Full Name", "CustomerName", "Customer Name"}, Required: true},
			{Name: "region", Aliases: []string{"Region", "Area"}, Required: true, Lowercase: true},
			{Name: "join_date", Aliases: []string{"JoinDate", "Join Date", "SignupDate"}, Kind: Date},
			{Name: "loyalty_points", Aliases: []string{"LoyaltyPoints", "Loyalty Points"}, Kind: Numeric, Fill: scrub.Median{}, Outliers: true},
			{Name: "customer_segment", Aliases: []string{"CustomerSegment", "Segment"}, Lowercase: true},
		},
	})

	Register(EntitySpec{
		Name:         "product",
		RawFile:      "products_data.csv",
		PreparedFile: "products_prepared.csv",
		NaturalKey:   "product_id",
		Columns: []ColumnSpec{
			{Name: "product_id", Aliases: []string{"ProductID", "Product ID"}, Required: true, Key: true},
			{Name: "product_name", Aliases: []string{"ProductName", "Product Name", "Name"}, Required: true},
			{Name: "category", Aliases: []string{"Category", "ProductCategory"}, Required: true, Lowercase: true},
			{Name: "unit_price", Aliases: []string{"UnitPrice", "Unit Price", "Price"}, Kind: Numeric, Required: true, Outliers: true, NonNegative: true},
			{Name: "stock_quantity", Aliases: []string{"StockQuantity", "stock quantity", "Stock"}, Kind: Numeric, NonNegative: true},
			{Name: "supplier", Aliases: []string{"Supplier"}},
		},
	})

	Register(EntitySpec{
		Name:         "sale",
		RawFile:      "sales_data.csv",
		PreparedFile: "sales_prepared.csv",
		NaturalKey:   "sale_id",
		Columns: []ColumnSpec{
			{Name: "sale_id", Aliases: []string{"TransactionID", "Transaction ID", "SaleID", "Sale ID"}, Required: true, Key: true},
			{Name: "customer_id", Aliases: []string{"CustomerID", "Customer ID", "CustID"}, Required: true, Key: true},
			{Name: "product_id", Aliases: []string{"ProductID", "Product ID"}, Required: true, Key: true},
			{Name: "sale_amount", Aliases: []string{"SaleAmount", "Sale Amount", "Amount"}, Kind: Numeric, Required: true, Outliers: true, NonNegative: true},
			{Name: "sale_date", Aliases: []string{"SaleDate", "Sale Date", "Date"}, Kind: Date, Required: true},
			{Name: "quantity", Aliases: []string{"Quantity", "Qty"}, Kind: Numeric, NonNegative: true},
			{Name: "discount_percent", Aliases: []string{"DiscountPercent", "Discount Percent", "Discount"}, Kind: Numeric, Fill: scrub.Constant{Value: "0"}},
			{Name: "payment_type", Aliases: []string{"PaymentType", "Payment Type"}, Lowercase: true, Fill: scrub.Mode{}},
		},
	})
}
