//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pgEdge/pgedge-salescube/internal/model"
)

// Dataset is the content of one load.
type Dataset struct {
	Customers []model.Customer
	Products  []model.Product
	Sales     []model.Sale
}

// Orphan is a sale whose customer or product does not exist.
type Orphan struct {
	SaleID          string
	CustomerID      string
	ProductID       string
	MissingCustomer bool
	MissingProduct  bool
}

// OrphanReferenceError is returned by Load when orphans are found and
// FailOnOrphans is set.
type OrphanReferenceError struct {
	Orphans []Orphan
}

func (e *OrphanReferenceError) Error() string {
	customers, products := countOrphans(e.Orphans)
	return fmt.Sprintf("%d sales reference missing dimension rows (%d missing customer, %d missing product)",
		len(e.Orphans), customers, products)
}

// LoadReport describes the outcome of a load.
type LoadReport struct {
	Customers int
	Products  int
	Sales     int

	// Orphans are the sales not loaded because a reference did not resolve.
	Orphans []Orphan
}

// MissingCustomers returns the number of orphans without a customer.
func (r *LoadReport) MissingCustomers() int {
	c, _ := countOrphans(r.Orphans)
	return c
}

// MissingProducts returns the number of orphans without a product.
func (r *LoadReport) MissingProducts() int {
	_, p := countOrphans(r.Orphans)
	return p
}

func countOrphans(orphans []Orphan) (customers, products int) {
	for _, o := range orphans {
		if o.MissingCustomer {
			customers++
		}
		if o.MissingProduct {
			products++
		}
	}
	return customers, products
}

// Partition splits sales into those whose references resolve against
// the dataset's dimensions and the orphans.
func Partition(ds *Dataset) ([]model.Sale, []Orphan) {
	customers := make(map[string]bool, len(ds.Customers))
	for _, c := range ds.Customers {
		customers[c.CustomerID] = true
	}
	products := make(map[string]bool, len(ds.Products))
	for _, p := range ds.Products {
		products[p.ProductID] = true
	}

	valid := make([]model.Sale, 0, len(ds.Sales))
	var orphans []Orphan
	for _, s := range ds.Sales {
		o := Orphan{
			SaleID:          s.SaleID,
			CustomerID:      s.CustomerID,
			ProductID:       s.ProductID,
			MissingCustomer: !customers[s.CustomerID],
			MissingProduct:  !products[s.ProductID],
		}
		if o.MissingCustomer || o.MissingProduct {
			orphans = append(orphans, o)
			continue
		}
		valid = append(valid, s)
	}
	return valid, orphans
}

// Load recreates the schema and inserts the dataset in one transaction.
// Running it twice with the same dataset produces the same contents.
func (w *Warehouse) Load(ctx context.Context, ds *Dataset) (*LoadReport, error) {
	sales, orphans := Partition(ds)
	report := &LoadReport{Orphans: orphans}

	if len(orphans) > 0 {
		w.Log.Warn().
			Int("orphans", len(orphans)).
			Int("missing_customer", report.MissingCustomers()).
			Int("missing_product", report.MissingProducts()).
			Msg("Sales reference missing dimension rows")
		for _, o := range orphans {
			w.Log.Debug().
				Str("sale_id", o.SaleID).
				Str("customer_id", o.CustomerID).
				Str("product_id", o.ProductID).
				Bool("missing_customer", o.MissingCustomer).
				Bool("missing_product", o.MissingProduct).
				Msg("Orphan sale")
		}
		if w.FailOnOrphans {
			return report, &OrphanReferenceError{Orphans: orphans}
		}
	}

	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range dropStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to drop tables: %w", err)
		}
	}
	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if report.Customers, err = insertAll(ctx, tx, insertCustomerSQL, ds.Customers); err != nil {
		return nil, fmt.Errorf("failed to insert customers: %w", err)
	}
	if report.Products, err = insertAll(ctx, tx, insertProductSQL, ds.Products); err != nil {
		return nil, fmt.Errorf("failed to insert products: %w", err)
	}
	if report.Sales, err = insertAll(ctx, tx, insertSaleSQL, sales); err != nil {
		return nil, fmt.Errorf("failed to insert sales: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit load: %w", err)
	}

	w.Log.Info().
		Int("customers", report.Customers).
		Int("products", report.Products).
		Int("sales", report.Sales).
		Int("orphans", len(orphans)).
		Msg("Loaded warehouse")

	if err := w.SaveMetadata(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}

func insertAll[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i := range rows {
		if _, err := stmt.ExecContext(ctx, &rows[i]); err != nil {
			return i, err
		}
	}
	return len(rows), nil
}
