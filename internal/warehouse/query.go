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

	"github.com/pgEdge/pgedge-salescube/internal/model"
)

// IntegrityCheck returns the number of sales whose customer or product
// does not resolve to a dimension row.
func (w *Warehouse) IntegrityCheck(ctx context.Context) (int, error) {
	var n int
	err := w.db.GetContext(ctx, &n, `
        SELECT COUNT(*)
        FROM sale s
        LEFT JOIN customer c ON c.customer_id = s.customer_id
        LEFT JOIN product p ON p.product_id = s.product_id
        WHERE c.customer_id IS NULL OR p.product_id IS NULL
    `)
	if err != nil {
		return 0, fmt.Errorf("integrity check failed: %w", err)
	}
	return n, nil
}

// TableCount is the row count of one table.
type TableCount struct {
	Table string
	Rows  int
}

// RowCounts returns the row count of each star-schema table.
func (w *Warehouse) RowCounts(ctx context.Context) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(tables))
	for _, name := range tables {
		var n int
		// Table names come from a fixed list.
		if err := w.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+name); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}
		counts = append(counts, TableCount{Table: name, Rows: n})
	}
	return counts, nil
}

// JoinedSale is a sale with its customer and product attributes.
type JoinedSale struct {
	SaleID      string   `db:"sale_id"`
	SaleDate    *string  `db:"sale_date"`
	SaleAmount  *float64 `db:"sale_amount"`
	Name        *string  `db:"name"`
	Region      *string  `db:"region"`
	ProductName *string  `db:"product_name"`
	Category    *string  `db:"category"`
}

// SampleJoin returns up to limit sales joined to their dimensions.
func (w *Warehouse) SampleJoin(ctx context.Context, limit int) ([]JoinedSale, error) {
	var rows []JoinedSale
	err := w.db.SelectContext(ctx, &rows, w.db.Rebind(`
        SELECT s.sale_id, s.sale_date, s.sale_amount,
               c.name, c.region, p.product_name, p.category
        FROM sale s
        LEFT JOIN customer c ON c.customer_id = s.customer_id
        LEFT JOIN product p ON p.product_id = s.product_id
        ORDER BY s.sale_id
        LIMIT ?
    `), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to sample join: %w", err)
	}
	return rows, nil
}

// Customers returns all customers ordered by id.
func (w *Warehouse) Customers(ctx context.Context) ([]model.Customer, error) {
	var rows []model.Customer
	err := w.db.SelectContext(ctx, &rows, `
        SELECT customer_id, COALESCE(name, '') AS name, COALESCE(region, '') AS region, join_date
        FROM customer ORDER BY customer_id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to read customers: %w", err)
	}
	return rows, nil
}

// Products returns all products ordered by id.
func (w *Warehouse) Products(ctx context.Context) ([]model.Product, error) {
	var rows []model.Product
	err := w.db.SelectContext(ctx, &rows, `
        SELECT product_id, COALESCE(product_name, '') AS product_name,
               COALESCE(category, '') AS category, COALESCE(unit_price, 0) AS unit_price
        FROM product ORDER BY product_id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return rows, nil
}

// Sales returns all sales ordered by id.
func (w *Warehouse) Sales(ctx context.Context) ([]model.Sale, error) {
	var rows []model.Sale
	err := w.db.SelectContext(ctx, &rows, `
        SELECT sale_id, customer_id, product_id,
               COALESCE(sale_amount, 0) AS sale_amount, sale_date
        FROM sale ORDER BY sale_id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to read sales: %w", err)
	}
	return rows, nil
}
