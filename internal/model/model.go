//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package model defines the typed rows of the star schema. Field tags
// serve both the prepared CSV snapshots (csv) and the warehouse (db).
package model

// Customer is a row of the customer dimension.
type Customer struct {
	CustomerID string  `csv:"customer_id" db:"customer_id"`
	Name       string  `csv:"name" db:"name"`
	Region     string  `csv:"region" db:"region"`
	JoinDate   *string `csv:"join_date,omitempty" db:"join_date"`
}

// Product is a row of the product dimension.
type Product struct {
	ProductID   string  `csv:"product_id" db:"product_id"`
	ProductName string  `csv:"product_name" db:"product_name"`
	Category    string  `csv:"category" db:"category"`
	UnitPrice   float64 `csv:"unit_price" db:"unit_price"`
}

// Sale is a row of the sale fact table. SaleDate is nil when the raw
// value could not be parsed.
type Sale struct {
	SaleID     string  `csv:"sale_id" db:"sale_id"`
	CustomerID string  `csv:"customer_id" db:"customer_id"`
	ProductID  string  `csv:"product_id" db:"product_id"`
	SaleAmount float64 `csv:"sale_amount" db:"sale_amount"`
	SaleDate   *string `csv:"sale_date,omitempty" db:"sale_date"`
}
