//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

// Tables in dependency order.
var tables = []string{"customer", "product", "sale"}

// dropStatements run in reverse dependency order.
var dropStatements = []string{
	"DROP TABLE IF EXISTS sale",
	"DROP TABLE IF EXISTS product",
	"DROP TABLE IF EXISTS customer",
}

var schemaStatements = []string{
	`CREATE TABLE customer (
    customer_id TEXT PRIMARY KEY,
    name        TEXT,
    region      TEXT,
    join_date   TEXT
)`,
	`CREATE TABLE product (
    product_id   TEXT PRIMARY KEY,
    product_name TEXT,
    category     TEXT,
    unit_price   DOUBLE PRECISION
)`,
	`CREATE TABLE sale (
    sale_id     TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL REFERENCES customer (customer_id),
    product_id  TEXT NOT NULL REFERENCES product (product_id),
    sale_amount DOUBLE PRECISION,
    sale_date   TEXT
)`,
	"CREATE INDEX idx_sale_customer ON sale (customer_id)",
	"CREATE INDEX idx_sale_product ON sale (product_id)",
	"CREATE INDEX idx_sale_date ON sale (sale_date)",
}

const insertCustomerSQL = `
INSERT INTO customer (customer_id, name, region, join_date)
VALUES (:customer_id, :name, :region, :join_date)`

const insertProductSQL = `
INSERT INTO product (product_id, product_name, category, unit_price)
VALUES (:product_id, :product_name, :category, :unit_price)`

const insertSaleSQL = `
INSERT INTO sale (sale_id, customer_id, product_id, sale_amount, sale_date)
VALUES (:sale_id, :customer_id, :product_id, :sale_amount, :sale_date)`
