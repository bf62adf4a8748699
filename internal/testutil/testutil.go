//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package testutil provides fixtures and integration-test helpers.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
)

const (
	// DefaultTestConnString is the default connection string for tests.
	// Override with PGEDGE_TEST_CONN environment variable.
	DefaultTestConnString = "postgres://postgres@localhost:5432/postgres"

	// TestDBPrefix is the prefix for test databases.
	TestDBPrefix = "salescube_test_"
)

// PostgresAvailable checks if PostgreSQL is available for testing.
// Returns the connection string if available, empty string otherwise.
func PostgresAvailable() string {
	connStr := os.Getenv("PGEDGE_TEST_CONN")
	if connStr == "" {
		connStr = DefaultTestConnString
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := sqlx.Open("pgx", connStr)
	if err != nil {
		return ""
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return ""
	}

	return connStr
}

// SkipIfNoPostgres skips the test if PostgreSQL is not available.
func SkipIfNoPostgres(t *testing.T) string {
	connStr := PostgresAvailable()
	if connStr == "" {
		t.Skip("PostgreSQL not available, skipping integration test")
	}
	return connStr
}

// CreateTestDB creates a fresh database and returns its connection string.
// The database is dropped when the test ends, unless the test failed.
func CreateTestDB(t *testing.T, baseConnStr string) string {
	t.Helper()

	// Generate random suffix for database name
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		t.Fatalf("Failed to generate random database name: %v", err)
	}
	dbName := TestDBPrefix + hex.EncodeToString(randomBytes)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlx.Open("pgx", baseConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if t.Failed() {
			t.Logf("Test failed - keeping database %s for diagnostics", dbName)
			return
		}
		dropTestDB(t, baseConnStr, dbName)
	})

	// Build the connection string manually since ConnString() doesn't reflect
	// changes made to Database
	config, err := pgx.ParseConfig(baseConnStr)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	if config.Password != "" {
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
			config.User, config.Password, config.Host, config.Port, dbName)
	}
	return fmt.Sprintf("postgres://%s@%s:%d/%s",
		config.User, config.Host, config.Port, dbName)
}

func dropTestDB(t *testing.T, baseConnStr, dbName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlx.Open("pgx", baseConnStr)
	if err != nil {
		t.Logf("Warning: Failed to connect to drop test database: %v", err)
		return
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", dbName)); err != nil {
		t.Logf("Warning: Failed to drop test database: %v", err)
	}
}

// WriteFile writes content to name inside dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// RawCustomers is a small raw customer file with a duplicate key, a blank
// region, an invalid date and a row without a key.
const RawCustomers = `CustomerID,Name,Region,JoinDate,LoyaltyPoints,CustomerSegment
C001,Alice Smith,North,2021-01-05,100,Gold
C002, Bob Jones ,South,2022-06-15,200,silver
C001,Alice Again,East,2021-02-01,150,Gold
C003,Cara Diaz,,2023-13-01,120,
,Nobody,West,2020-01-01,50,Bronze
C004,Dan Wu,north,2019-03-03,,Bronze
`

// RawProducts is a small raw product file.
const RawProducts = `ProductID,ProductName,Category,UnitPrice,StockQuantity,Supplier
P001,Laptop,Electronics,999.99,10,Acme
P002,T-Shirt,Clothing,19.99,100,Threads
P003,Lamp,Home,45.00,25,Brightside
P002,T-Shirt Dup,Clothing,21.00,5,Threads
`

// RawSales is a small raw sale file with an invalid date and an orphan.
const RawSales = `TransactionID,SaleDate,CustomerID,ProductID,StoreID,CampaignID,SaleAmount,DiscountPercent,PaymentType
1,2025-01-10,C001,P001,1,0,1000,5,card
2,2025-01-12,C002,P002,1,0,20,,cash
3,2023-13-01,C003,P003,2,1,45,0,card
4,2025-02-03,C004,P003,2,1,90,10,
5,2024-11-20,C001,P002,1,0,40,0,card
6,2025-02-14,C999,P001,3,0,980,0,card
`

// WriteRawFixtures writes the raw fixture files into dir using the
// standard raw file names.
func WriteRawFixtures(t *testing.T, dir string) {
	t.Helper()
	WriteFile(t, dir, "customers_data.csv", RawCustomers)
	WriteFile(t, dir, "products_data.csv", RawProducts)
	WriteFile(t, dir, "sales_data.csv", RawSales)
}
