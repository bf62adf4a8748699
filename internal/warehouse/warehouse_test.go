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
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-salescube/internal/model"
	"github.com/pgEdge/pgedge-salescube/internal/testutil"
	"github.com/pgEdge/pgedge-salescube/pkg/version"
)

func strPtr(s string) *string { return &s }

func testDataset() *Dataset {
	return &Dataset{
		Customers: []model.Customer{
			{CustomerID: "C1", Name: "Alice", Region: "north", JoinDate: strPtr("2021-01-01")},
			{CustomerID: "C2", Name: "Bob", Region: "south"},
		},
		Products: []model.Product{
			{ProductID: "P1", ProductName: "Shirt", Category: "clothing", UnitPrice: 10},
			{ProductID: "P2", ProductName: "Lamp", Category: "home", UnitPrice: 20},
		},
		Sales: []model.Sale{
			{SaleID: "S1", CustomerID: "C1", ProductID: "P1", SaleAmount: 100, SaleDate: strPtr("2025-01-05")},
			{SaleID: "S2", CustomerID: "C2", ProductID: "P2", SaleAmount: 50},
			{SaleID: "S3", CustomerID: "C9", ProductID: "P1", SaleAmount: 10, SaleDate: strPtr("2025-02-01")},
		},
	}
}

func openSQLite(t *testing.T) *Warehouse {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dw", "test.db")
	w, err := Open(context.Background(), DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestPartition(t *testing.T) {
	valid, orphans := Partition(testDataset())

	require.Len(t, valid, 2)
	require.Len(t, orphans, 1)
	assert.Equal(t, "S3", orphans[0].SaleID)
	assert.True(t, orphans[0].MissingCustomer)
	assert.False(t, orphans[0].MissingProduct)
}

func TestLoadSQLite(t *testing.T) {
	ctx := context.Background()
	w := openSQLite(t)

	report, err := w.Load(ctx, testDataset())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Customers)
	assert.Equal(t, 2, report.Products)
	assert.Equal(t, 2, report.Sales)
	assert.Len(t, report.Orphans, 1)
	assert.Equal(t, 1, report.MissingCustomers())
	assert.Equal(t, 0, report.MissingProducts())

	orphans, err := w.IntegrityCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, orphans)

	sales, err := w.Sales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "S1", sales[0].SaleID)
	require.NotNil(t, sales[0].SaleDate)
	assert.Equal(t, "2025-01-05", *sales[0].SaleDate)
	assert.Nil(t, sales[1].SaleDate, "missing sale_date should stay NULL")

	customers, err := w.Customers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Nil(t, customers[1].JoinDate)

	products, err := w.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20.0, products[1].UnitPrice)

	joined, err := w.SampleJoin(ctx, 1)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	require.NotNil(t, joined[0].Category)
	assert.Equal(t, "clothing", *joined[0].Category)

	assert.Equal(t, version.Short(), mustMeta(t, w, "version"))
	assert.Equal(t, "2", mustMeta(t, w, "sales"))
	assert.Equal(t, "1", mustMeta(t, w, "orphans"))
}

func mustMeta(t *testing.T, w *Warehouse, key string) string {
	t.Helper()
	v, err := w.MetadataValue(context.Background(), key)
	require.NoError(t, err)
	return v
}

func TestLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	w := openSQLite(t)

	_, err := w.Load(ctx, testDataset())
	require.NoError(t, err)
	first, err := w.RowCounts(ctx)
	require.NoError(t, err)

	_, err = w.Load(ctx, testDataset())
	require.NoError(t, err)
	second, err := w.RowCounts(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []TableCount{{"customer", 2}, {"product", 2}, {"sale", 2}}, second)

	meta, err := w.AllMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", meta["customers"])
}

func TestLoadForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	w := openSQLite(t)

	_, err := w.Load(ctx, testDataset())
	require.NoError(t, err)

	_, err = w.DB().ExecContext(ctx,
		`INSERT INTO sale (sale_id, customer_id, product_id, sale_amount) VALUES ('S9', 'C404', 'P1', 1)`)
	assert.Error(t, err, "foreign keys should reject an unknown customer")
}

func TestLoadDuplicateKeyRollsBack(t *testing.T) {
	ctx := context.Background()
	w := openSQLite(t)

	_, err := w.Load(ctx, testDataset())
	require.NoError(t, err)

	ds := testDataset()
	ds.Customers = append(ds.Customers, model.Customer{CustomerID: "C1", Name: "Again"})
	_, err = w.Load(ctx, ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert customers")

	// The previous load survives the failed one.
	counts, err := w.RowCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[2].Rows)
}

func TestLoadFailOnOrphans(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	w := NewWithDB(sqlx.NewDb(db, "sqlmock"))
	w.FailOnOrphans = true

	report, err := w.Load(context.Background(), testDataset())

	var orphanErr *OrphanReferenceError
	require.True(t, errors.As(err, &orphanErr), "expected OrphanReferenceError, got %v", err)
	assert.Len(t, orphanErr.Orphans, 1)
	assert.Contains(t, err.Error(), "1 missing customer")
	require.NotNil(t, report)
	assert.Len(t, report.Orphans, 1)

	// Nothing reached the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadRollsBackOnError(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock sqlmock.Sqlmock)
		errorMsg string
	}{
		{
			name: "drop fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("DROP TABLE IF EXISTS sale").WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			errorMsg: "failed to drop tables",
		},
		{
			name: "create fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				for range dropStatements {
					mock.ExpectExec("DROP TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
				}
				mock.ExpectExec("CREATE TABLE customer").WillReturnError(errors.New("permission denied"))
				mock.ExpectRollback()
			},
			errorMsg: "failed to create schema",
		},
		{
			name: "begin fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("locked"))
			},
			errorMsg: "failed to begin transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.setup(mock)
			w := NewWithDB(sqlx.NewDb(db, "sqlmock"))

			_, err = w.Load(context.Background(), testDataset())
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported warehouse driver")
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		dsn      string
		expected string
		path     string
	}{
		{"data/dw/smart_sales.db", "data/dw/smart_sales.db?_pragma=foreign_keys(1)", "data/dw/smart_sales.db"},
		{"file:x.db?cache=shared", "file:x.db?cache=shared&_pragma=foreign_keys(1)", "x.db"},
		{"file:x.db?_pragma=busy_timeout(5000)", "file:x.db?_pragma=busy_timeout(5000)", "x.db"},
		{":memory:", ":memory:?_pragma=foreign_keys(1)", ""},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.expected, sqliteDSN(tt.dsn))
			assert.Equal(t, tt.path, sqlitePath(tt.dsn))
		})
	}
}

func TestReadDataset(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, CustomersFile,
		"customer_id,name,region,join_date,loyalty_points\nC1,Alice,north,2021-01-01,100\nC2,Bob,south,,5\n")
	testutil.WriteFile(t, dir, ProductsFile,
		"product_id,product_name,category,unit_price\nP1,Shirt,clothing,19.5\n")
	testutil.WriteFile(t, dir, SalesFile,
		"sale_id,customer_id,product_id,sale_amount,sale_date,payment_type\n1,C1,P1,19.5,2025-01-01,card\n2,C2,P1,7,,cash\n")

	ds, err := ReadDataset(dir)
	require.NoError(t, err)

	require.Len(t, ds.Customers, 2)
	require.NotNil(t, ds.Customers[0].JoinDate)
	assert.Equal(t, "2021-01-01", *ds.Customers[0].JoinDate)
	assert.Nil(t, ds.Customers[1].JoinDate)

	require.Len(t, ds.Products, 1)
	assert.Equal(t, 19.5, ds.Products[0].UnitPrice)

	require.Len(t, ds.Sales, 2)
	assert.Equal(t, 7.0, ds.Sales[1].SaleAmount)
	assert.Nil(t, ds.Sales[1].SaleDate)
}

func TestReadDatasetMissingFile(t *testing.T) {
	_, err := ReadDataset(t.TempDir())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), CustomersFile))
}

func TestLoadPostgres(t *testing.T) {
	connStr := testutil.CreateTestDB(t, testutil.SkipIfNoPostgres(t))
	ctx := context.Background()

	w, err := Open(ctx, DriverPostgres, connStr)
	require.NoError(t, err)
	defer w.Close()

	report, err := w.Load(ctx, testDataset())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Sales)

	orphans, err := w.IntegrityCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, orphans)
}
