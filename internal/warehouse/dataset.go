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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"

	"github.com/pgEdge/pgedge-salescube/internal/model"
)

// Prepared snapshot file names.
const (
	CustomersFile = "customers_prepared.csv"
	ProductsFile  = "products_prepared.csv"
	SalesFile     = "sales_prepared.csv"
)

// ReadDataset decodes the prepared snapshots in dir.
func ReadDataset(dir string) (*Dataset, error) {
	ds := &Dataset{}
	var err error

	if ds.Customers, err = decodeFile[model.Customer](filepath.Join(dir, CustomersFile)); err != nil {
		return nil, err
	}
	if ds.Products, err = decodeFile[model.Product](filepath.Join(dir, ProductsFile)); err != nil {
		return nil, err
	}
	if ds.Sales, err = decodeFile[model.Sale](filepath.Join(dir, SalesFile)); err != nil {
		return nil, err
	}
	return ds, nil
}

func decodeFile[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Decode[T](f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return rows, nil
}

// Decode reads CSV records with a header row into typed rows. An empty
// input yields no rows.
func Decode[T any](r io.Reader) ([]T, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var rows []T
	for line := 2; ; line++ {
		var row T
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
