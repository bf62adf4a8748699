//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package olap

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
)

// WriteCSV writes the cube rows with a header. Columns of dimensions the
// cube does not have are left out.
func WriteCSV(w io.Writer, c *Cube) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.SetHeader(cubeHeader(c))
	if err := enc.EncodeHeader(Row{}); err != nil {
		return err
	}
	for _, r := range c.Rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cubeHeader(c *Cube) []string {
	header := make([]string, 0, len(c.Dimensions)+3)
	for _, d := range c.Dimensions {
		header = append(header, string(d))
	}
	return append(header, "total_sales", "transaction_count", "average_order_value")
}

// WriteCustomerValueCSV writes customer value rows with a header.
func WriteCustomerValueCSV(w io.Writer, rows []CustomerValueRow) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(CustomerValueRow{}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path, including its directory, and writes to it
// with fn.
func WriteFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
