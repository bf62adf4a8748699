//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ReadCSV reads a comma-delimited file with a header row into a string
// dataframe. Header names are trimmed of surrounding whitespace; rows with
// a different number of fields than the header are padded or truncated,
// which gota's own reader rejects.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New(name), nil
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", name, err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return FromRecords(name, header, records), nil
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(name, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCSV(name, f)
}

// WriteCSV writes the table with a header row. Missing cells are written
// as empty fields.
func WriteCSV(w io.Writer, t *Table) error {
	header, records := t.Records()
	if len(header) == 0 {
		return nil
	}

	cols := make([]series.Series, len(header))
	for c, name := range header {
		vals := make([]string, len(records))
		for i, rec := range records {
			vals[i] = rec[c]
		}
		cols[c] = series.New(vals, series.String, name)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}

// WriteCSVFile writes the table to path, creating parent directories.
func WriteCSVFile(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
