//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pgEdge/pgedge-salescube/pkg/version"
)

const metadataTable = "salescube_metadata"

// createMetadataTableSQL creates the metadata table if it doesn't exist.
const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS salescube_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// SaveMetadata records the outcome of a load.
func (w *Warehouse) SaveMetadata(ctx context.Context, report *LoadReport) error {
	// Create table if it doesn't exist
	if _, err := w.db.ExecContext(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{
		"version":   version.Short(),
		"loaded_at": time.Now().UTC().Format(time.RFC3339),
		"customers": strconv.Itoa(report.Customers),
		"products":  strconv.Itoa(report.Products),
		"sales":     strconv.Itoa(report.Sales),
		"orphans":   strconv.Itoa(len(report.Orphans)),
	}

	// Insert or update metadata
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	upsert := w.db.Rebind(`
        INSERT INTO salescube_metadata (key, value) VALUES (?, ?)
        ON CONFLICT (key) DO UPDATE SET value = excluded.value
    `)
	for _, key := range keys {
		if _, err := w.db.ExecContext(ctx, upsert, key, metadata[key]); err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	w.Log.Debug().
		Str("loaded_at", metadata["loaded_at"]).
		Msg("Saved metadata")

	return nil
}

// MetadataValue retrieves a single metadata value by key.
func (w *Warehouse) MetadataValue(ctx context.Context, key string) (string, error) {
	var value string
	err := w.db.GetContext(ctx, &value,
		w.db.Rebind(`SELECT value FROM salescube_metadata WHERE key = ?`), key)
	if err != nil {
		return "", err
	}
	return value, nil
}

// AllMetadata retrieves all metadata as a map.
func (w *Warehouse) AllMetadata(ctx context.Context) (map[string]string, error) {
	rows, err := w.db.QueryxContext(ctx, `SELECT key, value FROM `+metadataTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}
