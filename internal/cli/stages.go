//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pgEdge/pgedge-salescube/internal/config"
	"github.com/pgEdge/pgedge-salescube/internal/datagen"
	"github.com/pgEdge/pgedge-salescube/internal/logging"
	"github.com/pgEdge/pgedge-salescube/internal/olap"
	"github.com/pgEdge/pgedge-salescube/internal/prepare"
	"github.com/pgEdge/pgedge-salescube/internal/scrub"
	"github.com/pgEdge/pgedge-salescube/internal/warehouse"
)

// Output file names under the prepared directory.
const (
	CubeFile          = "olap_cube.csv"
	CustomerValueFile = "customer_value.csv"
)

// prepareOptions translates the cleaning config into pipeline options.
func prepareOptions(c *config.Config) (prepare.Options, error) {
	cl := c.Cleaning

	fill, err := scrub.ParseFillStrategy(cl.NumericFill)
	if err != nil {
		return prepare.Options{}, err
	}

	var method scrub.OutlierMethod
	switch cl.OutlierMethod {
	case config.OutlierIQR:
		method = scrub.IQR{Multiplier: cl.IQRMultiplier}
	case config.OutlierStdDev:
		method = scrub.StdDev{Multiplier: cl.StdDevMultiplier}
	case config.OutlierBounds:
		method = scrub.Bounds{Lower: cl.LowerBound, Upper: cl.UpperBound}
	default:
		return prepare.Options{}, fmt.Errorf("unknown outlier method: %s", cl.OutlierMethod)
	}

	return prepare.Options{
		NumericFill: fill,
		Placeholder: cl.Placeholder,
		Outliers:    method,
	}, nil
}

func generateStage(c *config.Config) (*datagen.Summary, error) {
	if err := c.ValidateGenerate(); err != nil {
		return nil, err
	}
	g := &datagen.Generator{
		Customers:  c.Generate.Customers,
		Products:   c.Generate.Products,
		Sales:      c.Generate.Sales,
		DirtyRatio: c.Generate.DirtyRatio,
		Seed:       c.Generate.Seed,
		Log:        logging.Stage("generate"),
	}
	return g.Write(c.Paths.RawDir)
}

func prepareStage(c *config.Config, entities []string) ([]*prepare.Report, error) {
	if err := c.ValidatePrepare(); err != nil {
		return nil, err
	}
	opts, err := prepareOptions(c)
	if err != nil {
		return nil, err
	}

	p := &prepare.Pipeline{
		RawDir:      c.Paths.RawDir,
		PreparedDir: c.Paths.PreparedDir,
		Options:     opts,
		Log:         logging.Stage("prepare"),
	}
	return p.Run(entities...)
}

// logPrepareFailure writes the final summary line of a failed prepare run:
// the rows processed and dropped per reason for the table that failed.
func logPrepareFailure(reports []*prepare.Report, err error) {
	e := logging.Error().Err(err).Int("tables_prepared", len(reports))

	var last *prepare.Report
	if n := len(reports); n > 0 {
		last = reports[n-1]
	}
	var stageErr *prepare.StageError
	if errors.As(err, &stageErr) {
		e = e.Str("stage", stageErr.Stage)
		if last == nil || last.Entity != stageErr.Table {
			e = e.Str("table", stageErr.Table)
			last = nil
		}
	}
	if last != nil {
		e = e.EmbedObject(last)
	}
	e.Msg("Preparation failed")
}

func openWarehouse(ctx context.Context, c *config.Config) (*warehouse.Warehouse, error) {
	if err := c.ValidateWarehouse(); err != nil {
		return nil, err
	}
	w, err := warehouse.Open(ctx, c.Warehouse.Driver, c.WarehouseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}
	w.FailOnOrphans = c.Warehouse.FailOnOrphans
	w.Log = logging.Stage("etl")
	return w, nil
}

// loadResult is what the etl stage reports back.
type loadResult struct {
	Report  *warehouse.LoadReport
	Orphans int
	Counts  []warehouse.TableCount
	Sample  []warehouse.JoinedSale
}

func loadStage(ctx context.Context, c *config.Config, sample int) (*loadResult, error) {
	if err := c.ValidateLoad(); err != nil {
		return nil, err
	}

	ds, err := warehouse.ReadDataset(c.Paths.PreparedDir)
	if err != nil {
		return nil, err
	}

	w, err := openWarehouse(ctx, c)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	report, err := w.Load(ctx, ds)
	if err != nil {
		return &loadResult{Report: report}, err
	}

	res := &loadResult{Report: report}
	if res.Orphans, err = w.IntegrityCheck(ctx); err != nil {
		return res, err
	}
	if res.Orphans > 0 {
		return res, fmt.Errorf("integrity check failed: %d sales without a matching customer or product", res.Orphans)
	}
	if res.Counts, err = w.RowCounts(ctx); err != nil {
		return res, err
	}
	if sample > 0 {
		if res.Sample, err = w.SampleJoin(ctx, sample); err != nil {
			return res, err
		}
	}
	return res, nil
}

// loadFacts reads the star schema back from the warehouse.
func loadFacts(ctx context.Context, c *config.Config) (*olap.Facts, error) {
	w, err := openWarehouse(ctx, c)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	facts, err := olap.LoadFacts(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("failed to read warehouse: %w", err)
	}
	return facts, nil
}

func buildCube(ctx context.Context, c *config.Config) (*olap.Cube, error) {
	facts, err := loadFacts(ctx, c)
	if err != nil {
		return nil, err
	}

	cube, stats, err := olap.BuildCube(facts)
	if err != nil {
		return nil, err
	}
	log := logging.Stage("olap")
	log.Info().
		Int("sales", stats.Sales).
		Int("undated", stats.Undated).
		Int("unmatched_customer", stats.UnmatchedCustomer).
		Int("unmatched_product", stats.UnmatchedProduct).
		Int("rows", stats.Rows).
		Msg("Cube built")
	if stats.Undated > 0 {
		log.Warn().Int("sales", stats.Undated).Msg("Sales without a valid date excluded from cube")
	}
	return cube, nil
}

func writeCube(c *config.Config, cube *olap.Cube, path string) (string, error) {
	if path == "" {
		path = filepath.Join(c.Paths.PreparedDir, CubeFile)
	}
	if err := olap.WriteFile(path, func(w io.Writer) error {
		return olap.WriteCSV(w, cube)
	}); err != nil {
		return "", err
	}
	logging.Stage("olap").Info().Str("path", path).Int("rows", len(cube.Rows)).Msg("Cube exported")
	return path, nil
}

func customerValueStage(ctx context.Context, c *config.Config, path string) ([]olap.CustomerValueRow, string, error) {
	facts, err := loadFacts(ctx, c)
	if err != nil {
		return nil, "", err
	}
	rows := olap.CustomerValue(facts)

	if path == "" {
		path = filepath.Join(c.Paths.PreparedDir, CustomerValueFile)
	}
	if err := olap.WriteFile(path, func(w io.Writer) error {
		return olap.WriteCustomerValueCSV(w, rows)
	}); err != nil {
		return nil, "", err
	}
	logging.Stage("customer-value").Info().
		Str("path", path).
		Int("customers", len(rows)).
		Msg("Customer value exported")
	return rows, path, nil
}
