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

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salescube/internal/logging"
)

var (
	etlFailOnOrphans bool
	etlSample        int
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Load prepared snapshots into the warehouse",
	Long: `Load the prepared customer, product and sale files into the
star-schema warehouse. The schema is dropped and recreated on every run,
so loading twice gives the same result.

Sales referencing a missing customer or product are skipped and reported,
or abort the load with --fail-on-orphans.

Example:
  salescube etl
  salescube etl --driver pgx --dsn "postgres://localhost/sales"`,
	RunE: runETL,
}

func init() {
	etlCmd.Flags().BoolVar(&etlFailOnOrphans, "fail-on-orphans", false,
		"abort when a sale references a missing customer or product")
	etlCmd.Flags().IntVar(&etlSample, "sample", 5,
		"number of joined sales to print after loading (0 to disable)")
}

func runETL(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if etlFailOnOrphans {
		cfg.Warehouse.FailOnOrphans = true
	}

	logging.Info().
		Str("driver", cfg.Warehouse.Driver).
		Str("prepared_dir", cfg.Paths.PreparedDir).
		Msg("Loading warehouse")

	ctx := context.Background()
	res, err := loadStage(ctx, cfg, etlSample)
	if err != nil {
		e := logging.Error().Err(err)
		if res != nil && res.Report != nil {
			e = e.Int("customers", res.Report.Customers).
				Int("products", res.Report.Products).
				Int("sales", res.Report.Sales).
				Int("orphans_missing_customer", res.Report.MissingCustomers()).
				Int("orphans_missing_product", res.Report.MissingProducts())
		}
		e.Msg("Load failed")
		return err
	}
	renderLoad(cmd.OutOrStdout(), res)

	logging.Info().
		Int("customers", res.Report.Customers).
		Int("products", res.Report.Products).
		Int("sales", res.Report.Sales).
		Int("orphans_skipped", len(res.Report.Orphans)).
		Msg("Warehouse load complete")
	return nil
}
