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
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salescube/internal/config"
	"github.com/pgEdge/pgedge-salescube/internal/logging"
)

var (
	pipeGenerate      bool
	pipeFailOnOrphans bool
	pipeReport        bool
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run prepare, etl, cube and customer-value in order",
	Long: `Run every stage in order: prepare the raw files, load the warehouse,
build and export the cube and export customer value. The first failing
stage stops the run.

Example:
  salescube pipeline --generate --report`,
	Args: cobra.NoArgs,
	RunE: runPipelineCmd,
}

func init() {
	pipelineCmd.Flags().BoolVar(&pipeGenerate, "generate", false,
		"generate synthetic raw data first")
	pipelineCmd.Flags().BoolVar(&pipeFailOnOrphans, "fail-on-orphans", false,
		"abort when a sale references a missing customer or product")
	pipelineCmd.Flags().BoolVar(&pipeReport, "report", false,
		"print the OLAP report at the end")
}

func runPipelineCmd(cmd *cobra.Command, args []string) error {
	if pipeFailOnOrphans {
		cfg.Warehouse.FailOnOrphans = true
	}
	return runPipeline(context.Background(), cfg, cmd.OutOrStdout(), pipelineOptions{
		Generate: pipeGenerate,
		Report:   pipeReport,
	})
}

type pipelineOptions struct {
	Generate bool
	Report   bool
}

func runPipeline(ctx context.Context, c *config.Config, out io.Writer, opts pipelineOptions) error {
	start := time.Now()
	stage := ""
	fail := func(err error) error {
		logging.Error().
			Err(err).
			Str("stage", stage).
			Dur("elapsed", time.Since(start)).
			Msg("Pipeline failed")
		return fmt.Errorf("%s: %w", stage, err)
	}

	if opts.Generate {
		stage = "generate"
		summary, err := generateStage(c)
		if err != nil {
			return fail(err)
		}
		renderGenerate(out, summary)
	}

	stage = "prepare"
	reports, err := prepareStage(c, nil)
	if len(reports) > 0 {
		renderPrepare(out, reports)
	}
	if err != nil {
		logPrepareFailure(reports, err)
		return fmt.Errorf("%s: %w", stage, err)
	}

	stage = "etl"
	res, err := loadStage(ctx, c, 0)
	if err != nil {
		return fail(err)
	}
	renderLoad(out, res)

	stage = "olap"
	cube, err := buildCube(ctx, c)
	if err != nil {
		return fail(err)
	}
	cubePath, err := writeCube(c, cube, "")
	if err != nil {
		return fail(err)
	}
	if opts.Report {
		if err := renderReport(out, cube, 0); err != nil {
			return fail(err)
		}
	}

	stage = "customer-value"
	rows, cvPath, err := customerValueStage(ctx, c, "")
	if err != nil {
		return fail(err)
	}

	total, count := cube.Totals()
	logging.Info().
		Int("cube_rows", len(cube.Rows)).
		Float64("total_sales", total).
		Int("transactions", count).
		Int("customers", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("Pipeline complete")
	fmt.Fprintf(out, "Cube written to %s\nCustomer value written to %s\n", cubePath, cvPath)
	return nil
}
