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
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salescube/internal/logging"
	"github.com/pgEdge/pgedge-salescube/internal/prepare"
)

var (
	prepOutlierMethod string
	prepIQRMultiplier float64
	prepNumericFill   string
	prepPlaceholder   string
)

var prepareCmd = &cobra.Command{
	Use:   "prepare [entity...]",
	Short: "Clean raw CSV files into prepared snapshots",
	Long: `Clean the raw customer, product and sale files and write
<entity>_prepared.csv files into the prepared directory. Each table goes
through column detection, trimming, type coercion, missing-key removal,
filling, de-duplication, outlier removal and a non-negative check.

With no arguments all entities are prepared. Valid entities: ` + strings.Join(prepare.List(), ", ") + `.

Example:
  salescube prepare
  salescube prepare sale --outlier-method stddev`,
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().StringVar(&prepOutlierMethod, "outlier-method", "",
		"outlier method: iqr, stddev or bounds (default: iqr)")
	prepareCmd.Flags().Float64Var(&prepIQRMultiplier, "iqr-multiplier", 0,
		"IQR fence multiplier (default: 1.5)")
	prepareCmd.Flags().StringVar(&prepNumericFill, "numeric-fill", "",
		"fill for missing numeric values: mean, median or mode (default: mean)")
	prepareCmd.Flags().StringVar(&prepPlaceholder, "placeholder", "",
		"fill for missing text values (default: unknown)")
}

func runPrepare(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if prepOutlierMethod != "" {
		cfg.Cleaning.OutlierMethod = prepOutlierMethod
	}
	if prepIQRMultiplier > 0 {
		cfg.Cleaning.IQRMultiplier = prepIQRMultiplier
	}
	if prepNumericFill != "" {
		cfg.Cleaning.NumericFill = prepNumericFill
	}
	if prepPlaceholder != "" {
		cfg.Cleaning.Placeholder = prepPlaceholder
	}

	logging.Info().
		Str("raw_dir", cfg.Paths.RawDir).
		Str("prepared_dir", cfg.Paths.PreparedDir).
		Msg("Preparing data")

	reports, err := prepareStage(cfg, args)
	if len(reports) > 0 {
		renderPrepare(cmd.OutOrStdout(), reports)
	}
	if err != nil {
		logPrepareFailure(reports, err)
		return err
	}

	logging.Info().Int("tables", len(reports)).Msg("Preparation complete")
	return nil
}
