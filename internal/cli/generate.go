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
	"github.com/spf13/cobra"
)

var (
	genCustomers  int
	genProducts   int
	genSales      int
	genSeed       uint64
	genDirtyRatio float64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write synthetic raw CSV files",
	Long: `Write customers_data.csv, products_data.csv and sales_data.csv into
the raw directory. A share of the rows is deliberately damaged (padded or
mixed-case text, blanks, duplicate keys, extreme amounts, invalid dates and
orphan references) so the prepare stage has something to clean.

Example:
  salescube generate --sales 5000 --dirty-ratio 0.1 --seed 42`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&genCustomers, "customers", 0,
		"number of customers (default: 200)")
	generateCmd.Flags().IntVar(&genProducts, "products", 0,
		"number of products (default: 100)")
	generateCmd.Flags().IntVar(&genSales, "sales", 0,
		"number of sales (default: 2000)")
	generateCmd.Flags().Uint64Var(&genSeed, "seed", 0,
		"random seed for reproducible output (0 = time based)")
	generateCmd.Flags().Float64Var(&genDirtyRatio, "dirty-ratio", -1,
		"share of rows given a data-quality defect, 0 to 1 (default: 0.05)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if genCustomers > 0 {
		cfg.Generate.Customers = genCustomers
	}
	if genProducts > 0 {
		cfg.Generate.Products = genProducts
	}
	if genSales > 0 {
		cfg.Generate.Sales = genSales
	}
	if genSeed > 0 {
		cfg.Generate.Seed = genSeed
	}
	if genDirtyRatio >= 0 {
		cfg.Generate.DirtyRatio = genDirtyRatio
	}

	summary, err := generateStage(cfg)
	if err != nil {
		return err
	}
	renderGenerate(cmd.OutOrStdout(), summary)
	return nil
}
