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

	"github.com/spf13/cobra"
)

var (
	cvOutput string
	cvLimit  int
)

var customerValueCmd = &cobra.Command{
	Use:   "customer-value",
	Short: "Summarise spend and tenure per customer",
	Long: `Summarise total spend, transaction count and average order value per
customer, with tenure measured from the join date to the latest sale in the
warehouse. Customers are segmented as New (<1y), Active (1-3y), Loyal (3y+)
or Unknown when the join date is missing.

The full table is written to customer_value.csv in the prepared directory.

Example:
  salescube customer-value --limit 10`,
	Args: cobra.NoArgs,
	RunE: runCustomerValue,
}

func init() {
	customerValueCmd.Flags().StringVar(&cvOutput, "output", "",
		"CSV path (default: <prepared-dir>/customer_value.csv)")
	customerValueCmd.Flags().IntVar(&cvLimit, "limit", 20,
		"maximum customers to print (0 = all)")
}

func runCustomerValue(cmd *cobra.Command, args []string) error {
	rows, path, err := customerValueStage(context.Background(), cfg, cvOutput)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	renderCustomerValue(out, rows, cvLimit)
	fmt.Fprintf(out, "Customer value written to %s\n", path)
	return nil
}
