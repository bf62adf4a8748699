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

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salescube/internal/logging"
	"github.com/pgEdge/pgedge-salescube/internal/olap"
)

var (
	olapOutput string
	olapLimit  int
	olapExport string
)

var olapCmd = &cobra.Command{
	Use:   "olap",
	Short: "Build the sales cube and query it",
	Long: `Build an in-memory cube of total sales, transaction count and average
order value by year, month, category and region from the warehouse, then
slice, dice or drill into it.

Sales without a valid date are left out of the cube and counted in the log.

Dimensions: year, month, category, region.`,
}

var olapCubeCmd = &cobra.Command{
	Use:   "cube",
	Short: "Build the cube and export it as CSV",
	Long: `Build the full cube and write it to olap_cube.csv in the prepared
directory, or to --output.

Example:
  salescube olap cube
  salescube olap cube --output /tmp/cube.csv`,
	Args: cobra.NoArgs,
	RunE: runOLAPCube,
}

var olapSliceCmd = &cobra.Command{
	Use:   "slice dimension=value",
	Short: "Filter the cube on one dimension value",
	Long: `Keep only the cube rows where one dimension equals a value. Text
values compare case-insensitively.

Example:
  salescube olap slice year=2025
  salescube olap slice category=electronics`,
	Args: cobra.ExactArgs(1),
	RunE: runOLAPSlice,
}

var olapDiceCmd = &cobra.Command{
	Use:   "dice dimension=value [dimension=value...]",
	Short: "Filter the cube on several dimension values",
	Long: `Keep only the cube rows matching every predicate.

Example:
  salescube olap dice year=2025 category=home region=north`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOLAPDice,
}

var olapDrilldownCmd = &cobra.Command{
	Use:   "drilldown [dimension...]",
	Short: "Re-aggregate the cube to fewer dimensions",
	Long: `Group the cube by the given dimensions, re-summing total sales and
transaction counts and recomputing average order value. With no dimensions
a single grand total is printed.

Example:
  salescube olap drilldown year month
  salescube olap drilldown region`,
	RunE: runOLAPDrilldown,
}

var olapReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print monthly trends, region totals and a month by category pivot",
	Args:  cobra.NoArgs,
	RunE:  runOLAPReport,
}

func init() {
	olapCubeCmd.Flags().StringVar(&olapOutput, "output", "",
		"cube CSV path (default: <prepared-dir>/olap_cube.csv)")

	for _, c := range []*cobra.Command{olapCubeCmd, olapSliceCmd, olapDiceCmd, olapDrilldownCmd, olapReportCmd} {
		c.Flags().IntVar(&olapLimit, "limit", 50,
			"maximum rows to print (0 = all)")
	}
	for _, c := range []*cobra.Command{olapSliceCmd, olapDiceCmd, olapDrilldownCmd} {
		c.Flags().StringVar(&olapExport, "export", "",
			"also write the result to this CSV file")
	}

	olapCmd.AddCommand(olapCubeCmd)
	olapCmd.AddCommand(olapSliceCmd)
	olapCmd.AddCommand(olapDiceCmd)
	olapCmd.AddCommand(olapDrilldownCmd)
	olapCmd.AddCommand(olapReportCmd)
}

func runOLAPCube(cmd *cobra.Command, args []string) error {
	cube, err := buildCube(context.Background(), cfg)
	if err != nil {
		return err
	}
	path, err := writeCube(cfg, cube, olapOutput)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	renderCube(out, cube, olapLimit)
	fmt.Fprintf(out, "Cube written to %s\n", path)
	return nil
}

func parsePredicates(args []string) ([]olap.Predicate, error) {
	preds := make([]olap.Predicate, 0, len(args))
	for _, a := range args {
		p, err := olap.ParsePredicate(a)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func runOLAPSlice(cmd *cobra.Command, args []string) error {
	pred, err := olap.ParsePredicate(args[0])
	if err != nil {
		return err
	}
	return queryCube(cmd.OutOrStdout(), func(c *olap.Cube) (*olap.Cube, error) {
		return olap.Slice(c, pred)
	})
}

func runOLAPDice(cmd *cobra.Command, args []string) error {
	preds, err := parsePredicates(args)
	if err != nil {
		return err
	}
	return queryCube(cmd.OutOrStdout(), func(c *olap.Cube) (*olap.Cube, error) {
		return olap.Dice(c, preds...)
	})
}

func runOLAPDrilldown(cmd *cobra.Command, args []string) error {
	dims, err := olap.ParseDimensions(args)
	if err != nil {
		return err
	}
	return queryCube(cmd.OutOrStdout(), func(c *olap.Cube) (*olap.Cube, error) {
		return olap.Drilldown(c, dims...)
	})
}

// queryCube builds the cube, applies q and prints the result.
func queryCube(out io.Writer, q func(*olap.Cube) (*olap.Cube, error)) error {
	cube, err := buildCube(context.Background(), cfg)
	if err != nil {
		return err
	}
	result, err := q(cube)
	if err != nil {
		return err
	}

	logging.Debug().Str("result", result.String()).Msg("Query complete")
	if len(result.Rows) == 0 {
		fmt.Fprintln(out, "No matching rows")
	} else {
		renderCube(out, result, olapLimit)
	}

	if olapExport != "" {
		if _, err := writeCube(cfg, result, olapExport); err != nil {
			return err
		}
		fmt.Fprintf(out, "Result written to %s\n", olapExport)
	}
	return nil
}

func runOLAPReport(cmd *cobra.Command, args []string) error {
	cube, err := buildCube(context.Background(), cfg)
	if err != nil {
		return err
	}
	return renderReport(cmd.OutOrStdout(), cube, olapLimit)
}

func renderReport(out io.Writer, cube *olap.Cube, limit int) error {
	trends, err := olap.MonthlyTrends(cube)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Monthly sales by category")
	renderCube(out, trends, limit)

	regions, err := olap.RegionTotals(cube)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nSales by region")
	renderCube(out, regions, limit)

	pivot, err := olap.Pivot(cube, olap.Month, olap.Category)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nTotal sales, month by category")
	renderPivot(out, pivot)
	return nil
}
