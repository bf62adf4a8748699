//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for salescube.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-salescube/internal/config"
	"github.com/pgEdge/pgedge-salescube/internal/logging"
	"github.com/pgEdge/pgedge-salescube/pkg/version"
)

var (
	// Global flags
	cfgFile     string
	logLevel    string
	rawDir      string
	preparedDir string
	driver      string
	dsn         string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "salescube",
		Short: "Sales data preparation, warehouse and OLAP toolkit",
		Long: `salescube turns raw customer, product and sale CSV files into a
star-schema warehouse and answers OLAP questions over it.

The stages can be run one at a time or together:
  generate        write synthetic raw data with data-quality defects
  prepare         clean the raw files into prepared snapshots
  etl             load the prepared snapshots into the warehouse
  olap            build the sales cube and slice, dice or drill into it
  customer-value  summarise spend and tenure per customer
  pipeline        prepare, etl, cube and customer-value in one go

SQLite is used by default; set --driver pgx and --dsn to load PostgreSQL.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./salescube.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rawDir, "raw-dir", "",
		"directory holding the raw CSV files (default: data/raw)")
	rootCmd.PersistentFlags().StringVar(&preparedDir, "prepared-dir", "",
		"directory for prepared CSV files and exports (default: data/prepared)")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "",
		"warehouse driver: sqlite or pgx")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "",
		"warehouse connection string (default: data/dw/smart_sales.db for sqlite)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(etlCmd)
	rootCmd.AddCommand(olapCmd)
	rootCmd.AddCommand(customerValueCmd)
	rootCmd.AddCommand(pipelineCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if rawDir != "" {
		cfg.Paths.RawDir = rawDir
	}
	if preparedDir != "" {
		cfg.Paths.PreparedDir = preparedDir
	}
	if driver != "" {
		cfg.Warehouse.Driver = driver
	}
	if dsn != "" {
		cfg.Warehouse.DSN = dsn
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
