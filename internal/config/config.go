//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for salescube.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Supported warehouse drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Supported outlier methods.
const (
	OutlierIQR    = "iqr"
	OutlierStdDev = "stddev"
	OutlierBounds = "bounds"
)

// Config holds all configuration for salescube.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Paths holds the on-disk locations of raw, prepared and warehouse data.
	Paths PathsConfig `mapstructure:"paths"`

	// Warehouse holds configuration for the etl subcommand.
	Warehouse WarehouseConfig `mapstructure:"warehouse"`

	// Cleaning holds configuration for the prepare subcommand.
	Cleaning CleaningConfig `mapstructure:"cleaning"`

	// Generate holds configuration for the generate subcommand.
	Generate GenerateConfig `mapstructure:"generate"`
}

// PathsConfig holds file locations.
type PathsConfig struct {
	// RawDir holds the raw input CSV files.
	RawDir string `mapstructure:"raw_dir"`

	// PreparedDir receives the cleaned CSV snapshots and OLAP exports.
	PreparedDir string `mapstructure:"prepared_dir"`

	// Warehouse is the SQLite database file.
	Warehouse string `mapstructure:"warehouse"`
}

// WarehouseConfig holds configuration for the star-schema warehouse.
type WarehouseConfig struct {
	// Driver selects the database driver: "sqlite" or "pgx".
	Driver string `mapstructure:"driver"`

	// DSN is the connection string. For sqlite it defaults to Paths.Warehouse.
	DSN string `mapstructure:"dsn"`

	// FailOnOrphans aborts the load when a sale references a missing
	// customer or product. Otherwise orphans are reported and skipped.
	FailOnOrphans bool `mapstructure:"fail_on_orphans"`
}

// CleaningConfig holds the data-cleaning policy.
type CleaningConfig struct {
	// OutlierMethod is one of: iqr, stddev, bounds.
	OutlierMethod string `mapstructure:"outlier_method"`

	// IQRMultiplier is k in [Q1 - k*IQR, Q3 + k*IQR].
	IQRMultiplier float64 `mapstructure:"iqr_multiplier"`

	// StdDevMultiplier is k in mean ± k*sd.
	StdDevMultiplier float64 `mapstructure:"stddev_multiplier"`

	// LowerBound and UpperBound are used by the bounds method.
	LowerBound float64 `mapstructure:"lower_bound"`
	UpperBound float64 `mapstructure:"upper_bound"`

	// NumericFill is the fill strategy for numeric columns: mean, median, mode.
	NumericFill string `mapstructure:"numeric_fill"`

	// Placeholder fills missing categorical values.
	Placeholder string `mapstructure:"placeholder"`
}

// GenerateConfig holds configuration for synthetic raw data.
type GenerateConfig struct {
	Customers int `mapstructure:"customers"`
	Products  int `mapstructure:"products"`
	Sales     int `mapstructure:"sales"`

	// Seed makes output reproducible. Zero picks a time-based seed.
	Seed uint64 `mapstructure:"seed"`

	// DirtyRatio is the share of rows that receive a data-quality defect.
	DirtyRatio float64 `mapstructure:"dirty_ratio"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Paths: PathsConfig{
			RawDir:      filepath.Join("data", "raw"),
			PreparedDir: filepath.Join("data", "prepared"),
			Warehouse:   filepath.Join("data", "dw", "smart_sales.db"),
		},
		Warehouse: WarehouseConfig{
			Driver:        DriverSQLite,
			FailOnOrphans: false,
		},
		Cleaning: CleaningConfig{
			OutlierMethod:    OutlierIQR,
			IQRMultiplier:    1.5,
			StdDevMultiplier: 3,
			LowerBound:       0,
			UpperBound:       10000,
			NumericFill:      "mean",
			Placeholder:      "unknown",
		},
		Generate: GenerateConfig{
			Customers:  200,
			Products:   100,
			Sales:      2000,
			DirtyRatio: 0.05,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./salescube.yaml
// 3. ~/.config/salescube/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Set config name and type
	v.SetConfigName("salescube")
	v.SetConfigType("yaml")

	// Add config paths
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "salescube"))
	}

	// Use specific config file if provided
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Unmarshal config file values
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// WarehouseDSN returns the connection string for the configured driver.
func (c *Config) WarehouseDSN() string {
	if c.Warehouse.DSN != "" {
		return c.Warehouse.DSN
	}
	if c.Warehouse.Driver == DriverSQLite {
		return c.Paths.Warehouse
	}
	return ""
}

// ValidatePrepare checks configuration required for the prepare command.
func (c *Config) ValidatePrepare() error {
	if c.Paths.RawDir == "" {
		return fmt.Errorf("raw_dir is required")
	}
	if c.Paths.PreparedDir == "" {
		return fmt.Errorf("prepared_dir is required")
	}

	cl := c.Cleaning
	switch cl.OutlierMethod {
	case OutlierIQR:
		if cl.IQRMultiplier <= 0 {
			return fmt.Errorf("iqr_multiplier must be positive")
		}
	case OutlierStdDev:
		if cl.StdDevMultiplier <= 0 {
			return fmt.Errorf("stddev_multiplier must be positive")
		}
	case OutlierBounds:
		if cl.UpperBound < cl.LowerBound {
			return fmt.Errorf("upper_bound must be >= lower_bound")
		}
	default:
		return fmt.Errorf("outlier_method must be 'iqr', 'stddev' or 'bounds'")
	}

	switch cl.NumericFill {
	case "mean", "median", "mode":
	default:
		return fmt.Errorf("numeric_fill must be 'mean', 'median' or 'mode'")
	}
	if cl.Placeholder == "" {
		return fmt.Errorf("placeholder is required")
	}
	return nil
}

// ValidateWarehouse checks configuration required to open the warehouse.
func (c *Config) ValidateWarehouse() error {
	if c.Warehouse.Driver != DriverSQLite && c.Warehouse.Driver != DriverPostgres {
		return fmt.Errorf("warehouse driver must be 'sqlite' or 'pgx'")
	}
	if c.WarehouseDSN() == "" {
		return fmt.Errorf("warehouse dsn is required for driver %s", c.Warehouse.Driver)
	}
	return nil
}

// ValidateLoad checks configuration required for the etl command.
func (c *Config) ValidateLoad() error {
	if c.Paths.PreparedDir == "" {
		return fmt.Errorf("prepared_dir is required")
	}
	return c.ValidateWarehouse()
}

// ValidateGenerate checks configuration required for the generate command.
func (c *Config) ValidateGenerate() error {
	if c.Paths.RawDir == "" {
		return fmt.Errorf("raw_dir is required")
	}
	g := c.Generate
	if g.Customers < 1 || g.Products < 1 || g.Sales < 1 {
		return fmt.Errorf("customers, products and sales must be at least 1")
	}
	if g.DirtyRatio < 0 || g.DirtyRatio > 1 {
		return fmt.Errorf("dirty_ratio must be between 0 and 1")
	}
	return nil
}
