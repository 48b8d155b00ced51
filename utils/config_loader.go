package utils

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ─── Section configs ────────────────────────────────────────────────────

type ParseConfig struct {
	NestedLabel  string   `yaml:"nested_label"`
	RateSuffixes []string `yaml:"rate_suffixes"`
	Workers      int      `yaml:"workers"`
	ReaderBuffer int      `yaml:"reader_buffer"`
}

type PostgresConfig struct {
	ConnString  string `yaml:"conn_string"`
	Table       string `yaml:"table"`
	BatchSize   int    `yaml:"batch_size"`
	CreateTable bool   `yaml:"create_table"`
}

type ExportConfig struct {
	Format         string         `yaml:"format"` // "csv", "arrow" or "postgres"
	NestedPrefix   string         `yaml:"nested_prefix"`
	DatetimeColumn bool           `yaml:"datetime_column"`
	BufferSizeKB   int            `yaml:"buffer_size_kb"`
	Postgres       PostgresConfig `yaml:"postgres"`
}

type PlotConfig struct {
	Width  float64 `yaml:"width"`  // inches
	Height float64 `yaml:"height"` // inches
}

type ServeConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Config is the top-level structure for sstab.yaml.
type Config struct {
	Parse  ParseConfig  `yaml:"parse"`
	Export ExportConfig `yaml:"export"`
	Plot   PlotConfig   `yaml:"plot"`
	Serve  ServeConfig  `yaml:"serve"`
	Log    LogConfig    `yaml:"log"`
}

const (
	FormatCSV      = "csv"
	FormatArrow    = "arrow"
	FormatPostgres = "postgres"
)

// ─── Loaders ────────────────────────────────────────────────────────────

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads and parses a yaml config file, then applies defaults
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Parse.NestedLabel == "" {
		c.Parse.NestedLabel = "bbr"
	}
	if len(c.Parse.RateSuffixes) == 0 {
		c.Parse.RateSuffixes = []string{"Gbps", "Mbps", "Kbps", "bps"}
	}
	if c.Parse.Workers == 0 {
		c.Parse.Workers = runtime.NumCPU()
	}
	if c.Parse.ReaderBuffer <= 0 {
		c.Parse.ReaderBuffer = 1024
	}
	if c.Export.Format == "" {
		c.Export.Format = FormatCSV
	}
	if c.Export.NestedPrefix == "" {
		c.Export.NestedPrefix = "nested_"
	}
	if c.Export.BufferSizeKB <= 0 {
		c.Export.BufferSizeKB = 256
	}
	if c.Export.Postgres.Table == "" {
		c.Export.Postgres.Table = "ss_records"
	}
	if c.Export.Postgres.BatchSize <= 0 {
		c.Export.Postgres.BatchSize = 500
	}
	if c.Plot.Width <= 0 {
		c.Plot.Width = 12
	}
	if c.Plot.Height <= 0 {
		c.Plot.Height = 6
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks cross-field constraints. It is called by LoadConfig and
// again by the CLI after flag overrides.
func (c *Config) Validate() error {
	switch c.Export.Format {
	case FormatCSV, FormatArrow:
	case FormatPostgres:
		if c.Export.Postgres.ConnString == "" {
			return errors.New("export.postgres.conn_string is required for postgres export")
		}
	default:
		return fmt.Errorf("export.format %q is not one of csv, arrow, postgres", c.Export.Format)
	}
	if c.Parse.Workers < 0 {
		return fmt.Errorf("parse.workers must be >= 0, got %d", c.Parse.Workers)
	}
	return nil
}
