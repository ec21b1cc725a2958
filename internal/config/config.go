package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/pocketbook/internal/logging"
	"github.com/cleared-dev/pocketbook/internal/money"
)

const (
	// FileName is the config file looked up in the book directory.
	FileName = "pocketbook.yaml"
	// EnvFile holds optional environment overrides next to the config.
	EnvFile = ".env"
)

// Environment variables that override the file.
const (
	EnvDBPath            = "POCKETBOOK_DB_PATH"
	EnvLogLevel          = "POCKETBOOK_LOG_LEVEL"
	EnvDoubleEntry       = "POCKETBOOK_DOUBLE_ENTRY"
	EnvReportingCurrency = "POCKETBOOK_REPORTING_CURRENCY"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config represents the top-level pocketbook.yaml configuration.
type Config struct {
	Book    BookConfig    `yaml:"book"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// BookConfig identifies the book.
type BookConfig struct {
	Name              string `yaml:"name"`
	ReportingCurrency string `yaml:"reporting_currency"`
}

// LedgerConfig controls balancing.
type LedgerConfig struct {
	DoubleEntry bool `yaml:"double_entry"`
	MaxDepth    int  `yaml:"max_depth,omitempty"` // 0 uses the built-in cap
}

// StorageConfig selects the store.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path,omitempty"` // relative paths resolve against the book directory
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a pocketbook.yaml file from disk. Keys missing from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("", "USD")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new book.
func Default(bookName, currency string) *Config {
	return &Config{
		Book: BookConfig{
			Name:              bookName,
			ReportingCurrency: money.Code(currency),
		},
		Ledger: LedgerConfig{
			DoubleEntry: true,
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   "book.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ApplyEnv overlays environment overrides on cfg. Variables from envFile,
// if it exists, apply unless the process environment sets them too.
func ApplyEnv(cfg *Config, envFile string) error {
	vals := make(map[string]string)
	if envFile != "" {
		file, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", envFile, err)
		}
		maps.Copy(vals, file)
	}
	for _, k := range []string{EnvDBPath, EnvLogLevel, EnvDoubleEntry, EnvReportingCurrency} {
		if v, ok := os.LookupEnv(k); ok {
			vals[k] = v
		}
	}

	if v, ok := vals[EnvDBPath]; ok {
		cfg.Storage.Path = v
	}
	if v, ok := vals[EnvLogLevel]; ok {
		cfg.Log.Level = v
	}
	if v, ok := vals[EnvReportingCurrency]; ok {
		cfg.Book.ReportingCurrency = money.Code(v)
	}
	if v, ok := vals[EnvDoubleEntry]; ok {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDoubleEntry, err)
		}
		cfg.Ledger.DoubleEntry = on
	}
	return nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if money.Code(c.Book.ReportingCurrency) == "" {
		return fmt.Errorf("book.reporting_currency is required")
	}
	if c.Ledger.MaxDepth < 0 {
		return fmt.Errorf("ledger.max_depth must not be negative")
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
