package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment   string              `toml:"environment"` // "development" or "production"
	Server        ServerConfig        `toml:"server"`
	Storage       StorageConfig       `toml:"storage"`
	Logging       LoggingConfig       `toml:"logging"`
	Portfolio     PortfolioConfig     `toml:"portfolio"`
	Yahoo         YahooConfig         `toml:"yahoo"`
	GoogleFinance GoogleFinanceConfig `toml:"google_finance"`
	Symbols       SymbolsConfig       `toml:"symbols"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// PortfolioConfig drives the sheet reader, enrichment pipeline and cache.
type PortfolioConfig struct {
	SheetPath  string `toml:"sheet_path"`  // Path to the holdings spreadsheet (.xlsx)
	HeaderRows int    `toml:"header_rows"` // Rows to skip before the column header row

	// Source sheet column headers. Defaults match the sample sheet.
	NameColumn     string `toml:"name_column"`
	PriceColumn    string `toml:"price_column"`
	QuantityColumn string `toml:"quantity_column"`
	ExchangeColumn string `toml:"exchange_column"`

	BatchSize      int      `toml:"batch_size"`      // Symbols per quote request
	BatchDelay     Duration `toml:"batch_delay"`     // Pause between batches
	FetchTimeout   Duration `toml:"fetch_timeout"`   // Hard timeout per quote batch
	RequestTimeout Duration `toml:"request_timeout"` // On-demand rebuild budget per HTTP request
	CacheTTL       Duration `toml:"cache_ttl"`       // Snapshot time-to-live

	RefreshSchedule string `toml:"refresh_schedule"` // Cron spec for background refresh
	RefreshOnStart  bool   `toml:"refresh_on_start"` // Build a snapshot at startup
}

// YahooConfig contains the primary quote provider configuration.
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`   // Override for tests / proxies
	RateLimit int    `toml:"rate_limit"` // Requests per second
}

// GoogleFinanceConfig contains the secondary fundamentals scraper configuration.
type GoogleFinanceConfig struct {
	Enabled         bool     `toml:"enabled"`
	BaseURL         string   `toml:"base_url"`
	RequestTimeout  Duration `toml:"request_timeout"`
	DefaultExchange string   `toml:"default_exchange"` // Used when a holding has no listing venue
}

// SymbolsConfig points at the static name→ticker mapping file.
type SymbolsConfig struct {
	Path string `toml:"path"` // TOML file with a [symbols] table; empty uses built-in defaults
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings need to appear in folio.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Portfolio: PortfolioConfig{
			SheetPath:       "./portfolio.xlsx",
			HeaderRows:      1,
			NameColumn:      "Particulars",
			PriceColumn:     "Purchase Price",
			QuantityColumn:  "Qty",
			ExchangeColumn:  "NSE/BSE",
			BatchSize:       10,
			BatchDelay:      Duration(500 * time.Millisecond),
			FetchTimeout:    Duration(8 * time.Second),
			RequestTimeout:  Duration(15 * time.Second),
			CacheTTL:        Duration(10 * time.Minute),
			RefreshSchedule: "@every 10m",
			RefreshOnStart:  true,
		},
		Yahoo: YahooConfig{
			RateLimit: 5,
		},
		GoogleFinance: GoogleFinanceConfig{
			Enabled:         true,
			RequestTimeout:  Duration(10 * time.Second),
			DefaultExchange: "NSE",
		},
		Symbols: SymbolsConfig{
			Path: "./symbols.toml",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier
// files; CLI flags are applied afterwards via ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("FOLIO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("FOLIO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("FOLIO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if sheet := os.Getenv("FOLIO_SHEET_PATH"); sheet != "" {
		config.Portfolio.SheetPath = sheet
	}
	if ttl := os.Getenv("FOLIO_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Portfolio.CacheTTL = Duration(d)
		}
	}
	if schedule := os.Getenv("FOLIO_REFRESH_SCHEDULE"); schedule != "" {
		config.Portfolio.RefreshSchedule = schedule
	}

	if symbols := os.Getenv("FOLIO_SYMBOLS_PATH"); symbols != "" {
		config.Symbols.Path = symbols
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string, sheetPath string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if sheetPath != "" {
		config.Portfolio.SheetPath = sheetPath
	}
}
