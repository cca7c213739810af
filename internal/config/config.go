package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the market simulator.
type Config struct {
	Market  MarketConfig `yaml:"market"`
	Quotes  QuotesConfig `yaml:"quotes"`
	Storage Storage      `yaml:"storage"`
	Server  Server       `yaml:"server"`
	Logging Logging      `yaml:"logging"`
}

// MarketConfig controls the simulated market: the tradable symbol set, tick
// cadence, history bounds, and starting cash.
type MarketConfig struct {
	// Symbols maps each tradable ticker to its base (initial) price.
	Symbols map[string]float64 `yaml:"symbols"`

	// TickIntervalSec is the wall-clock seconds between price ticks.
	TickIntervalSec int `yaml:"tick_interval_sec"`

	// HistoryCapacity bounds the in-memory price series per symbol.
	HistoryCapacity int `yaml:"history_capacity"`

	// StartingCash seeds the portfolio when no saved state exists.
	StartingCash float64 `yaml:"starting_cash"`

	// Seed makes the synthetic walk reproducible when non-zero.
	Seed int64 `yaml:"seed"`
}

// QuotesConfig selects and configures the external quote source. Source is
// "synthetic", "finnhub", or "alpaca"; anything but "synthetic" still falls
// back to the synthetic walk when the provider fails.
type QuotesConfig struct {
	Source          string `yaml:"source"`
	FinnhubToken    string `yaml:"finnhub_token"`
	FinnhubURL      string `yaml:"finnhub_url"`
	AlpacaKey       string `yaml:"alpaca_key"`
	AlpacaSecret    string `yaml:"alpaca_secret"`
	AlpacaDataURL   string `yaml:"alpaca_data_url"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	TimeoutSec      int    `yaml:"timeout_sec"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// defaultSymbols is the built-in tradable universe with realistic base
// prices. Applied only when the config file names no symbols of its own.
func defaultSymbols() map[string]float64 {
	return map[string]float64{
		"AAPL":  175.00,
		"GOOGL": 2800.00,
		"MSFT":  420.00,
		"AMZN":  3400.00,
		"TSLA":  250.00,
	}
}

// Default returns the built-in configuration: 10s ticks, 100-point history,
// $10,000 starting cash. Symbols are left empty here so a config file's
// symbol set fully replaces rather than merges with the default universe.
func Default() *Config {
	return &Config{
		Market: MarketConfig{
			TickIntervalSec: 10,
			HistoryCapacity: 100,
			StartingCash:    10000,
		},
		Quotes: QuotesConfig{
			Source:          "synthetic",
			FinnhubURL:      "https://finnhub.io/api/v1",
			RateLimitPerMin: 60,
			TimeoutSec:      5,
		},
		Storage: Storage{
			DataDir:    "data",
			SQLitePath: "data/marketsim.db",
		},
		Server: Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path on top of the
// defaults, then applies environment variable overrides. An empty path skips
// the file and returns the defaults plus overrides.
func Load(path string) (*Config, error) {
	// Pick up a .env file if one is present.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if len(cfg.Market.Symbols) == 0 {
		cfg.Market.Symbols = defaultSymbols()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FINNHUB_TOKEN"); v != "" {
		cfg.Quotes.FinnhubToken = v
	}

	// Canonical Alpaca env vars used by the SDK.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Quotes.AlpacaKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Quotes.AlpacaSecret = v
	}
}

// validate rejects configurations the simulator cannot run with.
func (c *Config) validate() error {
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("config: no symbols configured")
	}
	for sym, price := range c.Market.Symbols {
		if price <= 0 {
			return fmt.Errorf("config: symbol %s has non-positive base price %v", sym, price)
		}
	}
	if c.Market.TickIntervalSec <= 0 {
		return fmt.Errorf("config: tick_interval_sec must be positive")
	}
	if c.Market.HistoryCapacity <= 0 {
		return fmt.Errorf("config: history_capacity must be positive")
	}
	if c.Market.StartingCash < 0 {
		return fmt.Errorf("config: starting_cash must be non-negative")
	}
	switch c.Quotes.Source {
	case "synthetic", "finnhub", "alpaca":
	default:
		return fmt.Errorf("config: unknown quote source %q", c.Quotes.Source)
	}
	return nil
}
