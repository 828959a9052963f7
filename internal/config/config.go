// Package config defines the top-level configuration for the metaquote
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by METAQUOTE_* environment
// variables.
type Config struct {
	Data     DataConfig     `toml:"data"`
	Balances BalancesConfig `toml:"balances"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Quote    QuoteConfig    `toml:"quote"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`

	// Display labels for the traded pair; arithmetic is label-agnostic.
	BaseAsset     string `toml:"base_asset"`
	QuoteCurrency string `toml:"quote_currency"`
}

// DataConfig describes where the orderbook snapshot data file lives.
type DataConfig struct {
	// Source is "file" or "s3".
	Source string `toml:"source"`
	// Path is the local file path (file source) or object key (s3 source).
	Path string `toml:"path"`
	// MaxVenues caps how many venue lines are loaded; 0 loads all.
	MaxVenues int `toml:"max_venues"`
}

// BalancesConfig controls per-venue starting balance synthesis.
type BalancesConfig struct {
	// Mode is "fixed" or "random".
	Mode     string  `toml:"mode"`
	Base     float64 `toml:"base"`
	Quote    float64 `toml:"quote"`
	MinBase  float64 `toml:"min_base"`
	MaxBase  float64 `toml:"max_base"`
	MinQuote float64 `toml:"min_quote"`
	MaxQuote float64 `toml:"max_quote"`
	Seed     int64   `toml:"seed"`
}

// PostgresConfig holds PostgreSQL connection parameters. Leaving both DSN
// and Host empty disables quote persistence.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// Enabled reports whether a connection target is configured.
func (c PostgresConfig) Enabled() bool {
	return strings.TrimSpace(c.DSN) != "" || strings.TrimSpace(c.Host) != ""
}

// RedisConfig holds Redis connection parameters. An empty Addr disables the
// snapshot cache and the distributed rate limiter.
type RedisConfig struct {
	Addr            string `toml:"addr"`
	Password        string `toml:"password"`
	DB              int    `toml:"db"`
	PoolSize        int    `toml:"pool_size"`
	MaxRetries      int    `toml:"max_retries"`
	TLSEnabled      bool   `toml:"tls_enabled"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// S3Config holds S3-compatible object storage parameters, used when the
// snapshot data file is fetched from blob storage.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey enables request authentication when non-empty.
	APIKey string `toml:"api_key"`
	// RateLimit is requests per client per RateWindow; 0 disables limiting.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// QuoteConfig carries the one-shot quote parameters used by "quote" mode.
type QuoteConfig struct {
	Amount float64 `toml:"amount"`
	Side   string  `toml:"side"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Data: DataConfig{
			Source: "file",
			Path:   "data/order_books_data",
		},
		Balances: BalancesConfig{
			Mode:  "fixed",
			Base:  10.0,
			Quote: 50000.0,
			Seed:  1,
		},
		Postgres: PostgresConfig{
			Port:          5432,
			Database:      "metaquote",
			User:          "metaquote",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			PoolSize:        20,
			MaxRetries:      3,
			CacheTTLMinutes: 60,
		},
		S3: S3Config{
			Region:         "us-east-1",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Port:       8080,
			RateLimit:  0,
			RateWindow: duration{time.Second},
		},
		Mode:          "serve",
		LogLevel:      "info",
		BaseAsset:     "BTC",
		QuoteCurrency: "EUR",
	}
}

// Validate checks the configuration for inconsistencies that would make the
// service unable to start.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "serve", "quote":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	switch c.Data.Source {
	case "file":
		if strings.TrimSpace(c.Data.Path) == "" {
			return fmt.Errorf("config: data.path is required for file source")
		}
	case "s3":
		if strings.TrimSpace(c.Data.Path) == "" {
			return fmt.Errorf("config: data.path (object key) is required for s3 source")
		}
		if strings.TrimSpace(c.S3.Bucket) == "" {
			return fmt.Errorf("config: s3.bucket is required for s3 source")
		}
	default:
		return fmt.Errorf("config: unsupported data source %q", c.Data.Source)
	}

	if c.Data.MaxVenues < 0 {
		return fmt.Errorf("config: data.max_venues must not be negative")
	}

	switch c.Balances.Mode {
	case "fixed", "random":
	default:
		return fmt.Errorf("config: unsupported balances mode %q", c.Balances.Mode)
	}

	if strings.ToLower(c.Mode) == "quote" {
		if c.Quote.Amount <= 0 {
			return fmt.Errorf("config: quote.amount must be positive in quote mode")
		}
		side := strings.ToLower(strings.TrimSpace(c.Quote.Side))
		if side != "buy" && side != "sell" {
			return fmt.Errorf("config: quote.side must be buy or sell, got %q", c.Quote.Side)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("config: server.rate_limit must not be negative")
	}
	if c.Server.RateLimit > 0 && !c.Redis.Enabled() {
		return fmt.Errorf("config: server.rate_limit requires redis.addr")
	}

	return nil
}
