package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies METAQUOTE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known METAQUOTE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Data ──
	setStr(&cfg.Data.Source, "METAQUOTE_DATA_SOURCE")
	setStr(&cfg.Data.Path, "METAQUOTE_DATA_PATH")
	setInt(&cfg.Data.MaxVenues, "METAQUOTE_DATA_MAX_VENUES")

	// ── Balances ──
	setStr(&cfg.Balances.Mode, "METAQUOTE_BALANCES_MODE")
	setFloat64(&cfg.Balances.Base, "METAQUOTE_BALANCES_BASE")
	setFloat64(&cfg.Balances.Quote, "METAQUOTE_BALANCES_QUOTE")
	setInt64(&cfg.Balances.Seed, "METAQUOTE_BALANCES_SEED")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "METAQUOTE_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "METAQUOTE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "METAQUOTE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "METAQUOTE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "METAQUOTE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "METAQUOTE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "METAQUOTE_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "METAQUOTE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "METAQUOTE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "METAQUOTE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "METAQUOTE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "METAQUOTE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "METAQUOTE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "METAQUOTE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "METAQUOTE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "METAQUOTE_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.CacheTTLMinutes, "METAQUOTE_REDIS_CACHE_TTL_MINUTES")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "METAQUOTE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "METAQUOTE_S3_REGION")
	setStr(&cfg.S3.Bucket, "METAQUOTE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "METAQUOTE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "METAQUOTE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "METAQUOTE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "METAQUOTE_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "METAQUOTE_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "METAQUOTE_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "METAQUOTE_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "METAQUOTE_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "METAQUOTE_SERVER_RATE_WINDOW")

	// ── Quote mode ──
	setFloat64(&cfg.Quote.Amount, "METAQUOTE_QUOTE_AMOUNT")
	setStr(&cfg.Quote.Side, "METAQUOTE_QUOTE_SIDE")

	// ── Top-level ──
	setStr(&cfg.Mode, "METAQUOTE_MODE")
	setStr(&cfg.LogLevel, "METAQUOTE_LOG_LEVEL")
	setStr(&cfg.BaseAsset, "METAQUOTE_BASE_ASSET")
	setStr(&cfg.QuoteCurrency, "METAQUOTE_QUOTE_CURRENCY")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
