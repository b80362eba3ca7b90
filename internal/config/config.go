package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// MaxMonthsAhead bounds every configured or requested horizon.
const MaxMonthsAhead = 24

var validBackends = []string{"memory", "sqlite", "postgres", "sheets"}

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	LogLevel string

	// Ledger backend selection
	LedgerBackend string
	SeedFile      string

	// Database
	SQLiteDBPath   string
	PostgresDSN    string
	SnapshotDBPath string
	SnapshotKeep   int

	// Google Sheets
	GoogleSpreadsheetID         string
	GoogleTransactionsSheetName string

	// Forecast collaborator
	ForecastAPIURL           string
	ForecastAPIKey           string
	ForecastTimeout          time.Duration
	ForecastResponsePath     string
	ForecastIncludeRecurring bool

	// Planner
	MonthsAhead int
	LabelLocale string
	CacheTTL    time.Duration
	CacheSize   int

	// AMQP
	AMQPURL          string
	AMQPExchange     string
	AMQPQueue        string
	AMQPRefreshQueue string

	// Worker
	RefreshSchedule string
	RefreshHorizons []int
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		LedgerBackend: getEnv("LEDGER_BACKEND", "memory"),
		SeedFile:      getEnv("LEDGER_SEED_FILE", "./data/seed_transactions.csv"),

		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/planner.db"),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		SnapshotDBPath: getEnv("SNAPSHOT_DB_PATH", ""),
		SnapshotKeep:   getEnvInt("SNAPSHOT_KEEP", 20),

		GoogleSpreadsheetID:         getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleTransactionsSheetName: getEnv("GOOGLE_TRANSACTIONS_SHEET_NAME", "Transactions"),

		ForecastAPIURL:           getEnv("FORECAST_API_URL", "http://localhost:8000"),
		ForecastAPIKey:           getEnv("FORECAST_API_KEY", "dev_key"),
		ForecastTimeout:          getEnvDuration("FORECAST_TIMEOUT", 10*time.Second),
		ForecastResponsePath:     getEnv("FORECAST_RESPONSE_PATH", ""),
		ForecastIncludeRecurring: getEnvBool("FORECAST_INCLUDE_RECURRING", true),

		MonthsAhead: getEnvInt("MONTHS_AHEAD", 6),
		LabelLocale: getEnv("LABEL_LOCALE", "fr"),
		CacheTTL:    getEnvDuration("CACHE_TTL", 24*time.Hour),
		CacheSize:   getEnvInt("CACHE_SIZE", 32),

		AMQPURL:          getEnv("AMQP_URL", ""),
		AMQPExchange:     getEnv("AMQP_EXCHANGE", "planner"),
		AMQPQueue:        getEnv("AMQP_QUEUE", "plan_computed"),
		AMQPRefreshQueue: getEnv("AMQP_REFRESH_QUEUE", "plan_refresh"),

		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 30m"),
		RefreshHorizons: getEnvIntList("REFRESH_HORIZONS", []int{3, 6, 12}),
	}

	return cfg
}

// SnapshotStorePath returns the SQLite file holding plan snapshots, or ""
// when snapshots are disabled. The sqlite ledger keeps them in its own file.
func (c *Config) SnapshotStorePath() string {
	if c.SnapshotDBPath != "" {
		return c.SnapshotDBPath
	}
	if c.LedgerBackend == "sqlite" {
		return c.SQLiteDBPath
	}
	return ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if !slices.Contains(validBackends, c.LedgerBackend) {
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of %v", c.LedgerBackend, validBackends))
	}

	switch c.LedgerBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleTransactionsSheetName == "" {
			errors = append(errors, "Google transactions sheet name is required when using sheets backend")
		}
	}

	if path := c.SnapshotStorePath(); path != "" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}
	if c.SnapshotKeep < 1 {
		errors = append(errors, fmt.Sprintf("invalid snapshot keep %d: must be at least 1", c.SnapshotKeep))
	}

	if parsedURL, err := url.Parse(c.ForecastAPIURL); err != nil || c.ForecastAPIURL == "" {
		errors = append(errors, fmt.Sprintf("invalid forecast API URL '%s'", c.ForecastAPIURL))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid forecast API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}
	if c.ForecastTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid forecast timeout %v: must be positive", c.ForecastTimeout))
	}

	if c.MonthsAhead < 0 || c.MonthsAhead > MaxMonthsAhead {
		errors = append(errors, fmt.Sprintf("invalid months ahead %d: must be between 0 and %d", c.MonthsAhead, MaxMonthsAhead))
	}
	if c.LabelLocale != "fr" && c.LabelLocale != "en" {
		errors = append(errors, fmt.Sprintf("invalid label locale '%s': must be 'fr' or 'en'", c.LabelLocale))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be positive", c.CacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" || c.AMQPRefreshQueue == "" {
			errors = append(errors, "AMQP queue names cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid refresh schedule '%s': %v", c.RefreshSchedule, err))
	}
	if len(c.RefreshHorizons) == 0 {
		errors = append(errors, "at least one refresh horizon is required")
	}
	for _, h := range c.RefreshHorizons {
		if h < 0 || h > MaxMonthsAhead {
			errors = append(errors, fmt.Sprintf("invalid refresh horizon %d: must be between 0 and %d", h, MaxMonthsAhead))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvIntList parses a comma separated list. Any bad element falls back
// to the default for the whole list.
func getEnvIntList(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, i)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
