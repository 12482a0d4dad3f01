package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MinJWTSecretLength is the shortest HMAC secret accepted for signing tokens.
const MinJWTSecretLength = 16

type Config struct {
	// HTTP Server
	Port           string
	TrustedProxies []string

	// Database
	DBDriver     string
	SQLiteDBPath string
	DatabaseURL  string

	// Auth
	JWTSecret              string
	JWTAccessTTL           time.Duration
	JWTRefreshTTL          time.Duration
	AuthRateLimitPerMinute int

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets ledger mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Worker
	WorkerPort string

	// CLI
	Currency string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		JWTSecret:              getEnv("JWT_SECRET", ""),
		JWTAccessTTL:           getEnvDuration("JWT_ACCESS_TTL", 5*time.Minute),
		JWTRefreshTTL:          getEnvDuration("JWT_REFRESH_TTL", 24*time.Hour),
		AuthRateLimitPerMinute: getEnvInt("AUTH_RATE_LIMIT_PER_MINUTE", 20),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "budget_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		WorkerPort: getEnv("WORKER_PORT", "8082"),

		Currency: getEnv("CURRENCY", "USD"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate checks the settings shared by every process and returns one
// error listing all problems.
func (c *Config) Validate() error {
	return joinProblems(c.commonProblems())
}

// ValidateAPI adds the requirements of the HTTP API.
func (c *Config) ValidateAPI() error {
	problems := c.commonProblems()

	if len(c.JWTSecret) < MinJWTSecretLength {
		problems = append(problems, fmt.Sprintf("JWT secret must be at least %d characters long", MinJWTSecretLength))
	}
	if c.JWTAccessTTL < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid JWT access TTL %v: must be at least 1 minute", c.JWTAccessTTL))
	}
	if c.JWTRefreshTTL < c.JWTAccessTTL {
		problems = append(problems, fmt.Sprintf("invalid JWT refresh TTL %v: must not be shorter than the access TTL", c.JWTRefreshTTL))
	}
	if c.AuthRateLimitPerMinute < 1 {
		problems = append(problems, fmt.Sprintf("invalid auth rate limit %d: must be at least 1", c.AuthRateLimitPerMinute))
	}

	return joinProblems(problems)
}

// ValidateWorker adds the requirements of the ledger mirror worker.
func (c *Config) ValidateWorker() error {
	problems := c.commonProblems()

	if c.AMQPURL == "" {
		problems = append(problems, "AMQP URL is required by the worker")
	}
	problems = append(problems, validatePort("worker port", c.WorkerPort)...)

	if c.GoogleSpreadsheetID == "" {
		problems = append(problems, "Google Spreadsheet ID is required by the worker")
	}
	if c.GoogleSheetName == "" {
		problems = append(problems, "Google Sheet name is required by the worker")
	}

	hasFile := c.GoogleServiceAccountFile != ""
	hasJSON := c.GoogleServiceAccountJSON != ""
	if !hasFile && !hasJSON {
		problems = append(problems, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the worker")
	}
	if hasFile {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	return joinProblems(problems)
}

func (c *Config) commonProblems() []string {
	var problems []string

	problems = append(problems, validatePort("port", c.Port)...)

	switch c.DBDriver {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using the sqlite driver")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when using the postgres driver")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid database URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			problems = append(problems, fmt.Sprintf("invalid database URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid database driver '%s': must be one of [sqlite postgres]", c.DBDriver))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(c.Currency) != 3 {
		problems = append(problems, fmt.Sprintf("invalid currency '%s': must be a 3-letter ISO code", c.Currency))
	}

	return problems
}

func validatePort(name, value string) []string {
	port, err := strconv.Atoi(value)
	if err != nil {
		return []string{fmt.Sprintf("invalid %s '%s': must be a number", name, value)}
	}
	if port < 1 || port > 65535 {
		return []string{fmt.Sprintf("invalid %s %d: must be between 1 and 65535", name, port)}
	}
	return nil
}

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
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

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
