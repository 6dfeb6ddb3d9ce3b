package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	SessionBackendSQLite = "sqlite"
	SessionBackendMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port           string
	TrustedProxies []string
	RateLimit      int

	// Remote journal API
	APIBaseURL string
	APITimeout time.Duration

	// Session
	SessionBackend string
	SessionDBPath  string
	TokenPolicy    string

	// Behaviour
	JournalMode   string
	BudgetEnabled bool

	// AMQP activity events; disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Spreadsheet link
	GoogleSpreadsheetID string
	SpreadsheetURL      string
	SpreadsheetLinkTTL  time.Duration

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
		RateLimit:      getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		APIBaseURL: getEnv("API_BASE_URL", ""),
		APITimeout: getEnvDuration("API_TIMEOUT", 15*time.Second),

		SessionBackend: getEnv("SESSION_BACKEND", SessionBackendSQLite),
		SessionDBPath:  getEnv("SESSION_DB_PATH", "./data/journal.db"),
		TokenPolicy:    getEnv("TOKEN_POLICY", "presence"),

		JournalMode:   getEnv("JOURNAL_MODE", "annotate"),
		BudgetEnabled: getEnvBool("BUDGET_ENABLED", false),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "journal"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "journal_activity"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		SpreadsheetURL:      getEnv("SPREADSHEET_URL", ""),
		SpreadsheetLinkTTL:  getEnvDuration("SPREADSHEET_LINK_TTL", time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit))
	}

	if c.APIBaseURL == "" {
		errors = append(errors, "API_BASE_URL is required")
	} else if u, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be an absolute http or https URL", c.APIBaseURL))
	}

	if c.APITimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at least 1 second", c.APITimeout))
	} else if c.APITimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at most 2 minutes", c.APITimeout))
	}

	validBackends := []string{SessionBackendSQLite, SessionBackendMemory}
	if !slices.Contains(validBackends, c.SessionBackend) {
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of %v", c.SessionBackend, validBackends))
	}
	if c.SessionBackend == SessionBackendSQLite && c.SessionDBPath == "" {
		errors = append(errors, "session database path cannot be empty when using sqlite backend")
	}

	validPolicies := []string{"presence", "probe"}
	if !slices.Contains(validPolicies, c.TokenPolicy) {
		errors = append(errors, fmt.Sprintf("invalid token policy '%s': must be one of %v", c.TokenPolicy, validPolicies))
	}

	validModes := []string{"annotate", "full"}
	if !slices.Contains(validModes, c.JournalMode) {
		errors = append(errors, fmt.Sprintf("invalid journal mode '%s': must be one of %v", c.JournalMode, validModes))
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SpreadsheetURL != "" {
		if u, err := url.Parse(c.SpreadsheetURL); err != nil || u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid spreadsheet URL '%s': must be an https URL", c.SpreadsheetURL))
		}
	}
	if c.SpreadsheetLinkTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid spreadsheet link TTL %v: must not be negative", c.SpreadsheetLinkTTL))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Addr is the listen address for the UI server.
func (c *Config) Addr() string {
	return ":" + c.Port
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
