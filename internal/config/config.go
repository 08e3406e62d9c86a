package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config is built once at startup and handed to the components that need
// it. Nothing reads the environment after Load returns.
type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Sessions
	SessionTTL   time.Duration
	SecureCookie bool

	// Narrative insights (Gemini)
	GeminiAPIKey   string
	GeminiModel    string
	InsightTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tradejournal.db"),

		SessionTTL:   getEnvDuration("SESSION_TTL", 30*24*time.Hour),
		SecureCookie: getEnvBool("SECURE_COOKIE", false),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		InsightTimeout: getEnvDuration("INSIGHT_TIMEOUT", 15*time.Second),
	}
}

// Validate checks the configuration and returns an error describing every
// invalid field.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.SessionTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.InsightTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid insight timeout %v: must be at least 1 second", c.InsightTimeout))
	} else if c.InsightTimeout > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid insight timeout %v: must be at most 1 minute", c.InsightTimeout))
	}

	// GeminiAPIKey may be empty: insights degrade to placeholders.

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// InsightsEnabled reports whether the Gemini collaborator is configured.
func (c *Config) InsightsEnabled() bool {
	return c.GeminiAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
