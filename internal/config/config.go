// Package config loads process settings from the environment and an optional
// YAML file through viper.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Jakarta must resolve in slim images

	"github.com/spf13/viper"

	applog "pengeluaran/internal/log"
)

// Bot modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Data backends.
const (
	BackendMemory = "memory"
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

var validBackends = []string{BackendMemory, BackendSheets, BackendSQLite}

type Config struct {
	// HTTP Server
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	Timezone string `mapstructure:"timezone"`

	// Telegram
	BotAPIToken string `mapstructure:"bot_api_token"`
	BotMode     string `mapstructure:"bot_mode"`
	WebhookURL  string `mapstructure:"webhook_url"`

	// Backend selection
	DataBackend    string `mapstructure:"data_backend"`
	SQLiteDBPath   string `mapstructure:"sqlite_db_path"`
	MemorySeedFile string `mapstructure:"memory_seed_file"`

	// AMQP mirror, disabled when AMQPURL is empty
	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`
	AMQPQueue    string `mapstructure:"amqp_queue"`

	// Google Sheets
	GoogleSpreadsheetID      string        `mapstructure:"google_spreadsheet_id"`
	GoogleSheetName          string        `mapstructure:"google_sheet_name"`
	GoogleServiceAccountJSON string        `mapstructure:"google_service_account_json"`
	GoogleServiceAccountFile string        `mapstructure:"google_service_account_file"`
	GoogleOAuthClientFile    string        `mapstructure:"google_oauth_client_file"`
	GoogleOAuthTokenFile     string        `mapstructure:"google_oauth_token_file"`
	GoogleOAuthClientJSON    string        `mapstructure:"google_oauth_client_json"`
	GoogleOAuthTokenJSON     string        `mapstructure:"google_oauth_token_json"`
	GoogleCacheTTL           time.Duration `mapstructure:"google_cache_ttl"`

	// Housekeeping
	CacheCleanupInterval       time.Duration `mapstructure:"cache_cleanup_interval"`
	RateLimitRequestsPerMinute int           `mapstructure:"rate_limit_requests_per_minute"`
}

func defaults() map[string]any {
	return map[string]any{
		"port":                           "8080",
		"log_level":                      "info",
		"timezone":                       "Asia/Jakarta",
		"bot_api_token":                  "",
		"bot_mode":                       ModePolling,
		"webhook_url":                    "",
		"data_backend":                   BackendMemory,
		"sqlite_db_path":                 "./data/pengeluaran.db",
		"memory_seed_file":               "",
		"amqp_url":                       "",
		"amqp_exchange":                  "pengeluaran",
		"amqp_queue":                     "ledger_rows",
		"google_spreadsheet_id":          "",
		"google_sheet_name":              "Expenses",
		"google_service_account_json":    "",
		"google_service_account_file":    "",
		"google_oauth_client_file":       "",
		"google_oauth_token_file":        "",
		"google_oauth_client_json":       "",
		"google_oauth_token_json":        "",
		"google_cache_ttl":               "30s",
		"cache_cleanup_interval":         "5m",
		"rate_limit_requests_per_minute": 120,
	}
}

// Load reads the YAML file at path when non-empty, then lets environment
// variables (upper-cased keys, e.g. BOT_API_TOKEN) override it.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.BotMode = strings.ToLower(strings.TrimSpace(c.BotMode))
	c.DataBackend = strings.ToLower(strings.TrimSpace(c.DataBackend))
	return &c, nil
}

// LoadFromEnv is Load with the file named by CONFIG_FILE.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

// Location resolves Timezone; callers should have validated it first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SlogLevel maps LogLevel onto slog levels, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	return applog.ParseLevel(c.LogLevel)
}

// Validate checks the settings shared by every binary.
func (c *Config) Validate() error {
	return joinProblems(c.commonProblems())
}

// ValidateBot adds the Telegram settings the bot process needs.
func (c *Config) ValidateBot() error {
	problems := c.commonProblems()

	if strings.TrimSpace(c.BotAPIToken) == "" {
		problems = append(problems, "BOT_API_TOKEN is required")
	}
	switch c.BotMode {
	case ModePolling:
	case ModeWebhook:
		if c.WebhookURL == "" {
			problems = append(problems, "WEBHOOK_URL is required when BOT_MODE is webhook")
		} else if u, err := url.Parse(c.WebhookURL); err != nil || u.Scheme != "https" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("invalid WEBHOOK_URL '%s': must be an absolute https URL", c.WebhookURL))
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid bot mode '%s': must be one of [%s %s]", c.BotMode, ModePolling, ModeWebhook))
	}
	return joinProblems(problems)
}

// ValidateMirror checks what the mirror worker needs: a broker and a sheet.
func (c *Config) ValidateMirror() error {
	problems := c.commonProblems()
	if c.AMQPURL == "" {
		problems = append(problems, "AMQP_URL is required for the ledger mirror")
	}
	if c.DataBackend != BackendSheets {
		problems = append(problems, c.googleProblems()...)
	}
	return joinProblems(problems)
}

func (c *Config) commonProblems() []string {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil || c.Timezone == "" {
		problems = append(problems, fmt.Sprintf("invalid timezone '%s'", c.Timezone))
	}

	isValidBackend := false
	for _, b := range validBackends {
		if c.DataBackend == b {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case BackendSheets:
		problems = append(problems, c.googleProblems()...)
	case BackendMemory:
		if c.MemorySeedFile != "" {
			if _, err := os.Stat(c.MemorySeedFile); err != nil && !os.IsNotExist(err) {
				problems = append(problems, fmt.Sprintf("cannot read memory seed file '%s': %v", c.MemorySeedFile, err))
			}
		}
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

	if c.GoogleCacheTTL < 0 {
		problems = append(problems, fmt.Sprintf("invalid Google cache TTL %v: must not be negative", c.GoogleCacheTTL))
	}
	if c.CacheCleanupInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid cache cleanup interval %v: must be at least 1 second", c.CacheCleanupInterval))
	}
	if c.RateLimitRequestsPerMinute < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRequestsPerMinute))
	}

	return problems
}

func (c *Config) googleProblems() []string {
	var problems []string
	if c.GoogleSpreadsheetID == "" {
		problems = append(problems, "Google Spreadsheet ID is required when using sheets backend")
	}

	hasServiceAccount := c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
	hasClient := c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != ""
	hasToken := c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != ""

	switch {
	case hasServiceAccount:
	case hasClient && !hasToken:
		problems = append(problems, "either GOOGLE_OAUTH_TOKEN_FILE or GOOGLE_OAUTH_TOKEN_JSON must be provided with OAuth client credentials")
	case !hasClient:
		problems = append(problems, "Google credentials are required: a service account or GOOGLE_OAUTH_CLIENT_* with GOOGLE_OAUTH_TOKEN_*")
	}

	for _, f := range []struct{ label, path string }{
		{"Google service account file", c.GoogleServiceAccountFile},
		{"Google OAuth client file", c.GoogleOAuthClientFile},
		{"Google OAuth token file", c.GoogleOAuthTokenFile},
	} {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("%s does not exist: %s", f.label, f.path))
		}
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
}
