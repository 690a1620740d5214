package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for casepulse-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Debug exposes generated SQL and engine errors in chat responses.
	// Never enable outside local development.
	Debug bool `yaml:"debug" env:"DEBUG" env-default:"false"`

	// Engine database (PostgreSQL) for chat turn history
	Database DatabaseConfig `yaml:"database"`

	// Reporting warehouse the analytics queries run against
	Reporting ReportingConfig `yaml:"reporting"`

	// Redis for the conversation state store (optional)
	Redis RedisConfig `yaml:"redis"`

	// AI provider for the SQL proposer and answer narrator
	AI AIConfig `yaml:"ai"`

	// Chat behavior
	Chat ChatConfig `yaml:"chat"`
}

// DatabaseConfig holds PostgreSQL engine database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"casepulse"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"casepulse_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// ReportingConfig holds the read-only reporting warehouse connection.
type ReportingConfig struct {
	// Type selects the datasource adapter: "postgres" or "mssql".
	Type     string `yaml:"type" env:"REPORTING_TYPE" env-default:"postgres"`
	Host     string `yaml:"host" env:"REPORTING_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"REPORTING_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"REPORTING_USER" env-default:"readonly"`
	Password string `yaml:"-" env:"REPORTING_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"REPORTING_DATABASE" env-default:"reports"`
	// Table is the single reporting table all queries are allowed to touch.
	Table string `yaml:"table" env:"REPORTING_TABLE" env-default:"dmLogReportDashboard"`
	// DateColumn is the primary date column used for period filters.
	DateColumn string `yaml:"date_column" env:"REPORTING_DATE_COLUMN" env-default:"createdDate"`
}

// RedisConfig holds Redis configuration for the conversation state store.
// If Host is empty the in-memory store is used instead.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// AIConfig holds LLM provider configuration.
type AIConfig struct {
	// Provider selects the client: "openai" (any OpenAI-compatible endpoint)
	// or "anthropic".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	BaseURL  string `yaml:"base_url" env:"AI_BASE_URL" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	APIKey   string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
}

// ChatConfig holds conversation behavior settings.
type ChatConfig struct {
	// SessionTTLMinutes bounds how long locked filters and pending
	// disambiguation prompts survive without a new message.
	SessionTTLMinutes int `yaml:"session_ttl_minutes" env:"CHAT_SESSION_TTL_MINUTES" env-default:"10"`
	// DefaultWindowDays is the fallback window applied when a message has no
	// recognizable time phrase and the caller asks for a day-count default.
	DefaultWindowDays int `yaml:"default_window_days" env:"CHAT_DEFAULT_WINDOW_DAYS" env-default:"0"`
	// CandidateLimit caps disambiguation option lists.
	CandidateLimit int `yaml:"candidate_limit" env:"CHAT_CANDIDATE_LIMIT" env-default:"5"`
	// MaxRows caps non-aggregated result sets.
	MaxRows int `yaml:"max_rows" env:"CHAT_MAX_ROWS" env-default:"500"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Reporting.Table == "" {
		return fmt.Errorf("reporting.table must not be empty")
	}
	if c.Reporting.DateColumn == "" {
		return fmt.Errorf("reporting.date_column must not be empty")
	}
	if c.Chat.SessionTTLMinutes <= 0 {
		return fmt.Errorf("chat.session_ttl_minutes must be positive")
	}
	if c.Chat.MaxRows <= 0 {
		return fmt.Errorf("chat.max_rows must be positive")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string for the engine database.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// ConnectionString returns a connection string for the reporting warehouse,
// shaped for the configured adapter type.
func (c *ReportingConfig) ConnectionString() string {
	switch c.Type {
	case "mssql":
		return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
			c.User, c.Password, c.Host, c.Port, c.Database)
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.User, c.Password, c.Database,
		)
	}
}
