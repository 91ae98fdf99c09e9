// Package config loads the application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Checkpoint store backends.
const (
	StoreMemory   = "memory"
	StoreSqlite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all runtime settings. Every field is bound to a YELPNAV_*
// environment variable, except the OpenAI credentials which follow the
// conventional OPENAI_* names.
type Config struct {
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_API_BASE"`
	Model         string `envconfig:"YELPNAV_MODEL" default:"gpt-4o-mini"`

	// ToolBaseURL is the base URL of the business data service exposing
	// /search, /details and /sentiment.
	ToolBaseURL string        `envconfig:"YELPNAV_TOOL_URL" default:"http://localhost:8080"`
	ToolTimeout time.Duration `envconfig:"YELPNAV_TOOL_TIMEOUT" default:"15s"`

	StoreBackend string        `envconfig:"YELPNAV_STORE" default:"memory"`
	SqlitePath   string        `envconfig:"YELPNAV_SQLITE_PATH" default:"yelpnav.db"`
	RedisAddr    string        `envconfig:"YELPNAV_REDIS_ADDR" default:"localhost:6379"`
	RedisTTL     time.Duration `envconfig:"YELPNAV_REDIS_TTL" default:"168h"`
	PostgresDSN  string        `envconfig:"YELPNAV_POSTGRES_DSN"`

	LogLevel string `envconfig:"YELPNAV_LOG_LEVEL" default:"info"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreSqlite, StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.StoreBackend)
	}
	if c.StoreBackend == StorePostgres && c.PostgresDSN == "" {
		return fmt.Errorf("config: YELPNAV_POSTGRES_DSN is required for the postgres store")
	}
	return nil
}
