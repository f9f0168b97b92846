// Package config loads the application configuration from environment
// variables, applying defaults and validating the result.
package config

import (
	"time"

	"github.com/gabapcia/eventwatch/internal/pkg/validator"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix namespaces every environment variable; unprefixed names are
// accepted as a fallback.
const envPrefix = "eventwatch"

// Config holds every runtime setting of the indexer.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	RPCEndpoint string   `envconfig:"SOLANA_RPC_ENDPOINT" validate:"required,url"`
	ProgramID   string   `envconfig:"PROGRAM_ID"`
	Accounts    []string `envconfig:"WATCH_ACCOUNTS"`
	SchemaPath  string   `envconfig:"EVENT_SCHEMA_PATH" validate:"required"`

	PostgresDSN string `envconfig:"POSTGRES_DSN" validate:"required"`

	RedisAddr     string `envconfig:"REDIS_ADDR" validate:"required"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	MaxBackoff   time.Duration `envconfig:"MAX_BACKOFF" default:"1m"`
	FetchLimit   int           `envconfig:"FETCH_LIMIT" default:"100" validate:"gt=0,lte=1000"`
	ClaimTTL     time.Duration `envconfig:"CLAIM_TTL" default:"30s"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return cfg, err
	}

	return cfg, validator.Validate(cfg)
}
