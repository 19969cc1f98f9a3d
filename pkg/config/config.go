// Package config loads runtime settings from the environment, with an
// optional .env file for local development. Every field has a default; the
// dashboard must start with zero configuration.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`

	// Dashboard
	APIBaseURL string        `env:"PTS_API_BASE_URL" envDefault:"http://localhost:8600"`
	APITimeout time.Duration `env:"PTS_API_TIMEOUT" envDefault:"15s"`
	PageSize   int           `env:"PTS_PAGE_SIZE" envDefault:"20"`
	LogFile    string        `env:"PTS_LOG_FILE"`
	DataPath   string        `env:"PTS_DATA_PATH"`

	// Assistant; the canned responder is used when no key is set.
	LLMAPIKey string `env:"PTS_LLM_API_KEY"`
	LLMModel  string `env:"PTS_LLM_MODEL" envDefault:"gpt-4o-mini"`

	// Mock analytics service
	MockAddr string `env:"PTS_MOCK_ADDR" envDefault:":8600"`
	MockDB   string `env:"PTS_MOCK_DB" envDefault:"trials.db"`
	MockSeed int    `env:"PTS_MOCK_SEED" envDefault:"120"`
}

// Load reads the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("PTS_PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("PTS_API_TIMEOUT must be positive, got %s", cfg.APITimeout)
	}

	return cfg, nil
}

// IsLocal reports whether the process runs in local development mode,
// which switches logging to the human-readable console writer.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}
