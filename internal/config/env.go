// Package config provides application configuration.
package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds environment-based configuration. Each field's envconfig
// tag names the environment variable it is read from; these exact names (TURSO_URL, TURSO_AUTH_TOKEN, OPENAI_API_KEY, ...) are preserved
// for compatibility with deployed installs.
type EnvConfig struct {
	// TursoURL is the remote libsql database URL.
	// Env: TURSO_URL (required)
	TursoURL string `envconfig:"TURSO_URL"`

	// TursoAuthToken is the bearer token for the remote database.
	// Env: TURSO_AUTH_TOKEN (required)
	TursoAuthToken string `envconfig:"TURSO_AUTH_TOKEN"`

	// OpenAIAPIKey is the API key for the embedding service.
	// Env: OPENAI_API_KEY (required)
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// EmbeddingModel is the embedding model identifier.
	// Env: EMBEDDING_MODEL (default: text-embedding-3-small)
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`

	// EmbeddingDimensions is the embedding vector dimensionality.
	// Env: EMBEDDING_DIMENSIONS (default: 1536)
	EmbeddingDimensions int `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// SearchLimit is the default search result limit.
	// Env: SEARCH_LIMIT (default: 5)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"5"`
}

// LoadFromEnv loads configuration from environment variables, with no
// prefix, matching the spec's documented variable names.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	cfg = applyOption(cfg, WithTursoURL(e.TursoURL))
	cfg = applyOption(cfg, WithTursoAuthToken(e.TursoAuthToken))
	cfg = applyOption(cfg, WithOpenAIAPIKey(e.OpenAIAPIKey))
	cfg = applyOption(cfg, WithEmbeddingModel(e.EmbeddingModel))
	cfg = applyOption(cfg, WithEmbeddingDimensions(e.EmbeddingDimensions))
	cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	cfg = applyOption(cfg, WithSearchLimit(e.SearchLimit))

	return cfg
}

// applyOption applies an option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
