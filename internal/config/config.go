// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
)

// Default configuration values.
const (
	DefaultEmbeddingModel      = "text-embedding-3-small"
	DefaultEmbeddingDimensions = 1536
	DefaultLogLevel            = "INFO"
	DefaultSearchLimit         = 5
	DefaultListLimit           = 50
	DefaultEndpointMaxRetries  = 3
	DefaultEndpointBatchSize   = 10
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// AppConfig holds the application's resolved configuration. Values are
// immutable once constructed; build one with NewAppConfig and functional
// options, never by mutating fields directly.
type AppConfig struct {
	turso               TursoConfig
	openAIAPIKey        string
	embeddingModel      string
	embeddingDimensions int
	logLevel            string
	logFormat           LogFormat
	searchLimit         int
}

// TursoConfig holds the remote storage connection settings.
type TursoConfig struct {
	url       string
	authToken string
}

// URL returns the Turso/libsql database URL.
func (t TursoConfig) URL() string { return t.url }

// AuthToken returns the bearer auth token for the remote database.
func (t TursoConfig) AuthToken() string { return t.authToken }

// NewAppConfig creates a new AppConfig with defaults. Required fields
// (Turso URL, Turso auth token, OpenAI API key) are empty and must be set
// with options before the config is considered valid — see Validate.
func NewAppConfig() AppConfig {
	return AppConfig{
		embeddingModel:      DefaultEmbeddingModel,
		embeddingDimensions: DefaultEmbeddingDimensions,
		logLevel:            DefaultLogLevel,
		logFormat:           LogFormatPretty,
		searchLimit:         DefaultSearchLimit,
	}
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithTursoURL sets the Turso database URL.
func WithTursoURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.turso.url = url }
}

// WithTursoAuthToken sets the Turso bearer auth token.
func WithTursoAuthToken(token string) AppConfigOption {
	return func(c *AppConfig) { c.turso.authToken = token }
}

// WithOpenAIAPIKey sets the OpenAI-compatible embedding API key.
func WithOpenAIAPIKey(key string) AppConfigOption {
	return func(c *AppConfig) { c.openAIAPIKey = key }
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) AppConfigOption {
	return func(c *AppConfig) {
		if model != "" {
			c.embeddingModel = model
		}
	}
}

// WithEmbeddingDimensions sets the embedding vector dimensionality.
func WithEmbeddingDimensions(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.embeddingDimensions = n
		}
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) {
		if level != "" {
			c.logLevel = level
		}
	}
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithSearchLimit sets the default search result limit.
func WithSearchLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Turso returns the remote storage connection settings.
func (c AppConfig) Turso() TursoConfig { return c.turso }

// OpenAIAPIKey returns the embedding service API key.
func (c AppConfig) OpenAIAPIKey() string { return c.openAIAPIKey }

// EmbeddingModel returns the embedding model identifier.
func (c AppConfig) EmbeddingModel() string { return c.embeddingModel }

// EmbeddingDimensions returns the embedding vector dimensionality.
func (c AppConfig) EmbeddingDimensions() int { return c.embeddingDimensions }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// SearchLimit returns the default search result limit.
func (c AppConfig) SearchLimit() int { return c.searchLimit }

// Validate fails fast, naming the first missing required value, exactly as
// required for CLI and tool-server startup.
func (c AppConfig) Validate() error {
	switch {
	case c.turso.url == "":
		return fmt.Errorf("missing required environment value: TURSO_URL")
	case c.turso.authToken == "":
		return fmt.Errorf("missing required environment value: TURSO_AUTH_TOKEN")
	case c.openAIAPIKey == "":
		return fmt.Errorf("missing required environment value: OPENAI_API_KEY")
	}
	return nil
}

// LogAttrs returns slog attributes for logging the configuration. The
// Turso auth token and OpenAI API key are never logged in full.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("turso_url", c.turso.url),
		slog.Bool("turso_auth_token_set", c.turso.authToken != ""),
		slog.Bool("openai_api_key_set", c.openAIAPIKey != ""),
		slog.String("embedding_model", c.embeddingModel),
		slog.Int("embedding_dimensions", c.embeddingDimensions),
		slog.String("log_level", c.logLevel),
	}
}
