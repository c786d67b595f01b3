package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the journal service.
// Environment variables are parsed from the INKWELL_ prefix,
// e.g. INKWELL_HTTP_PORT, INKWELL_DB_DRIVER.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Record store
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/inkwell.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Vector index
	VectorIndex string `envconfig:"VECTOR_INDEX" default:"embedded"`
	IndexPath   string `envconfig:"INDEX_PATH" default:"data/journal_index.json"`
	WeaviateURL string `envconfig:"WEAVIATE_URL" default:"localhost:8081"`

	// Embeddings
	EmbedProvider  string `envconfig:"EMBED_PROVIDER" default:"ollama"`
	EmbedModel     string `envconfig:"EMBED_MODEL" default:"all-minilm"`
	EmbedDimension int    `envconfig:"EMBED_DIMENSION" default:"384"`
	OllamaURL      string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`

	// Auth
	AuthSecret      string `envconfig:"AUTH_SECRET" default:""`
	TokenTTLMinutes int    `envconfig:"TOKEN_TTL_MINUTES" default:"30"`

	// Groq (transcription + summarization)
	GroqAPIKey string `envconfig:"GROQ_API_KEY" default:""`
	GroqURL    string `envconfig:"GROQ_URL" default:"https://api.groq.com"`

	// Health / startup
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"30"`
}

// ResolveDefaults validates driver and backend selection. Values derived here
// must be stable: the embedding dimension is fixed at index-creation time and
// changing it requires a rebuild from the record store.
func (c *Config) ResolveDefaults() error {
	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("INKWELL_POSTGRES_DSN is required when DB_DRIVER=postgres")
	}

	allowedIdx := map[string]bool{"embedded": true, "weaviate": true}
	if !allowedIdx[c.VectorIndex] {
		return fmt.Errorf("unsupported VECTOR_INDEX: %s", c.VectorIndex)
	}

	allowedEmbed := map[string]bool{"ollama": true, "local": true}
	if !allowedEmbed[c.EmbedProvider] {
		return fmt.Errorf("unsupported EMBED_PROVIDER: %s", c.EmbedProvider)
	}
	if c.EmbedDimension <= 0 {
		return fmt.Errorf("EMBED_DIMENSION must be positive")
	}

	if c.AuthSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("INKWELL_AUTH_SECRET is required in production")
		}
		// Outside production an unset secret gets an ephemeral one so the
		// service starts out of the box. Tokens minted with it do not
		// survive a restart.
		secret, err := ephemeralSecret()
		if err != nil {
			return fmt.Errorf("generate ephemeral auth secret: %w", err)
		}
		c.AuthSecret = secret
	}
	return nil
}

func ephemeralSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// New creates a new Config by parsing environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("INKWELL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		DBDriver:                  "sqlite",
		SQLitePath:                ":memory:",
		VectorIndex:               "embedded",
		EmbedProvider:             "local",
		EmbedModel:                "all-minilm",
		EmbedDimension:            384,
		AuthSecret:                "test-secret",
		TokenTTLMinutes:           30,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		BootstrapTimeoutSeconds:   5,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
