package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults_AcceptsSupportedDrivers(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"sqlite default", func(c *Config) {}, false},
		{"postgres with dsn", func(c *Config) {
			c.DBDriver = "postgres"
			c.PostgresDSN = "postgres://localhost/inkwell"
		}, false},
		{"postgres without dsn", func(c *Config) { c.DBDriver = "postgres" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"weaviate index", func(c *Config) { c.VectorIndex = "weaviate" }, false},
		{"unknown index", func(c *Config) { c.VectorIndex = "faiss" }, true},
		{"local embedder", func(c *Config) { c.EmbedProvider = "local" }, false},
		{"unknown embedder", func(c *Config) { c.EmbedProvider = "openai" }, true},
		{"zero dimension", func(c *Config) { c.EmbedDimension = 0 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewForTesting()
			tc.mutate(cfg)
			err := cfg.ResolveDefaults()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolveDefaults_RequiresSecretInProduction(t *testing.T) {
	cfg := NewForTesting()
	cfg.Environment = EnvProduction
	cfg.AuthSecret = ""
	require.Error(t, cfg.ResolveDefaults())

	cfg.AuthSecret = "prod-secret"
	require.NoError(t, cfg.ResolveDefaults())
}

func TestResolveDefaults_GeneratesDevSecretWhenUnset(t *testing.T) {
	cfg := NewForTesting()
	cfg.Environment = EnvDevelopment
	cfg.AuthSecret = ""
	require.NoError(t, cfg.ResolveDefaults())
	assert.NotEmpty(t, cfg.AuthSecret)

	// Each process gets its own secret; tokens do not survive a restart.
	other := NewForTesting()
	other.Environment = EnvDevelopment
	other.AuthSecret = ""
	require.NoError(t, other.ResolveDefaults())
	assert.NotEqual(t, cfg.AuthSecret, other.AuthSecret)

	// An explicit secret is left alone.
	pinned := NewForTesting()
	pinned.Environment = EnvDevelopment
	pinned.AuthSecret = "keep-me"
	require.NoError(t, pinned.ResolveDefaults())
	assert.Equal(t, "keep-me", pinned.AuthSecret)
}

func TestNewForTesting_IsTesting(t *testing.T) {
	cfg := NewForTesting()
	assert.True(t, cfg.IsTesting())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
}
