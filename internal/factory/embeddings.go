package factory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-io/inkwell/server/internal/config"
	emb "github.com/inkwell-io/inkwell/server/internal/embeddings"
	"github.com/inkwell-io/inkwell/server/internal/embeddings/local"
	"github.com/inkwell-io/inkwell/server/internal/embeddings/ollama"
)

// NewEmbeddingProvider builds the embedding provider selected by
// EMBED_PROVIDER. Launches an async warmup so the first real request does not
// pay the model load; startup is never blocked on it.
func NewEmbeddingProvider(ctx context.Context, cfg *config.Config, log zerolog.Logger) emb.Provider {
	var provider emb.Provider

	switch cfg.EmbedProvider {
	case "local":
		provider = local.New(cfg.EmbedDimension)
	case "", "ollama":
		provider = ollama.New(cfg.OllamaURL, cfg.EmbedModel, cfg.EmbedDimension)
	default:
		log.Warn().Str("provider", cfg.EmbedProvider).Msg("unknown embedding provider; using ollama")
		provider = ollama.New(cfg.OllamaURL, cfg.EmbedModel, cfg.EmbedDimension)
	}

	go func() {
		warmupTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		warmupCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
		defer cancel()

		if vec, err := provider.Embed(warmupCtx, "factory-warmup-check"); err != nil || len(vec) == 0 {
			log.Warn().Err(err).Int("vec_len", len(vec)).
				Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup failed")
		} else {
			log.Debug().Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup completed")
		}
	}()

	return provider
}
