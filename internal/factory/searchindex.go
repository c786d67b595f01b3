package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-io/inkwell/server/internal/config"
	"github.com/inkwell-io/inkwell/server/internal/embeddings"
	"github.com/inkwell-io/inkwell/server/internal/searchindex"
	"github.com/inkwell-io/inkwell/server/internal/services"
	storepkg "github.com/inkwell-io/inkwell/server/internal/store"
)

// NewSearchIndex builds the vector index selected by VECTOR_INDEX.
//
// The embedded index loads its JSON snapshot synchronously; when the snapshot
// is missing or was written for a different embedding dimension, the index is
// rebuilt from the record store before serving. Weaviate returns immediately
// and bootstraps its schema asynchronously, matching the store pattern.
func NewSearchIndex(ctx context.Context, cfg *config.Config, st storepkg.Store, emb embeddings.Provider, log zerolog.Logger) (searchindex.Index, error) {
	switch cfg.VectorIndex {
	case "embedded":
		idx := searchindex.NewMemIndex(cfg.EmbedDimension, cfg.IndexPath)
		if err := idx.Load(); err != nil {
			log.Warn().Err(err).Str("path", cfg.IndexPath).Msg("index snapshot unusable, rebuilding from record store")
			if err := services.RebuildIndex(ctx, st, idx, emb, log); err != nil {
				return nil, fmt.Errorf("rebuild index: %w", err)
			}
		}
		return idx, nil

	case "weaviate":
		idx, err := searchindex.NewWeaviateIndex(cfg.WeaviateURL, cfg.EmbedDimension)
		if err != nil {
			return nil, err
		}

		go func() {
			bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
			bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
			defer cancel()

			if err := searchindex.BootstrapWeaviate(bootstrapCtx, cfg.WeaviateURL); err != nil {
				log.Warn().Err(err).Str("url", cfg.WeaviateURL).Msg("search index bootstrap failed")
			} else {
				log.Debug().Str("url", cfg.WeaviateURL).Msg("search index bootstrap completed")
			}
		}()

		return idx, nil

	default:
		return nil, fmt.Errorf("unknown VECTOR_INDEX: %s", cfg.VectorIndex)
	}
}
