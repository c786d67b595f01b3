package searchindex

import (
	"context"
	"fmt"
	"time"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// BootstrapWeaviate ensures the JournalEntry class exists with an external
// vectorizer. Vectors are always supplied by the embedding provider, never
// computed by Weaviate.
func BootstrapWeaviate(ctx context.Context, baseURL string) error {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	desired := &models.Class{
		Class:      entryClass,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "entryId", DataType: []string{"text"}},
			{Name: "ownerId", DataType: []string{"text"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "snippet", DataType: []string{"text"}},
		},
	}

	ex, err := cl.Schema().ClassGetter().WithClassName(entryClass).Do(cctx)
	if err == nil && ex != nil {
		return nil
	}
	if err := cl.Schema().ClassCreator().WithClass(desired).Do(cctx); err != nil {
		return fmt.Errorf("create class %s: %w", entryClass, err)
	}
	return nil
}
