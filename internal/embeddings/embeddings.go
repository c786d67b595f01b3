package embeddings

import "context"

// Provider produces vector representations for text.
//
// Embed is potentially slow (model-dependent) and must honor ctx cancellation.
// Callers must not hold shared locks while embedding.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int
}
