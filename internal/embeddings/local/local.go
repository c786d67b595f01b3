// Package local implements a deterministic, dependency-free embedding
// provider. Tokens are feature-hashed into a fixed number of buckets and the
// result is L2-normalized, so texts sharing vocabulary land close under
// cosine similarity. Useful for tests and offline development; not a
// substitute for a real model.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

type Provider struct {
	dim int
}

func New(dim int) *Provider { return &Provider{dim: dim} }

func (p *Provider) Dimension() int { return p.dim }

// Embed is total: it never fails and embeds empty text to the zero vector.
func (p *Provider) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, p.dim)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec, nil
	}

	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		bucket := int(sum % uint64(p.dim))
		// Second hash bit decides the sign to keep buckets roughly centered.
		if (sum>>32)&1 == 1 {
			vec[bucket] += 1
		} else {
			vec[bucket] -= 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
