package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/inkwell-io/inkwell/server/internal/model"
)

// Provider calls the local Ollama embeddings API.
type Provider struct {
	client *resty.Client
	model  string
	dim    int
}

// New creates a Provider against baseURL (e.g. "http://localhost:11434").
// dim is the dimension of the configured model's output; it is fixed at
// index-creation time.
func New(baseURL, embedModel string, dim int) *Provider {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(2 * time.Minute)
	return &Provider{client: c, model: embedModel, dim: dim}
}

func (p *Provider) Dimension() int { return p.dim }

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error"`
}

// Embed generates a dense vector for the given text. Empty text embeds to the
// zero vector without a provider round-trip.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, p.dim), nil
	}

	var out embedResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&embedRequest{Model: p.model, Prompt: text}).
		SetResult(&out).
		Post("/api/embeddings")
	if err != nil {
		return nil, fmt.Errorf("%w: ollama request: %v", model.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: ollama status %d: %s", model.ErrUpstreamUnavailable, resp.StatusCode(), resp.String())
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: ollama: %s", model.ErrUpstreamUnavailable, out.Error)
	}
	if len(out.Embedding) != p.dim {
		return nil, fmt.Errorf("%w: ollama returned %d dims, want %d", model.ErrUpstreamUnavailable, len(out.Embedding), p.dim)
	}

	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// HealthPing checks /api/tags for the configured model's presence.
func (p *Provider) HealthPing(ctx context.Context) error {
	var data struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	resp, err := p.client.R().SetContext(ctx).SetResult(&data).Get("/api/tags")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode())
	}
	want := baseModelName(p.model)
	for _, m := range data.Models {
		if baseModelName(m.Name) == want {
			return nil
		}
	}
	return fmt.Errorf("model %s not found", want)
}

// baseModelName strips the ":tag" suffix from an Ollama model name.
func baseModelName(name string) string {
	return strings.Split(name, ":")[0]
}
