// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/pdiddy/patent-rank/pkg/types"
)

// Ollama embeds through an Ollama server's /api/embed endpoint.
type Ollama struct {
	client *api.Client
	model  string
}

// NewOllama returns an Ollama embedder. An empty cfg.BaseURL falls back to
// OLLAMA_HOST or the local default.
func NewOllama(cfg types.EmbeddingConfig, hc *http.Client) (*Ollama, error) {
	var client *api.Client
	if cfg.BaseURL == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("creating Ollama client: %w", err)
		}
		client = c
	} else {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid Ollama host %q: %w", cfg.BaseURL, err)
		}
		if hc == nil {
			hc = http.DefaultClient
		}
		client = api.NewClient(u, hc)
	}

	model := cfg.Model
	if model == "" {
		model = types.DefaultEmbeddingModel
	}
	return &Ollama{client: client, model: model}, nil
}

// Name returns the provider identifier.
func (e *Ollama) Name() string { return string(types.ProviderOllama) }

// Embed sends all texts in one request and returns vectors in input order.
func (e *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("Ollama embed: %w", err)
	}
	return resp.Embeddings, nil
}
