package types

import "time"

// HTTPConfig holds shared HTTP settings used by every outbound call.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "patent-rank/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// OPSConfig holds settings for the EPO Open Patent Services client.
type OPSConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the OPS REST root, without trailing slash
	// (default "https://ops.epo.org/3.2").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// TokenURL is the OAuth token endpoint (default BaseURL + "/auth/accesstoken").
	TokenURL string `json:"token_url" yaml:"token_url"`

	// MaxResults bounds the search Range window (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// EmbeddingProvider identifies the service that turns text into vectors.
type EmbeddingProvider string

const (
	ProviderOpenAI EmbeddingProvider = "openai"
	ProviderOllama EmbeddingProvider = "ollama"
)

// EmbeddingConfig holds settings for the sentence-embedding backend.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the backend: openai (any OpenAI-compatible
	// /v1/embeddings server) or ollama.
	Provider EmbeddingProvider `json:"provider" yaml:"provider"`

	// BaseURL is the provider endpoint. Empty means the provider default.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the embedding model identifier
	// (default "AI-Growth-Lab/PatentSBERTa").
	Model string `json:"model" yaml:"model"`

	// APIKey is sent as a bearer token to OpenAI-compatible servers.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// RankConfig holds settings for the re-ranking stage.
type RankConfig struct {
	// TopK is the number of ranked results to keep (default 3).
	TopK int `json:"top_k" yaml:"top_k"`
}

// OutputFormat selects how ranked results are rendered.
type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

// OutputConfig holds presentation settings.
type OutputConfig struct {
	Format OutputFormat `json:"format" yaml:"format"`

	// Excerpt is the maximum number of abstract characters shown in a
	// table cell. Zero shows the full abstract.
	Excerpt int `json:"excerpt" yaml:"excerpt"`
}

// ServeConfig holds settings for the local web form.
type ServeConfig struct {
	// Addr is the listen address (default "127.0.0.1:8501").
	Addr string `json:"addr" yaml:"addr"`
}

// Config groups every setting of the tool.
type Config struct {
	OPS       OPSConfig       `json:"ops" yaml:"ops"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Rank      RankConfig      `json:"rank" yaml:"rank"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Serve     ServeConfig     `json:"serve" yaml:"serve"`
}

// Defaults for Config fields left at their zero value.
const (
	DefaultOPSBaseURL     = "https://ops.epo.org/3.2"
	DefaultMaxResults     = 5
	DefaultTopK           = 3
	DefaultEmbeddingModel = "AI-Growth-Lab/PatentSBERTa"
	DefaultTimeout        = 30 * time.Second
	DefaultExcerpt        = 160
	DefaultServeAddr      = "127.0.0.1:8501"
)

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.OPS.BaseURL == "" {
		c.OPS.BaseURL = DefaultOPSBaseURL
	}
	if c.OPS.TokenURL == "" {
		c.OPS.TokenURL = c.OPS.BaseURL + "/auth/accesstoken"
	}
	if c.OPS.MaxResults <= 0 {
		c.OPS.MaxResults = DefaultMaxResults
	}
	if c.OPS.Timeout <= 0 {
		c.OPS.Timeout = DefaultTimeout
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = DefaultEmbeddingModel
	}
	if c.Embedding.Timeout <= 0 {
		c.Embedding.Timeout = DefaultTimeout
	}
	if c.Rank.TopK <= 0 {
		c.Rank.TopK = DefaultTopK
	}
	if c.Output.Format == "" {
		c.Output.Format = OutputTable
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultServeAddr
	}
	return c
}
