// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-rank/internal/embed"
	"github.com/pdiddy/patent-rank/internal/httputil"
	"github.com/pdiddy/patent-rank/internal/ops"
	"github.com/pdiddy/patent-rank/internal/output"
	"github.com/pdiddy/patent-rank/internal/pipeline"
	"github.com/pdiddy/patent-rank/internal/rank"
	"github.com/pdiddy/patent-rank/internal/secrets"
	"github.com/pdiddy/patent-rank/pkg/types"
)

// Config keys.
const (
	keyHTTPTimeout       = "http.timeout"
	keyHTTPUserAgent     = "http.user_agent"
	keyOPSBaseURL        = "ops.base_url"
	keyOPSTokenURL       = "ops.token_url"
	keyOPSMaxResults     = "ops.max_results"
	keyOPSClientID       = "ops.client_id"
	keyOPSClientSecret   = "ops.client_secret"
	keyEmbeddingProvider = "embedding.provider"
	keyEmbeddingBaseURL  = "embedding.base_url"
	keyEmbeddingModel    = "embedding.model"
	keyEmbeddingAPIKey   = "embedding.api_key"
	keyRankTopK          = "rank.top_k"
	keyOutputFormat      = "output.format"
	keyOutputExcerpt     = "output.excerpt"
	keyServeAddr         = "serve.addr"
)

func setDefaults() {
	viper.SetDefault(keyHTTPTimeout, types.DefaultTimeout)
	viper.SetDefault(keyHTTPUserAgent, "patent-rank/"+version)
	viper.SetDefault(keyOPSBaseURL, types.DefaultOPSBaseURL)
	viper.SetDefault(keyOPSMaxResults, types.DefaultMaxResults)
	viper.SetDefault(keyEmbeddingProvider, string(types.ProviderOpenAI))
	viper.SetDefault(keyEmbeddingModel, types.DefaultEmbeddingModel)
	viper.SetDefault(keyRankTopK, types.DefaultTopK)
	viper.SetDefault(keyOutputFormat, string(types.OutputTable))
	viper.SetDefault(keyOutputExcerpt, types.DefaultExcerpt)
	viper.SetDefault(keyServeAddr, types.DefaultServeAddr)
}

// bindFlags binds the named flags of cmd to config keys. Binding happens
// when the command runs so commands sharing a key do not overwrite each
// other's binding.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, flag := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig assembles a Config from viper, filling the embedding API key
// from the secrets directory when no other source sets it.
func loadConfig() (types.Config, error) {
	format, err := output.ParseFormat(viper.GetString(keyOutputFormat))
	if err != nil {
		return types.Config{}, err
	}
	httpCfg := types.HTTPConfig{
		Timeout:   viper.GetDuration(keyHTTPTimeout),
		UserAgent: viper.GetString(keyHTTPUserAgent),
	}
	cfg := types.Config{
		OPS: types.OPSConfig{
			HTTPConfig: httpCfg,
			BaseURL:    viper.GetString(keyOPSBaseURL),
			TokenURL:   viper.GetString(keyOPSTokenURL),
			MaxResults: viper.GetInt(keyOPSMaxResults),
		},
		Embedding: types.EmbeddingConfig{
			HTTPConfig: httpCfg,
			Provider:   types.EmbeddingProvider(viper.GetString(keyEmbeddingProvider)),
			BaseURL:    viper.GetString(keyEmbeddingBaseURL),
			Model:      viper.GetString(keyEmbeddingModel),
			APIKey:     loadedSecrets.Default(secrets.KeyEmbeddingAPIKey, viper.GetString(keyEmbeddingAPIKey)),
		},
		Rank:   types.RankConfig{TopK: viper.GetInt(keyRankTopK)},
		Output: types.OutputConfig{Format: format, Excerpt: viper.GetInt(keyOutputExcerpt)},
		Serve:  types.ServeConfig{Addr: viper.GetString(keyServeAddr)},
	}
	return cfg.WithDefaults(), nil
}

// resolveCredentials picks OPS credentials from, in order, the command's
// --client-id/--client-secret flags, config or environment, and the
// secrets directory. Each field resolves on its own.
func resolveCredentials(cmd *cobra.Command) types.Credentials {
	var creds types.Credentials
	if f := cmd.Flags().Lookup("client-id"); f != nil {
		creds.ClientID = f.Value.String()
	}
	if f := cmd.Flags().Lookup("client-secret"); f != nil {
		creds.ClientSecret = f.Value.String()
	}
	if creds.ClientID == "" {
		creds.ClientID = viper.GetString(keyOPSClientID)
	}
	if creds.ClientSecret == "" {
		creds.ClientSecret = viper.GetString(keyOPSClientSecret)
	}
	return loadedSecrets.Credentials(creds)
}

// newPipeline wires the OPS client, the lazily built embedder, and the
// ranker. The embedder is built on the first ranking call and reused for
// every later call on the returned pipeline.
func newPipeline(cfg types.Config, logger *zap.Logger) *pipeline.Pipeline {
	opsHTTP := httputil.NewClient(cfg.OPS.HTTPConfig)
	embedder := embed.NewLazy(string(cfg.Embedding.Provider), func() (embed.Embedder, error) {
		e, err := embed.New(cfg.Embedding, nil)
		if err != nil {
			return nil, err
		}
		logger.Debug("embedding model ready",
			zap.String("provider", e.Name()),
			zap.String("model", cfg.Embedding.Model),
		)
		return embed.Instrument(e, logger), nil
	})

	return &pipeline.Pipeline{
		Auth:       ops.NewAuthenticator(cfg.OPS, opsHTTP),
		Patents:    ops.NewClient(cfg.OPS, opsHTTP),
		Ranker:     rank.New(embedder),
		MaxResults: cfg.OPS.MaxResults,
		TopK:       cfg.Rank.TopK,
		Logger:     logger,
	}
}
