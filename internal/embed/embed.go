// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns text into fixed-length vectors through a pretrained
// sentence-embedding model served over HTTP. Providers implement Embedder;
// Lazy defers construction to first use and shares the handle for the
// lifetime of the process.
package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/patent-rank/internal/httputil"
	"github.com/pdiddy/patent-rank/internal/metrics"
	"github.com/pdiddy/patent-rank/pkg/types"
)

// ErrEmptyResponse is returned when a provider answers with fewer vectors
// than texts sent.
var ErrEmptyResponse = errors.New("embedding provider returned too few vectors")

// Embedder encodes texts into vectors, one per input, in input order.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the provider selected by cfg.Provider. hc may be nil.
func New(cfg types.EmbeddingConfig, hc *http.Client) (Embedder, error) {
	if hc == nil {
		hc = httputil.NewClient(cfg.HTTPConfig)
	} else {
		hc = httputil.WithUserAgent(hc, cfg.UserAgent)
	}
	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		return NewOpenAI(cfg, hc), nil
	case types.ProviderOllama:
		return NewOllama(cfg, hc)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q: use openai or ollama", cfg.Provider)
	}
}

// Lazy constructs its Embedder on first use, exactly once. A construction
// error is remembered and returned on every later call. Safe for
// concurrent use; the wrapped Embedder is read-only after construction.
type Lazy struct {
	name  string
	build func() (Embedder, error)

	once sync.Once
	e    Embedder
	err  error
}

// NewLazy returns a Lazy that calls build on first use.
func NewLazy(name string, build func() (Embedder, error)) *Lazy {
	return &Lazy{name: name, build: build}
}

// Get returns the shared Embedder, constructing it if needed.
func (l *Lazy) Get() (Embedder, error) {
	l.once.Do(func() {
		l.e, l.err = l.build()
		if l.err != nil {
			l.err = fmt.Errorf("initializing embedding model: %w", l.err)
		}
	})
	return l.e, l.err
}

// Name returns the provider label given at construction.
func (l *Lazy) Name() string { return l.name }

// Embed delegates to the shared Embedder.
func (l *Lazy) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := l.Get()
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, texts)
}

// Instrumented records Prometheus metrics and debug logs around an Embedder.
type Instrumented struct {
	inner  Embedder
	logger *zap.Logger
}

// Instrument wraps e. A nil logger disables logging.
func Instrument(e Embedder, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{inner: e, logger: logger}
}

// Name returns the inner provider name.
func (i *Instrumented) Name() string { return i.inner.Name() }

// Embed delegates to the inner Embedder and checks the vector count.
func (i *Instrumented) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	provider := i.inner.Name()
	start := time.Now()

	vecs, err := i.inner.Embed(ctx, texts)

	duration := time.Since(start)
	if err == nil && len(vecs) != len(texts) {
		err = fmt.Errorf("%w: sent %d texts, got %d vectors", ErrEmptyResponse, len(texts), len(vecs))
	}
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "error").Inc()
		i.logger.Warn("embedding request failed",
			zap.String("provider", provider),
			zap.Int("texts", len(texts)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, fmt.Errorf("embed: %w", err)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	metrics.EmbeddedTextsTotal.WithLabelValues(provider).Add(float64(len(texts)))
	i.logger.Debug("embedded texts",
		zap.String("provider", provider),
		zap.Int("texts", len(texts)),
		zap.Duration("duration", duration),
	)
	return vecs, nil
}
