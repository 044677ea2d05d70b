// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one search action: token exchange, document
// search, bibliographic fetch for each hit, and semantic re-ranking.
// Every stage completes before the next starts and any error aborts the
// whole action.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/patent-rank/internal/metrics"
	"github.com/pdiddy/patent-rank/internal/ops"
	"github.com/pdiddy/patent-rank/internal/rank"
	"github.com/pdiddy/patent-rank/pkg/types"
)

// NoAbstractsWarning is reported when no candidate has a usable abstract.
const NoAbstractsWarning = "Nessun abstract disponibile nei risultati."

// ErrIncompleteInput is returned when the client id, client secret, or
// question is empty.
var ErrIncompleteInput = errors.New("client id, client secret and question are all required")

// TokenSource exchanges credentials for an access token.
type TokenSource interface {
	Token(ctx context.Context, creds types.Credentials) (string, error)
}

// PatentSource searches publications and fetches their bibliographic data.
type PatentSource interface {
	Search(ctx context.Context, token, query string, maxResults int) (*ops.SearchResponse, error)
	FetchRecord(ctx context.Context, token string, ref types.DocumentReference) (types.DocumentRecord, error)
}

// Request is the user input for one search action.
type Request struct {
	Credentials types.Credentials
	Question    string
}

// Pipeline holds the collaborators for a search action. It keeps no
// state between runs apart from what its collaborators share (the lazy
// embedding handle).
type Pipeline struct {
	Auth    TokenSource
	Patents PatentSource
	Ranker  *rank.Ranker

	// MaxResults bounds the search window (default 5).
	MaxResults int

	// TopK is the number of ranked results kept (default 3).
	TopK int

	Logger *zap.Logger
}

// Run executes one search action.
func (p *Pipeline) Run(ctx context.Context, req Request) (types.SearchReport, error) {
	rep, err := p.run(ctx, req)
	switch {
	case err != nil:
		metrics.SearchesTotal.WithLabelValues("error").Inc()
	case rep.Warning != "":
		metrics.SearchesTotal.WithLabelValues("no_abstracts").Inc()
	default:
		metrics.SearchesTotal.WithLabelValues("ranked").Inc()
	}
	return rep, err
}

func (p *Pipeline) run(ctx context.Context, req Request) (types.SearchReport, error) {
	log := p.logger()
	question := strings.TrimSpace(req.Question)
	if !req.Credentials.IsComplete() || question == "" {
		return types.SearchReport{}, ErrIncompleteInput
	}
	rep := types.SearchReport{Question: question}

	start := time.Now()
	token, err := p.Auth.Token(ctx, req.Credentials)
	observe("token", start)
	if err != nil {
		return types.SearchReport{}, fmt.Errorf("obtaining access token: %w", err)
	}

	start = time.Now()
	sr, err := p.Patents.Search(ctx, token, question, p.MaxResults)
	observe("search", start)
	if err != nil {
		return types.SearchReport{}, fmt.Errorf("searching patents: %w", err)
	}
	refs := sr.References()
	rep.Candidates = len(refs)
	log.Debug("search complete",
		zap.Int("references", len(refs)),
		zap.Int("total_results", sr.TotalResults()),
	)

	var usable []types.DocumentRecord
	for _, ref := range refs {
		start = time.Now()
		rec, err := p.Patents.FetchRecord(ctx, token, ref)
		observe("biblio", start)
		if err != nil {
			return types.SearchReport{}, fmt.Errorf("fetching %s: %w", ref, err)
		}
		if !rec.HasAbstract {
			metrics.DocumentsFetchedTotal.WithLabelValues("missing").Inc()
			log.Debug("no abstract", zap.Stringer("document", ref))
			continue
		}
		metrics.DocumentsFetchedTotal.WithLabelValues("present").Inc()
		usable = append(usable, rec)
	}
	rep.WithAbstract = len(usable)

	if len(usable) == 0 {
		rep.Warning = NoAbstractsWarning
		return rep, nil
	}

	start = time.Now()
	scored, err := p.Ranker.Rank(ctx, question, usable, p.TopK)
	observe("rank", start)
	if err != nil {
		return types.SearchReport{}, fmt.Errorf("ranking abstracts: %w", err)
	}
	rep.Results = rank.Results(scored)
	log.Debug("ranking complete", zap.Int("results", len(rep.Results)))
	return rep, nil
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func observe(stage string, start time.Time) {
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
