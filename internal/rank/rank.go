// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank re-orders fetched patent records by the cosine similarity of
// their abstracts to a natural-language question.
package rank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/patent-rank/internal/embed"
	"github.com/pdiddy/patent-rank/pkg/types"
)

// ErrDimensionMismatch is returned when the question and an abstract embed
// to vectors of different length.
var ErrDimensionMismatch = errors.New("embedding dimensions differ")

// Scored pairs a record with its similarity to the question. The record
// travels with its score, so results never need to be matched back to
// documents by abstract text.
type Scored struct {
	Record types.DocumentRecord
	Score  float64
}

// Ranker scores records against a question with an Embedder.
type Ranker struct {
	embedder embed.Embedder
}

// New returns a Ranker using e.
func New(e embed.Embedder) *Ranker {
	return &Ranker{embedder: e}
}

// Rank embeds every abstract in one call and the question in a second,
// then returns the topK records by descending cosine similarity. Equal
// scores keep input order. topK <= 0 means the default of 3. The result
// has min(topK, len(records)) entries; no records means no embedding call.
func (r *Ranker) Rank(ctx context.Context, question string, records []types.DocumentRecord, topK int) ([]Scored, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = types.DefaultTopK
	}

	abstracts := make([]string, len(records))
	for i, rec := range records {
		abstracts[i] = rec.Abstract
	}

	docVecs, err := r.embedder.Embed(ctx, abstracts)
	if err != nil {
		return nil, fmt.Errorf("embedding abstracts: %w", err)
	}
	if len(docVecs) != len(records) {
		return nil, fmt.Errorf("embedding abstracts: got %d vectors for %d texts", len(docVecs), len(records))
	}

	qVecs, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(qVecs) != 1 {
		return nil, fmt.Errorf("embedding question: got %d vectors for 1 text", len(qVecs))
	}
	q := qVecs[0]

	scores := make([]float64, len(records))
	for i, v := range docVecs {
		if len(v) != len(q) {
			return nil, fmt.Errorf("%w: question %d, %s %d",
				ErrDimensionMismatch, len(q), records[i].Reference, len(v))
		}
		scores[i] = CosineSimilarity(q, v)
	}

	order := TopK(scores, topK)
	out := make([]Scored, len(order))
	for i, idx := range order {
		out[i] = Scored{Record: records[idx], Score: scores[idx]}
	}
	return out, nil
}

// TopK returns the indices of the k highest scores, highest first. Equal
// scores keep their input order.
func TopK(scores []float64, k int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector has zero norm or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		af, bf := float64(a[i]), float64(b[i])
		dot += af * bf
		normA += af * af
		normB += bf * bf
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Round rounds a score to 4 decimal places.
func Round(score float64) float64 {
	return math.Round(score*1e4) / 1e4
}

// Results converts scored records into display rows with rounded scores.
func Results(scored []Scored) []types.RankedResult {
	out := make([]types.RankedResult, len(scored))
	for i, s := range scored {
		out[i] = types.RankedResult{
			Reference: s.Record.Reference,
			Title:     s.Record.Title,
			Abstract:  s.Record.Abstract,
			Score:     Round(s.Score),
		}
	}
	return out
}
