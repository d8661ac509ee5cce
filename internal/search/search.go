// Package search implements the Vector Search (C6): cosine similarity
// ranking over a bounded candidate set fetched from the Repository.
package search

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/scriptindex/scriptindex/domain/record"
	"github.com/scriptindex/scriptindex/internal/embedding"
	"github.com/scriptindex/scriptindex/internal/errs"
	"github.com/scriptindex/scriptindex/internal/repository"
)

// MaxCandidates is the fixed candidate-fetch ceiling: high enough that the
// full table under a single category can be scanned, while keeping the
// linear scan after category filtering cheap relative to the embedding
// round-trip.
const MaxCandidates = 10000

// Result pairs a script record with its similarity score in [-1, 1].
type Result struct {
	Script     record.Script
	Similarity float64
}

// Params controls a Search call.
type Params struct {
	TopN          int
	Category      string // empty means unfiltered
	MinSimilarity *float64
}

// Searcher embeds a query and ranks candidates from the Repository by
// cosine similarity.
type Searcher struct {
	embedder *embedding.Client
	repo     *repository.Store
}

// New constructs a Searcher.
func New(embedder *embedding.Client, repo *repository.Store) *Searcher {
	return &Searcher{embedder: embedder, repo: repo}
}

// Search embeds query once, fetches candidates bounded by MaxCandidates,
// and returns the top_n ranked by descending similarity with an
// ascending-id tie-break.
func (s *Searcher) Search(ctx context.Context, query string, params Params) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errs.NewInvalidInput("query", "must not be empty")
	}
	if params.TopN < 1 {
		return nil, errs.NewInvalidInput("top_n", "must be at least 1")
	}

	embedded, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := s.repo.List(ctx, repository.ListOptions{
		Limit:    MaxCandidates,
		Category: params.Category,
	})
	if err != nil {
		return nil, err
	}

	return rankCandidates(embedded.Vector, candidates, params)
}

// rankCandidates applies the cosine-similarity filter/sort/top-N steps
// (spec.md §4.6 steps 3-6) to an already-fetched candidate set.
func rankCandidates(queryVector []float64, candidates []record.Script, params Params) ([]Result, error) {
	var results []Result
	for _, c := range candidates {
		if !c.HasEmbedding() {
			continue
		}

		sim, err := cosineSimilarity(queryVector, c.Embedding())
		if err != nil {
			return nil, err
		}

		if params.MinSimilarity != nil && sim < *params.MinSimilarity {
			continue
		}

		results = append(results, Result{Script: c, Similarity: sim})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Script.ID() < results[j].Script.ID()
	})

	if len(results) > params.TopN {
		results = results[:params.TopN]
	}
	return results, nil
}

// cosineSimilarity computes dot(a, b) / (||a|| * ||b||). A zero magnitude
// on either side yields a similarity of 0. Mismatched dimensions are
// rejected with a typed error.
func cosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, errs.NewDimensionMismatch(len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
