package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptindex/scriptindex/domain/record"
	"github.com/scriptindex/scriptindex/internal/errs"
)

func scriptWithEmbedding(id int64, vec []float64) record.Script {
	return record.NewBuilder().ID(id).Name("s").Path("/p").Category("dev").Embedding(vec).Build()
}

func TestCosineSimilarity_Identical(t *testing.T) {
	sim, err := cosineSimilarity([]float64{1, 0, 0}, []float64{1, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	sim, err := cosineSimilarity([]float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)
}

func TestCosineSimilarity_ZeroMagnitude(t *testing.T) {
	sim, err := cosineSimilarity([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := cosineSimilarity([]float64{1, 2}, []float64{1, 2, 3})
	require.Error(t, err)
	require.IsType(t, &errs.DimensionMismatch{}, err)
}

func TestRankCandidates_SkipsMissingEmbeddings(t *testing.T) {
	noEmbedding := record.NewBuilder().ID(1).Name("a").Path("/a").Category("dev").Build()
	withEmbedding := scriptWithEmbedding(2, []float64{1, 0})

	results, err := rankCandidates([]float64{1, 0}, []record.Script{noEmbedding, withEmbedding}, Params{TopN: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].Script.ID())
}

func TestRankCandidates_OrdersByDescendingSimilarityThenAscendingID(t *testing.T) {
	a := scriptWithEmbedding(3, []float64{1, 0})
	b := scriptWithEmbedding(1, []float64{1, 0})
	c := scriptWithEmbedding(2, []float64{0, 1})

	results, err := rankCandidates([]float64{1, 0}, []record.Script{a, b, c}, Params{TopN: 5})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// a and b tie at similarity 1.0; b (lower id) must come first.
	assert.Equal(t, int64(1), results[0].Script.ID())
	assert.Equal(t, int64(3), results[1].Script.ID())
	assert.Equal(t, int64(2), results[2].Script.ID())
}

func TestRankCandidates_MinSimilarityFilter(t *testing.T) {
	a := scriptWithEmbedding(1, []float64{1, 0})
	b := scriptWithEmbedding(2, []float64{0, 1})

	threshold := 0.5
	results, err := rankCandidates([]float64{1, 0}, []record.Script{a, b}, Params{TopN: 5, MinSimilarity: &threshold})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].Script.ID())
}

func TestRankCandidates_TopNLimit(t *testing.T) {
	a := scriptWithEmbedding(1, []float64{1, 0})
	b := scriptWithEmbedding(2, []float64{1, 0})
	c := scriptWithEmbedding(3, []float64{1, 0})

	results, err := rankCandidates([]float64{1, 0}, []record.Script{a, b, c}, Params{TopN: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRankCandidates_DimensionMismatchPropagates(t *testing.T) {
	a := scriptWithEmbedding(1, []float64{1, 0, 0})

	_, err := rankCandidates([]float64{1, 0}, []record.Script{a}, Params{TopN: 5})
	require.Error(t, err)
	require.IsType(t, &errs.DimensionMismatch{}, err)
}
