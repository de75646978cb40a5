package similarity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contexture-ai/contexture/pkg/similarity"
	"github.com/contexture-ai/contexture/pkg/types"
)

func ctxWithConditions(id string, conditions ...string) types.Context {
	return types.Context{ContextID: id, Conditions: conditions}
}

func TestBuildPartialOverlap(t *testing.T) {
	base := ctxWithConditions("base", "x", "y")
	corpus := []types.Context{ctxWithConditions("other", "x", "y", "z")}

	matches := similarity.Build(base, corpus, 0)

	require.Len(t, matches, 1)
	assert.Equal(t, "other", matches[0].ContextID)
	assert.InDelta(t, 0.67, matches[0].Score, 0.001, "2/3 rounded to two decimals")
	assert.Equal(t, similarity.LabelFailure, matches[0].Label)
}

func TestBuildIdenticalConditions(t *testing.T) {
	base := ctxWithConditions("base", "disk full", "replica lag")
	corpus := []types.Context{ctxWithConditions("twin", "Replica Lag", " disk full ")}

	matches := similarity.Build(base, corpus, 0)

	require.Len(t, matches, 1)
	assert.Equal(t, 1.0, matches[0].Score, "matching is case- and space-insensitive")
	assert.Equal(t, similarity.LabelSuccess, matches[0].Label)
}

func TestBuildClassificationThresholds(t *testing.T) {
	tests := []struct {
		name     string
		base     []string
		other    []string
		expected string
	}{
		{"score 1.0 is success", []string{"a", "b", "c", "d", "e"}, []string{"a", "b", "c", "d", "e"}, similarity.LabelSuccess},
		{"score 0.8 is success", []string{"a", "b", "c", "d", "e"}, []string{"a", "b", "c", "d"}, similarity.LabelSuccess},
		{"score 0.6 is failure", []string{"a", "b", "c", "d", "e"}, []string{"a", "b", "c"}, similarity.LabelFailure},
		{"score 0.4 is irrelevant", []string{"a", "b", "c", "d", "e"}, []string{"a", "b"}, similarity.LabelIrrelevant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := similarity.Build(
				ctxWithConditions("base", tt.base...),
				[]types.Context{ctxWithConditions("other", tt.other...)}, 10)
			require.Len(t, matches, 1)
			assert.Equal(t, tt.expected, matches[0].Label)
		})
	}
}

func TestBuildNoConditions(t *testing.T) {
	corpus := []types.Context{ctxWithConditions("other", "x")}

	matches := similarity.Build(ctxWithConditions("base"), corpus, 0)

	assert.NotNil(t, matches)
	assert.Empty(t, matches, "a context without conditions has no similarity defined")
}

func TestBuildExcludesSelf(t *testing.T) {
	base := ctxWithConditions("base", "x")
	corpus := []types.Context{
		ctxWithConditions("base", "x"),
		ctxWithConditions("other", "x"),
	}

	matches := similarity.Build(base, corpus, 10)

	require.Len(t, matches, 1)
	assert.Equal(t, "other", matches[0].ContextID)
}

func TestBuildDropsZeroOverlapAndEmptyCorpusEntries(t *testing.T) {
	base := ctxWithConditions("base", "x")
	corpus := []types.Context{
		ctxWithConditions("disjoint", "q"),
		ctxWithConditions("bare"),
	}

	assert.Empty(t, similarity.Build(base, corpus, 10))
}

func TestBuildOrderingAndLimit(t *testing.T) {
	base := ctxWithConditions("base", "a", "b", "c", "d")
	corpus := []types.Context{
		ctxWithConditions("half", "a", "b"),
		ctxWithConditions("full", "a", "b", "c", "d"),
		ctxWithConditions("quarter", "a"),
		ctxWithConditions("threequarter", "a", "b", "c"),
	}

	matches := similarity.Build(base, corpus, 3)

	require.Len(t, matches, 3)
	assert.Equal(t, "full", matches[0].ContextID)
	assert.Equal(t, "threequarter", matches[1].ContextID)
	assert.Equal(t, "half", matches[2].ContextID)
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{1.0, "1.0"},
		{0.67, "0.67"},
		{0.5, "0.5"},
		{0.0, "0.0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, similarity.FormatScore(tt.score))
	}
}

func TestBuildTiesKeepCorpusOrder(t *testing.T) {
	base := ctxWithConditions("base", "a", "b")
	corpus := []types.Context{
		ctxWithConditions("first", "a", "b"),
		ctxWithConditions("second", "b", "a"),
	}

	matches := similarity.Build(base, corpus, 10)

	require.Len(t, matches, 2)
	assert.Equal(t, "first", matches[0].ContextID)
	assert.Equal(t, "second", matches[1].ContextID)
}
