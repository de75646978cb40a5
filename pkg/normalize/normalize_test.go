package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contexture-ai/contexture/pkg/normalize"
	"github.com/contexture-ai/contexture/pkg/types"
)

func TestResolveText(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, ""},
		{"plain string", "  hello  ", "hello"},
		{"bilingual prefers english", map[string]any{"en": "hello", "zh": "你好"}, "hello"},
		{"bilingual falls back to chinese", map[string]any{"en": "", "zh": "你好"}, "你好"},
		{"number stringified", 42.0, "42"},
		{"empty map", map[string]any{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalize.ResolveText(tt.input))
		})
	}
}

func TestEnsureList(t *testing.T) {
	assert.Empty(t, normalize.EnsureList(nil))
	assert.Equal(t, []any{"a", "b"}, normalize.EnsureList([]any{"a", "b"}))
	assert.Equal(t, []any{"scalar"}, normalize.EnsureList("scalar"))
	assert.Equal(t, []any{42.0}, normalize.EnsureList(42.0))
}

func TestContextAllDefaults(t *testing.T) {
	ctx := normalize.Context(map[string]any{"context_id": "CTX-001"}, nil)

	assert.Equal(t, "CTX-001", ctx.ContextID)
	assert.Equal(t, "CTX-001", ctx.Title.EN, "title falls back to context_id")
	assert.Empty(t, ctx.DecisionLevel)
	assert.Empty(t, ctx.ContextIntents)
	assert.Empty(t, ctx.Entities)
	assert.Empty(t, ctx.Conditions)
	assert.Empty(t, ctx.ObservedIssues)
	assert.Empty(t, ctx.Outcomes)
	assert.Empty(t, ctx.RecommendedSolutions)
	assert.Empty(t, ctx.DecisionBoundaries)
	assert.Empty(t, ctx.Counterfactuals)
	assert.Zero(t, ctx.ConfidenceScore)
	assert.Empty(t, ctx.SourceNote)
	assert.Empty(t, ctx.EvolvesTo)

	// Every list field is non-nil so downstream code never nil-checks.
	assert.NotNil(t, ctx.ContextIntents)
	assert.NotNil(t, ctx.Conditions)
	assert.NotNil(t, ctx.Outcomes)
}

func TestContextTitleFallbackChain(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		expected string
	}{
		{
			name:     "explicit title wins",
			raw:      map[string]any{"context_id": "c1", "title": "Real Title", "context_type": "migration"},
			expected: "Real Title",
		},
		{
			name:     "title_text alias",
			raw:      map[string]any{"context_id": "c1", "title_text": "Aliased Title"},
			expected: "Aliased Title",
		},
		{
			name:     "context_type next",
			raw:      map[string]any{"context_id": "c1", "context_type": "migration", "scenario_summary": "sum"},
			expected: "migration",
		},
		{
			name:     "scenario_summary next",
			raw:      map[string]any{"context_id": "c1", "scenario_summary": "summary text"},
			expected: "summary text",
		},
		{
			name:     "context_id last resort",
			raw:      map[string]any{"context_id": "c1"},
			expected: "c1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := normalize.Context(tt.raw, nil)
			assert.Equal(t, tt.expected, ctx.Title.Resolve())
		})
	}
}

func TestContextBilingualTitle(t *testing.T) {
	ctx := normalize.Context(map[string]any{
		"context_id": "c1",
		"title":      map[string]any{"en": "English", "zh": "中文"},
	}, nil)

	assert.Equal(t, "English", ctx.Title.EN)
	assert.Equal(t, "中文", ctx.Title.ZH)
}

func TestContextFieldAliases(t *testing.T) {
	ctx := normalize.Context(map[string]any{
		"context_id":               "c1",
		"observed_issues_or_risks": []any{"risk-1"},
		"outcomes_or_consequences": []any{"outcome-1"},
		"context_scope":            []any{"scope-1"},
	}, nil)

	assert.Equal(t, []string{"risk-1"}, ctx.ObservedIssues)
	assert.Equal(t, []string{"outcome-1"}, ctx.Outcomes)
	assert.Equal(t, []string{"scope-1"}, ctx.ContextIntents)
}

func TestContextAliasPrefersCanonicalKey(t *testing.T) {
	ctx := normalize.Context(map[string]any{
		"context_id":               "c1",
		"observed_issues":          []any{"canonical"},
		"observed_issues_or_risks": []any{"aliased"},
	}, nil)

	assert.Equal(t, []string{"canonical"}, ctx.ObservedIssues)
}

func TestContextScalarCoercedToList(t *testing.T) {
	ctx := normalize.Context(map[string]any{
		"context_id": "c1",
		"conditions": "single condition",
		"outcomes":   []any{"o1", "o2"},
	}, nil)

	assert.Equal(t, []string{"single condition"}, ctx.Conditions)
	assert.Equal(t, []string{"o1", "o2"}, ctx.Outcomes)
}

func TestContextEntities(t *testing.T) {
	ctx := normalize.Context(map[string]any{
		"context_id": "c1",
		"entities": []any{
			map[string]any{"name": "DBA", "type": "role"},
			map[string]any{"name": "PostgreSQL", "type": "system"},
			"bare-name",
			map[string]any{"type": "orphan type"}, // no name, dropped
			42.0,                                  // not an entity, dropped
		},
	}, nil)

	require.Len(t, ctx.Entities, 3)
	assert.Equal(t, types.EntityRef{Name: "DBA", Type: "role"}, ctx.Entities[0])
	assert.True(t, ctx.Entities[0].IsRole())
	assert.False(t, ctx.Entities[1].IsRole())
	assert.Equal(t, "bare-name", ctx.Entities[2].Name)
}

func TestContextBoundaries(t *testing.T) {
	ctx := normalize.Context(map[string]any{
		"context_id": "c1",
		"decision_boundaries": []any{
			map[string]any{
				"boundary_type":  "irreversible",
				"description":    "data is dropped",
				"affected_roles": []any{"DBA"},
			},
			map[string]any{"description": "untyped"},
			"not a boundary",
		},
	}, nil)

	require.Len(t, ctx.DecisionBoundaries, 2)
	assert.Equal(t, "irreversible", ctx.DecisionBoundaries[0].BoundaryType)
	assert.Equal(t, []string{"DBA"}, ctx.DecisionBoundaries[0].AffectedRoles)
	assert.Equal(t, "unspecified", ctx.DecisionBoundaries[1].BoundaryType,
		"missing boundary_type defaults")
}

func TestContextConfidenceCoercion(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected float64
	}{
		{"float", 0.85, 0.85},
		{"numeric string", "0.7", 0.7},
		{"garbage string", "high", 0.0},
		{"missing", nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{"context_id": "c1"}
			if tt.value != nil {
				raw["confidence_score"] = tt.value
			}
			ctx := normalize.Context(raw, nil)
			assert.Equal(t, tt.expected, ctx.ConfidenceScore)
		})
	}
}

func TestContextSourceNote(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		expected string
	}{
		{
			name:     "section and page",
			raw:      map[string]any{"source_note": map[string]any{"section": "3.2 Upgrades", "page": "14"}},
			expected: "3.2 Upgrades, p.14",
		},
		{
			name:     "section only",
			raw:      map[string]any{"source_note": map[string]any{"section": "Appendix"}},
			expected: "Appendix",
		},
		{
			name:     "page only",
			raw:      map[string]any{"source_note": map[string]any{"page": "7"}},
			expected: "7",
		},
		{
			name:     "plain string",
			raw:      map[string]any{"source_note": "see chapter 2"},
			expected: "see chapter 2",
		},
		{
			name:     "source_reference alias",
			raw:      map[string]any{"source_reference": map[string]any{"section": "Intro", "page": "1"}},
			expected: "Intro, p.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.raw["context_id"] = "c1"
			ctx := normalize.Context(tt.raw, nil)
			assert.Equal(t, tt.expected, ctx.SourceNote)
		})
	}
}

func TestContextDocumentInheritance(t *testing.T) {
	meta := &types.DocumentMeta{
		DocumentID:    "DOC-1",
		DocumentTitle: "Upgrade Guide",
	}

	inherited := normalize.Context(map[string]any{"context_id": "c1"}, meta)
	assert.Equal(t, "DOC-1", inherited.DocumentID)
	assert.Equal(t, "Upgrade Guide", inherited.DocumentTitle)
	assert.Same(t, meta, inherited.DocumentMetadata)

	overridden := normalize.Context(map[string]any{
		"context_id":  "c2",
		"document_id": "DOC-OWN",
	}, meta)
	assert.Equal(t, "DOC-OWN", overridden.DocumentID, "context-level id wins over inherited")
	assert.Equal(t, "Upgrade Guide", overridden.DocumentTitle)
}

func TestContextLLMUsagePolicy(t *testing.T) {
	ctx := normalize.Context(map[string]any{
		"context_id":       "c1",
		"llm_usage_policy": map[string]any{"allow_training": false},
	}, nil)

	require.NotNil(t, ctx.LLMUsagePolicy)
	assert.Equal(t, false, ctx.LLMUsagePolicy["allow_training"])
}
