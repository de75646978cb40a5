package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contexture-ai/contexture/pkg/normalize"
)

func TestParsePayloadValidJSON(t *testing.T) {
	payload := normalize.ParsePayload([]byte(`{"contexts": []}`))
	require.NotNil(t, payload)
	root, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, root, "contexts")
}

func TestParsePayloadRepairsMalformedJSON(t *testing.T) {
	// Trailing comma and single quotes, typical LLM output damage.
	payload := normalize.ParsePayload([]byte(`{'contexts': [{'context_id': 'c1'},]}`))
	require.NotNil(t, payload)

	contexts := normalize.ExtractContexts(payload)
	require.Len(t, contexts, 1)
	assert.Equal(t, "c1", contexts[0]["context_id"])
}

func TestPayloadUnreadable(t *testing.T) {
	// Whatever the repair pass makes of garbage, no contexts come out.
	contexts, meta := normalize.Payload([]byte("not json at all {{{{ ]]["))
	assert.Empty(t, contexts)
	assert.Nil(t, meta)
}

func TestExtractContextsShapes(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		expected int
	}{
		{
			name:     "contexts key",
			payload:  map[string]any{"contexts": []any{map[string]any{"context_id": "a"}}},
			expected: 1,
		},
		{
			name:     "context_nodes key",
			payload:  map[string]any{"context_nodes": []any{map[string]any{"context_id": "a"}, map[string]any{"context_id": "b"}}},
			expected: 2,
		},
		{
			name:     "bare array",
			payload:  []any{map[string]any{"context_id": "a"}},
			expected: 1,
		},
		{
			name:     "non-map entries skipped",
			payload:  []any{map[string]any{"context_id": "a"}, "junk", 3.0},
			expected: 1,
		},
		{
			name:     "nil payload",
			payload:  nil,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, normalize.ExtractContexts(tt.payload), tt.expected)
		})
	}
}

func TestPayloadEndToEnd(t *testing.T) {
	data := []byte(`{
		"document_metadata": {
			"document_id": "DOC-9",
			"document_title": "Migration Notes",
			"vendor": "acme"
		},
		"contexts": [
			{"context_id": "c1", "title": "First"},
			{"title": "no id, dropped"},
			{"context_id": "c2"}
		]
	}`)

	contexts, meta := normalize.Payload(data)

	require.NotNil(t, meta)
	assert.Equal(t, "DOC-9", meta.DocumentID)
	assert.Equal(t, "acme", meta.Vendor)

	require.Len(t, contexts, 2, "context without context_id is dropped")
	assert.Equal(t, "c1", contexts[0].ContextID)
	assert.Equal(t, "DOC-9", contexts[0].DocumentID, "document id inherited")
	assert.Equal(t, "c2", contexts[1].ContextID)
}

func TestPayloadNoMetadata(t *testing.T) {
	contexts, meta := normalize.Payload([]byte(`[{"context_id": "c1"}]`))
	assert.Nil(t, meta)
	require.Len(t, contexts, 1)
	assert.Empty(t, contexts[0].DocumentID)
}
