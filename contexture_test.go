package contexture_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contexture-ai/contexture"
	"github.com/contexture-ai/contexture/pkg/driver"
	"github.com/contexture-ai/contexture/pkg/graphsync"
	"github.com/contexture-ai/contexture/pkg/types"
)

func newTestClient() (*contexture.Client, *driver.MemoryStore) {
	store := driver.NewMemoryStore()
	return contexture.NewClient(store, nil), store
}

func TestClientImplementsContexture(t *testing.T) {
	client, _ := newTestClient()
	var _ contexture.Contexture = client
}

func TestNormalizeThenBuildThenStore(t *testing.T) {
	client, store := newTestClient()
	ctx := context.Background()

	payload := []byte(`{
		"document_metadata": {"document_id": "DOC-1", "document_title": "Runbook"},
		"contexts": [{
			"context_id": "CTX-1",
			"title": {"en": "Failover drill", "zh": "故障转移演练"},
			"conditions": ["secondary healthy"],
			"outcomes": ["primary demoted"]
		}]
	}`)

	contexts, meta := client.NormalizePayload(payload)
	require.Len(t, contexts, 1)
	require.NotNil(t, meta)
	assert.Equal(t, "DOC-1", contexts[0].DocumentID)

	graph := client.BuildContextGraph(contexts[0])
	assert.NotEmpty(t, graph.Nodes)

	count, err := client.ImportContexts(ctx, contexts, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NotZero(t, store.NodeCount(types.NewScope("u1", "")))

	fetched, err := client.FetchDecisionGraph(ctx, "u1", "", "CTX-1")
	require.NoError(t, err)
	assert.NotEmpty(t, fetched.Nodes)

	loaded, err := client.LoadContexts(ctx, "u1", "", 0)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Failover drill", loaded[0].Title.EN)
	assert.Equal(t, []string{"secondary healthy"}, loaded[0].Conditions)
}

func TestStoreDecisionGraphThroughClient(t *testing.T) {
	client, store := newTestClient()
	ctx := context.Background()

	count, err := client.StoreDecisionGraph(ctx, graphsync.Request{
		Contexts: []types.Context{
			{ContextID: "c1", Conditions: []string{"x"}},
			{ContextID: "c2", Conditions: []string{"x"}},
		},
		UserID:    "u1",
		ProjectID: "proj-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	scope := types.NewScope("u1", "")
	assert.Len(t, store.NodesOfKind(scope, types.KindUser), 1)
	assert.Len(t, store.NodesOfKind(scope, types.KindProject), 1)
}

func TestBuildSimilarityThroughClient(t *testing.T) {
	client, _ := newTestClient()

	matches := client.BuildSimilarity(
		types.Context{ContextID: "c1", Conditions: []string{"x", "y"}},
		[]types.Context{{ContextID: "c2", Conditions: []string{"x", "y", "z"}}},
		3)

	require.Len(t, matches, 1)
	assert.Equal(t, "c2", matches[0].ContextID)
	assert.InDelta(t, 0.67, matches[0].Score, 0.001)
}

func TestClientClose(t *testing.T) {
	client, store := newTestClient()
	require.NoError(t, client.Close(context.Background()))

	err := store.ReplaceScope(context.Background(), types.NewScope("u1", ""), &driver.Batch{})
	assert.ErrorIs(t, err, driver.ErrStoreUnavailable)
}
