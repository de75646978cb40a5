// Package contexture normalizes loosely-typed decision-context records,
// derives graph views of their relationships, computes condition-set
// similarity, and synchronizes the result into a multi-tenant property
// graph with idempotent full-replace semantics.
package contexture

import (
	"context"
	"log/slog"
	"time"

	"github.com/contexture-ai/contexture/pkg/cache"
	"github.com/contexture-ai/contexture/pkg/driver"
	"github.com/contexture-ai/contexture/pkg/graphbuild"
	"github.com/contexture-ai/contexture/pkg/graphsync"
	"github.com/contexture-ai/contexture/pkg/normalize"
	"github.com/contexture-ai/contexture/pkg/project"
	"github.com/contexture-ai/contexture/pkg/similarity"
	"github.com/contexture-ai/contexture/pkg/types"
)

// Contexture is the operation surface exposed to callers (the web/API
// layer among them). Normalization and graph building are pure;
// Import/Store/Fetch/Load touch the injected graph store.
type Contexture interface {
	// NormalizeContext converts one raw record plus optional inherited
	// document metadata into a canonical Context.
	NormalizeContext(raw map[string]any, meta *types.DocumentMeta) types.Context

	// NormalizePayload parses a raw extractor payload and normalizes
	// every context in it.
	NormalizePayload(data []byte) ([]types.Context, *types.DocumentMeta)

	// BuildContextGraph derives the plain graph view of one context.
	BuildContextGraph(c types.Context) *types.Graph

	// BuildDecisionGraph derives the typed decision graph, with
	// similarity edges against the corpus when one is supplied.
	BuildDecisionGraph(c types.Context, corpus []types.Context, limit int) *types.Graph

	// BuildSimilarity ranks the corpus against a context by condition
	// overlap.
	BuildSimilarity(c types.Context, corpus []types.Context, limit int) []types.SimilarityMatch

	// ImportContexts replaces the (user, tenant) scope with the plain
	// graph shape of the batch and returns how many contexts were
	// written.
	ImportContexts(ctx context.Context, contexts []types.Context, userID, tenantID string) (int, error)

	// StoreDecisionGraph replaces the scope with the decision-graph
	// shape, threading User→Project→Document ownership.
	StoreDecisionGraph(ctx context.Context, req graphsync.Request) (int, error)

	// FetchDecisionGraph reads a scope's graph back as a nodes/links
	// view, optionally filtered to one context.
	FetchDecisionGraph(ctx context.Context, userID, tenantID, contextID string) (*types.Graph, error)

	// LoadContexts reconstructs partial canonical contexts from the
	// persisted graph.
	LoadContexts(ctx context.Context, userID, tenantID string, limit int) ([]types.Context, error)

	// CreateIndices creates the store's identity-key indices.
	CreateIndices(ctx context.Context) error

	// Close releases the store and cache.
	Close(ctx context.Context) error
}

// Config holds client construction options.
type Config struct {
	// SimilarityLimit bounds SIMILAR_TO edges per synced context.
	SimilarityLimit int
	// Cache holds fetched graph views; nil disables caching.
	Cache cache.Cache
	// CacheTTL bounds cached fetch results.
	CacheTTL time.Duration
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Client is the default Contexture implementation. The composition
// root owns the store's lifecycle and injects it here.
type Client struct {
	store     driver.GraphStore
	syncer    *graphsync.Syncer
	projector *project.Projector
	cache     cache.Cache
	logger    *slog.Logger
}

var _ Contexture = (*Client)(nil)

// NewClient creates a client over the given graph store.
func NewClient(store driver.GraphStore, cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	syncer := graphsync.New(store, graphsync.Options{
		SimilarityLimit: cfg.SimilarityLimit,
		Cache:           cfg.Cache,
		CacheTTL:        cfg.CacheTTL,
		Logger:          logger,
	})
	return &Client{
		store:     store,
		syncer:    syncer,
		projector: project.New(store, logger),
		cache:     cfg.Cache,
		logger:    logger,
	}
}

// NormalizeContext converts one raw record into a canonical Context.
func (c *Client) NormalizeContext(raw map[string]any, meta *types.DocumentMeta) types.Context {
	return normalize.Context(raw, meta)
}

// NormalizePayload parses and normalizes a raw extractor payload.
func (c *Client) NormalizePayload(data []byte) ([]types.Context, *types.DocumentMeta) {
	return normalize.Payload(data)
}

// BuildContextGraph derives the plain graph view of one context.
func (c *Client) BuildContextGraph(ctx types.Context) *types.Graph {
	return graphbuild.BuildContextGraph(ctx)
}

// BuildDecisionGraph derives the typed decision graph.
func (c *Client) BuildDecisionGraph(ctx types.Context, corpus []types.Context, limit int) *types.Graph {
	return graphbuild.BuildDecisionGraph(ctx, corpus, limit)
}

// BuildSimilarity ranks the corpus against a context.
func (c *Client) BuildSimilarity(ctx types.Context, corpus []types.Context, limit int) []types.SimilarityMatch {
	return similarity.Build(ctx, corpus, limit)
}

// ImportContexts syncs the plain graph shape of the batch.
func (c *Client) ImportContexts(ctx context.Context, contexts []types.Context, userID, tenantID string) (int, error) {
	return c.syncer.ImportContexts(ctx, contexts, userID, tenantID)
}

// StoreDecisionGraph syncs the decision-graph shape of the batch.
func (c *Client) StoreDecisionGraph(ctx context.Context, req graphsync.Request) (int, error) {
	return c.syncer.StoreDecisionGraph(ctx, req)
}

// FetchDecisionGraph reads a scope's graph back out.
func (c *Client) FetchDecisionGraph(ctx context.Context, userID, tenantID, contextID string) (*types.Graph, error) {
	return c.syncer.FetchDecisionGraph(ctx, userID, tenantID, contextID)
}

// LoadContexts reconstructs partial contexts from the persisted graph.
func (c *Client) LoadContexts(ctx context.Context, userID, tenantID string, limit int) ([]types.Context, error) {
	return c.projector.LoadContexts(ctx, userID, tenantID, limit)
}

// CreateIndices creates the store's identity-key indices.
func (c *Client) CreateIndices(ctx context.Context) error {
	return c.store.CreateIndices(ctx)
}

// Close releases the store and, when present, the cache.
func (c *Client) Close(ctx context.Context) error {
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			c.logger.Warn("cache close failed", "error", err)
		}
	}
	return c.store.Close(ctx)
}
