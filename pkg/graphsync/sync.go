// Package graphsync makes the persisted property graph for a
// (user, tenant) scope exactly reflect a batch of canonical contexts.
// The protocol is full replace: delete the scope, rebuild it from the
// batch, all inside one store transaction. Node and edge identity is
// deterministic, so re-running a sync is a no-op in the store.
package graphsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/contexture-ai/contexture/pkg/cache"
	"github.com/contexture-ai/contexture/pkg/driver"
	"github.com/contexture-ai/contexture/pkg/graphbuild"
	"github.com/contexture-ai/contexture/pkg/similarity"
	"github.com/contexture-ai/contexture/pkg/types"
)

// Options tunes a Syncer.
type Options struct {
	// SimilarityLimit bounds SIMILAR_TO edges per context in the
	// decision-graph shape.
	SimilarityLimit int
	// CacheTTL bounds how long fetched graph views stay cached.
	CacheTTL time.Duration
	// Cache holds fetch results; nil disables caching.
	Cache cache.Cache
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Request describes one sync call. ProjectID switches on the
// decision-graph shape: ownership chain, similarity and evolution
// edges.
type Request struct {
	Contexts   []types.Context
	UserID     string
	TenantID   string
	ProjectID  string
	DocumentID string
	GraphID    string
	// WithSimilarity adds SIMILAR_TO edges computed over the batch.
	WithSimilarity bool
	// WithEvolution adds EVOLVES_TO edges (and placeholder context
	// nodes for unseen targets).
	WithEvolution bool
}

// Syncer owns all writes to the graph store. One Syncer serializes
// writers per scope; reads run concurrently.
type Syncer struct {
	store   driver.GraphStore
	breaker *gobreaker.CircuitBreaker
	opts    Options
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[types.Scope]*sync.Mutex
}

// New creates a Syncer over the given store.
func New(store driver.GraphStore, opts Options) *Syncer {
	if opts.SimilarityLimit <= 0 {
		opts.SimilarityLimit = graphbuild.DefaultSimilarityLimit
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store: store,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "graph-store",
		}),
		opts:   opts,
		logger: logger,
		locks:  map[types.Scope]*sync.Mutex{},
	}
}

func (s *Syncer) scopeLock(scope types.Scope) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[scope]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[scope] = lock
	}
	return lock
}

// ImportContexts replaces the scope with the plain graph shape of the
// batch and returns the count of contexts written.
func (s *Syncer) ImportContexts(ctx context.Context, contexts []types.Context, userID, tenantID string) (int, error) {
	return s.Sync(ctx, Request{
		Contexts: contexts,
		UserID:   userID,
		TenantID: tenantID,
	})
}

// StoreDecisionGraph replaces the scope with the decision-graph shape:
// User→Project→Document ownership, similarity and evolution edges. An
// absent GraphID is generated.
func (s *Syncer) StoreDecisionGraph(ctx context.Context, req Request) (int, error) {
	if req.GraphID == "" {
		req.GraphID = uuid.NewString()
	}
	req.WithSimilarity = true
	req.WithEvolution = true
	return s.Sync(ctx, req)
}

// Sync is the unified write contract behind both entry points.
func (s *Syncer) Sync(ctx context.Context, req Request) (int, error) {
	scope := types.NewScope(req.UserID, req.TenantID)
	batch, count := s.buildBatch(scope, req)

	lock := s.scopeLock(scope)
	lock.Lock()
	defer lock.Unlock()

	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.store.ReplaceScope(ctx, scope, batch)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", driver.ErrStoreUnavailable, err)
		}
		s.logger.Error("graph sync failed",
			"user_id", scope.UserID, "tenant_id", scope.TenantID, "error", err)
		return 0, err
	}

	s.invalidate(scope)
	s.logger.Info("persisted decision graph",
		"user_id", scope.UserID, "tenant_id", scope.TenantID,
		"contexts", count, "nodes", len(batch.Nodes), "edges", len(batch.Edges))
	return count, nil
}

// buildBatch assembles the full node/edge set for the scope. The first
// pass materializes contexts, documents and the ownership chain; the
// second adds field nodes, typed edges and cross-context links, so a
// placeholder never shadows a real context node.
func (s *Syncer) buildBatch(scope types.Scope, req Request) (*driver.Batch, int) {
	batch := &driver.Batch{}
	seen := map[string]bool{}

	addNode := func(row driver.NodeRow) {
		identity := string(row.Kind) + "|" + row.Key
		if seen[identity] {
			return
		}
		seen[identity] = true
		batch.Nodes = append(batch.Nodes, row)
	}
	addEdge := func(kind types.EdgeKind, source, target, reason string) {
		batch.Edges = append(batch.Edges, driver.EdgeRow{
			Kind: kind, SourceID: source, TargetID: target, Reason: reason,
		})
	}

	contexts := make([]types.Context, 0, len(req.Contexts))
	for _, c := range req.Contexts {
		if strings.TrimSpace(c.ContextID) == "" {
			continue
		}
		contexts = append(contexts, c)
	}

	ownership := req.ProjectID != ""
	if ownership {
		addNode(driver.NodeRow{
			Kind: types.KindUser, Key: scope.UserID,
			ID: graphbuild.NodeID(types.KindUser, scope.UserID), Label: scope.UserID,
		})
		addNode(driver.NodeRow{
			Kind: types.KindProject, Key: req.ProjectID,
			ID:    graphbuild.NodeID(types.KindProject, req.ProjectID),
			Label: req.ProjectID,
			Props: map[string]any{"graph_id": req.GraphID},
		})
		addEdge(types.EdgeHasProject,
			graphbuild.NodeID(types.KindUser, scope.UserID),
			graphbuild.NodeID(types.KindProject, req.ProjectID), "")
	}

	// First pass: context and document nodes.
	for _, c := range contexts {
		contextNode := graphbuild.NodeID(types.KindContext, c.ContextID)
		addNode(driver.NodeRow{
			Kind:  types.KindContext,
			Key:   c.ContextID,
			ID:    contextNode,
			Label: c.Label(),
			Props: contextProps(c, req),
		})

		documentID := c.DocumentID
		if documentID == "" {
			documentID = req.DocumentID
		}
		if documentID == "" {
			continue
		}
		documentNode := graphbuild.NodeID(types.KindDocument, documentID)
		title := c.DocumentTitle
		if title == "" {
			title = documentID
		}
		props := map[string]any{"title": title}
		if req.GraphID != "" {
			props["graph_id"] = req.GraphID
		}
		addNode(driver.NodeRow{
			Kind: types.KindDocument, Key: documentID,
			ID: documentNode, Label: title, Props: props,
		})
		addEdge(types.EdgeHasContext, documentNode, contextNode, "")
		if ownership {
			addEdge(types.EdgeHasDocument,
				graphbuild.NodeID(types.KindProject, req.ProjectID), documentNode, "")
		}
	}

	// Second pass: field nodes and typed edges.
	for _, c := range contexts {
		contextNode := graphbuild.NodeID(types.KindContext, c.ContextID)

		for _, entity := range c.Entities {
			name := strings.TrimSpace(entity.Name)
			if name == "" {
				continue
			}
			kind := graphbuild.EntityKind(entity)
			id := graphbuild.NodeID(kind, name)
			addNode(driver.NodeRow{Kind: kind, Key: name, ID: id, Label: name,
				Props: map[string]any{"name": name}})
			edge := types.EdgeInvolvesEntity
			if kind == types.KindRole {
				edge = types.EdgeAffectsRole
			}
			addEdge(edge, contextNode, id, strings.TrimSpace(entity.Type))
		}

		for _, condition := range c.Conditions {
			name := strings.TrimSpace(condition)
			if name == "" {
				continue
			}
			id := graphbuild.NodeID(types.KindCondition, name)
			addNode(driver.NodeRow{Kind: types.KindCondition, Key: name, ID: id,
				Label: name, Props: map[string]any{"name": name}})
			addEdge(types.EdgeShapes, id, contextNode, name)
		}

		for _, issue := range c.ObservedIssues {
			name := strings.TrimSpace(issue)
			if name == "" {
				continue
			}
			id := graphbuild.NodeID(types.KindIssue, name)
			addNode(driver.NodeRow{Kind: types.KindIssue, Key: name, ID: id,
				Label: name, Props: map[string]any{"name": name}})
			addEdge(types.EdgeImpacts, id, contextNode, name)
		}

		for _, outcome := range c.Outcomes {
			name := strings.TrimSpace(outcome)
			if name == "" {
				continue
			}
			id := graphbuild.NodeID(types.KindOutcome, name)
			addNode(driver.NodeRow{Kind: types.KindOutcome, Key: name, ID: id,
				Label: name, Props: map[string]any{"name": name}})
			addEdge(types.EdgeLeadsTo, contextNode, id, name)
		}

		for _, solution := range c.RecommendedSolutions {
			name := strings.TrimSpace(solution)
			if name == "" {
				continue
			}
			id := graphbuild.NodeID(types.KindSolution, name)
			addNode(driver.NodeRow{Kind: types.KindSolution, Key: name, ID: id,
				Label: name, Props: map[string]any{"name": name}})
			addEdge(types.EdgeMitigatedBy, contextNode, id, name)
		}

		for _, boundary := range c.DecisionBoundaries {
			boundaryType := strings.TrimSpace(boundary.BoundaryType)
			if boundaryType == "" {
				boundaryType = "unspecified"
			}
			description := strings.TrimSpace(boundary.Description)
			if description == "" {
				description = boundaryType
			}
			id := graphbuild.BoundaryNodeID(c.ContextID, boundaryType)
			addNode(driver.NodeRow{
				Kind: types.KindBoundary, Key: id, ID: id, Label: description,
				Props: map[string]any{
					"boundary_type":  boundaryType,
					"description":    description,
					"context_id":     c.ContextID,
					"affected_roles": boundary.AffectedRoles,
				},
			})
			addEdge(types.EdgeHasBoundary, contextNode, id, description)
		}

		if req.WithSimilarity {
			for _, match := range similarity.Build(c, contexts, s.opts.SimilarityLimit) {
				addEdge(types.EdgeSimilarTo, contextNode,
					graphbuild.NodeID(types.KindContext, match.ContextID),
					fmt.Sprintf("%s similarity", similarity.FormatScore(match.Score)))
			}
		}

		if req.WithEvolution {
			for _, target := range c.EvolvesTo {
				targetID := strings.TrimSpace(target)
				if targetID == "" {
					continue
				}
				// Placeholder node for targets the batch has not
				// materialized; addNode keeps the real one if present.
				addNode(driver.NodeRow{
					Kind: types.KindContext, Key: targetID,
					ID:    graphbuild.NodeID(types.KindContext, targetID),
					Label: targetID,
				})
				addEdge(types.EdgeEvolvesTo, contextNode,
					graphbuild.NodeID(types.KindContext, targetID), "Decision evolution")
			}
		}
	}

	return batch, len(contexts)
}

func contextProps(c types.Context, req Request) map[string]any {
	props := map[string]any{
		"title_en":         c.Title.EN,
		"title_zh":         c.Title.ZH,
		"context_intents":  c.ContextIntents,
		"confidence_score": c.ConfidenceScore,
		"source_note":      c.SourceNote,
	}
	if c.DecisionLevel != "" {
		props["decision_level"] = c.DecisionLevel
	}
	documentID := c.DocumentID
	if documentID == "" {
		documentID = req.DocumentID
	}
	if documentID != "" {
		props["document_id"] = documentID
		title := c.DocumentTitle
		if title == "" {
			title = documentID
		}
		props["document_title"] = title
	}
	if req.ProjectID != "" {
		props["project_id"] = req.ProjectID
	}
	if req.GraphID != "" {
		props["graph_id"] = req.GraphID
	}
	return props
}

// cacheKey escapes every component so delimiter-bearing user, tenant or
// context ids can never collide into another scope's key.
func (s *Syncer) cacheKey(scope types.Scope, contextID string) string {
	return fmt.Sprintf("graph:%s|%s:%s",
		url.QueryEscape(scope.UserID), url.QueryEscape(scope.TenantID),
		url.QueryEscape(contextID))
}

func (s *Syncer) invalidate(scope types.Scope) {
	if s.opts.Cache == nil {
		return
	}
	prefix := fmt.Sprintf("graph:%s|%s:",
		url.QueryEscape(scope.UserID), url.QueryEscape(scope.TenantID))
	if err := s.opts.Cache.DeletePrefix(prefix); err != nil {
		s.logger.Warn("graph cache invalidation failed",
			"user_id", scope.UserID, "tenant_id", scope.TenantID, "error", err)
	}
}
