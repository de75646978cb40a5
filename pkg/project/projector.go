// Package project reconstructs simplified canonical contexts from the
// persisted graph. The projection is lossy by design: only fields the
// graph represents (titles, boundaries, conditions, issues, outcomes)
// come back; everything else stays empty.
package project

import (
	"context"
	"log/slog"

	"github.com/contexture-ai/contexture/pkg/driver"
	"github.com/contexture-ai/contexture/pkg/types"
)

// Projector reads contexts back out of a graph store.
type Projector struct {
	store  driver.GraphStore
	logger *slog.Logger
}

// New creates a Projector over the given store.
func New(store driver.GraphStore, logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{store: store, logger: logger}
}

// LoadContexts rebuilds partial Context records for a scope. Pass one
// collects Context nodes, pass two attaches decision boundaries, pass
// three fills conditions, issues and outcomes from the typed edges.
// limit <= 0 means no limit.
func (p *Projector) LoadContexts(ctx context.Context, userID, tenantID string, limit int) ([]types.Context, error) {
	scope := types.NewScope(userID, tenantID)

	nodes, err := p.store.ContextNodes(ctx, scope, "")
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(nodes))
	byID := make(map[string]*types.Context, len(nodes))
	for _, node := range nodes {
		contextID := node.ContextID
		if contextID == "" {
			continue
		}
		if _, ok := byID[contextID]; ok {
			continue
		}
		c := &types.Context{
			ContextID:            contextID,
			DocumentID:           node.DocumentID,
			Title:                projectedTitle(node, contextID),
			ContextIntents:       []string{},
			Entities:             []types.EntityRef{},
			Conditions:           []string{},
			ObservedIssues:       []string{},
			Outcomes:             []string{},
			RecommendedSolutions: []string{},
			DecisionBoundaries:   []types.DecisionBoundary{},
			Counterfactuals:      []string{},
			EvolvesTo:            []string{},
		}
		byID[contextID] = c
		order = append(order, contextID)
	}

	edges, err := p.store.Edges(ctx, scope, "")
	if err != nil {
		return nil, err
	}
	for _, edge := range edges {
		switch edge.Kind {
		case types.EdgeHasBoundary:
			c, ok := byID[edge.Source.ContextID]
			if !ok || edge.Target.Kind != types.KindBoundary {
				continue
			}
			c.DecisionBoundaries = append(c.DecisionBoundaries, types.DecisionBoundary{
				BoundaryType:  boundaryType(edge.Target),
				Description:   edge.Target.Label,
				AffectedRoles: []string{},
			})
		case types.EdgeShapes:
			if c, ok := byID[edge.Target.ContextID]; ok {
				c.Conditions = append(c.Conditions, edge.Source.Label)
			}
		case types.EdgeImpacts:
			if c, ok := byID[edge.Target.ContextID]; ok {
				c.ObservedIssues = append(c.ObservedIssues, edge.Source.Label)
			}
		case types.EdgeLeadsTo:
			if c, ok := byID[edge.Source.ContextID]; ok && edge.Target.Kind == types.KindOutcome {
				c.Outcomes = append(c.Outcomes, edge.Target.Label)
			}
		}
	}

	results := make([]types.Context, 0, len(order))
	for _, contextID := range order {
		results = append(results, *byID[contextID])
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func projectedTitle(node driver.NodeRecord, contextID string) types.BilingualText {
	title := types.BilingualText{
		EN: stringProp(node.Props, "title_en"),
		ZH: stringProp(node.Props, "title_zh"),
	}
	if title.IsZero() {
		title = types.BilingualText{EN: contextID, ZH: contextID}
	}
	return title
}

func boundaryType(node driver.NodeRecord) string {
	if value := stringProp(node.Props, "boundary_type"); value != "" {
		return value
	}
	return "unspecified"
}

func stringProp(props map[string]any, key string) string {
	if value, ok := props[key].(string); ok {
		return value
	}
	return ""
}
