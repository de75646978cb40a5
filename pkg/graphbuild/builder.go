// Package graphbuild derives in-memory node/link graphs from canonical
// decision contexts. Two shapes share the same arena: a plain context
// graph with field-name edge labels, and a decision graph with a fixed
// relation vocabulary and per-edge reasons.
package graphbuild

import (
	"fmt"
	"strings"

	"github.com/contexture-ai/contexture/pkg/similarity"
	"github.com/contexture-ai/contexture/pkg/types"
)

// DefaultSimilarityLimit bounds the SIMILAR_TO edges added to a
// decision graph.
const DefaultSimilarityLimit = 2

// arena collects nodes deduplicated by id in insertion order; the first
// label written for an id wins. Links are appended unconditionally.
type arena struct {
	index map[string]int
	nodes []types.Node
	links []types.Link
}

func newArena() *arena {
	return &arena{index: map[string]int{}, nodes: []types.Node{}, links: []types.Link{}}
}

func (a *arena) ensure(id string, kind types.NodeKind, label string) {
	if _, ok := a.index[id]; ok {
		return
	}
	a.index[id] = len(a.nodes)
	a.nodes = append(a.nodes, types.Node{ID: id, Type: kind, Label: label})
}

func (a *arena) link(source, target, label, reason string) {
	a.links = append(a.links, types.Link{Source: source, Target: target, Label: label, Reason: reason})
}

func (a *arena) graph() *types.Graph {
	return &types.Graph{Nodes: a.nodes, Links: a.links}
}

// NodeID builds the deterministic "<type>:<value>" node key.
func NodeID(kind types.NodeKind, value string) string {
	return fmt.Sprintf("%s:%s", kind, value)
}

// BoundaryNodeID keys a boundary node on its owning context so
// boundaries are never shared across contexts.
func BoundaryNodeID(contextID, boundaryType string) string {
	return fmt.Sprintf("boundary:%s:%s", contextID, boundaryType)
}

// EntityKind classifies an entity reference as role or entity.
func EntityKind(ref types.EntityRef) types.NodeKind {
	if ref.IsRole() {
		return types.KindRole
	}
	return types.KindEntity
}

// BuildContextGraph produces the plain graph for one context: a context
// node fanned out to entities, conditions, issues, outcomes and
// solutions, with the field's semantic name as the edge label. A
// context without an id yields an empty graph.
func BuildContextGraph(context types.Context) *types.Graph {
	contextID := strings.TrimSpace(context.ContextID)
	if contextID == "" {
		return types.NewGraph()
	}

	a := newArena()
	contextNode := NodeID(types.KindContext, contextID)
	a.ensure(contextNode, types.KindContext, context.Label())

	for _, entity := range context.Entities {
		name := strings.TrimSpace(entity.Name)
		if name == "" {
			continue
		}
		kind := EntityKind(entity)
		id := NodeID(kind, name)
		a.ensure(id, kind, name)
		label := strings.TrimSpace(entity.Type)
		if label == "" {
			label = string(kind)
		}
		a.link(contextNode, id, label, "")
	}

	fields := []struct {
		kind   types.NodeKind
		values []string
	}{
		{types.KindCondition, context.Conditions},
		{types.KindIssue, context.ObservedIssues},
		{types.KindOutcome, context.Outcomes},
		{types.KindSolution, context.RecommendedSolutions},
	}
	for _, field := range fields {
		for _, value := range field.values {
			name := strings.TrimSpace(value)
			if name == "" {
				continue
			}
			id := NodeID(field.kind, name)
			a.ensure(id, field.kind, name)
			a.link(contextNode, id, string(field.kind), "")
		}
	}

	return a.graph()
}

// BuildDecisionGraph produces the richer graph for one context: typed
// relation labels, boundary nodes keyed per context, similarity edges
// against the supplied corpus and evolution edges. Corpus may be nil.
func BuildDecisionGraph(context types.Context, corpus []types.Context, limit int) *types.Graph {
	if limit <= 0 {
		limit = DefaultSimilarityLimit
	}
	contextID := strings.TrimSpace(context.ContextID)
	if contextID == "" {
		return types.NewGraph()
	}

	a := newArena()
	contextNode := NodeID(types.KindContext, contextID)
	a.ensure(contextNode, types.KindContext, context.Label())

	for _, entity := range context.Entities {
		name := strings.TrimSpace(entity.Name)
		if name == "" {
			continue
		}
		kind := EntityKind(entity)
		label := string(types.EdgeInvolvesEntity)
		if kind == types.KindRole {
			label = string(types.EdgeAffectsRole)
		}
		id := NodeID(kind, name)
		a.ensure(id, kind, name)
		a.link(contextNode, id, label, strings.TrimSpace(entity.Type))
	}

	for _, condition := range context.Conditions {
		name := strings.TrimSpace(condition)
		if name == "" {
			continue
		}
		id := NodeID(types.KindCondition, name)
		a.ensure(id, types.KindCondition, name)
		a.link(contextNode, id, "CONDITION", name)
	}

	for _, issue := range context.ObservedIssues {
		name := strings.TrimSpace(issue)
		if name == "" {
			continue
		}
		id := NodeID(types.KindIssue, name)
		a.ensure(id, types.KindIssue, name)
		a.link(contextNode, id, "ISSUE", name)
	}

	for _, outcome := range context.Outcomes {
		name := strings.TrimSpace(outcome)
		if name == "" {
			continue
		}
		id := NodeID(types.KindOutcome, name)
		a.ensure(id, types.KindOutcome, name)
		a.link(contextNode, id, "OUTCOME", name)
	}

	for _, boundary := range context.DecisionBoundaries {
		boundaryType := strings.TrimSpace(boundary.BoundaryType)
		if boundaryType == "" {
			boundaryType = "boundary"
		}
		description := strings.TrimSpace(boundary.Description)
		if description == "" {
			description = boundaryType
		}
		id := BoundaryNodeID(contextID, boundaryType)
		a.ensure(id, types.KindBoundary, description)
		a.link(contextNode, id, string(types.EdgeHasBoundary), description)
	}

	if len(corpus) > 0 {
		for _, match := range similarity.Build(context, corpus, limit) {
			if match.ContextID == "" {
				continue
			}
			id := NodeID(types.KindContext, match.ContextID)
			a.ensure(id, types.KindContext, match.ContextID)
			a.link(contextNode, id, string(types.EdgeSimilarTo),
				fmt.Sprintf("%s similarity", similarity.FormatScore(match.Score)))
		}
	}

	for _, target := range context.EvolvesTo {
		targetID := strings.TrimSpace(target)
		if targetID == "" {
			continue
		}
		id := NodeID(types.KindContext, targetID)
		a.ensure(id, types.KindContext, targetID)
		a.link(contextNode, id, string(types.EdgeEvolvesTo), "Decision evolution")
	}

	return a.graph()
}
