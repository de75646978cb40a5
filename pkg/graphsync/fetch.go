package graphsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/contexture-ai/contexture/pkg/cache"
	"github.com/contexture-ai/contexture/pkg/driver"
	"github.com/contexture-ai/contexture/pkg/types"
)

// FetchDecisionGraph reads the persisted graph for a scope back out as
// a nodes/links view: every Context node (optionally one context) plus
// every edge touching those contexts in either direction. Edges are
// deduplicated by (source, target, derived label).
func (s *Syncer) FetchDecisionGraph(ctx context.Context, userID, tenantID, contextID string) (*types.Graph, error) {
	scope := types.NewScope(userID, tenantID)

	if s.opts.Cache != nil {
		if data, err := s.opts.Cache.Get(s.cacheKey(scope, contextID)); err == nil {
			graph := types.NewGraph()
			if err := json.Unmarshal(data, graph); err == nil {
				return graph, nil
			}
		} else if !errors.Is(err, cache.ErrKeyNotFound) {
			s.logger.Warn("graph cache read failed", "error", err)
		}
	}

	contextNodes, err := s.store.ContextNodes(ctx, scope, contextID)
	if err != nil {
		return nil, err
	}
	edges, err := s.store.Edges(ctx, scope, contextID)
	if err != nil {
		return nil, err
	}

	graph := types.NewGraph()
	seenNodes := map[string]bool{}
	addNode := func(record driver.NodeRecord) {
		if seenNodes[record.ID] {
			return
		}
		seenNodes[record.ID] = true
		graph.Nodes = append(graph.Nodes, types.Node{
			ID: record.ID, Type: record.Kind, Label: record.Label,
		})
	}

	for _, record := range contextNodes {
		addNode(record)
	}

	seenLinks := map[string]bool{}
	for _, edge := range edges {
		addNode(edge.Source)
		addNode(edge.Target)
		label := displayLabel(edge)
		key := edge.Source.ID + "|" + edge.Target.ID + "|" + label
		if seenLinks[key] {
			continue
		}
		seenLinks[key] = true
		graph.Links = append(graph.Links, types.Link{
			Source: edge.Source.ID,
			Target: edge.Target.ID,
			Label:  label,
		})
	}

	if s.opts.Cache != nil {
		if data, err := json.Marshal(graph); err == nil {
			if err := s.opts.Cache.Set(s.cacheKey(scope, contextID), data, s.opts.CacheTTL); err != nil {
				s.logger.Warn("graph cache write failed", "error", err)
			}
		}
	}
	return graph, nil
}

// displayLabel derives the human-readable edge label from the
// relationship type and the endpoint kinds.
func displayLabel(edge driver.EdgeRecord) string {
	switch {
	case edge.Kind == types.EdgeShapes && edge.Source.Kind == types.KindCondition:
		return fmt.Sprintf("Condition: %s", edge.Source.Label)
	case edge.Kind == types.EdgeImpacts && edge.Source.Kind == types.KindIssue:
		return fmt.Sprintf("Issue: %s", edge.Source.Label)
	case edge.Kind == types.EdgeLeadsTo && edge.Target.Kind == types.KindOutcome:
		return fmt.Sprintf("Leads to: %s", edge.Target.Label)
	case edge.Kind == types.EdgeMitigatedBy && edge.Target.Kind == types.KindSolution:
		return fmt.Sprintf("Mitigated by: %s", edge.Target.Label)
	case edge.Kind == types.EdgeHasContext && edge.Target.Kind == types.KindContext:
		return "Document context"
	case edge.Kind == types.EdgeInvolvesEntity && edge.Target.Kind == types.KindEntity:
		return "Involves entity"
	case edge.Kind == types.EdgeAffectsRole && edge.Target.Kind == types.KindRole:
		return "Affects role"
	case edge.Kind == types.EdgeHasBoundary && edge.Target.Kind == types.KindBoundary:
		return "Decision boundary"
	}
	return titleCaseRel(string(edge.Kind))
}

func titleCaseRel(rel string) string {
	words := strings.Split(strings.ToLower(strings.ReplaceAll(rel, "_", " ")), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
