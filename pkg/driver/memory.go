package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/contexture-ai/contexture/pkg/types"
)

type memoryNode struct {
	row NodeRow
}

type memoryEdge struct {
	row EdgeRow
}

type memoryScope struct {
	// nodes keyed by (kind, identity key); edges keyed by
	// (kind, source, target). Mirrors the merge identity of the Neo4j
	// store.
	nodes map[string]*memoryNode
	edges map[string]*memoryEdge
	order []string
}

// MemoryStore is an in-process GraphStore with the same identity and
// scope semantics as the Neo4j implementation. It backs tests and
// store-less local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	scopes map[types.Scope]*memoryScope
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: map[types.Scope]*memoryScope{}}
}

func nodeIdentity(row NodeRow) string {
	return fmt.Sprintf("%s|%s", row.Kind, row.Key)
}

func edgeIdentity(row EdgeRow) string {
	return fmt.Sprintf("%s|%s|%s", row.Kind, row.SourceID, row.TargetID)
}

// ReplaceScope clears the scope and merges the batch under the store
// lock, so readers never observe a partial rebuild.
func (s *MemoryStore) ReplaceScope(ctx context.Context, scope types.Scope, batch *Batch) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	if err := ValidateBatch(batch); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreUnavailable
	}

	next := &memoryScope{nodes: map[string]*memoryNode{}, edges: map[string]*memoryEdge{}}
	if batch != nil {
		for _, row := range batch.Nodes {
			key := nodeIdentity(row)
			if existing, ok := next.nodes[key]; ok {
				// Idempotent merge: overwrite mutable properties.
				existing.row.ID = row.ID
				existing.row.Label = row.Label
				existing.row.Props = mergeProps(existing.row.Props, row.Props)
				continue
			}
			next.nodes[key] = &memoryNode{row: row}
			next.order = append(next.order, key)
		}
		for _, row := range batch.Edges {
			key := edgeIdentity(row)
			if existing, ok := next.edges[key]; ok {
				existing.row.Reason = row.Reason
				existing.row.Props = mergeProps(existing.row.Props, row.Props)
				continue
			}
			next.edges[key] = &memoryEdge{row: row}
		}
	}
	s.scopes[scope] = next
	return nil
}

func mergeProps(base, overlay map[string]any) map[string]any {
	merged := map[string]any{}
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

func (s *MemoryStore) recordForRow(row NodeRow) NodeRecord {
	props := mergeProps(row.Props, nil)
	record := NodeRecord{
		Kind:       row.Kind,
		ID:         row.ID,
		Label:      row.Label,
		ContextID:  stringProp(props, "context_id"),
		DocumentID: stringProp(props, "document_id"),
		Props:      props,
	}
	if row.Kind == types.KindContext && record.ContextID == "" {
		record.ContextID = row.Key
	}
	if row.Kind == types.KindDocument && record.DocumentID == "" {
		record.DocumentID = row.Key
	}
	return record
}

// ContextNodes returns the scope's Context nodes in insertion order.
func (s *MemoryStore) ContextNodes(ctx context.Context, scope types.Scope, contextID string) ([]NodeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}

	records := []NodeRecord{}
	data, ok := s.scopes[scope]
	if !ok {
		return records, nil
	}
	for _, key := range data.order {
		node := data.nodes[key]
		if node.row.Kind != types.KindContext {
			continue
		}
		if contextID != "" && node.row.Key != contextID {
			continue
		}
		records = append(records, s.recordForRow(node.row))
	}
	return records, nil
}

// Edges returns in-scope relationships, optionally restricted to one
// context.
func (s *MemoryStore) Edges(ctx context.Context, scope types.Scope, contextID string) ([]EdgeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}

	records := []EdgeRecord{}
	data, ok := s.scopes[scope]
	if !ok {
		return records, nil
	}

	byID := map[string]NodeRow{}
	for _, node := range data.nodes {
		byID[node.row.ID] = node.row
	}

	touchesContext := func(row NodeRow) bool {
		return row.Kind == types.KindContext && row.Key == contextID
	}

	for _, edge := range data.edges {
		source, okSource := byID[edge.row.SourceID]
		target, okTarget := byID[edge.row.TargetID]
		if !okSource || !okTarget {
			continue
		}
		if contextID != "" && !touchesContext(source) && !touchesContext(target) {
			continue
		}
		records = append(records, EdgeRecord{
			Kind:   edge.row.Kind,
			Reason: edge.row.Reason,
			Source: s.recordForRow(source),
			Target: s.recordForRow(target),
		})
	}
	return records, nil
}

// CreateIndices is a no-op for the in-memory store.
func (s *MemoryStore) CreateIndices(ctx context.Context) error {
	return nil
}

// Close marks the store unusable.
func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// NodeCount reports how many nodes a scope holds. Test helper.
func (s *MemoryStore) NodeCount(scope types.Scope) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if data, ok := s.scopes[scope]; ok {
		return len(data.nodes)
	}
	return 0
}

// NodesOfKind returns a scope's nodes of one kind in insertion order.
// Test helper.
func (s *MemoryStore) NodesOfKind(scope types.Scope, kind types.NodeKind) []NodeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := []NodeRecord{}
	data, ok := s.scopes[scope]
	if !ok {
		return records
	}
	for _, key := range data.order {
		node := data.nodes[key]
		if node.row.Kind == kind {
			records = append(records, s.recordForRow(node.row))
		}
	}
	return records
}
