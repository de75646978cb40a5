// Package driver defines the property-graph store contract used by the
// sync and projection layers, plus the Neo4j and in-memory
// implementations. Store clients are constructed explicitly and
// injected; nothing in this package holds package-level connection
// state.
package driver

import (
	"context"
	"errors"

	"github.com/contexture-ai/contexture/pkg/types"
)

var (
	// ErrStoreUnavailable marks connectivity failures against the graph
	// store. The whole sync call aborts; nothing partial is committed.
	ErrStoreUnavailable = errors.New("graph store unavailable")
	// ErrTransactionFailed marks a failed read or write transaction.
	ErrTransactionFailed = errors.New("graph store transaction failed")
	// ErrUnknownNodeKind marks a batch row whose kind is outside the
	// closed NodeKind set. Such rows are rejected, never synthesized
	// into labels.
	ErrUnknownNodeKind = errors.New("unknown node kind")
)

// NodeRow is one node of a write batch. Key is the value of the kind's
// identity property; ID is the deterministic "<type>:<value>" graph id
// stored on every node; Props are overwritten on merge.
type NodeRow struct {
	Kind  types.NodeKind
	Key   string
	ID    string
	Label string
	Props map[string]any
}

// EdgeRow is one relationship of a write batch, referencing nodes by
// their deterministic graph ids.
type EdgeRow struct {
	Kind     types.EdgeKind
	SourceID string
	TargetID string
	Reason   string
	Props    map[string]any
}

// Batch is the full node/edge set for one (user, tenant) scope rebuild.
type Batch struct {
	Nodes []NodeRow
	Edges []EdgeRow
}

// NodeRecord is a node read back from the store.
type NodeRecord struct {
	Kind       types.NodeKind
	ID         string
	Label      string
	ContextID  string
	DocumentID string
	Props      map[string]any
}

// EdgeRecord is a relationship read back from the store, with both
// endpoints resolved.
type EdgeRecord struct {
	Kind   types.EdgeKind
	Reason string
	Source NodeRecord
	Target NodeRecord
}

// GraphStore is the persistence contract. All operations are scoped to
// one (user_id, tenant_id) pair; implementations must never match nodes
// across scopes.
type GraphStore interface {
	// ReplaceScope atomically deletes every node and edge in the scope
	// and merges the supplied batch in its place. A failure mid-batch
	// leaves the previous state observable, never a half-rebuilt scope.
	ReplaceScope(ctx context.Context, scope types.Scope, batch *Batch) error

	// ContextNodes returns the Context nodes of the scope, optionally
	// filtered to a single context_id (empty string means all).
	ContextNodes(ctx context.Context, scope types.Scope, contextID string) ([]NodeRecord, error)

	// Edges returns every relationship whose endpoints both lie in the
	// scope. A non-empty contextID restricts the result to edges
	// touching that context in either direction.
	Edges(ctx context.Context, scope types.Scope, contextID string) ([]EdgeRecord, error)

	// CreateIndices creates identity-key indices for all node kinds.
	CreateIndices(ctx context.Context) error

	// Close releases the underlying connections.
	Close(ctx context.Context) error
}

// ValidateBatch rejects rows outside the closed kind vocabularies
// before anything reaches a transaction.
func ValidateBatch(batch *Batch) error {
	if batch == nil {
		return nil
	}
	for _, node := range batch.Nodes {
		if node.Kind.StoreLabel() == "" {
			return errors.Join(ErrUnknownNodeKind, errors.New("kind "+string(node.Kind)))
		}
	}
	for _, edge := range batch.Edges {
		if _, ok := types.EdgeKindForRel(string(edge.Kind)); !ok {
			return errors.Join(ErrUnknownNodeKind, errors.New("edge kind "+string(edge.Kind)))
		}
	}
	return nil
}
