package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/contexture-ai/contexture/pkg/types"
)

// mergeOrder fixes the sequence node kinds are written in, so rebuilds
// are deterministic and ownership nodes exist before their edges.
var mergeOrder = []types.NodeKind{
	types.KindUser, types.KindProject, types.KindDocument, types.KindContext,
	types.KindRole, types.KindEntity, types.KindCondition, types.KindIssue,
	types.KindOutcome, types.KindSolution, types.KindBoundary,
}

// Neo4jStore implements GraphStore against a Neo4j (or Bolt-compatible)
// database.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore creates a store client for the given connection.
func NewNeo4jStore(uri, username, password, database string) (*Neo4jStore, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jStore{client: client, database: database}, nil
}

func (s *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
}

// ReplaceScope deletes the scope and merges the batch inside a single
// write transaction.
func (s *Neo4jStore) ReplaceScope(ctx context.Context, scope types.Scope, batch *Batch) error {
	if err := ValidateBatch(batch); err != nil {
		return err
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		clear := `
			MATCH (n {user_id: $user_id, tenant_id: $tenant_id})
			DETACH DELETE n
		`
		if _, err := tx.Run(ctx, clear, map[string]any{
			"user_id":   scope.UserID,
			"tenant_id": scope.TenantID,
		}); err != nil {
			return nil, err
		}
		if batch == nil {
			return nil, nil
		}

		for _, kind := range mergeOrder {
			rows := nodeRowsForKind(batch.Nodes, kind)
			if len(rows) == 0 {
				continue
			}
			// Label and identity property come from the closed NodeKind
			// enum, never from input.
			query := fmt.Sprintf(`
				UNWIND $rows AS row
				MERGE (n:%s {%s: row.key, user_id: $user_id, tenant_id: $tenant_id})
				SET n += row.props
				SET n.id = row.id, n.label = row.label
			`, kind.StoreLabel(), kind.IdentityProperty())
			if _, err := tx.Run(ctx, query, map[string]any{
				"rows":      rows,
				"user_id":   scope.UserID,
				"tenant_id": scope.TenantID,
			}); err != nil {
				return nil, err
			}
		}

		for _, kind := range types.AllEdgeKinds {
			rows := edgeRowsForKind(batch.Edges, kind)
			if len(rows) == 0 {
				continue
			}
			query := fmt.Sprintf(`
				UNWIND $rows AS row
				MATCH (a {id: row.source, user_id: $user_id, tenant_id: $tenant_id})
				MATCH (b {id: row.target, user_id: $user_id, tenant_id: $tenant_id})
				MERGE (a)-[r:%s]->(b)
				SET r.reason = row.reason
				SET r += row.props
			`, kind)
			if _, err := tx.Run(ctx, query, map[string]any{
				"rows":      rows,
				"user_id":   scope.UserID,
				"tenant_id": scope.TenantID,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	return wrapStoreErr(err)
}

func nodeRowsForKind(nodes []NodeRow, kind types.NodeKind) []map[string]any {
	var rows []map[string]any
	for _, node := range nodes {
		if node.Kind != kind {
			continue
		}
		props := node.Props
		if props == nil {
			props = map[string]any{}
		}
		rows = append(rows, map[string]any{
			"key":   node.Key,
			"id":    node.ID,
			"label": node.Label,
			"props": props,
		})
	}
	return rows
}

func edgeRowsForKind(edges []EdgeRow, kind types.EdgeKind) []map[string]any {
	var rows []map[string]any
	for _, edge := range edges {
		if edge.Kind != kind {
			continue
		}
		props := edge.Props
		if props == nil {
			props = map[string]any{}
		}
		rows = append(rows, map[string]any{
			"source": edge.SourceID,
			"target": edge.TargetID,
			"reason": edge.Reason,
			"props":  props,
		})
	}
	return rows
}

// ContextNodes returns the scope's Context nodes.
func (s *Neo4jStore) ContextNodes(ctx context.Context, scope types.Scope, contextID string) ([]NodeRecord, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (c:Context {user_id: $user_id, tenant_id: $tenant_id})
			WHERE $context_id IS NULL OR c.context_id = $context_id
			RETURN c
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"user_id":    scope.UserID,
			"tenant_id":  scope.TenantID,
			"context_id": nullable(contextID),
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	records := result.([]*db.Record)
	nodes := make([]NodeRecord, 0, len(records))
	for _, record := range records {
		value, found := record.Get("c")
		if !found {
			continue
		}
		if node, ok := recordFromDBNode(value.(dbtype.Node)); ok {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

// Edges returns in-scope relationships, optionally restricted to edges
// touching one context.
func (s *Neo4jStore) Edges(ctx context.Context, scope types.Scope, contextID string) ([]EdgeRecord, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (n)-[r]->(m)
			WHERE n.user_id = $user_id AND m.user_id = $user_id
			  AND n.tenant_id = $tenant_id AND m.tenant_id = $tenant_id
			  AND (
				$context_id IS NULL
				OR (n:Context AND n.context_id = $context_id)
				OR (m:Context AND m.context_id = $context_id)
			  )
			RETURN n, r, m
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"user_id":    scope.UserID,
			"tenant_id":  scope.TenantID,
			"context_id": nullable(contextID),
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	records := result.([]*db.Record)
	edges := make([]EdgeRecord, 0, len(records))
	for _, record := range records {
		sourceValue, foundSource := record.Get("n")
		relValue, foundRel := record.Get("r")
		targetValue, foundTarget := record.Get("m")
		if !foundSource || !foundRel || !foundTarget {
			continue
		}
		source, okSource := recordFromDBNode(sourceValue.(dbtype.Node))
		target, okTarget := recordFromDBNode(targetValue.(dbtype.Node))
		if !okSource || !okTarget {
			continue
		}
		rel := relValue.(dbtype.Relationship)
		kind, ok := types.EdgeKindForRel(rel.Type)
		if !ok {
			// Relationship outside the closed vocabulary; quarantined
			// from results.
			continue
		}
		edges = append(edges, EdgeRecord{
			Kind:   kind,
			Reason: stringProp(rel.Props, "reason"),
			Source: source,
			Target: target,
		})
	}
	return edges, nil
}

// CreateIndices creates the identity-key range indices per node label.
func (s *Neo4jStore) CreateIndices(ctx context.Context) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, kind := range mergeOrder {
			query := fmt.Sprintf(
				"CREATE INDEX %s_identity IF NOT EXISTS FOR (n:%s) ON (n.%s, n.user_id, n.tenant_id)",
				string(kind), kind.StoreLabel(), kind.IdentityProperty(),
			)
			if _, err := tx.Run(ctx, query, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return wrapStoreErr(err)
}

// Close releases the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func stringProp(props map[string]any, key string) string {
	if value, ok := props[key].(string); ok {
		return value
	}
	return ""
}

// recordFromDBNode maps a stored node onto a NodeRecord. Nodes whose
// labels fall outside the closed kind set are dropped.
func recordFromDBNode(node dbtype.Node) (NodeRecord, bool) {
	for _, label := range node.Labels {
		kind, ok := types.KindForStoreLabel(label)
		if !ok {
			continue
		}
		record := NodeRecord{
			Kind:       kind,
			ID:         stringProp(node.Props, "id"),
			Label:      stringProp(node.Props, "label"),
			ContextID:  stringProp(node.Props, "context_id"),
			DocumentID: stringProp(node.Props, "document_id"),
			Props:      node.Props,
		}
		if record.ID == "" {
			record.ID = fallbackID(kind, node.Props)
		}
		if record.Label == "" {
			record.Label = fallbackLabel(kind, node.Props)
		}
		return record, true
	}
	return NodeRecord{}, false
}

func fallbackID(kind types.NodeKind, props map[string]any) string {
	value := stringProp(props, kind.IdentityProperty())
	return fmt.Sprintf("%s:%s", kind, value)
}

func fallbackLabel(kind types.NodeKind, props map[string]any) string {
	for _, key := range []string{"title", "name", "description", kind.IdentityProperty()} {
		if value := stringProp(props, key); value != "" {
			return value
		}
	}
	return kind.StoreLabel()
}
