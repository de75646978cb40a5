package types

// NodeKind enumerates every node type the system materializes, both in
// in-memory graph views and in the persistent store. The set is closed:
// anything else is rejected rather than synthesized into a label at
// runtime.
type NodeKind string

const (
	KindContext   NodeKind = "context"
	KindDocument  NodeKind = "document"
	KindUser      NodeKind = "user"
	KindProject   NodeKind = "project"
	KindRole      NodeKind = "role"
	KindEntity    NodeKind = "entity"
	KindCondition NodeKind = "condition"
	KindIssue     NodeKind = "issue"
	KindOutcome   NodeKind = "outcome"
	KindSolution  NodeKind = "solution"
	KindBoundary  NodeKind = "decision_boundary"
)

// StoreLabel returns the property-graph label for the kind. The empty
// string marks an unknown kind.
func (k NodeKind) StoreLabel() string {
	switch k {
	case KindContext:
		return "Context"
	case KindDocument:
		return "Document"
	case KindUser:
		return "User"
	case KindProject:
		return "Project"
	case KindRole:
		return "Role"
	case KindEntity:
		return "Entity"
	case KindCondition:
		return "Condition"
	case KindIssue:
		return "Issue"
	case KindOutcome:
		return "Outcome"
	case KindSolution:
		return "Solution"
	case KindBoundary:
		return "DecisionBoundary"
	}
	return ""
}

// IdentityProperty returns the node property that, together with the
// scope, forms the merge identity for the kind.
func (k NodeKind) IdentityProperty() string {
	switch k {
	case KindContext:
		return "context_id"
	case KindDocument:
		return "document_id"
	case KindUser:
		return "user_id"
	case KindProject:
		return "project_id"
	case KindBoundary:
		return "id"
	}
	// Role, Entity, Condition, Issue, Outcome, Solution key on name.
	return "name"
}

// KindForStoreLabel maps a property-graph label back to its kind.
func KindForStoreLabel(label string) (NodeKind, bool) {
	for _, k := range []NodeKind{
		KindContext, KindDocument, KindUser, KindProject, KindRole,
		KindEntity, KindCondition, KindIssue, KindOutcome, KindSolution,
		KindBoundary,
	} {
		if k.StoreLabel() == label {
			return k, true
		}
	}
	return "", false
}

// EdgeKind enumerates every persisted relationship type. Closed set,
// mirroring NodeKind.
type EdgeKind string

const (
	EdgeHasProject     EdgeKind = "HAS_PROJECT"
	EdgeHasDocument    EdgeKind = "HAS_DOCUMENT"
	EdgeHasContext     EdgeKind = "HAS_CONTEXT"
	EdgeAffectsRole    EdgeKind = "AFFECTS_ROLE"
	EdgeInvolvesEntity EdgeKind = "INVOLVES_ENTITY"
	EdgeShapes         EdgeKind = "SHAPES"
	EdgeImpacts        EdgeKind = "IMPACTS"
	EdgeLeadsTo        EdgeKind = "LEADS_TO"
	EdgeMitigatedBy    EdgeKind = "MITIGATED_BY"
	EdgeHasBoundary    EdgeKind = "HAS_BOUNDARY"
	EdgeSimilarTo      EdgeKind = "SIMILAR_TO"
	EdgeEvolvesTo      EdgeKind = "EVOLVES_TO"
)

// AllEdgeKinds lists the closed relationship vocabulary.
var AllEdgeKinds = []EdgeKind{
	EdgeHasProject, EdgeHasDocument, EdgeHasContext, EdgeAffectsRole,
	EdgeInvolvesEntity, EdgeShapes, EdgeImpacts, EdgeLeadsTo,
	EdgeMitigatedBy, EdgeHasBoundary, EdgeSimilarTo, EdgeEvolvesTo,
}

// EdgeKindForRel maps a stored relationship type to its kind.
func EdgeKindForRel(rel string) (EdgeKind, bool) {
	for _, k := range AllEdgeKinds {
		if string(k) == rel {
			return k, true
		}
	}
	return "", false
}

// Node is one vertex of an in-memory graph view. ID is the
// deterministic "<type>:<value>" key that makes repeated builds
// collapse onto the same node set.
type Node struct {
	ID    string   `json:"id"`
	Type  NodeKind `json:"type"`
	Label string   `json:"label"`
}

// Link is one edge of an in-memory graph view. Links are not
// deduplicated at build time; persistence merges them by identity.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Reason string `json:"reason,omitempty"`
}

// Graph is the nodes/links view returned by the graph builders and the
// fetch path.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// NewGraph returns an empty graph with non-nil slices so callers and
// JSON encoders never see null collections.
func NewGraph() *Graph {
	return &Graph{Nodes: []Node{}, Links: []Link{}}
}
