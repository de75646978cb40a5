package dto

import "github.com/contexture-ai/contexture/pkg/types"

// NormalizeRequest carries one raw context record plus optional
// inherited document metadata
type NormalizeRequest struct {
	Raw          map[string]any      `json:"raw" binding:"required"`
	DocumentMeta *types.DocumentMeta `json:"document_meta,omitempty"`
}

// ContextGraphRequest asks for the plain graph view of one context
type ContextGraphRequest struct {
	Context types.Context `json:"context" binding:"required"`
}

// DecisionGraphRequest asks for the typed decision graph, optionally
// with similarity edges against a corpus
type DecisionGraphRequest struct {
	Context  types.Context   `json:"context" binding:"required"`
	Contexts []types.Context `json:"contexts,omitempty"`
	Limit    int             `json:"limit,omitempty"`
}

// SimilarityRequest asks for a similarity ranking
type SimilarityRequest struct {
	Context  types.Context   `json:"context" binding:"required"`
	Contexts []types.Context `json:"contexts" binding:"required"`
	Limit    int             `json:"limit,omitempty"`
}

// SimilarityResponse carries a similarity ranking
type SimilarityResponse struct {
	Matches []types.SimilarityMatch `json:"matches"`
}

// ImportRequest syncs a context batch into a (user, tenant) scope
type ImportRequest struct {
	Contexts []types.Context `json:"contexts" binding:"required"`
	UserID   string          `json:"user_id" binding:"required"`
	TenantID string          `json:"tenant_id,omitempty"`
}

// StoreRequest syncs the decision-graph shape with ownership linkage
type StoreRequest struct {
	Contexts   []types.Context `json:"contexts" binding:"required"`
	UserID     string          `json:"user_id" binding:"required"`
	ProjectID  string          `json:"project_id" binding:"required"`
	DocumentID string          `json:"document_id,omitempty"`
	GraphID    string          `json:"graph_id,omitempty"`
	TenantID   string          `json:"tenant_id,omitempty"`
}

// ContextsResponse carries reconstructed contexts
type ContextsResponse struct {
	Contexts []types.Context `json:"contexts"`
	Total    int             `json:"total"`
}
