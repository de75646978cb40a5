package types

import "strings"

// BilingualText holds an English/Chinese text pair. Raw extractor output
// carries either a plain string or an {en, zh} object; the normalizer
// collapses both into this shape.
type BilingualText struct {
	EN string `json:"en,omitempty"`
	ZH string `json:"zh,omitempty"`
}

// Resolve returns the English text, falling back to Chinese, stripped.
func (t BilingualText) Resolve() string {
	if s := strings.TrimSpace(t.EN); s != "" {
		return s
	}
	return strings.TrimSpace(t.ZH)
}

// IsZero reports whether both language slots are empty.
func (t BilingualText) IsZero() bool {
	return t.EN == "" && t.ZH == ""
}

// EntityRef is an entity mentioned by a context. Name is the only
// identity key; Type decides role-vs-entity classification at graph
// build time.
type EntityRef struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// IsRole reports whether the entity type classifies as a role.
func (e EntityRef) IsRole() bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(e.Type)), "role")
}

// DecisionBoundary is a recorded point of reduced reversibility attached
// to a context. A context carries at most one boundary per BoundaryType.
type DecisionBoundary struct {
	BoundaryType  string   `json:"boundary_type"`
	Description   string   `json:"description"`
	AffectedRoles []string `json:"affected_roles"`
}

// DocumentMeta is the document-level metadata inherited by every context
// extracted from that document, unless the context overrides it.
type DocumentMeta struct {
	DocumentID    string `json:"document_id,omitempty"`
	DocumentTitle string `json:"document_title,omitempty"`
	DocumentType  string `json:"document_type,omitempty"`
	Vendor        string `json:"vendor,omitempty"`
	Product       string `json:"product,omitempty"`
	Version       string `json:"version,omitempty"`
}

// Context is the canonical, schema-stable representation of one decision
// context, independent of the raw extractor shape it came from.
type Context struct {
	ContextID            string             `json:"context_id"`
	DecisionLevel        string             `json:"decision_level,omitempty"`
	Title                BilingualText      `json:"title"`
	ContextIntents       []string           `json:"context_intents"`
	Entities             []EntityRef        `json:"entities"`
	Conditions           []string           `json:"conditions"`
	ObservedIssues       []string           `json:"observed_issues"`
	Outcomes             []string           `json:"outcomes"`
	RecommendedSolutions []string           `json:"recommended_solutions"`
	DecisionBoundaries   []DecisionBoundary `json:"decision_boundaries"`
	Counterfactuals      []string           `json:"counterfactuals"`
	ConfidenceScore      float64            `json:"confidence_score"`
	SourceNote           string             `json:"source_note,omitempty"`
	LLMUsagePolicy       map[string]any     `json:"llm_usage_policy,omitempty"`
	DocumentID           string             `json:"document_id,omitempty"`
	DocumentTitle        string             `json:"document_title,omitempty"`
	DocumentMetadata     *DocumentMeta      `json:"document_metadata,omitempty"`
	EvolvesTo            []string           `json:"evolves_to"`
}

// Label returns the display label for the context: resolved title, or
// the context id when no title survived normalization.
func (c *Context) Label() string {
	if s := c.Title.Resolve(); s != "" {
		return s
	}
	return c.ContextID
}

// SimilarityMatch is one entry of a similarity ranking.
type SimilarityMatch struct {
	ContextID string  `json:"context_id"`
	Score     float64 `json:"score"`
	Label     string  `json:"label"`
}

// Scope is the (user, tenant) pair partitioning all persisted graph
// data. No query or merge may cross scopes.
type Scope struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
}

// DefaultTenant is used whenever a caller leaves the tenant blank.
const DefaultTenant = "public"

// NewScope builds a scope, applying the tenant default.
func NewScope(userID, tenantID string) Scope {
	if strings.TrimSpace(tenantID) == "" {
		tenantID = DefaultTenant
	}
	return Scope{UserID: userID, TenantID: tenantID}
}
