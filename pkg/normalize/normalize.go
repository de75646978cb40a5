// Package normalize converts raw, loosely-typed decision-context records
// into the canonical schema. Every function here is total: missing or
// mistyped fields degrade to documented defaults, never to an error.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/contexture-ai/contexture/pkg/types"
)

// ResolveText collapses a raw value into display text. Bilingual
// {en, zh} objects prefer English; nil resolves to the empty string;
// anything else is stringified and stripped.
func ResolveText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case map[string]any:
		if s := ResolveText(val["en"]); s != "" {
			return s
		}
		return ResolveText(val["zh"])
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

// EnsureList applies the list-coercion rule: nil becomes an empty list,
// a scalar becomes a single-element list, a list passes through.
func EnsureList(v any) []any {
	switch val := v.(type) {
	case nil:
		return []any{}
	case []any:
		return val
	default:
		return []any{v}
	}
}

// truthy mirrors the presence test used for field aliasing: nil, empty
// strings, empty collections and zero numbers do not count as present.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	default:
		return true
	}
}

// first returns the value of the first present, non-empty key.
func first(raw map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := raw[key]; ok && truthy(v) {
			return v
		}
	}
	return nil
}

func stringList(v any) []string {
	items := EnsureList(v)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := ResolveText(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func entityList(v any) []types.EntityRef {
	items := EnsureList(v)
	out := make([]types.EntityRef, 0, len(items))
	for _, item := range items {
		var ref types.EntityRef
		switch val := item.(type) {
		case map[string]any:
			ref.Name = ResolveText(val["name"])
			ref.Type = ResolveText(val["type"])
		case string:
			ref.Name = strings.TrimSpace(val)
		default:
			continue
		}
		if ref.Name == "" {
			continue
		}
		out = append(out, ref)
	}
	return out
}

func boundaryList(v any) []types.DecisionBoundary {
	items := EnsureList(v)
	out := make([]types.DecisionBoundary, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		boundary := types.DecisionBoundary{
			BoundaryType:  ResolveText(entry["boundary_type"]),
			Description:   ResolveText(entry["description"]),
			AffectedRoles: stringList(entry["affected_roles"]),
		}
		if boundary.BoundaryType == "" {
			boundary.BoundaryType = "unspecified"
		}
		out = append(out, boundary)
	}
	return out
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}

// sourceNote renders a {section, page} reference as "section, p.page",
// falling back to whichever half is present, or to plain resolved text.
func sourceNote(v any) string {
	entry, ok := v.(map[string]any)
	if !ok {
		return ResolveText(v)
	}
	section := ResolveText(entry["section"])
	page := ResolveText(entry["page"])
	if section != "" && page != "" {
		return fmt.Sprintf("%s, p.%s", section, page)
	}
	if section != "" {
		return section
	}
	return page
}

func bilingual(v any) types.BilingualText {
	switch val := v.(type) {
	case string:
		return types.BilingualText{EN: val}
	case map[string]any:
		return types.BilingualText{
			EN: ResolveText(val["en"]),
			ZH: ResolveText(val["zh"]),
		}
	}
	return types.BilingualText{}
}

// Context normalizes one raw context record against optional inherited
// document metadata. Callers drop results with an empty ContextID.
func Context(raw map[string]any, meta *types.DocumentMeta) types.Context {
	title := bilingual(first(raw, "title", "title_text"))
	if title.IsZero() {
		inferred := first(raw, "context_type", "scenario_summary", "context_id")
		title = types.BilingualText{EN: ResolveText(inferred)}
	}

	ctx := types.Context{
		ContextID:            ResolveText(raw["context_id"]),
		DecisionLevel:        ResolveText(raw["decision_level"]),
		Title:                title,
		ContextIntents:       stringList(first(raw, "context_intents", "context_type", "context_scope")),
		Entities:             entityList(raw["entities"]),
		Conditions:           stringList(raw["conditions"]),
		ObservedIssues:       stringList(first(raw, "observed_issues", "observed_issues_or_risks")),
		Outcomes:             stringList(first(raw, "outcomes", "outcomes_or_consequences")),
		RecommendedSolutions: stringList(raw["recommended_solutions"]),
		DecisionBoundaries:   boundaryList(raw["decision_boundaries"]),
		Counterfactuals:      stringList(raw["counterfactuals"]),
		ConfidenceScore:      coerceFloat(raw["confidence_score"]),
		SourceNote:           sourceNote(first(raw, "source_note", "source_reference")),
		DocumentMetadata:     meta,
		EvolvesTo:            stringList(raw["evolves_to"]),
	}

	if policy, ok := raw["llm_usage_policy"].(map[string]any); ok {
		ctx.LLMUsagePolicy = policy
	}

	ctx.DocumentID = ResolveText(raw["document_id"])
	ctx.DocumentTitle = ResolveText(raw["document_title"])
	if meta != nil {
		if ctx.DocumentID == "" {
			ctx.DocumentID = meta.DocumentID
		}
		if ctx.DocumentTitle == "" {
			ctx.DocumentTitle = meta.DocumentTitle
		}
	}

	return ctx
}
