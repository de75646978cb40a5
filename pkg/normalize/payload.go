package normalize

import (
	"encoding/json"

	jsonrepair "github.com/kaptinlin/jsonrepair"

	"github.com/contexture-ai/contexture/pkg/types"
)

// ParsePayload decodes a raw extractor payload. Slightly malformed JSON
// (the extractor is an LLM) is repaired before giving up; an unreadable
// payload resolves to nil rather than an error.
func ParsePayload(data []byte) any {
	var payload any
	if err := json.Unmarshal(data, &payload); err == nil {
		return payload
	}

	repaired, err := jsonrepair.JSONRepair(string(data))
	if err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return nil
	}
	return payload
}

// ExtractDocumentMeta pulls the document_metadata block out of a
// payload, if one exists.
func ExtractDocumentMeta(payload any) *types.DocumentMeta {
	root, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	meta, ok := root["document_metadata"].(map[string]any)
	if !ok {
		return nil
	}
	return &types.DocumentMeta{
		DocumentID:    ResolveText(meta["document_id"]),
		DocumentTitle: ResolveText(meta["document_title"]),
		DocumentType:  ResolveText(meta["document_type"]),
		Vendor:        ResolveText(meta["vendor"]),
		Product:       ResolveText(meta["product"]),
		Version:       ResolveText(meta["version"]),
	}
}

// ExtractContexts returns the raw context list of a payload. Historical
// payloads keyed the list as "contexts" or "context_nodes"; a bare array
// is taken as-is.
func ExtractContexts(payload any) []map[string]any {
	collect := func(items []any) []map[string]any {
		out := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if raw, ok := item.(map[string]any); ok {
				out = append(out, raw)
			}
		}
		return out
	}

	switch root := payload.(type) {
	case map[string]any:
		if items, ok := root["contexts"].([]any); ok {
			return collect(items)
		}
		if items, ok := root["context_nodes"].([]any); ok {
			return collect(items)
		}
	case []any:
		return collect(root)
	}
	return []map[string]any{}
}

// Payload parses raw bytes and normalizes every context found in them.
// Contexts with an empty context_id are dropped.
func Payload(data []byte) ([]types.Context, *types.DocumentMeta) {
	payload := ParsePayload(data)
	meta := ExtractDocumentMeta(payload)

	raws := ExtractContexts(payload)
	contexts := make([]types.Context, 0, len(raws))
	for _, raw := range raws {
		ctx := Context(raw, meta)
		if ctx.ContextID == "" {
			continue
		}
		contexts = append(contexts, ctx)
	}
	return contexts, meta
}
