package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/lychee-technology/attrkit"
)

// Wire keys of one record reference.
const (
	RefTargetObjectKey = "targetObjectSlug"
	RefTargetRecordKey = "targetRecordId"
)

var (
	targetObjectKeys = []string{RefTargetObjectKey, "target_object", "targetObject"}
	targetRecordKeys = []string{RefTargetRecordKey, "target_record_id"}
	legacyRecordKeys = []string{"record_id", "recordId", "id"}
)

// targetHints maps conventional relationship field-name fragments to the object they point at.
// Order matters: the first fragment contained in the field name wins.
var targetHints = []struct {
	fragment string
	object   string
}{
	{"compan", "companies"},
	{"people", "people"},
	{"person", "people"},
	{"contact", "people"},
	{"deal", "deals"},
}

type recordReferenceTransformer struct{}

func (t *recordReferenceTransformer) Transform(_ context.Context, value any, attributeName string, _ attrkit.TransformContext, meta attrkit.AttributeMetadata) (attrkit.TransformResult, error) {
	if meta.Type != attrkit.AttributeTypeRecordReference || value == nil {
		return untransformed(value, ""), nil
	}
	if isCanonicalReferenceList(value) {
		return untransformed(value, "already in reference shape"), nil
	}

	items, isArray := asSlice(value)
	if !isArray {
		items = []any{value}
	}

	target := inferTargetObject(attributeName, meta)
	refs := make([]map[string]any, 0, len(items))
	for _, item := range items {
		ref, ok := parseReference(item)
		if !ok {
			continue
		}
		if ref.object == "" {
			if target == "" {
				return failClosed(value, attrkit.NewUnresolvableTargetError(attributeName))
			}
			ref.object = target
		}
		refs = append(refs, map[string]any{
			RefTargetObjectKey: ref.object,
			RefTargetRecordKey: ref.recordID,
		})
	}

	if len(refs) == 0 {
		msg := "record reference has no resolvable record id"
		if isArray {
			msg = fmt.Sprintf("record reference array has %d items, all invalid", len(items))
		}
		return failClosed(value, attrkit.NewValidationError(attrkit.ErrCodeInvalidReference, attributeName, msg).
			WithDetail("items", len(items)))
	}

	desc := fmt.Sprintf("%d reference(s) resolved", len(refs))
	if dropped := len(items) - len(refs); dropped > 0 {
		desc = fmt.Sprintf("%s, %d invalid item(s) dropped", desc, dropped)
	}
	return transformed(refs, desc), nil
}

type reference struct {
	object   string
	recordID string
}

// parseReference extracts a record id (and target object when the element names one).
func parseReference(item any) (reference, bool) {
	switch v := item.(type) {
	case string:
		id := strings.TrimSpace(v)
		return reference{recordID: id}, id != ""
	case map[string]any:
		object, _ := stringField(v, targetObjectKeys...)
		keys := append(append([]string{}, targetRecordKeys...), legacyRecordKeys...)
		id, ok := stringField(v, keys...)
		if !ok {
			return reference{}, false
		}
		return reference{object: strings.TrimSpace(object), recordID: strings.TrimSpace(id)}, true
	default:
		return reference{}, false
	}
}

func inferTargetObject(attributeName string, meta attrkit.AttributeMetadata) string {
	if meta.Relationship != nil && strings.TrimSpace(meta.Relationship.TargetObjectSlug) != "" {
		return strings.TrimSpace(meta.Relationship.TargetObjectSlug)
	}
	for _, name := range []string{meta.Slug, attributeName} {
		name = strings.ToLower(name)
		for _, hint := range targetHints {
			if strings.Contains(name, hint.fragment) {
				return hint.object
			}
		}
	}
	return ""
}

// isCanonicalReferenceList reports whether v is already a list of complete references.
// The empty list is canonical: it clears the field.
func isCanonicalReferenceList(v any) bool {
	items, ok := asSlice(v)
	if !ok {
		return false
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := stringField(m, targetObjectKeys...); !ok {
			return false
		}
		if _, ok := stringField(m, targetRecordKeys...); !ok {
			return false
		}
	}
	return true
}
