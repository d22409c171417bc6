package internal

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/lychee-technology/attrkit"
)

// attributeRecord is one parsed attribute together with its options, if any.
type attributeRecord struct {
	meta    attrkit.AttributeMetadata
	options []attrkit.AttributeOption
}

// parseAttributeDocument decodes an attribute snapshot. Two layouts are accepted: an
// ordered array of attribute objects, or an object keyed by slug (ordered by slug).
// An object with an "attributes" member is unwrapped first.
func parseAttributeDocument(data []byte, source string) ([]attributeRecord, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse attributes document %s: %w", source, err)
	}
	if wrapper, ok := raw.(map[string]any); ok {
		if inner, ok := wrapper["attributes"]; ok {
			raw = inner
		}
	}

	var records []attributeRecord
	switch doc := raw.(type) {
	case []any:
		for i, item := range doc {
			attrData, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("attribute #%d in %s is not an object", i, source)
			}
			slug, _ := attrData["slug"].(string)
			rec, err := parseAttributeRecord(slug, attrData, source)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	case map[string]any:
		keys := make([]string, 0, len(doc))
		for k := range doc {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, slug := range keys {
			attrData, ok := doc[slug].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("attribute %s in %s is not an object", slug, source)
			}
			rec, err := parseAttributeRecord(slug, attrData, source)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	default:
		return nil, fmt.Errorf("attributes document %s must be an array or an object", source)
	}
	return records, nil
}

func parseAttributeRecord(slug string, attrData map[string]any, source string) (attributeRecord, error) {
	meta, err := parseAttributeMetadata(slug, attrData, source)
	if err != nil {
		return attributeRecord{}, err
	}
	options, err := parseAttributeOptions(slug, attrData["options"], source)
	if err != nil {
		return attributeRecord{}, err
	}
	return attributeRecord{meta: meta, options: options}, nil
}

// parseAttributeMetadata converts one raw attribute object. Keys may be snake_case or camelCase.
func parseAttributeMetadata(slug string, attrData map[string]any, source string) (attrkit.AttributeMetadata, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return attrkit.AttributeMetadata{}, fmt.Errorf("missing slug for attribute in %s", source)
	}
	meta := attrkit.AttributeMetadata{Slug: slug}

	rawType, _ := firstOf(attrData, "type", "attribute_type", "attributeType").(string)
	if strings.TrimSpace(rawType) == "" {
		return attrkit.AttributeMetadata{}, fmt.Errorf("invalid or missing type for attribute %s in %s", slug, source)
	}
	meta.Type = normalizeAttributeType(rawType)

	meta.Title, _ = firstOf(attrData, "title", "name", "display_name", "displayName").(string)
	meta.IsRequired = boolOf(attrData, "is_required", "isRequired", "required")
	meta.IsUnique = boolOf(attrData, "is_unique", "isUnique", "unique")
	meta.IsMultiselect = boolOf(attrData, "is_multiselect", "isMultiselect", "multiselect")
	switch strings.ToLower(strings.TrimSpace(rawType)) {
	case "multi-select", "multiselect":
		meta.IsMultiselect = true
	}

	if rel, ok := firstOf(attrData, "relationship", "x-relation").(map[string]any); ok {
		target, _ := firstOf(rel, "target_object_slug", "targetObjectSlug", "target_object", "target").(string)
		if strings.TrimSpace(target) != "" {
			meta.Relationship = &attrkit.Relationship{TargetObjectSlug: strings.TrimSpace(target)}
		}
	}
	return meta, nil
}

// parseAttributeOptions accepts option objects or bare titles (id = title).
func parseAttributeOptions(slug string, raw any, source string) ([]attrkit.AttributeOption, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("options of attribute %s in %s must be an array", slug, source)
	}
	options := make([]attrkit.AttributeOption, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			options = append(options, attrkit.AttributeOption{ID: v, Title: v})
		case map[string]any:
			opt := attrkit.AttributeOption{}
			opt.ID, _ = firstOf(v, "id", "option_id", "optionId").(string)
			opt.Title, _ = v["title"].(string)
			opt.Value, _ = v["value"].(string)
			opt.IsArchived = boolOf(v, "is_archived", "isArchived", "archived")
			if opt.ID == "" && opt.Title == "" {
				return nil, fmt.Errorf("option #%d of attribute %s in %s has neither id nor title", i, slug, source)
			}
			if opt.ID == "" {
				opt.ID = opt.Title
			}
			options = append(options, opt)
		default:
			return nil, fmt.Errorf("option #%d of attribute %s in %s must be a string or an object", i, slug, source)
		}
	}
	return options, nil
}

// normalizeAttributeType maps common spellings onto the canonical type tags.
func normalizeAttributeType(raw string) attrkit.AttributeType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "text", "string":
		return attrkit.AttributeTypeText
	case "number", "integer", "int", "float", "numeric":
		return attrkit.AttributeTypeNumber
	case "currency":
		return attrkit.AttributeTypeCurrency
	case "rating":
		return attrkit.AttributeTypeRating
	case "checkbox", "bool", "boolean":
		return attrkit.AttributeTypeBoolean
	case "date":
		return attrkit.AttributeTypeDate
	case "timestamp", "datetime", "timestamptz":
		return attrkit.AttributeTypeTimestamp
	case "select", "multi-select", "multiselect":
		return attrkit.AttributeTypeSelect
	case "status":
		return attrkit.AttributeTypeStatus
	case "record-reference", "record_reference", "reference", "relation":
		return attrkit.AttributeTypeRecordReference
	case "personal-name", "personal_name", "name":
		return attrkit.AttributeTypePersonalName
	case "location", "address":
		return attrkit.AttributeTypeLocation
	case "phone-number", "phone_number", "phone":
		return attrkit.AttributeTypePhoneNumber
	case "email-address", "email_address", "email":
		return attrkit.AttributeTypeEmailAddress
	case "domain":
		return attrkit.AttributeTypeDomain
	default:
		return attrkit.AttributeType(raw)
	}
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func boolOf(m map[string]any, keys ...string) bool {
	b, _ := firstOf(m, keys...).(bool)
	return b
}
