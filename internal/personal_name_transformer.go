package internal

import (
	"context"
	"strings"

	"github.com/lychee-technology/attrkit"
)

const (
	NameFirstKey = "first_name"
	NameLastKey  = "last_name"
	NameFullKey  = "full_name"
)

var nameKeyAliases = map[string]string{
	"firstName": NameFirstKey,
	"lastName":  NameLastKey,
	"fullName":  NameFullKey,
	"name":      NameFullKey,
}

type personalNameTransformer struct{}

func (t *personalNameTransformer) Transform(_ context.Context, value any, attributeName string, _ attrkit.TransformContext, meta attrkit.AttributeMetadata) (attrkit.TransformResult, error) {
	if meta.Type != attrkit.AttributeTypePersonalName || value == nil {
		return untransformed(value, ""), nil
	}

	switch v := value.(type) {
	case string:
		name := strings.TrimSpace(v)
		if name == "" {
			return failClosed(value, missingNameError(attributeName))
		}
		first, last := splitName(name)
		return transformed(map[string]any{
			NameFirstKey: first,
			NameLastKey:  last,
			NameFullKey:  name,
		}, "name string split into first and last name"), nil

	case map[string]any:
		if isCanonicalName(v) {
			return untransformed(value, "already a personal-name object"), nil
		}
		name := normalizeNameObject(v)
		if len(name) == 0 {
			return failClosed(value, missingNameError(attributeName))
		}
		if err := personalNameSchema.validate(name); err != nil {
			return failClosed(value, attrkit.NewTypeMismatchError(attributeName, "personal-name object with string name parts", attrkit.KindObject).WithCause(err))
		}
		return transformed(completeName(name), "personal-name object normalized"), nil

	default:
		return failClosed(value, attrkit.NewTypeMismatchError(attributeName, "name string or personal-name object", attrkit.KindOf(value)))
	}
}

func missingNameError(field string) *attrkit.Error {
	return attrkit.NewValidationError(attrkit.ErrCodeMissingSubfield, field,
		"personal name needs at least one of first_name, last_name or full_name")
}

// splitName splits on the first run of whitespace.
func splitName(name string) (first, last string) {
	idx := strings.IndexFunc(name, isSpace)
	if idx < 0 {
		return name, ""
	}
	return name[:idx], strings.TrimSpace(name[idx:])
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isCanonicalName(m map[string]any) bool {
	if len(m) != 3 {
		return false
	}
	for _, key := range []string{NameFirstKey, NameLastKey, NameFullKey} {
		if _, ok := m[key].(string); !ok {
			return false
		}
	}
	return strings.TrimSpace(m[NameFirstKey].(string)+m[NameLastKey].(string)+m[NameFullKey].(string)) != ""
}

// normalizeNameObject maps aliases onto canonical keys and drops blank parts.
func normalizeNameObject(m map[string]any) map[string]any {
	out := make(map[string]any, 3)
	for key, v := range m {
		canonical := key
		if alias, ok := nameKeyAliases[key]; ok {
			canonical = alias
		}
		if canonical != NameFirstKey && canonical != NameLastKey && canonical != NameFullKey {
			continue
		}
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			if strings.TrimSpace(s) == "" {
				continue
			}
			v = strings.TrimSpace(s)
		}
		out[canonical] = v
	}
	return out
}

func completeName(name map[string]any) map[string]any {
	first, _ := name[NameFirstKey].(string)
	last, _ := name[NameLastKey].(string)
	full, _ := name[NameFullKey].(string)
	if full == "" {
		full = strings.TrimSpace(first + " " + last)
	}
	if first == "" && last == "" {
		first, last = splitName(full)
	}
	return map[string]any{
		NameFirstKey: first,
		NameLastKey:  last,
		NameFullKey:  full,
	}
}
