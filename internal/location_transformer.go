package internal

import (
	"context"
	"fmt"

	"github.com/lychee-technology/attrkit"
)

// LocationKeys are the sub-fields of a location value. Every one is sent; absent ones as null.
var LocationKeys = []string{
	"line_1", "line_2", "line_3", "line_4",
	"locality", "region", "postcode", "country_code",
	"latitude", "longitude",
}

var locationKeyAliases = map[string]string{
	"line1":       "line_1",
	"line2":       "line_2",
	"line3":       "line_3",
	"line4":       "line_4",
	"city":        "locality",
	"state":       "region",
	"postalCode":  "postcode",
	"postal_code": "postcode",
	"zip":         "postcode",
	"countryCode": "country_code",
	"lat":         "latitude",
	"lng":         "longitude",
}

type locationTransformer struct{}

func (t *locationTransformer) Transform(_ context.Context, value any, attributeName string, _ attrkit.TransformContext, meta attrkit.AttributeMetadata) (attrkit.TransformResult, error) {
	if meta.Type != attrkit.AttributeTypeLocation || value == nil {
		return untransformed(value, ""), nil
	}

	if items, ok := asSlice(value); ok {
		out := make([]any, len(items))
		changed := false
		for i, item := range items {
			if item == nil {
				continue
			}
			m, ok := item.(map[string]any)
			if !ok {
				return failClosed(value, attrkit.NewTypeMismatchError(fmt.Sprintf("%s[%d]", attributeName, i), "location object", attrkit.KindOf(item)))
			}
			loc, itemChanged := completeLocation(m)
			out[i] = loc
			changed = changed || itemChanged
		}
		if !changed {
			return untransformed(value, "already complete location objects"), nil
		}
		return transformed(out, fmt.Sprintf("%d location(s) completed", len(items))), nil
	}

	m, ok := value.(map[string]any)
	if !ok {
		return failClosed(value, attrkit.NewTypeMismatchError(attributeName, "location object", attrkit.KindOf(value)))
	}
	loc, changed := completeLocation(m)
	if !changed {
		return untransformed(value, "already a complete location object"), nil
	}
	return transformed(loc, "missing location fields set to null"), nil
}

// completeLocation renames aliases and fills every absent sub-field with nil.
func completeLocation(m map[string]any) (map[string]any, bool) {
	out := make(map[string]any, len(LocationKeys))
	changed := false
	for key, v := range m {
		if alias, ok := locationKeyAliases[key]; ok {
			if _, taken := m[alias]; !taken {
				key, changed = alias, true
			}
		}
		out[key] = v
	}
	for _, key := range LocationKeys {
		if _, ok := out[key]; !ok {
			out[key] = nil
			changed = true
		}
	}
	if !changed {
		return m, false
	}
	return out, true
}
