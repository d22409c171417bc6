package internal

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lychee-technology/attrkit"
)

// asSlice views any supported array shape as []any without copying elements.
func asSlice(v any) ([]any, bool) {
	switch arr := v.(type) {
	case []any:
		return arr, true
	case []string:
		out := make([]any, len(arr))
		for i, s := range arr {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(arr))
		for i, m := range arr {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

// isUUID reports whether s has the shape of an opaque remote identifier.
func isUUID(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// stringField returns m[key] when it is a non-blank string.
func stringField(m map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

func untransformed(value any, description string) attrkit.TransformResult {
	return attrkit.TransformResult{Transformed: false, Value: value, Description: description}
}

func transformed(value any, description string) attrkit.TransformResult {
	return attrkit.TransformResult{Transformed: true, Value: value, Description: description}
}

// failClosed refuses the transform: the caller's value is returned unchanged with the reason.
func failClosed(value any, err *attrkit.Error) (attrkit.TransformResult, error) {
	return untransformed(value, err.Message), err
}
