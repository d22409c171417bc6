package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/lychee-technology/attrkit"
)

const (
	PhoneNumberKey         = "phoneNumber"
	PhoneOriginalNumberKey = "originalPhoneNumber"
)

var phoneKeyAliases = map[string]string{
	"phone_number":          PhoneNumberKey,
	"original_phone_number": PhoneOriginalNumberKey,
	"country_code":          "countryCode",
}

type phoneNumberTransformer struct{}

func (t *phoneNumberTransformer) Transform(_ context.Context, value any, attributeName string, _ attrkit.TransformContext, meta attrkit.AttributeMetadata) (attrkit.TransformResult, error) {
	if meta.Type != attrkit.AttributeTypePhoneNumber || value == nil {
		return untransformed(value, ""), nil
	}

	if items, ok := asSlice(value); ok {
		out := make([]any, len(items))
		changed := false
		for i, item := range items {
			if item == nil {
				continue
			}
			phone, itemChanged, err := normalizePhone(item, fmt.Sprintf("%s[%d]", attributeName, i))
			if err != nil {
				return failClosed(value, err)
			}
			out[i] = phone
			changed = changed || itemChanged
		}
		if !changed {
			return untransformed(value, "already phone-number objects"), nil
		}
		return transformed(out, fmt.Sprintf("%d phone number(s) normalized", len(items))), nil
	}

	phone, changed, err := normalizePhone(value, attributeName)
	if err != nil {
		return failClosed(value, err)
	}
	if !changed {
		return untransformed(value, "already a phone-number object"), nil
	}
	return transformed(phone, "phone number normalized"), nil
}

// normalizePhone returns the wire object for one phone value and whether it differs from the input.
func normalizePhone(v any, field string) (map[string]any, bool, *attrkit.Error) {
	switch p := v.(type) {
	case string:
		number := strings.TrimSpace(p)
		if number == "" {
			return nil, false, attrkit.NewValidationError(attrkit.ErrCodeMissingSubfield, field, "phone number is empty")
		}
		return map[string]any{PhoneNumberKey: number}, true, nil
	case map[string]any:
		out := make(map[string]any, len(p))
		changed := false
		for key, val := range p {
			if alias, ok := phoneKeyAliases[key]; ok {
				key, changed = alias, true
			}
			out[key] = val
		}
		if err := phoneNumberSchema.validate(out); err != nil {
			return nil, false, attrkit.NewValidationError(attrkit.ErrCodeMissingSubfield, field,
				"phone-number object must contain a non-empty phoneNumber or originalPhoneNumber").WithCause(err)
		}
		if !changed {
			return p, false, nil
		}
		return out, true, nil
	default:
		return nil, false, attrkit.NewTypeMismatchError(field, "phone number string or object", attrkit.KindOf(v))
	}
}
