package internal

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lychee-technology/attrkit"
)

// scalarTransformer coerces plain values: numeric strings to numbers, truthy strings to
// booleans and time values to ISO strings. Date strings are never reinterpreted.
type scalarTransformer struct{}

func (t *scalarTransformer) Transform(_ context.Context, value any, attributeName string, _ attrkit.TransformContext, meta attrkit.AttributeMetadata) (attrkit.TransformResult, error) {
	if value == nil {
		return untransformed(value, ""), nil
	}
	switch meta.Type {
	case attrkit.AttributeTypeNumber, attrkit.AttributeTypeCurrency, attrkit.AttributeTypeRating:
		return coerceNumber(value, attributeName)
	case attrkit.AttributeTypeBoolean:
		return coerceBool(value, attributeName)
	case attrkit.AttributeTypeDate:
		return coerceTime(value, "2006-01-02")
	case attrkit.AttributeTypeTimestamp:
		return coerceTime(value, time.RFC3339Nano)
	default:
		return untransformed(value, ""), nil
	}
}

func coerceNumber(value any, field string) (attrkit.TransformResult, error) {
	switch v := value.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			e := attrkit.NewValidationError(attrkit.ErrCodeInvalidNumber, field, fmt.Sprintf("%q is not a number", v))
			if err != nil {
				e = e.WithCause(err)
			}
			return failClosed(value, e)
		}
		return transformed(f, "numeric string parsed"), nil
	default:
		if attrkit.KindOf(value) == attrkit.KindNumber {
			return untransformed(value, ""), nil
		}
		return failClosed(value, attrkit.NewTypeMismatchError(field, "number", attrkit.KindOf(value)))
	}
}

func coerceBool(value any, field string) (attrkit.TransformResult, error) {
	switch v := value.(type) {
	case bool:
		return untransformed(value, ""), nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1", "on":
			return transformed(true, "truthy string"), nil
		case "false", "no", "n", "0", "off":
			return transformed(false, "falsy string"), nil
		}
		return failClosed(value, attrkit.NewValidationError(attrkit.ErrCodeInvalidBoolean, field,
			fmt.Sprintf("invalid boolean value: %q (expected true/false/yes/no/1/0)", v)))
	case float64:
		return numberToBool(value, v, field)
	case int:
		return numberToBool(value, float64(v), field)
	case int64:
		return numberToBool(value, float64(v), field)
	default:
		return failClosed(value, attrkit.NewTypeMismatchError(field, "boolean", attrkit.KindOf(value)))
	}
}

func numberToBool(value any, f float64, field string) (attrkit.TransformResult, error) {
	switch f {
	case 1:
		return transformed(true, "1 as boolean"), nil
	case 0:
		return transformed(false, "0 as boolean"), nil
	}
	return failClosed(value, attrkit.NewValidationError(attrkit.ErrCodeInvalidBoolean, field,
		fmt.Sprintf("invalid boolean value: %v (expected 1 or 0)", f)))
}

func coerceTime(value any, layout string) (attrkit.TransformResult, error) {
	switch v := value.(type) {
	case time.Time:
		return transformed(v.UTC().Format(layout), "time formatted as ISO string"), nil
	case *time.Time:
		if v == nil {
			return untransformed(value, ""), nil
		}
		return transformed(v.UTC().Format(layout), "time formatted as ISO string"), nil
	default:
		return untransformed(value, ""), nil
	}
}
