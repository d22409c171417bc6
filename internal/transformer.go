package internal

import (
	"context"

	"github.com/lychee-technology/attrkit"
)

// ValueTransformer converts one client value into the wire shape of its attribute type.
// Implementations never mutate value or meta. On failure the returned result is
// untransformed and carries the original value.
type ValueTransformer interface {
	Transform(ctx context.Context, value any, attributeName string, tc attrkit.TransformContext, meta attrkit.AttributeMetadata) (attrkit.TransformResult, error)
}

// TransformerRegistry dispatches values to transformers by attribute type tag.
type TransformerRegistry struct {
	byType      map[attrkit.AttributeType]ValueTransformer
	multiSelect ValueTransformer
}

// NewTransformerRegistry builds the dispatch table. options backs the choice transformers.
func NewTransformerRegistry(options *OptionCache, maxListedOptions int) *TransformerRegistry {
	scalar := &scalarTransformer{}
	return &TransformerRegistry{
		byType: map[attrkit.AttributeType]ValueTransformer{
			attrkit.AttributeTypeSelect:          &selectTransformer{options: options, maxListed: maxListedOptions},
			attrkit.AttributeTypeRecordReference: &recordReferenceTransformer{},
			attrkit.AttributeTypePersonalName:    &personalNameTransformer{},
			attrkit.AttributeTypeLocation:        &locationTransformer{},
			attrkit.AttributeTypePhoneNumber:     &phoneNumberTransformer{},
			attrkit.AttributeTypeText:            scalar,
			attrkit.AttributeTypeNumber:          scalar,
			attrkit.AttributeTypeCurrency:        scalar,
			attrkit.AttributeTypeRating:          scalar,
			attrkit.AttributeTypeBoolean:         scalar,
			attrkit.AttributeTypeDate:            scalar,
			attrkit.AttributeTypeTimestamp:       scalar,
		},
		multiSelect: &multiSelectTransformer{options: options, maxListed: maxListedOptions},
	}
}

// Lookup returns the transformer for meta, or nil when values of its type pass through unchanged.
func (r *TransformerRegistry) Lookup(meta attrkit.AttributeMetadata) ValueTransformer {
	if meta.Type == attrkit.AttributeTypeSelect && meta.IsMultiselect {
		return r.multiSelect
	}
	return r.byType[meta.Type]
}

// Transform routes value through the transformer registered for meta.Type.
func (r *TransformerRegistry) Transform(ctx context.Context, value any, attributeName string, tc attrkit.TransformContext, meta attrkit.AttributeMetadata) (attrkit.TransformResult, error) {
	t := r.Lookup(meta)
	if t == nil {
		return untransformed(value, "no transformer for attribute type "+string(meta.Type)), nil
	}
	return t.Transform(ctx, value, attributeName, tc, meta)
}
