package attrkit

import "context"

// SchemaSource fetches the attribute schema of an object type from the remote store.
// Implementations can load schemas from the remote API, files, databases, or other sources.
type SchemaSource interface {
	FetchAttributes(ctx context.Context, objectType string) ([]AttributeMetadata, error)
}

// OptionSource fetches the live option list of a choice-type attribute.
type OptionSource interface {
	FetchOptions(ctx context.Context, objectType, attributeSlug string) (OptionSet, error)
}

// Source is a SchemaSource that can also serve options.
type Source interface {
	SchemaSource
	OptionSource
}

// WriteSubmitter performs a remote write. Rejections are reported as *WriteRejection.
type WriteSubmitter interface {
	SubmitWrite(ctx context.Context, objectType string, op Operation, payload map[string]any) (*WriteResponse, error)
}

// Engine resolves client attribute names and values against the remote schema.
type Engine interface {
	// ResolveAndTransform maps raw attribute names to schema slugs and converts each
	// value into the wire shape of its attribute type. Field failures are returned
	// together as ValidationErrors alongside the fields that did succeed.
	ResolveAndTransform(ctx context.Context, objectType string, op Operation, raw map[string]any) (*TransformOutput, error)

	// TransformFilters converts a FilterSet into the remote query document.
	TransformFilters(ctx context.Context, objectType string, filters FilterSet, opts ...FilterOption) (QueryDocument, error)

	// SubmitWithRetry submits a write and retries once with the alternate encoding
	// of collection fields when the first attempt is rejected for its shape.
	SubmitWithRetry(ctx context.Context, objectType string, op Operation, payload map[string]any) (*WriteResponse, error)

	// ClearCaches drops cached schema and options for the given object types, or for all when none are given.
	ClearCaches(objectTypes ...string)
}

// FilterOptions tunes a single TransformFilters call.
type FilterOptions struct {
	SkipConditionValidation bool
}

// FilterOption mutates FilterOptions.
type FilterOption func(*FilterOptions)

// WithoutConditionValidation lets unknown condition tokens through as "$<condition>".
func WithoutConditionValidation() FilterOption {
	return func(o *FilterOptions) {
		o.SkipConditionValidation = true
	}
}
