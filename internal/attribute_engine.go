package internal

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/lychee-technology/attrkit"
	"go.uber.org/zap"
)

// AttributeEngine is the attrkit.Engine implementation. It owns its caches;
// nothing is shared between engines.
type AttributeEngine struct {
	config   *attrkit.Config
	schema   *SchemaMetadataCache
	options  *OptionCache
	registry *TransformerRegistry
	filters  *FilterTransformer
	retrier  *WriteRetrier
}

var _ attrkit.Engine = (*AttributeEngine)(nil)

// NewEngine creates an engine reading schema and options from source. submitter may be
// nil when the caller never uses SubmitWithRetry. A nil or invalid config is replaced
// by attrkit.DefaultConfig.
func NewEngine(config *attrkit.Config, source attrkit.Source, submitter attrkit.WriteSubmitter) *AttributeEngine {
	if config == nil {
		config = attrkit.DefaultConfig()
	} else if err := config.Validate(); err != nil {
		zap.S().Warnw("invalid engine config; using defaults", "error", err)
		config = attrkit.DefaultConfig()
	}
	var (
		schemaSource attrkit.SchemaSource
		optionSource attrkit.OptionSource
	)
	if source != nil {
		schemaSource, optionSource = source, source
	}

	schema := NewSchemaMetadataCache(schemaSource)
	options := NewOptionCache(optionSource)
	return &AttributeEngine{
		config:   config,
		schema:   schema,
		options:  options,
		registry: NewTransformerRegistry(options, config.Options.MaxListedOptions),
		filters:  NewFilterTransformer(schema, options, config.Filter, config.Options.MaxListedOptions),
		retrier:  NewWriteRetrier(submitter, schema, config.Retry),
	}
}

// ResolveAndTransform implements attrkit.Engine.
func (e *AttributeEngine) ResolveAndTransform(ctx context.Context, objectType string, op attrkit.Operation, raw map[string]any) (*attrkit.TransformOutput, error) {
	out := &attrkit.TransformOutput{Attributes: make(map[string]any, len(raw))}

	schema := e.schema.List(ctx, objectType)
	if len(schema) == 0 {
		maps.Copy(out.Attributes, raw)
		if len(raw) > 0 {
			out.Warnings = append(out.Warnings, fmt.Sprintf(
				"schema for %s is unavailable; %d attribute(s) passed through without validation", objectType, len(raw)))
		}
		return out, nil
	}
	bySlug := make(map[string]attrkit.AttributeMetadata, len(schema))
	for _, attr := range schema {
		bySlug[attr.Slug] = attr
	}

	tc := attrkit.TransformContext{ResourceType: objectType, Operation: op}
	mappedFrom := make(map[string]string, len(raw))
	var errs attrkit.ValidationErrors

	for _, name := range slices.Sorted(maps.Keys(raw)) {
		res := ResolveAttributeName(name, schema)
		if !res.Matched() {
			errs = append(errs, attrkit.NewUnknownAttributeError(objectType, name,
				SimilarAttributes(name, schema, e.config.Resolver.MaxSuggestions)))
			continue
		}
		if prev, dup := mappedFrom[res.Slug]; dup {
			errs = append(errs, attrkit.NewValidationError(attrkit.ErrCodeDuplicateAttribute, name,
				fmt.Sprintf("%q and %q both map to attribute %q", prev, name, res.Slug)).
				WithDetail("slug", res.Slug))
			continue
		}
		mappedFrom[res.Slug] = name

		switch res.MatchType {
		case attrkit.MatchPartial:
			out.Warnings = append(out.Warnings, fmt.Sprintf("field %q mapped to %q via partial match", name, res.Slug))
		case attrkit.MatchTypo:
			out.Warnings = append(out.Warnings, fmt.Sprintf("field %q mapped to %q via typo match (distance %d)", name, res.Slug, res.Distance))
		}
		if res.MatchType != attrkit.MatchExact {
			zap.S().Debugw("attribute name resolved", "object_type", objectType, "name", name, "slug", res.Slug, "match", res.MatchType)
		}

		result, err := e.registry.Transform(ctx, raw[name], name, tc, bySlug[res.Slug])
		if err != nil {
			errs = append(errs, asAttrError(err, name))
			continue
		}
		out.Attributes[res.Slug] = result.Value
	}

	if op == attrkit.OperationCreate {
		for _, attr := range schema {
			if !attr.IsRequired {
				continue
			}
			if _, mapped := mappedFrom[attr.Slug]; !mapped {
				out.Warnings = append(out.Warnings, fmt.Sprintf("required attribute %q (%s) is missing", attr.Slug, attr.Title))
			}
		}
	}

	if len(errs) > 0 {
		return out, errs
	}
	return out, nil
}

// TransformFilters implements attrkit.Engine.
func (e *AttributeEngine) TransformFilters(ctx context.Context, objectType string, filters attrkit.FilterSet, opts ...attrkit.FilterOption) (attrkit.QueryDocument, error) {
	var options attrkit.FilterOptions
	for _, opt := range opts {
		opt(&options)
	}
	return e.filters.Transform(ctx, objectType, filters, options)
}

// SubmitWithRetry implements attrkit.Engine.
func (e *AttributeEngine) SubmitWithRetry(ctx context.Context, objectType string, op attrkit.Operation, payload map[string]any) (*attrkit.WriteResponse, error) {
	return e.retrier.Submit(ctx, objectType, op, payload)
}

// ClearCaches implements attrkit.Engine.
func (e *AttributeEngine) ClearCaches(objectTypes ...string) {
	e.schema.Invalidate(objectTypes...)
	e.options.Invalidate(objectTypes...)
}

// Schema exposes the schema cache for tooling.
func (e *AttributeEngine) Schema() *SchemaMetadataCache {
	return e.schema
}

func asAttrError(err error, field string) *attrkit.Error {
	var attrErr *attrkit.Error
	if errors.As(err, &attrErr) {
		return attrErr
	}
	return attrkit.NewError(attrkit.ErrorTypeInternal, attrkit.ErrCodeInternalError, err.Error()).
		WithField(field).
		WithCause(err)
}
