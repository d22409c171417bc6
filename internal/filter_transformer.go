package internal

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/lychee-technology/attrkit"
	"go.uber.org/zap"
)

// OrKey groups OR'ed clauses in a query document.
const OrKey = "$or"

var conditionOperators = map[attrkit.FilterCondition]string{
	attrkit.ConditionEquals:             "$equals",
	attrkit.ConditionNotEquals:          "$not_equals",
	attrkit.ConditionContains:           "$contains",
	attrkit.ConditionNotContains:        "$not_contains",
	attrkit.ConditionStartsWith:         "$starts_with",
	attrkit.ConditionEndsWith:           "$ends_with",
	attrkit.ConditionGreaterThan:        "$gt",
	attrkit.ConditionLessThan:           "$lt",
	attrkit.ConditionGreaterThanOrEqual: "$gte",
	attrkit.ConditionLessThanOrEqual:    "$lte",
	attrkit.ConditionIn:                 "$in",
	attrkit.ConditionIsEmpty:            "$is_empty",
	attrkit.ConditionIsNotEmpty:         "$not_empty",
}

// OperatorFor returns the query DSL operator of a condition.
func OperatorFor(condition attrkit.FilterCondition) (string, bool) {
	op, ok := conditionOperators[condition]
	return op, ok
}

// FilterTransformer converts client filter clauses into the remote query document.
type FilterTransformer struct {
	schema    *SchemaMetadataCache
	options   *OptionCache
	config    attrkit.FilterConfig
	maxListed int
}

// NewFilterTransformer creates a filter transformer backed by the engine caches.
func NewFilterTransformer(schema *SchemaMetadataCache, options *OptionCache, config attrkit.FilterConfig, maxListed int) *FilterTransformer {
	return &FilterTransformer{schema: schema, options: options, config: config, maxListed: maxListed}
}

type emittedClause struct {
	slug     string
	operator string
	value    any
}

// Transform builds the query document. Every invalid clause is reported in one ValidationErrors.
func (f *FilterTransformer) Transform(ctx context.Context, objectType string, set attrkit.FilterSet, opts attrkit.FilterOptions) (attrkit.QueryDocument, error) {
	var (
		clauses []emittedClause
		errs    attrkit.ValidationErrors
	)

	for _, clause := range set.Filters {
		slug := strings.TrimSpace(clause.Attribute.Slug)
		condition := attrkit.FilterCondition(strings.TrimSpace(string(clause.Condition)))
		if slug == "" || condition == "" {
			zap.S().Debugw("dropping empty filter clause", "object_type", objectType, "slug", slug, "condition", condition)
			continue
		}

		emitted, err := f.transformClause(ctx, objectType, slug, condition, clause.Value, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		clauses = append(clauses, emitted)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if set.MatchAny && len(clauses) > 1 {
		group := make([]map[string]any, len(clauses))
		for i, c := range clauses {
			group[i] = map[string]any{c.slug: map[string]any{c.operator: c.value}}
		}
		return attrkit.QueryDocument{OrKey: group}, nil
	}

	doc := attrkit.QueryDocument{}
	for _, c := range clauses {
		ops, _ := doc[c.slug].(map[string]any)
		if ops == nil {
			ops = map[string]any{}
			doc[c.slug] = ops
		}
		if _, dup := ops[c.operator]; dup {
			errs = append(errs, attrkit.NewValidationError(attrkit.ErrCodeConflictingFilter, c.slug,
				fmt.Sprintf("operator %s is applied more than once to this attribute; use matchAny to OR them", c.operator)))
			continue
		}
		ops[c.operator] = c.value
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return doc, nil
}

func (f *FilterTransformer) transformClause(ctx context.Context, objectType, slug string, condition attrkit.FilterCondition, value any, opts attrkit.FilterOptions) (emittedClause, *attrkit.Error) {
	op, known := OperatorFor(condition)
	if !known {
		if f.config.ValidateConditions && !opts.SkipConditionValidation {
			return emittedClause{}, unknownConditionError(slug, condition)
		}
		op = "$" + string(condition)
	}

	switch condition {
	case attrkit.ConditionIsEmpty, attrkit.ConditionIsNotEmpty:
		return emittedClause{slug: slug, operator: op, value: true}, nil
	case attrkit.ConditionIn:
		if _, ok := asSlice(value); !ok {
			return emittedClause{}, attrkit.NewValidationError(attrkit.ErrCodeInvalidFilter, slug,
				fmt.Sprintf("condition %q needs an array value, got %s", condition, attrkit.KindOf(value)))
		}
	}

	if f.config.ValidateOptionValues && (condition == attrkit.ConditionEquals || condition == attrkit.ConditionIn) {
		if err := f.validateOptionValue(ctx, objectType, slug, value); err != nil {
			return emittedClause{}, err
		}
	}
	return emittedClause{slug: slug, operator: op, value: value}, nil
}

// validateOptionValue checks membership values of choice attributes against live options.
// Unknown attributes and unavailable options are not validated.
func (f *FilterTransformer) validateOptionValue(ctx context.Context, objectType, slug string, value any) *attrkit.Error {
	if f.schema == nil || f.options == nil {
		return nil
	}
	meta, ok := f.schema.Lookup(ctx, objectType, slug)
	if !ok || !meta.Type.IsChoice() {
		return nil
	}
	set := f.options.GetOptions(ctx, objectType, slug)
	if len(set.Options) == 0 {
		return nil
	}

	values := []any{value}
	if items, ok := asSlice(value); ok {
		values = items
	}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return attrkit.NewTypeMismatchError(slug, "option title, value or id", attrkit.KindOf(v))
		}
		if _, _, ok := matchOption(set.Options, s, false); !ok {
			return newInvalidOptionError(slug, s, set.Options, f.maxListed)
		}
	}
	return nil
}

func unknownConditionError(slug string, condition attrkit.FilterCondition) *attrkit.Error {
	known := make([]string, 0, len(conditionOperators))
	for c := range conditionOperators {
		known = append(known, string(c))
	}
	slices.Sort(known)
	suggestions := FindSimilar(known, string(condition), SimilarOptions{MaxDistance: MaxSuggestionDistance, MaxResults: 3})
	return attrkit.NewValidationError(attrkit.ErrCodeInvalidCondition, slug,
		fmt.Sprintf("unknown filter condition %q; valid conditions are: %s", condition, strings.Join(known, ", "))).
		WithSuggestions(suggestions...).
		WithDetail("condition", string(condition))
}
