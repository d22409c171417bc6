package attrkit

import (
	"encoding/json"
	"fmt"
)

// AttributeType is the declared type of a remote attribute.
type AttributeType string

const (
	AttributeTypeText            AttributeType = "text"
	AttributeTypeNumber          AttributeType = "number"
	AttributeTypeCurrency        AttributeType = "currency"
	AttributeTypeRating          AttributeType = "rating"
	AttributeTypeBoolean         AttributeType = "checkbox"
	AttributeTypeDate            AttributeType = "date"
	AttributeTypeTimestamp       AttributeType = "timestamp"
	AttributeTypeSelect          AttributeType = "select"
	AttributeTypeStatus          AttributeType = "status"
	AttributeTypeRecordReference AttributeType = "record-reference"
	AttributeTypePersonalName    AttributeType = "personal-name"
	AttributeTypeLocation        AttributeType = "location"
	AttributeTypePhoneNumber     AttributeType = "phone-number"
	AttributeTypeEmailAddress    AttributeType = "email-address"
	AttributeTypeDomain          AttributeType = "domain"
)

// IsChoice reports whether values of this type come from a closed option set.
func (t AttributeType) IsChoice() bool {
	return t == AttributeTypeSelect || t == AttributeTypeStatus
}

// Relationship points a record-reference attribute at its target object.
type Relationship struct {
	TargetObjectSlug string `json:"target_object_slug"`
}

// AttributeMetadata describes one remote attribute. Values are owned by the
// schema cache and must be treated as read-only by consumers.
type AttributeMetadata struct {
	Slug          string        `json:"slug"`
	Title         string        `json:"title"`
	Type          AttributeType `json:"type"`
	IsRequired    bool          `json:"is_required"`
	IsUnique      bool          `json:"is_unique"`
	IsMultiselect bool          `json:"is_multiselect"`
	Relationship  *Relationship `json:"relationship,omitempty"`
}

// AttributeOption is one valid value of a choice-type attribute.
type AttributeOption struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Value      string `json:"value,omitempty"`
	IsArchived bool   `json:"is_archived"`
}

// OptionSet is the live option list of one attribute.
type OptionSet struct {
	Options       []AttributeOption `json:"options"`
	AttributeType AttributeType     `json:"attribute_type"`
}

// Operation is the write operation a transform is performed for.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
)

// TransformContext is passed by value into every transformer.
type TransformContext struct {
	ResourceType string    `json:"resource_type"`
	Operation    Operation `json:"operation"`
}

// MatchType tells which resolver tier produced a ResolutionResult.
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPartial MatchType = "partial"
	MatchTypo    MatchType = "typo"
	MatchNone    MatchType = "none"
)

// ResolutionResult is the output of attribute name resolution.
// Slug is empty when MatchType is MatchNone; Distance is only set for MatchTypo.
type ResolutionResult struct {
	Slug      string    `json:"slug,omitempty"`
	MatchType MatchType `json:"match_type"`
	Distance  int       `json:"distance,omitempty"`
}

// Matched reports whether the resolver found an attribute.
func (r ResolutionResult) Matched() bool {
	return r.MatchType != MatchNone && r.Slug != ""
}

// TransformResult is the output of a value transformer. When Transformed is
// false, Value is the caller's input, unchanged.
type TransformResult struct {
	Transformed bool   `json:"transformed"`
	Value       any    `json:"value"`
	Description string `json:"description,omitempty"`
}

// TransformOutput is the result of resolving and transforming a bag of raw attributes.
type TransformOutput struct {
	Attributes map[string]any `json:"attributes"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// FilterCondition is a client-side filter condition token.
type FilterCondition string

const (
	ConditionEquals             FilterCondition = "equals"
	ConditionNotEquals          FilterCondition = "not_equals"
	ConditionContains           FilterCondition = "contains"
	ConditionNotContains        FilterCondition = "not_contains"
	ConditionStartsWith         FilterCondition = "starts_with"
	ConditionEndsWith           FilterCondition = "ends_with"
	ConditionGreaterThan        FilterCondition = "greater_than"
	ConditionLessThan           FilterCondition = "less_than"
	ConditionGreaterThanOrEqual FilterCondition = "greater_than_or_equals"
	ConditionLessThanOrEqual    FilterCondition = "less_than_or_equals"
	ConditionIn                 FilterCondition = "in"
	ConditionIsEmpty            FilterCondition = "is_empty"
	ConditionIsNotEmpty         FilterCondition = "is_not_empty"
)

// FilterAttribute names the attribute a clause applies to.
type FilterAttribute struct {
	Slug string `json:"slug"`
}

// FilterClause is one attribute/condition/value triple.
type FilterClause struct {
	Attribute FilterAttribute `json:"attribute"`
	Condition FilterCondition `json:"condition"`
	Value     any             `json:"value,omitempty"`
}

// FilterSet groups clauses with AND (default) or OR when MatchAny is set.
type FilterSet struct {
	Filters  []FilterClause `json:"filters"`
	MatchAny bool           `json:"matchAny,omitempty"`
}

// QueryDocument is the remote query DSL document produced from a FilterSet.
type QueryDocument map[string]any

// WriteResponse is the successful answer of a remote write.
type WriteResponse struct {
	StatusCode int            `json:"status_code"`
	Body       map[string]any `json:"body,omitempty"`
}

// WriteRejection is returned by a WriteSubmitter when the remote store refuses a write.
type WriteRejection struct {
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
}

func (r *WriteRejection) Error() string {
	return fmt.Sprintf("write rejected with status %d: %s", r.StatusCode, r.Body)
}

// ValueKind tags the loosely-typed shape of a client-supplied value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
	KindOther
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// KindOf classifies a decoded JSON-like value.
func KindOf(v any) ValueKind {
	switch v.(type) {
	case nil:
		return KindNull
	case string:
		return KindString
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return KindNumber
	case bool:
		return KindBool
	case map[string]any:
		return KindObject
	case []any, []string, []map[string]any:
		return KindArray
	default:
		return KindOther
	}
}
