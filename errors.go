package attrkit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned (wrapped) by sources that know nothing about an object type.
var ErrNotFound = errors.New("not found")

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeResolution ErrorType = "resolution"
	ErrorTypeReference  ErrorType = "reference"
	ErrorTypeRejection  ErrorType = "rejection"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes
const (
	ErrCodeUnknownAttribute   = "UNKNOWN_ATTRIBUTE"
	ErrCodeInvalidOption      = "INVALID_OPTION"
	ErrCodeUnresolvableTarget = "UNRESOLVABLE_TARGET"
	ErrCodeInvalidReference   = "INVALID_REFERENCE"
	ErrCodeTypeMismatch       = "TYPE_MISMATCH"
	ErrCodeInvalidNumber      = "INVALID_NUMBER"
	ErrCodeInvalidBoolean     = "INVALID_BOOLEAN"
	ErrCodeMissingSubfield    = "MISSING_SUBFIELD"
	ErrCodeInvalidCondition   = "INVALID_CONDITION"
	ErrCodeInvalidFilter      = "INVALID_FILTER"
	ErrCodeConflictingFilter  = "CONFLICTING_FILTER"
	ErrCodeDuplicateAttribute = "DUPLICATE_ATTRIBUTE"
	ErrCodeWriteRejected      = "WRITE_REJECTED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Error is the unified error carried out of the engine.
type Error struct {
	Type        ErrorType      `json:"type"`
	Code        string         `json:"code"`
	Message     string         `json:"message"`
	Field       string         `json:"field,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	Cause       error          `json:"-"`
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Field != "" {
		fmt.Fprintf(&b, "[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	} else {
		fmt.Fprintf(&b, "[%s:%s] %s", e.Type, e.Code, e.Message)
	}
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean: %s?)", strings.Join(e.Suggestions, ", "))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to an Error
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail adds a single detail to an Error
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to an Error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithField adds field context to an Error
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSuggestions attaches "did you mean" candidates.
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// NewError creates a new Error
func NewError(errorType ErrorType, code, message string) *Error {
	return &Error{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error for one field.
func NewValidationError(code, field, message string) *Error {
	return NewError(ErrorTypeValidation, code, message).WithField(field)
}

// NewUnknownAttributeError reports an attribute name that matched nothing in the schema.
func NewUnknownAttributeError(objectType, name string, suggestions []string) *Error {
	msg := fmt.Sprintf("unknown attribute for %s; list the available attributes of %s to see valid names", objectType, objectType)
	return NewError(ErrorTypeResolution, ErrCodeUnknownAttribute, msg).
		WithField(name).
		WithSuggestions(suggestions...).
		WithDetail("object_type", objectType)
}

// NewInvalidOptionError reports a choice value that matched no live option.
func NewInvalidOptionError(field, value string, validTitles []string, more int, suggestion string) *Error {
	listed := strings.Join(quoteAll(validTitles), ", ")
	if more > 0 {
		listed = fmt.Sprintf("%s (+%d more)", listed, more)
	}
	msg := fmt.Sprintf("invalid option %q; valid options are: %s", value, listed)
	err := NewValidationError(ErrCodeInvalidOption, field, msg).
		WithDetail("value", value).
		WithDetail("valid_options", validTitles)
	if suggestion != "" {
		err = err.WithSuggestions(suggestion)
	}
	return err
}

// NewUnresolvableTargetError reports a record reference whose target object could not be inferred.
func NewUnresolvableTargetError(field string) *Error {
	msg := "cannot infer the target object of this record reference: relationship metadata is absent and the field name matches no known relationship pattern"
	return NewError(ErrorTypeReference, ErrCodeUnresolvableTarget, msg).WithField(field)
}

// NewTypeMismatchError reports a value of a shape the attribute type does not accept.
func NewTypeMismatchError(field string, expected string, got ValueKind) *Error {
	msg := fmt.Sprintf("expected %s, got %s", expected, got)
	return NewValidationError(ErrCodeTypeMismatch, field, msg).
		WithDetail("expected", expected).
		WithDetail("got", got.String())
}

func quoteAll(values []string) []string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return quoted
}

// ValidationErrors aggregates every per-field failure of one batch call.
type ValidationErrors []*Error

func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return "no errors"
	case 1:
		return v[0].Error()
	}
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%d attribute errors: %s", len(v), strings.Join(parts, "; "))
}

// Unwrap exposes the individual errors to errors.Is / errors.As.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// HasCode reports whether any aggregated error carries code.
func (v ValidationErrors) HasCode(code string) bool {
	for _, e := range v {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Fields returns the field names that failed, in order.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for _, e := range v {
		fields = append(fields, e.Field)
	}
	return fields
}

// ErrorCode extracts the code of an *Error anywhere in err's chain.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
