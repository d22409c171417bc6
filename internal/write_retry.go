package internal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lychee-technology/attrkit"
	"go.uber.org/zap"
)

// Retry outcomes reported through EmitRetryOutcome.
const (
	RetryOutcomeNotRetried = "not_retried"
	RetryOutcomeRecovered  = "recovered"
	RetryOutcomeFailed     = "failed"
)

// collectionKeys is the object key of each multi-value contact field in its object encoding.
var collectionKeys = map[attrkit.AttributeType]string{
	attrkit.AttributeTypeEmailAddress: "email_address",
	attrkit.AttributeTypeDomain:       "domain",
	attrkit.AttributeTypePhoneNumber:  PhoneOriginalNumberKey,
}

// WriteRetrier submits writes and retries once with the alternate encoding of
// collection fields when the remote store rejects the first shape.
//
//	attempt(original) -> rejected -> attempt(alternate) -> rejected -> alternate error
type WriteRetrier struct {
	submitter attrkit.WriteSubmitter
	schema    *SchemaMetadataCache
	config    attrkit.RetryConfig
}

// NewWriteRetrier creates a retrier. schema may be nil, in which case field types are inferred from slugs.
func NewWriteRetrier(submitter attrkit.WriteSubmitter, schema *SchemaMetadataCache, config attrkit.RetryConfig) *WriteRetrier {
	return &WriteRetrier{submitter: submitter, schema: schema, config: config}
}

// Submit runs the two-attempt pipeline.
func (r *WriteRetrier) Submit(ctx context.Context, objectType string, op attrkit.Operation, payload map[string]any) (*attrkit.WriteResponse, error) {
	if r.submitter == nil {
		return nil, attrkit.NewError(attrkit.ErrorTypeConfig, attrkit.ErrCodeInternalError, "no write submitter configured")
	}

	resp, err := r.submitter.SubmitWrite(ctx, objectType, op, payload)
	if err == nil {
		return resp, nil
	}

	var rejection *attrkit.WriteRejection
	if !errors.As(err, &rejection) {
		return nil, err
	}
	if !r.config.RetryOn(rejection.StatusCode) {
		return nil, rejectedError(rejection, err, 1)
	}

	alternate, fields := alternateEncoding(payload, r.fieldTypes(ctx, objectType))
	if len(fields) == 0 {
		EmitRetryOutcome(ctx, objectType, RetryOutcomeNotRetried)
		return nil, rejectedError(rejection, err, 1)
	}

	zap.S().Infow("write rejected; retrying with alternate collection encoding",
		"object_type", objectType, "operation", op, "status", rejection.StatusCode, "fields", fields)

	resp, retryErr := r.submitter.SubmitWrite(ctx, objectType, op, alternate)
	if retryErr == nil {
		EmitRetryOutcome(ctx, objectType, RetryOutcomeRecovered)
		return resp, nil
	}

	EmitRetryOutcome(ctx, objectType, RetryOutcomeFailed)
	zap.S().Warnw("write rejected in both encodings", "object_type", objectType, "error", retryErr)
	var second *attrkit.WriteRejection
	if errors.As(retryErr, &second) {
		return nil, rejectedError(second, retryErr, 2).WithDetail("retried_fields", fields)
	}
	return nil, retryErr
}

func (r *WriteRetrier) fieldTypes(ctx context.Context, objectType string) map[string]attrkit.AttributeMetadata {
	if r.schema == nil {
		return nil
	}
	return r.schema.GetAttributes(ctx, objectType)
}

func rejectedError(rejection *attrkit.WriteRejection, cause error, attempts int) *attrkit.Error {
	return attrkit.NewError(attrkit.ErrorTypeRejection, attrkit.ErrCodeWriteRejected,
		fmt.Sprintf("remote store rejected the write with status %d", rejection.StatusCode)).
		WithCause(cause).
		WithDetail("status_code", rejection.StatusCode).
		WithDetail("attempts", attempts)
}

// alternateEncoding swaps every recognized collection field between its string-array
// and object-array encodings. It returns the converted fields; none means no retry.
// payload is not modified.
func alternateEncoding(payload map[string]any, attrs map[string]attrkit.AttributeMetadata) (map[string]any, []string) {
	out := make(map[string]any, len(payload))
	var fields []string
	for slug, value := range payload {
		out[slug] = value
		key, ok := collectionKeyFor(slug, attrs)
		if !ok {
			continue
		}
		if swapped, ok := swapCollection(value, key); ok {
			out[slug] = swapped
			fields = append(fields, slug)
		}
	}
	slices.Sort(fields)
	return out, fields
}

func collectionKeyFor(slug string, attrs map[string]attrkit.AttributeMetadata) (string, bool) {
	if meta, ok := attrs[slug]; ok {
		key, ok := collectionKeys[meta.Type]
		return key, ok
	}
	name := strings.ToLower(slug)
	switch {
	case strings.Contains(name, "email"):
		return collectionKeys[attrkit.AttributeTypeEmailAddress], true
	case strings.Contains(name, "domain"):
		return collectionKeys[attrkit.AttributeTypeDomain], true
	case strings.Contains(name, "phone"):
		return collectionKeys[attrkit.AttributeTypePhoneNumber], true
	}
	return "", false
}

// swapCollection converts []string <-> []{key: string}. Mixed or empty arrays have no alternate.
func swapCollection(value any, key string) (any, bool) {
	items, ok := asSlice(value)
	if !ok || len(items) == 0 {
		return nil, false
	}

	if _, isString := items[0].(string); isString {
		out := make([]map[string]any, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out[i] = map[string]any{key: s}
		}
		return out, true
	}

	out := make([]string, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		s, ok := collectionScalar(m, key)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

func collectionScalar(m map[string]any, key string) (string, bool) {
	if key == PhoneOriginalNumberKey {
		return stringField(m, PhoneOriginalNumberKey, PhoneNumberKey)
	}
	return stringField(m, key)
}
