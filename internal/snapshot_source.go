package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/lychee-technology/attrkit"
)

// AttributesFileSuffix names attribute snapshot documents: <objectType>_attributes.json.
const AttributesFileSuffix = "_attributes.json"

// documentLoader returns the raw snapshot of one object type and a readable source name.
type documentLoader func(ctx context.Context, objectType string) (data []byte, source string, err error)

// snapshotSource serves schema and options out of attribute snapshot documents.
type snapshotSource struct {
	load documentLoader
}

func (s snapshotSource) records(ctx context.Context, objectType string) ([]attributeRecord, error) {
	if err := validateObjectType(objectType); err != nil {
		return nil, err
	}
	data, source, err := s.load(ctx, objectType)
	if err != nil {
		return nil, err
	}
	return parseAttributeDocument(data, source)
}

// FetchAttributes implements attrkit.SchemaSource.
func (s snapshotSource) FetchAttributes(ctx context.Context, objectType string) ([]attrkit.AttributeMetadata, error) {
	records, err := s.records(ctx, objectType)
	if err != nil {
		return nil, err
	}
	attrs := make([]attrkit.AttributeMetadata, len(records))
	for i, rec := range records {
		attrs[i] = rec.meta
	}
	return attrs, nil
}

// FetchOptions implements attrkit.OptionSource.
func (s snapshotSource) FetchOptions(ctx context.Context, objectType, attributeSlug string) (attrkit.OptionSet, error) {
	records, err := s.records(ctx, objectType)
	if err != nil {
		return attrkit.OptionSet{}, err
	}
	for _, rec := range records {
		if rec.meta.Slug == attributeSlug {
			return attrkit.OptionSet{Options: rec.options, AttributeType: rec.meta.Type}, nil
		}
	}
	return attrkit.OptionSet{}, fmt.Errorf("%w: attribute %s of %s", attrkit.ErrNotFound, attributeSlug, objectType)
}

func validateObjectType(objectType string) error {
	if strings.TrimSpace(objectType) == "" {
		return fmt.Errorf("object type is empty")
	}
	if strings.ContainsAny(objectType, `/\`) || strings.Contains(objectType, "..") {
		return fmt.Errorf("invalid object type %q", objectType)
	}
	return nil
}
