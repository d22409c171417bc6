package internal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// objectSchema is a lazily resolved JSON schema for a structured attribute value.
type objectSchema struct {
	resolve func() (*jsonschema.Resolved, error)
}

func newObjectSchema(doc string) *objectSchema {
	return &objectSchema{resolve: sync.OnceValues(func() (*jsonschema.Resolved, error) {
		var schema jsonschema.Schema
		if err := json.Unmarshal([]byte(doc), &schema); err != nil {
			return nil, fmt.Errorf("failed to unmarshal into jsonschema.Schema: %w", err)
		}
		resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve JSON schema: %w", err)
		}
		return resolved, nil
	})}
}

func (s *objectSchema) validate(instance map[string]any) error {
	resolved, err := s.resolve()
	if err != nil {
		return err
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("JSON validation failed: %w", err)
	}
	return nil
}

var personalNameSchema = newObjectSchema(`{
  "type": "object",
  "properties": {
    "first_name": {"type": "string"},
    "last_name":  {"type": "string"},
    "full_name":  {"type": "string"}
  },
  "anyOf": [
    {"required": ["first_name"]},
    {"required": ["last_name"]},
    {"required": ["full_name"]}
  ]
}`)

var phoneNumberSchema = newObjectSchema(`{
  "type": "object",
  "properties": {
    "phoneNumber":         {"type": "string", "minLength": 1},
    "originalPhoneNumber": {"type": "string", "minLength": 1},
    "countryCode":         {"type": ["string", "null"]}
  },
  "anyOf": [
    {"required": ["phoneNumber"]},
    {"required": ["originalPhoneNumber"]}
  ]
}`)
