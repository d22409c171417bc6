package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/attrkit"
	"github.com/lychee-technology/attrkit/internal"
	"go.uber.org/zap"
)

// JSON Schema keywords understood on top of the standard vocabulary.
const (
	keywordAttributeType = "x-attribute-type"
	keywordTargetObject  = "x-target-object"
	keywordUnique        = "x-unique"
)

type snapshotRelationship struct {
	TargetObjectSlug string `json:"target_object_slug"`
}

type snapshotOption struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Value      string `json:"value,omitempty"`
	IsArchived bool   `json:"is_archived,omitempty"`
}

// snapshotAttribute is one entry of the array layout of an attribute snapshot document.
type snapshotAttribute struct {
	Slug          string                `json:"slug"`
	Title         string                `json:"title,omitempty"`
	Type          attrkit.AttributeType `json:"type"`
	IsRequired    bool                  `json:"is_required,omitempty"`
	IsUnique      bool                  `json:"is_unique,omitempty"`
	IsMultiselect bool                  `json:"is_multiselect,omitempty"`
	Relationship  *snapshotRelationship `json:"relationship,omitempty"`
	Options       []snapshotOption      `json:"options,omitempty"`
}

type snapshotStats struct {
	total           int
	newAttributes   int
	newOptions      int
	archivedOptions int
}

func runGenerateSnapshot(args []string) error {
	flags := newFlagSet("generate-snapshot", "generate-snapshot -schema-file <object>.json [-object <type>] [-out file]")
	schemaFile := flags.String("schema-file", "", "Path to the JSON schema of the object (required)")
	objectType := flags.String("object", "", "Object type (defaults to the schema file name)")
	schemaDir := flags.String("schema-dir", getenvDefault("SCHEMA_DIR", "schemas"), "Directory the snapshot is written to")
	outputFile := flags.String("out", "", "Path of the snapshot to write (overrides -schema-dir)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *schemaFile == "" {
		return fmt.Errorf("-schema-file is required")
	}

	if *objectType == "" {
		*objectType = strings.TrimSuffix(filepath.Base(*schemaFile), filepath.Ext(*schemaFile))
	}
	outputPath := *outputFile
	if outputPath == "" {
		outputPath = filepath.Join(*schemaDir, *objectType+internal.AttributesFileSuffix)
	}

	stats, err := generateSnapshot(*schemaFile, outputPath)
	if err != nil {
		return err
	}
	zap.S().Infow("Generated snapshot",
		"object_type", *objectType,
		"output", outputPath,
		"total", stats.total,
		"new_attributes", stats.newAttributes,
		"new_options", stats.newOptions,
		"archived_options", stats.archivedOptions)
	return nil
}

// generateSnapshot derives attributes from the schema at schemaPath and merges them into
// the snapshot at outputPath. Existing attributes are kept even when the schema no longer
// lists them; existing options keep their ids and options dropped from an enum are archived.
func generateSnapshot(schemaPath, outputPath string) (snapshotStats, error) {
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return snapshotStats{}, fmt.Errorf("read schema file: %w", err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return snapshotStats{}, fmt.Errorf("parse schema JSON: %w", err)
	}
	if _, err := schema.Resolve(&jsonschema.ResolveOptions{}); err != nil {
		return snapshotStats{}, fmt.Errorf("resolve schema: %w", err)
	}

	generated, err := attributesFromSchema(&schema)
	if err != nil {
		return snapshotStats{}, err
	}
	existing, err := loadExistingSnapshot(outputPath)
	if err != nil {
		return snapshotStats{}, fmt.Errorf("load existing snapshot: %w", err)
	}

	merged, stats := mergeSnapshot(existing, generated)
	if err := writeSnapshot(outputPath, merged); err != nil {
		return snapshotStats{}, err
	}
	return stats, nil
}

// attributesFromSchema maps the top-level properties of an object schema to attributes, sorted by slug.
func attributesFromSchema(schema *jsonschema.Schema) ([]snapshotAttribute, error) {
	if len(schema.Properties) == 0 {
		return nil, fmt.Errorf("schema has no properties")
	}
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	slugs := make([]string, 0, len(schema.Properties))
	for slug := range schema.Properties {
		slugs = append(slugs, slug)
	}
	slices.Sort(slugs)

	attrs := make([]snapshotAttribute, 0, len(slugs))
	for _, slug := range slugs {
		prop, err := dereference(schema, schema.Properties[slug])
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", slug, err)
		}
		attr := snapshotAttribute{Slug: slug, Title: prop.Title, IsRequired: required[slug]}
		if unique, ok := prop.Extra[keywordUnique].(bool); ok {
			attr.IsUnique = unique
		}

		value := prop
		if schemaType(prop) == "array" && prop.Items != nil {
			if value, err = dereference(schema, prop.Items); err != nil {
				return nil, fmt.Errorf("property %s items: %w", slug, err)
			}
			attr.IsMultiselect = true
		}
		attr.Type = attributeTypeOf(prop, value)
		if !attr.Type.IsChoice() && attr.Type != attrkit.AttributeTypeRecordReference {
			attr.IsMultiselect = false
		}

		if attr.Type.IsChoice() {
			for _, v := range value.Enum {
				if title, ok := v.(string); ok {
					attr.Options = append(attr.Options, snapshotOption{Title: title})
				}
			}
		}
		if attr.Type == attrkit.AttributeTypeRecordReference {
			target, _ := prop.Extra[keywordTargetObject].(string)
			if target == "" {
				target, _ = value.Extra[keywordTargetObject].(string)
			}
			if target != "" {
				attr.Relationship = &snapshotRelationship{TargetObjectSlug: target}
			}
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// dereference follows a local "#/$defs/..." or "#/definitions/..." reference.
func dereference(root, s *jsonschema.Schema) (*jsonschema.Schema, error) {
	for range 8 {
		if s.Ref == "" {
			return s, nil
		}
		var (
			defs map[string]*jsonschema.Schema
			name string
		)
		switch {
		case strings.HasPrefix(s.Ref, "#/$defs/"):
			defs, name = root.Defs, strings.TrimPrefix(s.Ref, "#/$defs/")
		case strings.HasPrefix(s.Ref, "#/definitions/"):
			defs, name = root.Definitions, strings.TrimPrefix(s.Ref, "#/definitions/")
		default:
			return nil, fmt.Errorf("unsupported $ref %q", s.Ref)
		}
		target, ok := defs[name]
		if !ok {
			return nil, fmt.Errorf("unresolved $ref %q", s.Ref)
		}
		s = target
	}
	return nil, fmt.Errorf("$ref chain too deep at %q", s.Ref)
}

func schemaType(s *jsonschema.Schema) string {
	if s.Type != "" {
		return s.Type
	}
	for _, t := range s.Types {
		if t != "null" {
			return t
		}
	}
	return ""
}

// attributeTypeOf picks the attribute type of a property; value is the property
// itself or, for arrays, its item schema.
func attributeTypeOf(prop, value *jsonschema.Schema) attrkit.AttributeType {
	for _, s := range []*jsonschema.Schema{prop, value} {
		if explicit, ok := s.Extra[keywordAttributeType].(string); ok && explicit != "" {
			return attrkit.AttributeType(explicit)
		}
	}
	if _, ok := prop.Extra[keywordTargetObject]; ok {
		return attrkit.AttributeTypeRecordReference
	}

	switch schemaType(value) {
	case "string":
		if len(value.Enum) > 0 {
			return attrkit.AttributeTypeSelect
		}
		switch value.Format {
		case "date":
			return attrkit.AttributeTypeDate
		case "date-time":
			return attrkit.AttributeTypeTimestamp
		case "email", "idn-email":
			return attrkit.AttributeTypeEmailAddress
		case "hostname", "idn-hostname":
			return attrkit.AttributeTypeDomain
		}
		return attrkit.AttributeTypeText
	case "integer", "number":
		return attrkit.AttributeTypeNumber
	case "boolean":
		return attrkit.AttributeTypeBoolean
	default:
		return attrkit.AttributeTypeText
	}
}

func loadExistingSnapshot(path string) ([]snapshotAttribute, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read existing snapshot: %w", err)
	}
	var attrs []snapshotAttribute
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("parse existing snapshot %s: %w", path, err)
	}
	return attrs, nil
}

// mergeSnapshot keeps existing attributes in place and appends new ones in generated order.
func mergeSnapshot(existing, generated []snapshotAttribute) ([]snapshotAttribute, snapshotStats) {
	var stats snapshotStats
	bySlug := make(map[string]snapshotAttribute, len(generated))
	for _, attr := range generated {
		bySlug[attr.Slug] = attr
	}

	merged := make([]snapshotAttribute, 0, len(existing)+len(generated))
	seen := make(map[string]bool, len(existing))
	for _, old := range existing {
		seen[old.Slug] = true
		gen, ok := bySlug[old.Slug]
		if !ok {
			merged = append(merged, old)
			continue
		}
		gen.Options = mergeOptions(old.Options, gen.Options, &stats)
		if gen.Title == "" {
			gen.Title = old.Title
		}
		if gen.Relationship == nil {
			gen.Relationship = old.Relationship
		}
		merged = append(merged, gen)
	}
	for _, gen := range generated {
		if seen[gen.Slug] {
			continue
		}
		stats.newAttributes++
		gen.Options = mergeOptions(nil, gen.Options, &stats)
		merged = append(merged, gen)
	}
	stats.total = len(merged)
	return merged, stats
}

// mergeOptions keeps the ids of known titles, archives titles no longer generated and
// numbers new options after the highest numeric id in use.
func mergeOptions(existing, generated []snapshotOption, stats *snapshotStats) []snapshotOption {
	if len(existing) == 0 && len(generated) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(generated))
	for _, opt := range generated {
		wanted[opt.Title] = true
	}

	maxID := 0
	known := make(map[string]bool, len(existing))
	result := make([]snapshotOption, 0, len(existing)+len(generated))
	for _, opt := range existing {
		if id, err := strconv.Atoi(opt.ID); err == nil && id > maxID {
			maxID = id
		}
		known[opt.Title] = true
		if !wanted[opt.Title] && !opt.IsArchived {
			opt.IsArchived = true
			stats.archivedOptions++
		} else if wanted[opt.Title] {
			opt.IsArchived = false
		}
		result = append(result, opt)
	}
	for _, opt := range generated {
		if known[opt.Title] {
			continue
		}
		maxID++
		opt.ID = strconv.Itoa(maxID)
		result = append(result, opt)
		stats.newOptions++
	}
	return result
}

func writeSnapshot(path string, attrs []snapshotAttribute) error {
	encoded, err := json.MarshalIndent(attrs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}
