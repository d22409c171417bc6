package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lychee-technology/attrkit"
	"github.com/lychee-technology/attrkit/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dealJSONSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string", "title": "Deal Name"},
		"stage": {"$ref": "#/$defs/stage"},
		"tags": {"type": "array", "items": {"type": "string", "enum": ["Hot", "Inbound"]}},
		"value": {"type": ["number", "null"], "x-attribute-type": "currency"},
		"close_date": {"type": "string", "format": "date"},
		"is_won": {"type": "boolean"},
		"contact_email": {"type": "string", "format": "email", "x-unique": true},
		"associated_company": {"type": "string", "x-target-object": "companies"}
	},
	"$defs": {
		"stage": {"type": "string", "enum": ["Lead", "Won"], "x-attribute-type": "status"}
	}
}`

func writeJSONSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deals.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunGenerateSnapshotHelpFlag(t *testing.T) {
	assert.NoError(t, runGenerateSnapshot([]string{"-h"}))
}

func TestRunGenerateSnapshotMissingSchema(t *testing.T) {
	err := runGenerateSnapshot([]string{"-out", filepath.Join(t.TempDir(), "out.json")})
	assert.EqualError(t, err, "-schema-file is required")
}

func TestRunGenerateSnapshot(t *testing.T) {
	schemaPath := writeJSONSchema(t, dealJSONSchema)
	outDir := t.TempDir()

	require.NoError(t, runGenerateSnapshot([]string{"-schema-file", schemaPath, "-schema-dir", outDir}))

	source := internal.NewFileSchemaSource(outDir)
	ctx := context.Background()
	attrs, err := source.FetchAttributes(ctx, "deals")
	require.NoError(t, err)

	byslug := make(map[string]attrkit.AttributeMetadata, len(attrs))
	slugs := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		byslug[attr.Slug] = attr
		slugs = append(slugs, attr.Slug)
	}
	assert.Equal(t, []string{"associated_company", "close_date", "contact_email", "is_won", "name", "stage", "tags", "value"}, slugs)

	assert.True(t, byslug["name"].IsRequired)
	assert.Equal(t, "Deal Name", byslug["name"].Title)
	assert.Equal(t, attrkit.AttributeTypeStatus, byslug["stage"].Type)
	assert.Equal(t, attrkit.AttributeTypeSelect, byslug["tags"].Type)
	assert.True(t, byslug["tags"].IsMultiselect)
	assert.Equal(t, attrkit.AttributeTypeCurrency, byslug["value"].Type)
	assert.Equal(t, attrkit.AttributeTypeDate, byslug["close_date"].Type)
	assert.Equal(t, attrkit.AttributeTypeBoolean, byslug["is_won"].Type)
	assert.Equal(t, attrkit.AttributeTypeEmailAddress, byslug["contact_email"].Type)
	assert.True(t, byslug["contact_email"].IsUnique)
	assert.Equal(t, attrkit.AttributeTypeRecordReference, byslug["associated_company"].Type)
	require.NotNil(t, byslug["associated_company"].Relationship)
	assert.Equal(t, "companies", byslug["associated_company"].Relationship.TargetObjectSlug)

	set, err := source.FetchOptions(ctx, "deals", "stage")
	require.NoError(t, err)
	require.Len(t, set.Options, 2)
	assert.Equal(t, attrkit.AttributeOption{ID: "1", Title: "Lead"}, set.Options[0])
	assert.Equal(t, attrkit.AttributeOption{ID: "2", Title: "Won"}, set.Options[1])
}

func TestGenerateSnapshotMergesExisting(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "deals_attributes.json")
	existing := `[
		{"slug": "legacy_score", "title": "Score", "type": "number"},
		{"slug": "stage", "title": "Pipeline Stage", "type": "status", "options": [
			{"id": "7", "title": "Won"},
			{"id": "9", "title": "Churned"}
		]}
	]`
	require.NoError(t, os.WriteFile(outPath, []byte(existing), 0o644))

	schema := `{"type": "object", "properties": {
		"stage": {"type": "string", "enum": ["Lead", "Won"], "x-attribute-type": "status"},
		"name": {"type": "string"}
	}}`
	stats, err := generateSnapshot(writeJSONSchema(t, schema), outPath)
	require.NoError(t, err)
	assert.Equal(t, snapshotStats{total: 3, newAttributes: 1, newOptions: 1, archivedOptions: 1}, stats)

	attrs, err := loadExistingSnapshot(outPath)
	require.NoError(t, err)
	require.Len(t, attrs, 3)
	assert.Equal(t, "legacy_score", attrs[0].Slug, "attributes missing from the schema are kept")
	assert.Equal(t, "stage", attrs[1].Slug)
	assert.Equal(t, "Pipeline Stage", attrs[1].Title, "an existing title survives when the schema has none")
	assert.Equal(t, []snapshotOption{
		{ID: "7", Title: "Won"},
		{ID: "9", Title: "Churned", IsArchived: true},
		{ID: "10", Title: "Lead"},
	}, attrs[1].Options)
	assert.Equal(t, "name", attrs[2].Slug)
	assert.Equal(t, attrkit.AttributeTypeText, attrs[2].Type)
}

func TestGenerateSnapshotErrors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")

	_, err := generateSnapshot(filepath.Join(t.TempDir(), "missing.json"), out)
	assert.ErrorContains(t, err, "read schema file")

	_, err = generateSnapshot(writeJSONSchema(t, `{"type": "object"}`), out)
	assert.ErrorContains(t, err, "schema has no properties")

	_, err = generateSnapshot(writeJSONSchema(t, `{"type": "object", "properties": {"a": {"$ref": "http://example.com/a.json"}}}`), out)
	assert.Error(t, err)
}
