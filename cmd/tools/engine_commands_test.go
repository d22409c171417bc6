package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lychee-technology/attrkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dealsSnapshot = `[
	{"slug": "name", "title": "Deal Name", "type": "text", "is_required": true},
	{"slug": "deal_type", "title": "Deal Type", "type": "select", "options": [
		{"id": "1", "title": "Demo"},
		{"id": "2", "title": "Enterprise Plan"},
		{"id": "3", "title": "Legacy", "is_archived": true}
	]},
	{"slug": "associated_company", "title": "Company", "type": "record-reference",
	 "relationship": {"target_object_slug": "companies"}}
]`

func newSchemaDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deals_attributes.json"), []byte(dealsSnapshot), 0o644))
	return dir
}

func TestRunTransformHelpFlag(t *testing.T) {
	assert.NoError(t, runTransform([]string{"-h"}, strings.NewReader(""), &bytes.Buffer{}))
}

func TestRunTransform(t *testing.T) {
	dir := newSchemaDir(t)
	var out bytes.Buffer

	err := runTransform([]string{"-schema-dir", dir, "-object", "deals"},
		strings.NewReader(`{"Deal Name": "Renewal", "deal type": "demo"}`), &out)
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, map[string]any{
		"name":      "Renewal",
		"deal_type": []any{"1"},
	}, report["attributes"])
	assert.NotContains(t, report, "errors")
}

func TestRunTransformReportsFieldErrors(t *testing.T) {
	dir := newSchemaDir(t)
	input := filepath.Join(t.TempDir(), "payload.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"name": "Kept", "deal_type": "Nope"}`), 0o644))
	var out bytes.Buffer

	err := runTransform([]string{"-schema-dir", dir, "-object", "deals", "-op", "update", "-in", input}, nil, &out)
	require.Error(t, err)
	assert.Equal(t, "1 attribute(s) failed", err.Error())

	var report transformReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, map[string]any{"name": "Kept"}, report.Attributes)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, attrkit.ErrCodeInvalidOption, report.Errors[0].Code)
	assert.Equal(t, "deal_type", report.Errors[0].Field)
}

func TestRunTransformArgumentErrors(t *testing.T) {
	err := runTransform([]string{}, strings.NewReader("{}"), &bytes.Buffer{})
	assert.EqualError(t, err, "-object is required")

	err = runTransform([]string{"-object", "deals", "-op", "upsert"}, strings.NewReader("{}"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-op must be create or update")

	err = runTransform([]string{"-object", "deals"}, strings.NewReader("not json"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse input JSON")
}

func TestRunFilters(t *testing.T) {
	dir := newSchemaDir(t)
	filters := `{"filters": [
		{"attribute": {"slug": "deal_type"}, "condition": "equals", "value": "Demo"},
		{"attribute": {"slug": "name"}, "condition": "contains", "value": "Ren"}
	]}`
	var out bytes.Buffer

	require.NoError(t, runFilters([]string{"-schema-dir", dir, "-object", "deals"}, strings.NewReader(filters), &out))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, map[string]any{
		"deal_type": map[string]any{"$equals": "Demo"},
		"name":      map[string]any{"$contains": "Ren"},
	}, doc)
}

func TestRunFiltersConditionValidation(t *testing.T) {
	dir := newSchemaDir(t)
	filters := `{"filters": [{"attribute": {"slug": "name"}, "condition": "sounds_like", "value": "x"}]}`

	err := runFilters([]string{"-schema-dir", dir, "-object", "deals"}, strings.NewReader(filters), &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, attrkit.ErrCodeInvalidCondition, attrkit.ErrorCode(err))

	var out bytes.Buffer
	require.NoError(t, runFilters([]string{"-schema-dir", dir, "-object", "deals", "-skip-condition-validation"},
		strings.NewReader(filters), &out))
	assert.Contains(t, out.String(), `"$sounds_like"`)
}

func TestRunInspectSchema(t *testing.T) {
	dir := newSchemaDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "companies_attributes.json"), []byte(`[{"slug": "domains", "type": "domain"}]`), 0o644))

	t.Run("object types", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runInspectSchema([]string{"-schema-dir", dir}, &out))
		assert.Equal(t, "companies\ndeals\n", out.String())
	})

	t.Run("attributes", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runInspectSchema([]string{"-schema-dir", dir, "-object", "deals"}, &out))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 4)
		assert.True(t, strings.HasPrefix(lines[0], "SLUG"))
		assert.Contains(t, lines[1], "required")
		assert.Contains(t, lines[2], "Demo, Enterprise Plan")
		assert.NotContains(t, lines[2], "Legacy")
		assert.Contains(t, lines[3], "->companies")
	})

	t.Run("unknown object", func(t *testing.T) {
		err := runInspectSchema([]string{"-schema-dir", dir, "-object", "people"}, &bytes.Buffer{})
		assert.ErrorIs(t, err, attrkit.ErrNotFound)
	})
}

func TestAttributeFlags(t *testing.T) {
	assert.Equal(t, "-", attributeFlags(attrkit.AttributeMetadata{}))
	assert.Equal(t, "required,multi", attributeFlags(attrkit.AttributeMetadata{IsRequired: true, IsMultiselect: true}))
	assert.Equal(t, "unique,->people", attributeFlags(attrkit.AttributeMetadata{
		IsUnique:     true,
		Relationship: &attrkit.Relationship{TargetObjectSlug: "people"},
	}))
}

func TestJoinLimited(t *testing.T) {
	assert.Equal(t, "-", joinLimited(nil, 5))
	assert.Equal(t, "a, b", joinLimited([]string{"a", "b"}, 5))
	assert.Equal(t, "a, b (+2 more)", joinLimited([]string{"a", "b", "c", "d"}, 2))
}
