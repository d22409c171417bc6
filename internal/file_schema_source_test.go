package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lychee-technology/attrkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dealsSnapshot = `[
	{"slug": "name", "title": "Deal Name", "type": "text", "is_required": true},
	{"slug": "deal_type", "title": "Deal Type", "type": "select", "options": [
		{"id": "1", "title": "Demo"},
		{"id": "2", "title": "Enterprise Plan"}
	]}
]`

func writeSnapshot(t *testing.T, dir, objectType, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, objectType+AttributesFileSuffix), []byte(content), 0o644))
}

func TestFileSchemaSource(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "deals", dealsSnapshot)
	writeSnapshot(t, dir, "companies", `{"domains": {"type": "domain"}}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"+AttributesFileSuffix), 0o755))

	source := NewFileSchemaSource(dir)
	ctx := context.Background()

	t.Run("attributes", func(t *testing.T) {
		attrs, err := source.FetchAttributes(ctx, "deals")
		require.NoError(t, err)
		require.Len(t, attrs, 2)
		assert.Equal(t, "name", attrs[0].Slug)
		assert.True(t, attrs[0].IsRequired)
	})

	t.Run("options", func(t *testing.T) {
		set, err := source.FetchOptions(ctx, "deals", "deal_type")
		require.NoError(t, err)
		assert.Equal(t, attrkit.AttributeTypeSelect, set.AttributeType)
		assert.Equal(t, []string{"Demo", "Enterprise Plan"}, activeTitles(set.Options))
	})

	t.Run("options of an attribute without any", func(t *testing.T) {
		set, err := source.FetchOptions(ctx, "deals", "name")
		require.NoError(t, err)
		assert.Empty(t, set.Options)
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := source.FetchOptions(ctx, "deals", "nope")
		assert.ErrorIs(t, err, attrkit.ErrNotFound)
	})

	t.Run("missing object type", func(t *testing.T) {
		_, err := source.FetchAttributes(ctx, "people")
		assert.ErrorIs(t, err, attrkit.ErrNotFound)
	})

	t.Run("path traversal rejected", func(t *testing.T) {
		for _, objectType := range []string{"../deals", "a/b", `a\b`, " "} {
			_, err := source.FetchAttributes(ctx, objectType)
			require.Error(t, err, objectType)
			assert.False(t, errors.Is(err, attrkit.ErrNotFound), objectType)
		}
	})

	t.Run("object types", func(t *testing.T) {
		types, err := source.ObjectTypes()
		require.NoError(t, err)
		assert.Equal(t, []string{"companies", "deals"}, types)
	})
}

func TestFileSchemaSource_MalformedSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "deals", `{"name": "not an object"}`)

	_, err := NewFileSchemaSource(dir).FetchAttributes(context.Background(), "deals")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not an object")
}

func TestFileSchemaSource_MissingDirectory(t *testing.T) {
	_, err := NewFileSchemaSource(filepath.Join(t.TempDir(), "absent")).ObjectTypes()
	assert.Error(t, err)
}

func TestFileSchemaSource_ThroughEngine(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "deals", dealsSnapshot)

	engine := NewEngine(attrkit.DefaultConfig(), NewFileSchemaSource(dir), nil)
	out, err := engine.ResolveAndTransform(context.Background(), "deals", attrkit.OperationCreate, map[string]any{
		"deal name": "Renewal",
		"deal_type": "enterprise",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Renewal", "deal_type": []string{"2"}}, out.Attributes)
}

func TestIsAttributesFile(t *testing.T) {
	assert.True(t, isAttributesFile("deals_attributes.json"))
	assert.False(t, isAttributesFile("_attributes.json"))
	assert.False(t, isAttributesFile("deals.json"))
}
