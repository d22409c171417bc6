package internal

import (
	"context"
	"maps"
	"slices"

	"github.com/lychee-technology/attrkit"
	"go.uber.org/zap"
)

// schemaEntry is the immutable cached schema of one object type.
type schemaEntry struct {
	ordered []attrkit.AttributeMetadata
	bySlug  map[string]attrkit.AttributeMetadata
}

// SchemaMetadataCache centralizes schema metadata lookup and caching so
// resolvers, transformers and the filter pipeline share one fetch per object type.
type SchemaMetadataCache struct {
	source attrkit.SchemaSource
	cache  flightCache[*schemaEntry]
}

// NewSchemaMetadataCache creates a cache in front of source.
func NewSchemaMetadataCache(source attrkit.SchemaSource) *SchemaMetadataCache {
	return &SchemaMetadataCache{source: source}
}

// GetAttributes returns slug -> metadata for objectType. A failed fetch yields
// an empty map, which callers treat as "pass values through unchanged".
func (c *SchemaMetadataCache) GetAttributes(ctx context.Context, objectType string) map[string]attrkit.AttributeMetadata {
	return maps.Clone(c.entry(ctx, objectType).bySlug)
}

// List returns the schema of objectType in source order.
func (c *SchemaMetadataCache) List(ctx context.Context, objectType string) []attrkit.AttributeMetadata {
	return slices.Clone(c.entry(ctx, objectType).ordered)
}

// Lookup returns the metadata of one attribute.
func (c *SchemaMetadataCache) Lookup(ctx context.Context, objectType, slug string) (attrkit.AttributeMetadata, bool) {
	meta, ok := c.entry(ctx, objectType).bySlug[slug]
	return meta, ok
}

// Invalidate clears the given object types, or every object type when none are given.
func (c *SchemaMetadataCache) Invalidate(objectTypes ...string) {
	if len(objectTypes) == 0 {
		c.cache.clear()
		return
	}
	c.cache.invalidate(objectTypes...)
}

func (c *SchemaMetadataCache) entry(ctx context.Context, objectType string) *schemaEntry {
	entry, hit := c.cache.get(objectType, func() *schemaEntry {
		// the result is shared by every caller, so one caller's cancellation must not end the fetch
		return c.fetch(context.WithoutCancel(ctx), objectType)
	})
	EmitCacheLookup(ctx, "schema", objectType, hit)
	return entry
}

func (c *SchemaMetadataCache) fetch(ctx context.Context, objectType string) *schemaEntry {
	entry := &schemaEntry{bySlug: map[string]attrkit.AttributeMetadata{}}
	if c.source == nil {
		zap.S().Warnw("schema source is not configured; continuing without metadata", "object_type", objectType)
		return entry
	}

	attrs, err := c.source.FetchAttributes(ctx, objectType)
	if err != nil {
		zap.S().Warnw("schema fetch failed; continuing without metadata", "object_type", objectType, "error", err)
		EmitFetchFailure(ctx, "schema", objectType)
		return entry
	}

	entry.ordered = make([]attrkit.AttributeMetadata, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Slug == "" {
			zap.S().Debugw("skipping schema attribute without slug", "object_type", objectType, "title", attr.Title)
			continue
		}
		if attr.Relationship != nil {
			rel := *attr.Relationship
			attr.Relationship = &rel
		}
		entry.ordered = append(entry.ordered, attr)
		if _, dup := entry.bySlug[attr.Slug]; !dup {
			entry.bySlug[attr.Slug] = attr
		}
	}

	zap.S().Debugw("cached schema metadata", "object_type", objectType, "attributes", len(entry.ordered))
	return entry
}
