package internal

import (
	"context"
	"slices"
	"strings"

	"github.com/lychee-technology/attrkit"
	"go.uber.org/zap"
)

const optionKeySep = "\x00"

// OptionCache caches live choice options per (object type, attribute slug).
type OptionCache struct {
	source attrkit.OptionSource
	cache  flightCache[attrkit.OptionSet]
}

// NewOptionCache creates an option cache in front of source.
func NewOptionCache(source attrkit.OptionSource) *OptionCache {
	return &OptionCache{source: source}
}

// GetOptions returns the options of one attribute. A failed fetch yields an empty set.
func (c *OptionCache) GetOptions(ctx context.Context, objectType, attributeSlug string) attrkit.OptionSet {
	key := optionKey(objectType, attributeSlug)
	set, hit := c.cache.get(key, func() attrkit.OptionSet {
		return c.fetch(context.WithoutCancel(ctx), objectType, attributeSlug)
	})
	EmitCacheLookup(ctx, "options", objectType, hit)
	return attrkit.OptionSet{
		Options:       slices.Clone(set.Options),
		AttributeType: set.AttributeType,
	}
}

// GetValidOptionTitles returns the titles of non-archived options, in source order.
func (c *OptionCache) GetValidOptionTitles(ctx context.Context, objectType, attributeSlug string) []string {
	return activeTitles(c.GetOptions(ctx, objectType, attributeSlug).Options)
}

// Invalidate clears cached options of the given object types, or everything when none are given.
func (c *OptionCache) Invalidate(objectTypes ...string) {
	if len(objectTypes) == 0 {
		c.cache.clear()
		return
	}
	c.cache.invalidateMatching(func(key string) bool {
		for _, objectType := range objectTypes {
			if strings.HasPrefix(key, objectType+optionKeySep) {
				return true
			}
		}
		return false
	})
}

func (c *OptionCache) fetch(ctx context.Context, objectType, attributeSlug string) attrkit.OptionSet {
	if c.source == nil {
		zap.S().Warnw("option source is not configured; continuing without options",
			"object_type", objectType, "attribute", attributeSlug)
		return attrkit.OptionSet{}
	}

	set, err := c.source.FetchOptions(ctx, objectType, attributeSlug)
	if err != nil {
		zap.S().Warnw("option fetch failed; continuing without options",
			"object_type", objectType, "attribute", attributeSlug, "error", err)
		EmitFetchFailure(ctx, "options", objectType)
		return attrkit.OptionSet{}
	}

	set.Options = slices.Clone(set.Options)
	zap.S().Debugw("cached attribute options", "object_type", objectType, "attribute", attributeSlug, "options", len(set.Options))
	return set
}

func optionKey(objectType, attributeSlug string) string {
	return objectType + optionKeySep + attributeSlug
}

func activeTitles(options []attrkit.AttributeOption) []string {
	titles := make([]string, 0, len(options))
	for _, opt := range options {
		if !opt.IsArchived && opt.Title != "" {
			titles = append(titles, opt.Title)
		}
	}
	return titles
}
