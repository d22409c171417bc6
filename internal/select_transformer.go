package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/lychee-technology/attrkit"
	"go.uber.org/zap"
)

// selectTransformer turns an option label into the [optionId] array a single-select expects.
type selectTransformer struct {
	options   *OptionCache
	maxListed int
}

func (t *selectTransformer) Transform(ctx context.Context, value any, attributeName string, tc attrkit.TransformContext, meta attrkit.AttributeMetadata) (attrkit.TransformResult, error) {
	if meta.Type != attrkit.AttributeTypeSelect {
		return untransformed(value, "not a select attribute"), nil
	}
	if meta.IsMultiselect {
		return untransformed(value, "multi-select values are handled by the multi-select transformer"), nil
	}
	raw, ok := value.(string)
	if !ok {
		// arrays are already in wire shape; nulls clear the field
		return untransformed(value, ""), nil
	}

	if isUUID(raw) {
		return transformed([]string{strings.TrimSpace(raw)}, "option id wrapped as array"), nil
	}

	set := t.options.GetOptions(ctx, tc.ResourceType, meta.Slug)
	if len(set.Options) == 0 {
		zap.S().Debugw("no options available; passing select value through",
			"object_type", tc.ResourceType, "attribute", meta.Slug)
		return untransformed(value, "options unavailable"), nil
	}

	opt, how, ok := matchOption(set.Options, raw, true)
	if !ok {
		return failClosed(value, newInvalidOptionError(attributeName, raw, set.Options, t.maxListed))
	}
	return transformed([]string{opt.ID}, fmt.Sprintf("%q resolved to option %q by %s", raw, opt.Title, how)), nil
}

// multiSelectTransformer resolves each element of a multi-select value to its option id.
type multiSelectTransformer struct {
	options   *OptionCache
	maxListed int
}

func (t *multiSelectTransformer) Transform(ctx context.Context, value any, attributeName string, tc attrkit.TransformContext, meta attrkit.AttributeMetadata) (attrkit.TransformResult, error) {
	if meta.Type != attrkit.AttributeTypeSelect || !meta.IsMultiselect {
		return untransformed(value, "not a multi-select attribute"), nil
	}

	var labels []string
	switch v := value.(type) {
	case string:
		labels = []string{v}
	default:
		items, ok := asSlice(value)
		if !ok {
			return untransformed(value, ""), nil
		}
		labels = make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return untransformed(value, "multi-select array contains non-string elements"), nil
			}
			labels = append(labels, s)
		}
	}

	allIDs := len(labels) > 0
	for _, label := range labels {
		if !isUUID(label) {
			allIDs = false
			break
		}
	}
	if allIDs {
		if _, isString := value.(string); isString {
			return transformed([]string{strings.TrimSpace(labels[0])}, "option id wrapped as array"), nil
		}
		return untransformed(value, "already option ids"), nil
	}

	set := t.options.GetOptions(ctx, tc.ResourceType, meta.Slug)
	if len(set.Options) == 0 {
		return untransformed(value, "options unavailable"), nil
	}

	if _, isString := value.(string); !isString && allLiveOptionIDs(set.Options, labels) {
		return untransformed(value, "already option ids"), nil
	}

	ids := make([]string, 0, len(labels))
	for _, label := range labels {
		if isUUID(label) {
			ids = append(ids, strings.TrimSpace(label))
			continue
		}
		opt, _, ok := matchOption(set.Options, label, true)
		if !ok {
			return failClosed(value, newInvalidOptionError(attributeName, label, set.Options, t.maxListed))
		}
		ids = append(ids, opt.ID)
	}
	return transformed(ids, fmt.Sprintf("%d labels resolved to option ids", len(ids))), nil
}

// allLiveOptionIDs reports whether every label is exactly the id of a non-archived option.
func allLiveOptionIDs(options []attrkit.AttributeOption, labels []string) bool {
	if len(labels) == 0 {
		return false
	}
	live := make(map[string]bool, len(options))
	for _, opt := range options {
		if !opt.IsArchived {
			live[opt.ID] = true
		}
	}
	for _, label := range labels {
		if !live[label] {
			return false
		}
	}
	return true
}
