package internal

import (
	"strings"

	"github.com/lychee-technology/attrkit"
)

// DefaultMaxListedOptions caps the option titles enumerated in an error message.
const DefaultMaxListedOptions = 15

type optionMatch string

const (
	optionMatchTitle     optionMatch = "title"
	optionMatchValue     optionMatch = "value"
	optionMatchID        optionMatch = "id"
	optionMatchSubstring optionMatch = "substring"
)

// matchOption finds the option a client value refers to. Tiers run as full
// passes so an exact hit anywhere beats a substring hit earlier in the list:
// title (case-sensitive, then folded), value, id, then substring of title when
// allowSubstring is set. Archived options only answer to their exact id.
func matchOption(options []attrkit.AttributeOption, raw string, allowSubstring bool) (attrkit.AttributeOption, optionMatch, bool) {
	trimmed := strings.TrimSpace(raw)
	folded := strings.ToLower(trimmed)
	if trimmed == "" {
		return attrkit.AttributeOption{}, "", false
	}

	for _, opt := range options {
		if !opt.IsArchived && strings.TrimSpace(opt.Title) == trimmed {
			return opt, optionMatchTitle, true
		}
	}
	for _, opt := range options {
		if !opt.IsArchived && strings.EqualFold(strings.TrimSpace(opt.Title), trimmed) {
			return opt, optionMatchTitle, true
		}
	}
	for _, opt := range options {
		if !opt.IsArchived && opt.Value != "" && strings.EqualFold(strings.TrimSpace(opt.Value), trimmed) {
			return opt, optionMatchValue, true
		}
	}
	for _, opt := range options {
		if opt.ID != "" && opt.ID == trimmed {
			return opt, optionMatchID, true
		}
	}
	if allowSubstring {
		for _, opt := range options {
			if !opt.IsArchived && opt.Title != "" && strings.Contains(strings.ToLower(opt.Title), folded) {
				return opt, optionMatchSubstring, true
			}
		}
	}
	return attrkit.AttributeOption{}, "", false
}

// newInvalidOptionError lists the non-archived titles (capped) and the closest one.
func newInvalidOptionError(field, value string, options []attrkit.AttributeOption, maxListed int) *attrkit.Error {
	if maxListed <= 0 {
		maxListed = DefaultMaxListedOptions
	}
	titles := activeTitles(options)
	listed, more := titles, 0
	if len(titles) > maxListed {
		listed, more = titles[:maxListed], len(titles)-maxListed
	}
	return attrkit.NewInvalidOptionError(field, value, listed, more, bestSuggestion(titles, value))
}
