package internal

import (
	"strings"

	"github.com/lychee-technology/attrkit"
)

// ResolveAttributeName finds the schema attribute a client-supplied name refers to.
// Tiers are tried in order (exact, partial, typo) and the first tier with a hit wins;
// within a tier schema order breaks ties. Entries without a slug are skipped.
func ResolveAttributeName(query string, schema []attrkit.AttributeMetadata) attrkit.ResolutionResult {
	q := normalizeName(query)
	none := attrkit.ResolutionResult{MatchType: attrkit.MatchNone}
	if q == "" || len(schema) == 0 {
		return none
	}

	for _, attr := range schema {
		if attr.Slug == "" {
			continue
		}
		for _, name := range candidateNames(attr) {
			if name == q {
				return attrkit.ResolutionResult{Slug: attr.Slug, MatchType: attrkit.MatchExact}
			}
		}
	}

	for _, attr := range schema {
		if attr.Slug == "" {
			continue
		}
		for _, name := range candidateNames(attr) {
			if strings.Contains(name, q) || strings.Contains(q, name) {
				return attrkit.ResolutionResult{Slug: attr.Slug, MatchType: attrkit.MatchPartial}
			}
		}
	}

	best := none
	bestDistance := MaxTypoDistance + 1
	for _, attr := range schema {
		if attr.Slug == "" {
			continue
		}
		for _, name := range candidateNames(attr) {
			if d := Distance(name, q); d < bestDistance {
				bestDistance = d
				best = attrkit.ResolutionResult{Slug: attr.Slug, MatchType: attrkit.MatchTypo, Distance: d}
			}
		}
	}
	return best
}

// SimilarAttributes returns up to maxResults slugs worth suggesting for an
// unresolvable name. Partial matches come before distance matches.
func SimilarAttributes(query string, schema []attrkit.AttributeMetadata, maxResults int) []string {
	q := normalizeName(query)
	if q == "" || maxResults <= 0 {
		return []string{}
	}

	seen := make(map[string]struct{})
	suggestions := make([]string, 0, maxResults)
	add := func(slug string) bool {
		if _, dup := seen[slug]; dup {
			return len(suggestions) < maxResults
		}
		seen[slug] = struct{}{}
		suggestions = append(suggestions, slug)
		return len(suggestions) < maxResults
	}

	for _, attr := range schema {
		if attr.Slug == "" {
			continue
		}
		for _, name := range candidateNames(attr) {
			if strings.Contains(name, q) || strings.Contains(q, name) {
				if !add(attr.Slug) {
					return suggestions
				}
				break
			}
		}
	}

	names := make([]string, 0, len(schema)*2)
	owners := make(map[string]string, len(schema)*2)
	for _, attr := range schema {
		if attr.Slug == "" {
			continue
		}
		for _, name := range candidateNames(attr) {
			if _, ok := owners[name]; !ok {
				owners[name] = attr.Slug
				names = append(names, name)
			}
		}
	}
	for _, name := range FindSimilar(names, q, SimilarOptions{MaxDistance: MaxSuggestionDistance, MaxResults: len(names)}) {
		if !add(owners[name]) {
			break
		}
	}

	return suggestions
}

// candidateNames returns the normalized, non-empty names an attribute answers to.
func candidateNames(attr attrkit.AttributeMetadata) []string {
	names := make([]string, 0, 2)
	if slug := normalizeName(attr.Slug); slug != "" {
		names = append(names, slug)
	}
	if title := normalizeName(attr.Title); title != "" && (len(names) == 0 || title != names[0]) {
		names = append(names, title)
	}
	return names
}
