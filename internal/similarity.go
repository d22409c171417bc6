package internal

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Thresholds shared by every suggestion and resolution path.
const (
	MinSimilarityScore    = 0.6
	MaxTypoDistance       = 2
	MaxSuggestionDistance = 3
)

// Distance returns the Levenshtein edit distance between a and b (unit costs, case-sensitive).
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity returns 1 - distance/max(len(a), len(b)), in [0, 1].
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 1.0
	}
	if la == 0 || lb == 0 {
		return 0.0
	}
	return 1.0 - float64(Distance(a, b))/float64(max(la, lb))
}

// SimilarOptions bounds FindSimilar.
type SimilarOptions struct {
	MaxDistance int
	MaxResults  int
}

// FindSimilar returns candidates within MaxDistance of query (case-insensitive),
// nearest first, capped at MaxResults. Ties keep candidate order.
func FindSimilar(candidates []string, query string, opts SimilarOptions) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(candidates) == 0 || opts.MaxResults <= 0 {
		return []string{}
	}

	type scored struct {
		value    string
		distance int
	}
	matches := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		d := Distance(strings.ToLower(candidate), q)
		if d <= opts.MaxDistance {
			matches = append(matches, scored{value: candidate, distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	if len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}

	result := make([]string, len(matches))
	for i, m := range matches {
		result[i] = m.value
	}
	return result
}

// bestSuggestion picks the candidate most similar to query, or "" when none
// reaches MinSimilarityScore or lies within MaxSuggestionDistance.
func bestSuggestion(candidates []string, query string) string {
	q := normalizeName(query)
	if q == "" {
		return ""
	}
	best, bestScore := "", 0.0
	for _, candidate := range candidates {
		score := Similarity(normalizeName(candidate), q)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if best != "" && bestScore >= MinSimilarityScore {
		return best
	}
	if near := FindSimilar(candidates, query, SimilarOptions{MaxDistance: MaxSuggestionDistance, MaxResults: 1}); len(near) > 0 {
		return near[0]
	}
	return ""
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
