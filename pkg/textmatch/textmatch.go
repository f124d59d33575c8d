// Package textmatch provides the lexical tokenization and similarity
// primitives used by retrieval, fallback selection and step deduplication.
// Everything here is pure and deterministic — no locale handling, no state.
package textmatch

import "strings"

// SimilarityThreshold is the Jaccard score two texts must strictly exceed
// to be considered equivalent steps.
const SimilarityThreshold = 0.6

// Normalize lowercases the text, replaces every non-alphanumeric rune with
// a space, and splits on whitespace. Empty tokens are dropped.
func Normalize(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, text)
	return strings.Fields(mapped)
}

// TokenSet converts a token slice into a set for membership tests.
func TokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// Jaccard computes |intersection| / |union| over two token slices,
// treating them as sets. An empty union is defined as 0.
func Jaccard(a, b []string) float64 {
	setA := TokenSet(a)
	setB := TokenSet(b)

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// AreSimilar reports whether two texts describe the same step: either the
// raw strings are identical, or their normalized token sets exceed the
// similarity threshold (strictly greater, not >=).
func AreSimilar(a, b string) bool {
	if a == b {
		return true
	}
	return Jaccard(Normalize(a), Normalize(b)) > SimilarityThreshold
}
