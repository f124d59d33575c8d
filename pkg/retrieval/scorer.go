// Package retrieval ranks troubleshooting articles against a free-text
// query using a weighted lexical score. The corpus is tiny and enumerable,
// so every article is scored on every search — no index is kept.
package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ormasoftchile/stepwise/pkg/schema"
	"github.com/ormasoftchile/stepwise/pkg/textmatch"
)

// Score weights. Tags dominate because they are curated; keywords and
// title containment are weaker corroborating signals.
const (
	tagWeight     = 3
	productWeight = 2
	titleWeight   = 1
	keywordWeight = 1
)

// DefaultLimit is the number of results returned when Options.Limit is zero.
const DefaultLimit = 3

// LowConfidenceThreshold is the minimum top score for a result set to be
// considered confident. Below it the caller should disambiguate with the
// user instead of auto-selecting the top hit.
const LowConfidenceThreshold = 9

// Options controls a search.
type Options struct {
	Limit int // max results; 0 means DefaultLimit
}

// Result is a scored article with the signals that contributed to the score.
type Result struct {
	Article *schema.Article `json:"article"`
	Score   int             `json:"score"`
	Matches []string        `json:"matches"` // e.g. "tag:email", "product:Mailhost"
}

// Search scores every article against the query and returns results ordered
// by score descending, scores <= 0 excluded, capped at the limit. Ties keep
// corpus order. The second return is the low-confidence flag: true when the
// result set is empty or its top score is below LowConfidenceThreshold.
func Search(query string, corpus []*schema.Article, opts Options) ([]Result, bool) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	queryLower := strings.ToLower(query)
	queryTokens := textmatch.TokenSet(textmatch.Normalize(query))

	var results []Result
	for _, a := range corpus {
		score, matches := scoreArticle(a, queryLower, queryTokens)
		if score <= 0 {
			continue
		}
		results = append(results, Result{Article: a, Score: score, Matches: matches})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	lowConfidence := len(results) == 0 || results[0].Score < LowConfidenceThreshold
	return results, lowConfidence
}

// scoreArticle computes the additive lexical score for one article.
func scoreArticle(a *schema.Article, queryLower string, queryTokens map[string]bool) (int, []string) {
	score := 0
	var matches []string

	// +3 per tag that shares a token with the query.
	for _, tag := range a.Tags {
		if sharesToken(tag, queryTokens) {
			score += tagWeight
			matches = append(matches, "tag:"+tag)
		}
	}

	// +2 when the query mentions the product name.
	if a.Product != "" && strings.Contains(queryLower, strings.ToLower(a.Product)) {
		score += productWeight
		matches = append(matches, "product:"+a.Product)
	}

	// +1 for title containment. Checked in both directions — a short query
	// should match a longer title and vice versa — so callers cannot depend
	// on an arbitrary direction.
	titleLower := strings.ToLower(a.Title)
	if titleLower != "" &&
		(strings.Contains(queryLower, titleLower) || strings.Contains(titleLower, queryLower)) {
		score += titleWeight
		matches = append(matches, "title")
	}

	// +1 per keyword contained in the query (case-insensitive substring).
	for _, kw := range a.Keywords {
		if kw != "" && strings.Contains(queryLower, strings.ToLower(kw)) {
			score += keywordWeight
			matches = append(matches, "keyword:"+kw)
		}
	}

	return score, matches
}

// sharesToken reports whether any normalized token of s appears in the
// query token set.
func sharesToken(s string, queryTokens map[string]bool) bool {
	for _, t := range textmatch.Normalize(s) {
		if queryTokens[t] {
			return true
		}
	}
	return false
}

// FormatResult renders a single result line for CLI output.
func FormatResult(r Result) string {
	return fmt.Sprintf("%-24s score=%-3d %s", r.Article.ID, r.Score, strings.Join(r.Matches, " "))
}
