// Package fallback resolves the best alternative path after a step failure.
// The search is deterministic and ordered: the current article first, then
// the rest of the corpus in its given order, then terminal escalation.
package fallback

import (
	"strings"

	"github.com/ormasoftchile/stepwise/pkg/schema"
	"github.com/ormasoftchile/stepwise/pkg/textmatch"
)

// ResultType tags the selector outcome.
type ResultType string

const (
	TypeSameArticle  ResultType = "same-article"
	TypeCrossArticle ResultType = "cross-article"
	TypeEscalation   ResultType = "escalation"
)

// Result is the tagged outcome of a selection. Fallback and Article are set
// for the first two types; Escalation for the third. The caller invokes
// SwitchToFallback for fallback results and surfaces the escalation text
// verbatim for the third — escalation is terminal, not retryable.
type Result struct {
	Type       ResultType         `json:"type"`
	Fallback   *schema.Fallback   `json:"fallback,omitempty"`
	Article    *schema.Article    `json:"article,omitempty"`
	Escalation *schema.Escalation `json:"escalation,omitempty"`
}

// Select finds the best alternative path for a failure with the given reason
// category and free-text note. Three tiers, first success wins:
//
//  1. Same-article: fallbacks of the current article whose reason exactly
//     equals the category, disambiguated by trigger-keyword overlap with
//     the note.
//  2. Cross-article: each other article in corpus order, same matching rule,
//     first non-nil match wins. First-match, not best-match-overall.
//  3. Escalation: the current article's escalation record, verbatim.
//
// An unknown reason category simply matches nothing and falls through to
// escalation — it is a terminal user-facing outcome, not a fault.
func Select(current *schema.Article, corpus []*schema.Article, reason, note string) Result {
	noteTokens := textmatch.TokenSet(textmatch.Normalize(note))

	if fb := matchInArticle(current, reason, noteTokens); fb != nil {
		return Result{Type: TypeSameArticle, Fallback: fb, Article: current}
	}

	for _, a := range corpus {
		if a.ID == current.ID {
			continue
		}
		if fb := matchInArticle(a, reason, noteTokens); fb != nil {
			return Result{Type: TypeCrossArticle, Fallback: fb, Article: a}
		}
	}

	esc := current.Escalation
	return Result{Type: TypeEscalation, Escalation: &esc}
}

// matchInArticle applies the same-article matching rule: filter by exact
// reason category, then disambiguate multiple candidates by counting trigger
// keywords present in the note tokens (case-insensitive exact-token
// membership, not substring). Ties resolve to the first candidate in the
// article's declared fallback order.
func matchInArticle(a *schema.Article, reason string, noteTokens map[string]bool) *schema.Fallback {
	var candidates []*schema.Fallback
	for i := range a.Fallbacks {
		if a.Fallbacks[i].Reason == reason {
			candidates = append(candidates, &a.Fallbacks[i])
		}
	}

	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}

	best := candidates[0]
	bestScore := keywordScore(best, noteTokens)
	for _, c := range candidates[1:] {
		if s := keywordScore(c, noteTokens); s > bestScore {
			best = c
			bestScore = s
		}
	}
	return best
}

// keywordScore counts the fallback's trigger keywords present in the note
// token set.
func keywordScore(fb *schema.Fallback, noteTokens map[string]bool) int {
	score := 0
	for _, kw := range fb.TriggerKeywords {
		if noteTokens[strings.ToLower(kw)] {
			score++
		}
	}
	return score
}
