// Package dedupe decides which steps of a candidate path duplicate work
// the user has already performed, so a fallback switch can skip them.
package dedupe

import (
	"github.com/ormasoftchile/stepwise/pkg/schema"
	"github.com/ormasoftchile/stepwise/pkg/textmatch"
)

// FindStepsToSkip returns the indices of candidate steps whose text is
// similar to any completed step text. Comparison is whole-step-text against
// whole-step-text; no fuzzy substring matching. O(n·m), fine for paths of
// single digits to low tens of steps.
func FindStepsToSkip(candidates []schema.Step, completedTexts []string) map[int]bool {
	skip := make(map[int]bool)
	for i, step := range candidates {
		for _, done := range completedTexts {
			if textmatch.AreSimilar(step.Text, done) {
				skip[i] = true
				break
			}
		}
	}
	return skip
}

// LeadingSkipCount counts the contiguous run of skipped steps starting at
// index 0. A similar step that appears after a non-similar one is still
// presented to the user — silently vanishing steps mid-sequence would break
// the linear-progress mental model.
func LeadingSkipCount(skip map[int]bool, total int) int {
	count := 0
	for i := 0; i < total; i++ {
		if !skip[i] {
			break
		}
		count++
	}
	return count
}
