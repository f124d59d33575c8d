package runner

import (
	"time"

	"github.com/ormasoftchile/stepwise/pkg/dedupe"
	"github.com/ormasoftchile/stepwise/pkg/schema"
)

// Start resets state and selects the article's main path at index 0.
// An article with no main steps yields total=0 and a nil first step; the
// resulting state reports IsComplete immediately — that is not an error.
func Start(article *schema.Article, now time.Time) (RunState, StartResult) {
	st := RunState{
		ArticleID:        article.ID,
		ActivePath:       schema.PathMain,
		CurrentStepIndex: 0,
		StartedAt:        now,
		AttemptedPaths: []AttemptedPath{
			{ArticleID: article.ID, PathTag: schema.PathMain, StartedAt: now},
		},
	}

	res := StartResult{TotalSteps: len(article.Steps)}
	if len(article.Steps) > 0 {
		res.FirstStep = &article.Steps[0]
	}
	return st, res
}

// Continue marks the current step completed and advances the pointer.
// Past the end it is a structured no-op: {Completed: true}, state unchanged.
func Continue(st RunState, article *schema.Article) (RunState, ContinueResult) {
	steps := article.PathSteps(st.ActivePath)
	if st.CurrentStepIndex >= len(steps) {
		return st, ContinueResult{Completed: true}
	}

	st.CompletedStepIDs = appendCompleted(st.CompletedStepIDs, steps[st.CurrentStepIndex].ID)
	st.CurrentStepIndex++

	res := ContinueResult{Completed: st.CurrentStepIndex >= len(steps)}
	if !res.Completed {
		res.NextStep = &steps[st.CurrentStepIndex]
	}
	return st, res
}

// Back moves the pointer one step backwards. At index 0 it reports failure
// with no mutation. Going back never removes anything from the completion
// ledger — a performed step stays performed.
func Back(st RunState, article *schema.Article) (RunState, BackResult) {
	if st.CurrentStepIndex == 0 {
		return st, BackResult{Success: false}
	}
	st.CurrentStepIndex--

	steps := article.PathSteps(st.ActivePath)
	res := BackResult{Success: true}
	if st.CurrentStepIndex < len(steps) {
		res.Step = &steps[st.CurrentStepIndex]
	}
	return st, res
}

// RecordFailure appends to the failure history. Pure append — navigation
// state is untouched; the caller decides whether to switch paths.
func RecordFailure(st RunState, stepID, reason, note string, now time.Time) RunState {
	st.Failures = append(st.Failures, FailureRecord{
		StepID: stepID,
		Reason: reason,
		Note:   note,
		At:     now,
	})
	return st
}

// SwitchToFallback activates a fallback path, skipping the leading run of
// steps the user has effectively already performed. The article may differ
// from the one currently selected (cross-article fallback): article id and
// path switch atomically. Only the contiguous skipped prefix is jumped —
// a duplicate step after a new step is still presented.
func SwitchToFallback(st RunState, article *schema.Article, fb *schema.Fallback, completedTexts []string, now time.Time) (RunState, SwitchResult) {
	skip := dedupe.FindStepsToSkip(fb.Steps, completedTexts)
	leading := dedupe.LeadingSkipCount(skip, len(fb.Steps))

	st.ArticleID = article.ID
	st.ActivePath = fb.ID
	st.CurrentStepIndex = leading
	st.SkippedLeading = leading
	st.AttemptedPaths = append(st.AttemptedPaths, AttemptedPath{
		ArticleID: article.ID,
		PathTag:   fb.ID,
		StartedAt: now,
	})

	res := SwitchResult{
		SkippedLeading: leading,
		TotalSteps:     len(fb.Steps),
		Completed:      leading >= len(fb.Steps),
	}
	if !res.Completed {
		res.Step = &fb.Steps[leading]
	}
	return st, res
}

// ConsumeSkipped returns the skipped-steps counter and clears it. The
// counter is informational for the UI ("skipped N steps you already did")
// and read at most once per fallback switch.
func ConsumeSkipped(st RunState) (RunState, int) {
	n := st.SkippedLeading
	st.SkippedLeading = 0
	return st, n
}

// IsComplete reports whether the pointer is past the last step of the
// active path.
func IsComplete(st RunState, article *schema.Article) bool {
	return st.CurrentStepIndex >= len(article.PathSteps(st.ActivePath))
}

// CurrentStep returns the step at the pointer, or nil when complete.
func CurrentStep(st RunState, article *schema.Article) *schema.Step {
	steps := article.PathSteps(st.ActivePath)
	if st.CurrentStepIndex >= len(steps) {
		return nil
	}
	return &steps[st.CurrentStepIndex]
}

// Reset discards all session state. Unconditional, idempotent, from any state.
func Reset() RunState {
	return RunState{ActivePath: schema.PathMain}
}

// Summarize builds the terminal summary for a completed (or abandoned) run.
func Summarize(st RunState, now time.Time) Summary {
	return Summary{
		ArticleID:        st.ArticleID,
		ActivePath:       st.ActivePath,
		CompletedStepIDs: st.CompletedStepIDs,
		AttemptedPaths:   st.AttemptedPaths,
		Failures:         st.Failures,
		CompletedAt:      now,
	}
}

// appendCompleted adds a step id to the completion ledger unless already
// present. The ledger is a set that preserves first-completion order.
func appendCompleted(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
