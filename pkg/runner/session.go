package runner

import (
	"time"

	"github.com/ormasoftchile/stepwise/pkg/schema"
)

// Session owns one RunState for one interactive troubleshooting session and
// applies the pure transitions to it. Single writer, single reader: one
// Session per user session, never shared across goroutines.
type Session struct {
	ID      string
	State   RunState
	Article *schema.Article // currently selected article; nil when idle

	// Texts of completed steps, accumulated at completion time. Kept here
	// rather than in RunState because after a cross-article switch the old
	// article is no longer at hand to resolve ids back to texts.
	completedTexts []string
}

// NewSession creates an idle session.
func NewSession(id string) *Session {
	return &Session{ID: id, State: Reset()}
}

// StartArticle selects an article and begins its main path.
func (s *Session) StartArticle(article *schema.Article) StartResult {
	st, res := Start(article, time.Now())
	st.SessionID = s.ID
	s.State = st
	s.Article = article
	s.completedTexts = nil
	return res
}

// Continue marks the current step done and advances.
func (s *Session) Continue() ContinueResult {
	if s.Article == nil {
		return ContinueResult{Completed: true}
	}
	if cur := CurrentStep(s.State, s.Article); cur != nil {
		s.completedTexts = append(s.completedTexts, cur.Text)
	}
	st, res := Continue(s.State, s.Article)
	s.State = st
	return res
}

// Back moves one step backwards without uncompleting anything.
func (s *Session) Back() BackResult {
	if s.Article == nil {
		return BackResult{Success: false}
	}
	st, res := Back(s.State, s.Article)
	s.State = st
	return res
}

// RecordFailure appends a failure record for the current step.
func (s *Session) RecordFailure(stepID, reason, note string) {
	s.State = RecordFailure(s.State, stepID, reason, note, time.Now())
}

// SwitchToFallback activates the given fallback path, deduplicating against
// the steps completed so far. The owning article may differ from the current
// one (cross-article fallback).
func (s *Session) SwitchToFallback(article *schema.Article, fb *schema.Fallback) SwitchResult {
	st, res := SwitchToFallback(s.State, article, fb, s.completedTexts, time.Now())
	s.State = st
	s.Article = article
	return res
}

// ConsumeSkipped reads and clears the skipped-steps counter.
func (s *Session) ConsumeSkipped() int {
	st, n := ConsumeSkipped(s.State)
	s.State = st
	return n
}

// IsComplete reports whether the active path has been walked to the end.
func (s *Session) IsComplete() bool {
	if s.Article == nil {
		return false
	}
	return IsComplete(s.State, s.Article)
}

// CurrentStep returns the step the user should perform next, or nil.
func (s *Session) CurrentStep() *schema.Step {
	if s.Article == nil {
		return nil
	}
	return CurrentStep(s.State, s.Article)
}

// CompletedStepTexts returns the texts of every completed step, in
// completion order.
func (s *Session) CompletedStepTexts() []string {
	return s.completedTexts
}

// Summary builds the terminal completion report.
func (s *Session) Summary() Summary {
	return Summarize(s.State, time.Now())
}

// Reset discards all state and returns the session to idle.
func (s *Session) Reset() {
	s.State = Reset()
	s.State.SessionID = s.ID
	s.Article = nil
	s.completedTexts = nil
}
