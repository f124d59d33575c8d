// Package runner implements the step-execution state machine: an explicit
// RunState value plus pure transition functions. Every transition returns a
// new state and a structured result — nothing here panics or errors in
// response to user-reported failures; those are captured as data.
package runner

import (
	"time"

	"github.com/ormasoftchile/stepwise/pkg/schema"
)

// RunState is the complete session state at a point in time.
// Serialized to JSON for snapshot persistence.
type RunState struct {
	SessionID        string          `json:"session_id,omitempty"`
	ArticleID        string          `json:"article_id"`
	ActivePath       string          `json:"active_path"` // "main" or a fallback id
	CurrentStepIndex int             `json:"current_step_index"`
	CompletedStepIDs []string        `json:"completed_step_ids"` // completion ledger, in completion order
	AttemptedPaths   []AttemptedPath `json:"attempted_paths"`
	Failures         []FailureRecord `json:"failures"`
	SkippedLeading   int             `json:"skipped_leading"` // set per fallback switch, cleared once consumed
	StartedAt        time.Time       `json:"started_at,omitzero"`
}

// AttemptedPath records entry into a path (main or fallback).
type AttemptedPath struct {
	ArticleID string    `json:"article_id"`
	PathTag   string    `json:"path_tag"`
	StartedAt time.Time `json:"started_at"`
}

// FailureRecord captures a user-reported step failure.
type FailureRecord struct {
	StepID string    `json:"step_id"`
	Reason string    `json:"reason"` // reason category
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

// StartResult reports the outcome of starting an article.
type StartResult struct {
	TotalSteps int          `json:"total_steps"`
	FirstStep  *schema.Step `json:"first_step,omitempty"` // nil when the main path is empty
}

// ContinueResult reports the outcome of a forward navigation.
type ContinueResult struct {
	Completed bool         `json:"completed"`
	NextStep  *schema.Step `json:"next_step,omitempty"` // nil once past the last step
}

// BackResult reports the outcome of a backward navigation.
type BackResult struct {
	Success bool         `json:"success"`
	Step    *schema.Step `json:"step,omitempty"` // the step now current
}

// SwitchResult reports the outcome of a fallback switch.
type SwitchResult struct {
	SkippedLeading int          `json:"skipped_leading"`
	TotalSteps     int          `json:"total_steps"`
	Completed      bool         `json:"completed"` // true when every fallback step was skipped
	Step           *schema.Step `json:"step,omitempty"`
}

// Summary is the terminal report shown when a session completes.
type Summary struct {
	ArticleID        string          `json:"article_id"`
	ActivePath       string          `json:"active_path"`
	CompletedStepIDs []string        `json:"completed_step_ids"`
	AttemptedPaths   []AttemptedPath `json:"attempted_paths"`
	Failures         []FailureRecord `json:"failures"`
	CompletedAt      time.Time       `json:"completed_at"`
}
