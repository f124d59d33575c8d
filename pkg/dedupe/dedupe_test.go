package dedupe

import (
	"testing"

	"github.com/ormasoftchile/stepwise/pkg/schema"
)

func steps(texts ...string) []schema.Step {
	out := make([]schema.Step, len(texts))
	for i, t := range texts {
		out[i] = schema.Step{ID: string(rune('a' + i)), Text: t}
	}
	return out
}

func TestFindStepsToSkip(t *testing.T) {
	candidates := steps(
		"Open the outgoing server settings",
		"Set the SMTP port to 587",
		"Restart the mail client",
	)
	completed := []string{
		"Open the outgoing server settings", // exact duplicate of [0]
		"Check the network cable",
	}

	skip := FindStepsToSkip(candidates, completed)
	if !skip[0] {
		t.Error("step 0 duplicates completed work, should be skipped")
	}
	if skip[1] || skip[2] {
		t.Errorf("steps 1 and 2 are new work, skip set = %v", skip)
	}
}

func TestFindStepsToSkipSimilarNotIdentical(t *testing.T) {
	candidates := steps("Open the account settings page now")
	completed := []string{"Open the account settings page"}

	skip := FindStepsToSkip(candidates, completed)
	if !skip[0] {
		t.Error("near-identical step text should be skipped")
	}
}

func TestFindStepsToSkipEmptyInputs(t *testing.T) {
	if skip := FindStepsToSkip(nil, []string{"anything"}); len(skip) != 0 {
		t.Errorf("nil candidates: %v", skip)
	}
	if skip := FindStepsToSkip(steps("a step"), nil); len(skip) != 0 {
		t.Errorf("no completed texts: %v", skip)
	}
}

func TestLeadingSkipCount(t *testing.T) {
	tests := []struct {
		name  string
		skip  map[int]bool
		total int
		want  int
	}{
		{"no skips", map[int]bool{}, 3, 0},
		{"leading pair", map[int]bool{0: true, 1: true}, 4, 2},
		{"gap stops the run", map[int]bool{0: true, 2: true}, 4, 1},
		{"all skipped", map[int]bool{0: true, 1: true, 2: true}, 3, 3},
		{"mid-sequence only", map[int]bool{2: true}, 4, 0},
		{"empty path", map[int]bool{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LeadingSkipCount(tt.skip, tt.total); got != tt.want {
				t.Errorf("LeadingSkipCount = %d, want %d", got, tt.want)
			}
		})
	}
}
