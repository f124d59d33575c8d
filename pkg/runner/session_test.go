package runner

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ormasoftchile/stepwise/pkg/schema"
)

func TestSessionFullWalk(t *testing.T) {
	a := testArticle()
	s := NewSession("sess-1")

	res := s.StartArticle(a)
	if res.TotalSteps != 3 {
		t.Fatalf("start = %+v", res)
	}

	for !s.IsComplete() {
		s.Continue()
	}

	want := []string{
		"Open the Outbox folder",
		"Select the message and click Send again",
		"Restart the mail client",
	}
	if !reflect.DeepEqual(s.CompletedStepTexts(), want) {
		t.Errorf("completed texts = %v", s.CompletedStepTexts())
	}

	sum := s.Summary()
	if sum.ArticleID != a.ID || len(sum.CompletedStepIDs) != 3 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestSessionFailureAndSwitch(t *testing.T) {
	a := testArticle()
	s := NewSession("sess-2")
	s.StartArticle(a)
	s.Continue() // completes "Open the Outbox folder"

	cur := s.CurrentStep()
	if cur == nil || cur.ID != "resend" {
		t.Fatalf("current step = %+v", cur)
	}
	s.RecordFailure(cur.ID, schema.ReasonSystemError, "smtp timeout on port 25")

	fb := a.FindFallback("smtp-reset")
	res := s.SwitchToFallback(a, fb)
	if res.SkippedLeading != 1 {
		t.Errorf("SkippedLeading = %d, want 1 (outbox step already done)", res.SkippedLeading)
	}
	if n := s.ConsumeSkipped(); n != 1 {
		t.Errorf("ConsumeSkipped = %d", n)
	}
	if cur := s.CurrentStep(); cur == nil || cur.ID != "fb-open-settings" {
		t.Errorf("resumed at %+v", cur)
	}
	if len(s.State.Failures) != 1 {
		t.Errorf("failures = %+v", s.State.Failures)
	}
}

func TestSessionContinueWhileIdle(t *testing.T) {
	s := NewSession("sess-3")
	if res := s.Continue(); !res.Completed || res.NextStep != nil {
		t.Errorf("idle continue = %+v", res)
	}
	if res := s.Back(); res.Success {
		t.Errorf("idle back = %+v", res)
	}
}

func TestSessionReset(t *testing.T) {
	a := testArticle()
	s := NewSession("sess-4")
	s.StartArticle(a)
	s.Continue()
	s.RecordFailure("resend", schema.ReasonOther, "")

	s.Reset()
	if s.Article != nil || len(s.State.CompletedStepIDs) != 0 ||
		len(s.State.Failures) != 0 || s.State.ActivePath != schema.PathMain ||
		s.State.CurrentStepIndex != 0 || len(s.CompletedStepTexts()) != 0 {
		t.Errorf("reset left residue: %+v", s.State)
	}
	if s.IsComplete() {
		t.Error("idle session is not complete")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	a := testArticle()
	st, _ := Start(a, t0)
	st, _ = Continue(st, a)
	st = RecordFailure(st, "resend", schema.ReasonSystemError, "smtp timeout", t0)

	path := filepath.Join(t.TempDir(), "state.json")
	if err := SaveSnapshot(st, path); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !reflect.DeepEqual(st, loaded) {
		t.Errorf("round trip mismatch:\n  %+v\n  %+v", st, loaded)
	}
}

func TestSaveSnapshotCreatesParentDirs(t *testing.T) {
	a := testArticle()
	st, _ := Start(a, t0)

	// Sessions write under sessions/<id>/, which does not exist up front.
	path := filepath.Join(t.TempDir(), "sessions", "abc", "step-0000.json")
	if err := SaveSnapshot(st, path); err != nil {
		t.Fatalf("SaveSnapshot into missing directory: %v", err)
	}
	if _, err := LoadSnapshot(path); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
}
