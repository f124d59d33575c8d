package guide

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ormasoftchile/stepwise/pkg/fallback"
	"github.com/ormasoftchile/stepwise/pkg/retrieval"
	"github.com/ormasoftchile/stepwise/pkg/runner"
	"github.com/ormasoftchile/stepwise/pkg/schema"
)

// handleSearch ranks the corpus against the query and lists candidates.
func (g *Guide) handleSearch(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(g.output, "Usage: search <problem description>\n")
		return
	}
	query := strings.Join(parts[1:], " ")
	results, lowConfidence := g.store.Search(query, retrieval.Options{})
	if len(results) == 0 {
		fmt.Fprintf(g.output, "No matching articles.\n")
		return
	}
	if lowConfidence {
		fmt.Fprintf(g.output, "Low-confidence matches; consider rephrasing the problem.\n")
	}
	for _, r := range results {
		fmt.Fprintf(g.output, "  %s\n", retrieval.FormatResult(r))
	}
	fmt.Fprintf(g.output, "Type 'start <article-id>' to begin.\n")
}

// handleStart selects an article and presents its first step.
func (g *Guide) handleStart(parts []string) {
	if len(parts) != 2 {
		fmt.Fprintf(g.output, "Usage: start <article-id>\n")
		return
	}
	article := g.store.Get(parts[1])
	if article == nil {
		fmt.Fprintf(g.output, "Unknown article: %q\n", parts[1])
		return
	}

	res := g.session.StartArticle(article)
	fmt.Fprintf(g.output, "▶ %s (%d steps)\n", article.Title, res.TotalSteps)
	if res.FirstStep == nil {
		g.printSummary()
		return
	}
	g.printStep(res.FirstStep)
}

// handleNext marks the current step done and advances.
func (g *Guide) handleNext() {
	if g.session.Article == nil {
		fmt.Fprintf(g.output, "No active article. Use 'search' and 'start' first.\n")
		return
	}
	if g.session.IsComplete() {
		fmt.Fprintf(g.output, "All steps completed.\n")
		return
	}

	cur := g.session.CurrentStep()
	res := g.session.Continue()
	fmt.Fprintf(g.output, "  ✓ %s\n", cur.ID)

	if res.Completed {
		g.printSummary()
		return
	}
	g.printStep(res.NextStep)
}

// handleBack moves one step backwards without uncompleting anything.
func (g *Guide) handleBack() {
	if g.session.Article == nil {
		fmt.Fprintf(g.output, "No active article.\n")
		return
	}
	res := g.session.Back()
	if !res.Success {
		fmt.Fprintf(g.output, "Already at the first step.\n")
		return
	}
	g.printStep(res.Step)
}

// handleFail records a failure on the current step and resolves a fallback.
func (g *Guide) handleFail(parts []string) {
	if g.session.Article == nil {
		fmt.Fprintf(g.output, "No active article.\n")
		return
	}
	if g.session.IsComplete() {
		fmt.Fprintf(g.output, "All steps completed.\n")
		return
	}
	if len(parts) < 2 {
		fmt.Fprintf(g.output, "Usage: fail <reason> [note...]\n")
		fmt.Fprintf(g.output, "Reasons: %s\n", strings.Join(schema.ReasonCategories, ", "))
		return
	}

	reason := parts[1]
	note := strings.Join(parts[2:], " ")

	cur := g.session.CurrentStep()
	stepID := ""
	if cur != nil {
		stepID = cur.ID
	}
	g.session.RecordFailure(stepID, reason, note)
	fmt.Fprintf(g.output, "  ✗ %s failed (%s)\n", stepID, reason)

	sel := fallback.Select(g.session.Article, g.store.All(), reason, note)
	g.lastSelection = &sel
	g.lastReason = reason
	g.lastNote = note
	switch sel.Type {
	case fallback.TypeEscalation:
		fmt.Fprintf(g.output, "■ No fallback applies.\n")
		fmt.Fprintf(g.output, "  When:   %s\n", sel.Escalation.When)
		fmt.Fprintf(g.output, "  Target: %s\n", sel.Escalation.Target)
		return
	case fallback.TypeCrossArticle:
		fmt.Fprintf(g.output, "Switching to article %q, fallback %q\n", sel.Article.ID, sel.Fallback.ID)
	default:
		fmt.Fprintf(g.output, "Switching to fallback %q\n", sel.Fallback.ID)
	}

	res := g.session.SwitchToFallback(sel.Article, sel.Fallback)
	if n := g.session.ConsumeSkipped(); n > 0 {
		fmt.Fprintf(g.output, "  ⊘ skipped %d already-completed step(s)\n", n)
	}
	if res.Completed {
		g.printSummary()
		return
	}
	g.printStep(res.Step)
}

// handleWhy explains how the last failure was resolved.
func (g *Guide) handleWhy() {
	if g.lastSelection == nil {
		fmt.Fprintf(g.output, "No failure reported yet.\n")
		return
	}
	fmt.Fprintf(g.output, "Last failure: reason %q", g.lastReason)
	if g.lastNote != "" {
		fmt.Fprintf(g.output, ", note %q", g.lastNote)
	}
	fmt.Fprintln(g.output)

	sel := g.lastSelection
	switch sel.Type {
	case fallback.TypeSameArticle:
		fmt.Fprintf(g.output, "Resolved within the same article: fallback %q matched the reason", sel.Fallback.ID)
		if len(sel.Fallback.TriggerKeywords) > 0 {
			fmt.Fprintf(g.output, " (triggers: %s)", strings.Join(sel.Fallback.TriggerKeywords, ", "))
		}
		fmt.Fprintln(g.output)
	case fallback.TypeCrossArticle:
		fmt.Fprintf(g.output, "Resolved cross-article: %q in article %q was the first reason match in corpus order.\n",
			sel.Fallback.ID, sel.Article.ID)
	case fallback.TypeEscalation:
		fmt.Fprintf(g.output, "No fallback matched the reason; escalation applies: %s\n", sel.Escalation.Target)
	}
}

// handleState shows a compact view of the session state.
func (g *Guide) handleState() {
	st := g.session.State
	if g.session.Article == nil {
		fmt.Fprintf(g.output, "Idle — no active article.\n")
		return
	}
	steps := g.session.Article.PathSteps(st.ActivePath)
	position := "done"
	if st.CurrentStepIndex < len(steps) {
		position = fmt.Sprintf("%d/%d", st.CurrentStepIndex+1, len(steps))
	}
	fmt.Fprintf(g.output, "  article:   %s\n", st.ArticleID)
	fmt.Fprintf(g.output, "  path:      %s\n", st.ActivePath)
	fmt.Fprintf(g.output, "  step:      %s\n", position)
	fmt.Fprintf(g.output, "  completed: %d\n", len(st.CompletedStepIDs))
	fmt.Fprintf(g.output, "  failures:  %d\n", len(st.Failures))
	fmt.Fprintf(g.output, "  paths:     %d attempted\n", len(st.AttemptedPaths))
}

// handleHistory shows the completion ledger and recorded failures.
func (g *Guide) handleHistory() {
	st := g.session.State
	if len(st.CompletedStepIDs) == 0 && len(st.Failures) == 0 {
		fmt.Fprintf(g.output, "Nothing completed yet.\n")
		return
	}
	for _, id := range st.CompletedStepIDs {
		fmt.Fprintf(g.output, "  ✓ %s\n", id)
	}
	for _, f := range st.Failures {
		fmt.Fprintf(g.output, "  ✗ %s — %s", f.StepID, f.Reason)
		if f.Note != "" {
			fmt.Fprintf(g.output, " (%s)", f.Note)
		}
		fmt.Fprintln(g.output)
	}
}

// handleSnapshot saves the current state under the session directory.
func (g *Guide) handleSnapshot() {
	path := filepath.Join(g.baseDir, "sessions", g.session.ID,
		fmt.Sprintf("step-%04d.json", g.session.State.CurrentStepIndex))
	if err := runner.SaveSnapshot(g.session.State, path); err != nil {
		fmt.Fprintf(g.output, "  Error: %v\n", err)
		return
	}
	fmt.Fprintf(g.output, "  Snapshot saved: %s\n", path)
}

// handleDump outputs the full current state as JSON.
func (g *Guide) handleDump() {
	data, err := json.MarshalIndent(g.session.State, "", "  ")
	if err != nil {
		fmt.Fprintf(g.output, "  Error marshaling state: %v\n", err)
		return
	}
	fmt.Fprintln(g.output, string(data))
}

// handleHelp displays available commands.
func (g *Guide) handleHelp() {
	fmt.Fprintln(g.output, "Available commands:")
	fmt.Fprintln(g.output, "  search (s)   Find articles: search <problem description>")
	fmt.Fprintln(g.output, "  start        Begin an article: start <article-id>")
	fmt.Fprintln(g.output, "  next (n)     Mark the current step done and advance")
	fmt.Fprintln(g.output, "  back (b)     Go back one step")
	fmt.Fprintln(g.output, "  fail (f)     Report a failure: fail <reason> [note...]")
	fmt.Fprintln(g.output, "  why (w)      Explain how the last failure was resolved")
	fmt.Fprintln(g.output, "  state        Show a compact session state view")
	fmt.Fprintln(g.output, "  history (h)  Show completed steps and failures")
	fmt.Fprintln(g.output, "  snapshot     Save state snapshot")
	fmt.Fprintln(g.output, "  dump         Output full state as JSON")
	fmt.Fprintln(g.output, "  help (?)     Show this help")
	fmt.Fprintln(g.output, "  quit (q)     Exit guide")
}

// printSummary renders the terminal report for a completed session.
func (g *Guide) printSummary() {
	sum := g.session.Summary()
	fmt.Fprintf(g.output, "■ Session complete — article %s, path %s\n", sum.ArticleID, sum.ActivePath)
	fmt.Fprintf(g.output, "  Steps completed: %d\n", len(sum.CompletedStepIDs))
	for _, p := range sum.AttemptedPaths {
		fmt.Fprintf(g.output, "  Path attempted: %s/%s\n", p.ArticleID, p.PathTag)
	}
	if len(sum.Failures) > 0 {
		fmt.Fprintf(g.output, "  Failures: %d\n", len(sum.Failures))
	}
}
