package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/stepwise/pkg/runner"
	"github.com/ormasoftchile/stepwise/pkg/schema"
)

// stepStatus tracks the display state of each step.
type stepStatus int

const (
	statusPending stepStatus = iota
	statusCurrent
	statusDone
	statusFailed
	statusSkipped
)

// stepInfo holds the display state for a single step.
type stepInfo struct {
	ID     string
	Text   string
	Type   string
	Status stepStatus
}

// stepsPanel renders the scrollable step list for the active path.
type stepsPanel struct {
	steps  []stepInfo
	cursor int // highlighted step (for browsing)
	width  int
	height int
	offset int // scroll offset
}

func newStepsPanel() stepsPanel {
	return stepsPanel{cursor: -1}
}

// Sync rebuilds the display list from the session's active path and state.
func (p *stepsPanel) Sync(article *schema.Article, st runner.RunState) {
	if article == nil {
		p.steps = nil
		return
	}
	completed := make(map[string]bool, len(st.CompletedStepIDs))
	for _, id := range st.CompletedStepIDs {
		completed[id] = true
	}
	failed := make(map[string]bool, len(st.Failures))
	for _, f := range st.Failures {
		failed[f.StepID] = true
	}

	steps := article.PathSteps(st.ActivePath)
	p.steps = make([]stepInfo, len(steps))
	for i, s := range steps {
		info := stepInfo{ID: s.ID, Text: s.Text, Type: s.Type, Status: statusPending}
		switch {
		case i == st.CurrentStepIndex:
			info.Status = statusCurrent
		case completed[s.ID]:
			info.Status = statusDone
		case i < st.CurrentStepIndex:
			// Behind the cursor but never completed: skipped on path entry.
			info.Status = statusSkipped
		}
		if failed[s.ID] && info.Status != statusDone {
			info.Status = statusFailed
		}
		p.steps[i] = info
	}
	p.cursor = st.CurrentStepIndex
	if p.cursor >= len(p.steps) {
		p.cursor = len(p.steps) - 1
	}
	p.ensureVisible()
}

// CursorUp moves the browsing cursor up.
func (p *stepsPanel) CursorUp() {
	if p.cursor > 0 {
		p.cursor--
		p.ensureVisible()
	}
}

// CursorDown moves the browsing cursor down.
func (p *stepsPanel) CursorDown() {
	if p.cursor < len(p.steps)-1 {
		p.cursor++
		p.ensureVisible()
	}
}

// SelectedText returns the step text at the cursor position.
func (p *stepsPanel) SelectedText() string {
	if p.cursor >= 0 && p.cursor < len(p.steps) {
		return p.steps[p.cursor].Text
	}
	return ""
}

func (p *stepsPanel) ensureVisible() {
	visible := p.height - 2
	if visible < 1 {
		visible = 1
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+visible {
		p.offset = p.cursor - visible + 1
	}
	if p.offset < 0 {
		p.offset = 0
	}
}

// View renders the step list panel.
func (p *stepsPanel) View() string {
	if len(p.steps) == 0 {
		return panelBorder.Width(p.width).Height(p.height).Render("  No article loaded")
	}

	visible := p.height - 2
	if visible < 1 {
		visible = 1
	}

	var lines []string
	end := p.offset + visible
	if end > len(p.steps) {
		end = len(p.steps)
	}

	for i := p.offset; i < end; i++ {
		step := p.steps[i]

		var glyph string
		var style lipgloss.Style
		switch step.Status {
		case statusPending:
			glyph = GlyphPending
			style = stepNormal
		case statusCurrent:
			glyph = GlyphCurrent
			style = stepCurrent
		case statusDone:
			glyph = GlyphDone
			style = stepDone
		case statusFailed:
			glyph = GlyphFailed
			style = stepFailed
		case statusSkipped:
			glyph = GlyphSkipped
			style = stepSkipped
		}

		maxText := p.width - 8
		if maxText < 4 {
			maxText = 4
		}
		text := runewidth.Truncate(step.Text, maxText, "…")

		num := fmt.Sprintf("%d.", i+1)
		line := fmt.Sprintf(" %s %s %s", glyph, num, text)

		if i == p.cursor {
			line = style.Reverse(true).Render(line)
		} else {
			line = style.Render(line)
		}

		lines = append(lines, line)
	}

	for len(lines) < visible {
		lines = append(lines, "")
	}

	content := strings.Join(lines, "\n")
	title := panelTitle.Render("Steps")
	return panelBorder.Width(p.width).Height(p.height).Render(
		title + "\n" + content,
	)
}

// Stats returns counts of steps by status.
func (p *stepsPanel) Stats() (total, done, failed, skipped int) {
	total = len(p.steps)
	for _, s := range p.steps {
		switch s.Status {
		case statusDone:
			done++
		case statusFailed:
			failed++
		case statusSkipped:
			skipped++
		}
	}
	return
}
