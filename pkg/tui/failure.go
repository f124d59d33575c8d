package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/stepwise/pkg/schema"
)

// failureOverlay collects a failure report in two stages: pick a reason
// category, then type an optional free-text note.
type failureOverlay struct {
	visible bool
	stepID  string

	reasons      []string
	reasonCursor int
	reason       string // chosen category; empty until stage one completes

	noteInput textinput.Model

	width  int
	height int
}

func newFailureOverlay() failureOverlay {
	ti := textinput.New()
	ti.Placeholder = "What happened? (optional, Enter to submit)"
	ti.CharLimit = 512
	ti.Width = 60

	return failureOverlay{
		reasons:   schema.ReasonCategories,
		noteInput: ti,
	}
}

// Show opens the overlay for the given step.
func (f *failureOverlay) Show(stepID string) {
	f.visible = true
	f.stepID = stepID
	f.reasonCursor = 0
	f.reason = ""
	f.noteInput.Reset()
}

// Hide closes the overlay.
func (f *failureOverlay) Hide() {
	f.visible = false
}

// pickingReason reports whether the overlay is still in stage one.
func (f *failureOverlay) pickingReason() bool {
	return f.reason == ""
}

// failureReportMsg carries a completed failure report to the model.
type failureReportMsg struct {
	stepID string
	reason string
	note   string
}

// Update handles keys while the overlay is visible. It returns a
// failureReportMsg command once both stages are done.
func (f *failureOverlay) Update(msg tea.KeyMsg) tea.Cmd {
	if f.pickingReason() {
		switch msg.String() {
		case "up", "k":
			if f.reasonCursor > 0 {
				f.reasonCursor--
			}
		case "down", "j":
			if f.reasonCursor < len(f.reasons)-1 {
				f.reasonCursor++
			}
		case "enter":
			f.reason = f.reasons[f.reasonCursor]
			f.noteInput.Focus()
		case "esc":
			f.Hide()
		}
		return nil
	}

	switch msg.String() {
	case "enter":
		report := failureReportMsg{
			stepID: f.stepID,
			reason: f.reason,
			note:   strings.TrimSpace(f.noteInput.Value()),
		}
		f.Hide()
		return func() tea.Msg { return report }
	case "esc":
		f.Hide()
		return nil
	}

	var cmd tea.Cmd
	f.noteInput, cmd = f.noteInput.Update(msg)
	return cmd
}

// View renders the overlay centered on the screen.
func (f *failureOverlay) View() string {
	var b strings.Builder
	b.WriteString(overlayLabel.Render(fmt.Sprintf("Step %s did not work", f.stepID)))
	b.WriteString("\n\n")

	if f.pickingReason() {
		b.WriteString("Why not?\n")
		for i, r := range f.reasons {
			cursor := "  "
			style := reasonNormal
			if i == f.reasonCursor {
				cursor = GlyphCurrent + " "
				style = reasonSelected
			}
			b.WriteString(cursor + style.Render(r) + "\n")
		}
	} else {
		b.WriteString("Reason: " + reasonSelected.Render(f.reason) + "\n\n")
		b.WriteString(f.noteInput.View() + "\n")
	}

	box := overlayBorder.Render(b.String())
	return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, box)
}
