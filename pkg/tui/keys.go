package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds all TUI key bindings.
type keyMap struct {
	Advance key.Binding
	Back    key.Binding
	Fail    key.Binding
	Up      key.Binding
	Down    key.Binding
	Quit    key.Binding
	Help    key.Binding
}

var keys = keyMap{
	Advance: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "done, advance"),
	),
	Back: key.NewBinding(
		key.WithKeys("b", "left"),
		key.WithHelp("b", "back"),
	),
	Fail: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "report failure"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "browse up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "browse down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
}

// keyBarText renders the context-sensitive key hint string.
func keyBarText(completed bool, overlay overlayKind) string {
	switch overlay {
	case overlayReason:
		return keyStyle.Render("↑↓") + keyDescStyle.Render(":select") + "  " +
			keyStyle.Render("Enter") + keyDescStyle.Render(":choose") + "  " +
			keyStyle.Render("Esc") + keyDescStyle.Render(":cancel")
	case overlayNote:
		return keyStyle.Render("Enter") + keyDescStyle.Render(":submit") + "  " +
			keyStyle.Render("Esc") + keyDescStyle.Render(":cancel")
	}

	if completed {
		return keyStyle.Render("q") + keyDescStyle.Render(":quit")
	}
	return keyStyle.Render("enter") + keyDescStyle.Render(":done") + "  " +
		keyStyle.Render("b") + keyDescStyle.Render(":back") + "  " +
		keyStyle.Render("f") + keyDescStyle.Render(":fail") + "  " +
		keyStyle.Render("↑↓") + keyDescStyle.Render(":browse") + "  " +
		keyStyle.Render("q") + keyDescStyle.Render(":quit")
}
