package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/ormasoftchile/stepwise/pkg/corpus"
	"github.com/ormasoftchile/stepwise/pkg/fallback"
	"github.com/ormasoftchile/stepwise/pkg/runner"
	"github.com/ormasoftchile/stepwise/pkg/schema"
)

// --- Overlay state ---

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayReason
	overlayNote
)

// --- Model ---

// Model is the top-level Bubble Tea model for a guided walkthrough.
type Model struct {
	store   *corpus.Store
	session *runner.Session

	steps   stepsPanel
	failure failureOverlay

	completed  bool
	escalation *schema.Escalation
	statusLine string
	fatalErr   string

	width  int
	height int
}

// Config holds the parameters needed to launch the TUI.
type Config struct {
	Store     *corpus.Store
	ArticleID string
}

// Run starts the TUI for one article walkthrough.
func Run(cfg Config) error {
	article := cfg.Store.Get(cfg.ArticleID)
	if article == nil {
		return fmt.Errorf("unknown article: %q", cfg.ArticleID)
	}

	session := runner.NewSession(uuid.NewString())
	res := session.StartArticle(article)

	m := Model{
		store:     cfg.Store,
		session:   session,
		steps:     newStepsPanel(),
		failure:   newFailureOverlay(),
		completed: res.FirstStep == nil,
	}
	m.steps.Sync(session.Article, session.State)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init returns the initial command set; nothing runs in the background.
func (m Model) Init() tea.Cmd {
	return nil
}

// overlay reports which overlay stage is active, for the key bar.
func (m Model) overlay() overlayKind {
	if !m.failure.visible {
		return overlayNone
	}
	if m.failure.pickingReason() {
		return overlayReason
	}
	return overlayNote
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case failureReportMsg:
		m.applyFailure(msg)
	}

	return m, nil
}

// handleKey dispatches a key press to the overlay or the main bindings.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.failure.visible {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		cmd := m.failure.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Advance):
		if m.completed || m.escalation != nil {
			return m, nil
		}
		res := m.session.Continue()
		m.completed = res.Completed
		m.statusLine = ""
		m.steps.Sync(m.session.Article, m.session.State)

	case key.Matches(msg, keys.Back):
		if m.completed || m.escalation != nil {
			return m, nil
		}
		if res := m.session.Back(); !res.Success {
			m.statusLine = "Already at the first step"
		} else {
			m.statusLine = ""
		}
		m.steps.Sync(m.session.Article, m.session.State)

	case key.Matches(msg, keys.Fail):
		if m.completed || m.escalation != nil {
			return m, nil
		}
		cur := m.session.CurrentStep()
		if cur != nil {
			m.failure.Show(cur.ID)
		}

	case key.Matches(msg, keys.Up):
		m.steps.CursorUp()

	case key.Matches(msg, keys.Down):
		m.steps.CursorDown()
	}

	return m, nil
}

// applyFailure records the report and resolves the next path.
func (m *Model) applyFailure(report failureReportMsg) {
	m.session.RecordFailure(report.stepID, report.reason, report.note)

	sel := fallback.Select(m.session.Article, m.store.All(), report.reason, report.note)
	switch sel.Type {
	case fallback.TypeEscalation:
		m.escalation = sel.Escalation
	case fallback.TypeCrossArticle:
		m.statusLine = fmt.Sprintf("Switched to article %q, fallback %q", sel.Article.ID, sel.Fallback.ID)
		m.applySwitch(sel)
	default:
		m.statusLine = fmt.Sprintf("Switched to fallback %q", sel.Fallback.ID)
		m.applySwitch(sel)
	}
	m.steps.Sync(m.session.Article, m.session.State)
}

func (m *Model) applySwitch(sel fallback.Result) {
	res := m.session.SwitchToFallback(sel.Article, sel.Fallback)
	if n := m.session.ConsumeSkipped(); n > 0 {
		m.statusLine += fmt.Sprintf(" — %d step(s) already done", n)
	}
	m.completed = res.Completed
}

// layoutPanels recomputes panel dimensions from the window size.
func (m *Model) layoutPanels() {
	// Header, status line and key bar take three rows plus borders.
	h := m.height - 5
	if h < 3 {
		h = 3
	}
	listW := m.width * 2 / 5
	if listW < 24 {
		listW = 24
	}
	m.steps.width = listW
	m.steps.height = h
	m.failure.width = m.width
	m.failure.height = m.height
}

// View renders the full screen.
func (m Model) View() string {
	if m.fatalErr != "" {
		return errorStyle.Render("Error: " + m.fatalErr)
	}
	if m.failure.visible {
		return m.failure.View() + "\n" + keyBarStyle.Render(keyBarText(m.completed, m.overlay()))
	}

	header := m.viewHeader()
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.steps.View(), m.viewDetail())
	bar := keyBarStyle.Render(keyBarText(m.completed, overlayNone))

	parts := []string{header, body}
	if m.statusLine != "" {
		parts = append(parts, keyDescStyle.Render(" "+m.statusLine))
	}
	if m.escalation != nil {
		parts = append(parts, m.viewEscalation())
	} else if m.completed {
		parts = append(parts, m.viewCompleted())
	}
	parts = append(parts, bar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewHeader() string {
	title := headerStyle.Render(m.session.Article.Title)
	badge := pathBadgeStyle.Render(m.session.State.ActivePath)
	return lipgloss.JoinHorizontal(lipgloss.Center, title, " ", badge)
}

// viewDetail renders the browsed step's full text as markdown.
func (m Model) viewDetail() string {
	w := m.width - m.steps.width - 4
	if w < 20 {
		w = 20
	}
	text := m.steps.SelectedText()
	if text == "" {
		text = "*No step selected.*"
	}
	body := renderMarkdownWidth(text, w-2)
	title := panelTitle.Render("Current step")
	return panelBorder.Width(w).Height(m.steps.height).Render(title + "\n" + body)
}

func (m Model) viewCompleted() string {
	sum := m.session.Summary()
	_, done, failed, skipped := m.steps.Stats()
	lines := []string{
		GlyphTerminal + " Session complete",
		fmt.Sprintf("article %s, path %s", sum.ArticleID, sum.ActivePath),
		fmt.Sprintf("%d done, %d failed, %d skipped", done, failed, skipped),
	}
	return bannerStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewEscalation() string {
	lines := []string{
		GlyphTerminal + " Escalation",
		"When:   " + m.escalation.When,
		"Target: " + m.escalation.Target,
	}
	return escalationStyle.Render(strings.Join(lines, "\n"))
}
