// Package tui implements a terminal user interface for guided article
// walkthroughs, rendered as an interactive Bubble Tea app over a session.
package tui

import "github.com/charmbracelet/lipgloss"

// Step status glyphs — convey meaning without relying on color alone.
const (
	GlyphPending  = "○"
	GlyphCurrent  = "▸"
	GlyphDone     = "✓"
	GlyphFailed   = "✗"
	GlyphSkipped  = "⊘"
	GlyphTerminal = "■"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("255")
)

// --- Header styles ---

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var pathBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorYellow).
	Padding(0, 1)

// --- Step list styles ---

var (
	stepNormal = lipgloss.NewStyle().
			Foreground(colorWhite)

	stepCurrent = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	stepDone = lipgloss.NewStyle().
			Foreground(colorGreen)

	stepFailed = lipgloss.NewStyle().
			Foreground(colorRed)

	stepSkipped = lipgloss.NewStyle().
			Faint(true)
)

// --- Panel styles ---

var (
	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)

	panelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)
)

// --- Overlay styles ---

var (
	overlayBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorCyan).
			Padding(0, 1)

	overlayLabel = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	reasonSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	reasonNormal = lipgloss.NewStyle().
			Foreground(colorWhite)
)

// --- Key bar styles ---

var (
	keyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	keyBarStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// --- Terminal banner (completion or escalation) ---

var bannerStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(colorCyan).
	Foreground(colorCyan).
	Bold(true).
	Padding(0, 2).
	Align(lipgloss.Center)

var escalationStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(colorRed).
	Foreground(colorRed).
	Bold(true).
	Padding(0, 2).
	Align(lipgloss.Center)

// --- Error style ---

var errorStyle = lipgloss.NewStyle().
	Foreground(colorRed).
	Bold(true)
