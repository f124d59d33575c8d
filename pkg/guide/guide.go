// Package guide implements the interactive REPL for walking through
// troubleshooting articles step by step.
package guide

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/ormasoftchile/stepwise/pkg/corpus"
	"github.com/ormasoftchile/stepwise/pkg/fallback"
	"github.com/ormasoftchile/stepwise/pkg/runner"
	"github.com/ormasoftchile/stepwise/pkg/schema"
)

// Guide provides an interactive REPL over a corpus: search for an article,
// start it, and navigate its steps with next/back/fail.
type Guide struct {
	store   *corpus.Store
	session *runner.Session
	output  io.Writer
	rl      *readline.Instance
	baseDir string

	// Last fallback resolution, kept for the 'why' command.
	lastSelection *fallback.Result
	lastReason    string
	lastNote      string
}

// New creates a guide over the given corpus. Session snapshots are written
// under baseDir.
func New(store *corpus.Store, baseDir string) *Guide {
	return &Guide{
		store:   store,
		session: runner.NewSession(uuid.NewString()),
		output:  os.Stdout,
		baseDir: baseDir,
	}
}

// Session returns the underlying session for external inspection.
func (g *Guide) Session() *runner.Session {
	return g.session
}

// Run starts the interactive REPL loop.
func (g *Guide) Run() error {
	commands := []string{"search", "start", "next", "back", "fail",
		"why", "state", "history", "snapshot", "dump", "help", "quit"}

	var completer = readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children,
			readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          g.buildPrompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	g.rl = rl
	defer rl.Close()

	fmt.Fprintf(g.output, "stepwise guide — %d articles loaded\n", g.store.Len())
	fmt.Fprintf(g.output, "Type 'search <problem>' to find an article, 'help' for commands.\n\n")

	for {
		rl.SetPrompt(g.buildPrompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]

		switch cmd {
		case "search", "s":
			g.handleSearch(parts)
		case "start":
			g.handleStart(parts)
		case "next", "n":
			g.handleNext()
		case "back", "b":
			g.handleBack()
		case "fail", "f":
			g.handleFail(parts)
		case "why", "w":
			g.handleWhy()
		case "state":
			g.handleState()
		case "history", "h":
			g.handleHistory()
		case "snapshot":
			g.handleSnapshot()
		case "dump":
			g.handleDump()
		case "help", "?":
			g.handleHelp()
		case "quit", "q":
			fmt.Fprintf(g.output, "Exiting guide.\n")
			return nil
		default:
			fmt.Fprintf(g.output, "Unknown command: %q. Type 'help' for available commands.\n", cmd)
		}
	}
}

// buildPrompt creates the prompt string: stepwise[N/total | step_id]>
func (g *Guide) buildPrompt() string {
	if g.session.Article == nil {
		return "stepwise> "
	}
	steps := g.session.Article.PathSteps(g.session.State.ActivePath)
	idx := g.session.State.CurrentStepIndex
	if idx >= len(steps) {
		return "stepwise[done]> "
	}
	return fmt.Sprintf("stepwise[%d/%d | %s]> ", idx+1, len(steps), steps[idx].ID)
}

// printStep renders one step with its position in the active path.
func (g *Guide) printStep(step *schema.Step) {
	if step == nil {
		return
	}
	steps := g.session.Article.PathSteps(g.session.State.ActivePath)
	idx := g.session.State.CurrentStepIndex
	glyph := "▶"
	if step.Type == "check" {
		glyph = "?"
	}
	fmt.Fprintf(g.output, "%s [%d/%d] %s\n", glyph, idx+1, len(steps), step.Text)
}
