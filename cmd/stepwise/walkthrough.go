package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/stepwise/pkg/schema"
)

// --- walkthrough ---

var walkthroughOut string

var walkthroughCmd = &cobra.Command{
	Use:   "walkthrough [article.yaml]",
	Short: "Generate a step-by-step walkthrough document for an article",
	Long: `Analyze an article and produce a structured Markdown walkthrough with
its main path, fallback paths, trigger keywords and escalation guidance.

The walkthrough is generated from static analysis of the article YAML —
no session runs. Use 'stepwise guide' for an interactive session.`,
	Args: cobra.ExactArgs(1),
	RunE: runWalkthrough,
}

func runWalkthrough(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	a, errs := schema.ValidateFile(filePath)
	if schema.HasErrors(errs) {
		for _, e := range errs {
			if e.Severity != "warning" {
				fmt.Fprintf(os.Stderr, "  [%s] %s\n", e.Phase, e.Message)
			}
		}
		return fmt.Errorf("article validation failed")
	}

	outPath := walkthroughOut
	if outPath == "" {
		dir := filepath.Dir(filePath)
		base := strings.TrimSuffix(strings.TrimSuffix(filepath.Base(filePath), ".yaml"), ".yml")
		outPath = filepath.Join(dir, "walkthrough-"+base+".md")
	}

	var sb strings.Builder
	writeWalkthroughHeader(&sb, a)
	writeMainPath(&sb, a)
	writeFallbackPaths(&sb, a)
	writeEscalation(&sb, a)

	if err := os.WriteFile(outPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write walkthrough: %w", err)
	}

	fmt.Printf("✓ Walkthrough generated: %s\n", outPath)
	fmt.Printf("  %d main steps, %d fallback path(s)\n", len(a.Steps), len(a.Fallbacks))
	return nil
}

func writeWalkthroughHeader(sb *strings.Builder, a *schema.Article) {
	fmt.Fprintf(sb, "# %s\n\n", a.Title)
	fmt.Fprintf(sb, "**Article:** `%s`", a.ID)
	if a.Product != "" {
		fmt.Fprintf(sb, "  **Product:** %s", a.Product)
	}
	if a.Version != "" {
		fmt.Fprintf(sb, "  **Version:** %s", a.Version)
	}
	sb.WriteString("\n\n")
	if len(a.Tags) > 0 {
		fmt.Fprintf(sb, "Tags: %s\n\n", strings.Join(a.Tags, ", "))
	}
	if a.Summary != "" {
		fmt.Fprintf(sb, "%s\n\n", a.Summary)
	}
	if a.AppliesWhen != "" {
		fmt.Fprintf(sb, "Applies when: `%s`\n\n", a.AppliesWhen)
	}
	if len(a.Prechecks) > 0 {
		sb.WriteString("## Before you start\n\n")
		for _, p := range a.Prechecks {
			fmt.Fprintf(sb, "- %s\n", p)
		}
		sb.WriteString("\n")
	}
}

func writeMainPath(sb *strings.Builder, a *schema.Article) {
	sb.WriteString("## Steps\n\n")
	for i, s := range a.Steps {
		fmt.Fprintf(sb, "%d. %s", i+1, s.Text)
		if s.Type == "check" {
			sb.WriteString(" *(check)*")
		}
		sb.WriteString("\n")
		if s.ExpectedResult != "" {
			fmt.Fprintf(sb, "   - Expected: %s\n", s.ExpectedResult)
		}
	}
	sb.WriteString("\n")
	if len(a.StopWhen) > 0 {
		sb.WriteString("Stop when:\n\n")
		for _, c := range a.StopWhen {
			fmt.Fprintf(sb, "- %s\n", c)
		}
		sb.WriteString("\n")
	}
}

func writeFallbackPaths(sb *strings.Builder, a *schema.Article) {
	if len(a.Fallbacks) == 0 {
		return
	}
	sb.WriteString("## If that didn't work\n\n")
	for _, fb := range a.Fallbacks {
		fmt.Fprintf(sb, "### %s (reason: %s)\n\n", fb.ID, fb.Reason)
		if len(fb.TriggerKeywords) > 0 {
			fmt.Fprintf(sb, "Triggers: %s\n\n", strings.Join(fb.TriggerKeywords, ", "))
		}
		for i, s := range fb.Steps {
			fmt.Fprintf(sb, "%d. %s\n", i+1, s.Text)
			if s.ExpectedResult != "" {
				fmt.Fprintf(sb, "   - Expected: %s\n", s.ExpectedResult)
			}
		}
		sb.WriteString("\n")
	}
}

func writeEscalation(sb *strings.Builder, a *schema.Article) {
	sb.WriteString("## Escalation\n\n")
	fmt.Fprintf(sb, "When: %s\n\n", a.Escalation.When)
	fmt.Fprintf(sb, "Contact: %s\n", a.Escalation.Target)
}

func init() {
	walkthroughCmd.Flags().StringVar(&walkthroughOut, "out", "", "Output path (default: walkthrough-<article>.md next to the input)")
	rootCmd.AddCommand(walkthroughCmd)
}
