package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/stepwise/pkg/corpus"
	"github.com/ormasoftchile/stepwise/pkg/guide"
	"github.com/ormasoftchile/stepwise/pkg/retrieval"
	"github.com/ormasoftchile/stepwise/pkg/schema"
	"github.com/ormasoftchile/stepwise/pkg/tui"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var corpusDir string

var rootCmd = &cobra.Command{
	Use:   "stepwise",
	Short: "Guided troubleshooting article engine",
	Long:  "stepwise — search a corpus of troubleshooting articles and walk through their steps with deterministic fallback resolution.",
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [article.yaml]",
	Short: "Validate an article YAML file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	a, errs := schema.ValidateFile(filePath)
	if len(errs) > 0 {
		var errors []*schema.ValidationError
		var warnings []*schema.ValidationError
		for _, e := range errs {
			if e.Severity == "warning" {
				warnings = append(warnings, e)
			} else {
				errors = append(errors, e)
			}
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", w.Phase, w.Message)
			if w.Path != "" {
				fmt.Fprintf(os.Stderr, "    at: %s\n", w.Path)
			}
		}
		if len(errors) > 0 {
			fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", len(errors))
			for i, e := range errors {
				fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
				if e.Path != "" {
					fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
				}
			}
			return fmt.Errorf("validation failed with %d error(s)", len(errors))
		}
	}
	fmt.Printf("✓ %s is valid (%d steps, %d fallbacks)\n", a.ID, len(a.Steps), len(a.Fallbacks))
	return nil
}

// --- search ---

var (
	searchLimit int
	searchFacts []string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Rank corpus articles against a problem description",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	store, err := corpus.Open(corpusDir)
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")

	candidates := store.All()
	if len(searchFacts) > 0 {
		facts, err := parseFacts(searchFacts)
		if err != nil {
			return err
		}
		candidates = store.Applicable(facts)
	}

	results, lowConfidence := retrieval.Search(query, candidates, retrieval.Options{Limit: searchLimit})

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No matching articles.")
		return nil
	}
	if lowConfidence {
		fmt.Println("⚠ Low-confidence matches; consider rephrasing the problem.")
	}
	for _, r := range results {
		fmt.Printf("  %s\n", retrieval.FormatResult(r))
	}
	return nil
}

// parseFacts turns repeated key=value flags into an evaluation environment.
func parseFacts(pairs []string) (map[string]any, error) {
	facts := make(map[string]any, len(pairs))
	for _, p := range pairs {
		parts := strings.SplitN(p, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --fact %q: expected key=value", p)
		}
		facts[parts[0]] = parts[1]
	}
	return facts, nil
}

// --- guide ---

var guideBaseDir string

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Launch the interactive guided REPL over the corpus",
	Args:  cobra.NoArgs,
	RunE:  runGuide,
}

func runGuide(cmd *cobra.Command, args []string) error {
	store, err := corpus.Open(corpusDir)
	if err != nil {
		return err
	}
	g := guide.New(store, guideBaseDir)
	return g.Run()
}

// --- tui ---

var tuiCmd = &cobra.Command{
	Use:   "tui [article-id]",
	Short: "Walk through an article in a full-screen terminal UI",
	Args:  cobra.ExactArgs(1),
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	store, err := corpus.Open(corpusDir)
	if err != nil {
		return err
	}
	return tui.Run(tui.Config{Store: store, ArticleID: args[0]})
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema operations",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the article JSON Schema to stdout",
	RunE:  runSchemaExport,
}

func runSchemaExport(cmd *cobra.Command, args []string) error {
	data, err := schema.GenerateJSONSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	var out json.RawMessage = data
	formatted, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(string(formatted))
	return nil
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stepwise %s (build: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&corpusDir, "corpus", "articles", "Directory of article YAML files")

	// search flags
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Max results (default 3)")
	searchCmd.Flags().StringArrayVar(&searchFacts, "fact", nil, "Environment fact for applies_when filtering (key=value), repeatable")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")

	// guide flags
	guideCmd.Flags().StringVar(&guideBaseDir, "state-dir", ".stepwise", "Directory for session snapshots")

	// schema subcommands
	schemaCmd.AddCommand(schemaExportCmd)

	// root subcommands
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(guideCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}
