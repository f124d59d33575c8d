// Package corpus loads and serves the troubleshooting article collection.
// Articles are YAML files in a single directory, validated at load time so
// the engine never sees a malformed article. All access is synchronous and
// already-resolved — the engine performs no I/O of its own.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ormasoftchile/stepwise/pkg/retrieval"
	"github.com/ormasoftchile/stepwise/pkg/schema"
)

// Store holds the loaded article corpus. Safe for concurrent reads; the
// watcher is the only writer.
type Store struct {
	dir string

	mu       sync.RWMutex
	articles []*schema.Article // stable file-name order
	byID     map[string]*schema.Article
	programs map[string]*vm.Program // compiled applies_when, keyed by article id
}

// Open loads every article file in dir. Any invalid article fails the whole
// load — a corpus with malformed documents is rejected up front rather than
// surfacing surprises mid-session.
func Open(dir string) (*Store, error) {
	s := &Store{
		dir:      dir,
		byID:     make(map[string]*schema.Article),
		programs: make(map[string]*vm.Program),
	}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the directory this store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// Get returns the article with the given id, or nil.
func (s *Store) Get(id string) *schema.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

// All returns every loaded article in stable file-name order.
func (s *Store) All() []*schema.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*schema.Article, len(s.articles))
	copy(out, s.articles)
	return out
}

// Search ranks the corpus against a free-text query. Thin wrapper over the
// retrieval scorer, which stays usable standalone.
func (s *Store) Search(query string, opts retrieval.Options) ([]retrieval.Result, bool) {
	return retrieval.Search(query, s.All(), opts)
}

// Applicable filters the corpus by each article's applies_when expression
// evaluated against the given facts (e.g. product, version, platform).
// Articles without an expression are always applicable; an expression that
// fails to evaluate excludes its article rather than erroring the caller.
func (s *Store) Applicable(facts map[string]any) []*schema.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*schema.Article
	for _, a := range s.articles {
		prog, ok := s.programs[a.ID]
		if !ok {
			out = append(out, a)
			continue
		}
		res, err := expr.Run(prog, facts)
		if err != nil {
			continue
		}
		if applies, ok := res.(bool); ok && applies {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of loaded articles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}

// loadAll reads and validates every article file in the directory.
func (s *Store) loadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read corpus directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isArticleFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var articles []*schema.Article
	byID := make(map[string]*schema.Article)
	programs := make(map[string]*vm.Program)
	var problems []string

	for _, name := range names {
		path := filepath.Join(s.dir, name)
		a, errs := schema.ValidateFile(path)
		if schema.HasErrors(errs) {
			for _, e := range errs {
				if e.Severity == "error" {
					problems = append(problems, fmt.Sprintf("%s: %v", name, e))
				}
			}
			continue
		}
		if existing, dup := byID[a.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate article id %q (already defined as %q)", name, a.ID, existing.Title))
			continue
		}
		if a.AppliesWhen != "" {
			prog, err := expr.Compile(a.AppliesWhen, expr.AsBool(), expr.AllowUndefinedVariables())
			if err != nil {
				// Unreachable for articles that passed domain validation.
				problems = append(problems, fmt.Sprintf("%s: applies_when: %v", name, err))
				continue
			}
			programs[a.ID] = prog
		}
		articles = append(articles, a)
		byID[a.ID] = a
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid articles in %s:\n  %s", s.dir, strings.Join(problems, "\n  "))
	}

	s.mu.Lock()
	s.articles = articles
	s.byID = byID
	s.programs = programs
	s.mu.Unlock()
	return nil
}

// reloadFile revalidates a single article file and swaps it into the corpus.
// Used by the watcher; an invalid update is reported, not applied.
func (s *Store) reloadFile(path string) (*schema.Article, error) {
	a, errs := schema.ValidateFile(path)
	if schema.HasErrors(errs) {
		var msgs []string
		for _, e := range errs {
			if e.Severity == "error" {
				msgs = append(msgs, e.Error())
			}
		}
		return nil, fmt.Errorf("%s: %s", filepath.Base(path), strings.Join(msgs, "; "))
	}

	var prog *vm.Program
	if a.AppliesWhen != "" {
		p, err := expr.Compile(a.AppliesWhen, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("%s: applies_when: %w", filepath.Base(path), err)
		}
		prog = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byID[a.ID]; ok {
		for i, cur := range s.articles {
			if cur == existing {
				s.articles[i] = a
				break
			}
		}
	} else {
		s.articles = append(s.articles, a)
	}
	s.byID[a.ID] = a
	if prog != nil {
		s.programs[a.ID] = prog
	} else {
		delete(s.programs, a.ID)
	}
	return a, nil
}

func isArticleFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
