// Package schema defines the Go struct types for the troubleshooting
// article YAML schema and provides strict YAML parsing.
package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Reason categories for fallbacks. Closed set — validated at load time.
const (
	ReasonCantFindOption  = "cant-find-option"
	ReasonSystemError     = "system-error"
	ReasonPermissionIssue = "permission-issue"
	ReasonNoChange        = "no-change"
	ReasonOther           = "other"
)

// ReasonCategories lists every valid fallback reason category.
var ReasonCategories = []string{
	ReasonCantFindOption,
	ReasonSystemError,
	ReasonPermissionIssue,
	ReasonNoChange,
	ReasonOther,
}

// PathMain is the tag of an article's main step path.
const PathMain = "main"

// Article is the top-level document: a troubleshooting procedure with a
// main step path, optional fallback paths and terminal escalation guidance.
// Articles are immutable once loaded — the engine only reads them.
type Article struct {
	APIVersion  string     `yaml:"apiVersion"             json:"apiVersion"             jsonschema:"required,enum=article/v1"`
	ID          string     `yaml:"id"                     json:"id"                     jsonschema:"required"`
	Title       string     `yaml:"title"                  json:"title"                  jsonschema:"required"`
	Tags        []string   `yaml:"tags,omitempty"         json:"tags,omitempty"`
	Product     string     `yaml:"product,omitempty"      json:"product,omitempty"`
	Version     string     `yaml:"version,omitempty"      json:"version,omitempty"`
	Summary     string     `yaml:"summary,omitempty"      json:"summary,omitempty"`
	Keywords    []string   `yaml:"keywords,omitempty"     json:"keywords,omitempty"`
	AppliesWhen string     `yaml:"applies_when,omitempty" json:"applies_when,omitempty"`
	Prechecks   []string   `yaml:"prechecks,omitempty"    json:"prechecks,omitempty"`
	Steps       []Step     `yaml:"steps,omitempty"        json:"steps,omitempty"`
	Fallbacks   []Fallback `yaml:"fallbacks,omitempty"    json:"fallbacks,omitempty"`
	StopWhen    []string   `yaml:"stop_when,omitempty"    json:"stop_when,omitempty"`
	Escalation  Escalation `yaml:"escalation"             json:"escalation"             jsonschema:"required"`
}

// Step is a single instruction presented to the user.
type Step struct {
	ID             string `yaml:"id"                        json:"id"   jsonschema:"required"`
	Text           string `yaml:"text"                      json:"text" jsonschema:"required"`
	ExpectedResult string `yaml:"expected_result,omitempty" json:"expected_result,omitempty"`
	Type           string `yaml:"type,omitempty"            json:"type,omitempty" jsonschema:"enum=action,enum=check"`
}

// Fallback is an alternate step path taken when a main-path step fails.
// Reason classifies the failure it addresses; TriggerKeywords refine
// selection when several fallbacks share a reason.
type Fallback struct {
	ID              string   `yaml:"id"                         json:"id"     jsonschema:"required"`
	Reason          string   `yaml:"reason"                     json:"reason" jsonschema:"required,enum=cant-find-option,enum=system-error,enum=permission-issue,enum=no-change,enum=other"`
	TriggerKeywords []string `yaml:"trigger_keywords,omitempty" json:"trigger_keywords,omitempty"`
	Steps           []Step   `yaml:"steps"                      json:"steps"  jsonschema:"required"`
}

// Escalation is the terminal guidance returned when no fallback applies.
type Escalation struct {
	When   string `yaml:"when"   json:"when"   jsonschema:"required"`
	Target string `yaml:"target" json:"target" jsonschema:"required"`
}

// PathSteps returns the step sequence for a path tag: "main" for the main
// path, otherwise the steps of the fallback with that ID. Returns nil for
// an unknown tag.
func (a *Article) PathSteps(pathTag string) []Step {
	if pathTag == PathMain {
		return a.Steps
	}
	if fb := a.FindFallback(pathTag); fb != nil {
		return fb.Steps
	}
	return nil
}

// FindFallback returns the fallback with the given ID, or nil.
func (a *Article) FindFallback(id string) *Fallback {
	for i := range a.Fallbacks {
		if a.Fallbacks[i].ID == id {
			return &a.Fallbacks[i]
		}
	}
	return nil
}

// FindStep returns the step with the given ID searching the main path and
// every fallback path, or nil if absent.
func (a *Article) FindStep(id string) *Step {
	for i := range a.Steps {
		if a.Steps[i].ID == id {
			return &a.Steps[i]
		}
	}
	for fi := range a.Fallbacks {
		for si := range a.Fallbacks[fi].Steps {
			if a.Fallbacks[fi].Steps[si].ID == id {
				return &a.Fallbacks[fi].Steps[si]
			}
		}
	}
	return nil
}

// LoadFile reads and parses an article YAML file with strict unknown-field
// rejection. Returns the parsed Article or an error.
func LoadFile(path string) (*Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open article: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses an article from an io.Reader with strict unknown-field rejection.
func Load(r io.Reader) (*Article, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown fields

	var a Article
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode article: %w", err)
	}
	return &a, nil
}
