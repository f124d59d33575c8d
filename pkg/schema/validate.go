package schema

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location (e.g., "steps[0].text")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// HasErrors reports whether any entry has severity "error" (warnings alone
// do not fail validation).
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}

// ValidateFile performs the full 3-phase validation pipeline on an article file.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
func ValidateFile(path string) (*Article, []*ValidationError) {
	a, err := LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{{
			Phase:    "structural",
			Message:  err.Error(),
			Severity: "error",
		}}
	}
	return a, Validate(a)
}

// Validate runs the semantic and domain phases on an already-decoded article.
func Validate(a *Article) []*ValidationError {
	var allErrors []*ValidationError
	allErrors = append(allErrors, validateSemantic(a)...)
	allErrors = append(allErrors, ValidateDomain(a)...)
	return allErrors
}

// validateSemantic validates the article against the generated JSON Schema.
func validateSemantic(a *Article) []*ValidationError {
	data, err := json.Marshal(a)
	if err != nil {
		return semanticFailure(fmt.Sprintf("marshal for schema validation: %v", err))
	}

	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return semanticFailure(fmt.Sprintf("generate schema: %v", err))
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return semanticFailure(fmt.Sprintf("unmarshal schema: %v", err))
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("article-v1.json", schemaDoc); err != nil {
		return semanticFailure(fmt.Sprintf("add schema resource: %v", err))
	}
	sch, err := c.Compile("article-v1.json")
	if err != nil {
		return semanticFailure(fmt.Sprintf("compile schema: %v", err))
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return semanticFailure(fmt.Sprintf("unmarshal document: %v", err))
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &ValidationError{
					Phase:    "semantic",
					Path:     strings.Join(cause.InstanceLocation, "/"),
					Message:  fmt.Sprintf("%v", cause.ErrorKind),
					Severity: "error",
				})
			}
		} else {
			errs = semanticFailure(err.Error())
		}
		return errs
	}
	return nil
}

func semanticFailure(msg string) []*ValidationError {
	return []*ValidationError{{
		Phase:    "semantic",
		Message:  msg,
		Severity: "error",
	}}
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// ValidateDomain performs Phase 3 domain-level validation.
// Returns a slice of errors; empty means valid.
func ValidateDomain(a *Article) []*ValidationError {
	var errs []*ValidationError

	addErr := func(path, msg string) {
		errs = append(errs, &ValidationError{Phase: "domain", Path: path, Message: msg, Severity: "error"})
	}
	addWarn := func(path, msg string) {
		errs = append(errs, &ValidationError{Phase: "domain", Path: path, Message: msg, Severity: "warning"})
	}

	if a.APIVersion != "article/v1" {
		addErr("apiVersion", fmt.Sprintf("unrecognized apiVersion %q, expected %q", a.APIVersion, "article/v1"))
	}
	if a.ID == "" {
		addErr("id", "article id must not be empty")
	}
	if a.Title == "" {
		addErr("title", "article title must not be empty")
	}

	if len(a.Steps) == 0 {
		addWarn("steps", "article has no main steps; starting it completes immediately")
	}
	errs = append(errs, validateSteps(a.Steps, "steps")...)

	if len(a.Tags) == 0 && len(a.Keywords) == 0 {
		addWarn("tags", "article has no tags or keywords; retrieval will never rank it above zero")
	}

	// Fallback IDs are path tags — must be unique and must not shadow "main".
	seenFallbacks := make(map[string]bool)
	for i, fb := range a.Fallbacks {
		fbPath := fmt.Sprintf("fallbacks[%d]", i)
		if fb.ID == "" {
			addErr(fbPath+".id", "fallback id must not be empty")
		}
		if fb.ID == PathMain {
			addErr(fbPath+".id", fmt.Sprintf("fallback id %q shadows the main path tag", PathMain))
		}
		if seenFallbacks[fb.ID] {
			addErr(fbPath+".id", fmt.Sprintf("duplicate fallback id %q", fb.ID))
		}
		seenFallbacks[fb.ID] = true

		if !slices.Contains(ReasonCategories, fb.Reason) {
			addErr(fbPath+".reason", fmt.Sprintf("unknown reason category %q, expected one of %s",
				fb.Reason, strings.Join(ReasonCategories, ", ")))
		}
		if len(fb.Steps) == 0 {
			addErr(fbPath+".steps", "fallback must declare at least one step")
		}
		errs = append(errs, validateSteps(fb.Steps, fbPath+".steps")...)
	}

	if a.Escalation.When == "" {
		addErr("escalation.when", "escalation when-condition must not be empty")
	}
	if a.Escalation.Target == "" {
		addErr("escalation.target", "escalation target must not be empty")
	}

	// applies_when must compile; evaluation happens against corpus facts.
	if a.AppliesWhen != "" {
		if _, err := expr.Compile(a.AppliesWhen, expr.AsBool(), expr.AllowUndefinedVariables()); err != nil {
			addErr("applies_when", fmt.Sprintf("invalid applies_when expression: %v", err))
		}
	}

	return errs
}

// validateSteps checks step ids (non-empty, unique within the path), step
// text and the optional type tag.
func validateSteps(steps []Step, basePath string) []*ValidationError {
	var errs []*ValidationError
	seen := make(map[string]bool)
	for i, s := range steps {
		path := fmt.Sprintf("%s[%d]", basePath, i)
		if s.ID == "" {
			errs = append(errs, &ValidationError{
				Phase: "domain", Path: path + ".id",
				Message: "step id must not be empty", Severity: "error",
			})
		}
		if seen[s.ID] {
			errs = append(errs, &ValidationError{
				Phase: "domain", Path: path + ".id",
				Message: fmt.Sprintf("duplicate step id %q within path", s.ID), Severity: "error",
			})
		}
		seen[s.ID] = true
		if strings.TrimSpace(s.Text) == "" {
			errs = append(errs, &ValidationError{
				Phase: "domain", Path: path + ".text",
				Message: "step text must not be empty", Severity: "error",
			})
		}
		if s.Type != "" && s.Type != "action" && s.Type != "check" {
			errs = append(errs, &ValidationError{
				Phase: "domain", Path: path + ".type",
				Message: fmt.Sprintf("unknown step type %q, expected action or check", s.Type), Severity: "error",
			})
		}
	}
	return errs
}
