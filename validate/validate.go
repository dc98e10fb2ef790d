// Package validate checks a template register for problems that would
// only surface when a template is resolved or built.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/cpcf/strata/match"
	"github.com/cpcf/strata/schema"
)

type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

type Issue struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Template   string `json:"template"`
	Path       string `json:"path,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(i.Template)
	if i.Path != "" {
		b.WriteString(": " + i.Path)
	}
	b.WriteString(": " + i.Message)
	if i.Suggestion != "" {
		b.WriteString(" (" + i.Suggestion + ")")
	}
	return b.String()
}

type Validator struct {
	register  *schema.Register
	resolver  *schema.Resolver
	variables match.Variables
	strict    bool
}

func NewValidator(register *schema.Register, resolver *schema.Resolver, variables match.Variables) *Validator {
	return &Validator{
		register:  register,
		resolver:  resolver,
		variables: variables,
	}
}

// SetStrict also reports variables that fall back to the default class.
func (v *Validator) SetStrict(strict bool) {
	v.strict = strict
}

// ValidateAll checks every registered template.
func (v *Validator) ValidateAll() Result {
	result := Result{Valid: true}
	for _, name := range v.register.Names() {
		v.validate(name, &result)
	}
	return result
}

func (v *Validator) ValidateTemplate(name string) Result {
	result := Result{Valid: true}
	v.validate(name, &result)
	return result
}

func (v *Validator) validate(name string, result *Result) {
	raw, err := v.register.Get(name)
	if err != nil {
		result.addError(Issue{
			Type:       "missing_template",
			Message:    err.Error(),
			Template:   name,
			Suggestion: v.suggest(name),
		})
		return
	}

	v.validateNames(name, raw, result)
	v.validateReferences(name, raw, result)

	resolved, err := v.resolver.ResolveTemplate(name)
	if err != nil {
		var cycle *schema.CycleError
		if errors.As(err, &cycle) {
			result.addError(Issue{
				Type:       "reference_cycle",
				Message:    cycle.Error(),
				Template:   name,
				Suggestion: "Remove one of the references in the chain",
			})
		}
		// Missing references were already reported from the raw tree.
		return
	}

	entries := schema.Flatten(resolved)
	v.validateDuplicates(name, entries, result)
	if v.strict {
		v.validateVariables(name, entries, result)
	}
}

func (v *Validator) validateNames(name string, raw *schema.Fragment, result *Result) {
	path := make([]string, 0, 8)
	raw.Walk(func(node *schema.Fragment, depth int) bool {
		path = append(path[:depth], node.Name.String())
		base := node.Name.Base

		if base == "" {
			result.addError(Issue{
				Type:       "empty_name",
				Message:    "segment has markers but no name",
				Template:   name,
				Path:       strings.Join(path, "/"),
				Suggestion: "Name the folder between its markers",
			})
		} else if strings.TrimSpace(base) != base {
			result.addWarning(Issue{
				Type:       "whitespace_name",
				Message:    fmt.Sprintf("name %q has leading or trailing whitespace", base),
				Template:   name,
				Path:       strings.Join(path, "/"),
				Suggestion: "Trim the name",
			})
		}
		if node.IsPlaceholder() && !node.IsFolder {
			result.addWarning(Issue{
				Type:     "file_reference",
				Message:  "a file carries a reference marker and is replaced by the referenced template",
				Template: name,
				Path:     strings.Join(path, "/"),
			})
		}
		return true
	})
}

func (v *Validator) validateReferences(name string, raw *schema.Fragment, result *Result) {
	for _, child := range raw.Children {
		child.Walk(func(node *schema.Fragment, _ int) bool {
			if !node.IsPlaceholder() || v.register.Has(node.Name.Base) {
				return true
			}
			result.addError(Issue{
				Type:       "missing_reference",
				Message:    fmt.Sprintf("reference %s names no registered template", node.Name),
				Template:   name,
				Path:       node.Name.String(),
				Suggestion: v.suggest(node.Name.Base),
			})
			return true
		})
	}
}

func (v *Validator) validateDuplicates(name string, entries []schema.PathEntry, result *Result) {
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		key := entry.String()
		if seen[key] {
			result.addWarning(Issue{
				Type:       "duplicate_path",
				Message:    "path appears more than once after resolution; only the first is built",
				Template:   name,
				Path:       key,
				Suggestion: "Rename one of the siblings or drop the local copy",
			})
			continue
		}
		seen[key] = true
	}
}

func (v *Validator) validateVariables(name string, entries []schema.PathEntry, result *Result) {
	reported := make(map[string]bool)
	for _, entry := range entries {
		for _, variable := range entry.Variables() {
			if _, ok := v.variables[variable]; ok || reported[variable] {
				continue
			}
			reported[variable] = true
			result.addWarning(Issue{
				Type:       "unknown_variable",
				Message:    fmt.Sprintf("variable %q uses the default class %s", variable, match.DefaultClass),
				Template:   name,
				Path:       entry.String(),
				Suggestion: "Declare a class for it under variables",
			})
		}
	}
}

// suggest names the registered template closest to name, if any is close.
func (v *Validator) suggest(name string) string {
	best, bestDist := "", len(name)/2+1
	for _, candidate := range v.register.Names() {
		if d := levenshtein.Distance(strings.ToLower(name), strings.ToLower(candidate), nil); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if best == "" {
		return fmt.Sprintf("Add a top-level folder named @%s@", name)
	}
	return fmt.Sprintf("Did you mean %q?", best)
}

func (r *Result) addError(issue Issue) {
	r.Valid = false
	r.Errors = append(r.Errors, issue)
}

func (r *Result) addWarning(issue Issue) {
	r.Warnings = append(r.Warnings, issue)
}
