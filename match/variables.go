// Package match turns flattened schema paths into regular expressions and
// parses concrete paths back into variable values.
package match

import (
	"fmt"
	"maps"
	"regexp"
)

// DefaultClass is the character class for variables with no configured class.
const DefaultClass = "[a-zA-Z0-9_]+"

// Variables maps a variable name to the regex character class its values
// must match.
type Variables map[string]string

// DefaultVariables returns a fresh copy of the built-in classes.
func DefaultVariables() Variables {
	return Variables{
		"show":       "[a-zA-Z0-9_]+",
		"sequence":   "[a-zA-Z0-9_]+",
		"shot":       "[a-zA-Z0-9_]+",
		"department": "[a-z_]+",
	}
}

// Class returns the configured class for name, or DefaultClass.
func (v Variables) Class(name string) string {
	if class, ok := v[name]; ok && class != "" {
		return class
	}
	return DefaultClass
}

// Merge returns a copy of v with overrides applied on top.
func (v Variables) Merge(overrides map[string]string) Variables {
	out := maps.Clone(v)
	if out == nil {
		out = make(Variables, len(overrides))
	}
	maps.Copy(out, overrides)
	return out
}

// Validate checks that every class compiles on its own.
func (v Variables) Validate() error {
	for name, class := range v {
		if _, err := regexp.Compile(class); err != nil {
			return fmt.Errorf("invalid class for variable %q: %w", name, err)
		}
	}
	return nil
}
