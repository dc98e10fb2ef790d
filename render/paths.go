// Package render materializes flattened schema paths into concrete paths
// by substituting variable values.
package render

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cpcf/strata/schema"
)

var ErrMissingSubstitution = errors.New("missing substitution")

type MissingSubstitutionError struct {
	Entry string
	Key   string
}

func (e *MissingSubstitutionError) Error() string {
	return fmt.Sprintf("%s: no value for %q", e.Entry, e.Key)
}

func (e *MissingSubstitutionError) Unwrap() error {
	return ErrMissingSubstitution
}

// Materialized is a path entry with its variables filled in. Path is
// relative to whatever root the plan is executed against.
type Materialized struct {
	Path       string
	IsFolder   bool
	Content    []byte
	Permission fs.FileMode
	Entry      schema.PathEntry
}

// Skipped records an entry that could not be materialized.
type Skipped struct {
	Entry schema.PathEntry
	Err   error
}

// Plan is the ordered outcome of materializing a schema.
type Plan struct {
	Entries []Materialized
	Skipped []Skipped
}

func (p *Plan) Paths() []string {
	paths := make([]string, len(p.Entries))
	for i, entry := range p.Entries {
		paths[i] = entry.Path
	}
	return paths
}

// MissingKeys returns the distinct variable names that caused skips.
func (p *Plan) MissingKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, skip := range p.Skipped {
		var missing *MissingSubstitutionError
		if errors.As(skip.Err, &missing) && !seen[missing.Key] {
			seen[missing.Key] = true
			keys = append(keys, missing.Key)
		}
	}
	return keys
}

type Materializer struct {
	logger    *slog.Logger
	separator string
}

func NewMaterializer(logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		logger:    logger,
		separator: string(filepath.Separator),
	}
}

// WithSeparator returns a copy of the materializer joining segments with sep.
func (m *Materializer) WithSeparator(sep string) *Materializer {
	clone := *m
	clone.separator = sep
	return &clone
}

// Template renders entry with "{name}" placeholders for its variables.
func (m *Materializer) Template(entry schema.PathEntry) string {
	parts := make([]string, len(entry.Segments))
	for i, seg := range entry.Segments {
		if seg.Variable {
			parts[i] = "{" + seg.Base + "}"
			continue
		}
		parts[i] = seg.Base
	}
	return strings.Join(parts, m.separator)
}

// Materialize substitutes data into every entry. An entry needing a key
// that is absent or empty in data is skipped and recorded; the rest still
// materialize. Repeated concrete paths keep their first occurrence.
func (m *Materializer) Materialize(entries []schema.PathEntry, data map[string]string) *Plan {
	plan := &Plan{}
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		path, err := m.substitute(entry, data)
		if err != nil {
			m.logger.Warn("path skipped", "entry", entry.String(), "error", err)
			plan.Skipped = append(plan.Skipped, Skipped{Entry: entry, Err: err})
			continue
		}

		if seen[path] {
			m.logger.Debug("duplicate path suppressed", "path", path)
			continue
		}
		seen[path] = true

		plan.Entries = append(plan.Entries, Materialized{
			Path:       path,
			IsFolder:   entry.IsFolder,
			Content:    entry.Content,
			Permission: entry.Permission,
			Entry:      entry,
		})
	}
	return plan
}

func (m *Materializer) substitute(entry schema.PathEntry, data map[string]string) (string, error) {
	parts := make([]string, len(entry.Segments))
	for i, seg := range entry.Segments {
		if !seg.Variable {
			parts[i] = seg.Base
			continue
		}
		value, ok := data[seg.Base]
		if !ok || value == "" {
			return "", &MissingSubstitutionError{Entry: m.Template(entry), Key: seg.Base}
		}
		parts[i] = value
	}
	return strings.Join(parts, m.separator), nil
}
