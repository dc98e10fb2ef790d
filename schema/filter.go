package schema

import "strings"

// Filter selects flattened paths. Empty criteria match everything.
type Filter struct {
	StartsWith string
	Contains   []string
	EndsWith   string
}

// sanitizeToken strips variable markers and one layer of enclosing braces,
// so "+shot+", "{shot}" and "shot" are the same criterion.
func sanitizeToken(token string) string {
	token = strings.ReplaceAll(token, string(VariableMarker), "")
	if len(token) >= 2 && strings.HasPrefix(token, "{") && strings.HasSuffix(token, "}") {
		token = token[1 : len(token)-1]
	}
	return token
}

func (f Filter) sanitized() Filter {
	out := Filter{
		StartsWith: sanitizeToken(f.StartsWith),
		EndsWith:   sanitizeToken(f.EndsWith),
	}
	for _, token := range f.Contains {
		if token = sanitizeToken(token); token != "" {
			out.Contains = append(out.Contains, token)
		}
	}
	return out
}

// Match reports whether entry satisfies every criterion: first segment
// equals StartsWith, last segment equals EndsWith, and each Contains token
// is a substring of at least one segment.
func (f Filter) Match(entry PathEntry) bool {
	return f.sanitized().match(entry)
}

func (f Filter) match(entry PathEntry) bool {
	if len(entry.Segments) == 0 {
		return false
	}
	if f.StartsWith != "" && entry.First().Base != f.StartsWith {
		return false
	}
	if f.EndsWith != "" && entry.Last().Base != f.EndsWith {
		return false
	}
	for _, token := range f.Contains {
		found := false
		for _, seg := range entry.Segments {
			if strings.Contains(seg.Base, token) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FindPath returns the first entry, in flattened order, that matches the
// filter. It is not necessarily the shortest match.
func FindPath(entries []PathEntry, filter Filter) (PathEntry, bool) {
	f := filter.sanitized()
	for _, entry := range entries {
		if f.match(entry) {
			return entry, true
		}
	}
	return PathEntry{}, false
}

// FindPath resolves and flattens the named template, then returns the
// first path that matches the filter.
func (r *Resolver) FindPath(filter Filter, name string) (PathEntry, bool, error) {
	resolved, err := r.ResolveTemplate(name)
	if err != nil {
		return PathEntry{}, false, err
	}

	entry, ok := FindPath(Flatten(resolved), filter)
	if !ok {
		r.logger.Debug("no path matches filter",
			"template", name,
			"starts_with", filter.StartsWith,
			"contains", filter.Contains,
			"ends_with", filter.EndsWith)
	}
	return entry, ok, nil
}
