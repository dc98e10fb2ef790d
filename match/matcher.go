package match

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/cpcf/strata/schema"
)

var groupNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Matcher is the regular expression form of one path entry.
type Matcher struct {
	Entry   schema.PathEntry
	Pattern string
	// groups maps a capture group name to the variable it captures.
	groups map[string]string
}

// Result maps variable names to the values parsed out of a path.
type Result map[string]string

// Canonical renders the result as "k=v" pairs sorted by key.
func (r Result) Canonical() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + r[k]
	}
	return strings.Join(pairs, ",")
}

type Parser struct {
	logger    *slog.Logger
	variables Variables
	cache     *PatternCache
	separator string
}

type Option func(*Parser)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

func WithVariables(vars Variables) Option {
	return func(p *Parser) {
		p.variables = vars
	}
}

func WithCache(cache *PatternCache) Option {
	return func(p *Parser) {
		p.cache = cache
	}
}

// WithSeparator overrides the platform path separator.
func WithSeparator(sep string) Option {
	return func(p *Parser) {
		p.separator = sep
	}
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger:    slog.Default(),
		variables: DefaultVariables(),
		cache:     NewPatternCache(),
		separator: string(filepath.Separator),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildMatchers returns one matcher per entry, in entry order.
func (p *Parser) BuildMatchers(entries []schema.PathEntry) []Matcher {
	matchers := make([]Matcher, len(entries))
	for i, entry := range entries {
		matchers[i] = p.buildMatcher(entry)
	}
	return matchers
}

// buildMatcher anchors the pattern at the start of the path and requires it
// to end on a separator or at the end of input, so a matcher accepts its
// own path and anything below it but never half a segment.
func (p *Parser) buildMatcher(entry schema.PathEntry) Matcher {
	m := Matcher{Entry: entry, groups: make(map[string]string)}

	parts := make([]string, len(entry.Segments))
	for i, seg := range entry.Segments {
		if !seg.Variable {
			parts[i] = regexp.QuoteMeta(seg.Base)
			continue
		}
		group := p.groupName(seg.Base, i, m.groups)
		m.groups[group] = seg.Base
		parts[i] = fmt.Sprintf("(?P<%s>%s)", group, p.variables.Class(seg.Base))
	}

	sep := regexp.QuoteMeta(p.separator)
	m.Pattern = "^" + strings.Join(parts, sep) + "(?:" + sep + "|$)"
	return m
}

func (p *Parser) groupName(variable string, index int, taken map[string]string) string {
	if groupNameRe.MatchString(variable) {
		if _, used := taken[variable]; !used {
			return variable
		}
	}
	return fmt.Sprintf("v%d", index)
}

// Parse matches path against every matcher in order and returns the unique
// non-empty results, sorted in descending canonical order. A variable that
// appears twice in one path must capture the same value both times.
func (p *Parser) Parse(path string, matchers []Matcher) ([]Result, error) {
	path = filepath.Clean(path)

	seen := make(map[string]bool)
	var results []Result
	for _, m := range matchers {
		re, err := p.cache.Get(m.Pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile matcher for %s: %w", m.Entry, err)
		}

		result, ok := m.match(re, path)
		if !ok || len(result) == 0 {
			continue
		}

		key := result.Canonical()
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, result)
		p.logger.Debug("path matched", "path", path, "pattern", m.Pattern, "result", key)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Canonical() > results[j].Canonical()
	})
	return results, nil
}

func (m Matcher) match(re *regexp.Regexp, path string) (Result, bool) {
	sub := re.FindStringSubmatch(path)
	if sub == nil {
		return nil, false
	}

	result := make(Result, len(m.groups))
	for i, group := range re.SubexpNames() {
		variable, ok := m.groups[group]
		if !ok {
			continue
		}
		if prev, exists := result[variable]; exists && prev != sub[i] {
			return nil, false
		}
		result[variable] = sub[i]
	}
	return result, true
}
