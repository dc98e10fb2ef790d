package match

import (
	"regexp"
	"sync"
)

// PatternCache keeps compiled matcher patterns keyed by their source.
// Schemas are resolved fresh on every request; only the compiled regular
// expressions are reused.
type PatternCache struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

func NewPatternCache() *PatternCache {
	return &PatternCache{
		patterns: make(map[string]*regexp.Regexp),
	}
}

func (c *PatternCache) Get(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	if re, exists := c.patterns[pattern]; exists {
		c.mu.RUnlock()
		return re, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if re, exists := c.patterns[pattern]; exists {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	c.patterns[pattern] = re
	return re, nil
}

func (c *PatternCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.patterns)
}

func (c *PatternCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns = make(map[string]*regexp.Regexp)
}
