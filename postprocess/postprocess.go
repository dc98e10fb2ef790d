// Package postprocess transforms file content between materialization and
// writing, so template files can be normalized as they land on disk.
//
//	chain := postprocess.NewChain()
//	chain.Add(processors.NewGoImports())
//	chain.Add(postprocess.ForExtensions(processors.NewYAMLFormat(), ".yaml", ".yml"))
package postprocess

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Processor transforms the content of one file. Implementations must be
// safe for concurrent use and return content unchanged for files they do
// not handle.
type Processor interface {
	ProcessContent(filePath string, content []byte) ([]byte, error)
}

type ProcessorFunc func(filePath string, content []byte) ([]byte, error)

func (f ProcessorFunc) ProcessContent(filePath string, content []byte) ([]byte, error) {
	return f(filePath, content)
}

// ForExtensions restricts p to files whose extension matches one of exts,
// compared case-insensitively. Other files pass through untouched.
func ForExtensions(p Processor, exts ...string) Processor {
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[strings.ToLower(ext)] = true
	}
	return ProcessorFunc(func(filePath string, content []byte) ([]byte, error) {
		if !allowed[strings.ToLower(filepath.Ext(filePath))] {
			return content, nil
		}
		return p.ProcessContent(filePath, content)
	})
}

// Chain runs processors in the order they were added.
type Chain struct {
	processors []Processor
}

func NewChain(processors ...Processor) *Chain {
	c := &Chain{processors: make([]Processor, 0, len(processors))}
	for _, p := range processors {
		c.Add(p)
	}
	return c
}

func (c *Chain) Add(processor Processor) {
	c.processors = append(c.processors, processor)
}

func (c *Chain) AddFunc(fn func(filePath string, content []byte) ([]byte, error)) {
	c.processors = append(c.processors, ProcessorFunc(fn))
}

// Process stops at the first failing processor.
func (c *Chain) Process(filePath string, content []byte) ([]byte, error) {
	result := content
	for i, processor := range c.processors {
		processed, err := processor.ProcessContent(filePath, result)
		if err != nil {
			return nil, fmt.Errorf("processor %d failed for %s: %w", i, filePath, err)
		}
		result = processed
	}
	return result, nil
}

func (c *Chain) HasProcessors() bool {
	return c != nil && len(c.processors) > 0
}

func (c *Chain) Len() int {
	return len(c.processors)
}

func (c *Chain) Clear() {
	c.processors = c.processors[:0]
}
