// Package processors holds the content processors a build can enable.
package processors

import (
	"fmt"
	"go/format"
	"path/filepath"
	"strings"

	"golang.org/x/tools/imports"
)

// GoImports formats Go source files written by a build and tidies their
// imports. Files that goimports rejects fall back to gofmt.
type GoImports struct {
	TabWidth  int
	TabIndent bool
	AllErrors bool
	Comments  bool
}

func NewGoImports() *GoImports {
	return &GoImports{
		TabWidth:  8,
		TabIndent: true,
		Comments:  true,
	}
}

func (g *GoImports) ProcessContent(filePath string, content []byte) ([]byte, error) {
	if strings.ToLower(filepath.Ext(filePath)) != ".go" {
		return content, nil
	}

	formatted, err := imports.Process(filePath, content, &imports.Options{
		AllErrors: g.AllErrors,
		Comments:  g.Comments,
		TabIndent: g.TabIndent,
		TabWidth:  g.TabWidth,
	})
	if err == nil {
		return formatted, nil
	}

	formatted, fmtErr := format.Source(content)
	if fmtErr != nil {
		return nil, fmt.Errorf("format %s: goimports: %w; gofmt: %w", filePath, err, fmtErr)
	}
	return formatted, nil
}
