package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTemplateNotFound  = errors.New("template not found in register")
	ErrDuplicateTemplate = errors.New("duplicate template name")
	ErrReferenceCycle    = errors.New("reference cycle")
	ErrNotTemplateSource = errors.New("template source is not a directory")
)

type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found in register", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrTemplateNotFound
}

// CycleError lists the chain of references that led back to a template
// already being expanded.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("reference cycle: %s", strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrReferenceCycle
}
