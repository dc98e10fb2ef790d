package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoTemplateSource = errors.New("no template source configured")
	ErrNoMatch          = errors.New("path does not match template")
)

// BuildError is one entry of a build that did not complete.
type BuildError struct {
	Path    string
	Message string
	Err     error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

type MultiError struct {
	Errors []*BuildError
}

func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	msgs := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d entries failed:\n%s", len(m.Errors), strings.Join(msgs, "\n"))
}

// Unwrap exposes the entry errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	errs := make([]error, len(m.Errors))
	for i, err := range m.Errors {
		errs[i] = err
	}
	return errs
}

func (m *MultiError) Add(path, message string, err error) {
	m.Errors = append(m.Errors, &BuildError{
		Path:    path,
		Message: message,
		Err:     err,
	})
}

func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}
