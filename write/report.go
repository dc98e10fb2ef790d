package write

import (
	"fmt"
	"strings"
)

type Op string

const (
	OpMkdir Op = "mkdir"
	OpWrite Op = "write"
	OpChmod Op = "chmod"
	OpSkip  Op = "skip"
)

type Status string

const (
	StatusCreated   Status = "created"
	StatusExists    Status = "exists"
	StatusWritten   Status = "written"
	StatusUnchanged Status = "unchanged"
	StatusUpdated   Status = "updated"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result is the outcome of one operation on one path.
type Result struct {
	Path   string
	Op     Op
	Status Status
	Err    error
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s %s %s: %v", r.Op, r.Status, r.Path, r.Err)
	}
	return fmt.Sprintf("%s %s %s", r.Op, r.Status, r.Path)
}

// Report collects every result of an execution, in execution order.
type Report struct {
	Root    string
	DryRun  bool
	Results []Result
}

func (r *Report) add(result Result) {
	r.Results = append(r.Results, result)
}

func (r *Report) Failures() []Result {
	var failed []Result
	for _, result := range r.Results {
		if result.Status == StatusFailed {
			failed = append(failed, result)
		}
	}
	return failed
}

func (r *Report) HasFailures() bool {
	for _, result := range r.Results {
		if result.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Count returns how many results of op ended in status. An empty op counts
// every operation.
func (r *Report) Count(op Op, status Status) int {
	n := 0
	for _, result := range r.Results {
		if (op == "" || result.Op == op) && result.Status == status {
			n++
		}
	}
	return n
}

// Filter returns the results for one operation, in execution order.
func (r *Report) Filter(op Op) []Result {
	var out []Result
	for _, result := range r.Results {
		if result.Op == op {
			out = append(out, result)
		}
	}
	return out
}

func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d folders created, %d existing, %d files written, %d unchanged, %d skipped, %d failed",
		r.Count(OpMkdir, StatusCreated),
		r.Count(OpMkdir, StatusExists),
		r.Count(OpWrite, StatusWritten),
		r.Count(OpWrite, StatusUnchanged),
		r.Count(OpSkip, StatusSkipped),
		r.Count("", StatusFailed))
	if r.DryRun {
		b.WriteString(" (dry run)")
	}
	return b.String()
}
