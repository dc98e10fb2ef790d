// Package schema models template fragments and turns a register of named
// fragments into fully expanded, flattened directory schemas.
//
// A template source is a directory tree. Every top-level directory is a
// registered template; the name of any entry below it may carry two markers:
//
//	@name@     reference: replaced by a copy of the registered template "name"
//	+name+     variable: a placeholder filled in when a path is built or parsed
//	@+name+@   both: a reference to "name" whose segment is also a variable
//
// Markers may also be written as a bare prefix ("@name", "+name").
package schema

import "strings"

const (
	ReferenceMarker = '@'
	VariableMarker  = '+'
)

// Segment is one parsed path component. Markers are parsed once when a
// template source is loaded and carried as flags from then on.
type Segment struct {
	Base      string
	Reference bool
	Variable  bool
}

// ParseSegment splits the markers off a raw entry name.
func ParseSegment(raw string) Segment {
	var seg Segment
	s := raw
	if len(s) > 0 && s[0] == ReferenceMarker {
		seg.Reference = true
		s = strings.Trim(s, string(ReferenceMarker))
	}
	if len(s) > 0 && s[0] == VariableMarker {
		seg.Variable = true
		s = strings.Trim(s, string(VariableMarker))
	}
	seg.Base = s
	return seg
}

// Literal returns a plain segment with no markers.
func Literal(name string) Segment {
	return Segment{Base: name}
}

// Var returns a variable segment.
func Var(name string) Segment {
	return Segment{Base: name, Variable: true}
}

// Concrete drops the reference flag, keeping the variable flag.
func (s Segment) Concrete() Segment {
	s.Reference = false
	return s
}

// String renders the segment back in wrapped marker form.
func (s Segment) String() string {
	name := s.Base
	if s.Variable {
		name = string(VariableMarker) + name + string(VariableMarker)
	}
	if s.Reference {
		name = string(ReferenceMarker) + name + string(ReferenceMarker)
	}
	return name
}

// SortKey is the case-insensitive base name used by the canonical sort.
func (s Segment) SortKey() string {
	return strings.ToLower(s.Base)
}
