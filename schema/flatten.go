package schema

import (
	"io/fs"
	"strings"
)

// PathEntry is one node of a resolved schema, addressed by its path from
// the root. Variable segments keep their flag for later substitution.
type PathEntry struct {
	Segments   []Segment
	Permission fs.FileMode
	IsFolder   bool
	Content    []byte
}

// Names renders each segment, variables in "+name+" form.
func (p PathEntry) Names() []string {
	names := make([]string, len(p.Segments))
	for i, seg := range p.Segments {
		names[i] = seg.String()
	}
	return names
}

func (p PathEntry) String() string {
	return strings.Join(p.Names(), "/")
}

func (p PathEntry) First() Segment {
	if len(p.Segments) == 0 {
		return Segment{}
	}
	return p.Segments[0]
}

func (p PathEntry) Last() Segment {
	if len(p.Segments) == 0 {
		return Segment{}
	}
	return p.Segments[len(p.Segments)-1]
}

// Variables returns the variable names used along the path, in order.
func (p PathEntry) Variables() []string {
	var vars []string
	for _, seg := range p.Segments {
		if seg.Variable {
			vars = append(vars, seg.Base)
		}
	}
	return vars
}

// Flatten walks a resolved schema in pre-order. The root comes first; the
// children are visited in the order they already have.
func Flatten(root *Fragment) []PathEntry {
	var entries []PathEntry
	flatten(root, nil, &entries)
	return entries
}

func flatten(node *Fragment, parent []Segment, entries *[]PathEntry) {
	segments := make([]Segment, len(parent)+1)
	copy(segments, parent)
	segments[len(parent)] = node.Name.Concrete()

	*entries = append(*entries, PathEntry{
		Segments:   segments,
		Permission: node.Mode(),
		IsFolder:   node.IsFolder,
		Content:    node.Content,
	})

	for _, child := range node.Children {
		flatten(child, segments, entries)
	}
}
