package schema

import (
	"io/fs"
	"slices"
)

// DefaultPermission is the mode of fragments built with NewFolder or NewFile.
const DefaultPermission fs.FileMode = 0o777

// ModeMask selects the mode bits a fragment carries: the permission bits
// plus setuid, setgid and sticky.
const ModeMask = fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky

// Fragment is a node of a template: a folder with ordered children or a file
// with content. A fragment whose Name is a reference is a placeholder until
// the resolver replaces it.
type Fragment struct {
	Name       Segment
	IsFolder   bool
	Permission fs.FileMode
	Content    []byte
	Children   []*Fragment
}

// NewFolder builds a folder fragment from a raw, possibly marked, name.
func NewFolder(raw string, children ...*Fragment) *Fragment {
	return &Fragment{
		Name:       ParseSegment(raw),
		IsFolder:   true,
		Permission: DefaultPermission,
		Children:   children,
	}
}

// NewFile builds a file fragment from a raw, possibly marked, name.
func NewFile(raw string, content string) *Fragment {
	return &Fragment{
		Name:       ParseSegment(raw),
		Permission: DefaultPermission,
		Content:    []byte(content),
	}
}

// IsPlaceholder reports whether the fragment still stands in for a
// registered template.
func (f *Fragment) IsPlaceholder() bool {
	return f.Name.Reference
}

// Mode returns the permission and special bits of the fragment. A zero
// Permission is a real 0o000 mode.
func (f *Fragment) Mode() fs.FileMode {
	return f.Permission & ModeMask
}

// Clone returns a deep copy of the fragment and all of its descendants.
func (f *Fragment) Clone() *Fragment {
	if f == nil {
		return nil
	}
	dest := &Fragment{
		Name:       f.Name,
		IsFolder:   f.IsFolder,
		Permission: f.Permission,
		Content:    slices.Clone(f.Content),
	}
	if f.Children != nil {
		dest.Children = make([]*Fragment, len(f.Children))
		for i, child := range f.Children {
			dest.Children[i] = child.Clone()
		}
	}
	return dest
}

// Walk visits f and its descendants in pre-order. Returning false from fn
// stops descent into that node's children.
func (f *Fragment) Walk(fn func(node *Fragment, depth int) bool) {
	f.walk(fn, 0)
}

func (f *Fragment) walk(fn func(node *Fragment, depth int) bool, depth int) {
	if !fn(f, depth) {
		return
	}
	for _, child := range f.Children {
		child.walk(fn, depth+1)
	}
}
