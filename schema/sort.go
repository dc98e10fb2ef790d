package schema

import "sort"

// fragmentLess orders folders before files, then by case-insensitive base
// name. Markers never take part in the comparison.
func fragmentLess(a, b *Fragment) bool {
	if a.IsFolder != b.IsFolder {
		return a.IsFolder
	}
	return a.Name.SortKey() < b.Name.SortKey()
}

// SortFragments sorts a sibling list in canonical order. Ties keep their
// relative order.
func SortFragments(frags []*Fragment) {
	sort.SliceStable(frags, func(i, j int) bool {
		return fragmentLess(frags[i], frags[j])
	})
}

// SortTree applies the canonical order at every level below f, in place.
// Callers must own the tree.
func SortTree(f *Fragment) {
	if len(f.Children) == 0 {
		return
	}
	SortFragments(f.Children)
	for _, child := range f.Children {
		SortTree(child)
	}
}

// Sorted returns a canonically ordered deep copy of f.
func Sorted(f *Fragment) *Fragment {
	out := f.Clone()
	SortTree(out)
	return out
}
