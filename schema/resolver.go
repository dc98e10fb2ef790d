package schema

import (
	"fmt"
	"log/slog"
	"slices"
)

// Store looks up registered templates. Implementations must return a copy
// the caller is free to modify.
type Store interface {
	Get(name string) (*Fragment, error)
}

// Resolver expands references between registered templates.
type Resolver struct {
	logger *slog.Logger
	store  Store
}

func NewResolver(logger *slog.Logger, store Store) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		logger: logger,
		store:  store,
	}
}

// ResolveTemplate returns the named template with every reference replaced
// by a copy of the referenced template, sorted canonically at every level.
// Local children of a placeholder are appended after the referenced
// template's own children. A reference back to a template that is already
// being expanded fails with ErrReferenceCycle.
func (r *Resolver) ResolveTemplate(name string) (*Fragment, error) {
	root, err := r.store.Get(name)
	if err != nil {
		return nil, err
	}

	resolved, err := r.expand(root, []string{root.Name.Base})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template %q: %w", name, err)
	}

	SortTree(resolved)
	return resolved, nil
}

// Expand resolves the references below an arbitrary fragment without
// sorting the result. It is exposed so the unsorted merge order can be
// inspected.
func (r *Resolver) Expand(f *Fragment) (*Fragment, error) {
	return r.expand(f, []string{f.Name.Base})
}

func (r *Resolver) expand(node *Fragment, chain []string) (*Fragment, error) {
	out := &Fragment{
		Name:       node.Name.Concrete(),
		IsFolder:   node.IsFolder,
		Permission: node.Permission,
		Content:    slices.Clone(node.Content),
	}
	if node.Children == nil {
		return out, nil
	}

	out.Children = make([]*Fragment, 0, len(node.Children))
	for _, child := range node.Children {
		expanded, err := r.expandChild(child, chain)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, expanded)
	}
	return out, nil
}

func (r *Resolver) expandChild(child *Fragment, chain []string) (*Fragment, error) {
	if child.IsPlaceholder() {
		return r.substitute(child, chain)
	}
	return r.expand(child, chain)
}

// substitute expands the template a placeholder points at and appends the
// placeholder's own children to it. Only the referenced template's children
// extend chain; the local children belong to the template holding the
// placeholder and are expanded under its chain.
func (r *Resolver) substitute(placeholder *Fragment, chain []string) (*Fragment, error) {
	base := placeholder.Name.Base
	if slices.Contains(chain, base) {
		return nil, &CycleError{Chain: append(slices.Clone(chain), base)}
	}

	fragment, err := r.store.Get(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reference %s: %w", placeholder.Name, err)
	}
	fragment.Name.Variable = fragment.Name.Variable || placeholder.Name.Variable

	merged, err := r.expand(fragment, append(slices.Clone(chain), base))
	if err != nil {
		return nil, err
	}
	for _, local := range placeholder.Children {
		expanded, err := r.expandChild(local, chain)
		if err != nil {
			return nil, err
		}
		merged.Children = append(merged.Children, expanded)
	}

	r.logger.Debug("substituted reference",
		"reference", placeholder.Name.String(),
		"children", len(merged.Children),
		"depth", len(chain))
	return merged, nil
}
