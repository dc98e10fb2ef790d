package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultIgnorePrefixes names the control entries skipped while loading a
// template source.
var DefaultIgnorePrefixes = []string{".git"}

// Register holds the named top-level fragments of a template source. It is
// read-only after loading except through Rescan.
type Register struct {
	mu        sync.RWMutex
	fsys      fs.FS
	root      string
	ignore    []string
	logger    *slog.Logger
	templates map[string]*Fragment
}

type RegisterOption func(*Register)

func WithIgnorePrefixes(prefixes ...string) RegisterOption {
	return func(r *Register) {
		r.ignore = prefixes
	}
}

func WithRegisterLogger(logger *slog.Logger) RegisterOption {
	return func(r *Register) {
		r.logger = logger
	}
}

// LoadDir loads the template source rooted at an OS directory.
func LoadDir(dir string, opts ...RegisterOption) (*Register, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template path %q: %w", dir, err)
	}
	absPath, err = filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template path %q: %w", dir, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat template path %q: %w", absPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotTemplateSource, absPath)
	}
	return Load(os.DirFS(absPath), ".", opts...)
}

// Load walks root inside fsys and registers every top-level directory as a
// template. Any unreadable entry fails the whole load.
func Load(fsys fs.FS, root string, opts ...RegisterOption) (*Register, error) {
	r := &Register{
		fsys:   fsys,
		root:   path.Clean(root),
		ignore: DefaultIgnorePrefixes,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	templates, err := r.scan()
	if err != nil {
		return nil, err
	}
	r.templates = templates
	r.logger.Debug("registered templates", "root", r.root, "count", len(templates))
	return r, nil
}

// NewRegister builds a register from fragments constructed in memory.
func NewRegister(fragments ...*Fragment) (*Register, error) {
	r := &Register{
		logger:    slog.Default(),
		templates: make(map[string]*Fragment, len(fragments)),
	}
	for _, frag := range fragments {
		if err := r.add(r.templates, frag.Clone()); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Rescan reloads the template source. The current templates are replaced
// only when the reload succeeds.
func (r *Register) Rescan() error {
	if r.fsys == nil {
		return errors.New("register has no template source to rescan")
	}
	templates, err := r.scan()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = templates
	r.mu.Unlock()
	return nil
}

// Get returns a deep copy of the registered template. Raw ("@+show+@") and
// bare ("show") names address the same template.
func (r *Register) Get(name string) (*Fragment, error) {
	key := ParseSegment(name).Base

	r.mu.RLock()
	frag, ok := r.templates[key]
	r.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return frag.Clone(), nil
}

func (r *Register) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[ParseSegment(name).Base]
	return ok
}

// Names returns the registered base names in canonical order.
func (r *Register) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})
	return names
}

// Templates returns deep copies of every registered template, sorted the
// same way a resolved schema is.
func (r *Register) Templates() []*Fragment {
	r.mu.RLock()
	out := make([]*Fragment, 0, len(r.templates))
	for _, frag := range r.templates {
		out = append(out, frag.Clone())
	}
	r.mu.RUnlock()

	SortFragments(out)
	for _, frag := range out {
		SortTree(frag)
	}
	return out
}

func (r *Register) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

func (r *Register) add(templates map[string]*Fragment, frag *Fragment) error {
	key := frag.Name.Base
	if _, exists := templates[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTemplate, key)
	}
	templates[key] = frag
	return nil
}

func (r *Register) scan() (map[string]*Fragment, error) {
	entries, err := fs.ReadDir(r.fsys, r.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read template source %q: %w", r.root, err)
	}

	templates := make(map[string]*Fragment, len(entries))
	for _, entry := range entries {
		if r.ignored(entry.Name()) {
			continue
		}

		entryPath := path.Join(r.root, entry.Name())
		info, err := fs.Stat(r.fsys, entryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat template %q: %w", entryPath, err)
		}
		if !info.IsDir() {
			r.logger.Debug("skipping top-level file in template source", "path", entryPath)
			continue
		}

		children, err := r.scanDir(entryPath)
		if err != nil {
			return nil, err
		}

		frag := &Fragment{
			Name:       ParseSegment(entry.Name()),
			IsFolder:   true,
			Permission: info.Mode() & ModeMask,
			Children:   children,
		}
		if err := r.add(templates, frag); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

// scanDir mirrors dir into fragments, subdirectories ahead of files.
func (r *Register) scanDir(dir string) ([]*Fragment, error) {
	entries, err := fs.ReadDir(r.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory %q: %w", dir, err)
	}

	var folders, files []*Fragment
	for _, entry := range entries {
		if r.ignored(entry.Name()) {
			continue
		}

		entryPath := path.Join(dir, entry.Name())
		info, err := fs.Stat(r.fsys, entryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat template entry %q: %w", entryPath, err)
		}

		frag := &Fragment{
			Name:       ParseSegment(entry.Name()),
			Permission: info.Mode() & ModeMask,
		}

		if info.IsDir() {
			frag.IsFolder = true
			frag.Children, err = r.scanDir(entryPath)
			if err != nil {
				return nil, err
			}
			if frag.Children == nil {
				frag.Children = []*Fragment{}
			}
			folders = append(folders, frag)
			continue
		}

		frag.Content, err = fs.ReadFile(r.fsys, entryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read template file %q: %w", entryPath, err)
		}
		files = append(files, frag)
	}

	return append(folders, files...), nil
}

func (r *Register) ignored(name string) bool {
	for _, prefix := range r.ignore {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
