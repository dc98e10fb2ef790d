package engine

import (
	"io/fs"
	"log/slog"

	"github.com/cpcf/strata/postprocess"
	"github.com/cpcf/strata/schema"
	"github.com/go-git/go-billy/v5"
)

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTemplateDir loads templates from a directory on disk.
func WithTemplateDir(dir string) Option {
	return func(e *Engine) {
		e.source = func(opts ...schema.RegisterOption) (*schema.Register, error) {
			return schema.LoadDir(dir, opts...)
		}
	}
}

// WithTemplateFS loads templates from root inside fsys.
func WithTemplateFS(fsys fs.FS, root string) Option {
	return func(e *Engine) {
		e.source = func(opts ...schema.RegisterOption) (*schema.Register, error) {
			return schema.Load(fsys, root, opts...)
		}
	}
}

// WithRegister uses an already loaded register.
func WithRegister(register *schema.Register) Option {
	return func(e *Engine) {
		e.source = func(...schema.RegisterOption) (*schema.Register, error) {
			return register, nil
		}
	}
}

func WithIgnorePrefixes(prefixes ...string) Option {
	return func(e *Engine) {
		e.ignore = prefixes
	}
}

// WithVariables overrides the character class of named variables.
func WithVariables(classes map[string]string) Option {
	return func(e *Engine) {
		for name, class := range classes {
			e.classes[name] = class
		}
	}
}

// WithDefaultTemplate names the template used when a call passes "".
func WithDefaultTemplate(name string) Option {
	return func(e *Engine) {
		e.defaultTemplate = name
	}
}

func WithFailureMode(mode FailureMode) Option {
	return func(e *Engine) {
		e.failMode = mode
	}
}

// WithOutputFS builds into fsys instead of the local disk. Build roots are
// resolved inside it.
func WithOutputFS(fsys billy.Filesystem) Option {
	return func(e *Engine) {
		e.outputFS = fsys
	}
}

func WithDryRun(dryRun bool) Option {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

func WithSkipExisting(skip bool) Option {
	return func(e *Engine) {
		e.skipExisting = skip
	}
}

// WithManifest records a manifest at the root of every build.
func WithManifest(enabled bool) Option {
	return func(e *Engine) {
		e.manifest = enabled
	}
}

func WithPostProcessors(processors ...postprocess.Processor) Option {
	return func(e *Engine) {
		for _, p := range processors {
			e.postprocessors.Add(p)
		}
	}
}

// WithSeparator joins materialized paths and splits parsed paths with sep
// instead of the platform separator.
func WithSeparator(sep string) Option {
	return func(e *Engine) {
		e.separator = sep
	}
}

// WithBackup copies every file a build is about to overwrite into dir,
// relative to the build root. An empty dir keeps backups next to the file.
func WithBackup(dir string) Option {
	return func(e *Engine) {
		e.backup = true
		e.backupDir = dir
	}
}
