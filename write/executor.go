package write

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/cpcf/strata/postprocess"
	"github.com/cpcf/strata/render"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
)

// ErrChmodUnsupported marks modes left unset on a filesystem without Chmod.
// memfs and osfs both support it.
var ErrChmodUnsupported = errors.New("filesystem does not support chmod")

// creationMode is used for new folders; template modes are applied after
// every entry exists.
const creationMode fs.FileMode = 0o777

type chmodder interface {
	Chmod(name string, mode fs.FileMode) error
}

// Executor creates the folders and files of a plan. Every failure is
// recorded against its entry and execution carries on with the rest.
type Executor struct {
	fs           billy.Filesystem
	dryRun       bool
	logger       *slog.Logger
	writer       Writer
	writeOptions WriteOptions
	processors   *postprocess.Chain
}

type ExecutorOption func(*Executor)

func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithWriter replaces the writer used for file entries.
func WithWriter(w Writer) ExecutorOption {
	return func(e *Executor) {
		e.writer = w
	}
}

// WithSkipExisting leaves files that already exist untouched.
func WithSkipExisting() ExecutorOption {
	return func(e *Executor) {
		e.writer = NewSkipIfExistsWriter(e.fs, e.writer)
	}
}

func WithWriteOptions(options WriteOptions) ExecutorOption {
	return func(e *Executor) {
		e.writeOptions = options
	}
}

// WithProcessors runs file content through chain before it is written.
func WithProcessors(chain *postprocess.Chain) ExecutorOption {
	return func(e *Executor) {
		e.processors = chain
	}
}

func NewExecutor(fsys billy.Filesystem, opts ...ExecutorOption) *Executor {
	e := &Executor{
		fs:           fsys,
		logger:       slog.Default(),
		writer:       NewBaseWriter(fsys),
		writeOptions: DefaultWriteOptions(),
		processors:   postprocess.NewChain(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewOSExecutor builds plans under root on the local disk.
func NewOSExecutor(root string, opts ...ExecutorOption) *Executor {
	return NewExecutor(osfs.New(root), opts...)
}

// NewDryRunExecutor runs plans against an empty in-memory filesystem, so
// the report shows what a build would do without touching disk.
func NewDryRunExecutor(opts ...ExecutorOption) *Executor {
	e := NewExecutor(memfs.New(), opts...)
	e.dryRun = true
	return e
}

func (e *Executor) Filesystem() billy.Filesystem {
	return e.fs
}

// Execute creates every folder, writes every file, and then applies the
// template modes in reverse plan order so that restrictive parent modes
// are set after their children.
func (e *Executor) Execute(plan *render.Plan) *Report {
	report := &Report{Root: e.fs.Root(), DryRun: e.dryRun}

	for _, skip := range plan.Skipped {
		report.add(Result{Path: skip.Entry.String(), Op: OpSkip, Status: StatusSkipped, Err: skip.Err})
	}

	for _, entry := range plan.Entries {
		if entry.IsFolder {
			report.add(e.mkdir(entry))
		} else {
			report.add(e.writeFile(entry))
		}
	}

	for i := len(plan.Entries) - 1; i >= 0; i-- {
		report.add(e.chmod(plan.Entries[i]))
	}

	e.logger.Info("plan executed",
		"root", report.Root,
		"dry_run", report.DryRun,
		"entries", len(plan.Entries),
		"skipped", len(plan.Skipped),
		"failed", len(report.Failures()))
	return report
}

func (e *Executor) mkdir(entry render.Materialized) Result {
	result := Result{Path: entry.Path, Op: OpMkdir}

	if info, err := e.fs.Stat(entry.Path); err == nil {
		if !info.IsDir() {
			result.Status = StatusFailed
			result.Err = fmt.Errorf("%s exists and is not a folder", entry.Path)
			e.logger.Warn("failed to create folder", "path", entry.Path, "error", result.Err)
			return result
		}
		e.logger.Debug("folder exists", "path", entry.Path)
		result.Status = StatusExists
		return result
	}

	if err := e.fs.MkdirAll(entry.Path, creationMode); err != nil {
		e.logger.Warn("failed to create folder", "path", entry.Path, "error", err)
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	e.logger.Debug("created folder", "path", entry.Path)
	result.Status = StatusCreated
	return result
}

func (e *Executor) writeFile(entry render.Materialized) Result {
	result := Result{Path: entry.Path, Op: OpWrite}
	content := entry.Content

	if e.processors.HasProcessors() {
		processed, err := e.processors.Process(entry.Path, content)
		if err != nil {
			e.logger.Warn("post-processing failed", "path", entry.Path, "error", err)
		} else {
			content = processed
		}
	}

	needed, err := e.writer.NeedsWrite(entry.Path, content)
	if err != nil {
		e.logger.Warn("failed to compare file", "path", entry.Path, "error", err)
		needed = true
	}
	if !needed {
		e.logger.Debug("file unchanged", "path", entry.Path)
		result.Status = StatusUnchanged
		return result
	}

	if err := e.writer.Write(entry.Path, content, e.writeOptions); err != nil {
		e.logger.Warn("failed to write file", "path", entry.Path, "error", err)
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	e.logger.Debug("wrote file", "path", entry.Path, "bytes", len(content))
	result.Status = StatusWritten
	return result
}

func (e *Executor) chmod(entry render.Materialized) Result {
	result := Result{Path: entry.Path, Op: OpChmod}

	err := e.setMode(entry)
	if errors.Is(err, ErrChmodUnsupported) {
		result.Status = StatusSkipped
		result.Err = err
		return result
	}
	if err != nil {
		e.logger.Warn("failed to set permission",
			"path", entry.Path,
			"mode", entry.Permission.String(),
			"error", err)
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	e.logger.Debug("set permission", "path", entry.Path, "mode", entry.Permission.String())
	result.Status = StatusUpdated
	return result
}

// setMode applies the template mode. memfs replaces the whole mode on
// Chmod, so folders keep their type bit; os.Chmod ignores it.
func (e *Executor) setMode(entry render.Materialized) error {
	ch, ok := e.fs.(chmodder)
	if !ok {
		return ErrChmodUnsupported
	}
	mode := entry.Permission
	if entry.IsFolder {
		mode |= fs.ModeDir
	}
	return ch.Chmod(entry.Path, mode)
}
