// Package engine ties the template register, resolver, materializer,
// matcher and executor together behind one handle.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/cpcf/strata/match"
	"github.com/cpcf/strata/postprocess"
	"github.com/cpcf/strata/render"
	"github.com/cpcf/strata/schema"
	"github.com/cpcf/strata/state"
	"github.com/cpcf/strata/validate"
	"github.com/cpcf/strata/write"
	"github.com/go-git/go-billy/v5"
)

// DefaultTemplate is the template used when a call names none.
const DefaultTemplate = "show"

type FailureMode int

const (
	// BestEffort builds every entry it can and reports failures only in
	// the build report.
	BestEffort FailureMode = iota
	// FailAtEnd builds every entry it can, then returns a MultiError for
	// anything skipped or failed.
	FailAtEnd
	// FailFast refuses to touch the filesystem when any entry would be
	// skipped for a missing value.
	FailFast
)

type Engine struct {
	logger          *slog.Logger
	source          func(...schema.RegisterOption) (*schema.Register, error)
	ignore          []string
	classes         map[string]string
	defaultTemplate string
	failMode        FailureMode
	outputFS        billy.Filesystem
	dryRun          bool
	skipExisting    bool
	manifest        bool
	backup          bool
	backupDir       string
	separator       string
	postprocessors  *postprocess.Chain

	variables    match.Variables
	register     *schema.Register
	resolver     *schema.Resolver
	materializer *render.Materializer
	parser       *match.Parser
}

func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:          slog.Default(),
		ignore:          schema.DefaultIgnorePrefixes,
		classes:         make(map[string]string),
		defaultTemplate: DefaultTemplate,
		failMode:        BestEffort,
		separator:       string(filepath.Separator),
		postprocessors:  postprocess.NewChain(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.source == nil {
		return nil, ErrNoTemplateSource
	}

	variables := match.DefaultVariables().Merge(e.classes)
	if err := variables.Validate(); err != nil {
		return nil, err
	}

	register, err := e.source(
		schema.WithIgnorePrefixes(e.ignore...),
		schema.WithRegisterLogger(e.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	e.variables = variables
	e.register = register
	e.resolver = schema.NewResolver(e.logger, register)
	e.materializer = render.NewMaterializer(e.logger).WithSeparator(e.separator)
	e.parser = match.NewParser(
		match.WithLogger(e.logger),
		match.WithVariables(variables),
		match.WithSeparator(e.separator),
	)

	e.logger.Debug("engine ready", "templates", register.Len())
	return e, nil
}

func (e *Engine) Register() *schema.Register {
	return e.register
}

// Templates lists the registered template names in canonical order.
func (e *Engine) Templates() []string {
	return e.register.Names()
}

// Rescan reloads the template source. The previous templates stay in
// place when the reload fails.
func (e *Engine) Rescan() error {
	return e.register.Rescan()
}

func (e *Engine) templateName(name string) string {
	if name == "" {
		return e.defaultTemplate
	}
	return name
}

// ResolveTemplate returns the fully expanded, canonically ordered schema of
// the named template.
func (e *Engine) ResolveTemplate(name string) (*schema.Fragment, error) {
	return e.resolver.ResolveTemplate(e.templateName(name))
}

// Flatten returns the resolved template as path entries in pre-order.
func (e *Engine) Flatten(name string) ([]schema.PathEntry, error) {
	root, err := e.ResolveTemplate(name)
	if err != nil {
		return nil, err
	}
	return schema.Flatten(root), nil
}

// FindPath returns the first entry of the named template that matches
// filter.
func (e *Engine) FindPath(filter schema.Filter, name string) (schema.PathEntry, bool, error) {
	return e.resolver.FindPath(filter, e.templateName(name))
}

// Plan materializes the named template with data without touching any
// filesystem.
func (e *Engine) Plan(name string, data map[string]string) (*render.Plan, error) {
	entries, err := e.Flatten(name)
	if err != nil {
		return nil, err
	}
	return e.materializer.Materialize(entries, data), nil
}

// Build materializes the named template with data under root. The report
// is returned even when the error is not nil.
func (e *Engine) Build(root, name string, data map[string]string) (*write.Report, error) {
	name = e.templateName(name)

	plan, err := e.Plan(name, data)
	if err != nil {
		return nil, err
	}

	if e.failMode == FailFast && len(plan.Skipped) > 0 {
		var multiErr MultiError
		for _, skip := range plan.Skipped {
			multiErr.Add(skip.Entry.String(), "missing value", skip.Err)
		}
		return nil, &multiErr
	}

	executor, err := e.executor(root)
	if err != nil {
		return nil, err
	}

	e.logger.Info("building template", "template", name, "root", root, "dry_run", e.dryRun)
	report := executor.Execute(plan)

	if e.manifest && !e.dryRun {
		if err := e.recordManifest(executor.Filesystem(), name, data, plan, report); err != nil {
			e.logger.Warn("failed to record manifest", "root", root, "error", err)
		}
	}

	e.logger.Info("build finished", "template", name, "summary", report.Summary())

	if e.failMode == BestEffort {
		return report, nil
	}

	var multiErr MultiError
	for _, result := range report.Results {
		switch {
		case result.Op == write.OpSkip:
			multiErr.Add(result.Path, "skipped", result.Err)
		case result.Status == write.StatusFailed:
			multiErr.Add(result.Path, string(result.Op)+" failed", result.Err)
		}
	}
	if multiErr.HasErrors() {
		return report, &multiErr
	}
	return report, nil
}

func (e *Engine) executor(root string) (*write.Executor, error) {
	opts := []write.ExecutorOption{
		write.WithLogger(e.logger),
		write.WithProcessors(e.postprocessors),
	}
	if e.backup {
		options := write.DefaultWriteOptions()
		options.Backup = true
		options.BackupDir = e.backupDir
		opts = append(opts, write.WithWriteOptions(options))
	}
	if e.skipExisting {
		opts = append(opts, write.WithSkipExisting())
	}

	switch {
	case e.dryRun:
		return write.NewDryRunExecutor(opts...), nil
	case e.outputFS != nil:
		fsys, err := e.outputFS.Chroot(root)
		if err != nil {
			return nil, fmt.Errorf("failed to open build root %q: %w", root, err)
		}
		return write.NewExecutor(fsys, opts...), nil
	default:
		return write.NewOSExecutor(root, opts...), nil
	}
}

func (e *Engine) recordManifest(fsys billy.Filesystem, name string, data map[string]string, plan *render.Plan, report *write.Report) error {
	mm := state.NewManifestManager(fsys)
	manifest := state.NewManifest(name, data)
	if err := mm.Record(manifest, plan, report); err != nil {
		return err
	}
	if err := mm.Save(manifest); err != nil {
		return err
	}
	e.logger.Debug("manifest saved", "build_id", manifest.BuildID, "entries", len(manifest.Entries))
	return nil
}

// Parse recovers every variable mapping under which the named template
// could have produced path, in descending canonical order.
func (e *Engine) Parse(path, name string) ([]match.Result, error) {
	entries, err := e.Flatten(name)
	if err != nil {
		return nil, err
	}
	return e.parser.Parse(path, e.parser.BuildMatchers(entries))
}

// ParseInto decodes the most specific parse result for path into out: the
// one binding the most variables, earliest in parse order on a tie.
func (e *Engine) ParseInto(path, name string, out any) error {
	results, err := e.Parse(path, name)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("%w: %s", ErrNoMatch, path)
	}

	best := results[0]
	for _, result := range results[1:] {
		if len(result) > len(best) {
			best = result
		}
	}
	return match.Decode(best, out)
}

// Validate checks the named template, or every template when name is "".
// Strict also warns about variables without a configured class.
func (e *Engine) Validate(name string, strict bool) validate.Result {
	v := validate.NewValidator(e.register, e.resolver, e.variables)
	v.SetStrict(strict)
	if name == "" {
		return v.ValidateAll()
	}
	return v.ValidateTemplate(name)
}

// IsNotFound reports whether err came from an unknown template name.
func IsNotFound(err error) bool {
	return errors.Is(err, schema.ErrTemplateNotFound)
}
