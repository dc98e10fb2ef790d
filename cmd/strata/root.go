package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cpcf/strata/config"
	"github.com/cpcf/strata/engine"
	"github.com/cpcf/strata/postprocess"
	"github.com/cpcf/strata/processors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "STRATA"

// app carries what every subcommand needs once the root command has loaded
// configuration.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	logger  *slog.Logger
	logFile *os.File
}

func newApp() *app {
	return &app{v: viper.New()}
}

// execute runs the command line and closes the log file however the
// command ends. cobra skips post-run hooks when a command fails.
func (a *app) execute(args []string, stdout, stderr io.Writer) error {
	defer a.close()

	cmd := a.newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

func (a *app) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "strata",
		Short:         "Build and parse folder structures from templates",
		Long:          `Strata resolves folder templates that reference each other, builds them on disk for a set of variable values, and recovers those values from existing paths.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to a strata.yaml configuration file")
	flags.String("templates", "", "Directory holding the templates")
	flags.String("default-template", "", "Template used when a command names none")
	flags.StringSlice("ignore", nil, "Name prefixes skipped while loading templates")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-file", "", "Write logs to this file instead of a temporary one")

	bindFlags(a.v, flags, map[string]string{
		"templates":        "template_search_path",
		"default-template": "default_template",
		"ignore":           "ignore_prefixes",
	})

	cmd.AddCommand(
		newListCmd(a),
		newTreeCmd(a),
		newPathsCmd(a),
		newBuildCmd(a),
		newParseCmd(a),
		newFindCmd(a),
		newValidateCmd(a),
	)
	return cmd
}

// bindFlags binds each flag to the viper key it overrides.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if f := flags.Lookup(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	defaults := config.Default()
	a.v.SetDefault("default_template", defaults.DefaultTemplate)
	a.v.SetDefault("ignore_prefixes", defaults.IgnorePrefixes)
	a.v.SetDefault("output.root", defaults.Output.Root)

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindEnv("template_search_path")

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := config.Default()
	if err := a.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	debug, _ := cmd.Flags().GetBool("debug")
	if env := os.Getenv(envPrefix + "_DEBUG"); env != "" && env != "0" {
		debug = true
	}
	logPath, _ := cmd.Flags().GetString("log-file")
	return a.setupLogging(cmd.ErrOrStderr(), debug, logPath)
}

// setupLogging writes text logs to stderr and to a log file, a fresh
// temporary one unless path names one.
func (a *app) setupLogging(stderr io.Writer, debug bool, path string) error {
	var (
		file *os.File
		err  error
	)
	if path == "" {
		file, err = os.CreateTemp("", "strata.*.log")
	} else {
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logFile = file

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(io.MultiWriter(stderr, file), &slog.HandlerOptions{Level: level}))
	a.logger.Info("logging to file", "path", file.Name())
	return nil
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

// engine builds an engine from the loaded configuration plus opts.
func (a *app) engine(opts ...engine.Option) (*engine.Engine, error) {
	cfg := a.cfg
	base := []engine.Option{
		engine.WithLogger(a.logger),
		engine.WithTemplateDir(cfg.TemplateSearchPath),
		engine.WithIgnorePrefixes(cfg.IgnorePrefixes...),
		engine.WithVariables(cfg.Variables),
		engine.WithDefaultTemplate(cfg.DefaultTemplate),
		engine.WithSkipExisting(cfg.Output.SkipExisting),
		engine.WithManifest(cfg.Output.Manifest),
		engine.WithDryRun(cfg.Output.DryRun),
		engine.WithPostProcessors(formatters(cfg.Output.Format)...),
	}
	if cfg.Output.Backup {
		base = append(base, engine.WithBackup(cfg.Output.BackupDir))
	}
	if cfg.Output.Strict {
		base = append(base, engine.WithFailureMode(engine.FailAtEnd))
	}
	return engine.New(append(base, opts...)...)
}

func formatters(names []string) []postprocess.Processor {
	var out []postprocess.Processor
	for _, name := range names {
		switch name {
		case config.FormatGo:
			out = append(out, processors.NewGoImports())
		case config.FormatYAML:
			out = append(out, processors.NewYAMLFormat())
		}
	}
	return out
}

// parseAssignments turns repeated "key=value" flags into a data map.
func parseAssignments(pairs []string) (map[string]string, error) {
	data := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", pair)
		}
		data[key] = value
	}
	return data, nil
}

func templateArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
