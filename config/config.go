package config

import (
	"errors"
	"fmt"

	"github.com/cpcf/strata/match"
)

// Known post-processor names for Output.Format.
const (
	FormatGo   = "go"
	FormatYAML = "yaml"
)

type Config struct {
	TemplateSearchPath string            `yaml:"template_search_path" mapstructure:"template_search_path"`
	DefaultTemplate    string            `yaml:"default_template" mapstructure:"default_template"`
	Variables          map[string]string `yaml:"variables" mapstructure:"variables"`
	IgnorePrefixes     []string          `yaml:"ignore_prefixes" mapstructure:"ignore_prefixes"`
	Output             Output            `yaml:"output" mapstructure:"output"`
}

type Output struct {
	Root         string   `yaml:"root" mapstructure:"root"`
	SkipExisting bool     `yaml:"skip_existing" mapstructure:"skip_existing"`
	Manifest     bool     `yaml:"manifest" mapstructure:"manifest"`
	Backup       bool     `yaml:"backup" mapstructure:"backup"`
	BackupDir    string   `yaml:"backup_dir" mapstructure:"backup_dir"`
	DryRun       bool     `yaml:"dry_run" mapstructure:"dry_run"`
	Strict       bool     `yaml:"strict" mapstructure:"strict"`
	Format       []string `yaml:"format" mapstructure:"format"`
}

func Default() *Config {
	return &Config{
		DefaultTemplate: "show",
		Variables:       map[string]string{},
		IgnorePrefixes:  []string{".git"},
		Output: Output{
			Root: ".",
		},
	}
}

// Load reads path over the defaults, so keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := LoadYAML(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.TemplateSearchPath == "" {
		errs = append(errs, errors.New("template_search_path is required"))
	}
	if c.DefaultTemplate == "" {
		errs = append(errs, errors.New("default_template must not be empty"))
	}
	if err := match.DefaultVariables().Merge(c.Variables).Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, format := range c.Output.Format {
		if format != FormatGo && format != FormatYAML {
			errs = append(errs, fmt.Errorf("unknown output format %q", format))
		}
	}

	return errors.Join(errs...)
}
