package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type projectConfig struct {
	Show    string            `yaml:"show"`
	Aliases map[string]string `yaml:"aliases"`
}

type checkedConfig struct {
	Show string `yaml:"show"`
}

func (c *checkedConfig) Validate() error {
	if c.Show == "" {
		return errors.New("show is required")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strata.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return path
}

func TestLoadYAML_Generic(t *testing.T) {
	path := writeConfig(t, `
show: rex
aliases:
  r: rex
`)

	var cfg projectConfig
	if err := LoadYAML(path, &cfg); err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}
	if cfg.Show != "rex" {
		t.Errorf("Expected show 'rex', got '%s'", cfg.Show)
	}
	if cfg.Aliases["r"] != "rex" {
		t.Errorf("Expected alias r -> rex, got '%s'", cfg.Aliases["r"])
	}
}

func TestLoadYAML_ValidationFailure(t *testing.T) {
	path := writeConfig(t, "aliases: {}\n")

	var cfg checkedConfig
	err := LoadYAML(path, &cfg)
	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	if err.Error() != "configuration validation failed: show is required" {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadYAML_FileNotExists(t *testing.T) {
	var cfg projectConfig
	err := LoadYAML("/nonexistent/strata.yaml", &cfg)
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadYAML_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: yaml: content: [")

	var cfg projectConfig
	if err := LoadYAML(path, &cfg); err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestLoadYAMLFromString(t *testing.T) {
	var cfg checkedConfig
	if err := LoadYAMLFromString("show: rex\n", &cfg); err != nil {
		t.Fatalf("Failed to load YAML from string: %v", err)
	}
	if cfg.Show != "rex" {
		t.Errorf("Expected show 'rex', got '%s'", cfg.Show)
	}

	if err := LoadYAMLFromString("show: [", &cfg); err == nil {
		t.Fatal("Expected error for invalid YAML string, got nil")
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
template_search_path: /studio/templates
variables:
  shot: "[a-z]{2}[0-9]{3}"
output:
  manifest: true
  backup: true
  backup_dir: .backup
  format: [go, yaml]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TemplateSearchPath != "/studio/templates" {
		t.Errorf("Unexpected template path %q", cfg.TemplateSearchPath)
	}
	if cfg.DefaultTemplate != "show" {
		t.Errorf("Expected default template 'show', got %q", cfg.DefaultTemplate)
	}
	if len(cfg.IgnorePrefixes) != 1 || cfg.IgnorePrefixes[0] != ".git" {
		t.Errorf("Expected default ignore prefixes, got %v", cfg.IgnorePrefixes)
	}
	if cfg.Output.Root != "." || !cfg.Output.Manifest || !cfg.Output.Backup || cfg.Output.BackupDir != ".backup" {
		t.Errorf("Unexpected output section %+v", cfg.Output)
	}
	if cfg.Variables["shot"] != "[a-z]{2}[0-9]{3}" {
		t.Errorf("Unexpected shot class %q", cfg.Variables["shot"])
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) { c.TemplateSearchPath = "/templates" },
		},
		{
			name:    "missing template path",
			mutate:  func(c *Config) {},
			wantErr: "template_search_path is required",
		},
		{
			name: "bad variable class",
			mutate: func(c *Config) {
				c.TemplateSearchPath = "/templates"
				c.Variables["shot"] = "[a-z"
			},
			wantErr: `invalid class for variable "shot"`,
		},
		{
			name: "unknown format",
			mutate: func(c *Config) {
				c.TemplateSearchPath = "/templates"
				c.Output.Format = []string{"toml"}
			},
			wantErr: `unknown output format "toml"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
