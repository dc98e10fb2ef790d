package main

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplates(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, folder := range []string{
		"@+show+@/assets",
		"@+show+@/@+sequence+@",
		"@+sequence+@/@+shot+@",
		".git/objects",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, folder), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "@+show+@", "readme.txt"), []byte("show readme"), 0o644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--log-file", filepath.Join(t.TempDir(), "strata.log")}, args...)
	err := newApp().execute(args, &stdout, &stderr)
	return stdout.String(), err
}

func TestListCommand(t *testing.T) {
	out, err := run(t, "--templates", writeTemplates(t), "list")
	require.NoError(t, err)
	assert.Equal(t, "sequence\nshow\n", out)
}

func TestTemplatePathFromEnvironment(t *testing.T) {
	t.Setenv("STRATA_TEMPLATE_SEARCH_PATH", writeTemplates(t))

	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "sequence\nshow\n", out)
}

func TestMissingTemplatePath(t *testing.T) {
	_, err := run(t, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template_search_path is required")
}

func TestPathsCommand(t *testing.T) {
	templates := writeTemplates(t)

	out, err := run(t, "--templates", templates, "paths", "show")
	require.NoError(t, err)
	assert.Equal(t, "+show+\n+show+/assets\n+show+/+sequence+\n+show+/+sequence+/+shot+\n+show+/readme.txt\n", out)

	out, err = run(t, "--templates", templates, "paths", "--set", "show=rex")
	require.NoError(t, err)
	want := []string{"rex", filepath.Join("rex", "assets"), filepath.Join("rex", "readme.txt")}
	assert.Equal(t, want[0]+"\n"+want[1]+"\n"+want[2]+"\n", out)

	_, err = run(t, "--templates", templates, "paths", "--set", "show")
	assert.Error(t, err)
}

func TestBuildCommand(t *testing.T) {
	root := t.TempDir()

	out, err := run(t, "--templates", writeTemplates(t), "build", "show",
		"--root", root, "--set", "show=rex", "--set", "sequence=sq010", "--manifest")
	require.NoError(t, err)
	assert.Contains(t, out, "files written")

	content, err := os.ReadFile(filepath.Join(root, "rex", "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "show readme", string(content))
	assert.DirExists(t, filepath.Join(root, "rex", "sq010"))
	assert.NoDirExists(t, filepath.Join(root, "rex", "sq010", "sh010"))
	assert.FileExists(t, filepath.Join(root, ".strata.manifest.json"))
}

func TestBuildCommandStrict(t *testing.T) {
	_, err := run(t, "--templates", writeTemplates(t), "build", "show",
		"--root", t.TempDir(), "--set", "show=rex", "--strict")
	require.Error(t, err)
}

func TestBuildCommandDryRun(t *testing.T) {
	root := t.TempDir()

	out, err := run(t, "--templates", writeTemplates(t), "build",
		"--root", root, "--set", "show=rex", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "(dry run)")
	assert.NoDirExists(t, filepath.Join(root, "rex"))
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "--templates", writeTemplates(t), "parse", filepath.Join("rex", "sq010"), "-t", "show")
	require.NoError(t, err)
	assert.Equal(t, "show=rex\nsequence=sq010,show=rex\n", out)

	_, err = run(t, "--templates", writeTemplates(t), "parse", "not a show")
	assert.Error(t, err)
}

func TestFindCommand(t *testing.T) {
	out, err := run(t, "--templates", writeTemplates(t), "find", "--ends-with", "{sequence}")
	require.NoError(t, err)
	assert.Equal(t, "+show+/+sequence+\n", out)

	_, err = run(t, "--templates", writeTemplates(t), "find", "--ends-with", "nothing")
	assert.Error(t, err)
}

func TestTreeCommand(t *testing.T) {
	out, err := run(t, "--templates", writeTemplates(t), "tree")
	require.NoError(t, err)
	assert.Contains(t, out, "+show+/")
	assert.Contains(t, out, "+shot+/")
	assert.Contains(t, out, "readme.txt")
}

func TestValidateCommand(t *testing.T) {
	templates := writeTemplates(t)

	out, err := run(t, "--templates", templates, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "templates are valid")

	require.NoError(t, os.MkdirAll(filepath.Join(templates, "@+show+@", "@+asset+@"), 0o755))
	out, err = run(t, "--templates", templates, "validate", "show")
	require.Error(t, err)
	assert.Contains(t, out, "names no registered template")
}

func TestLogFileClosedWhenCommandFails(t *testing.T) {
	templates := writeTemplates(t)
	require.NoError(t, os.MkdirAll(filepath.Join(templates, "@+show+@", "@+asset+@"), 0o755))
	logPath := filepath.Join(t.TempDir(), "strata.log")

	var stdout, stderr bytes.Buffer
	a := newApp()
	err := a.execute([]string{"--log-file", logPath, "--templates", templates, "validate", "show"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Nil(t, a.logFile)

	assert.Contains(t, stderr.String(), `level=INFO msg="logging to file" path=`+logPath)
	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "logging to file")
}

func TestOctalMode(t *testing.T) {
	assert.Equal(t, uint32(0o755), octalMode(0o755))
	assert.Equal(t, uint32(0o2775), octalMode(0o775|fs.ModeSetgid))
	assert.Equal(t, uint32(0o5777), octalMode(0o777|fs.ModeSetuid|fs.ModeSticky))
	assert.Equal(t, uint32(0o2775), octalMode(0o775|fs.ModeSetgid|fs.ModeDir))
}
