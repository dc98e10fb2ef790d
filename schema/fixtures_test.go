package schema

import (
	"testing"

	stratatest "github.com/cpcf/strata/testing"
	"github.com/stretchr/testify/require"
)

// newShowSource builds the show/sequence/shot/department template source
// used across the package tests.
func newShowSource() *stratatest.MemoryFS {
	src := stratatest.NewMemoryFS()

	src.Mkdir("templates/@+show+@", 0o755)
	src.Mkdir("templates/@+show+@/@+sequence+@", 0o755)
	src.Mkdir("templates/@+show+@/assets", 0o750)
	src.WriteFileMode("templates/@+show+@/config.yaml", []byte("show: true\n"), 0o644)

	src.Mkdir("templates/@+sequence+@", 0o755)
	src.Mkdir("templates/@+sequence+@/@+shot+@", 0o755)
	src.Mkdir("templates/@+sequence+@/Editorial", 0o755)

	src.Mkdir("templates/@+shot+@", 0o775)
	src.Mkdir("templates/@+shot+@/+department+", 0o775)
	src.Mkdir("templates/@+shot+@/+department+/work", 0o775)
	src.WriteFileMode("templates/@+shot+@/notes.txt", []byte("shot notes"), 0o600)

	src.Mkdir("templates/.git", 0o755)
	src.WriteFile("templates/.git/HEAD", []byte("ref: refs/heads/main"))
	src.WriteFile("templates/README.md", []byte("not a template"))
	return src
}

func loadShowRegister(t *testing.T) *Register {
	t.Helper()
	reg, err := Load(newShowSource(), "templates")
	require.NoError(t, err)
	return reg
}

func childNames(f *Fragment) []string {
	names := make([]string, 0, len(f.Children))
	for _, child := range f.Children {
		names = append(names, child.Name.String())
	}
	return names
}

func entryPaths(entries []PathEntry) []string {
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, entry.String())
	}
	return paths
}
