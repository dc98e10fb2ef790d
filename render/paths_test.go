package render

import (
	"errors"
	"testing"

	"github.com/cpcf/strata/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(isFolder bool, names ...string) schema.PathEntry {
	segments := make([]schema.Segment, len(names))
	for i, name := range names {
		segments[i] = schema.ParseSegment(name)
	}
	return schema.PathEntry{Segments: segments, IsFolder: isFolder, Permission: 0o755}
}

func newTestMaterializer() *Materializer {
	return NewMaterializer(nil).WithSeparator("/")
}

func TestMaterializeSubstitutesVariables(t *testing.T) {
	m := newTestMaterializer()
	notes := entry(false, "+show+", "+shot+", "notes.txt")
	notes.Content = []byte("hello")
	notes.Permission = 0o640

	plan := m.Materialize([]schema.PathEntry{
		entry(true, "+show+"),
		entry(true, "+show+", "+shot+"),
		notes,
	}, map[string]string{"show": "rex", "shot": "sh010"})

	assert.Empty(t, plan.Skipped)
	assert.Equal(t, []string{"rex", "rex/sh010", "rex/sh010/notes.txt"}, plan.Paths())

	file := plan.Entries[2]
	assert.False(t, file.IsFolder)
	assert.Equal(t, "hello", string(file.Content))
	assert.Equal(t, 0o640, int(file.Permission))
	assert.Equal(t, notes.String(), file.Entry.String())
}

func TestMaterializeSkipsOnlyEntriesMissingKeys(t *testing.T) {
	m := newTestMaterializer()

	plan := m.Materialize([]schema.PathEntry{
		entry(true, "library"),
		entry(true, "library", "+show+"),
		entry(true, "library", "+show+", "+shot+"),
		entry(true, "library", "+show+", "+shot+", "work"),
		entry(true, "library", "+asset+"),
	}, map[string]string{"show": "rex", "asset": "tree"})

	assert.Equal(t, []string{"library", "library/rex", "library/tree"}, plan.Paths())
	require.Len(t, plan.Skipped, 2)
	for _, skip := range plan.Skipped {
		assert.True(t, errors.Is(skip.Err, ErrMissingSubstitution))
	}

	var missing *MissingSubstitutionError
	require.ErrorAs(t, plan.Skipped[0].Err, &missing)
	assert.Equal(t, "shot", missing.Key)
	assert.Equal(t, "library/{show}/{shot}", missing.Entry)
	assert.Equal(t, []string{"shot"}, plan.MissingKeys())
}

func TestMaterializeTreatsEmptyValueAsMissing(t *testing.T) {
	plan := newTestMaterializer().Materialize([]schema.PathEntry{
		entry(true, "+show+"),
	}, map[string]string{"show": ""})

	assert.Empty(t, plan.Entries)
	assert.Len(t, plan.Skipped, 1)
}

func TestMaterializeSuppressesDuplicates(t *testing.T) {
	first := entry(false, "+show+", "readme")
	first.Content = []byte("first")
	second := entry(false, "rex", "readme")
	second.Content = []byte("second")

	plan := newTestMaterializer().Materialize([]schema.PathEntry{first, second},
		map[string]string{"show": "rex"})

	require.Len(t, plan.Entries, 1)
	assert.Equal(t, "first", string(plan.Entries[0].Content))
}

func TestMaterializeIgnoresUnusedData(t *testing.T) {
	plan := newTestMaterializer().Materialize([]schema.PathEntry{entry(true, "static")},
		map[string]string{"show": "rex"})
	assert.Equal(t, []string{"static"}, plan.Paths())

	plan = newTestMaterializer().Materialize([]schema.PathEntry{entry(true, "static")}, nil)
	assert.Equal(t, []string{"static"}, plan.Paths())
}

func TestTemplate(t *testing.T) {
	m := newTestMaterializer()
	assert.Equal(t, "{show}/assets/{asset}", m.Template(entry(true, "+show+", "assets", "+asset+")))
}
