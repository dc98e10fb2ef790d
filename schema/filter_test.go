package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(names ...string) PathEntry {
	segments := make([]Segment, len(names))
	for i, name := range names {
		segments[i] = ParseSegment(name)
	}
	return PathEntry{Segments: segments, IsFolder: true}
}

func TestFindPathReturnsFirstMatch(t *testing.T) {
	entries := []PathEntry{
		entry("root"),
		entry("root", "a"),
		entry("root", "a", "leaf"),
		entry("root", "b"),
		entry("root", "b", "leaf"),
	}

	got, ok := FindPath(entries, Filter{StartsWith: "root", EndsWith: "leaf"})
	require.True(t, ok)
	assert.Equal(t, "root/a/leaf", got.String())

	got, ok = FindPath(entries, Filter{StartsWith: "root", Contains: []string{"b"}, EndsWith: "leaf"})
	require.True(t, ok)
	assert.Equal(t, "root/b/leaf", got.String())
}

func TestFindPathNoMatch(t *testing.T) {
	entries := []PathEntry{entry("root", "a")}

	_, ok := FindPath(entries, Filter{StartsWith: "other"})
	assert.False(t, ok)

	_, ok = FindPath(entries, Filter{Contains: []string{"a", "zzz"}})
	assert.False(t, ok)

	_, ok = FindPath(nil, Filter{})
	assert.False(t, ok)
}

func TestFindPathSanitizesTokens(t *testing.T) {
	entries := []PathEntry{
		entry("+show+"),
		entry("+show+", "+shot+"),
		entry("+show+", "+shot+", "+department+"),
	}

	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{name: "marked", filter: Filter{EndsWith: "+shot+"}, want: "+show+/+shot+"},
		{name: "braced", filter: Filter{EndsWith: "{department}"}, want: "+show+/+shot+/+department+"},
		{name: "bare", filter: Filter{StartsWith: "show", EndsWith: "shot"}, want: "+show+/+shot+"},
		{name: "contains substring", filter: Filter{Contains: []string{"{depart}"}}, want: "+show+/+shot+/+department+"},
		{name: "empty filter", filter: Filter{}, want: "+show+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindPath(entries, tt.filter)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFilterMatch(t *testing.T) {
	e := entry("+show+", "assets", "textures")
	assert.True(t, Filter{Contains: []string{"set", "tex"}}.Match(e))
	assert.False(t, Filter{Contains: []string{"set", "model"}}.Match(e))
	assert.False(t, Filter{EndsWith: "assets"}.Match(e))
}

func TestResolverFindPath(t *testing.T) {
	resolver := NewResolver(nil, loadShowRegister(t))

	got, ok, err := resolver.FindPath(Filter{StartsWith: "show", EndsWith: "work"}, "show")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"+show+", "+sequence+", "+shot+", "+department+", "work"}, got.Names())

	_, ok, err = resolver.FindPath(Filter{EndsWith: "publish"}, "show")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = resolver.FindPath(Filter{}, "missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
