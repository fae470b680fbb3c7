package corelib

import (
	"sort"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSnapshotHasEntryFile(t *testing.T) {
	s := Default()
	require.NotNil(t, s)

	content, ok := s.Lookup("lib.cairo")
	require.True(t, ok, "embedded corelib must contain lib.cairo")
	assert.Contains(t, content, "pub mod")
	assert.Equal(t, len(s.Paths()), s.Len())
}

func TestDefaultSnapshotPathsAreSortedSlashPaths(t *testing.T) {
	paths := Default().Paths()
	require.NotEmpty(t, paths)
	assert.True(t, sort.StringsAreSorted(paths))
	assert.Contains(t, paths, "ops/arith.cairo")
	for _, p := range paths {
		assert.NotContains(t, p, "\\")
		assert.NotEqual(t, '/', rune(p[0]), "path %q must be relative", p)
	}
}

func TestSnapshotAccessorsReturnCopies(t *testing.T) {
	s := FromFiles(map[string]string{"lib.cairo": "mod a;", "a.cairo": ""})

	files := s.Files()
	files["lib.cairo"] = "changed"
	delete(files, "a.cairo")

	paths := s.Paths()
	paths[0] = "mutated"

	got, ok := s.Lookup("lib.cairo")
	require.True(t, ok)
	assert.Equal(t, "mod a;", got)
	assert.Equal(t, []string{"a.cairo", "lib.cairo"}, s.Paths())
}

func TestLoadSkipsNonSourceFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"tree/lib.cairo":          {Data: []byte("mod nested;")},
		"tree/nested/inner.cairo": {Data: []byte("fn x() {}")},
		"tree/README.md":          {Data: []byte("docs")},
		"tree/Scarb.toml":         {Data: []byte("[package]")},
	}

	s, err := Load(fsys, "tree")
	require.NoError(t, err)
	assert.Equal(t, []string{"lib.cairo", "nested/inner.cairo"}, s.Paths())
}

func TestLoadMissingRoot(t *testing.T) {
	_, err := Load(fstest.MapFS{}, "missing")
	require.Error(t, err)
}

func TestLoadDetectsPlaceholderMarker(t *testing.T) {
	fsys := fstest.MapFS{
		"core/lib.cairo":   {Data: []byte("pub mod ops;")},
		"core/PLACEHOLDER": {Data: []byte("stand-in")},
	}
	s, err := Load(fsys, "core")
	require.NoError(t, err)
	assert.True(t, s.IsPlaceholder())
	assert.Equal(t, []string{"lib.cairo"}, s.Paths())

	delete(fsys, "core/PLACEHOLDER")
	s, err = Load(fsys, "core")
	require.NoError(t, err)
	assert.False(t, s.IsPlaceholder())

	assert.False(t, FromFiles(map[string]string{"lib.cairo": ""}).IsPlaceholder())
	var nilSnap *Snapshot
	assert.False(t, nilSnap.IsPlaceholder())
}
