package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func TestRunCapturesLocalTree(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"lib.cairo":       "pub mod ops;",
		"ops/arith.cairo": "fn add() {}",
		"Scarb.toml":      "[package]",
	})
	out := t.TempDir()
	writeTree(t, out, map[string]string{"stale.cairo": "old", "PLACEHOLDER": "stand-in"})

	require.NoError(t, run(context.Background(), src, "", "", out))

	got, err := os.ReadFile(filepath.Join(out, "ops", "arith.cairo"))
	require.NoError(t, err)
	assert.Equal(t, "fn add() {}", string(got))
	assert.NoFileExists(t, filepath.Join(out, "stale.cairo"))
	assert.NoFileExists(t, filepath.Join(out, "Scarb.toml"))
	assert.NoFileExists(t, filepath.Join(out, "PLACEHOLDER"))
}

func TestRunRefusesPlaceholderTree(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"lib.cairo": "", "PLACEHOLDER": "stand-in"})
	out := t.TempDir()
	err := run(context.Background(), src, "", "", out)
	require.ErrorContains(t, err, "PLACEHOLDER")
	assert.NoFileExists(t, filepath.Join(out, "lib.cairo"))
}

func TestRunRequiresEntryFile(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"ops.cairo": ""})
	err := run(context.Background(), src, "", "", t.TempDir())
	require.ErrorContains(t, err, "lib.cairo")
}

func TestCaptureNeedsExactlyOneSource(t *testing.T) {
	_, err := capture(context.Background(), "", "")
	require.Error(t, err)
	_, err = capture(context.Background(), "a", "v1")
	require.Error(t, err)
}
