package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/enitrat/cairo-wasm/internal/corelib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{"memory": NewMemoryStore(), "dir": dir}
}

func TestPublishThenFetch(t *testing.T) {
	snap := corelib.FromFiles(map[string]string{
		"lib.cairo":       "pub mod ops;",
		"ops/arith.cairo": "fn add() {}",
	})
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, Publish(ctx, s, "v2.9.0", snap))
			require.NoError(t, s.Put(ctx, "v2.9.0", "README.md", []byte("docs")))

			got, err := Fetch(ctx, s, "v2.9.0")
			require.NoError(t, err)
			assert.Equal(t, snap.Paths(), got.Paths())
			assert.Equal(t, snap.Files(), got.Files())
		})
	}
}

func TestFetchMissingVersion(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := Fetch(context.Background(), s, "nope")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotFound), err)
		})
	}
}

func TestStoresValidateInput(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.Error(t, s.Put(ctx, "", "lib.cairo", nil))
			require.Error(t, s.Put(ctx, "v1", " ", nil))
			_, err := s.Get(ctx, "v1", "missing.cairo")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestDirStoreRejectsEscapes(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	require.Error(t, s.Put(context.Background(), "v1", "../../escape.cairo", []byte("x")))
	_, err = s.Get(context.Background(), "..", "etc/passwd")
	require.Error(t, err)
}

func TestNewS3StoreValidation(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	require.ErrorContains(t, err, "endpoint")
	_, err = NewS3Store(S3Config{Endpoint: "minio:9000"})
	require.ErrorContains(t, err, "access key")
	_, err = NewS3Store(S3Config{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b"})
	require.ErrorContains(t, err, "bucket")

	s, err := NewS3Store(S3Config{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b", Bucket: "corelib"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
}
