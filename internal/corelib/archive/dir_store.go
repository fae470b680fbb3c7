package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/enitrat/cairo-wasm/internal/safeio"
)

// DirStore keeps each version in a subdirectory of root. Reads go through
// safeio so a version or path can never escape root.
type DirStore struct {
	root string
	fs   *safeio.SafeFS
}

func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create archive root: %w", err)
	}
	fsys, err := safeio.NewSafeFS(root)
	if err != nil {
		return nil, err
	}
	return &DirStore{root: fsys.Root(), fs: fsys}, nil
}

func (s *DirStore) Put(_ context.Context, version, p string, content []byte) error {
	version, p, err := validate(version, p)
	if err != nil {
		return err
	}
	key := objectKey(version, p)
	if !fs.ValidPath(key) {
		return fmt.Errorf("invalid archive path %q", key)
	}
	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, content, 0o644)
}

func (s *DirStore) Get(_ context.Context, version, p string) ([]byte, error) {
	version, p, err := validate(version, p)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.fs, objectKey(version, p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *DirStore) List(_ context.Context, version string) ([]string, error) {
	version, _, err := validate(version, ".")
	if err != nil {
		return nil, err
	}
	var paths []string
	err = fs.WalkDir(s.fs, version, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(version, p)
			paths = append(paths, path.Clean(filepath.ToSlash(rel)))
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
