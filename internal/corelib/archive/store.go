// Package archive stores versioned core library trees outside the binary, so
// cmd/corelibgen can pull a snapshot from a shared bucket or a local checkout.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/enitrat/cairo-wasm/internal/corelib"
)

// Store defines operations for persisting corelib source trees by version.
type Store interface {
	Put(ctx context.Context, version, path string, content []byte) error
	Get(ctx context.Context, version, path string) ([]byte, error)
	// List returns the relative paths stored under version in lexical order.
	List(ctx context.Context, version string) ([]string, error)
}

var ErrNotFound = errors.New("corelib file not found")

// Fetch loads every source file of version into a snapshot.
func Fetch(ctx context.Context, s Store, version string) (*corelib.Snapshot, error) {
	paths, err := s.List(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("list corelib %s: %w", version, err)
	}
	files := make(map[string]string, len(paths))
	for _, p := range paths {
		if path.Ext(p) != corelib.SourceExt {
			continue
		}
		raw, err := s.Get(ctx, version, p)
		if err != nil {
			return nil, fmt.Errorf("get corelib %s/%s: %w", version, p, err)
		}
		files[p] = string(raw)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("corelib %s: %w", version, ErrNotFound)
	}
	return corelib.FromFiles(files), nil
}

// Publish uploads every file of snap under version.
func Publish(ctx context.Context, s Store, version string, snap *corelib.Snapshot) error {
	files := snap.Files()
	for _, p := range snap.Paths() {
		if err := s.Put(ctx, version, p, []byte(files[p])); err != nil {
			return fmt.Errorf("put corelib %s/%s: %w", version, p, err)
		}
	}
	return nil
}

func validate(version, p string) (string, string, error) {
	version = strings.Trim(strings.TrimSpace(version), "/")
	p = strings.TrimLeft(strings.TrimSpace(p), "/")
	if version == "" {
		return "", "", fmt.Errorf("version is required")
	}
	if p == "" {
		return "", "", fmt.Errorf("path is required")
	}
	return version, p, nil
}

func objectKey(version, p string) string {
	return version + "/" + p
}
