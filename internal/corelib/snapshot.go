// Package corelib exposes the Cairo core library captured at build time.
//
// The source tree under src/ is produced by cmd/corelibgen and embedded into the
// binary, so no filesystem lookup happens at run time. The snapshot is loaded once
// during package initialization and is never mutated afterwards; every accessor
// hands out copies.
package corelib

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// SourceExt is the only file extension captured into the snapshot.
const SourceExt = ".cairo"

// PlaceholderMarker at the root of a tree flags a stand-in corelib that only
// the in-process test toolchain accepts. corelibgen never writes it.
const PlaceholderMarker = "PLACEHOLDER"

//go:generate go run ../../cmd/corelibgen -src ${CAIRO_CORELIB_SRC} -out src

//go:embed src
var embedded embed.FS

var defaultSnapshot = mustLoad(embedded, "src")

// Snapshot is a read-only mapping of relative slash path to source text.
type Snapshot struct {
	files       map[string]string
	paths       []string
	placeholder bool
}

// Default returns the snapshot embedded in the binary.
func Default() *Snapshot {
	return defaultSnapshot
}

// Load captures every .cairo file below root in fsys.
func Load(fsys fs.FS, root string) (*Snapshot, error) {
	files := make(map[string]string)
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != SourceExt {
			return nil
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		files[relPath(root, p)] = string(raw)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corelib tree: %w", err)
	}
	s := FromFiles(files)
	if _, err := fs.Stat(fsys, path.Join(root, PlaceholderMarker)); err == nil {
		s.placeholder = true
	}
	return s, nil
}

// FromFiles builds a snapshot from an explicit table. The table is copied.
func FromFiles(files map[string]string) *Snapshot {
	s := &Snapshot{
		files: make(map[string]string, len(files)),
		paths: make([]string, 0, len(files)),
	}
	for p, content := range files {
		s.files[p] = content
		s.paths = append(s.paths, p)
	}
	sort.Strings(s.paths)
	return s
}

func relPath(root, p string) string {
	if root == "." || root == "" {
		return p
	}
	return strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
}

func mustLoad(fsys fs.FS, root string) *Snapshot {
	s, err := Load(fsys, root)
	if err != nil {
		panic(fmt.Sprintf("corelib: %v", err))
	}
	return s
}

// Paths lists the captured relative paths in lexical order.
func (s *Snapshot) Paths() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.paths...)
}

// Files returns a fresh copy of the path to source table.
func (s *Snapshot) Files() map[string]string {
	if s == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(s.files))
	for p, content := range s.files {
		out[p] = content
	}
	return out
}

// Lookup returns the source text for one relative path.
func (s *Snapshot) Lookup(p string) (string, bool) {
	if s == nil {
		return "", false
	}
	content, ok := s.files[p]
	return content, ok
}

// IsPlaceholder reports whether the tree carried PlaceholderMarker.
func (s *Snapshot) IsPlaceholder() bool {
	return s != nil && s.placeholder
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.files)
}
