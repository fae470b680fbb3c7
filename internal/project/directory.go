package project

import (
	"sort"
	"strings"
)

// Directory is a virtual directory tree. File names are leaf names; nested
// directories hang off Dirs.
type Directory struct {
	Files map[string]string
	Dirs  map[string]*Directory
}

func newDirectory() *Directory {
	return &Directory{Files: map[string]string{}, Dirs: map[string]*Directory{}}
}

// SplitVirtualPath splits a relative slash path into its parts. Empty paths,
// absolute paths, trailing slashes and empty, "." or ".." parts are rejected.
func SplitVirtualPath(path string) ([]string, bool) {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return nil, false
	}
	parts := strings.Split(path, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return nil, false
		}
	}
	return parts, true
}

func buildDirectory(files map[string]string) (*Directory, bool) {
	root := newDirectory()
	for path, content := range files {
		parts, ok := SplitVirtualPath(path)
		if !ok {
			return nil, false
		}
		dir := root
		for _, name := range parts[:len(parts)-1] {
			next, ok := dir.Dirs[name]
			if !ok {
				next = newDirectory()
				dir.Dirs[name] = next
			}
			dir = next
		}
		dir.Files[parts[len(parts)-1]] = content
	}
	return root, true
}

// Lookup resolves a relative slash path inside the tree.
func (d *Directory) Lookup(path string) (string, bool) {
	parts, ok := SplitVirtualPath(path)
	if !ok || d == nil {
		return "", false
	}
	dir := d
	for _, name := range parts[:len(parts)-1] {
		if dir = dir.Dirs[name]; dir == nil {
			return "", false
		}
	}
	content, ok := dir.Files[parts[len(parts)-1]]
	return content, ok
}

// Flatten returns the tree as a path to source table.
func (d *Directory) Flatten() map[string]string {
	out := map[string]string{}
	d.walk("", func(path, content string) { out[path] = content })
	return out
}

// Paths lists every file path in lexical order.
func (d *Directory) Paths() []string {
	var paths []string
	d.walk("", func(path, _ string) { paths = append(paths, path) })
	sort.Strings(paths)
	return paths
}

func (d *Directory) walk(prefix string, fn func(path, content string)) {
	if d == nil {
		return
	}
	for name, content := range d.Files {
		fn(prefix+name, content)
	}
	for name, sub := range d.Dirs {
		sub.walk(prefix+name+"/", fn)
	}
}
