// Package project models a Cairo crate held entirely in memory: the main crate's
// sources, the core library sources and the compiler settings for one request.
package project

import (
	"fmt"
	"sort"
	"strings"

	"github.com/enitrat/cairo-wasm/internal/corelib"
)

const (
	// EntryFile is the root module of every virtual crate.
	EntryFile = "lib.cairo"

	MainCrate = "main"
	CoreCrate = "core"
)

type InliningStrategy string

const (
	InliningDefault InliningStrategy = "default"
	InliningAvoid   InliningStrategy = "avoid"
)

// ParseInliningStrategy accepts the kebab-case names used on the wire. An empty
// value selects the default strategy.
func ParseInliningStrategy(raw string) (InliningStrategy, error) {
	switch InliningStrategy(raw) {
	case "", InliningDefault:
		return InliningDefault, nil
	case InliningAvoid:
		return InliningAvoid, nil
	default:
		return "", fmt.Errorf("unknown variant `%s`, expected `default` or `avoid`", raw)
	}
}

type Settings struct {
	ReplaceIDs bool
	Inlining   InliningStrategy
}

// VirtualProject is built fresh for every request and discarded afterwards.
type VirtualProject struct {
	CrateName    string
	MainFiles    map[string]string
	CorelibFiles map[string]string
	Settings     Settings
}

// Build validates and copies the inputs. A nil corelib table is replaced by the
// embedded snapshot.
func Build(crateName string, mainFiles, corelibFiles map[string]string, settings Settings) (*VirtualProject, error) {
	if corelibFiles == nil {
		corelibFiles = corelib.Default().Files()
	} else {
		corelibFiles = copyFiles(corelibFiles)
	}
	if settings.Inlining == "" {
		settings.Inlining = InliningDefault
	}
	p := &VirtualProject{
		CrateName:    crateName,
		MainFiles:    copyFiles(mainFiles),
		CorelibFiles: corelibFiles,
		Settings:     settings,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the crate name, every virtual path and the entry files, core
// library first.
func (p *VirtualProject) Validate() error {
	if strings.TrimSpace(p.CrateName) == "" {
		return &InvalidProjectError{Reason: ReasonEmptyCrateName}
	}
	if err := validateCrate(CoreCrate, p.CorelibFiles); err != nil {
		return err
	}
	return validateCrate(MainCrate, p.MainFiles)
}

func validateCrate(crate string, files map[string]string) error {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	// Report the lexically smallest bad path so the message is stable.
	sort.Strings(paths)
	for _, path := range paths {
		if _, ok := SplitVirtualPath(path); !ok {
			return &InvalidProjectError{Reason: ReasonInvalidPath, Crate: crate, Path: path}
		}
	}
	if _, ok := files[EntryFile]; !ok {
		return &InvalidProjectError{Reason: ReasonMissingFile, Crate: crate, Path: EntryFile}
	}
	return nil
}

func copyFiles(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
