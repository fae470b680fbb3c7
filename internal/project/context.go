package project

import "sync/atomic"

// CrateUnit is one logical compilation unit registered in a context.
type CrateUnit struct {
	Name string
	Root *Directory
}

// CompilationContext is the per-request compiler session. It is single-use:
// Claim succeeds exactly once.
type CompilationContext struct {
	Main     CrateUnit
	Core     CrateUnit
	Settings Settings

	consumed atomic.Bool
}

// Materialize registers the main crate and the core library as distinct units.
// Nothing here touches the filesystem.
func Materialize(p *VirtualProject) (*CompilationContext, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	core, _ := buildDirectory(p.CorelibFiles)
	main, _ := buildDirectory(p.MainFiles)
	return &CompilationContext{
		Main:     CrateUnit{Name: p.CrateName, Root: main},
		Core:     CrateUnit{Name: CoreCrate, Root: core},
		Settings: p.Settings,
	}, nil
}

// Claim marks the context as used by a compile pipeline.
func (c *CompilationContext) Claim() error {
	if !c.consumed.CompareAndSwap(false, true) {
		return ErrContextConsumed
	}
	return nil
}

func (c *CompilationContext) Consumed() bool {
	return c.consumed.Load()
}
