// Package toolchaintest provides an in-process Cairo toolchain for tests.
//
// It understands a tiny subset of the language, enough to drive the gateway
// end to end without the real compiler:
//
//	#[attr]                      ignored
//	mod name; / use path;        ignored
//	fn name() [-> felt252] {
//	    println!("text");        print with trailing newline
//	    print!("text");
//	    let x = 5;               unused variable warning unless x starts with _
//	    panic_with_felt252(n);   n is decimal, 0x hex or a 'short string'
//	    7                        tail value, required iff -> felt252
//	}
//
// The emitted Sierra is parseable by package sierra and is executed by the
// same Toolchain's Run.
package toolchaintest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/enitrat/cairo-wasm/internal/sierra"
	"github.com/enitrat/cairo-wasm/internal/toolchain"
)

// StatementCost is the gas charged per executed statement on metered runs.
const StatementCost = 100

type Toolchain struct {
	compiles atomic.Int64
	runs     atomic.Int64
}

var (
	_ toolchain.Compiler     = (*Toolchain)(nil)
	_ toolchain.Runner       = (*Toolchain)(nil)
	_ toolchain.CasmCompiler = (*Toolchain)(nil)
)

func New() *Toolchain {
	return &Toolchain{}
}

// Compiles reports how many compile pipelines ran.
func (t *Toolchain) Compiles() int {
	return int(t.compiles.Load())
}

func (t *Toolchain) Runs() int {
	return int(t.runs.Load())
}

// CasmSize pretends every statement lowers to three CASM words plus one per
// function prologue.
func (t *Toolchain) CasmSize(ctx context.Context, sierraText string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p, err := sierra.Parse(sierraText)
	if err != nil {
		return 0, fmt.Errorf("casm: %w", err)
	}
	return 3*len(p.Statements) + len(p.Funcs), nil
}
