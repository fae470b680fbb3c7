// Package estimate sizes a compiled program before it is run.
//
// Two estimators exist. Precise lowers the program through the external CASM
// compiler. Approximate walks the Sierra statements with a weight table and
// needs nothing but the parsed program, which is what restricted targets can
// afford. Default picks one per build target.
package estimate

import (
	"context"
	"strings"

	"github.com/enitrat/cairo-wasm/internal/sierra"
	"github.com/enitrat/cairo-wasm/internal/toolchain"
)

type Estimate struct {
	Functions   int
	Statements  int
	Libfuncs    int
	CodeSize    int
	Approximate bool
}

type Estimator interface {
	Estimate(ctx context.Context, p *sierra.Program) (Estimate, error)
}

func counts(p *sierra.Program) Estimate {
	return Estimate{
		Functions:  len(p.Funcs),
		Statements: len(p.Statements),
		Libfuncs:   len(p.Libfuncs),
	}
}

// Approximate estimates CASM words from libfunc weights.
type Approximate struct{}

// Words per generic libfunc; anything unlisted costs defaultWeight.
var weights = map[string]int{
	"withdraw_gas":       6,
	"withdraw_gas_all":   8,
	"function_call":      3,
	"felt252_const":      1,
	"store_temp":         1,
	"drop":               0,
	"dup":                0,
	"rename":             0,
	"branch_align":       0,
	"array_new":          2,
	"array_append":       3,
	"print":              4,
	"panic_with_felt252": 2,
}

const (
	defaultWeight = 2
	returnWeight  = 1
)

func (Approximate) Estimate(ctx context.Context, p *sierra.Program) (Estimate, error) {
	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}
	generics := make(map[string]string, len(p.Libfuncs))
	for _, decl := range p.Libfuncs {
		generics[decl.ID] = decl.GenericID
	}

	out := counts(p)
	out.Approximate = true
	for _, stmt := range p.Statements {
		head := stmt
		if idx := strings.IndexByte(stmt, '('); idx >= 0 {
			head = stmt[:idx]
		}
		if head == "return" {
			out.CodeSize += returnWeight
			continue
		}
		w, ok := weights[generics[head]]
		if !ok {
			w = defaultWeight
		}
		out.CodeSize += w
	}
	return out, nil
}

// Precise asks the CASM compiler for the real bytecode length.
type Precise struct {
	casm toolchain.CasmCompiler
}

func NewPrecise(casm toolchain.CasmCompiler) *Precise {
	return &Precise{casm: casm}
}

func (e *Precise) Estimate(ctx context.Context, p *sierra.Program) (Estimate, error) {
	size, err := e.casm.CasmSize(ctx, p.String())
	if err != nil {
		return Estimate{}, err
	}
	out := counts(p)
	out.CodeSize = size
	return out, nil
}
