// Package compile drives one compile request: virtual project, single-use
// compilation context, external compiler, diagnostics.
package compile

import (
	"context"
	"errors"
	"strings"

	"github.com/enitrat/cairo-wasm/internal/gateway/contract"
	"github.com/enitrat/cairo-wasm/internal/project"
	"github.com/enitrat/cairo-wasm/internal/toolchain"
)

// Service holds no per-request state; every call builds its own project and
// compilation context and drops them on return.
type Service struct {
	compiler toolchain.Compiler
}

func New(compiler toolchain.Compiler) *Service {
	return &Service{compiler: compiler}
}

// Output is what a compile produced. Diagnostics is set even when Compile
// returns an error.
type Output struct {
	Sierra      string
	Diagnostics string
}

func (s *Service) Compile(ctx context.Context, req contract.CompileRequest) (Output, error) {
	p, err := project.Build(req.CrateName, req.Files, req.CorelibFiles, req.Settings())
	if err != nil {
		return Output{}, projectError(err)
	}
	cc, err := project.Materialize(p)
	if err != nil {
		return Output{}, projectError(err)
	}

	var diags strings.Builder
	text, err := s.compiler.Compile(ctx, cc, toolchain.CompilerConfig{
		ReplaceIDs:  p.Settings.ReplaceIDs,
		Inlining:    p.Settings.Inlining,
		Diagnostics: &diags,
	})
	out := Output{Diagnostics: diags.String()}
	if err != nil {
		kind := contract.KindCompilation
		if errors.Is(err, toolchain.ErrInfrastructure) {
			kind = contract.KindExecutionInfra
		}
		return out, contract.NewError(kind, err.Error(), err)
	}
	out.Sierra = text
	return out, nil
}

// Respond folds Compile into the wire response.
func (s *Service) Respond(ctx context.Context, req contract.CompileRequest) contract.CompileResponse {
	out, err := s.Compile(ctx, req)
	if err != nil {
		return contract.CompileFailure(err, out.Diagnostics)
	}
	return contract.CompileSuccess(out.Sierra, out.Diagnostics)
}

func projectError(err error) error {
	var invalid *project.InvalidProjectError
	if errors.As(err, &invalid) {
		return contract.NewError(contract.KindInvalidProject, invalid.Error(), err)
	}
	return contract.NewError(contract.KindExecutionInfra, err.Error(), err)
}
