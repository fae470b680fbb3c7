// Package execute runs compiled programs: compile-then-run and run-precompiled
// both end in the same execution core.
package execute

import (
	"context"
	"fmt"

	"github.com/enitrat/cairo-wasm/internal/capture"
	"github.com/enitrat/cairo-wasm/internal/entropy"
	"github.com/enitrat/cairo-wasm/internal/felt"
	"github.com/enitrat/cairo-wasm/internal/gateway/contract"
	"github.com/enitrat/cairo-wasm/internal/gateway/service/compile"
	"github.com/enitrat/cairo-wasm/internal/hint"
	"github.com/enitrat/cairo-wasm/internal/sierra"
	"github.com/enitrat/cairo-wasm/internal/toolchain"
)

type Service struct {
	compiler       *compile.Service
	runner         toolchain.Runner
	entropy        entropy.Source
	panicAsFailure bool
}

type Option func(*Service)

// WithEntropy sets the source handed to every execution's hint processor.
func WithEntropy(src entropy.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.entropy = src
		}
	}
}

// WithPanicAsFailure controls whether a program panic clears success. It is
// on by default; when off, success only reflects infrastructure health.
func WithPanicAsFailure(on bool) Option {
	return func(s *Service) {
		s.panicAsFailure = on
	}
}

func New(compiler *compile.Service, runner toolchain.Runner, opts ...Option) *Service {
	s := &Service{
		compiler:       compiler,
		runner:         runner,
		entropy:        entropy.Default(),
		panicAsFailure: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompileAndRun compiles the project and, when that succeeds, runs it.
// Compilation diagnostics are carried into the response either way.
func (s *Service) CompileAndRun(ctx context.Context, req contract.CompileAndRunRequest) contract.RunResponse {
	out, err := s.compiler.Compile(ctx, req.CompileRequest)
	if err != nil {
		return contract.RunFailure(err, out.Diagnostics)
	}
	prog, err := sierra.Parse(out.Sierra)
	if err != nil {
		return contract.RunFailure(contract.NewError(contract.KindExecutionInfra,
			fmt.Sprintf("Failed setting up runner: %v", err), err), out.Diagnostics)
	}
	return s.run(ctx, prog, req.Function, req.AvailableGas, out.Diagnostics)
}

// RunSierra runs precompiled text. Diagnostics are always empty.
func (s *Service) RunSierra(ctx context.Context, req contract.RunSierraRequest) contract.RunResponse {
	prog, err := sierra.Parse(req.Sierra)
	if err != nil {
		return contract.RunFailure(contract.NewError(contract.KindRequestParse,
			fmt.Sprintf("Failed parsing Sierra program: %v", err), err), "")
	}
	return s.run(ctx, prog, req.Function, req.AvailableGas, "")
}

// run resolves the function, enforces the gas guard and executes with a sink
// and hint processor that belong to this call only.
func (s *Service) run(ctx context.Context, prog *sierra.Program, function string, gas *uint64, diagnostics string) contract.RunResponse {
	fn, err := prog.FindFunction(function)
	if err != nil {
		return contract.RunFailure(contract.NewError(contract.KindFunctionNotFound,
			fmt.Sprintf("Failed finding function `%s`: %v", function, err), err), diagnostics)
	}
	if gas == nil && prog.RequiresGasCounter() {
		return contract.RunFailure(contract.NewError(contract.KindGasConfiguration,
			"Program requires gas counter; provide `available_gas`.", nil), diagnostics)
	}

	sink := capture.NewSink()
	res, err := s.runner.Run(ctx, toolchain.RunRequest{
		Program:      prog,
		Function:     fn,
		AvailableGas: gas,
		Hints:        hint.NewProcessor(sink, s.entropy),
	})
	if err != nil {
		return contract.RunFailure(contract.NewError(contract.KindExecutionInfra,
			fmt.Sprintf("Failed to run function `%s`: %v", function, err), err), diagnostics)
	}

	resp := contract.RunResponse{
		Success:     !(s.panicAsFailure && res.Panicked),
		Panicked:    res.Panicked,
		Values:      felt.Strings(res.Values),
		Stdout:      sink.String(),
		Diagnostics: diagnostics,
	}
	if res.GasCounter != nil {
		g := res.GasCounter.String()
		resp.GasCounter = &g
	}
	return resp
}
