// Package toolchain declares the external Cairo compiler and VM the gateway
// drives. Implementations live in subpackages: wasmhost runs the real toolchain
// compiled to WebAssembly, toolchaintest is an in-process fake for tests.
package toolchain

import (
	"context"
	"errors"
	"io"

	"github.com/enitrat/cairo-wasm/internal/felt"
	"github.com/enitrat/cairo-wasm/internal/project"
	"github.com/enitrat/cairo-wasm/internal/sierra"
)

// ErrInfrastructure matches failures of the toolchain host itself, as opposed
// to errors the compiler or VM report about the program.
var ErrInfrastructure = errors.New("toolchain infrastructure failure")

// InfraError carries a host-side failure. Its message is the cause's.
type InfraError struct {
	Err error
}

func (e *InfraError) Error() string        { return e.Err.Error() }
func (e *InfraError) Unwrap() error        { return e.Err }
func (e *InfraError) Is(target error) bool { return target == ErrInfrastructure }

// Infra wraps err as an InfraError. It returns nil for a nil err.
func Infra(err error) error {
	if err == nil {
		return nil
	}
	return &InfraError{Err: err}
}

type CompilerConfig struct {
	ReplaceIDs bool
	Inlining   project.InliningStrategy
	// Diagnostics receives warnings and errors emitted by the pipeline. It may be nil.
	Diagnostics io.Writer
}

// Compiler runs the parse, lowering and Sierra generation pipeline. It must
// Claim the context before doing any work. Failures to drive the pipeline are
// reported as InfraError; anything else is the compiler rejecting the program.
type Compiler interface {
	Compile(ctx context.Context, cc *project.CompilationContext, cfg CompilerConfig) (string, error)
}

// HintHandler serves the hints a running program raises.
type HintHandler interface {
	DebugPrint(values []felt.Felt)
	RandomECPoint() (x, y felt.Felt)
}

type RunRequest struct {
	Program  *sierra.Program
	Function *sierra.Function
	Args     []felt.Felt
	// AvailableGas is nil for unmetered runs.
	AvailableGas *uint64
	Hints        HintHandler
}

type RunResult struct {
	Panicked bool
	Values   []felt.Felt
	// GasCounter is nil when the run was not metered.
	GasCounter *felt.Felt
}

// Runner executes one function of a compiled program. A returned error is an
// infrastructure failure; program panics are reported through RunResult.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}

// CasmCompiler lowers Sierra to CASM and reports the bytecode length.
type CasmCompiler interface {
	CasmSize(ctx context.Context, sierraText string) (int, error)
}
