package execute

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/enitrat/cairo-wasm/internal/entropy"
	"github.com/enitrat/cairo-wasm/internal/felt"
	"github.com/enitrat/cairo-wasm/internal/gateway/contract"
	"github.com/enitrat/cairo-wasm/internal/gateway/service/compile"
	"github.com/enitrat/cairo-wasm/internal/toolchain"
	"github.com/enitrat/cairo-wasm/internal/toolchain/toolchaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(opts ...Option) (*Service, *toolchaintest.Toolchain) {
	tc := toolchaintest.New()
	return New(compile.New(tc), tc, opts...), tc
}

func runRequest(src string, gas *uint64) contract.CompileAndRunRequest {
	return contract.CompileAndRunRequest{
		CompileRequest: contract.CompileRequest{
			CrateName:  "app",
			Files:      map[string]string{"lib.cairo": src},
			ReplaceIDs: true,
		},
		AvailableGas: gas,
		Function:     contract.DefaultFunction,
	}
}

func gas(v uint64) *uint64 { return &v }

func TestCompileAndRunReturnsValue(t *testing.T) {
	svc, _ := newService()
	resp := svc.CompileAndRun(context.Background(), runRequest("fn main() -> felt252 { 7 }", gas(1000000)))
	assert.True(t, resp.Success)
	assert.False(t, resp.Panicked)
	assert.Nil(t, resp.Error)
	assert.Equal(t, []string{"7"}, resp.Values)
	assert.Empty(t, resp.Stdout)
}

func TestCompileAndRunHelloWorld(t *testing.T) {
	svc, _ := newService()
	resp := svc.CompileAndRun(context.Background(), runRequest(`fn main(){ println!("Hello World"); }`, gas(1000000)))
	require.Nil(t, resp.Error)
	assert.True(t, resp.Success)
	assert.False(t, resp.Panicked)
	assert.Equal(t, "Hello World\n", resp.Stdout)
	require.NotNil(t, resp.GasCounter)
}

func TestCompileAndRunUnknownFunction(t *testing.T) {
	svc, tc := newService()
	req := runRequest(`fn main(){ println!("Hello World"); }`, gas(1000000))
	req.Function = "::does_not_exist"

	resp := svc.CompileAndRun(context.Background(), req)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Failed finding function `::does_not_exist`: Function with suffix `::does_not_exist` to run not found.", *resp.Error)
	assert.Equal(t, 0, tc.Runs())
}

func TestGasGuardStopsBeforeExecution(t *testing.T) {
	svc, tc := newService()
	resp := svc.CompileAndRun(context.Background(), runRequest(`fn main(){ println!("x"); }`, nil))
	assert.False(t, resp.Success)
	assert.False(t, resp.Panicked)
	assert.Empty(t, resp.Stdout)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Program requires gas counter; provide `available_gas`.", *resp.Error)
	assert.Equal(t, 0, tc.Runs())
}

func TestSequentialRunsDoNotShareOutput(t *testing.T) {
	svc, _ := newService()
	first := svc.CompileAndRun(context.Background(), runRequest(`fn main(){ println!("first"); }`, gas(1000000)))
	require.Equal(t, "first\n", first.Stdout)

	second := svc.CompileAndRun(context.Background(), runRequest("fn main() -> felt252 { 1 }", gas(1000000)))
	assert.Equal(t, "", second.Stdout)
}

func TestCompilationFailureSkipsExecution(t *testing.T) {
	svc, tc := newService()
	resp := svc.CompileAndRun(context.Background(), runRequest("fn main() { broken }", nil))
	assert.False(t, resp.Success)
	assert.False(t, resp.Panicked)
	assert.Equal(t, []string{}, resp.Values)
	assert.Empty(t, resp.Stdout)
	assert.NotEmpty(t, resp.Diagnostics)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Compilation failed.", *resp.Error)
	assert.Equal(t, 0, tc.Runs())
}

func TestPanicClearsSuccessByDefault(t *testing.T) {
	svc, _ := newService()
	resp := svc.CompileAndRun(context.Background(), runRequest("fn main() -> felt252 { panic_with_felt252(3); 0 }", nil))
	assert.True(t, resp.Panicked)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, []string{"3"}, resp.Values)
}

func TestPanicAsFailureCanBeDisabled(t *testing.T) {
	svc, _ := newService(WithPanicAsFailure(false))
	resp := svc.CompileAndRun(context.Background(), runRequest("fn main() -> felt252 { panic_with_felt252(3); 0 }", nil))
	assert.True(t, resp.Panicked)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestRunSierraDiagnosticsAlwaysEmpty(t *testing.T) {
	svc, tc := newService()
	compiled := compile.New(tc).Respond(context.Background(), runRequest("fn main() { let x = 1; }", nil).CompileRequest)
	require.True(t, compiled.Success)
	require.NotEmpty(t, compiled.Diagnostics)

	resp := svc.RunSierra(context.Background(), contract.RunSierraRequest{Sierra: *compiled.Sierra, Function: "::main"})
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Diagnostics)
	assert.Nil(t, resp.GasCounter)
}

func TestRunSierraRejectsGarbage(t *testing.T) {
	svc, _ := newService()
	resp := svc.RunSierra(context.Background(), contract.RunSierraRequest{Sierra: "definitely not sierra", Function: "::main"})
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.True(t, strings.HasPrefix(*resp.Error, "Failed parsing Sierra program: "))
}

type failingRunner struct{}

func (failingRunner) Run(context.Context, toolchain.RunRequest) (*toolchain.RunResult, error) {
	return nil, errors.New("vm exploded")
}

func TestRunnerFailureIsInfraError(t *testing.T) {
	tc := toolchaintest.New()
	svc := New(compile.New(tc), failingRunner{})
	resp := svc.CompileAndRun(context.Background(), runRequest("fn main() -> felt252 { 7 }", nil))
	assert.False(t, resp.Success)
	assert.False(t, resp.Panicked)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Failed to run function `::main`: vm exploded", *resp.Error)
}

type ecRunner struct {
	points [][2]felt.Felt
}

func (r *ecRunner) Run(_ context.Context, req toolchain.RunRequest) (*toolchain.RunResult, error) {
	x, y := req.Hints.RandomECPoint()
	r.points = append(r.points, [2]felt.Felt{x, y})
	return &toolchain.RunResult{Values: []felt.Felt{x}}, nil
}

func TestEntropySourceReachesHints(t *testing.T) {
	tc := toolchaintest.New()
	r1, r2 := &ecRunner{}, &ecRunner{}
	New(compile.New(tc), r1, WithEntropy(entropy.NewCounterSource(9))).
		CompileAndRun(context.Background(), runRequest("fn main() {}", nil))
	New(compile.New(tc), r2, WithEntropy(entropy.NewCounterSource(9))).
		CompileAndRun(context.Background(), runRequest("fn main() {}", nil))

	require.Len(t, r1.points, 1)
	require.Len(t, r2.points, 1)
	assert.True(t, r1.points[0][0].Equal(r2.points[0][0]))
}
