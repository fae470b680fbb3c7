package estimate

import (
	"context"
	"errors"
	"testing"

	"github.com/enitrat/cairo-wasm/internal/sierra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const program = `type felt252 = felt252;

libfunc withdraw_gas = withdraw_gas;
libfunc felt252_const<7> = felt252_const<7>;
libfunc mystery = mystery;

withdraw_gas() { fallthrough() 1() }; // 0
felt252_const<7>() -> ([0]); // 1
mystery([0]) -> ([0]); // 2
return([0]); // 3

app::main@0() -> (felt252);
`

type fakeCasm struct {
	size int
	err  error
	seen string
}

func (f *fakeCasm) CasmSize(_ context.Context, text string) (int, error) {
	f.seen = text
	return f.size, f.err
}

func parse(t *testing.T) *sierra.Program {
	t.Helper()
	p, err := sierra.Parse(program)
	require.NoError(t, err)
	return p
}

func TestApproximateWeighsStatements(t *testing.T) {
	got, err := Approximate{}.Estimate(context.Background(), parse(t))
	require.NoError(t, err)
	assert.Equal(t, Estimate{
		Functions:   1,
		Statements:  4,
		Libfuncs:    3,
		CodeSize:    6 + 1 + defaultWeight + returnWeight,
		Approximate: true,
	}, got)
}

func TestPreciseUsesCasmCompiler(t *testing.T) {
	casm := &fakeCasm{size: 42}
	got, err := NewPrecise(casm).Estimate(context.Background(), parse(t))
	require.NoError(t, err)
	assert.Equal(t, 42, got.CodeSize)
	assert.False(t, got.Approximate)
	assert.Equal(t, program, casm.seen)
}

func TestPrecisePropagatesErrors(t *testing.T) {
	_, err := NewPrecise(&fakeCasm{err: errors.New("lowering failed")}).Estimate(context.Background(), parse(t))
	assert.EqualError(t, err, "lowering failed")
}

func TestApproximateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Approximate{}.Estimate(ctx, parse(t))
	assert.ErrorIs(t, err, context.Canceled)
}
