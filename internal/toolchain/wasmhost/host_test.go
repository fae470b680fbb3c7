package wasmhost

import (
	"context"
	"errors"
	"testing"

	"github.com/enitrat/cairo-wasm/internal/felt"
	"github.com/enitrat/cairo-wasm/internal/project"
	"github.com/enitrat/cairo-wasm/internal/toolchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHints struct {
	printed [][]felt.Felt
	x, y    felt.Felt
}

func (r *recordingHints) DebugPrint(values []felt.Felt) { r.printed = append(r.printed, values) }
func (r *recordingHints) RandomECPoint() (felt.Felt, felt.Felt) {
	return r.x, r.y
}

func TestUnpackSplitsPointerAndLength(t *testing.T) {
	ptr, length := unpack(uint64(0xdeadbeef)<<32 | 42)
	assert.Equal(t, uint32(0xdeadbeef), ptr)
	assert.Equal(t, uint32(42), length)
}

// trappingModule exports the guest ABI with every function a bare unreachable.
func trappingModule() []byte {
	names := []string{exportAlloc, exportFree, exportCompile, exportRun, exportCasmSize}
	section := func(id byte, body []byte) []byte {
		return append([]byte{id, byte(len(body))}, body...)
	}
	funcs := []byte{byte(len(names))}
	exports := []byte{byte(len(names))}
	code := []byte{byte(len(names))}
	for i, name := range names {
		funcs = append(funcs, 0)
		exports = append(exports, byte(len(name)))
		exports = append(exports, name...)
		exports = append(exports, 0x00, byte(i))
		code = append(code, 0x03, 0x00, 0x00, 0x0b)
	}
	mod := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	mod = append(mod, section(0x01, []byte{0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f})...)
	mod = append(mod, section(0x03, funcs)...)
	mod = append(mod, section(0x07, exports)...)
	mod = append(mod, section(0x0a, code)...)
	return mod
}

func TestGuestTrapIsInfrastructureFailure(t *testing.T) {
	ctx := context.Background()
	h, err := New(ctx, trappingModule())
	require.NoError(t, err)
	defer h.Close(ctx)

	p, err := project.Build("app", map[string]string{project.EntryFile: "fn main() {}"}, map[string]string{project.EntryFile: ""}, project.Settings{})
	require.NoError(t, err)
	cc, err := project.Materialize(p)
	require.NoError(t, err)

	_, err = h.Compile(ctx, cc, toolchain.CompilerConfig{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, toolchain.ErrInfrastructure))
	assert.Contains(t, err.Error(), "alloc")

	_, err = h.CasmSize(ctx, "type felt252 = felt252;")
	assert.True(t, errors.Is(err, toolchain.ErrInfrastructure))
}

func TestDecodeFelts(t *testing.T) {
	raw := make([]byte, 64)
	raw[31] = 7
	raw[63] = 0x2a
	values, err := decodeFelts(raw)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "7", values[0].String())
	assert.Equal(t, "42", values[1].String())

	_, err = decodeFelts(make([]byte, 33))
	assert.Error(t, err)
}

func TestEncodePointLayout(t *testing.T) {
	out := encodePoint(felt.FromUint64(1), felt.FromUint64(2))
	require.Len(t, out, 64)
	assert.Equal(t, byte(1), out[31])
	assert.Equal(t, byte(2), out[63])
}

func TestHintsTravelWithContext(t *testing.T) {
	assert.Nil(t, hintsFrom(context.Background()))

	h := &recordingHints{}
	ctx := withHints(context.Background(), h)
	got := hintsFrom(ctx)
	require.NotNil(t, got)
	got.DebugPrint([]felt.Felt{felt.FromUint64(1)})
	assert.Len(t, h.printed, 1)
}

func TestNewRejectsInvalidModule(t *testing.T) {
	_, err := New(context.Background(), []byte("not wasm"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile toolchain module")
}

// A valid empty module still lacks the guest ABI.
func TestNewRequiresGuestExports(t *testing.T) {
	empty := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	_, err := New(context.Background(), empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not export cairo_alloc")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/toolchain.wasm")
	require.Error(t, err)
}
