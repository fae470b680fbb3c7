package wasmhost

import (
	"context"
	"fmt"

	"github.com/enitrat/cairo-wasm/internal/felt"
	"github.com/enitrat/cairo-wasm/internal/toolchain"
	"github.com/tetratelabs/wazero/api"
)

const (
	exportAlloc    = "cairo_alloc"
	exportFree     = "cairo_free"
	exportCompile  = "cairo_compile"
	exportRun      = "cairo_run"
	exportCasmSize = "cairo_casm_size"

	hintModule = "cairo_hints"
)

type compileCall struct {
	CrateName        string            `json:"crate_name"`
	MainFiles        map[string]string `json:"main_files"`
	CorelibFiles     map[string]string `json:"corelib_files"`
	ReplaceIDs       bool              `json:"replace_ids"`
	InliningStrategy string            `json:"inlining_strategy"`
}

type compileReply struct {
	Sierra      string  `json:"sierra"`
	Diagnostics string  `json:"diagnostics"`
	Error       *string `json:"error"`
}

type runCall struct {
	Sierra       string   `json:"sierra"`
	Function     string   `json:"function"`
	Args         []string `json:"args"`
	AvailableGas *uint64  `json:"available_gas"`
}

type runReply struct {
	Panicked   bool     `json:"panicked"`
	Values     []string `json:"values"`
	GasCounter *string  `json:"gas_counter"`
	Error      *string  `json:"error"`
}

type casmCall struct {
	Sierra string `json:"sierra"`
}

type casmReply struct {
	Size  int     `json:"size"`
	Error *string `json:"error"`
}

// unpack splits the guest's ptr<<32|len return value.
func unpack(v uint64) (ptr, length uint32) {
	return uint32(v >> 32), uint32(v)
}

type hintKey struct{}

func withHints(ctx context.Context, h toolchain.HintHandler) context.Context {
	return context.WithValue(ctx, hintKey{}, h)
}

func hintsFrom(ctx context.Context) toolchain.HintHandler {
	h, _ := ctx.Value(hintKey{}).(toolchain.HintHandler)
	return h
}

// decodeFelts reads consecutive 32-byte big-endian words.
func decodeFelts(raw []byte) ([]felt.Felt, error) {
	if len(raw)%felt.Bytes != 0 {
		return nil, fmt.Errorf("payload length %d is not a multiple of %d", len(raw), felt.Bytes)
	}
	out := make([]felt.Felt, 0, len(raw)/felt.Bytes)
	for i := 0; i < len(raw); i += felt.Bytes {
		out = append(out, felt.FromBytes(raw[i:i+felt.Bytes]))
	}
	return out, nil
}

func encodePoint(x, y felt.Felt) []byte {
	out := make([]byte, 0, 2*felt.Bytes)
	xb, yb := x.Bytes32(), y.Bytes32()
	out = append(out, xb[:]...)
	return append(out, yb[:]...)
}

// debugPrint is exported to the guest as cairo_hints.debug_print.
func debugPrint(ctx context.Context, m api.Module, ptr, length uint32) {
	h := hintsFrom(ctx)
	if h == nil {
		return
	}
	raw, ok := m.Memory().Read(ptr, length)
	if !ok {
		panic(fmt.Sprintf("debug_print: out of range read at %d+%d", ptr, length))
	}
	values, err := decodeFelts(raw)
	if err != nil {
		panic("debug_print: " + err.Error())
	}
	h.DebugPrint(values)
}

// randomECPoint is exported to the guest as cairo_hints.random_ec_point. It
// writes x then y, 32 bytes each, at out.
func randomECPoint(ctx context.Context, m api.Module, out uint32) {
	h := hintsFrom(ctx)
	if h == nil {
		panic("random_ec_point: no hint handler bound to call")
	}
	x, y := h.RandomECPoint()
	if !m.Memory().Write(out, encodePoint(x, y)) {
		panic(fmt.Sprintf("random_ec_point: out of range write at %d", out))
	}
}
