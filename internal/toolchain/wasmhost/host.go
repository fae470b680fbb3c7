// Package wasmhost runs the Cairo compiler and VM compiled to WebAssembly.
//
// The module is compiled once per Host. Every call gets a fresh anonymous
// instance that is closed when the call returns, so no compiler database, VM
// state or memory survives from one request to the next.
package wasmhost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/enitrat/cairo-wasm/internal/entropy"
	"github.com/enitrat/cairo-wasm/internal/felt"
	"github.com/enitrat/cairo-wasm/internal/project"
	"github.com/enitrat/cairo-wasm/internal/toolchain"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

type Host struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	entropy  entropy.Source
}

var (
	_ toolchain.Compiler     = (*Host)(nil)
	_ toolchain.Runner       = (*Host)(nil)
	_ toolchain.CasmCompiler = (*Host)(nil)
)

type Option func(*Host)

// WithEntropy overrides the source behind the guest's WASI random_get.
func WithEntropy(src entropy.Source) Option {
	return func(h *Host) {
		if src != nil {
			h.entropy = src
		}
	}
}

// Load reads the module from disk and calls New.
func Load(ctx context.Context, path string, opts ...Option) (*Host, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read toolchain module: %w", err)
	}
	return New(ctx, raw, opts...)
}

func New(ctx context.Context, wasm []byte, opts ...Option) (*Host, error) {
	h := &Host{entropy: entropy.Default()}
	for _, opt := range opts {
		opt(h)
	}

	rt := wazero.NewRuntimeWithConfig(ctx,
		wazero.NewRuntimeConfig().WithCloseOnContextDone(true),
	)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("instantiate wasi: %w", err)
	}
	_, err := rt.NewHostModuleBuilder(hintModule).
		NewFunctionBuilder().WithFunc(debugPrint).Export("debug_print").
		NewFunctionBuilder().WithFunc(randomECPoint).Export("random_ec_point").
		Instantiate(ctx)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("instantiate %s: %w", hintModule, err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("compile toolchain module: %w", err)
	}
	for _, name := range []string{exportAlloc, exportFree, exportCompile, exportRun, exportCasmSize} {
		if _, ok := compiled.ExportedFunctions()[name]; !ok {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("toolchain module does not export %s", name)
		}
	}
	h.runtime = rt
	h.compiled = compiled
	return h, nil
}

func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

func (h *Host) Compile(ctx context.Context, cc *project.CompilationContext, cfg toolchain.CompilerConfig) (string, error) {
	if err := cc.Claim(); err != nil {
		return "", toolchain.Infra(err)
	}
	call := compileCall{
		CrateName:        cc.Main.Name,
		MainFiles:        cc.Main.Root.Flatten(),
		CorelibFiles:     cc.Core.Root.Flatten(),
		ReplaceIDs:       cfg.ReplaceIDs,
		InliningStrategy: string(cfg.Inlining),
	}
	var reply compileReply
	if err := h.invoke(ctx, exportCompile, call, &reply); err != nil {
		return "", err
	}
	if cfg.Diagnostics != nil && reply.Diagnostics != "" {
		_, _ = io.WriteString(cfg.Diagnostics, reply.Diagnostics)
	}
	if reply.Error != nil {
		return "", errors.New(*reply.Error)
	}
	return reply.Sierra, nil
}

func (h *Host) Run(ctx context.Context, req toolchain.RunRequest) (*toolchain.RunResult, error) {
	if req.Program == nil || req.Function == nil {
		return nil, errors.New("run request needs a program and a function")
	}
	call := runCall{
		Sierra:       req.Program.String(),
		Function:     req.Function.ID,
		Args:         felt.Strings(req.Args),
		AvailableGas: req.AvailableGas,
	}
	var reply runReply
	if err := h.invoke(withHints(ctx, req.Hints), exportRun, call, &reply); err != nil {
		return nil, err
	}
	if reply.Error != nil {
		return nil, errors.New(*reply.Error)
	}

	out := &toolchain.RunResult{Panicked: reply.Panicked, Values: make([]felt.Felt, 0, len(reply.Values))}
	for _, v := range reply.Values {
		f, err := felt.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("decode return value: %w", err)
		}
		out.Values = append(out.Values, f)
	}
	if reply.GasCounter != nil {
		g, err := felt.Parse(*reply.GasCounter)
		if err != nil {
			return nil, fmt.Errorf("decode gas counter: %w", err)
		}
		out.GasCounter = &g
	}
	return out, nil
}

func (h *Host) CasmSize(ctx context.Context, sierraText string) (int, error) {
	var reply casmReply
	if err := h.invoke(ctx, exportCasmSize, casmCall{Sierra: sierraText}, &reply); err != nil {
		return 0, err
	}
	if reply.Error != nil {
		return 0, errors.New(*reply.Error)
	}
	return reply.Size, nil
}

// invoke runs one export in a fresh instance. Every error it returns is an
// InfraError.
func (h *Host) invoke(ctx context.Context, export string, in, out any) error {
	return toolchain.Infra(h.call(ctx, export, in, out))
}

// call instantiates a fresh module, passes the JSON encoded request through
// guest memory and decodes the reply. The instance is always closed.

func (h *Host) call(ctx context.Context, export string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", export, err)
	}

	cfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize").
		WithRandSource(entropy.Reader(h.entropy)).
		WithStdout(io.Discard).
		WithStderr(io.Discard)
	mod, err := h.runtime.InstantiateModule(ctx, h.compiled, cfg)
	if err != nil {
		return fmt.Errorf("instantiate toolchain: %w", err)
	}
	defer mod.Close(ctx)

	ptr, err := writeGuest(ctx, mod, payload)
	if err != nil {
		return err
	}
	res, err := mod.ExportedFunction(export).Call(ctx, uint64(ptr), uint64(len(payload)))
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimPrefix(export, "cairo_"), err)
	}
	if len(res) != 1 {
		return fmt.Errorf("%s returned %d values", export, len(res))
	}
	rptr, rlen := unpack(res[0])
	raw, ok := mod.Memory().Read(rptr, rlen)
	if !ok {
		return fmt.Errorf("%s reply out of range (%d+%d)", export, rptr, rlen)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s reply: %w", export, err)
	}
	_, _ = mod.ExportedFunction(exportFree).Call(ctx, uint64(rptr), uint64(rlen))
	return nil
}

func writeGuest(ctx context.Context, mod api.Module, payload []byte) (uint32, error) {
	res, err := mod.ExportedFunction(exportAlloc).Call(ctx, uint64(len(payload)))
	if err != nil {
		return 0, fmt.Errorf("alloc: %w", err)
	}
	ptr := uint32(res[0])
	if !mod.Memory().Write(ptr, payload) {
		return 0, fmt.Errorf("write request at %d+%d out of range", ptr, len(payload))
	}
	return ptr, nil
}
