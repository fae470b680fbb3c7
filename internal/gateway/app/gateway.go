package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	compilecache "github.com/enitrat/cairo-wasm/internal/cache/compile"
	"github.com/enitrat/cairo-wasm/internal/corelib"
	"github.com/enitrat/cairo-wasm/internal/estimate"
	"github.com/enitrat/cairo-wasm/internal/gateway/config"
	"github.com/enitrat/cairo-wasm/internal/gateway/service/compile"
	"github.com/enitrat/cairo-wasm/internal/gateway/service/execute"
	"github.com/enitrat/cairo-wasm/internal/gateway/textapi"
	"github.com/enitrat/cairo-wasm/internal/toolchain"
	"github.com/enitrat/cairo-wasm/internal/toolchain/wasmhost"
)

// Toolchain is everything the gateway needs from the external compiler/VM.
type Toolchain interface {
	toolchain.Compiler
	toolchain.Runner
	toolchain.CasmCompiler
}

// LoadToolchain instantiates the configured WebAssembly toolchain module.
func LoadToolchain(ctx context.Context, cfg *config.Config) (*wasmhost.Host, error) {
	path := strings.TrimSpace(cfg.Wasm)
	if path == "" {
		return nil, fmt.Errorf("CAIRO_TOOLCHAIN_WASM is required")
	}
	if err := checkCorelib(corelib.Default(), cfg.AllowPlaceholderCorelib); err != nil {
		return nil, err
	}
	host, err := wasmhost.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load toolchain %s: %w", path, err)
	}
	log.Printf("toolchain: loaded %s", path)
	return host, nil
}

// checkCorelib refuses the stand-in corelib unless allow is set; the real
// compiler cannot build against it.
func checkCorelib(snap *corelib.Snapshot, allow bool) error {
	if !snap.IsPlaceholder() {
		return nil
	}
	if !allow {
		return fmt.Errorf("embedded corelib is a placeholder: regenerate it with go generate ./internal/corelib or set ALLOW_PLACEHOLDER_CORELIB=true")
	}
	log.Printf("WARNING: serving the placeholder corelib; requests without corelib_files will not compile")
	return nil
}

// NewGateway wires the compile and execute services around tc.
func NewGateway(tc Toolchain, cfg *config.Config) (*textapi.Gateway, error) {
	if tc == nil {
		return nil, fmt.Errorf("toolchain is nil")
	}
	compiler := compile.New(tc)
	executor := execute.New(compiler, tc, execute.WithPanicAsFailure(cfg.PanicFailure))

	var opts []textapi.Option
	if cfg.Cache.CompileEntries > 0 {
		cache, err := compilecache.New(compilecache.CacheConfig{MaxEntries: cfg.Cache.CompileEntries})
		if err != nil {
			return nil, err
		}
		opts = append(opts, textapi.WithCompileCache(cache))
		log.Printf("compile cache: %d entries", cfg.Cache.CompileEntries)
	}
	return textapi.New(compiler, executor, estimate.Default(tc), opts...), nil
}
