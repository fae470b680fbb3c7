package app

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/enitrat/cairo-wasm/internal/corelib"
	"github.com/enitrat/cairo-wasm/internal/gateway/config"
	"github.com/enitrat/cairo-wasm/internal/toolchain/toolchaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGatewayUsesCache(t *testing.T) {
	tc := toolchaintest.New()
	gw, err := NewGateway(tc, &config.Config{PanicFailure: true, Cache: config.CacheConfig{CompileEntries: 4}})
	require.NoError(t, err)

	req := `{"crate_name":"app","files":{"lib.cairo":"fn main() -> felt252 { 3 }"}}`
	first := gw.Compile(context.Background(), req)
	second := gw.Compile(context.Background(), req)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, tc.Compiles())
}

func TestNewGatewayWithoutCache(t *testing.T) {
	tc := toolchaintest.New()
	gw, err := NewGateway(tc, &config.Config{})
	require.NoError(t, err)

	req := `{"crate_name":"app","files":{"lib.cairo":"fn main() -> felt252 { 3 }"}}`
	gw.Compile(context.Background(), req)
	gw.Compile(context.Background(), req)
	assert.Equal(t, 2, tc.Compiles())
}

func TestDefaultConfigCompilesEveryRequest(t *testing.T) {
	t.Setenv("COMPILE_CACHE_ENTRIES", "")
	cfg, err := config.LoadArgs(nil)
	require.NoError(t, err)

	tc := toolchaintest.New()
	gw, err := NewGateway(tc, cfg)
	require.NoError(t, err)

	req := `{"crate_name":"app","files":{"lib.cairo":"fn main() -> felt252 { 3 }"}}`
	gw.Compile(context.Background(), req)
	gw.Compile(context.Background(), req)
	assert.Equal(t, 2, tc.Compiles())
}

func TestNewGatewayRequiresToolchain(t *testing.T) {
	_, err := NewGateway(nil, &config.Config{})
	require.Error(t, err)
}

func TestLoadToolchainRequiresPath(t *testing.T) {
	_, err := LoadToolchain(context.Background(), &config.Config{})
	require.ErrorContains(t, err, "CAIRO_TOOLCHAIN_WASM")
}

func TestNewAppInMemory(t *testing.T) {
	a, err := newApp(&config.Config{Port: ":0", LedgerEntries: 8, RateLimit: config.RateLimitConfig{RPS: 1, Burst: 2}}, toolchaintest.New())
	require.NoError(t, err)
	assert.NotNil(t, a.limiter)
	require.NoError(t, a.Shutdown(context.Background()))
}

func TestNewAppRejectsBadTrustedProxy(t *testing.T) {
	_, err := newApp(&config.Config{Port: ":0", LedgerEntries: 8, TrustedProxies: []string{"not-a-cidr/8"}}, toolchaintest.New())
	require.ErrorContains(t, err, "invalid trusted proxy")
}

func TestCheckCorelibRejectsPlaceholder(t *testing.T) {
	placeholder, err := corelib.Load(fstest.MapFS{
		"lib.cairo":   {Data: []byte("pub mod ops;")},
		"PLACEHOLDER": {Data: []byte("stand-in")},
	}, ".")
	require.NoError(t, err)

	require.ErrorContains(t, checkCorelib(placeholder, false), "placeholder")
	require.NoError(t, checkCorelib(placeholder, true))
	require.NoError(t, checkCorelib(corelib.FromFiles(map[string]string{"lib.cairo": ""}), false))
}

func TestLoadToolchainRefusesPlaceholderCorelib(t *testing.T) {
	if !corelib.Default().IsPlaceholder() {
		t.Skip("embedded corelib is generated")
	}
	_, err := LoadToolchain(context.Background(), &config.Config{Wasm: "/nonexistent/toolchain.wasm"})
	require.ErrorContains(t, err, "placeholder")

	_, err = LoadToolchain(context.Background(), &config.Config{Wasm: "/nonexistent/toolchain.wasm", AllowPlaceholderCorelib: true})
	require.ErrorContains(t, err, "failed to load toolchain")
}
