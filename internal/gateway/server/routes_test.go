package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/enitrat/cairo-wasm/internal/estimate"
	"github.com/enitrat/cairo-wasm/internal/gateway/handler"
	"github.com/enitrat/cairo-wasm/internal/gateway/handler/rpc"
	"github.com/enitrat/cairo-wasm/internal/gateway/middleware"
	"github.com/enitrat/cairo-wasm/internal/gateway/repository/ledger"
	"github.com/enitrat/cairo-wasm/internal/gateway/service/compile"
	"github.com/enitrat/cairo-wasm/internal/gateway/service/execute"
	"github.com/enitrat/cairo-wasm/internal/gateway/textapi"
	"github.com/enitrat/cairo-wasm/internal/toolchain/toolchaintest"
)

func newTestMux(cfg MuxConfig) http.Handler {
	tc := toolchaintest.New()
	c := compile.New(tc)
	gw := textapi.New(c, execute.New(c, tc), estimate.Approximate{})
	store := ledger.NewMemoryStore(4)
	return NewMux(rpc.NewGatewayHandler(gw, store), handler.NewTraceHandler(store), cfg)
}

func TestNewMuxRoutes(t *testing.T) {
	mux := newTestMux(MuxConfig{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, rpc.GatewayServiceCompileProcedure,
		strings.NewReader(`{"crate_name":"app","files":{"lib.cairo":"fn main() -> felt252 { 1 }"}}`))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("compile status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/run-logs", nil))
	if !strings.Contains(rec.Body.String(), `"call":"compile"`) {
		t.Fatalf("run-logs body = %s", rec.Body.String())
	}
}

func TestNewMuxAppliesRateLimit(t *testing.T) {
	mux := newTestMux(MuxConfig{RateLimiter: middleware.NewIPRateLimiter(0, 1)})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		mux.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}

func TestNewMuxTrustsForwardedHeadersOnlyFromProxies(t *testing.T) {
	trusted, err := middleware.ParseTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}
	mux := newTestMux(MuxConfig{RateLimiter: middleware.NewIPRateLimiter(0, 1), TrustedProxies: trusted})

	do := func(remote, fwd string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", fwd)
		mux.ServeHTTP(rec, req)
		return rec.Code
	}
	// Behind the proxy each forwarded client gets its own bucket.
	if code := do("10.0.0.1:1234", "203.0.113.1"); code != http.StatusOK {
		t.Fatalf("first proxied client = %d", code)
	}
	if code := do("10.0.0.1:1234", "203.0.113.2"); code != http.StatusOK {
		t.Fatalf("second proxied client = %d", code)
	}
	// A direct peer cannot rotate the header to dodge its bucket.
	if code := do("192.0.2.9:1234", "203.0.113.3"); code != http.StatusOK {
		t.Fatalf("direct client = %d", code)
	}
	if code := do("192.0.2.9:1234", "203.0.113.4"); code != http.StatusTooManyRequests {
		t.Fatalf("direct client with new header = %d", code)
	}
}
