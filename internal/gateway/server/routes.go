package server

import (
	"net/http"

	"github.com/enitrat/cairo-wasm/internal/gateway/handler"
	"github.com/enitrat/cairo-wasm/internal/gateway/handler/rpc"
	"github.com/enitrat/cairo-wasm/internal/gateway/middleware"
)

type MuxConfig struct {
	AllowedOrigins []string
	// RateLimiter is optional; nil serves every request.
	RateLimiter *middleware.IPRateLimiter
	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies middleware.TrustedProxies
}

func NewMux(
	gatewayHandler *rpc.GatewayHandler,
	traceHandler *handler.TraceHandler,
	cfg MuxConfig,
) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	mux.Handle(rpc.NewGatewayServiceHandler(gatewayHandler))
	mux.HandleFunc("/ws", gatewayHandler.HandleGatewayWS)

	// Debug Handlers
	mux.HandleFunc("/debug/run-logs", traceHandler.HandleRunLogs)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Middleware
	var h http.Handler = mux
	if cfg.RateLimiter != nil {
		h = middleware.RateLimit(cfg.RateLimiter, cfg.TrustedProxies)(h)
	}
	return middleware.CORS(cfg.AllowedOrigins)(h)
}
