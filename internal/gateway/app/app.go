package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/enitrat/cairo-wasm/internal/gateway/config"
	"github.com/enitrat/cairo-wasm/internal/gateway/handler"
	"github.com/enitrat/cairo-wasm/internal/gateway/handler/rpc"
	"github.com/enitrat/cairo-wasm/internal/gateway/middleware"
	"github.com/enitrat/cairo-wasm/internal/gateway/server"
	"github.com/enitrat/cairo-wasm/internal/toolchain/wasmhost"

	"golang.org/x/time/rate"
)

type App struct {
	server  *server.Server
	host    *wasmhost.Host
	stores  *gatewayStores
	limiter *middleware.IPRateLimiter
	cancel  context.CancelFunc
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	host, err := LoadToolchain(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, host)
	if err != nil {
		_ = host.Close(context.Background())
		return nil, err
	}
	a.host = host
	return a, nil
}

func newApp(cfg *config.Config, tc Toolchain) (*App, error) {
	// Dependencies
	stores, err := initStores(cfg)
	if err != nil {
		return nil, err
	}
	gw, err := NewGateway(tc, cfg)
	if err != nil {
		_ = stores.close()
		return nil, err
	}

	gatewayHandler := rpc.NewGatewayHandler(gw, stores.ledger)
	traceHandler := handler.NewTraceHandler(stores.ledger)

	trusted, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		_ = stores.close()
		return nil, err
	}
	muxCfg := server.MuxConfig{AllowedOrigins: cfg.CORSOrigins, TrustedProxies: trusted}
	if cfg.RateLimit.Enabled() {
		muxCfg.RateLimiter = middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}

	// Routing & Server
	mux := server.NewMux(gatewayHandler, traceHandler, muxCfg)
	srv := server.New(cfg.Port, mux)

	return &App{
		server:  srv,
		stores:  stores,
		limiter: muxCfg.RateLimiter,
	}, nil
}

func (a *App) Start() error {
	if a.limiter != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.cancel = cancel
		go a.limiter.Run(ctx)
	}
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	err := a.server.Shutdown(ctx)
	if a.host != nil {
		err = errors.Join(err, a.host.Close(ctx))
	}
	if a.stores != nil {
		err = errors.Join(err, a.stores.close())
	}
	return err
}
