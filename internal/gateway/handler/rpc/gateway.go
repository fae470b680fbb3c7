package rpc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/enitrat/cairo-wasm/internal/gateway/repository/ledger"
	"github.com/enitrat/cairo-wasm/internal/gateway/textapi"

	"connectrpc.com/connect"
)

const GatewayServiceName = "cairo.v1.GatewayService"

const (
	GatewayServiceCompileProcedure         = "/cairo.v1.GatewayService/Compile"
	GatewayServiceCompileAndRunProcedure   = "/cairo.v1.GatewayService/CompileAndRun"
	GatewayServiceRunSierraProcedure       = "/cairo.v1.GatewayService/RunSierra"
	GatewayServiceCorelibManifestProcedure = "/cairo.v1.GatewayService/CorelibManifest"
	GatewayServiceEstimateSierraProcedure  = "/cairo.v1.GatewayService/EstimateSierra"
)

// GatewayHandler serves the text API over connect and records every call in
// the ledger.
type GatewayHandler struct {
	gateway *textapi.Gateway
	ledger  ledger.Store
}

func NewGatewayHandler(gateway *textapi.Gateway, store ledger.Store) *GatewayHandler {
	return &GatewayHandler{gateway: gateway, ledger: store}
}

func (h *GatewayHandler) Compile(ctx context.Context, req *connect.Request[Payload]) (*connect.Response[Payload], error) {
	return h.unary(ctx, textapi.CallCompile, req)
}

func (h *GatewayHandler) CompileAndRun(ctx context.Context, req *connect.Request[Payload]) (*connect.Response[Payload], error) {
	return h.unary(ctx, textapi.CallCompileAndRun, req)
}

func (h *GatewayHandler) RunSierra(ctx context.Context, req *connect.Request[Payload]) (*connect.Response[Payload], error) {
	return h.unary(ctx, textapi.CallRunSierra, req)
}

func (h *GatewayHandler) CorelibManifest(ctx context.Context, req *connect.Request[Payload]) (*connect.Response[Payload], error) {
	return h.unary(ctx, textapi.CallCorelibManifest, req)
}

func (h *GatewayHandler) EstimateSierra(ctx context.Context, req *connect.Request[Payload]) (*connect.Response[Payload], error) {
	return h.unary(ctx, textapi.CallEstimate, req)
}

func (h *GatewayHandler) unary(ctx context.Context, call textapi.Call, req *connect.Request[Payload]) (*connect.Response[Payload], error) {
	res, err := h.invoke(ctx, call, req.Msg.JSON)
	if err != nil {
		return nil, toGatewayError(err)
	}
	return connect.NewResponse(&Payload{JSON: res.Response}), nil
}

// invoke runs one call and appends its outcome to the ledger. Ledger failures
// are logged and never change the response.
func (h *GatewayHandler) invoke(ctx context.Context, call textapi.Call, body []byte) (textapi.Result, error) {
	if err := ctx.Err(); err != nil {
		return textapi.Result{}, err
	}
	started := time.Now()
	res, err := h.gateway.Dispatch(ctx, call, body)
	if err != nil {
		return textapi.Result{}, err
	}
	h.record(ctx, res, time.Since(started))
	return res, nil
}

func (h *GatewayHandler) record(ctx context.Context, res textapi.Result, elapsed time.Duration) {
	if h.ledger == nil {
		return
	}
	_, err := h.ledger.Append(context.WithoutCancel(ctx), ledger.Entry{
		Call:     string(res.Call),
		Crate:    res.Outcome.Crate,
		Success:  res.Outcome.Success,
		Panicked: res.Outcome.Panicked,
		Error:    res.Outcome.Error,
		Duration: elapsed,
	})
	if err != nil {
		log.Printf("ledger: append %s failed: %v", res.Call, err)
	}
}

func toGatewayError(err error) error {
	switch {
	case errors.Is(err, textapi.ErrUnknownCall):
		return connect.NewError(connect.CodeUnimplemented, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, fmt.Errorf("gateway call failed: %w", err))
	}
}

// NewGatewayServiceHandler builds the HTTP handler for the service, mounted
// at the returned path prefix.
func NewGatewayServiceHandler(h *GatewayHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(rawJSONCodec{})}, opts...)
	compile := connect.NewUnaryHandler(GatewayServiceCompileProcedure, h.Compile, opts...)
	compileAndRun := connect.NewUnaryHandler(GatewayServiceCompileAndRunProcedure, h.CompileAndRun, opts...)
	runSierra := connect.NewUnaryHandler(GatewayServiceRunSierraProcedure, h.RunSierra, opts...)
	manifest := connect.NewUnaryHandler(GatewayServiceCorelibManifestProcedure, h.CorelibManifest, opts...)
	estimate := connect.NewUnaryHandler(GatewayServiceEstimateSierraProcedure, h.EstimateSierra, opts...)
	return "/" + GatewayServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GatewayServiceCompileProcedure:
			compile.ServeHTTP(w, r)
		case GatewayServiceCompileAndRunProcedure:
			compileAndRun.ServeHTTP(w, r)
		case GatewayServiceRunSierraProcedure:
			runSierra.ServeHTTP(w, r)
		case GatewayServiceCorelibManifestProcedure:
			manifest.ServeHTTP(w, r)
		case GatewayServiceEstimateSierraProcedure:
			estimate.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NewGatewayServiceClient returns typed clients for the service procedures.
func NewGatewayServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GatewayServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(rawJSONCodec{})}, opts...)
	return &GatewayServiceClient{
		Compile:         connect.NewClient[Payload, Payload](httpClient, baseURL+GatewayServiceCompileProcedure, opts...),
		CompileAndRun:   connect.NewClient[Payload, Payload](httpClient, baseURL+GatewayServiceCompileAndRunProcedure, opts...),
		RunSierra:       connect.NewClient[Payload, Payload](httpClient, baseURL+GatewayServiceRunSierraProcedure, opts...),
		CorelibManifest: connect.NewClient[Payload, Payload](httpClient, baseURL+GatewayServiceCorelibManifestProcedure, opts...),
		EstimateSierra:  connect.NewClient[Payload, Payload](httpClient, baseURL+GatewayServiceEstimateSierraProcedure, opts...),
	}
}

type GatewayServiceClient struct {
	Compile         *connect.Client[Payload, Payload]
	CompileAndRun   *connect.Client[Payload, Payload]
	RunSierra       *connect.Client[Payload, Payload]
	CorelibManifest *connect.Client[Payload, Payload]
	EstimateSierra  *connect.Client[Payload, Payload]
}
