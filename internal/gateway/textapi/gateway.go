// Package textapi is the text-in/text-out surface of the gateway. Every call
// takes a JSON request and returns a JSON response; nothing crosses the
// boundary as a Go error or a panic.
package textapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/enitrat/cairo-wasm/internal/corelib"
	"github.com/enitrat/cairo-wasm/internal/estimate"
	"github.com/enitrat/cairo-wasm/internal/gateway/contract"
	"github.com/enitrat/cairo-wasm/internal/gateway/service/compile"
	"github.com/enitrat/cairo-wasm/internal/gateway/service/execute"
	"github.com/enitrat/cairo-wasm/internal/sierra"
	"github.com/enitrat/cairo-wasm/internal/util/jsonutil"
)

type Call string

const (
	CallCompile         Call = "compile"
	CallCompileAndRun   Call = "compile_and_run"
	CallRunSierra       Call = "run_sierra"
	CallCorelibManifest Call = "corelib_manifest"
	CallEstimate        Call = "estimate"
)

// Calls lists every call Dispatch understands.
var Calls = []Call{CallCompile, CallCompileAndRun, CallRunSierra, CallCorelibManifest, CallEstimate}

var ErrUnknownCall = errors.New("unknown call")

// CompileCache stores successful compile responses by request key.
type CompileCache interface {
	Get(key string) (contract.CompileResponse, bool)
	Add(key string, resp contract.CompileResponse)
}

// Outcome summarises a call for ledgers and logs. It never carries sources,
// Sierra or program output.
type Outcome struct {
	Crate    string
	Success  bool
	Panicked bool
	Error    string
}

type Result struct {
	Call     Call
	Response []byte
	Outcome  Outcome
}

type Gateway struct {
	compiler  *compile.Service
	executor  *execute.Service
	estimator estimate.Estimator
	corelib   *corelib.Snapshot
	cache     CompileCache
}

type Option func(*Gateway)

func WithCompileCache(c CompileCache) Option {
	return func(g *Gateway) {
		g.cache = c
	}
}

// WithCorelib overrides the snapshot served by the manifest call.
func WithCorelib(s *corelib.Snapshot) Option {
	return func(g *Gateway) {
		if s != nil {
			g.corelib = s
		}
	}
}

func New(compiler *compile.Service, executor *execute.Service, estimator estimate.Estimator, opts ...Option) *Gateway {
	g := &Gateway{
		compiler:  compiler,
		executor:  executor,
		estimator: estimator,
		corelib:   corelib.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Compile(ctx context.Context, request string) string {
	return string(g.Handle(ctx, CallCompile, []byte(request)).Response)
}

func (g *Gateway) CompileAndRun(ctx context.Context, request string) string {
	return string(g.Handle(ctx, CallCompileAndRun, []byte(request)).Response)
}

func (g *Gateway) RunSierra(ctx context.Context, request string) string {
	return string(g.Handle(ctx, CallRunSierra, []byte(request)).Response)
}

func (g *Gateway) CorelibManifest() string {
	return string(g.Handle(context.Background(), CallCorelibManifest, nil).Response)
}

func (g *Gateway) Estimate(ctx context.Context, request string) string {
	return string(g.Handle(ctx, CallEstimate, []byte(request)).Response)
}

// Dispatch routes a request by call name.
func (g *Gateway) Dispatch(ctx context.Context, call Call, request []byte) (Result, error) {
	for _, known := range Calls {
		if known == call {
			return g.Handle(ctx, call, request), nil
		}
	}
	return Result{}, fmt.Errorf("%w %q", ErrUnknownCall, call)
}

// Handle runs one call. A panic inside the toolchain becomes an
// execution_infra response for that call.
func (g *Gateway) Handle(ctx context.Context, call Call, request []byte) (res Result) {
	res.Call = call
	defer func() {
		if r := recover(); r != nil {
			err := contract.NewError(contract.KindExecutionInfra, fmt.Sprintf("internal error: %v", r), nil)
			res.Response, res.Outcome = failure(call, err)
		}
	}()

	switch call {
	case CallCompile:
		resp, crate := g.compile(ctx, request)
		res.Response = encode(resp)
		res.Outcome = Outcome{Crate: crate, Success: resp.Success, Error: deref(resp.Error)}
	case CallCompileAndRun:
		resp, crate := g.compileAndRun(ctx, request)
		res.Response = encode(resp)
		res.Outcome = runOutcome(crate, resp)
	case CallRunSierra:
		resp := g.runSierra(ctx, request)
		res.Response = encode(resp)
		res.Outcome = runOutcome("", resp)
	case CallCorelibManifest:
		res.Response = encode(contract.Manifest(g.corelib.Paths()))
		res.Outcome = Outcome{Success: true}
	case CallEstimate:
		resp := g.estimate(ctx, request)
		res.Response = encode(resp)
		res.Outcome = Outcome{Success: resp.Success, Error: deref(resp.Error)}
	default:
		res.Response, res.Outcome = failure(call, fmt.Errorf("%w %q", ErrUnknownCall, call))
	}
	return res
}

func (g *Gateway) compile(ctx context.Context, raw []byte) (contract.CompileResponse, string) {
	req, err := contract.DecodeCompile(raw)
	if err != nil {
		return contract.CompileFailure(err, ""), ""
	}
	if g.cache == nil {
		return g.compiler.Respond(ctx, req), req.CrateName
	}
	key, err := CacheKey(req)
	if err != nil {
		return g.compiler.Respond(ctx, req), req.CrateName
	}
	if resp, ok := g.cache.Get(key); ok {
		return resp, req.CrateName
	}
	resp := g.compiler.Respond(ctx, req)
	if resp.Success {
		g.cache.Add(key, resp)
	}
	return resp, req.CrateName
}

func (g *Gateway) compileAndRun(ctx context.Context, raw []byte) (contract.RunResponse, string) {
	req, err := contract.DecodeCompileAndRun(raw)
	if err != nil {
		return contract.RunFailure(err, ""), ""
	}
	return g.executor.CompileAndRun(ctx, req), req.CrateName
}

func (g *Gateway) runSierra(ctx context.Context, raw []byte) contract.RunResponse {
	req, err := contract.DecodeRunSierra(raw)
	if err != nil {
		return contract.RunFailure(err, "")
	}
	return g.executor.RunSierra(ctx, req)
}

func (g *Gateway) estimate(ctx context.Context, raw []byte) contract.EstimateResponse {
	req, err := contract.DecodeEstimate(raw)
	if err != nil {
		return contract.EstimateFailure(err)
	}
	prog, err := sierra.Parse(req.Sierra)
	if err != nil {
		return contract.EstimateFailure(contract.NewError(contract.KindRequestParse,
			fmt.Sprintf("Failed parsing Sierra program: %v", err), err))
	}
	est, err := g.estimator.Estimate(ctx, prog)
	if err != nil {
		return contract.EstimateFailure(contract.NewError(contract.KindExecutionInfra,
			fmt.Sprintf("Failed estimating program: %v", err), err))
	}
	return contract.EstimateResponse{
		Success:     true,
		Functions:   est.Functions,
		Statements:  est.Statements,
		Libfuncs:    est.Libfuncs,
		CodeSize:    est.CodeSize,
		Approximate: est.Approximate,
	}
}

func failure(call Call, err error) ([]byte, Outcome) {
	out := Outcome{Error: err.Error()}
	switch call {
	case CallCompile:
		return encode(contract.CompileFailure(err, "")), out
	case CallEstimate:
		return encode(contract.EstimateFailure(err)), out
	default:
		return encode(contract.RunFailure(err, "")), out
	}
}

func runOutcome(crate string, resp contract.RunResponse) Outcome {
	return Outcome{Crate: crate, Success: resp.Success, Panicked: resp.Panicked, Error: deref(resp.Error)}
}

func encode(v any) []byte {
	out, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		msg, _ := jsonutil.MarshalNoEscape(err.Error())
		return []byte(`{"success":false,"error":` + string(msg) + `}`)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
