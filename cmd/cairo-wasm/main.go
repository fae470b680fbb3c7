// Command cairo-wasm runs one gateway call from the command line. The JSON
// request is read from the named file or stdin; the JSON response goes to
// stdout.
//
//	cairo-wasm run hello.json
//	echo '{"sierra":"..."}' | cairo-wasm estimate
//	cairo-wasm manifest
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/enitrat/cairo-wasm/internal/gateway/app"
	"github.com/enitrat/cairo-wasm/internal/gateway/config"
	"github.com/enitrat/cairo-wasm/internal/gateway/textapi"
)

var commands = map[string]textapi.Call{
	"compile":    textapi.CallCompile,
	"run":        textapi.CallCompileAndRun,
	"run-sierra": textapi.CallRunSierra,
	"manifest":   textapi.CallCorelibManifest,
	"estimate":   textapi.CallEstimate,
}

type toolchainLoader func(ctx context.Context, cfg *config.Config) (app.Toolchain, func(), error)

func main() {
	log.SetFlags(0)
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, loadWasm); err != nil {
		log.Fatalf("cairo-wasm: %v", err)
	}
}

func loadWasm(ctx context.Context, cfg *config.Config) (app.Toolchain, func(), error) {
	host, err := app.LoadToolchain(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return host, func() { _ = host.Close(ctx) }, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, load toolchainLoader) error {
	fs := flag.NewFlagSet("cairo-wasm", flag.ContinueOnError)
	wasm := fs.String("toolchain", "", "path to the compiler/VM WebAssembly module (default $CAIRO_TOOLCHAIN_WASM)")
	pretty := fs.Bool("pretty", false, "indent the JSON response")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: cairo-wasm [flags] <compile|run|run-sierra|manifest|estimate> [request.json]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return errors.New("expected a command and at most one request file")
	}
	call, ok := commands[fs.Arg(0)]
	if !ok {
		return fmt.Errorf("unknown command %q", fs.Arg(0))
	}

	cfg, err := config.LoadArgs(nil)
	if err != nil {
		return err
	}
	if v := strings.TrimSpace(*wasm); v != "" {
		cfg.Wasm = v
	}
	cfg.Cache.CompileEntries = 0

	var gw *textapi.Gateway
	var request []byte
	if call == textapi.CallCorelibManifest {
		gw = textapi.New(nil, nil, nil)
	} else {
		request, err = readRequest(fs.Arg(1), stdin)
		if err != nil {
			return err
		}
		tc, closeFn, err := load(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeFn()
		if gw, err = app.NewGateway(tc, cfg); err != nil {
			return err
		}
	}

	res := gw.Handle(ctx, call, request)
	out := res.Response
	if *pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err == nil {
			out = buf.Bytes()
		}
	}
	if _, err := fmt.Fprintf(stdout, "%s\n", out); err != nil {
		return err
	}
	if !res.Outcome.Success {
		return errCallFailed
	}
	return nil
}

var errCallFailed = errors.New("call failed")

func readRequest(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return raw, nil
}
