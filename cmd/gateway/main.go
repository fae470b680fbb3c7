// Command gateway serves the Cairo compile/run API over Connect, websocket and
// plain HTTP. See internal/gateway/config for the environment it reads.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enitrat/cairo-wasm/internal/gateway/app"
)

// drainTimeout bounds in-flight compiles and runs after a stop signal.
const drainTimeout = 15 * time.Second

type service interface {
	Start() error
	Shutdown(ctx context.Context) error
}

func main() {
	gw, err := app.New()
	if err != nil {
		log.Fatalf("gateway: startup failed: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	if err := serve(gw, stop, drainTimeout); err != nil {
		log.Fatalf("gateway: %v", err)
	}
}

// serve runs svc until a signal arrives or the listener fails, then drains it
// and releases the toolchain.
func serve(svc service, stop <-chan os.Signal, grace time.Duration) error {
	listenErr := make(chan error, 1)
	go func() { listenErr <- svc.Start() }()

	var cause error
	select {
	case sig := <-stop:
		log.Printf("gateway: received %v, draining for up to %s", sig, grace)
	case cause = <-listenErr:
		if cause != nil {
			log.Printf("gateway: listener failed: %v", cause)
		} else {
			log.Printf("gateway: listener closed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := svc.Shutdown(ctx); err != nil {
		log.Printf("gateway: unclean shutdown: %v", err)
		if cause == nil {
			cause = err
		}
	}
	log.Printf("gateway: stopped, toolchain released")
	return cause
}
