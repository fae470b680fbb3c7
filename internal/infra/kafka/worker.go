package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
)

// Handler answers one request kind with a JSON response body.
type Handler func(ctx context.Context, kind string, payload []byte) ([]byte, error)

type RequestSource interface {
	NextRequest(ctx context.Context) (Request, error)
}

type ResponseSink interface {
	PublishResponse(ctx context.Context, resp Response) error
}

// Worker pulls requests, hands them to the handler with bounded parallelism
// and publishes every reply.
type Worker struct {
	handler     Handler
	maxParallel int
}

func NewWorker(handler Handler, maxParallel int) *Worker {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &Worker{handler: handler, maxParallel: maxParallel}
}

// Run consumes until ctx is cancelled or the source signals completion via
// io.EOF. In-flight requests finish before Run returns.
func (w *Worker) Run(ctx context.Context, source RequestSource, sink ResponseSink) error {
	if w.handler == nil {
		return fmt.Errorf("worker handler is nil")
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, w.maxParallel)
	finish := func(err error) error {
		wg.Wait()
		return err
	}

	for {
		req, err := source.NextRequest(ctx)
		if err != nil {
			var msgErr *MessageError
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF):
				return finish(nil)
			case errors.As(err, &msgErr):
				log.Printf("worker: rejecting %s: %v", msgErr.ID, msgErr.Err)
				w.publish(ctx, sink, Response{ID: msgErr.ID, Error: msgErr.Err.Error()})
				continue
			default:
				return finish(fmt.Errorf("get next request: %w", err))
			}
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			defer func() { <-sem }()
			w.publish(ctx, sink, w.handle(ctx, req))
		}(req)
	}
}

func (w *Worker) handle(ctx context.Context, req Request) Response {
	resp := Response{ID: req.ID, Kind: req.Kind}
	out, err := w.handler(ctx, req.Kind, req.Payload)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Payload = out
	return resp
}

func (w *Worker) publish(ctx context.Context, sink ResponseSink, resp Response) {
	if err := sink.PublishResponse(context.WithoutCancel(ctx), resp); err != nil {
		log.Printf("worker: publish %s failed: %v", resp.ID, err)
	}
}
