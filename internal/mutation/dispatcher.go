package mutation

import (
	"context"
	"sync"
	"time"
)

// Dispatcher decides where post-commit side effects run.
type Dispatcher interface {
	Dispatch(ctx context.Context, fn func(ctx context.Context))
}

// AsyncDispatcher runs each effect batch on its own goroutine, detached from
// the request context: cancelling an HTTP request must not cancel effects
// for data that already committed. Wait blocks until in-flight batches drain.
type AsyncDispatcher struct {
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncDispatcher creates the production dispatcher with a 30s effect
// window per batch.
func NewAsyncDispatcher() *AsyncDispatcher {
	return &AsyncDispatcher{timeout: 30 * time.Second}
}

func (d *AsyncDispatcher) Dispatch(ctx context.Context, fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		effectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		fn(effectCtx)
	}()
}

// Wait blocks until every dispatched batch has finished; used on shutdown.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}

// SyncDispatcher runs effects inline. Tests and embedders that need
// deterministic ordering inject it.
type SyncDispatcher struct{}

// NewSyncDispatcher creates an inline dispatcher.
func NewSyncDispatcher() SyncDispatcher {
	return SyncDispatcher{}
}

func (SyncDispatcher) Dispatch(ctx context.Context, fn func(ctx context.Context)) {
	fn(ctx)
}
