package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
)

// errShuttingDown is the cancel cause of request work cut short by shutdown.
var errShuttingDown = errors.New("server shutting down")

var baseCtx atomic.Pointer[context.Context]

// SetBaseContext installs the process context. Once it is done, in-flight
// model work is canceled with a shutdown cause. A nil ctx never cancels.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		baseCtx.Store(nil)
		return
	}
	baseCtx.Store(&ctx)
}

// workContext derives the context for model work from the request. It keeps
// the request values and ends on client disconnect or process shutdown.
func workContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(r.Context())
	p := baseCtx.Load()
	if p == nil {
		return ctx, func() { cancel(nil) }
	}
	if (*p).Err() != nil {
		cancel(errShuttingDown)
		return ctx, func() {}
	}
	stop := context.AfterFunc(*p, func() { cancel(errShuttingDown) })
	return ctx, func() {
		stop()
		cancel(nil)
	}
}

// shuttingDown reports whether ctx was canceled by shutdown.
func shuttingDown(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), errShuttingDown)
}
