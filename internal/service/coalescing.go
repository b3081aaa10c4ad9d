package service

import (
	"context"
	"sync"
	"time"
)

// inFlightRequest is one upstream load that several callers may wait for.
type inFlightRequest struct {
	done   chan struct{}
	result []byte
	err    error
}

// requestCoalescer collapses concurrent loads of the same cache key into one
// upstream call. The load runs detached from the first caller's context so a
// disconnecting browser does not fail the other waiters; timeout bounds it.
type requestCoalescer struct {
	mu       sync.Mutex
	inFlight map[string]*inFlightRequest
	timeout  time.Duration
}

func newRequestCoalescer(timeout time.Duration) *requestCoalescer {
	return &requestCoalescer{
		inFlight: make(map[string]*inFlightRequest),
		timeout:  timeout,
	}
}

// GetOrDo starts fn for key unless a load for key is already running, then
// waits for the result or ctx. shared reports whether the caller joined an
// existing load.
func (rc *requestCoalescer) GetOrDo(ctx context.Context, key string, fn func(context.Context) ([]byte, error)) (result []byte, shared bool, err error) {
	rc.mu.Lock()
	req, exists := rc.inFlight[key]
	if !exists {
		req = &inFlightRequest{done: make(chan struct{})}
		rc.inFlight[key] = req
		go rc.run(ctx, key, req, fn)
	}
	rc.mu.Unlock()

	select {
	case <-req.done:
		return req.result, exists, req.err
	case <-ctx.Done():
		return nil, exists, ctx.Err()
	}
}

func (rc *requestCoalescer) run(ctx context.Context, key string, req *inFlightRequest, fn func(context.Context) ([]byte, error)) {
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rc.timeout)
	defer cancel()

	req.result, req.err = fn(loadCtx)
	// Remove before closing so a caller arriving after completion starts a
	// fresh load instead of reading a finished one.
	rc.mu.Lock()
	delete(rc.inFlight, key)
	rc.mu.Unlock()
	close(req.done)
}

// pending returns the number of keys with a load in progress.
func (rc *requestCoalescer) pending() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.inFlight)
}
