package degraded

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kjstillabower/geo-data-maps/internal/traffic"
)

// attemptTimeout bounds one recovery check. Re-warming the startup datasets
// includes the larger Overpass queries.
const attemptTimeout = 2 * time.Minute

var (
	recoveryChan   chan struct{}
	recoveryChanMu sync.Mutex
)

// CheckFunc checks whether the upstreams serve again, typically by reloading
// the startup datasets. nil means recovered.
type CheckFunc func(ctx context.Context) error

// Clear drops the recorded figure errors so health stops reporting degraded.
func Clear() {
	traffic.ClearErrors()
}

// NotifyDegraded asks the recovery listener to start a recovery run unless
// one is already in progress. Non-blocking; a no-op without a listener.
func NotifyDegraded() {
	recoveryChanMu.Lock()
	ch := recoveryChan
	recoveryChanMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// StartRecoveryListener runs RunRecovery in the background whenever
// NotifyDegraded is called, at most one run at a time, until ctx is done.
func StartRecoveryListener(ctx context.Context, check CheckFunc, initial, max time.Duration, onExhausted func()) {
	ch := make(chan struct{}, 1)
	recoveryChanMu.Lock()
	recoveryChan = ch
	recoveryChanMu.Unlock()

	var running atomic.Bool
	go func() {
		defer func() {
			recoveryChanMu.Lock()
			if recoveryChan == ch {
				recoveryChan = nil
			}
			recoveryChanMu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				if running.Swap(true) {
					continue
				}
				go func() {
					defer running.Store(false)
					RunRecovery(ctx, check, initial, max, onExhausted)
				}()
			}
		}
	}()
}

// RunRecovery calls check after each Fibonacci delay (initial, 2×, 3×, 5×...
// up to max). The first successful check clears the error window and returns
// true. When the last check fails onExhausted is called; it may be nil.
func RunRecovery(ctx context.Context, check CheckFunc, initial, max time.Duration, onExhausted func()) bool {
	delays := fibDelays(initial, max)
	if len(delays) == 0 {
		return false
	}
	for _, d := range delays {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(d):
		}
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		err := check(attemptCtx)
		cancel()
		if err == nil {
			Clear()
			return true
		}
	}
	if onExhausted != nil {
		onExhausted()
	}
	return false
}

// fibDelays returns initial×1, ×2, ×3, ×5, ×8... while not above max.
func fibDelays(initial, max time.Duration) []time.Duration {
	if initial <= 0 || max < initial {
		return nil
	}
	var out []time.Duration
	for a, b := time.Duration(1), time.Duration(2); initial*a <= max; a, b = b, a+b {
		out = append(out, initial*a)
	}
	return out
}
