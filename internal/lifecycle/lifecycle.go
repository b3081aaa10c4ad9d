// Package lifecycle holds the process states the health check reports:
// starting while datasets are preloaded and shutting down while draining.
package lifecycle

import "sync/atomic"

var (
	starting     atomic.Bool
	shuttingDown atomic.Bool
)

// SetStarting marks the startup preload as running (true) or finished.
func SetStarting(v bool) {
	starting.Store(v)
}

// IsStarting reports whether datasets are still being preloaded. Pages are
// served meanwhile; their first callbacks just load synchronously.
func IsStarting() bool {
	return starting.Load()
}

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT is received.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining and should not get new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// State names the current lifecycle state: "shutting-down", "starting" or "running".
func State() string {
	switch {
	case IsShuttingDown():
		return "shutting-down"
	case IsStarting():
		return "starting"
	default:
		return "running"
	}
}
