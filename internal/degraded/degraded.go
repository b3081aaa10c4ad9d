// Package degraded reports whether figure callbacks are failing often enough
// that the service should report itself degraded.
package degraded

import (
	"time"

	"github.com/kjstillabower/geo-data-maps/internal/traffic"
)

// RecordSuccess records a figure callback that returned a figure.
func RecordSuccess() {
	traffic.RecordSuccess()
}

// RecordError records a failed figure callback (upstream error, timeout, etc.).
func RecordError() {
	traffic.RecordError()
}

// ErrorRate returns (errorCount, totalCount) within the window.
func ErrorRate(window time.Duration) (errors, total int) {
	return traffic.ErrorRate(window)
}

// IsDegraded reports whether the error share within window reaches thresholdPct.
// An empty window is never degraded.
func IsDegraded(window time.Duration, thresholdPct int) bool {
	if window <= 0 || thresholdPct <= 0 {
		return false
	}
	errors, total := ErrorRate(window)
	if total == 0 {
		return false
	}
	return float64(errors)*100/float64(total) >= float64(thresholdPct)
}

// Reset clears all recorded data. For tests only.
func Reset() {
	traffic.Reset()
}
