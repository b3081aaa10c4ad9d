package traffic

import (
	"sync"
	"time"
)

// Outcome classifies a served request for the health windows.
type Outcome int

const (
	Success Outcome = iota
	Error
	Denied
)

// retention bounds how long events are kept; windows longer than this undercount.
const retention = 10 * time.Minute

var defaultTracker = NewTracker(time.Now)

// RecordSuccess records a figure callback that returned a figure.
func RecordSuccess() { defaultTracker.Record(Success) }

// RecordError records a figure callback that failed (upstream, parse, timeout).
func RecordError() { defaultTracker.Record(Error) }

// RecordDenied records a rate-limit denial (429).
func RecordDenied() { defaultTracker.Record(Denied) }

// RequestCount returns the number of outcomes of any kind within the window.
func RequestCount(window time.Duration) int { return defaultTracker.RequestCount(window) }

// DenialCount returns the number of denials within the window.
func DenialCount(window time.Duration) int { return defaultTracker.Count(Denied, window) }

// ErrorRate returns (errorCount, totalCount) within the window. Denials are excluded.
func ErrorRate(window time.Duration) (errors, total int) { return defaultTracker.ErrorRate(window) }

// ClearErrors drops recorded errors so a recovered service stops reporting
// degraded. Successes and denials are kept.
func ClearErrors() { defaultTracker.Drop(Error) }

// Reset clears all recorded outcomes. For tests only.
func Reset() { defaultTracker.Reset() }

type event struct {
	at      time.Time
	outcome Outcome
}

// Tracker keeps a time-ordered sliding window of request outcomes.
// Single source of truth for overload (denials) and degraded (error rate) health.
type Tracker struct {
	mu     sync.Mutex
	now    func() time.Time
	events []event
}

// NewTracker returns a Tracker using now as its clock.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now}
}

// Record appends an outcome at the current time and prunes expired events.
func (t *Tracker) Record(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.events = append(t.events, event{at: now, outcome: o})
	t.pruneLocked(now)
}

// RequestCount returns the number of outcomes within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	n := 0
	for _, e := range t.events {
		if !e.at.Before(cutoff) {
			n++
		}
	}
	return n
}

// Count returns the number of outcomes of kind o within the window.
func (t *Tracker) Count(o Outcome, window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	n := 0
	for _, e := range t.events {
		if e.outcome == o && !e.at.Before(cutoff) {
			n++
		}
	}
	return n
}

// ErrorRate returns (errorCount, successCount+errorCount) within the window.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	for _, e := range t.events {
		if e.at.Before(cutoff) {
			continue
		}
		switch e.outcome {
		case Error:
			errors++
			total++
		case Success:
			total++
		}
	}
	return errors, total
}

// Drop removes every recorded outcome of kind o.
func (t *Tracker) Drop(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.events[:0]
	for _, e := range t.events {
		if e.outcome != o {
			kept = append(kept, e)
		}
	}
	t.events = kept
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

// pruneLocked drops events older than retention. Events are appended in
// clock order so the expired ones form a prefix.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	i := 0
	for ; i < len(t.events) && t.events[i].at.Before(cutoff); i++ {
	}
	if i > 0 {
		t.events = append(t.events[:0], t.events[i:]...)
	}
}
