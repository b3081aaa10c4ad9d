package service

import (
	"sync"
)

// stampedeTracker counts callers currently resolving a miss for each cache key.
// A count above one means several requests missed the same dataset at once.
type stampedeTracker struct {
	mu           sync.Mutex
	activeMisses map[string]int
}

func newStampedeTracker() *stampedeTracker {
	return &stampedeTracker{
		activeMisses: make(map[string]int),
	}
}

// RecordMiss records a miss for key and returns the concurrent count after incrementing.
// Callers defer Resolve(key).
func (st *stampedeTracker) RecordMiss(key string) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.activeMisses[key]++
	return st.activeMisses[key]
}

// Resolve records that one miss for key has finished.
func (st *stampedeTracker) Resolve(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.activeMisses[key] <= 1 {
		delete(st.activeMisses, key)
		return
	}
	st.activeMisses[key]--
}
