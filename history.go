package deckfs

import (
	"sync"
	"time"
)

// SlotError is one recoverable failure retained in the engine's history.
type SlotError struct {
	Slot int
	Time time.Time
	Err  error
}

// errorHistory is a thread-safe ring of recent recoverable slot errors,
// oldest evicted first.
type errorHistory struct {
	mu      sync.RWMutex
	entries []SlotError
	size    int
	head    int
	count   int
}

// newErrorHistory creates a ring with the given capacity. Capacity 0
// disables history retention.
func newErrorHistory(size int) *errorHistory {
	if size <= 0 {
		return nil
	}
	return &errorHistory{
		entries: make([]SlotError, size),
		size:    size,
	}
}

// push records a failure, evicting the oldest entry when full.
func (h *errorHistory) push(slot int, at time.Time, err error) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = SlotError{Slot: slot, Time: at, Err: err}
	h.head = (h.head + 1) % h.size
	if h.count < h.size {
		h.count++
	}
}

// all returns the retained failures, oldest first.
func (h *errorHistory) all() []SlotError {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return nil
	}

	out := make([]SlotError, h.count)
	start := (h.head - h.count + h.size) % h.size
	for i := 0; i < h.count; i++ {
		out[i] = h.entries[(start+i)%h.size]
	}
	return out
}
