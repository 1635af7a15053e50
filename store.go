package deckfs

import (
	"sort"
	"sync"
)

// Slot is the resolved state of one button position. The store hands out
// value copies: a read always sees a consistent pre- or post-mutation
// snapshot of the slot, never a mix of two updates.
type Slot struct {
	// Index is the 1-based slot index.
	Index int

	// Dir is the slot directory path.
	Dir string

	// ImagePath is the current image file, or "" when the slot is empty.
	ImagePath string

	// ScriptPath is the current action script, or "" when a press is a
	// no-op.
	ScriptPath string

	// Status is the slot's health.
	Status SlotStatus

	// Err is the last error message for the slot, cleared on recovery.
	Err string
}

// Store is the single source of truth for what the device shows and what
// runs on press. The reconciler is the only writer; the action dispatcher
// and render path read concurrently.
type Store struct {
	mu    sync.RWMutex
	slots map[int]Slot
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{slots: make(map[int]Slot)}
}

// Get returns a copy of the slot and whether it exists.
func (s *Store) Get(index int) (Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[index]
	return slot, ok
}

// Snapshot returns copies of all slots ordered by index.
func (s *Store) Snapshot() []Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Slot, 0, len(s.slots))
	for _, slot := range s.slots {
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// UpsertImage sets the slot's image path, creating the slot if needed.
func (s *Store) UpsertImage(index int, dir, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.ensure(index, dir)
	slot.ImagePath = path
	s.slots[index] = slot
}

// ClearImage removes the slot's image path.
func (s *Store) ClearImage(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.slots[index]; ok {
		slot.ImagePath = ""
		s.slots[index] = slot
	}
}

// UpsertScript sets the slot's action script path, creating the slot if
// needed.
func (s *Store) UpsertScript(index int, dir, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.ensure(index, dir)
	slot.ScriptPath = path
	s.slots[index] = slot
}

// ClearScript removes the slot's action script path.
func (s *Store) ClearScript(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.slots[index]; ok {
		slot.ScriptPath = ""
		s.slots[index] = slot
	}
}

// SetStatus updates the slot's status and error message, creating the
// slot if needed. errMsg is kept only for StatusError and cleared
// otherwise.
func (s *Store) SetStatus(index int, dir string, status SlotStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.ensure(index, dir)
	slot.Status = status
	if status == StatusError {
		slot.Err = errMsg
	} else {
		slot.Err = ""
	}
	s.slots[index] = slot
}

// Remove deletes the slot entirely.
func (s *Store) Remove(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, index)
}

// ensure returns the slot, creating it on first reference. Caller holds
// the write lock.
func (s *Store) ensure(index int, dir string) Slot {
	slot, ok := s.slots[index]
	if !ok {
		slot = Slot{Index: index, Status: StatusEmpty}
	}
	if dir != "" {
		slot.Dir = dir
	}
	return slot
}
