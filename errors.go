package deckfs

import "fmt"

// DecodeError reports that a slot's image file could not be decoded.
// Recoverable: the slot shows the error placeholder and stays watched.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RenderError reports that a device write for a slot failed after retry.
// Recoverable: the engine is flagged degraded, other slots keep updating.
type RenderError struct {
	Slot int
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render slot %02d: %v", e.Slot, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// ScriptError reports that a slot's action script failed to spawn or
// exited non-zero. Recoverable: only the affected slot goes to error.
type ScriptError struct {
	Slot int
	Path string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script slot %02d (%s): %v", e.Slot, e.Path, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// WatchError reports that the filesystem notification channel broke.
// Fatal: the engine cannot function without it and stops.
type WatchError struct {
	Err error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("filesystem watch failed: %v", e.Err)
}

func (e *WatchError) Unwrap() error { return e.Err }
