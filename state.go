package deckfs

// SlotStatus represents the current state of a button slot.
type SlotStatus int32

const (
	// StatusEmpty indicates the slot has no image configured. The device
	// shows the blank frame for this position.
	StatusEmpty SlotStatus = iota

	// StatusLoading indicates an image change is being decoded and has not
	// yet reached the device.
	StatusLoading

	// StatusReady indicates the slot's image is rendered on the device and
	// its script (if any) is registered.
	StatusReady

	// StatusError indicates the last decode, render, or script run for this
	// slot failed. The device shows the error placeholder frame.
	StatusError
)

// String returns the string representation of the status.
func (s SlotStatus) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
