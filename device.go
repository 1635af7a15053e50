package deckfs

import (
	"context"
	"image"
)

// KeyEvent is a physical key notification from the device driver.
// Key is 0-based; slot indices are 1-based (slot = key + 1).
type KeyEvent struct {
	Key     int
	Pressed bool
}

// Device is the transport driver contract the engine renders through.
// Implementations own the USB protocol details; the engine only hands
// over decoded frames and consumes key events.
type Device interface {
	// Keys returns the number of physical keys.
	Keys() int

	// ImageSize returns the pixel dimensions a key frame must have.
	ImageSize() (width, height int)

	// SetKeyImage writes a frame to a key. The frame is already scaled
	// to ImageSize.
	SetKeyImage(ctx context.Context, key int, img image.Image) error

	// SetBrightness sets the panel brightness in percent (0-100).
	SetBrightness(ctx context.Context, percent int) error

	// Listen returns the key event stream. The channel closes when the
	// context is canceled or the device goes away.
	Listen(ctx context.Context) (<-chan KeyEvent, error)
}
