package deckfs

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
)

// SpoolDevice is a Device for development and testing without hardware.
// Frames are written as PNG files under a spool directory (key-01.png,
// key-02.png, ...) and presses are injected with Feed. Point the spool
// somewhere outside the watched root, or the engine will see its own
// renders.
type SpoolDevice struct {
	dir    string
	keys   int
	width  int
	height int

	brightness atomic.Int32
	events     chan KeyEvent
	closed     atomic.Bool
}

// NewSpoolDevice creates a SpoolDevice with the given key count and frame
// size, spooling frames into dir.
func NewSpoolDevice(dir string, keys, width, height int) *SpoolDevice {
	d := &SpoolDevice{
		dir:    dir,
		keys:   keys,
		width:  width,
		height: height,
		events: make(chan KeyEvent, 16),
	}
	d.brightness.Store(DefaultBrightness)
	return d
}

// Keys returns the configured key count.
func (d *SpoolDevice) Keys() int { return d.keys }

// ImageSize returns the configured frame size.
func (d *SpoolDevice) ImageSize() (int, int) { return d.width, d.height }

// SetKeyImage encodes the frame as key-NN.png in the spool directory.
// The write goes through a temp file and rename so readers never observe
// a partial PNG.
func (d *SpoolDevice) SetKeyImage(_ context.Context, key int, img image.Image) error {
	if key < 0 || key >= d.keys {
		return fmt.Errorf("key %d out of range (0-%d)", key, d.keys-1)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return err
	}

	final := filepath.Join(d.dir, fmt.Sprintf("key-%02d.png", key+1))
	tmp, err := os.CreateTemp(d.dir, "frame-*.png")
	if err != nil {
		return err
	}
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), final)
}

// SetBrightness records the brightness.
func (d *SpoolDevice) SetBrightness(_ context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("brightness %d out of range", percent)
	}
	d.brightness.Store(int32(percent))
	return nil
}

// Brightness returns the last applied brightness.
func (d *SpoolDevice) Brightness() int {
	return int(d.brightness.Load())
}

// Listen returns the injected key event stream.
func (d *SpoolDevice) Listen(ctx context.Context) (<-chan KeyEvent, error) {
	out := make(chan KeyEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-d.events:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Feed injects a press followed by a release for the 0-based key.
func (d *SpoolDevice) Feed(key int) {
	if d.closed.Load() {
		return
	}
	d.events <- KeyEvent{Key: key, Pressed: true}
	d.events <- KeyEvent{Key: key, Pressed: false}
}

// Close stops accepting injected events.
func (d *SpoolDevice) Close() {
	if d.closed.CompareAndSwap(false, true) {
		close(d.events)
	}
}
