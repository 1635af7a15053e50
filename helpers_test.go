package deckfs

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// waitFor polls a condition until it returns true or the timeout is
// reached. Returns true if the condition was met.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return condition()
}

// renderCall is one recorded SetKeyImage invocation.
type renderCall struct {
	key int
	img image.Image
}

// fakeDevice records renders and lets tests inject failures and presses.
type fakeDevice struct {
	keys   int
	width  int
	height int

	mu         sync.Mutex
	renders    []renderCall
	failNext   int
	brightness int

	events chan KeyEvent
}

func newFakeDevice(keys int) *fakeDevice {
	return &fakeDevice{
		keys:   keys,
		width:  72,
		height: 72,
		events: make(chan KeyEvent, 16),
	}
}

func (d *fakeDevice) Keys() int             { return d.keys }
func (d *fakeDevice) ImageSize() (int, int) { return d.width, d.height }

func (d *fakeDevice) SetKeyImage(_ context.Context, key int, img image.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failNext > 0 {
		d.failNext--
		return fmt.Errorf("transport write failed")
	}
	d.renders = append(d.renders, renderCall{key: key, img: img})
	return nil
}

func (d *fakeDevice) SetBrightness(_ context.Context, percent int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brightness = percent
	return nil
}

func (d *fakeDevice) Listen(_ context.Context) (<-chan KeyEvent, error) {
	return d.events, nil
}

func (d *fakeDevice) press(key int) {
	d.events <- KeyEvent{Key: key, Pressed: true}
	d.events <- KeyEvent{Key: key, Pressed: false}
}

func (d *fakeDevice) renderCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.renders)
}

func (d *fakeDevice) lastRender() (renderCall, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.renders) == 0 {
		return renderCall{}, false
	}
	return d.renders[len(d.renders)-1], true
}

func (d *fakeDevice) setFailures(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = n
}

func (d *fakeDevice) getBrightness() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.brightness
}

// spawnCall is one recorded Spawn invocation.
type spawnCall struct {
	argv []string
	dir  string
}

// fakeSpawner records spawns and reports a configurable exit result.
type fakeSpawner struct {
	mu       sync.Mutex
	calls    []spawnCall
	spawnErr error
	exitErr  error
}

func (s *fakeSpawner) Spawn(argv []string, workdir string) (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spawnErr != nil {
		return nil, s.spawnErr
	}
	s.calls = append(s.calls, spawnCall{argv: argv, dir: workdir})
	done := make(chan error, 1)
	done <- s.exitErr
	return done, nil
}

func (s *fakeSpawner) spawnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeSpawner) lastCall() (spawnCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return spawnCall{}, false
	}
	return s.calls[len(s.calls)-1], true
}

// writeTestPNG writes a small solid-color PNG and returns its path.
func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

// writeSlotDir creates a slot directory under root with optional image
// and script files.
func writeSlotDir(t *testing.T, root, name string, withImage bool, script string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if withImage {
		writeTestPNG(t, dir, "image.png")
	}
	if script != "" {
		if err := os.WriteFile(filepath.Join(dir, script), []byte("#!/bin/sh\nexit 0\n"), 0o644); err != nil {
			t.Fatalf("write script: %v", err)
		}
	}
	return dir
}
