package deckfs

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

// recvSettled reads one settled event with a real-time deadline.
func recvSettled(t *testing.T, ch <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("settled channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for settled event")
		return ChangeEvent{}
	}
}

func TestDebouncer_CoalescesRapidChanges(t *testing.T) {
	clock := clockz.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan ChangeEvent, 10)
	d := NewDebouncer(clock, 100*time.Millisecond)
	out := d.Run(ctx, in)

	// Burst of events for the same path, latest kind wins.
	in <- ChangeEvent{Path: "/root/01/image.png", Kind: KindCreated}
	in <- ChangeEvent{Path: "/root/01/image.png", Kind: KindModified}
	in <- ChangeEvent{Path: "/root/01/image.png", Kind: KindModified}

	// Allow the intake goroutine to receive the burst.
	time.Sleep(20 * time.Millisecond)

	select {
	case ev := <-out:
		t.Fatalf("expected no event before quiet window, got %v", ev)
	default:
	}

	clock.Advance(150 * time.Millisecond)
	clock.BlockUntilReady()

	ev := recvSettled(t, out)
	if ev.Path != "/root/01/image.png" {
		t.Errorf("expected image path, got %s", ev.Path)
	}
	if ev.Kind != KindModified {
		t.Errorf("expected latest kind modified, got %s", ev.Kind)
	}

	// Exactly one settled event for the burst.
	select {
	case ev := <-out:
		t.Fatalf("expected single settled event, got second: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncer_ActivityResetsWindow(t *testing.T) {
	clock := clockz.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan ChangeEvent, 10)
	d := NewDebouncer(clock, 100*time.Millisecond)
	out := d.Run(ctx, in)

	in <- ChangeEvent{Path: "/root/01/image.png", Kind: KindModified}
	time.Sleep(20 * time.Millisecond)

	// Halfway through the window, more activity resets it.
	clock.Advance(60 * time.Millisecond)
	clock.BlockUntilReady()
	in <- ChangeEvent{Path: "/root/01/image.png", Kind: KindModified}
	time.Sleep(20 * time.Millisecond)

	// The original deadline passes without a settle.
	clock.Advance(60 * time.Millisecond)
	clock.BlockUntilReady()
	select {
	case ev := <-out:
		t.Fatalf("window should have reset, got %v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(60 * time.Millisecond)
	clock.BlockUntilReady()
	recvSettled(t, out)
}

func TestDebouncer_DeleteBypassesQuietWindow(t *testing.T) {
	clock := clockz.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan ChangeEvent, 10)
	d := NewDebouncer(clock, 100*time.Millisecond)
	out := d.Run(ctx, in)

	in <- ChangeEvent{Path: "/root/01/image.png", Kind: KindModified}
	time.Sleep(20 * time.Millisecond)
	in <- ChangeEvent{Path: "/root/01/image.png", Kind: KindDeleted}

	// Deletion passes through without any clock advance.
	ev := recvSettled(t, out)
	if ev.Kind != KindDeleted {
		t.Fatalf("expected deleted, got %s", ev.Kind)
	}

	// The pending settle was canceled: advancing yields nothing.
	clock.Advance(200 * time.Millisecond)
	clock.BlockUntilReady()
	select {
	case ev := <-out:
		t.Fatalf("canceled settle still fired: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncer_PathsSettleIndependently(t *testing.T) {
	clock := clockz.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan ChangeEvent, 10)
	d := NewDebouncer(clock, 100*time.Millisecond)
	out := d.Run(ctx, in)

	in <- ChangeEvent{Path: "/root/01/image.png", Kind: KindModified}
	in <- ChangeEvent{Path: "/root/02/image.png", Kind: KindCreated}
	time.Sleep(20 * time.Millisecond)

	clock.Advance(150 * time.Millisecond)
	clock.BlockUntilReady()

	got := map[string]Kind{}
	for i := 0; i < 2; i++ {
		ev := recvSettled(t, out)
		got[ev.Path] = ev.Kind
	}
	if got["/root/01/image.png"] != KindModified {
		t.Errorf("path 01: expected modified, got %s", got["/root/01/image.png"])
	}
	if got["/root/02/image.png"] != KindCreated {
		t.Errorf("path 02: expected created, got %s", got["/root/02/image.png"])
	}
}

func TestDebouncer_NewEventAfterSettleStartsFresh(t *testing.T) {
	clock := clockz.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan ChangeEvent, 10)
	d := NewDebouncer(clock, 100*time.Millisecond)
	out := d.Run(ctx, in)

	in <- ChangeEvent{Path: "/root/01/image.png", Kind: KindCreated}
	time.Sleep(20 * time.Millisecond)
	clock.Advance(150 * time.Millisecond)
	clock.BlockUntilReady()
	recvSettled(t, out)

	in <- ChangeEvent{Path: "/root/01/image.png", Kind: KindModified}
	time.Sleep(20 * time.Millisecond)
	clock.Advance(150 * time.Millisecond)
	clock.BlockUntilReady()

	ev := recvSettled(t, out)
	if ev.Kind != KindModified {
		t.Errorf("expected modified, got %s", ev.Kind)
	}
}

func TestDebouncer_SetQuietWindow(t *testing.T) {
	clock := clockz.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan ChangeEvent, 10)
	d := NewDebouncer(clock, 100*time.Millisecond)
	out := d.Run(ctx, in)

	d.SetQuietWindow(500 * time.Millisecond)
	if d.QuietWindow() != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %s", d.QuietWindow())
	}

	in <- ChangeEvent{Path: "/root/01/image.png", Kind: KindModified}
	time.Sleep(20 * time.Millisecond)

	clock.Advance(150 * time.Millisecond)
	clock.BlockUntilReady()
	select {
	case ev := <-out:
		t.Fatalf("settled before widened window: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(400 * time.Millisecond)
	clock.BlockUntilReady()
	recvSettled(t, out)
}

func TestDebouncer_ClosesAfterInputCloses(t *testing.T) {
	clock := clockz.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan ChangeEvent)
	d := NewDebouncer(clock, 100*time.Millisecond)
	out := d.Run(ctx, in)

	close(in)

	select {
	case _, ok := <-out:
		if ok {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("settled channel did not close")
	}
}
