package deckfs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
)

// DefaultQuietWindow is the default quiet window for change settling.
const DefaultQuietWindow = 300 * time.Millisecond

// Debouncer collapses bursts of raw change notifications for the same path
// into a single settled event. A path settles once no further activity is
// seen for the quiet window; the settled event carries the latest kind
// observed. Deletions bypass the quiet window and pass through immediately,
// canceling any pending settle for that path.
//
// Paths debounce independently: each pending path owns its timer and no
// global lock serializes unrelated paths.
type Debouncer struct {
	clock clockz.Clock
	quiet atomic.Int64

	mu      sync.Mutex
	pending map[string]*pendingChange

	out chan ChangeEvent
	wg  sync.WaitGroup
}

// pendingChange tracks an unsettled path. The owning goroutine closes done
// on exit; a deletion closes cancel to abandon the settle.
type pendingChange struct {
	update chan Kind
	cancel chan struct{}
	done   chan struct{}
}

// NewDebouncer creates a Debouncer with the given quiet window.
// Use clockz.RealClock in production and clockz.NewFakeClock in tests.
func NewDebouncer(clock clockz.Clock, quiet time.Duration) *Debouncer {
	d := &Debouncer{
		clock:   clock,
		pending: make(map[string]*pendingChange),
	}
	d.quiet.Store(int64(quiet))
	return d
}

// QuietWindow returns the current quiet window.
func (d *Debouncer) QuietWindow() time.Duration {
	return time.Duration(d.quiet.Load())
}

// SetQuietWindow changes the quiet window. Pending paths pick up the new
// window on their next reset; settled behavior is otherwise unchanged.
func (d *Debouncer) SetQuietWindow(quiet time.Duration) {
	d.quiet.Store(int64(quiet))
}

// Run consumes raw events from in and returns the settled event channel.
// The returned channel closes after in closes or ctx is canceled, once all
// pending settles have been abandoned.
func (d *Debouncer) Run(ctx context.Context, in <-chan ChangeEvent) <-chan ChangeEvent {
	out := make(chan ChangeEvent)
	d.out = out

	ictx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(out)
		defer d.wg.Wait()
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					return
				}
				d.record(ictx, ev)
			}
		}
	}()

	return out
}

// record routes one raw event: removals cancel and pass through, anything
// else starts or resets the path's settle timer.
func (d *Debouncer) record(ctx context.Context, ev ChangeEvent) {
	if ev.Kind.removal() {
		d.mu.Lock()
		p := d.pending[ev.Path]
		delete(d.pending, ev.Path)
		d.mu.Unlock()

		if p != nil {
			close(p.cancel)
		}

		select {
		case d.out <- ev:
		case <-ctx.Done():
		}
		return
	}

	for {
		d.mu.Lock()
		p, ok := d.pending[ev.Path]
		if !ok {
			p = &pendingChange{
				update: make(chan Kind),
				cancel: make(chan struct{}),
				done:   make(chan struct{}),
			}
			d.pending[ev.Path] = p
			d.wg.Add(1)
			d.mu.Unlock()
			go d.settle(ctx, ev.Path, ev.Kind, p)
			return
		}
		d.mu.Unlock()

		select {
		case p.update <- ev.Kind:
			return
		case <-p.done:
			// Settled or canceled between lookup and send; start over.
		case <-ctx.Done():
			return
		}
	}
}

// settle owns the timer for one pending path until it fires, is canceled
// by a deletion, or the context ends.
func (d *Debouncer) settle(ctx context.Context, path string, kind Kind, p *pendingChange) {
	defer d.wg.Done()
	defer close(p.done)

	timer := d.clock.NewTimer(d.QuietWindow())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			d.forget(path, p)
			return

		case <-p.cancel:
			return

		case k := <-p.update:
			kind = k
			if !timer.Stop() {
				select {
				case <-timer.C():
				default:
				}
			}
			timer.Reset(d.QuietWindow())

		case <-timer.C():
			d.forget(path, p)
			select {
			case d.out <- ChangeEvent{Path: path, Kind: kind, Time: d.clock.Now()}:
			case <-ctx.Done():
			}
			return
		}
	}
}

// forget drops the pending entry for path if it is still ours. A deletion
// may have replaced the entry with a fresh one in the meantime.
func (d *Debouncer) forget(path string, p *pendingChange) {
	d.mu.Lock()
	if d.pending[path] == p {
		delete(d.pending, path)
	}
	d.mu.Unlock()
}
