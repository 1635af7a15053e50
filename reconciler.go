package deckfs

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// renderRetryDelay is the backoff before the single device-write retry.
const renderRetryDelay = 250 * time.Millisecond

// frame is one pending device write.
type frame struct {
	key int
	img image.Image
}

// Reconciler applies resolved events to the slot store and drives the
// device. It is the store's only writer: the engine funnels settled
// changes and script failures through one goroutine calling Apply and
// HandleScriptFailure, so events for the same slot reconcile in the
// order they settled.
type Reconciler struct {
	store   *Store
	device  Device
	clock   clockz.Clock
	metrics MetricsProvider
	history *errorHistory

	render pipz.Chainable[*frame]

	degraded atomic.Bool
}

// NewReconciler creates a Reconciler writing to store and rendering to
// device. Device writes that fail are retried once after a short backoff.
func NewReconciler(store *Store, device Device, clock clockz.Clock, metrics MetricsProvider, history *errorHistory) *Reconciler {
	if metrics == nil {
		metrics = NoOpMetricsProvider{}
	}
	r := &Reconciler{
		store:   store,
		device:  device,
		clock:   clock,
		metrics: metrics,
		history: history,
	}
	write := pipz.Effect("set-key-image", func(ctx context.Context, f *frame) error {
		return device.SetKeyImage(ctx, f.key, f.img)
	})
	r.render = pipz.NewBackoff("device-render", write, 2, renderRetryDelay)
	return r
}

// Degraded reports whether a device write has persistently failed.
// Slots continue to update; the flag is for health surfacing.
func (r *Reconciler) Degraded() bool {
	return r.degraded.Load()
}

// Seed scans the root once at startup and replays every existing slot
// directory as a structural appearance.
func (r *Reconciler) Seed(ctx context.Context, root string, resolver *Resolver) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if index, ok := resolver.slotIndex(name); ok && index <= r.device.Keys() {
			r.seedSlot(ctx, index, filepath.Join(root, name))
		}
	}
}

// Apply reconciles one resolved event.
func (r *Reconciler) Apply(ctx context.Context, ev ResolvedEvent) {
	if ev.Slot > r.device.Keys() {
		capitan.Emit(ctx, ChangeDropped,
			KeySlot.Field(ev.Slot),
			KeyCategory.Field(ev.Category.String()),
		)
		return
	}

	switch ev.Category {
	case CategoryImage:
		r.applyImage(ctx, ev)
	case CategoryScript:
		r.applyScript(ev)
	case CategoryStructural:
		r.applyStructural(ctx, ev)
	}
}

// applyImage re-decodes and renders the slot's image, or blanks the slot
// when the image is gone. The device never keeps a stale frame: decode
// failure replaces it with the error placeholder.
func (r *Reconciler) applyImage(ctx context.Context, ev ResolvedEvent) {
	if ev.Path == "" {
		// The named image file may have been one of several candidates;
		// fall back to whatever the directory still holds.
		if slot, ok := r.store.Get(ev.Slot); ok && slot.Dir != "" {
			if remaining := findSlotImage(slot.Dir); remaining != "" {
				r.renderSlotImage(ctx, ev.Slot, slot.Dir, remaining)
				return
			}
		}
		r.store.ClearImage(ev.Slot)
		r.setStatus(ctx, ev.Slot, "", StatusEmpty, "")
		r.renderPlaceholder(ctx, ev.Slot, blankKeyImage(r.device.ImageSize()))
		return
	}

	r.renderSlotImage(ctx, ev.Slot, filepath.Dir(ev.Path), ev.Path)
}

// applyScript registers or clears the slot's action script. Scripts have
// no visual representation and are never executed on registration.
func (r *Reconciler) applyScript(ev ResolvedEvent) {
	if ev.Path == "" {
		r.store.ClearScript(ev.Slot)
		return
	}
	r.store.UpsertScript(ev.Slot, filepath.Dir(ev.Path), ev.Path)
}

// applyStructural seeds a newly appeared slot directory or tears down a
// removed one.
func (r *Reconciler) applyStructural(ctx context.Context, ev ResolvedEvent) {
	if ev.Path == "" {
		r.store.Remove(ev.Slot)
		r.renderPlaceholder(ctx, ev.Slot, blankKeyImage(r.device.ImageSize()))
		capitan.Emit(ctx, SlotCleared, KeySlot.Field(ev.Slot))
		return
	}
	r.seedSlot(ctx, ev.Slot, ev.Path)
}

// seedSlot replays a directory's current contents as image and script
// events.
func (r *Reconciler) seedSlot(ctx context.Context, index int, dir string) {
	if script := findSlotScript(dir); script != "" {
		r.store.UpsertScript(index, dir, script)
	} else {
		r.store.ClearScript(index)
	}

	if img := findSlotImage(dir); img != "" {
		r.renderSlotImage(ctx, index, dir, img)
	} else {
		r.store.UpsertImage(index, dir, "")
		r.setStatus(ctx, index, dir, StatusEmpty, "")
		r.renderPlaceholder(ctx, index, blankKeyImage(r.device.ImageSize()))
	}
}

// HandleScriptFailure marks a slot whose action script failed and puts
// the error placeholder on the device.
func (r *Reconciler) HandleScriptFailure(ctx context.Context, serr *ScriptError) {
	r.history.push(serr.Slot, r.clock.Now(), serr)
	r.setStatus(ctx, serr.Slot, "", StatusError, serr.Error())
	r.renderPlaceholder(ctx, serr.Slot, errorKeyImage(r.device.ImageSize()))
}

// renderSlotImage decodes path and drives it to the device, updating the
// slot's status through Loading to Ready or Error.
func (r *Reconciler) renderSlotImage(ctx context.Context, index int, dir, path string) {
	start := r.clock.Now()
	r.setStatus(ctx, index, dir, StatusLoading, "")

	width, height := r.device.ImageSize()
	img, err := loadKeyImage(path, width, height)
	if err != nil {
		r.history.push(index, r.clock.Now(), err)
		r.store.UpsertImage(index, dir, "")
		r.setStatus(ctx, index, dir, StatusError, err.Error())
		capitan.Emit(ctx, SlotDecodeFailed,
			KeySlot.Field(index),
			KeyPath.Field(path),
			KeyError.Field(err.Error()),
		)
		r.renderPlaceholder(ctx, index, errorKeyImage(r.device.ImageSize()))
		return
	}

	r.store.UpsertImage(index, dir, path)

	if err := r.renderFrame(ctx, index, img); err != nil {
		r.setStatus(ctx, index, dir, StatusError, err.Error())
		r.metrics.OnRenderFailure(index, r.clock.Now().Sub(start))
		return
	}

	r.setStatus(ctx, index, dir, StatusReady, "")
	r.metrics.OnRenderSuccess(index, r.clock.Now().Sub(start))
	capitan.Emit(ctx, SlotRendered,
		KeySlot.Field(index),
		KeyPath.Field(path),
	)
}

// renderPlaceholder writes a built-in frame, ignoring transport failure
// beyond the degraded flag: there is no better frame to fall back to.
func (r *Reconciler) renderPlaceholder(ctx context.Context, index int, img image.Image) {
	_ = r.renderFrame(ctx, index, img) //nolint:errcheck // Degraded flag set inside
}

// renderFrame drives one frame through the backoff pipeline. Persistent
// failure flags the engine degraded; other slots are unaffected.
func (r *Reconciler) renderFrame(ctx context.Context, index int, img image.Image) error {
	_, err := r.render.Process(ctx, &frame{key: index - 1, img: img})
	if err != nil {
		rerr := &RenderError{Slot: index, Err: err}
		r.history.push(index, r.clock.Now(), rerr)
		capitan.Emit(ctx, SlotRenderFailed,
			KeySlot.Field(index),
			KeyError.Field(err.Error()),
		)
		if r.degraded.CompareAndSwap(false, true) {
			capitan.Emit(ctx, EngineDegraded, KeyError.Field(err.Error()))
		}
		return rerr
	}
	r.degraded.Store(false)
	return nil
}

// setStatus updates the slot status and announces the transition.
func (r *Reconciler) setStatus(ctx context.Context, index int, dir string, status SlotStatus, errMsg string) {
	old := StatusEmpty
	if slot, ok := r.store.Get(index); ok {
		old = slot.Status
	}
	r.store.SetStatus(index, dir, status, errMsg)
	if old == status {
		return
	}
	r.metrics.OnStatusChange(index, old, status)
	capitan.Emit(ctx, SlotStatusChanged,
		KeySlot.Field(index),
		KeyOldStatus.Field(old.String()),
		KeyNewStatus.Field(status.String()),
	)
}
