// Package deckfs exposes a physical multi-button input/display device as
// a plain directory tree: one numbered subdirectory per button, holding
// an image file and an optional action script. A background engine
// watches the tree, keeps the device's key images synchronized with the
// filesystem, and spawns the matching script when a key is pressed.
// Dragging an image into a folder or symlinking a different image updates
// the device live, with no restart.
//
// # Directory contract
//
// The watched root contains subdirectories named with fixed-width
// zero-padded integers, optionally followed by a descriptive suffix
// ("01", "02_mute"). Each slot directory may contain one file whose name
// begins with "image" and has a .png/.jpg/.jpeg extension (symlinks
// permitted and expected), and at most one of action.sh, action.py, or
// action.js. Anything else in a slot directory is ignored, so scratch
// files like online.png/offline.png can live there as symlink targets.
// An optional config.yaml at the root tunes brightness and the debounce
// quiet window, reloaded live like everything else.
//
// # Pipeline
//
// Raw filesystem notifications are debounced per path (editors love
// write-rename-write bursts), resolved to a slot index and change
// category, and reconciled by a single-writer loop that owns the slot
// store and the device: decode and scale the image, write the frame,
// retry once on transport failure, and fall back to a built-in error
// placeholder when a file cannot be decoded. Deletions skip the quiet
// window so the device never shows stale content.
//
// # Example
//
//	engine := deckfs.New(root, device)
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	<-engine.Done()
//
// # Observability
//
// Engine activity is emitted as capitan signals (see signals.go); hook
// them for logging or auditing:
//
//	capitan.Hook(deckfs.SlotRendered, func(_ context.Context, e *capitan.Event) {
//	    slot, _ := deckfs.KeySlot.From(e)
//	    log.Printf("slot %02d rendered", slot)
//	})
package deckfs
