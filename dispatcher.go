package deckfs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/zoobzio/capitan"
)

// interpreters maps script extensions to their interpreter command.
// The set is closed: only these extensions ever spawn.
var interpreters = map[string]string{
	".py": "python3",
	".js": "node",
}

// Spawner starts a script as an independent process. Processes are
// detached: shutdown never waits for them and nothing cancels them.
type Spawner interface {
	// Spawn starts argv in workdir and returns a channel that receives
	// the process's exit result once.
	Spawn(argv []string, workdir string) (<-chan error, error)
}

// execSpawner is the default os/exec-backed Spawner.
type execSpawner struct{}

func (execSpawner) Spawn(argv []string, workdir string) (<-chan error, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = workdir
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	return done, nil
}

// Dispatcher runs a slot's action script when a physical press arrives.
// Spawns are fire-and-forget: they never block reconciliation or presses
// on other slots, and a second press on the same slot while the previous
// run is still going simply spawns again. Scripts are expected to be
// idempotent or fast.
type Dispatcher struct {
	store    *Store
	spawner  Spawner
	failures chan<- *ScriptError
}

// NewDispatcher creates a Dispatcher reading script paths from store and
// reporting failures on the failures channel, which the engine feeds back
// into the reconciler.
func NewDispatcher(store *Store, spawner Spawner, failures chan<- *ScriptError) *Dispatcher {
	if spawner == nil {
		spawner = execSpawner{}
	}
	return &Dispatcher{store: store, spawner: spawner, failures: failures}
}

// Dispatch spawns the slot's action script. A press on a slot with no
// registered script is valid and silent.
func (d *Dispatcher) Dispatch(ctx context.Context, index int) {
	slot, ok := d.store.Get(index)
	if !ok || slot.ScriptPath == "" {
		return
	}

	argv, ok := commandFor(slot.ScriptPath)
	if !ok {
		return
	}

	capitan.Emit(ctx, ScriptSpawned,
		KeySlot.Field(index),
		KeyPath.Field(slot.ScriptPath),
		KeyInterpreter.Field(argv[0]),
	)

	done, err := d.spawner.Spawn(argv, slot.Dir)
	if err != nil {
		d.report(ctx, &ScriptError{Slot: index, Path: slot.ScriptPath, Err: err})
		return
	}

	go func() {
		if err := <-done; err != nil {
			d.report(ctx, &ScriptError{Slot: index, Path: slot.ScriptPath, Err: err})
		}
	}()
}

// report sends the failure to the reconciler and announces it.
func (d *Dispatcher) report(ctx context.Context, serr *ScriptError) {
	capitan.Emit(ctx, ScriptFailed,
		KeySlot.Field(serr.Slot),
		KeyPath.Field(serr.Path),
		KeyError.Field(serr.Err.Error()),
	)
	select {
	case d.failures <- serr:
	case <-ctx.Done():
	}
}

// commandFor picks the interpreter invocation for a script. Shell scripts
// run directly when their executable bit is set, otherwise through the
// shell; other extensions always go through their interpreter.
func commandFor(path string) ([]string, bool) {
	switch ext := filepath.Ext(path); ext {
	case ".sh":
		if info, err := os.Stat(path); err == nil && info.Mode()&0o111 != 0 {
			return []string{path}, true
		}
		return []string{"bash", path}, true
	default:
		if interp, ok := interpreters[ext]; ok {
			return []string{interp, path}, true
		}
		return nil, false
	}
}
