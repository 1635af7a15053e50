package deckfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Engine exposes a directory tree as the state of a physical button
// device: one numbered subdirectory per button, holding an image file and
// an optional action script. The engine watches the tree, keeps the
// device's key images synchronized with it, and spawns the matching
// script when a key is pressed.
//
// Raw events flow through one single-writer pipeline (debounce → resolve
// → reconcile); presses are fanned out to detached script processes and
// never block the pipeline.
type Engine struct {
	root    string
	device  Device
	watcher Watcher
	spawner Spawner
	clock   clockz.Clock
	metrics MetricsProvider
	quiet   time.Duration
	width   int
	history *errorHistory

	store      *Store
	debouncer  *Debouncer
	resolver   *Resolver
	reconciler *Reconciler
	dispatcher *Dispatcher
	failures   chan *ScriptError

	mu      sync.Mutex
	started bool

	lastErr atomic.Pointer[error]
	done    chan struct{}
}

// New creates an Engine for the given root directory and device.
// Configuration uses chainable methods before calling Start():
//
//	engine := deckfs.New("/home/me/.local/deckfs", device).
//	    QuietWindow(200 * time.Millisecond).
//	    ErrorHistorySize(32)
//
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
func New(root string, device Device) *Engine {
	return &Engine{
		root:   filepath.Clean(root),
		device: device,
		clock:  clockz.RealClock,
		quiet:  DefaultQuietWindow,
		width:  DefaultIndexWidth,
		done:   make(chan struct{}),
	}
}

// QuietWindow sets the debounce quiet window used when config.yaml does
// not specify one. Default: 300ms. Must be called before Start().
func (e *Engine) QuietWindow(d time.Duration) *Engine {
	e.quiet = d
	return e
}

// IndexWidth sets the zero-padded digit width of slot directory names.
// Default: 2. Must be called before Start().
func (e *Engine) IndexWidth(width int) *Engine {
	e.width = width
	return e
}

// Clock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic debounce testing.
// Must be called before Start().
func (e *Engine) Clock(clock clockz.Clock) *Engine {
	e.clock = clock
	return e
}

// FSWatcher replaces the filesystem watch source. Default: a DirWatcher
// on the root. Must be called before Start().
func (e *Engine) FSWatcher(w Watcher) *Engine {
	e.watcher = w
	return e
}

// ScriptSpawner replaces the process spawner. Default: os/exec.
// Must be called before Start().
func (e *Engine) ScriptSpawner(s Spawner) *Engine {
	e.spawner = s
	return e
}

// Metrics sets a metrics provider for observability integration.
// Must be called before Start().
func (e *Engine) Metrics(provider MetricsProvider) *Engine {
	e.metrics = provider
	return e
}

// ErrorHistorySize sets the number of recent recoverable errors to
// retain. Use 0 (default) to disable history. Must be called before
// Start().
func (e *Engine) ErrorHistorySize(n int) *Engine {
	e.history = newErrorHistory(n)
	return e
}

// Start wires the pipeline, seeds slot state from disk, renders the
// initial frames, and begins watching asynchronously. It can only be
// called once.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine already started")
	}
	e.started = true
	e.mu.Unlock()

	e.store = NewStore()
	e.debouncer = NewDebouncer(e.clock, e.quiet)
	e.resolver = NewResolver(e.root, e.width)
	e.reconciler = NewReconciler(e.store, e.device, e.clock, e.metrics, e.history)
	e.failures = make(chan *ScriptError, 16)
	e.dispatcher = NewDispatcher(e.store, e.spawner, e.failures)

	if e.watcher == nil {
		e.watcher = NewDirWatcher(e.root)
	}

	raw, err := e.watcher.Watch(ctx)
	if err != nil {
		return &WatchError{Err: err}
	}

	presses, err := e.device.Listen(ctx)
	if err != nil {
		return fmt.Errorf("failed to listen for key events: %w", err)
	}

	capitan.Emit(ctx, EngineStarted,
		KeyRoot.Field(e.root),
		KeyQuietWindow.Field(e.quiet),
	)

	// config.yaml overrides the built-in defaults only when present.
	if _, err := os.Lstat(filepath.Join(e.root, ConfigFileName)); err == nil {
		e.reloadConfig(ctx)
	} else if err := e.device.SetBrightness(ctx, DefaultBrightness); err != nil {
		capitan.Emit(ctx, SlotRenderFailed, KeyError.Field(err.Error()))
	}

	e.reconciler.Seed(ctx, e.root, e.resolver)

	settled := e.debouncer.Run(ctx, raw)
	go e.run(ctx, settled)
	go e.listen(ctx, presses)

	return nil
}

// Done is closed when the engine stops, cleanly or fatally.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Err returns the fatal error that stopped the engine, or nil after a
// clean shutdown.
func (e *Engine) Err() error {
	ptr := e.lastErr.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// Degraded reports whether the device transport is persistently failing.
func (e *Engine) Degraded() bool {
	return e.reconciler.Degraded()
}

// Slot returns a copy of the slot's current state.
func (e *Engine) Slot(index int) (Slot, bool) {
	return e.store.Get(index)
}

// Slots returns copies of all known slots ordered by index.
func (e *Engine) Slots() []Slot {
	return e.store.Snapshot()
}

// ErrorHistory returns the retained recoverable errors, oldest first.
func (e *Engine) ErrorHistory() []SlotError {
	return e.history.all()
}

// run is the single-writer pipeline goroutine: settled changes and script
// failures are the only paths that mutate the store. Per-slot ordering
// follows settle order because this loop applies events serially.
func (e *Engine) run(ctx context.Context, settled <-chan ChangeEvent) {
	defer close(e.done)
	defer capitan.Emit(ctx, EngineStopped, KeyRoot.Field(e.root))

	configPath := filepath.Join(e.root, ConfigFileName)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-settled:
			if !ok {
				if ctx.Err() == nil {
					// The notification source broke underneath us; the
					// engine cannot function without it.
					err := error(&WatchError{Err: fmt.Errorf("event stream closed")})
					e.lastErr.Store(&err)
				}
				return
			}

			capitan.Emit(ctx, ChangeSettled,
				KeyPath.Field(ev.Path),
				KeyKind.Field(ev.Kind.String()),
			)
			if e.metrics != nil {
				e.metrics.OnChangeSettled()
			}

			if ev.Path == configPath {
				e.reloadConfig(ctx)
				continue
			}

			resolved, ok := e.resolver.Resolve(ev)
			if !ok {
				continue
			}
			e.reconciler.Apply(ctx, resolved)

		case serr := <-e.failures:
			e.reconciler.HandleScriptFailure(ctx, serr)
		}
	}
}

// listen fans device key presses out to the dispatcher. Dispatch only
// reads the store and forks, so presses never back up behind a slow
// device write.
func (e *Engine) listen(ctx context.Context, presses <-chan KeyEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-presses:
			if !ok {
				return
			}
			if ev.Pressed {
				e.dispatcher.Dispatch(ctx, ev.Key+1)
			}
		}
	}
}

// reloadConfig re-reads config.yaml and applies brightness and quiet
// window. A file that fails to parse or validate leaves the current
// settings in effect.
func (e *Engine) reloadConfig(ctx context.Context) {
	cfg, err := LoadConfig(e.root)
	if err != nil {
		capitan.Emit(ctx, ConfigInvalid, KeyError.Field(err.Error()))
		return
	}

	e.debouncer.SetQuietWindow(cfg.QuietWindow())
	if err := e.device.SetBrightness(ctx, cfg.Brightness); err != nil {
		capitan.Emit(ctx, ConfigInvalid, KeyError.Field(err.Error()))
		return
	}

	capitan.Emit(ctx, ConfigApplied,
		KeyBrightness.Field(cfg.Brightness),
		KeyQuietWindow.Field(cfg.QuietWindow()),
	)
}
