package deckfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a directory tree for changes and emits raw change
// events on a channel. The channel is closed when the context is canceled
// or the underlying notification source breaks; the engine treats an
// unexpected close as fatal.
type Watcher interface {
	// Watch begins observing and returns the event channel. Events report
	// the path as seen on disk; symlink changes report the link path, not
	// the target.
	Watch(ctx context.Context) (<-chan ChangeEvent, error)
}

// DirWatcher watches a slot tree with fsnotify: the root directory plus
// every slot directory below it. Directories created later are picked up
// and watched as they appear.
type DirWatcher struct {
	root string
}

// NewDirWatcher creates a DirWatcher for the given root directory.
func NewDirWatcher(root string) *DirWatcher {
	return &DirWatcher{root: root}
}

// Watch begins watching the root and its immediate subdirectories.
func (w *DirWatcher) Watch(ctx context.Context) (<-chan ChangeEvent, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := fw.Add(w.root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch root %s: %w", w.root, err)
	}

	// Watch existing slot directories. Entries that vanish between the
	// listing and the Add are simply skipped.
	entries, err := os.ReadDir(w.root)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to read root %s: %w", w.root, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			_ = fw.Add(filepath.Join(w.root, entry.Name()))
		}
	}

	out := make(chan ChangeEvent)

	go func() {
		defer close(out)
		defer fw.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-fw.Events:
				if !ok {
					return
				}

				kind, ok := mapOp(event.Op)
				if !ok {
					continue
				}

				// A new directory directly under the root needs its own
				// watch before files land inside it.
				if kind == KindCreated && filepath.Dir(event.Name) == w.root {
					if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
						_ = fw.Add(event.Name)
					}
				}

				select {
				case out <- ChangeEvent{Path: event.Name, Kind: kind, Time: time.Now()}:
				case <-ctx.Done():
					return
				}

			case _, ok := <-fw.Errors:
				if !ok {
					return
				}
				// Transient notification errors do not stop the watch.
			}
		}
	}()

	return out, nil
}

// mapOp translates an fsnotify op into a change kind. Chmod-only events
// carry no content change and are dropped at the source.
func mapOp(op fsnotify.Op) (Kind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		// inotify reports the destination of a rename as a create; the
		// resolver treats both identically.
		return KindCreated, true
	case op.Has(fsnotify.Write):
		return KindModified, true
	case op.Has(fsnotify.Remove):
		return KindDeleted, true
	case op.Has(fsnotify.Rename):
		return KindMovedFrom, true
	default:
		return 0, false
	}
}

// ChannelWatcher wraps an existing event channel as a Watcher.
// Useful for testing and custom sources that already produce events.
type ChannelWatcher struct {
	ch <-chan ChangeEvent
}

// NewChannelWatcher creates a ChannelWatcher that returns the source
// channel directly.
func NewChannelWatcher(ch <-chan ChangeEvent) *ChannelWatcher {
	return &ChannelWatcher{ch: ch}
}

// Watch returns the wrapped channel.
func (w *ChannelWatcher) Watch(_ context.Context) (<-chan ChangeEvent, error) {
	return w.ch, nil
}
