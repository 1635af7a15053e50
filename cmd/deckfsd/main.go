// Command deckfsd runs the deckfs engine against a directory tree.
//
// Without hardware support compiled in, frames are spooled as PNG files
// and presses are injected by typing a slot number on stdin, which makes
// the daemon usable for developing button layouts on any machine.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/zoobzio/capitan"

	"github.com/zoobzio/deckfs"
)

func main() {
	var (
		root        string
		spool       string
		keys        int
		imageSize   int
		indexWidth  int
		quietWindow time.Duration
		verbose     bool
	)

	home, _ := os.UserHomeDir()
	pflag.StringVar(&root, "root", filepath.Join(home, ".local", "deckfs"), "watched slot directory tree")
	pflag.StringVar(&spool, "spool", "", "frame spool directory (default <root>/../deckfs-spool)")
	pflag.IntVar(&keys, "keys", 15, "number of device keys")
	pflag.IntVar(&imageSize, "image-size", 72, "key frame size in pixels")
	pflag.IntVar(&indexWidth, "index-width", deckfs.DefaultIndexWidth, "zero-padded width of slot directory names")
	pflag.DurationVar(&quietWindow, "quiet-window", deckfs.DefaultQuietWindow, "debounce quiet window")
	pflag.BoolVar(&verbose, "verbose", false, "log every settled change")
	pflag.Parse()

	if spool == "" {
		spool = filepath.Join(filepath.Dir(root), "deckfs-spool")
	}

	logger := log.New(os.Stderr, "deckfsd ", log.LstdFlags)
	installHooks(logger, verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer capitan.Shutdown()

	device := deckfs.NewSpoolDevice(spool, keys, imageSize, imageSize)
	defer device.Close()

	engine := deckfs.New(root, device).
		QuietWindow(quietWindow).
		IndexWidth(indexWidth).
		ErrorHistorySize(32)

	if err := engine.Start(ctx); err != nil {
		logger.Fatalf("start: %v", err)
	}
	logger.Printf("watching %s, spooling frames to %s", root, spool)
	logger.Printf("type a slot number and press enter to simulate a key press")

	go feedPresses(device, keys, logger)

	<-engine.Done()
	if err := engine.Err(); err != nil {
		logger.Fatalf("engine stopped: %v", err)
	}
}

// installHooks wires capitan signals to the process log.
func installHooks(logger *log.Logger, verbose bool) {
	capitan.Hook(deckfs.SlotRendered, func(_ context.Context, e *capitan.Event) {
		slot, _ := deckfs.KeySlot.From(e)
		path, _ := deckfs.KeyPath.From(e)
		logger.Printf("slot %02d: rendered %s", slot, path)
	})
	capitan.Hook(deckfs.SlotDecodeFailed, func(_ context.Context, e *capitan.Event) {
		slot, _ := deckfs.KeySlot.From(e)
		errMsg, _ := deckfs.KeyError.From(e)
		logger.Printf("slot %02d: decode failed: %s", slot, errMsg)
	})
	capitan.Hook(deckfs.SlotRenderFailed, func(_ context.Context, e *capitan.Event) {
		errMsg, _ := deckfs.KeyError.From(e)
		logger.Printf("device write failed: %s", errMsg)
	})
	capitan.Hook(deckfs.SlotCleared, func(_ context.Context, e *capitan.Event) {
		slot, _ := deckfs.KeySlot.From(e)
		logger.Printf("slot %02d: cleared", slot)
	})
	capitan.Hook(deckfs.ScriptFailed, func(_ context.Context, e *capitan.Event) {
		slot, _ := deckfs.KeySlot.From(e)
		errMsg, _ := deckfs.KeyError.From(e)
		logger.Printf("slot %02d: script failed: %s", slot, errMsg)
	})
	capitan.Hook(deckfs.ConfigApplied, func(_ context.Context, e *capitan.Event) {
		brightness, _ := deckfs.KeyBrightness.From(e)
		quiet, _ := deckfs.KeyQuietWindow.From(e)
		logger.Printf("config applied: brightness=%d quiet-window=%s", brightness, quiet)
	})
	capitan.Hook(deckfs.ConfigInvalid, func(_ context.Context, e *capitan.Event) {
		errMsg, _ := deckfs.KeyError.From(e)
		logger.Printf("config rejected: %s", errMsg)
	})
	capitan.Hook(deckfs.EngineDegraded, func(_ context.Context, e *capitan.Event) {
		errMsg, _ := deckfs.KeyError.From(e)
		logger.Printf("DEGRADED: %s", errMsg)
	})

	if verbose {
		capitan.Hook(deckfs.ChangeSettled, func(_ context.Context, e *capitan.Event) {
			path, _ := deckfs.KeyPath.From(e)
			kind, _ := deckfs.KeyKind.From(e)
			logger.Printf("settled %s: %s", kind, path)
		})
	}
}

// feedPresses turns stdin lines into simulated key presses.
func feedPresses(device *deckfs.SpoolDevice, keys int, logger *log.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		slot, err := strconv.Atoi(line)
		if err != nil || slot < 1 || slot > keys {
			fmt.Fprintf(os.Stderr, "expected a slot number between 1 and %d\n", keys)
			continue
		}
		logger.Printf("slot %02d: press", slot)
		device.Feed(slot - 1)
	}
}
