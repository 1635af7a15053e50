package deckfs

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Naming contract for slot directory contents.
const (
	imagePrefix = "image"
	scriptStem  = "action"
)

var (
	imageExts  = []string{".png", ".jpg", ".jpeg"}
	scriptExts = []string{".sh", ".py", ".js"}
)

// DefaultIndexWidth is the default zero-padded width of slot directory names.
const DefaultIndexWidth = 2

// Resolver maps settled filesystem paths to slot indices and change
// categories. Paths outside the root/<index>/<file> shape, directories not
// matching the slot pattern, and files not named by the contract are
// dropped without error: slot directories may hold scratch files (symlink
// targets and the like) that must never trigger reconciliation.
type Resolver struct {
	root  string
	width int
}

// NewResolver creates a Resolver for the given root. width is the
// zero-padded digit width of slot directory names.
func NewResolver(root string, width int) *Resolver {
	return &Resolver{root: filepath.Clean(root), width: width}
}

// Resolve classifies a settled event. The second return is false when the
// path is irrelevant to any slot.
func (r *Resolver) Resolve(ev ChangeEvent) (ResolvedEvent, bool) {
	rel, err := filepath.Rel(r.root, ev.Path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ResolvedEvent{}, false
	}

	parts := strings.Split(rel, string(filepath.Separator))
	switch len(parts) {
	case 1:
		return r.resolveStructural(ev, parts[0])
	case 2:
		return r.resolveFile(ev, parts[0], parts[1])
	default:
		return ResolvedEvent{}, false
	}
}

// resolveStructural handles entries directly under the root: slot
// directories appearing or disappearing.
func (r *Resolver) resolveStructural(ev ChangeEvent, name string) (ResolvedEvent, bool) {
	index, ok := r.slotIndex(name)
	if !ok {
		return ResolvedEvent{}, false
	}

	if ev.Kind.removal() {
		// The path is gone; nothing to stat. A root-level file that
		// happened to match the slot pattern clears an already-empty
		// slot, which is harmless.
		return ResolvedEvent{Slot: index, Category: CategoryStructural}, true
	}

	info, err := os.Lstat(ev.Path)
	if err != nil || !info.IsDir() {
		return ResolvedEvent{}, false
	}
	return ResolvedEvent{Slot: index, Category: CategoryStructural, Path: ev.Path}, true
}

// resolveFile handles entries two levels down: the slot's image and
// action files.
func (r *Resolver) resolveFile(ev ChangeEvent, dir, name string) (ResolvedEvent, bool) {
	index, ok := r.slotIndex(dir)
	if !ok {
		return ResolvedEvent{}, false
	}

	var category Category
	switch {
	case isImageName(name):
		category = CategoryImage
	case isScriptName(name):
		category = CategoryScript
	default:
		return ResolvedEvent{}, false
	}

	resolved := ResolvedEvent{Slot: index, Category: category}
	if !ev.Kind.removal() {
		resolved.Path = ev.Path
	}
	return resolved, true
}

// slotIndex parses the slot index from a directory name: exactly width
// leading digits, optionally followed by a descriptive suffix that does
// not start with another digit ("01", "01_mute"). Index zero is invalid.
func (r *Resolver) slotIndex(name string) (int, bool) {
	if len(name) < r.width {
		return 0, false
	}
	digits := name[:r.width]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	if len(name) > r.width && name[r.width] >= '0' && name[r.width] <= '9' {
		return 0, false
	}
	index, err := strconv.Atoi(digits)
	if err != nil || index < 1 {
		return 0, false
	}
	return index, true
}

func isImageName(name string) bool {
	if !strings.HasPrefix(name, imagePrefix) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

func isScriptName(name string) bool {
	ext := filepath.Ext(name)
	if strings.TrimSuffix(name, ext) != scriptStem {
		return false
	}
	for _, e := range scriptExts {
		if ext == e {
			return true
		}
	}
	return false
}

// findSlotImage returns the slot directory's image file, or "" if none.
// When several files match the naming rule the lexicographically first
// wins; the rest are ignored, never an error.
func findSlotImage(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isImageName(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0])
}

// findSlotScript returns the slot directory's action script, or "" if
// none. Extensions are probed in the contract order.
func findSlotScript(dir string) string {
	for _, ext := range scriptExts {
		path := filepath.Join(dir, scriptStem+ext)
		if info, err := os.Lstat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
