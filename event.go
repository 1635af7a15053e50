package deckfs

import "time"

// Kind classifies a raw filesystem change notification.
type Kind int

const (
	// KindCreated indicates a path appeared.
	KindCreated Kind = iota

	// KindModified indicates a path's contents or target changed. Symlink
	// retargeting surfaces as a modification of the link path.
	KindModified

	// KindDeleted indicates a path was removed.
	KindDeleted

	// KindMovedTo indicates a path appeared as the destination of a rename.
	KindMovedTo

	// KindMovedFrom indicates a path disappeared as the source of a rename.
	KindMovedFrom
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "created"
	case KindModified:
		return "modified"
	case KindDeleted:
		return "deleted"
	case KindMovedTo:
		return "moved-to"
	case KindMovedFrom:
		return "moved-from"
	default:
		return "unknown"
	}
}

// removal reports whether the kind means the path is gone.
func (k Kind) removal() bool {
	return k == KindDeleted || k == KindMovedFrom
}

// ChangeEvent is a raw filesystem change notification as produced by a
// Watcher. Events are ephemeral: the Debouncer consumes and discards them.
type ChangeEvent struct {
	// Path is the absolute path the event refers to. For symlinks this is
	// the link path, never the resolved target.
	Path string

	// Kind is the change classification.
	Kind Kind

	// Time is when the watcher observed the change.
	Time time.Time
}

// Category classifies what a settled path means for a slot.
type Category int

const (
	// CategoryImage is a change to the slot's image.* file.
	CategoryImage Category = iota

	// CategoryScript is a change to the slot's action.* file.
	CategoryScript

	// CategoryStructural is the slot directory itself appearing or
	// disappearing.
	CategoryStructural
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryImage:
		return "image"
	case CategoryScript:
		return "script"
	case CategoryStructural:
		return "structural"
	default:
		return "unknown"
	}
}

// ResolvedEvent is a settled, slot-mapped change ready for reconciliation.
// Produced by the Resolver, consumed by the Reconciler.
type ResolvedEvent struct {
	// Slot is the 1-based slot index the change maps to.
	Slot int

	// Category describes what changed.
	Category Category

	// Path is the settled path, or empty when the subject is gone
	// (file deleted, directory removed).
	Path string
}
