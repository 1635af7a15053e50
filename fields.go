package deckfs

import "github.com/zoobzio/capitan"

// Field keys for engine events.
var (
	// KeySlot is the 1-based slot index an event refers to.
	KeySlot = capitan.NewIntKey("slot")

	// KeyPath is the filesystem path an event refers to.
	KeyPath = capitan.NewStringKey("path")

	// KeyKind is the raw change kind at settle time.
	KeyKind = capitan.NewStringKey("kind")

	// KeyCategory is the resolved change category.
	KeyCategory = capitan.NewStringKey("category")

	// KeyOldStatus is the slot status before a transition.
	KeyOldStatus = capitan.NewStringKey("old_status")

	// KeyNewStatus is the slot status after a transition.
	KeyNewStatus = capitan.NewStringKey("new_status")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyQuietWindow is the configured debounce quiet window.
	KeyQuietWindow = capitan.NewDurationKey("quiet_window")

	// KeyBrightness is the applied device brightness percentage.
	KeyBrightness = capitan.NewIntKey("brightness")

	// KeyInterpreter is the interpreter chosen for an action script.
	KeyInterpreter = capitan.NewStringKey("interpreter")

	// KeyRoot is the watched root directory.
	KeyRoot = capitan.NewStringKey("root")
)
