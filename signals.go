package deckfs

import "github.com/zoobzio/capitan"

// Engine lifecycle signals.
var (
	// EngineStarted is emitted when an Engine begins watching its root.
	EngineStarted = capitan.NewSignal(
		"deckfs.engine.started",
		"Engine watching started",
	)

	// EngineStopped is emitted when an Engine stops watching.
	EngineStopped = capitan.NewSignal(
		"deckfs.engine.stopped",
		"Engine watching stopped",
	)

	// EngineDegraded is emitted when a device write keeps failing after
	// retry. The engine continues running for the other slots.
	EngineDegraded = capitan.NewSignal(
		"deckfs.engine.degraded",
		"Device transport degraded",
	)
)

// Change pipeline signals.
var (
	// ChangeSettled is emitted when the debouncer releases a settled change.
	ChangeSettled = capitan.NewSignal(
		"deckfs.change.settled",
		"Filesystem change settled",
	)

	// ChangeDropped is emitted when a settled path does not fit the
	// slot naming contract and is ignored.
	ChangeDropped = capitan.NewSignal(
		"deckfs.change.dropped",
		"Change outside slot contract ignored",
	)
)

// Slot reconciliation signals.
var (
	// SlotStatusChanged is emitted when a slot transitions between statuses.
	SlotStatusChanged = capitan.NewSignal(
		"deckfs.slot.status.changed",
		"Slot status transition",
	)

	// SlotRendered is emitted when a slot's image reaches the device.
	SlotRendered = capitan.NewSignal(
		"deckfs.slot.rendered",
		"Slot image rendered on device",
	)

	// SlotDecodeFailed is emitted when a slot's image cannot be decoded.
	SlotDecodeFailed = capitan.NewSignal(
		"deckfs.slot.decode.failed",
		"Slot image decode failed",
	)

	// SlotRenderFailed is emitted when a device write fails after retry.
	SlotRenderFailed = capitan.NewSignal(
		"deckfs.slot.render.failed",
		"Device write failed",
	)

	// SlotCleared is emitted when a slot directory disappears and the
	// position is blanked on the device.
	SlotCleared = capitan.NewSignal(
		"deckfs.slot.cleared",
		"Slot removed and blanked",
	)
)

// Action script signals.
var (
	// ScriptSpawned is emitted when a press spawns an action script.
	ScriptSpawned = capitan.NewSignal(
		"deckfs.script.spawned",
		"Action script spawned",
	)

	// ScriptFailed is emitted when an action script fails to spawn or
	// exits non-zero.
	ScriptFailed = capitan.NewSignal(
		"deckfs.script.failed",
		"Action script failed",
	)
)

// Configuration signals.
var (
	// ConfigApplied is emitted when config.yaml settings are applied.
	ConfigApplied = capitan.NewSignal(
		"deckfs.config.applied",
		"Configuration applied",
	)

	// ConfigInvalid is emitted when config.yaml fails to parse or
	// validate. Current settings stay in effect.
	ConfigInvalid = capitan.NewSignal(
		"deckfs.config.invalid",
		"Configuration rejected",
	)
)
