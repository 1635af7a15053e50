package deckfs

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus,
// StatsD, etc. Implement this interface to receive callbacks on key engine
// events.
type MetricsProvider interface {
	// OnStatusChange is called when a slot transitions between statuses.
	OnStatusChange(slot int, from, to SlotStatus)

	// OnRenderSuccess is called when a frame reaches the device.
	// Duration covers decode, scale, and the device write.
	OnRenderSuccess(slot int, duration time.Duration)

	// OnRenderFailure is called when a device write fails after retry.
	OnRenderFailure(slot int, duration time.Duration)

	// OnChangeSettled is called when the debouncer releases a settled
	// change into the pipeline.
	OnChangeSettled()
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStatusChange(_ int, _, _ SlotStatus)  {}
func (NoOpMetricsProvider) OnRenderSuccess(_ int, _ time.Duration) {}
func (NoOpMetricsProvider) OnRenderFailure(_ int, _ time.Duration) {}
func (NoOpMetricsProvider) OnChangeSettled()                       {}
