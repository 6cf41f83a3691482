package core

import (
	"github.com/ZerepL/smart-espresso/internal/supervisor/clock"
)

// Session holds the volatile per-boot counters. It is zeroed on every boot;
// BrewCount is periodically folded into the persisted all-time total by the
// checkpoint cycle. Each field has exactly one writer component.
type Session struct {
	// BrewCount is the number of completed brews since boot or since the
	// last checkpoint fold. Written by the brew state machine.
	BrewCount uint32

	// LastStatusPublish is the tick of the last successful outward status
	// publish. Written by the reporter.
	LastStatusPublish clock.Ticks

	// LastBrokerActivity is the tick of the last inbound broker message.
	// Written by the command inbox.
	LastBrokerActivity clock.Ticks

	// StartedAt is the tick the process entered its loop (normally 0).
	StartedAt clock.Ticks
}
