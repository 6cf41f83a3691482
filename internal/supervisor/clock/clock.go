// Package clock provides the monotonic millisecond time base every timeout in
// the supervisor is expressed against. The counter is a fixed-width uint32 and
// wraps roughly every 49.7 days of uptime; Elapsed is the only comparison
// primitive components are allowed to use, so the wrap is handled in exactly
// one place.
package clock

import (
	"math"
	"time"
)

// Ticks is a wrapping millisecond counter. Arithmetic on Ticks wraps modulo
// 2^32 like the hardware counter it models.
type Ticks uint32

// Clock yields the current tick count.
type Clock interface {
	Now() Ticks
}

// Elapsed reports whether at least interval has passed since the given tick.
//
// It is also true whenever now < since. A wrapped counter makes "now before
// since" indistinguishable from "now lapped since"; treating both as elapsed
// prefers a spurious trigger over a timeout that never fires.
func Elapsed(c Clock, since Ticks, interval time.Duration) bool {
	return elapsed(c.Now(), since, interval)
}

func elapsed(now, since Ticks, interval time.Duration) bool {
	if now < since {
		return true
	}

	ms := interval.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	if ms > math.MaxUint32 {
		// Longer than a full counter period can never be observed; saturate.
		ms = math.MaxUint32
	}

	return uint32(now-since) >= uint32(ms)
}

// Monotonic is the production clock. It counts milliseconds from process
// start using the runtime's monotonic reading, truncated to the counter width.
type Monotonic struct {
	start time.Time
}

var _ Clock = (*Monotonic)(nil)

// NewMonotonic returns a clock whose tick zero is now.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

func (m *Monotonic) Now() Ticks {
	return Ticks(uint64(time.Since(m.start).Milliseconds()))
}

// Fake is a hand-driven clock for tests.
type Fake struct {
	Ticks Ticks
}

var _ Clock = (*Fake)(nil)

func (f *Fake) Now() Ticks { return f.Ticks }

// Advance moves the fake clock forward, wrapping like the real counter.
func (f *Fake) Advance(d time.Duration) {
	f.Ticks += Ticks(uint64(d.Milliseconds()))
}
