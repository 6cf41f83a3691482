package core

import (
	"fmt"

	"github.com/ZerepL/smart-espresso/internal/supervisor/clock"
)

// RestartRequest is the single pending request for a supervised restart.
type RestartRequest struct {
	Reason      RestartReason
	RequestedAt clock.Ticks
}

// RestartLatch is the shared one-slot restart flag. Any component may raise
// it; the first request in a tick wins and later ones are dropped until the
// loop drains the slot. The loop drains it before any component runs, so a
// raised latch means no component ticks again before the restart executes.
//
// The supervisor is single-threaded, so the latch needs no locking.
type RestartLatch struct {
	pending *RestartRequest
}

// Request raises the latch. It reports whether this call won the slot.
func (l *RestartLatch) Request(reason RestartReason, at clock.Ticks) bool {
	if l.pending != nil {
		return false
	}
	l.pending = &RestartRequest{Reason: reason, RequestedAt: at}
	return true
}

// Pending reports whether a request is waiting without consuming it.
func (l *RestartLatch) Pending() bool {
	return l.pending != nil
}

// Take consumes and clears the pending request, if any.
func (l *RestartLatch) Take() (RestartRequest, bool) {
	if l.pending == nil {
		return RestartRequest{}, false
	}
	req := *l.pending
	l.pending = nil
	return req, true
}

// RestartError carries a drained restart request out of the supervisor loop.
type RestartError struct {
	Request RestartRequest
}

func (e *RestartError) Error() string {
	return fmt.Sprintf("supervised restart requested: %s", e.Request.Reason)
}
