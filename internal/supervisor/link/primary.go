package link

import (
	"time"

	"github.com/ZerepL/smart-espresso/internal/supervisor/clock"
	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

// PrimaryConfig tunes the primary link manager.
type PrimaryConfig struct {
	// RetryInterval is how often the link is re-checked while down.
	RetryInterval time.Duration

	// FailThreshold is the number of consecutive failed attempts since the
	// last success that escalates to a forced restart.
	FailThreshold uint32
}

// DefaultPrimaryConfig matches the firmware defaults: a 30s reconnect check
// and escalation after 5 straight failures.
func DefaultPrimaryConfig() PrimaryConfig {
	return PrimaryConfig{
		RetryInterval: 30 * time.Second,
		FailThreshold: 5,
	}
}

// PrimaryManager supervises the primary network link. The transport reports
// its status instantaneously, so this machine moves Down->Up directly and
// never lingers in Connecting.
type PrimaryManager struct {
	cfg       PrimaryConfig
	transport PrimaryTransport
	clk       clock.Clock
	latch     *core.RestartLatch
	logger    log.Logger

	state       State
	attempts    uint32 // consecutive failures since last success
	cumulative  uint32 // attempts since boot; health monitor owns the rollover
	lastAttempt clock.Ticks
	attempted   bool
}

// NewPrimaryManager builds the manager in the Down state; the first poll
// performs an immediate attempt.
func NewPrimaryManager(cfg PrimaryConfig, t PrimaryTransport, clk clock.Clock, latch *core.RestartLatch, logger log.Logger) *PrimaryManager {
	return &PrimaryManager{
		cfg:       cfg,
		transport: t,
		clk:       clk,
		latch:     latch,
		logger:    logger.WithName("link-primary"),
	}
}

// Poll advances the link machine by one step. No-op unless the retry
// interval has elapsed or the link is up.
func (m *PrimaryManager) Poll() {
	now := m.clk.Now()

	if m.state == StateUp {
		if m.transport.Status() == StatusDown {
			m.state = StateDown
			m.logger.Warn("Primary link lost")
		}
		return
	}

	if m.attempted && !clock.Elapsed(m.clk, m.lastAttempt, m.cfg.RetryInterval) {
		return
	}

	m.attempted = true
	m.lastAttempt = now
	m.cumulative++

	if m.transport.Status() == StatusUp {
		m.state = StateUp
		m.attempts = 0
		m.logger.Info("Primary link up", "address", m.transport.CurrentAddress())
		return
	}

	m.attempts++
	m.logger.Warn("Primary link attempt failed", "consecutive", m.attempts)

	if m.attempts >= m.cfg.FailThreshold {
		if m.latch.Request(core.ReasonLinkPrimary, now) {
			m.logger.Error(nil, "Primary link failure threshold reached, requesting restart",
				"attempts", m.attempts)
		}
	}
}

// State returns the current connection state.
func (m *PrimaryManager) State() State { return m.state }

// Address returns the transport's current address, empty while down.
func (m *PrimaryManager) Address() string {
	if m.state != StateUp {
		return ""
	}
	return m.transport.CurrentAddress()
}

// CumulativeAttempts is the attempt count since boot or the last daily
// rollover. Read by the health monitor and the reporter.
func (m *PrimaryManager) CumulativeAttempts() uint32 { return m.cumulative }

// ResetCumulative zeroes the cumulative counter. Called only by the health
// monitor's daily rollover.
func (m *PrimaryManager) ResetCumulative() { m.cumulative = 0 }
