// Package health implements the multi-signal health monitor. It only reads
// other components' counters and timestamps; the one thing it mutates is the
// pair of cumulative reconnect counters whose daily rollover it owns.
package health

import (
	"runtime"
	"time"

	"github.com/ZerepL/smart-espresso/internal/supervisor/clock"
	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

// LinkCounters is the slice of a link manager the monitor needs: the
// cumulative attempt counter and the rollover hook.
type LinkCounters interface {
	CumulativeAttempts() uint32
	ResetCumulative()
}

// Config tunes the monitor cadence and thresholds.
type Config struct {
	// CheckInterval is how often the signals are evaluated.
	CheckInterval time.Duration

	// PublishSilence forces a restart when no status publish has succeeded
	// for this long.
	PublishSilence time.Duration

	// BrokerSilence forces a restart when no inbound broker activity has
	// been seen for this long.
	BrokerSilence time.Duration

	// PrimaryAttemptLimit and BrokerAttemptLimit bound the cumulative
	// reconnect counts before a restart is forced.
	PrimaryAttemptLimit uint32
	BrokerAttemptLimit  uint32

	// RolloverInterval is how often a healthy system zeroes the cumulative
	// counters so stale history cannot trip the limits.
	RolloverInterval time.Duration

	// MemorySysLimit forces a restart when the runtime's OS-claimed memory
	// exceeds it. Zero disables the check; this platform has no equivalent
	// of the original fragmentation metric.
	MemorySysLimit uint64
}

// DefaultConfig matches the firmware defaults.
func DefaultConfig() Config {
	return Config{
		CheckInterval:       2 * time.Minute,
		PublishSilence:      5 * time.Minute,
		BrokerSilence:       10 * time.Minute,
		PrimaryAttemptLimit: 20,
		BrokerAttemptLimit:  50,
		RolloverInterval:    24 * time.Hour,
	}
}

// Monitor evaluates the staleness and failure-accumulation signals on a
// fixed cadence and raises a categorized restart request on the first breach.
type Monitor struct {
	cfg     Config
	clk     clock.Clock
	latch   *core.RestartLatch
	session *core.Session
	primary LinkCounters
	broker  LinkCounters
	logger  log.Logger

	lastCheck    clock.Ticks
	lastRollover clock.Ticks

	// memSys is swappable in tests; defaults to runtime.ReadMemStats.
	memSys func() uint64
}

// NewMonitor wires the monitor to the counters it watches.
func NewMonitor(cfg Config, clk clock.Clock, latch *core.RestartLatch, session *core.Session, primary, broker LinkCounters, logger log.Logger) *Monitor {
	return &Monitor{
		cfg:     cfg,
		clk:     clk,
		latch:   latch,
		session: session,
		primary: primary,
		broker:  broker,
		logger:  logger.WithName("health"),
		memSys:  readMemSys,
	}
}

func readMemSys() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys
}

// Check runs the ordered signal evaluation. No-op until the check cadence
// has elapsed; stops at the first breached signal.
func (m *Monitor) Check() {
	now := m.clk.Now()
	if !clock.Elapsed(m.clk, m.lastCheck, m.cfg.CheckInterval) {
		return
	}
	m.lastCheck = now

	if clock.Elapsed(m.clk, m.session.LastStatusPublish, m.cfg.PublishSilence) {
		m.trip(core.ReasonHealth, "No successful status publish",
			"silence", m.cfg.PublishSilence)
		return
	}

	if clock.Elapsed(m.clk, m.session.LastBrokerActivity, m.cfg.BrokerSilence) {
		m.trip(core.ReasonLinkBroker, "No inbound broker activity",
			"silence", m.cfg.BrokerSilence)
		return
	}

	if m.primary.CumulativeAttempts() > m.cfg.PrimaryAttemptLimit {
		m.trip(core.ReasonLinkPrimary, "Primary reconnect count over limit",
			"attempts", m.primary.CumulativeAttempts())
		return
	}

	if m.broker.CumulativeAttempts() > m.cfg.BrokerAttemptLimit {
		m.trip(core.ReasonLinkBroker, "Broker reconnect count over limit",
			"attempts", m.broker.CumulativeAttempts())
		return
	}

	if m.cfg.MemorySysLimit > 0 {
		if sys := m.memSys(); sys > m.cfg.MemorySysLimit {
			m.trip(core.ReasonMemory, "Memory usage over limit", "sys", sys)
			return
		}
	}

	// Healthy. Roll the cumulative counters over once a day so old failures
	// cannot accumulate into a threshold breach on a long-running system.
	if clock.Elapsed(m.clk, m.lastRollover, m.cfg.RolloverInterval) {
		m.lastRollover = now
		m.primary.ResetCumulative()
		m.broker.ResetCumulative()
		m.logger.Info("Daily rollover: cumulative reconnect counters cleared")
	}
}

func (m *Monitor) trip(reason core.RestartReason, msg string, keysAndValues ...any) {
	if m.latch.Request(reason, m.clk.Now()) {
		m.logger.Error(nil, msg+", requesting restart", keysAndValues...)
	}
}
