package link

import (
	"time"

	"github.com/ZerepL/smart-espresso/internal/supervisor/clock"
	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

// BrokerConfig tunes the broker link manager.
type BrokerConfig struct {
	// ClientID identifies this appliance to the broker.
	ClientID string

	// CommandTopic is subscribed after every successful connection.
	CommandTopic string

	// VerifyTopic receives the best-effort hello publish on connect.
	VerifyTopic string

	// RetryInterval is how long to wait between connection attempts.
	RetryInterval time.Duration

	// ConnectTimeout bounds the Connecting state before the attempt counts
	// as failed.
	ConnectTimeout time.Duration

	// FailThreshold is the number of consecutive failed attempts that
	// escalates to a forced restart.
	FailThreshold uint32
}

// DefaultBrokerConfig matches the firmware defaults: 5s retry cadence and
// escalation after 50 straight failures.
func DefaultBrokerConfig() BrokerConfig {
	return BrokerConfig{
		RetryInterval:  5 * time.Second,
		ConnectTimeout: 5 * time.Second,
		FailThreshold:  50,
	}
}

// BrokerManager supervises the message-bus connection. Connect is
// asynchronous, so the machine passes through Connecting and falls back to
// Down when the attempt times out.
type BrokerManager struct {
	cfg       BrokerConfig
	transport BrokerTransport
	clk       clock.Clock
	latch     *core.RestartLatch
	logger    log.Logger

	state       State
	attempts    uint32 // consecutive failures since last success
	cumulative  uint32 // attempts since boot; health monitor owns the rollover
	lastAttempt clock.Ticks
	attempted   bool
}

// NewBrokerManager builds the manager in the Down state; the first poll
// performs an immediate attempt.
func NewBrokerManager(cfg BrokerConfig, t BrokerTransport, clk clock.Clock, latch *core.RestartLatch, logger log.Logger) *BrokerManager {
	return &BrokerManager{
		cfg:       cfg,
		transport: t,
		clk:       clk,
		latch:     latch,
		logger:    logger.WithName("link-broker"),
	}
}

// Poll advances the link machine by one step. While up it performs the
// transport's keep-alive/drain pump; otherwise it is a no-op until the retry
// cadence elapses.
func (m *BrokerManager) Poll() {
	now := m.clk.Now()

	switch m.state {
	case StateUp:
		if !m.transport.IsConnected() {
			m.state = StateDown
			m.logger.Warn("Broker connection lost")
			return
		}
		m.transport.Pump()

	case StateConnecting:
		if m.transport.IsConnected() {
			m.onConnected()
			return
		}
		if clock.Elapsed(m.clk, m.lastAttempt, m.cfg.ConnectTimeout) {
			m.state = StateDown
			m.fail(now)
		}

	default: // StateDown
		if m.attempted && !clock.Elapsed(m.clk, m.lastAttempt, m.cfg.RetryInterval) {
			return
		}

		m.attempted = true
		m.lastAttempt = now
		m.cumulative++

		if !m.transport.Connect(m.cfg.ClientID) {
			m.fail(now)
			return
		}
		m.state = StateConnecting

		// A transport may already hold a session (e.g. an auto-reconnecting
		// client); promote immediately instead of waiting a poll cycle.
		if m.transport.IsConnected() {
			m.onConnected()
		}
	}
}

func (m *BrokerManager) onConnected() {
	m.state = StateUp
	m.attempts = 0
	m.logger.Info("Broker connected", "clientID", m.cfg.ClientID)

	if m.cfg.CommandTopic != "" {
		if !m.transport.Subscribe(m.cfg.CommandTopic) {
			m.logger.Warn("Command topic subscription failed", "topic", m.cfg.CommandTopic)
		}
	}

	// Verification publish is best-effort: its failure is not a failure of
	// the connection attempt.
	if m.cfg.VerifyTopic != "" {
		if !m.transport.Publish(m.cfg.VerifyTopic, []byte("online")) {
			m.logger.Warn("Verification publish failed", "topic", m.cfg.VerifyTopic)
		}
	}
}

func (m *BrokerManager) fail(now clock.Ticks) {
	m.attempts++
	m.logger.Warn("Broker connection attempt failed", "consecutive", m.attempts)

	if m.attempts >= m.cfg.FailThreshold {
		if m.latch.Request(core.ReasonLinkBroker, now) {
			m.logger.Error(nil, "Broker failure threshold reached, requesting restart",
				"attempts", m.attempts)
		}
	}
}

// State returns the current connection state.
func (m *BrokerManager) State() State { return m.state }

// Connected reports whether the managed link is up.
func (m *BrokerManager) Connected() bool { return m.state == StateUp }

// CumulativeAttempts is the attempt count since boot or the last daily
// rollover. Read by the health monitor and the reporter.
func (m *BrokerManager) CumulativeAttempts() uint32 { return m.cumulative }

// ResetCumulative zeroes the cumulative counter. Called only by the health
// monitor's daily rollover.
func (m *BrokerManager) ResetCumulative() { m.cumulative = 0 }
