// Package supervisor is the reliability and recovery core of the appliance:
// one cooperative loop that ticks the brew state machine, two link managers,
// the health monitor and the reporter, drains the shared restart latch at the
// top of every iteration, and keeps the restart-analytics record current in
// retention memory.
package supervisor

import (
	"context"
	"strings"
	"time"

	"github.com/ZerepL/smart-espresso/internal/pkg/metrics"
	"github.com/ZerepL/smart-espresso/internal/supervisor/brew"
	"github.com/ZerepL/smart-espresso/internal/supervisor/clock"
	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/internal/supervisor/health"
	"github.com/ZerepL/smart-espresso/internal/supervisor/link"
	"github.com/ZerepL/smart-espresso/internal/supervisor/report"
	"github.com/ZerepL/smart-espresso/internal/supervisor/store"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

// Recognized inbound commands. Anything else is ignored.
const (
	CommandOn      = "on"
	CommandReset   = "reset"
	CommandRestart = "restart"
	CommandPing    = "ping"
)

// Identity names this appliance on the bus.
type Identity struct {
	ClientID        string
	FirmwareVersion string

	CommandTopic string
	StatusTopic  string
	VerifyTopic  string
}

// Deps are the injected collaborators: everything with a side effect lives
// behind one of these, so the whole supervisor runs against fakes in tests.
type Deps struct {
	Clock     clock.Clock
	HAL       core.HAL
	Retention store.RetentionMemory
	Primary   link.PrimaryTransport
	Broker    link.BrokerTransport
	Logger    log.Logger
}

// Supervisor owns the loop and all shared mutable state. Single-threaded by
// design: every field has exactly one writer, and the restart latch is
// first-write-wins within a tick.
type Supervisor struct {
	opts     *Options
	identity Identity

	clk    clock.Clock
	hal    core.HAL
	logger log.Logger

	session *core.Session
	latch   *core.RestartLatch
	store   *store.Store

	brew     *brew.Machine
	primary  *link.PrimaryManager
	broker   *link.BrokerManager
	health   *health.Monitor
	reporter *report.Reporter

	// inbox is the bounded single-slot command channel; the broker handler
	// fills it, the loop drains it once per iteration.
	inbox chan string

	brokerEverUp   bool
	lastCheckpoint clock.Ticks
	lastLiveness   clock.Ticks
}

// New assembles the supervisor. The retention record is loaded (or
// initialized) here so the previous restart reason is known before the loop
// starts.
func New(opts *Options, identity Identity, deps Deps) *Supervisor {
	logger := deps.Logger.WithName("supervisor")

	s := &Supervisor{
		opts:     opts,
		identity: identity,
		clk:      deps.Clock,
		hal:      deps.HAL,
		logger:   logger,
		session:  &core.Session{},
		latch:    &core.RestartLatch{},
		inbox:    make(chan string, 1),
	}

	s.session.StartedAt = s.clk.Now()
	s.store = store.Open(deps.Retention, logger)

	s.brew = brew.NewMachine(opts.brewConfig(), deps.HAL, s.clk, s.session, logger)
	s.primary = link.NewPrimaryManager(opts.primaryConfig(), deps.Primary, s.clk, s.latch, logger)
	s.broker = link.NewBrokerManager(opts.brokerConfig(identity), deps.Broker, s.clk, s.latch, logger)
	s.health = health.NewMonitor(opts.healthConfig(), s.clk, s.latch, s.session, s.primary, s.broker, logger)
	s.reporter = report.NewReporter(opts.reportConfig(identity), s.clk, s.session, brokerPublisher{deps.Broker}, s.brew, s.primary, s.broker, s.store, logger)

	return s
}

// brokerPublisher narrows the broker transport to the reporter's needs.
type brokerPublisher struct {
	t link.BrokerTransport
}

func (p brokerPublisher) Publish(topic string, payload []byte) bool {
	return p.t.Publish(topic, payload)
}

// Run executes the cooperative loop until the context is cancelled or a
// supervised restart is requested. On restart the categorized reason has
// already been committed to retention memory when Run returns; the caller
// executes the actual reboot.
func (s *Supervisor) Run(ctx context.Context) error {
	rec := s.store.Record()
	s.logger.Info("Supervisor starting",
		"clientID", s.identity.ClientID,
		"lastRestartReason", rec.LastReason,
		"totalRestarts", rec.TotalRestarts,
		"brewCountAllTime", rec.BrewCountAllTime)

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shutting down, checkpointing session brew count",
				"brewCountSession", s.session.BrewCount)
			s.session.BrewCount = s.store.Checkpoint(s.session.BrewCount)
			return nil

		case <-ticker.C:
			if err := s.Tick(); err != nil {
				return err
			}
		}
	}
}

// Tick runs one loop iteration. The restart latch is drained first, before
// any component runs, so at most one restart executes per request and no
// component ticks again behind a pending restart.
func (s *Supervisor) Tick() error {
	now := s.clk.Now()

	if req, ok := s.latch.Take(); ok {
		s.logger.Warn("Executing supervised restart", "reason", req.Reason)
		s.store.RecordRestart(req.Reason, s.session.BrewCount)
		s.session.BrewCount = 0
		return &core.RestartError{Request: req}
	}

	s.drainInbox()

	s.brew.Tick()
	s.primary.Poll()
	s.broker.Poll()
	s.health.Check()
	s.reporter.Tick()

	if s.broker.Connected() {
		s.brokerEverUp = true
	}

	if clock.Elapsed(s.clk, s.lastCheckpoint, s.opts.CheckpointInterval) {
		s.lastCheckpoint = now
		s.session.BrewCount = s.store.Checkpoint(s.session.BrewCount)
	}

	// The hardware watchdog is fed every iteration unconditionally; it is
	// the backstop for bugs in this very loop.
	s.hal.FeedWatchdog()

	if clock.Elapsed(s.clk, s.lastLiveness, s.opts.LivenessInterval) {
		s.lastLiveness = now
		metrics.LoopHeartbeat.SetToCurrentTime()
	}

	return nil
}

// OnBrokerMessage is the inbound command callback. It runs on the loop
// goroutine (the broker transport dispatches during its pump step), records
// bus activity, and parks the decoded command in the single-slot inbox.
func (s *Supervisor) OnBrokerMessage(topic string, payload []byte) {
	s.session.LastBrokerActivity = s.clk.Now()

	cmd := strings.ToLower(strings.TrimSpace(string(payload)))
	if cmd == "" {
		return
	}

	select {
	case s.inbox <- cmd:
	default:
		s.logger.Warn("Command inbox full, dropping command", "command", cmd)
	}
}

func (s *Supervisor) drainInbox() {
	for {
		select {
		case cmd := <-s.inbox:
			s.handleCommand(cmd)
		default:
			return
		}
	}
}

func (s *Supervisor) handleCommand(cmd string) {
	switch cmd {
	case CommandOn:
		s.brew.Start()

	case CommandReset:
		// Deliberate operator action: state, session count and the whole
		// persisted history go back to zero.
		s.brew.Reset()
		s.session.BrewCount = 0
		s.store.Reset()

	case CommandRestart:
		if s.latch.Request(core.ReasonUser, s.clk.Now()) {
			s.logger.Info("Restart command accepted")
		}

	case CommandPing:
		s.logger.Debug("Ping received")

	default:
		s.logger.Debug("Unrecognized command ignored", "command", cmd)
	}
}

// Ready reports whether the broker link has been up at least once; the
// readiness probe uses it.
func (s *Supervisor) Ready() bool {
	return s.brokerEverUp
}

// Record exposes the current restart record for the debug surface.
func (s *Supervisor) Record() store.RestartRecord {
	return s.store.Record()
}
