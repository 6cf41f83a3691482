// Package brew implements the user-facing brew state machine:
// Idle -> Heating (start command) -> Pouring (heat time elapsed) -> Idle.
// There is no sensor feedback; the heat-to-pour transition is purely timed,
// and a state-timeout guard snaps any stuck non-idle state back to Idle.
package brew

import (
	"context"
	"time"

	"github.com/looplab/fsm"

	"github.com/ZerepL/smart-espresso/internal/pkg/metrics"
	"github.com/ZerepL/smart-espresso/internal/supervisor/clock"
	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

const (
	StateIdle    = "idle"
	StateHeating = "heating"
	StatePouring = "pouring"

	eventStart  = "start"
	eventPour   = "pour"
	eventFinish = "finish"
	eventAbort  = "abort"
)

// Appliance is the slice of the HAL the machine actuates.
type Appliance interface {
	PowerOn() error
	Dispense() error
}

// Config tunes the brew timings.
type Config struct {
	// HeatDuration is how long the boiler heats before the pour begins.
	HeatDuration time.Duration

	// StateTimeout bounds any non-idle state. A breach resets to Idle
	// without counting a brew; it is a safety net, not a transition.
	StateTimeout time.Duration
}

// DefaultConfig matches the firmware defaults: 150s heat, 5 minute guard.
func DefaultConfig() Config {
	return Config{
		HeatDuration: 150 * time.Second,
		StateTimeout: 5 * time.Minute,
	}
}

// Machine drives one appliance through the brew cycle.
type Machine struct {
	cfg       Config
	appliance Appliance
	clk       clock.Clock
	session   *core.Session
	logger    log.Logger

	fsm       *fsm.FSM
	enteredAt clock.Ticks
}

// NewMachine builds the machine in Idle.
func NewMachine(cfg Config, appliance Appliance, clk clock.Clock, session *core.Session, logger log.Logger) *Machine {
	m := &Machine{
		cfg:       cfg,
		appliance: appliance,
		clk:       clk,
		session:   session,
		logger:    logger.WithName("brew"),
	}

	events := fsm.Events{
		{Name: eventStart, Src: []string{StateIdle}, Dst: StateHeating},
		{Name: eventPour, Src: []string{StateHeating}, Dst: StatePouring},
		{Name: eventFinish, Src: []string{StatePouring}, Dst: StateIdle},
		{Name: eventAbort, Src: []string{StateHeating, StatePouring}, Dst: StateIdle},
	}

	callbacks := fsm.Callbacks{
		"enter_" + StateHeating: m.enterHeating,
		"enter_" + StatePouring: m.enterPouring,
	}

	m.fsm = fsm.NewFSM(StateIdle, events, callbacks)
	return m
}

// enterHeating stamps the state entry and energizes the boiler.
func (m *Machine) enterHeating(ctx context.Context, e *fsm.Event) {
	m.enteredAt = m.clk.Now()
	m.logger.Info("Brew started, heating", "duration", m.cfg.HeatDuration)
	if err := m.appliance.PowerOn(); err != nil {
		m.logger.Error(err, "Boiler power-on failed")
	}
}

// enterPouring runs the dispense actuation. This blocks the whole loop for
// the fixed pour duration, which is the one blocking step the supervisor
// permits: nothing else is useful mid-pour.
func (m *Machine) enterPouring(ctx context.Context, e *fsm.Event) {
	m.enteredAt = m.clk.Now()
	m.logger.Info("Heat time elapsed, pouring")
	if err := m.appliance.Dispense(); err != nil {
		m.logger.Error(err, "Dispense failed")
	}
	m.session.BrewCount++
	metrics.BrewsTotal.Inc()
}

// Start accepts the brew command. Only valid from Idle; anywhere else it is
// logged and dropped, never queued.
func (m *Machine) Start() {
	if !m.fsm.Is(StateIdle) {
		m.logger.Warn("Start command ignored, brew in progress", "state", m.fsm.Current())
		return
	}
	if err := m.fsm.Event(context.Background(), eventStart); err != nil {
		m.logger.Error(err, "Start transition failed")
	}
}

// Tick advances the timed transitions. Called once per loop iteration.
func (m *Machine) Tick() {
	ctx := context.Background()

	// Safety net first: a state stuck past the bound goes straight back to
	// Idle, with no brew counted and no restart requested.
	if !m.fsm.Is(StateIdle) && clock.Elapsed(m.clk, m.enteredAt, m.cfg.StateTimeout) {
		m.logger.Warn("State timeout exceeded, forcing idle", "state", m.fsm.Current())
		if err := m.fsm.Event(ctx, eventAbort); err != nil {
			m.logger.Error(err, "Abort transition failed")
		}
		return
	}

	if m.fsm.Is(StateHeating) && clock.Elapsed(m.clk, m.enteredAt, m.cfg.HeatDuration) {
		if err := m.fsm.Event(ctx, eventPour); err != nil {
			m.logger.Error(err, "Pour transition failed")
			return
		}
		// Dispense completed inside the pouring entry; the cycle closes
		// unconditionally.
		if err := m.fsm.Event(ctx, eventFinish); err != nil {
			m.logger.Error(err, "Finish transition failed")
		}
		m.logger.Info("Brew complete", "sessionCount", m.session.BrewCount)
	}
}

// Reset snaps the machine back to Idle without side effects. Used by the
// operator reset command.
func (m *Machine) Reset() {
	m.fsm.SetState(StateIdle)
	m.enteredAt = m.clk.Now()
}

// State returns the current state name.
func (m *Machine) State() string { return m.fsm.Current() }

// StateEnteredAt returns the tick the current state was entered.
func (m *Machine) StateEnteredAt() clock.Ticks { return m.enteredAt }
