package brew

import (
	"errors"
	"testing"
	"time"

	"github.com/ZerepL/smart-espresso/internal/supervisor/clock"
	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

type fakeAppliance struct {
	powerOns   int
	dispenses  int
	powerErr   error
	dispendErr error
}

func (f *fakeAppliance) PowerOn() error { f.powerOns++; return f.powerErr }

func (f *fakeAppliance) Dispense() error { f.dispenses++; return f.dispendErr }

func newMachineFixture(cfg Config) (*Machine, *fakeAppliance, *core.Session, *clock.Fake) {
	appliance := &fakeAppliance{}
	session := &core.Session{}
	clk := &clock.Fake{}
	m := NewMachine(cfg, appliance, clk, session, log.NewNopLogger())
	return m, appliance, session, clk
}

func TestFullBrewCycle(t *testing.T) {
	cfg := DefaultConfig()
	m, appliance, session, clk := newMachineFixture(cfg)

	m.Start()
	if m.State() != StateHeating {
		t.Fatalf("state after start = %q, want %q", m.State(), StateHeating)
	}
	if appliance.powerOns != 1 {
		t.Errorf("powerOns = %d, want 1", appliance.powerOns)
	}

	// One tick short of the heat time: still heating.
	clk.Advance(cfg.HeatDuration - time.Millisecond)
	m.Tick()
	if m.State() != StateHeating {
		t.Fatalf("state before heat elapsed = %q, want %q", m.State(), StateHeating)
	}

	clk.Advance(time.Millisecond)
	m.Tick()

	// The pour is blocking: by the time Tick returns the cycle is closed.
	if m.State() != StateIdle {
		t.Errorf("state after pour = %q, want %q", m.State(), StateIdle)
	}
	if appliance.dispenses != 1 {
		t.Errorf("dispenses = %d, want 1", appliance.dispenses)
	}
	if session.BrewCount != 1 {
		t.Errorf("BrewCount = %d, want 1", session.BrewCount)
	}
}

func TestStartIgnoredOutsideIdle(t *testing.T) {
	m, appliance, _, _ := newMachineFixture(DefaultConfig())

	m.Start()
	m.Start() // mid-cycle start must be dropped, not queued

	if m.State() != StateHeating {
		t.Fatalf("state = %q, want %q", m.State(), StateHeating)
	}
	if appliance.powerOns != 1 {
		t.Errorf("powerOns = %d, want 1 (second start ignored)", appliance.powerOns)
	}
}

func TestStateTimeoutForcesIdleWithoutCounting(t *testing.T) {
	cfg := Config{
		HeatDuration: time.Hour, // never finishes heating on its own
		StateTimeout: 5 * time.Minute,
	}
	m, appliance, session, clk := newMachineFixture(cfg)

	m.Start()
	clk.Advance(cfg.StateTimeout)
	m.Tick()

	if m.State() != StateIdle {
		t.Errorf("state after timeout = %q, want %q", m.State(), StateIdle)
	}
	if appliance.dispenses != 0 {
		t.Errorf("dispenses = %d, want 0 (aborted cycle must not pour)", appliance.dispenses)
	}
	if session.BrewCount != 0 {
		t.Errorf("BrewCount = %d, want 0 (aborted cycle must not count)", session.BrewCount)
	}
}

func TestTimeoutWinsOverHeatTransition(t *testing.T) {
	// Heat time and timeout breached in the same tick: the safety net runs
	// first and the cycle aborts.
	cfg := Config{
		HeatDuration: 5 * time.Minute,
		StateTimeout: 5 * time.Minute,
	}
	m, appliance, _, clk := newMachineFixture(cfg)

	m.Start()
	clk.Advance(5 * time.Minute)
	m.Tick()

	if m.State() != StateIdle {
		t.Errorf("state = %q, want %q", m.State(), StateIdle)
	}
	if appliance.dispenses != 0 {
		t.Errorf("dispenses = %d, want 0", appliance.dispenses)
	}
}

func TestDispenseErrorStillCountsAndCloses(t *testing.T) {
	cfg := DefaultConfig()
	m, appliance, session, clk := newMachineFixture(cfg)
	appliance.dispendErr = errors.New("pump fault")

	m.Start()
	clk.Advance(cfg.HeatDuration)
	m.Tick()

	// There is no sensor to tell a dry pour from a good one; the cycle closes
	// and the count advances either way.
	if m.State() != StateIdle {
		t.Errorf("state = %q, want %q", m.State(), StateIdle)
	}
	if session.BrewCount != 1 {
		t.Errorf("BrewCount = %d, want 1", session.BrewCount)
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	m, _, _, _ := newMachineFixture(DefaultConfig())

	m.Start()
	m.Reset()

	if m.State() != StateIdle {
		t.Errorf("state after reset = %q, want %q", m.State(), StateIdle)
	}

	// The machine is usable again immediately.
	m.Start()
	if m.State() != StateHeating {
		t.Errorf("state after restart = %q, want %q", m.State(), StateHeating)
	}
}

func TestConsecutiveCycles(t *testing.T) {
	cfg := DefaultConfig()
	m, _, session, clk := newMachineFixture(cfg)

	for i := 0; i < 3; i++ {
		m.Start()
		clk.Advance(cfg.HeatDuration)
		m.Tick()
	}

	if session.BrewCount != 3 {
		t.Errorf("BrewCount = %d, want 3", session.BrewCount)
	}
}
