package health

import (
	"testing"
	"time"

	"github.com/ZerepL/smart-espresso/internal/supervisor/clock"
	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

type fakeCounters struct {
	attempts uint32
	resets   int
}

func (f *fakeCounters) CumulativeAttempts() uint32 { return f.attempts }

func (f *fakeCounters) ResetCumulative() { f.attempts = 0; f.resets++ }

type fixture struct {
	monitor *Monitor
	clk     *clock.Fake
	latch   *core.RestartLatch
	session *core.Session
	primary *fakeCounters
	broker  *fakeCounters
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		clk:     &clock.Fake{},
		latch:   &core.RestartLatch{},
		session: &core.Session{},
		primary: &fakeCounters{},
		broker:  &fakeCounters{},
	}
	f.monitor = NewMonitor(cfg, f.clk, f.latch, f.session, f.primary, f.broker, log.NewNopLogger())
	f.monitor.memSys = func() uint64 { return 0 }
	return f
}

// markHealthy refreshes the staleness timestamps to the current tick.
func (f *fixture) markHealthy() {
	f.session.LastStatusPublish = f.clk.Now()
	f.session.LastBrokerActivity = f.clk.Now()
}

// check advances past the cadence and runs one evaluation.
func (f *fixture) check(cfg Config) {
	f.clk.Advance(cfg.CheckInterval)
	f.monitor.Check()
}

func TestHealthyNoRestart(t *testing.T) {
	cfg := DefaultConfig()
	f := newFixture(cfg)

	for i := 0; i < 2; i++ {
		f.markHealthy()
		f.check(cfg)
	}

	if f.latch.Pending() {
		t.Error("restart requested on a healthy system")
	}
}

func TestCadenceGatesEvaluation(t *testing.T) {
	cfg := DefaultConfig()
	f := newFixture(cfg)

	// Publish silence is already breached, but the cadence has not elapsed.
	f.clk.Advance(cfg.PublishSilence)
	f.monitor.lastCheck = f.clk.Now()
	f.monitor.Check()

	if f.latch.Pending() {
		t.Error("signal evaluated before the check cadence elapsed")
	}
}

func TestPublishSilenceTripsHealth(t *testing.T) {
	cfg := DefaultConfig()
	f := newFixture(cfg)

	f.clk.Advance(cfg.PublishSilence)
	f.session.LastBrokerActivity = f.clk.Now() // broker traffic is fine
	f.monitor.Check()

	req, ok := f.latch.Take()
	if !ok {
		t.Fatal("no restart request despite publish silence")
	}
	if req.Reason != core.ReasonHealth {
		t.Errorf("reason = %v, want %v", req.Reason, core.ReasonHealth)
	}
}

func TestBrokerSilenceTripsLinkBroker(t *testing.T) {
	cfg := DefaultConfig()
	f := newFixture(cfg)

	f.clk.Advance(cfg.BrokerSilence)
	f.session.LastStatusPublish = f.clk.Now()
	f.monitor.Check()

	req, ok := f.latch.Take()
	if !ok {
		t.Fatal("no restart request despite broker silence")
	}
	if req.Reason != core.ReasonLinkBroker {
		t.Errorf("reason = %v, want %v", req.Reason, core.ReasonLinkBroker)
	}
}

func TestPrimaryAttemptLimitTripsLinkPrimary(t *testing.T) {
	cfg := DefaultConfig()
	f := newFixture(cfg)
	f.primary.attempts = cfg.PrimaryAttemptLimit + 1

	f.markHealthy()
	f.check(cfg)

	req, ok := f.latch.Take()
	if !ok {
		t.Fatal("no restart request despite primary attempts over limit")
	}
	if req.Reason != core.ReasonLinkPrimary {
		t.Errorf("reason = %v, want %v", req.Reason, core.ReasonLinkPrimary)
	}
}

func TestBrokerAttemptLimitTripsLinkBroker(t *testing.T) {
	cfg := DefaultConfig()
	f := newFixture(cfg)
	f.broker.attempts = cfg.BrokerAttemptLimit + 1

	f.markHealthy()
	f.check(cfg)

	req, ok := f.latch.Take()
	if !ok {
		t.Fatal("no restart request despite broker attempts over limit")
	}
	if req.Reason != core.ReasonLinkBroker {
		t.Errorf("reason = %v, want %v", req.Reason, core.ReasonLinkBroker)
	}
}

func TestAttemptLimitIsExclusive(t *testing.T) {
	cfg := DefaultConfig()
	f := newFixture(cfg)
	f.primary.attempts = cfg.PrimaryAttemptLimit // exactly at the limit

	f.markHealthy()
	f.check(cfg)

	if f.latch.Pending() {
		t.Error("restart requested at exactly the attempt limit, want over-limit only")
	}
}

func TestMemoryLimitTripsMemory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MemorySysLimit = 1 << 20
	f := newFixture(cfg)
	f.monitor.memSys = func() uint64 { return 2 << 20 }

	f.markHealthy()
	f.check(cfg)

	req, ok := f.latch.Take()
	if !ok {
		t.Fatal("no restart request despite memory over limit")
	}
	if req.Reason != core.ReasonMemory {
		t.Errorf("reason = %v, want %v", req.Reason, core.ReasonMemory)
	}
}

func TestRolloverClearsCumulativeCounters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RolloverInterval = time.Hour // shorten the day for the test
	f := newFixture(cfg)
	f.primary.attempts = 5
	f.broker.attempts = 7

	f.clk.Advance(cfg.RolloverInterval)
	f.markHealthy()
	f.monitor.Check()

	if f.primary.resets != 1 || f.broker.resets != 1 {
		t.Errorf("rollover resets = (%d, %d), want (1, 1)", f.primary.resets, f.broker.resets)
	}
	if f.primary.attempts != 0 || f.broker.attempts != 0 {
		t.Error("cumulative counters not cleared by the rollover")
	}
	if f.latch.Pending() {
		t.Error("rollover must not request a restart")
	}
}

func TestNoRolloverWhileUnhealthy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RolloverInterval = time.Hour
	f := newFixture(cfg)
	f.primary.attempts = cfg.PrimaryAttemptLimit + 1

	f.clk.Advance(cfg.RolloverInterval)
	f.markHealthy()
	f.monitor.Check()

	if f.primary.resets != 0 {
		t.Error("rollover ran on an unhealthy system")
	}
	if !f.latch.Pending() {
		t.Error("expected the attempt-limit trip to win over the rollover")
	}
}
