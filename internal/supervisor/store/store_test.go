package store

import (
	"errors"
	"testing"

	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

// fakeMemory is an in-memory retention block with switchable failure modes.
type fakeMemory struct {
	data      []byte
	failRead  bool
	failWrite bool
	writes    int
}

func (m *fakeMemory) ReadBlock(offset, size int) ([]byte, error) {
	if m.failRead {
		return nil, errors.New("read fault")
	}
	if len(m.data) < offset+size {
		return nil, errors.New("short block")
	}
	return m.data[offset : offset+size], nil
}

func (m *fakeMemory) WriteBlock(offset int, data []byte) error {
	if m.failWrite {
		return errors.New("write fault")
	}
	if need := offset + len(data); len(m.data) < need {
		grown := make([]byte, need)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[offset:], data)
	m.writes++
	return nil
}

func sumByReason(rec RestartRecord) uint32 {
	var sum uint32
	for _, n := range rec.ByReason {
		sum += n
	}
	return sum
}

func TestOpenColdBootInitializes(t *testing.T) {
	mem := &fakeMemory{}
	s := Open(mem, log.NewNopLogger())

	rec := s.Record()
	if rec.LastReason != core.ReasonPowerOn {
		t.Errorf("cold boot LastReason = %v, want %v", rec.LastReason, core.ReasonPowerOn)
	}
	if mem.writes == 0 {
		t.Error("cold boot did not persist the fresh record")
	}
}

func TestOpenLoadsSurvivingRecord(t *testing.T) {
	mem := &fakeMemory{}

	s := Open(mem, log.NewNopLogger())
	s.RecordRestart(core.ReasonWatchdog, 3)

	// Simulate the restart: a new store over the same memory.
	s2 := Open(mem, log.NewNopLogger())
	rec := s2.Record()

	if rec.TotalRestarts != 1 {
		t.Errorf("TotalRestarts = %d, want 1", rec.TotalRestarts)
	}
	if rec.LastReason != core.ReasonWatchdog {
		t.Errorf("LastReason = %v, want %v", rec.LastReason, core.ReasonWatchdog)
	}
	if rec.BrewCountAllTime != 3 {
		t.Errorf("BrewCountAllTime = %d, want 3", rec.BrewCountAllTime)
	}
}

func TestOpenCorruptionFallsBackToFresh(t *testing.T) {
	mem := &fakeMemory{}
	s := Open(mem, log.NewNopLogger())
	s.RecordRestart(core.ReasonUser, 0)

	mem.data[8] ^= 0xFF

	s2 := Open(mem, log.NewNopLogger())
	if got := s2.Record().TotalRestarts; got != 0 {
		t.Errorf("TotalRestarts after corruption = %d, want 0 (reinitialized)", got)
	}
	if got := s2.Record().LastReason; got != core.ReasonPowerOn {
		t.Errorf("LastReason after corruption = %v, want %v", got, core.ReasonPowerOn)
	}
}

func TestTotalEqualsSumOfReasons(t *testing.T) {
	mem := &fakeMemory{}
	s := Open(mem, log.NewNopLogger())

	sequence := []core.RestartReason{
		core.ReasonUser,
		core.ReasonLinkBroker,
		core.ReasonLinkBroker,
		core.ReasonHealth,
		core.ReasonWatchdog,
		core.ReasonLinkPrimary,
		core.ReasonUser,
	}
	for i, reason := range sequence {
		s.RecordRestart(reason, 1)

		rec := s.Record()
		if rec.TotalRestarts != sumByReason(rec) {
			t.Fatalf("after restart %d: total %d != sum %d",
				i+1, rec.TotalRestarts, sumByReason(rec))
		}
	}

	rec := s.Record()
	if rec.TotalRestarts != uint32(len(sequence)) {
		t.Errorf("TotalRestarts = %d, want %d", rec.TotalRestarts, len(sequence))
	}
	if rec.ByReason[core.ReasonLinkBroker] != 2 {
		t.Errorf("ByReason[link-broker] = %d, want 2", rec.ByReason[core.ReasonLinkBroker])
	}
	if rec.BrewCountAllTime != uint32(len(sequence)) {
		t.Errorf("BrewCountAllTime = %d, want %d (one brew per session)",
			rec.BrewCountAllTime, len(sequence))
	}
}

func TestCheckpointFoldsSessionCount(t *testing.T) {
	mem := &fakeMemory{}
	s := Open(mem, log.NewNopLogger())

	if got := s.Checkpoint(5); got != 0 {
		t.Errorf("Checkpoint(5) = %d, want 0 (new session baseline)", got)
	}
	if got := s.Record().BrewCountAllTime; got != 5 {
		t.Errorf("BrewCountAllTime = %d, want 5", got)
	}

	// A zero-count checkpoint must not touch retention memory.
	writesBefore := mem.writes
	s.Checkpoint(0)
	if mem.writes != writesBefore {
		t.Error("Checkpoint(0) wrote to retention memory")
	}
}

func TestResetClearsHistory(t *testing.T) {
	mem := &fakeMemory{}
	s := Open(mem, log.NewNopLogger())
	s.RecordRestart(core.ReasonHealth, 9)

	s.Reset()

	rec := s.Record()
	if rec.TotalRestarts != 0 || rec.BrewCountAllTime != 0 {
		t.Errorf("record after Reset = %+v, want zeroed", rec)
	}
	if rec.LastReason != core.ReasonPowerOn {
		t.Errorf("LastReason after Reset = %v, want %v", rec.LastReason, core.ReasonPowerOn)
	}

	// The reset state must also be what a restart loads.
	s2 := Open(mem, log.NewNopLogger())
	if got := s2.Record().TotalRestarts; got != 0 {
		t.Errorf("TotalRestarts after Reset and reload = %d, want 0", got)
	}
}

func TestRecordRestartSurvivesWriteFailure(t *testing.T) {
	mem := &fakeMemory{}
	s := Open(mem, log.NewNopLogger())

	mem.failWrite = true
	s.RecordRestart(core.ReasonUser, 2)

	// The in-memory record still advances; the restart must not be blocked.
	rec := s.Record()
	if rec.TotalRestarts != 1 {
		t.Errorf("TotalRestarts = %d, want 1 despite the write fault", rec.TotalRestarts)
	}
}
