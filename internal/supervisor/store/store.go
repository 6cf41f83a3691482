// Package store persists the restart-analytics record in retention memory: a
// small block that survives a software restart but not a power loss. The
// store holds exactly one record; it is not a general persistence layer.
package store

import (
	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

// RetentionMemory is the retention block collaborator. Reads and writes may
// fail; the store treats both like corruption and falls back to a fresh
// record rather than propagating the failure.
type RetentionMemory interface {
	ReadBlock(offset, size int) ([]byte, error)
	WriteBlock(offset int, data []byte) error
}

// Store owns the in-memory copy of the restart record and mirrors every
// mutation to retention memory.
type Store struct {
	mem    RetentionMemory
	offset int
	rec    RestartRecord
	logger log.Logger
}

// Open loads the record from retention memory, initializing a fresh one when
// validation fails (cold boot, power loss, or corruption).
func Open(mem RetentionMemory, logger log.Logger) *Store {
	s := &Store{mem: mem, logger: logger}

	if rec, ok := s.load(); ok {
		s.rec = rec
		s.logger.Info("Restart record loaded",
			"totalRestarts", rec.TotalRestarts,
			"lastReason", rec.LastReason,
			"brewCountAllTime", rec.BrewCountAllTime)
		return s
	}

	s.logger.Info("No valid restart record, initializing retention memory")
	s.Initialize()
	return s
}

func (s *Store) load() (RestartRecord, bool) {
	buf, err := s.mem.ReadBlock(s.offset, RecordSize)
	if err != nil {
		s.logger.Warn("Retention read failed", "error", err)
		return RestartRecord{}, false
	}
	return decodeRecord(buf)
}

// Record returns a copy of the current record.
func (s *Store) Record() RestartRecord {
	return s.rec
}

// Initialize resets the record to the cold-boot state and writes it.
func (s *Store) Initialize() {
	s.rec = newRecord()
	s.write()
}

// RecordRestart commits a categorized restart: bumps the total and per-reason
// counters, folds the session brew count into the all-time total, and writes.
// This is the last action before the restart executes, so a write failure is
// logged and swallowed; it must never delay the restart.
func (s *Store) RecordRestart(reason core.RestartReason, sessionBrews uint32) {
	s.rec.TotalRestarts++
	s.rec.ByReason[reason]++
	s.rec.LastReason = reason
	s.rec.BrewCountAllTime += sessionBrews
	s.write()
}

// Checkpoint folds the session brew count into the all-time total and writes,
// returning the new session baseline of zero. Run on a fixed cadence so a
// power loss costs at most one interval of brew history.
func (s *Store) Checkpoint(sessionBrews uint32) uint32 {
	if sessionBrews > 0 {
		s.rec.BrewCountAllTime += sessionBrews
		s.write()
	}
	return 0
}

// Reset discards all historical counters. Explicit operator action only.
func (s *Store) Reset() {
	s.logger.Warn("Operator reset: discarding restart history",
		"totalRestarts", s.rec.TotalRestarts,
		"brewCountAllTime", s.rec.BrewCountAllTime)
	s.Initialize()
}

func (s *Store) write() {
	if err := s.mem.WriteBlock(s.offset, s.rec.encode()); err != nil {
		s.logger.Error(err, "Retention write failed")
	}
}
