package store

import (
	"hash/crc32"
	"testing"

	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
)

func TestRecordRoundTrip(t *testing.T) {
	rec := RestartRecord{
		TotalRestarts:    7,
		ByReason:         [core.NumReasons]uint32{2, 1, 0, 3, 0, 1, 0, 0},
		LastReason:       core.ReasonLinkPrimary,
		BrewCountAllTime: 1234,
	}

	got, ok := decodeRecord(rec.encode())
	if !ok {
		t.Fatal("decodeRecord rejected a freshly encoded record")
	}
	if got != rec {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, rec)
	}
}

func TestDecodeRejectsEveryCorruptedByte(t *testing.T) {
	rec := RestartRecord{
		TotalRestarts:    3,
		ByReason:         [core.NumReasons]uint32{1, 0, 0, 0, 1, 1, 0, 0},
		LastReason:       core.ReasonHealth,
		BrewCountAllTime: 42,
	}
	buf := rec.encode()

	for i := range buf {
		corrupted := make([]byte, len(buf))
		copy(corrupted, buf)
		corrupted[i] ^= 0xFF

		if _, ok := decodeRecord(corrupted); ok {
			t.Errorf("decodeRecord accepted a record with byte %d flipped", i)
		}
	}
}

func TestDecodeRejectsWrongSize(t *testing.T) {
	rec := newRecord()
	buf := rec.encode()

	if _, ok := decodeRecord(buf[:RecordSize-1]); ok {
		t.Error("decodeRecord accepted a truncated block")
	}
	if _, ok := decodeRecord(append(buf, 0)); ok {
		t.Error("decodeRecord accepted an oversized block")
	}
	if _, ok := decodeRecord(nil); ok {
		t.Error("decodeRecord accepted a nil block")
	}
}

func TestDecodeRejectsOutOfRangeReason(t *testing.T) {
	rec := newRecord()
	rec.LastReason = core.RestartReason(core.NumReasons) // one past the end
	buf := rec.encode()                                  // checksum is valid

	if _, ok := decodeRecord(buf); ok {
		t.Error("decodeRecord accepted an out-of-range reason")
	}
}

func TestNewRecordIsPowerOn(t *testing.T) {
	rec := newRecord()
	if rec.LastReason != core.ReasonPowerOn {
		t.Errorf("fresh record LastReason = %v, want %v", rec.LastReason, core.ReasonPowerOn)
	}
	if rec.TotalRestarts != 0 || rec.BrewCountAllTime != 0 {
		t.Errorf("fresh record carries non-zero counters: %+v", rec)
	}
	for i, n := range rec.ByReason {
		if n != 0 {
			t.Errorf("fresh record ByReason[%d] = %d, want 0", i, n)
		}
	}
}

// The bit-by-bit checksum defines the retention format on its own, but it
// should still agree with the standard IEEE CRC-32 for the same input.
func TestChecksumMatchesIEEE(t *testing.T) {
	fresh := newRecord()
	inputs := [][]byte{
		nil,
		{0x00},
		{0xFF, 0xFF, 0xFF, 0xFF},
		[]byte("espresso"),
		fresh.encode(),
	}

	for _, in := range inputs {
		if got, want := checksum(in), crc32.ChecksumIEEE(in); got != want {
			t.Errorf("checksum(%x) = %#x, want %#x", in, got, want)
		}
	}
}
