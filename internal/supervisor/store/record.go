package store

import (
	"encoding/binary"

	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
)

// RecordSize is the fixed size of the persisted restart record:
// checksum, total, one counter per reason, last reason, all-time brew count,
// each as a 32-bit little-endian word.
const RecordSize = 4 * (1 + 1 + core.NumReasons + 1 + 1)

// RestartRecord is the one entity that outlives a software restart. It is
// held in retention memory and guarded by a checksum over every field after
// the checksum itself.
type RestartRecord struct {
	// TotalRestarts equals the sum of ByReason at all times.
	TotalRestarts uint32

	// ByReason counts restarts per category, indexed by core.RestartReason.
	ByReason [core.NumReasons]uint32

	// LastReason is why the previous restart happened.
	LastReason core.RestartReason

	// BrewCountAllTime accumulates every checkpointed session brew count.
	BrewCountAllTime uint32
}

// newRecord returns the cold-boot record: all counters zero, reason PowerOn.
func newRecord() RestartRecord {
	return RestartRecord{LastReason: core.ReasonPowerOn}
}

// encode serializes the record and stamps the leading checksum.
func (r *RestartRecord) encode() []byte {
	buf := make([]byte, RecordSize)

	off := 4 // checksum slot filled last
	binary.LittleEndian.PutUint32(buf[off:], r.TotalRestarts)
	off += 4
	for _, n := range r.ByReason {
		binary.LittleEndian.PutUint32(buf[off:], n)
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:], uint32(r.LastReason))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], r.BrewCountAllTime)

	binary.LittleEndian.PutUint32(buf[0:], checksum(buf[4:]))
	return buf
}

// decodeRecord parses a retention block, returning false on any checksum
// mismatch or size problem. Corruption is not an error condition: the caller
// reinitializes instead.
func decodeRecord(buf []byte) (RestartRecord, bool) {
	if len(buf) != RecordSize {
		return RestartRecord{}, false
	}

	want := binary.LittleEndian.Uint32(buf[0:])
	if checksum(buf[4:]) != want {
		return RestartRecord{}, false
	}

	var r RestartRecord
	off := 4
	r.TotalRestarts = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	for i := range r.ByReason {
		r.ByReason[i] = binary.LittleEndian.Uint32(buf[off:])
		off += 4
	}
	reason := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	r.BrewCountAllTime = binary.LittleEndian.Uint32(buf[off:])

	if reason >= uint32(core.NumReasons) {
		return RestartRecord{}, false
	}
	r.LastReason = core.RestartReason(reason)

	return r, true
}

// checksum is CRC-32 (reflected polynomial 0xEDB88320) computed bit by bit.
// Deliberately table-free so the exact algorithm, not a platform's library
// behavior, defines the retention format.
func checksum(data []byte) uint32 {
	crc := ^uint32(0)
	for _, b := range data {
		crc ^= uint32(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0xEDB88320
			} else {
				crc >>= 1
			}
		}
	}
	return ^crc
}
