// Package retention backs the restart-record store with a file on tmpfs. A
// tmpfs file has exactly the semantics retention memory needs: it survives a
// process restart and a soft reboot path that re-execs the firmware, and it
// is gone after a power loss.
package retention

import (
	"fmt"
	"os"
)

// FileMemory is a file-backed retention block.
type FileMemory struct {
	path string
}

// NewFileMemory returns a block backed by the given path, typically under
// /dev/shm.
func NewFileMemory(path string) *FileMemory {
	return &FileMemory{path: path}
}

// ReadBlock reads size bytes at offset. A missing or short file is an error;
// the store treats any read error as a cold boot.
func (m *FileMemory) ReadBlock(offset, size int) ([]byte, error) {
	buf, err := os.ReadFile(m.path)
	if err != nil {
		return nil, err
	}
	if len(buf) < offset+size {
		return nil, fmt.Errorf("retention block truncated: have %d bytes, need %d", len(buf), offset+size)
	}
	return buf[offset : offset+size], nil
}

// WriteBlock writes data at offset and syncs. The block is small and written
// rarely, so the sync cost is irrelevant next to losing the record.
func (m *FileMemory) WriteBlock(offset int, data []byte) error {
	f, err := os.OpenFile(m.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteAt(data, int64(offset)); err != nil {
		return err
	}
	return f.Sync()
}
