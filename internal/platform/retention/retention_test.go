package retention

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestReadBlockMissingFile(t *testing.T) {
	m := NewFileMemory(filepath.Join(t.TempDir(), "missing.bin"))

	if _, err := m.ReadBlock(0, 16); err == nil {
		t.Error("ReadBlock on a missing file returned no error")
	}
}

func TestWriteThenRead(t *testing.T) {
	m := NewFileMemory(filepath.Join(t.TempDir(), "retention.bin"))
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	if err := m.WriteBlock(0, want); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	got, err := m.ReadBlock(0, len(want))
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadBlock = %x, want %x", got, want)
	}
}

func TestWriteAtOffset(t *testing.T) {
	m := NewFileMemory(filepath.Join(t.TempDir(), "retention.bin"))

	if err := m.WriteBlock(8, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	got, err := m.ReadBlock(8, 4)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("ReadBlock = %x, want 01020304", got)
	}

	// The gap before the offset is zero-filled, not garbage.
	head, err := m.ReadBlock(0, 8)
	if err != nil {
		t.Fatalf("ReadBlock head: %v", err)
	}
	if !bytes.Equal(head, make([]byte, 8)) {
		t.Errorf("gap bytes = %x, want zeros", head)
	}
}

func TestReadBlockTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retention.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o600); err != nil {
		t.Fatal(err)
	}

	m := NewFileMemory(path)
	if _, err := m.ReadBlock(0, 16); err == nil {
		t.Error("ReadBlock past the file end returned no error")
	}
}

func TestOverwriteInPlace(t *testing.T) {
	m := NewFileMemory(filepath.Join(t.TempDir(), "retention.bin"))

	if err := m.WriteBlock(0, []byte{1, 1, 1, 1}); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteBlock(0, []byte{2, 2}); err != nil {
		t.Fatal(err)
	}

	got, err := m.ReadBlock(0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{2, 2, 1, 1}) {
		t.Errorf("ReadBlock = %x, want 02020101 (partial overwrite)", got)
	}
}
