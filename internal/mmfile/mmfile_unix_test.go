//go:build unix

package mmfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAnonIsZeroedAndWritable(t *testing.T) {
	data, cleanup, err := Anon(8192)
	if err != nil {
		t.Fatalf("Anon: %v", err)
	}
	defer func() {
		if cleanupErr := cleanup(); cleanupErr != nil {
			t.Fatalf("cleanup: %v", cleanupErr)
		}
	}()
	if len(data) != 8192 {
		t.Fatalf("len mismatch: got %d want 8192", len(data))
	}
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not zero: 0x%x", i, b)
		}
	}
	data[4095] = 0x5a
	if data[4095] != 0x5a {
		t.Fatalf("write did not stick")
	}
}

func TestAnonZeroLength(t *testing.T) {
	data, cleanup, err := Anon(0)
	if err != nil {
		t.Fatalf("Anon: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected zero-length mapping, got %d", len(data))
	}
	if cleanupErr := cleanup(); cleanupErr != nil {
		t.Fatalf("cleanup: %v", cleanupErr)
	}
}

func TestMapFileExtendsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phys.img")
	data, f, cleanup, err := MapFile(path, 4096)
	if err != nil {
		t.Fatalf("MapFile: %v", err)
	}
	if f == nil {
		t.Fatalf("expected open file")
	}
	data[0] = 0xde
	data[4095] = 0xad
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	// Second cleanup is a no-op.
	if err := cleanup(); err != nil {
		t.Fatalf("second cleanup: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 4096 {
		t.Fatalf("file size: got %d want 4096", len(got))
	}
	if got[0] != 0xde || got[4095] != 0xad {
		t.Fatalf("contents not persisted: 0x%x 0x%x", got[0], got[4095])
	}
}

func TestMapFileRejectsEmpty(t *testing.T) {
	if _, _, _, err := MapFile(filepath.Join(t.TempDir(), "x"), 0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}
