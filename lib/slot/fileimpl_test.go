package slot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileSlot(dir, "state")
	if err != nil {
		t.Fatalf("Failed to create slot: %v", err)
	}

	doc := []byte(`{"version":4,"resources":[]}`)
	if err := s.Save(doc); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Failed to load record: %v", err)
	}
	if !bytes.Equal(doc, loaded) {
		t.Errorf("Record doesn't match after round trip:\nOriginal: %s\nResult: %s", doc, loaded)
	}
}

func TestLoadAbsent(t *testing.T) {
	s, err := NewFileSlot(t.TempDir(), "state")
	if err != nil {
		t.Fatalf("Failed to create slot: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load of absent record returned error: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil for absent record, got %s", loaded)
	}
}

func TestSaveNilRemovesRecord(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileSlot(dir, "lock")
	if err != nil {
		t.Fatalf("Failed to create slot: %v", err)
	}

	if err := s.Save([]byte(`{"ID":"x"}`)); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}
	if err := s.Save(nil); err != nil {
		t.Fatalf("Failed to remove record: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "lock.json")); !os.IsNotExist(err) {
		t.Errorf("Expected record file to be removed, stat returned: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load after remove returned error: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil after remove, got %s", loaded)
	}

	// Removing an already absent record is a no-op
	if err := s.Save(nil); err != nil {
		t.Errorf("Removing absent record returned error: %v", err)
	}
}

func TestLoadCorruptRecord(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileSlot(dir, "state")
	if err != nil {
		t.Fatalf("Failed to create slot: %v", err)
	}

	// Simulate a damaged file written by an older version or a crashed writer
	if err := os.WriteFile(filepath.Join(dir, "state.json"), []byte(`{"version":4,"resourc`), 0o644); err != nil {
		t.Fatalf("Failed to write corrupt record: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load of corrupt record returned error: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected corrupt record to be treated as absent, got %s", loaded)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileSlot(dir, "state")
	if err != nil {
		t.Fatalf("Failed to create slot: %v", err)
	}

	for i := 0; i < 10; i++ {
		if err := s.Save([]byte(`{"n":1}`)); err != nil {
			t.Fatalf("Failed to save record: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read slot directory: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("Found leftover temp file: %s", e.Name())
		}
	}
}

func TestOverwrite(t *testing.T) {
	s, err := NewFileSlot(t.TempDir(), "state")
	if err != nil {
		t.Fatalf("Failed to create slot: %v", err)
	}

	if err := s.Save([]byte(`{"version":1}`)); err != nil {
		t.Fatalf("Failed to save first record: %v", err)
	}
	if err := s.Save([]byte(`{"version":2}`)); err != nil {
		t.Fatalf("Failed to overwrite record: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Failed to load record: %v", err)
	}
	if string(loaded) != `{"version":2}` {
		t.Errorf("Expected overwritten record, got %s", loaded)
	}
}
