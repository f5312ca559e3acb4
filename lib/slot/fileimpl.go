package slot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
)

var Logger = hclog.Default().Named("slot")

// fileSlotImpl persists a single record as one JSON file on disk.
type fileSlotImpl struct {
	name string
	path string
}

// NewFileSlot creates a slot backed by the file <dir>/<name>.json. The
// directory is created if it does not exist.
func NewFileSlot(dir, name string) (ISlot, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create slot directory %s: %w", dir, err)
	}
	return &fileSlotImpl{
		name: name,
		path: filepath.Join(dir, name+".json"),
	}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see slot/interface.go)
// --------------------------------------------------------------------------

func (s *fileSlotImpl) Save(value []byte) error {
	// Case delete: no record means "no value"
	if value == nil {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove record %s: %w", s.path, err)
		}
		return nil
	}

	// Write to a temporary file first, then commit with an atomic rename so
	// readers never observe a half-written record
	tmp := s.path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp record %s: %w", tmp, err)
	}

	if _, err := f.Write(value); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write record %s: %w", tmp, err)
	}

	// Flush to stable storage before the rename makes the record visible
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync record %s: %w", tmp, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close record %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit record %s: %w", s.path, err)
	}

	return nil
}

func (s *fileSlotImpl) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		// Unreadable records must not prevent startup
		Logger.Warn("record is unreadable, treating as absent", "slot", s.name, "path", s.path, "error", err)
		return nil, nil
	}

	// Slots hold JSON payloads; anything else is corruption
	if !json.Valid(data) {
		Logger.Warn("record is corrupt, treating as absent", "slot", s.name, "path", s.path)
		return nil, nil
	}

	return data, nil
}

func (s *fileSlotImpl) Name() string {
	return s.name
}
