package lockmgr

import (
	"encoding/json"
	"fmt"
)

// LockRecord is the metadata identifying the current exclusive holder of
// write access. Only the ID field is interpreted; all other fields (operation
// type, holder identity, timestamps, ...) are opaque pass-through data and are
// echoed back to callers byte-for-byte on conflict.
type LockRecord struct {
	// ID is the identifier used for ownership comparisons.
	ID string

	// Raw is the original serialized record as received from the caller.
	Raw []byte
}

// ParseLockRecord extracts the ID from a serialized lock record while keeping
// the original bytes for verbatim echo. The record must be a JSON object; the
// ID field may be absent (it then compares as the empty string).
func ParseLockRecord(data []byte) (*LockRecord, error) {
	var probe struct {
		ID string `json:"ID"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("invalid lock record: %w", err)
	}

	raw := make([]byte, len(data))
	copy(raw, data)

	return &LockRecord{ID: probe.ID, Raw: raw}, nil
}
