package slot

// ISlot is the interface for a single durable record slot. A slot holds at
// most one serialized value; absence of the durable record means absence of
// the value.
type ISlot interface {
	// Save persists the given value, overwriting any previous record.
	// Passing nil removes the durable record entirely.
	Save(value []byte) error

	// Load reads the current durable record. A nil return value (with nil
	// error) means no record exists. Corrupt or unreadable records are
	// reported as absent, not as errors.
	Load() ([]byte, error)

	// Name returns the slot name (used for logging and file naming).
	Name() string
}
