package lockmgr

// ILockManager defines the interface for the advisory state lock.
type ILockManager interface {
	// TryAcquire attempts to store candidate as the current lock record.
	// Returns acquired=true if no lock was held or the candidate carries the
	// same ID as the current holder (idempotent re-lock, the stored record is
	// refreshed). Returns acquired=false and the current record if a
	// different holder owns the lock.
	TryAcquire(candidate *LockRecord) (acquired bool, current *LockRecord, err error)

	// TryRelease attempts to clear the current lock record.
	// Releasing when no lock is held is a no-op success. Returns
	// released=false if the candidate ID does not match the current holder;
	// the current record is not disclosed in that case.
	TryRelease(candidate *LockRecord) (released bool, err error)

	// Current returns the held lock record, or nil if unlocked.
	Current() *LockRecord

	// AuthorizeMutation reports whether a caller presenting the given lock ID
	// may mutate state: true iff no lock is held, or the presented ID equals
	// the holder's ID. A missing presented ID against a held lock is always
	// refused.
	AuthorizeMutation(presentedID string, presented bool) bool
}
