package lockmgr

import (
	"github.com/ValentinKolb/tfstated/lib/slot"
	"github.com/hashicorp/go-hclog"
)

var Logger = hclog.Default().Named("lockmgr")

type lockMgrImpl struct {
	slot    slot.ISlot
	current *LockRecord
}

// NewLockManager creates a lock manager persisting to the given slot.
// Any lock record left behind by a previous process is reloaded so that a
// restart does not silently drop a held lock.
//
// Thread-safety: the lock manager performs no internal locking; callers must
// serialize access (see api/server, which guards all operations with a single
// mutex).
func NewLockManager(s slot.ISlot) (ILockManager, error) {
	lm := &lockMgrImpl{slot: s}

	data, err := s.Load()
	if err != nil {
		return nil, err
	}
	if data != nil {
		record, err := ParseLockRecord(data)
		if err != nil {
			// A damaged record must not prevent startup
			Logger.Warn("persisted lock record is not usable, starting unlocked", "error", err)
		} else {
			lm.current = record
			Logger.Info("reloaded persisted lock", "id", record.ID)
		}
	}

	return lm, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see lockmgr/interface.go)
// --------------------------------------------------------------------------

func (lm *lockMgrImpl) TryAcquire(candidate *LockRecord) (bool, *LockRecord, error) {
	// Case conflict: held by a different ID, disclose the current record
	if lm.current != nil && lm.current.ID != candidate.ID {
		return false, lm.current, nil
	}

	// Case acquire or idempotent re-lock: persist first, then update memory
	if err := lm.slot.Save(candidate.Raw); err != nil {
		return false, nil, err
	}
	lm.current = candidate

	return true, nil, nil
}

func (lm *lockMgrImpl) TryRelease(candidate *LockRecord) (bool, error) {
	// Case unlocked: releasing an unheld lock is a no-op success
	if lm.current == nil {
		return true, nil
	}

	// Case mismatch: the lock stays held, current record is not disclosed
	if lm.current.ID != candidate.ID {
		return false, nil
	}

	// Case release: persist the absence first, then update memory
	if err := lm.slot.Save(nil); err != nil {
		return false, err
	}
	lm.current = nil

	return true, nil
}

func (lm *lockMgrImpl) Current() *LockRecord {
	return lm.current
}

func (lm *lockMgrImpl) AuthorizeMutation(presentedID string, presented bool) bool {
	if lm.current == nil {
		return true
	}
	if !presented {
		return false
	}
	return presentedID == lm.current.ID
}
