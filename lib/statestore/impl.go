package statestore

import (
	"github.com/ValentinKolb/tfstated/lib/lockmgr"
	"github.com/ValentinKolb/tfstated/lib/slot"
)

type stateStoreImpl struct {
	slot  slot.ISlot
	locks lockmgr.ILockManager
	doc   []byte // nil means no state exists
}

// NewStateStore creates a state store persisting to the given slot and
// consulting the given lock manager for mutation authorization. A state
// document persisted by a previous process is reloaded.
//
// Thread-safety: the store performs no internal locking; callers must
// serialize access together with the lock manager (see api/server).
func NewStateStore(s slot.ISlot, locks lockmgr.ILockManager) (IStateStore, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	return &stateStoreImpl{
		slot:  s,
		locks: locks,
		doc:   doc,
	}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see statestore/interface.go)
// --------------------------------------------------------------------------

func (ss *stateStoreImpl) Get() ([]byte, bool) {
	if ss.doc == nil {
		return nil, false
	}

	doc := make([]byte, len(ss.doc))
	copy(doc, ss.doc)
	return doc, true
}

func (ss *stateStoreImpl) Put(doc []byte, presentedID string, presented bool) (bool, *lockmgr.LockRecord, error) {
	if !ss.locks.AuthorizeMutation(presentedID, presented) {
		return false, ss.locks.Current(), nil
	}

	// Copy before persisting so the caller can't mutate our view afterwards
	docCopy := make([]byte, len(doc))
	copy(docCopy, doc)

	// Persist first, then update memory
	if err := ss.slot.Save(docCopy); err != nil {
		return false, nil, err
	}
	ss.doc = docCopy

	return true, nil, nil
}

func (ss *stateStoreImpl) Delete(presentedID string, presented bool) (bool, *lockmgr.LockRecord, error) {
	if !ss.locks.AuthorizeMutation(presentedID, presented) {
		return false, ss.locks.Current(), nil
	}

	if err := ss.slot.Save(nil); err != nil {
		return false, nil, err
	}
	ss.doc = nil

	return true, nil, nil
}

func (ss *stateStoreImpl) HasState() bool {
	return ss.doc != nil
}
