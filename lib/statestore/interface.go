package statestore

import "github.com/ValentinKolb/tfstated/lib/lockmgr"

// IStateStore is the interface for the single state document owned by the
// backend. Reads are always allowed; mutations are authorized against the
// lock manager.
type IStateStore interface {
	// Get returns the current state document, or found=false if none exists.
	// The returned slice is a copy and safe to retain.
	Get() (doc []byte, found bool)

	// Put replaces the state document unconditionally (full overwrite, no
	// merge, no version check). Returns ok=false and the current lock record
	// if the presented lock ID does not authorize the mutation. The document
	// must already be validated by the caller.
	Put(doc []byte, presentedID string, presented bool) (ok bool, current *lockmgr.LockRecord, err error)

	// Delete removes the state document and its durable record entirely.
	// Authorization follows the same path as Put. Deleting when no state
	// exists is a success.
	Delete(presentedID string, presented bool) (ok bool, current *lockmgr.LockRecord, err error)

	// HasState reports whether a state document currently exists.
	HasState() bool
}
