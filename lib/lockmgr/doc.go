// Package lockmgr implements the advisory distributed lock guarding the state
// document. It decides whether a caller may acquire the lock, must be refused,
// or may release it, and persists every decision to a durable slot before the
// in-memory record changes.
//
// Core Functionality:
//   - Lock acquisition with ownership verification by lock record ID
//   - Idempotent re-lock: a second acquire with the same ID succeeds and
//     re-stores the record, allowing metadata updates under an unchanged
//     identity
//   - Safe release operations that verify ownership before clearing the lock
//   - Mutation authorization for the state store (AuthorizeMutation)
//
// Disclosure Rules:
//
//	On an acquire conflict the current lock record is returned so the caller
//	can be told who holds the lock (the wire protocol echoes it verbatim in
//	the 423 response). On a release mismatch the current record is NOT
//	disclosed; the caller only learns that the IDs differ. This asymmetry is
//	intentional and must not be unified.
//
// Persistence:
//
//	Every state-changing call persists the record (or its absence) to the
//	backing slot before updating memory. A failed durable write therefore
//	leaves the in-memory lock unchanged and propagates as an error, keeping
//	memory and disk consistent across restarts.
//
// No Expiry:
//
//	Locks never expire on their own. A stuck lock from a crashed holder must
//	be cleared out-of-band by issuing a release with the known ID.
package lockmgr
