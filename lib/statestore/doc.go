// Package statestore owns the single state document stored by the backend.
//
// The document is opaque: the store never interprets its fields and returns
// it byte-for-byte on read. Exactly one document exists at a time, or none.
// Reads carry no authorization; writes and deletes consult the lock manager
// and are refused with the current lock record when the presented lock ID
// does not match the holder.
//
// Every mutation persists to the backing slot before the in-memory document
// changes, so a failed durable write surfaces as an error without leaving
// memory and disk inconsistent.
package statestore
