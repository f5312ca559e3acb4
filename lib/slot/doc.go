// Package slot implements the durable record slots used to persist the state
// document and the lock record across process restarts.
//
// A slot is a named single-value container backed by one file on disk. The
// contract is deliberately small:
//
//   - Save(value): serialize and overwrite the record. Writes go to a
//     temporary file first and are committed with an atomic rename, so a
//     reader never observes a half-written record. Save(nil) deletes the
//     record, which is how "no value" is represented on disk.
//
//   - Load(): return the current record, or nil if none exists. A corrupt
//     record (e.g. truncated by a crash before the rename upgrade existed, or
//     damaged externally) is logged as a warning and reported as absent so
//     that a damaged file never prevents the service from starting.
//
// Slots store JSON payloads; Load validates the payload and treats invalid
// JSON as corruption.
package slot
