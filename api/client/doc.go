// Package client implements the Go client of the state backend protocol.
//
// The client mirrors the server's HTTP surface one method per endpoint and
// keeps the state document and lock records as opaque byte slices, so what
// the server stores is exactly what the caller sent. Transport failures are
// retried with exponential backoff; HTTP status codes are protocol results
// and are returned to the caller unmodified.
package client
