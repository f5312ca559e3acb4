package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Wire payloads
// --------------------------------------------------------------------------

// HealthStatus is the response body of GET /health.
type HealthStatus struct {
	Status    string `json:"status"`
	HasState  bool   `json:"has_state"`
	IsLocked  bool   `json:"is_locked"`
	Timestamp string `json:"timestamp"`
}

// ErrorBody is the JSON body used for all error responses.
type ErrorBody struct {
	Error string `json:"error"`
}

// NewErrorBody serializes an error message into the wire format.
// Marshalling a flat struct with one string field cannot fail.
func NewErrorBody(format string, args ...interface{}) []byte {
	body, _ := json.Marshal(ErrorBody{Error: fmt.Sprintf(format, args...)})
	return body
}

// --------------------------------------------------------------------------
// Lock info (client side)
// --------------------------------------------------------------------------

// LockInfo is the lock record shape Terraform itself sends on LOCK requests.
// The server never depends on any field except ID; this struct exists so the
// CLI and the perf tool can generate well-formed records.
type LockInfo struct {
	ID        string `json:"ID"`
	Operation string `json:"Operation,omitempty"`
	Info      string `json:"Info,omitempty"`
	Who       string `json:"Who,omitempty"`
	Version   string `json:"Version,omitempty"`
	Created   string `json:"Created,omitempty"`
	Path      string `json:"Path,omitempty"`
}

// Marshal serializes the lock info for the wire.
func (l *LockInfo) Marshal() []byte {
	body, _ := json.Marshal(l)
	return body
}
