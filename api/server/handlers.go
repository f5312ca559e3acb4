package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/ValentinKolb/tfstated/api/common"
	"github.com/ValentinKolb/tfstated/lib/lockmgr"
)

// --------------------------------------------------------------------------
// State document handlers
// --------------------------------------------------------------------------

func (s *backendServer) handleGetState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc, found := s.store.Get()
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "state not found")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (s *backendServer) handlePutState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}

	// Malformed input is rejected before it reaches the store
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	lockID, presented := lockIDFromRequest(r)

	s.mu.Lock()
	ok, current, err := s.store.Put(body, lockID, presented)
	s.mu.Unlock()

	if err != nil {
		Logger.Error("failed to persist state", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist state: %v", err)
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "state is locked: %s", current.Raw)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *backendServer) handleDeleteState(w http.ResponseWriter, r *http.Request) {
	lockID, presented := lockIDFromRequest(r)

	s.mu.Lock()
	ok, current, err := s.store.Delete(lockID, presented)
	s.mu.Unlock()

	if err != nil {
		Logger.Error("failed to delete state", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete state: %v", err)
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "state is locked: %s", current.Raw)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// --------------------------------------------------------------------------
// Lock handlers
// --------------------------------------------------------------------------

func (s *backendServer) handleLock(w http.ResponseWriter, r *http.Request) {
	candidate, ok := readLockRecord(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	acquired, current, err := s.locks.TryAcquire(candidate)
	s.mu.Unlock()

	if err != nil {
		Logger.Error("failed to persist lock", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist lock: %v", err)
		return
	}
	if !acquired {
		// The holder's record is echoed verbatim so the caller can report
		// who owns the lock
		writeJSON(w, http.StatusLocked, current.Raw)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *backendServer) handleUnlock(w http.ResponseWriter, r *http.Request) {
	candidate, ok := readLockRecord(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	released, err := s.locks.TryRelease(candidate)
	s.mu.Unlock()

	if err != nil {
		Logger.Error("failed to release lock", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to release lock: %v", err)
		return
	}
	if !released {
		// Deliberately terse: the current record is not disclosed here
		writeError(w, http.StatusConflict, "lock ID mismatch")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// --------------------------------------------------------------------------
// Operational handlers
// --------------------------------------------------------------------------

func (s *backendServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	hasState := s.store.HasState()
	isLocked := s.locks.Current() != nil
	s.mu.Unlock()

	body, _ := json.Marshal(common.HealthStatus{
		Status:    "healthy",
		HasState:  hasState,
		IsLocked:  isLocked,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, body)
}

func (s *backendServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics.WritePrometheus(w, true)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// lockIDFromRequest extracts the lock ID a mutation request presents.
// Terraform sends the ID as a query parameter on POST; the Lock-ID header
// takes precedence when both are set.
func lockIDFromRequest(r *http.Request) (string, bool) {
	if id := r.Header.Get("Lock-ID"); id != "" {
		return id, true
	}
	if id := r.URL.Query().Get("ID"); id != "" {
		return id, true
	}
	return "", false
}

// readLockRecord reads and parses the lock record from the request body.
// On failure the 400 response has already been written and ok is false.
func readLockRecord(w http.ResponseWriter, r *http.Request) (*lockmgr.LockRecord, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read request body")
		return nil, false
	}

	record, err := lockmgr.ParseLockRecord(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}

	return record, true
}

// writeJSON writes a JSON response body with the given status code
func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		Logger.Error("failed to write response", "error", err)
	}
}

// writeError writes a JSON error body with the given status code
func writeError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	writeJSON(w, status, common.NewErrorBody(format, args...))
}
