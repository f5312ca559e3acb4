package lockmgr

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ValentinKolb/tfstated/lib/slot"
)

// failingSlot is an in-memory slot whose writes can be switched to fail,
// simulating a persistence outage
type failingSlot struct {
	data      []byte
	failSaves bool
}

var _ slot.ISlot = (*failingSlot)(nil)

func (s *failingSlot) Save(value []byte) error {
	if s.failSaves {
		return errors.New("disk full")
	}
	s.data = value
	return nil
}

func (s *failingSlot) Load() ([]byte, error) { return s.data, nil }
func (s *failingSlot) Name() string          { return "lock" }

func newTestManager(t *testing.T, dir string) ILockManager {
	t.Helper()

	s, err := slot.NewFileSlot(dir, "lock")
	if err != nil {
		t.Fatalf("Failed to create slot: %v", err)
	}
	lm, err := NewLockManager(s)
	if err != nil {
		t.Fatalf("Failed to create lock manager: %v", err)
	}
	return lm
}

func mustRecord(t *testing.T, data string) *LockRecord {
	t.Helper()

	record, err := ParseLockRecord([]byte(data))
	if err != nil {
		t.Fatalf("Failed to parse lock record %s: %v", data, err)
	}
	return record
}

func TestAcquireIdempotent(t *testing.T) {
	lm := newTestManager(t, t.TempDir())

	record := mustRecord(t, `{"ID":"x","Who":"alice"}`)

	for i := 0; i < 2; i++ {
		acquired, current, err := lm.TryAcquire(record)
		if err != nil {
			t.Fatalf("Acquire %d returned error: %v", i, err)
		}
		if !acquired {
			t.Errorf("Acquire %d expected to succeed, conflict with %v", i, current)
		}
	}
}

func TestAcquireRefreshesRecord(t *testing.T) {
	lm := newTestManager(t, t.TempDir())

	first := mustRecord(t, `{"ID":"x","Operation":"plan"}`)
	second := mustRecord(t, `{"ID":"x","Operation":"apply"}`)

	if acquired, _, err := lm.TryAcquire(first); err != nil || !acquired {
		t.Fatalf("First acquire failed: acquired=%v err=%v", acquired, err)
	}
	if acquired, _, err := lm.TryAcquire(second); err != nil || !acquired {
		t.Fatalf("Re-lock failed: acquired=%v err=%v", acquired, err)
	}

	// The stored record must be the refreshed one
	if !bytes.Equal(lm.Current().Raw, second.Raw) {
		t.Errorf("Expected refreshed record %s, got %s", second.Raw, lm.Current().Raw)
	}
}

func TestAcquireConflict(t *testing.T) {
	lm := newTestManager(t, t.TempDir())

	holder := mustRecord(t, `{"ID":"a","Who":"alice"}`)
	intruder := mustRecord(t, `{"ID":"b","Who":"bob"}`)

	if acquired, _, err := lm.TryAcquire(holder); err != nil || !acquired {
		t.Fatalf("First acquire failed: acquired=%v err=%v", acquired, err)
	}

	acquired, current, err := lm.TryAcquire(intruder)
	if err != nil {
		t.Fatalf("Conflicting acquire returned error: %v", err)
	}
	if acquired {
		t.Fatal("Expected conflicting acquire to be refused")
	}
	if current == nil || current.ID != "a" {
		t.Fatalf("Expected current record of holder a, got %+v", current)
	}
	// The disclosed record must be the holder's original bytes, verbatim
	if !bytes.Equal(current.Raw, holder.Raw) {
		t.Errorf("Disclosed record doesn't match holder:\nExpected: %s\nGot: %s", holder.Raw, current.Raw)
	}
}

func TestReleaseNoOpWhenUnlocked(t *testing.T) {
	lm := newTestManager(t, t.TempDir())

	released, err := lm.TryRelease(mustRecord(t, `{"ID":"x"}`))
	if err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	if !released {
		t.Error("Expected release of unheld lock to succeed as no-op")
	}
}

func TestReleaseMismatchKeepsLock(t *testing.T) {
	lm := newTestManager(t, t.TempDir())

	if acquired, _, err := lm.TryAcquire(mustRecord(t, `{"ID":"a"}`)); err != nil || !acquired {
		t.Fatalf("Acquire failed: acquired=%v err=%v", acquired, err)
	}

	released, err := lm.TryRelease(mustRecord(t, `{"ID":"b"}`))
	if err != nil {
		t.Fatalf("Mismatched release returned error: %v", err)
	}
	if released {
		t.Fatal("Expected mismatched release to be refused")
	}
	if lm.Current() == nil || lm.Current().ID != "a" {
		t.Errorf("Expected lock to stay held by a, got %+v", lm.Current())
	}

	// The correct ID must still release
	released, err = lm.TryRelease(mustRecord(t, `{"ID":"a"}`))
	if err != nil || !released {
		t.Errorf("Correct release after mismatch failed: released=%v err=%v", released, err)
	}
	if lm.Current() != nil {
		t.Errorf("Expected lock to be cleared, got %+v", lm.Current())
	}
}

func TestAuthorizeMutation(t *testing.T) {
	lm := newTestManager(t, t.TempDir())

	// Unlocked: anyone may mutate, with or without an ID
	if !lm.AuthorizeMutation("", false) {
		t.Error("Expected mutation without ID to be authorized while unlocked")
	}
	if !lm.AuthorizeMutation("whatever", true) {
		t.Error("Expected mutation with any ID to be authorized while unlocked")
	}

	if acquired, _, err := lm.TryAcquire(mustRecord(t, `{"ID":"a"}`)); err != nil || !acquired {
		t.Fatalf("Acquire failed: acquired=%v err=%v", acquired, err)
	}

	// Locked: only the holder's ID passes, a missing ID never does
	if lm.AuthorizeMutation("", false) {
		t.Error("Expected mutation without ID to be refused while locked")
	}
	if lm.AuthorizeMutation("b", true) {
		t.Error("Expected mutation with wrong ID to be refused")
	}
	if !lm.AuthorizeMutation("a", true) {
		t.Error("Expected mutation with holder ID to be authorized")
	}
}

func TestLockSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	lm := newTestManager(t, dir)
	record := mustRecord(t, `{"ID":"a","Who":"alice","Created":"2024-01-01T00:00:00Z"}`)
	if acquired, _, err := lm.TryAcquire(record); err != nil || !acquired {
		t.Fatalf("Acquire failed: acquired=%v err=%v", acquired, err)
	}

	// Simulate a restart by creating a fresh manager on the same slot
	reloaded := newTestManager(t, dir)
	current := reloaded.Current()
	if current == nil {
		t.Fatal("Expected lock to survive restart")
	}
	if current.ID != "a" {
		t.Errorf("Expected reloaded lock ID a, got %s", current.ID)
	}
	if !bytes.Equal(current.Raw, record.Raw) {
		t.Errorf("Reloaded record doesn't match:\nExpected: %s\nGot: %s", record.Raw, current.Raw)
	}

	// Release on the reloaded manager, then restart again: lock must be gone
	if released, err := reloaded.TryRelease(record); err != nil || !released {
		t.Fatalf("Release failed: released=%v err=%v", released, err)
	}
	if again := newTestManager(t, dir); again.Current() != nil {
		t.Errorf("Expected no lock after release and restart, got %+v", again.Current())
	}
}

func TestEmptyIDRecordStillLocks(t *testing.T) {
	lm := newTestManager(t, t.TempDir())

	// A record without an ID field is legal; its ID compares as ""
	record := mustRecord(t, `{"Who":"alice"}`)
	if acquired, _, err := lm.TryAcquire(record); err != nil || !acquired {
		t.Fatalf("Acquire without ID failed: acquired=%v err=%v", acquired, err)
	}

	// The lock is held: a mutation presenting no ID at all is still refused,
	// while presenting the (empty) holder ID passes
	if lm.AuthorizeMutation("", false) {
		t.Error("Expected mutation without ID to be refused while locked by empty-ID record")
	}
	if !lm.AuthorizeMutation("", true) {
		t.Error("Expected mutation presenting the empty holder ID to be authorized")
	}

	// Conflicting acquire discloses the empty-ID record verbatim
	acquired, current, err := lm.TryAcquire(mustRecord(t, `{"ID":"b"}`))
	if err != nil {
		t.Fatalf("Conflicting acquire returned error: %v", err)
	}
	if acquired {
		t.Fatal("Expected conflicting acquire to be refused")
	}
	if current == nil || !bytes.Equal(current.Raw, record.Raw) {
		t.Errorf("Expected empty-ID holder record verbatim, got %+v", current)
	}
}

func TestFailedPersistLeavesLockUnchanged(t *testing.T) {
	s := &failingSlot{}
	lm, err := NewLockManager(s)
	if err != nil {
		t.Fatalf("Failed to create lock manager: %v", err)
	}

	holder := mustRecord(t, `{"ID":"a","Operation":"plan"}`)
	if acquired, _, err := lm.TryAcquire(holder); err != nil || !acquired {
		t.Fatalf("Acquire failed: acquired=%v err=%v", acquired, err)
	}

	s.failSaves = true

	// A re-lock that cannot be persisted must not refresh the held record
	refreshed := mustRecord(t, `{"ID":"a","Operation":"apply"}`)
	if acquired, _, err := lm.TryAcquire(refreshed); err == nil {
		t.Error("Expected re-lock with failing persistence to return an error")
	} else if acquired {
		t.Error("Expected re-lock with failing persistence to be refused")
	}
	if current := lm.Current(); current == nil || !bytes.Equal(current.Raw, holder.Raw) {
		t.Errorf("Expected held record to stay %s, got %+v", holder.Raw, current)
	}

	// A release that cannot be persisted must leave the lock held
	if released, err := lm.TryRelease(holder); err == nil {
		t.Error("Expected release with failing persistence to return an error")
	} else if released {
		t.Error("Expected release with failing persistence to be refused")
	}
	if lm.Current() == nil {
		t.Fatal("Expected lock to stay held after failed release")
	}

	// Once persistence recovers, the same release succeeds
	s.failSaves = false
	if released, err := lm.TryRelease(holder); err != nil || !released {
		t.Fatalf("Release after recovery failed: released=%v err=%v", released, err)
	}

	// An acquire that cannot be persisted must leave the manager unlocked
	s.failSaves = true
	if acquired, _, err := lm.TryAcquire(holder); err == nil || acquired {
		t.Errorf("Expected acquire with failing persistence to fail: acquired=%v err=%v", acquired, err)
	}
	if lm.Current() != nil {
		t.Errorf("Expected manager to stay unlocked after failed acquire, got %+v", lm.Current())
	}
}

func TestParseLockRecord(t *testing.T) {
	record, err := ParseLockRecord([]byte(`{"ID":"x","Extra":42}`))
	if err != nil {
		t.Fatalf("Failed to parse record: %v", err)
	}
	if record.ID != "x" {
		t.Errorf("Expected ID x, got %s", record.ID)
	}

	// Missing ID compares as empty string, not as an error
	record, err = ParseLockRecord([]byte(`{"Who":"alice"}`))
	if err != nil {
		t.Fatalf("Failed to parse record without ID: %v", err)
	}
	if record.ID != "" {
		t.Errorf("Expected empty ID, got %s", record.ID)
	}

	// Non-object payloads are rejected
	if _, err := ParseLockRecord([]byte(`[1,2,3]`)); err == nil {
		t.Error("Expected error for non-object lock record")
	}
	if _, err := ParseLockRecord([]byte(`{"ID":`)); err == nil {
		t.Error("Expected error for truncated lock record")
	}
}
