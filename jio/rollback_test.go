package jio

import (
	"bytes"
	"os"
	"testing"
)

func TestRollbackRestoresOriginalBytes(t *testing.T) {
	h, path := openTestHandle(t, 0)

	seed := []byte("0123456789")
	if _, err := h.file.WriteAt(seed, 0); err != nil {
		t.Fatalf("seed write: %v", err)
	}
	h.file.Sync()

	tr := h.NewTransaction(0)
	tr.Add([]byte("XXXXX"), 2)
	if _, err := tr.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	mid, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(mid) != "01XXXXX789" {
		t.Fatalf("after commit, data = %q, want %q", mid, "01XXXXX789")
	}

	if _, err := tr.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if tr.State() != StateRolledBack {
		t.Errorf("state = %s, want rolled-back", tr.State())
	}

	restored, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read after rollback: %v", err)
	}
	if !bytes.Equal(restored, seed) {
		t.Errorf("after rollback, data = %q, want %q", restored, seed)
	}
}

func TestRollbackWithoutUndoInfoFails(t *testing.T) {
	h, _ := openTestHandle(t, 0)

	tr := h.NewTransaction(NOROLLBACK)
	tr.Add([]byte("abc"), 0)
	if _, err := tr.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := tr.Rollback(); err != ErrNoRollbackInfo {
		t.Errorf("Rollback with NOROLLBACK = %v, want ErrNoRollbackInfo", err)
	}
}

func TestRollbackBeforeCommitFails(t *testing.T) {
	h, _ := openTestHandle(t, 0)
	tr := h.NewTransaction(0)
	tr.Add([]byte("abc"), 0)

	if _, err := tr.Rollback(); err == nil {
		t.Error("Rollback before Commit should fail")
	}
}

func TestRollbackMultiOperationReversesInOrder(t *testing.T) {
	h, path := openTestHandle(t, 0)

	seed := make([]byte, 20)
	for i := range seed {
		seed[i] = byte('a' + i%26)
	}
	h.file.WriteAt(seed, 0)
	h.file.Sync()

	tr := h.NewTransaction(0)
	tr.Add([]byte("111"), 0)
	tr.Add([]byte("222"), 5)
	tr.Add([]byte("333"), 10)
	if _, err := tr.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := tr.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	restored, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(restored, seed) {
		t.Errorf("after rollback, data = %q, want %q", restored, seed)
	}
}
