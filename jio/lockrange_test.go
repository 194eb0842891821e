package jio

import (
	"os"
	"testing"
)

// TestScenarioSingleWrite is concrete scenario 1: a single five-byte
// operation into a ten-byte zeroed file.
func TestScenarioSingleWrite(t *testing.T) {
	h, path := openTestHandle(t, 0)
	if err := os.WriteFile(path, make([]byte, 10), 0600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tr := h.NewTransaction(0)
	if err := tr.Add([]byte("HELLO"), 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	n, err := tr.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if n != 5 {
		t.Errorf("Commit returned %d, want 5", n)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []byte{0, 0, 'H', 'E', 'L', 'L', 'O', 0, 0, 0}
	if string(got) != string(want) {
		t.Errorf("data = %q, want %q", got, want)
	}
}

// TestScenarioOverlapWithinTransaction is concrete scenario 2: two
// operations within one transaction overlap; the later Add wins on the
// overlap.
func TestScenarioOverlapWithinTransaction(t *testing.T) {
	h, path := openTestHandle(t, 0)
	if err := os.WriteFile(path, []byte("ABCDEFGH"), 0600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tr := h.NewTransaction(0)
	tr.Add([]byte("xx"), 2)
	tr.Add([]byte("Y"), 3)
	if _, err := tr.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "ABxYEFGH" {
		t.Errorf("data = %q, want %q", got, "ABxYEFGH")
	}
}

// TestAtomicFailureLeavesFileUnchanged is invariant 2: a validation
// failure caught before commit touches any disk state must leave every
// byte exactly as it was before the commit began.
func TestAtomicFailureLeavesFileUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/data"
	seed := []byte("untouched content here")
	if err := os.WriteFile(path, seed, 0600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	h, err := Open(path, os.O_RDONLY, 0600, RDONLY)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	tr := h.NewTransaction(0)
	tr.Add([]byte("clobber"), 0)
	_, commitErr := tr.Commit()
	if commitErr != ErrReadOnly {
		t.Fatalf("Commit on read-only handle = %v, want ErrReadOnly", commitErr)
	}
	if IsSevere(commitErr) {
		t.Errorf("failure before commit mark must not be severe, got %v", commitErr)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(seed) {
		t.Errorf("data file changed after atomic failure: got %q, want %q", got, seed)
	}
}
