package checker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aasselin/libjio/internal/journal"
)

func writeCommittedRecord(t *testing.T, dir *journal.Directory, id uint64, descs []journal.Descriptor, payloads [][]byte) {
	t.Helper()

	rec := &journal.Record{
		Version:  journal.CurrentVersion,
		TransID:  id,
		Descs:    descs,
		Payloads: payloads,
	}

	f, err := dir.CreateRecord(id)
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	defer f.Close()

	if err := journal.EncodeBody(f, rec); err != nil {
		t.Fatalf("EncodeBody: %v", err)
	}
	if err := journal.MarkCommitted(f); err != nil {
		t.Fatalf("MarkCommitted: %v", err)
	}
}

func TestRunReappliesCommittedRecord(t *testing.T) {
	base := t.TempDir()
	dataPath := filepath.Join(base, "data")
	if err := os.WriteFile(dataPath, make([]byte, 10), 0600); err != nil {
		t.Fatalf("write data file: %v", err)
	}

	journalPath := journal.DirName(dataPath)
	dir, err := journal.Open(journalPath)
	if err != nil {
		t.Fatalf("Open journal: %v", err)
	}

	writeCommittedRecord(t, dir, 1,
		[]journal.Descriptor{{Off: 2, Len: 5}},
		[][]byte{[]byte("HELLO")})
	dir.Close()

	result, status, err := Run(context.Background(), dataPath, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != StatusSuccess {
		t.Fatalf("status = %d, want StatusSuccess", status)
	}
	if result.Reapplied != 1 {
		t.Errorf("Reapplied = %d, want 1", result.Reapplied)
	}
	if result.Total != 1 {
		t.Errorf("Total = %d, want 1", result.Total)
	}

	got, err := os.ReadFile(dataPath)
	if err != nil {
		t.Fatalf("read data file: %v", err)
	}
	want := "\x00\x00HELLO\x00\x00\x00"
	if string(got) != want {
		t.Errorf("data file = %q, want %q", got, want)
	}

	if _, err := os.Stat(dir.RecordPath(1)); !os.IsNotExist(err) {
		t.Errorf("expected reapplied record to be removed, err = %v", err)
	}
}

func TestRunRemovesUncommittedRecord(t *testing.T) {
	base := t.TempDir()
	dataPath := filepath.Join(base, "data")
	if err := os.WriteFile(dataPath, make([]byte, 10), 0600); err != nil {
		t.Fatalf("write data file: %v", err)
	}

	journalPath := journal.DirName(dataPath)
	dir, err := journal.Open(journalPath)
	if err != nil {
		t.Fatalf("Open journal: %v", err)
	}

	rec := &journal.Record{
		Version:  journal.CurrentVersion,
		TransID:  2,
		Descs:    []journal.Descriptor{{Off: 0, Len: 3}},
		Payloads: [][]byte{[]byte("abc")},
	}
	f, err := dir.CreateRecord(2)
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if err := journal.EncodeBody(f, rec); err != nil {
		t.Fatalf("EncodeBody: %v", err)
	}
	f.Close() // never marked committed
	dir.Close()

	result, status, err := Run(context.Background(), dataPath, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != StatusSuccess {
		t.Fatalf("status = %d, want StatusSuccess", status)
	}
	if result.Broken+result.InProgress != 1 {
		t.Errorf("expected uncommitted record counted as broken/in_progress, got %+v", result)
	}

	unchanged, err := os.ReadFile(dataPath)
	if err != nil {
		t.Fatalf("read data file: %v", err)
	}
	for _, b := range unchanged {
		if b != 0 {
			t.Fatalf("expected data file untouched, got %v", unchanged)
		}
	}
}

func TestRunNoDataFile(t *testing.T) {
	_, status, err := Run(context.Background(), filepath.Join(t.TempDir(), "missing"), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != StatusNoDataFile {
		t.Errorf("status = %d, want StatusNoDataFile", status)
	}
}

func TestRunNoJournal(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(dataPath, []byte("x"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, status, err := Run(context.Background(), dataPath, filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != StatusNoJournal {
		t.Errorf("status = %d, want StatusNoJournal", status)
	}
}

func TestCleanupRemovesDirectory(t *testing.T) {
	base := t.TempDir()
	journalPath := filepath.Join(base, ".data.jio")
	dir, err := journal.Open(journalPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	dir.Close()

	if err := Cleanup(context.Background(), journalPath); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(journalPath); !os.IsNotExist(err) {
		t.Errorf("expected journal directory removed, err = %v", err)
	}
}
