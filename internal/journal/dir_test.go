package journal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirNameIsHiddenSibling(t *testing.T) {
	got := DirName("/var/data/accounts.db")
	want := "/var/data/.accounts.db.jio"
	if got != want {
		t.Errorf("DirName = %q, want %q", got, want)
	}
}

func TestOpenCreatesDirectoryMode0700(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, ".x.jio")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("dir mode = %o, want 0700", perm)
	}
}

func TestNextIDMonotonic(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), ".x.jio"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	var ids []uint64
	for i := 0; i < 5; i++ {
		id, err := d.NextID()
		if err != nil {
			t.Fatalf("NextID: %v", err)
		}
		ids = append(ids, id)
	}

	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not strictly increasing: %v", ids)
		}
	}
}

func TestRecordsEnumeratesOnlyTransactionFiles(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), ".x.jio"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	for _, id := range []uint64{3, 1, 2} {
		f, err := d.CreateRecord(id)
		if err != nil {
			t.Fatalf("CreateRecord: %v", err)
		}
		f.Close()
	}

	ids, err := d.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	want := []uint64{1, 2, 3}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestRemoveRecordIgnoresMissing(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), ".x.jio"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if err := d.RemoveRecord(999); err != nil {
		t.Fatalf("RemoveRecord on missing file: %v", err)
	}
}

func TestMoveRelocatesEntries(t *testing.T) {
	base := t.TempDir()
	oldPath := filepath.Join(base, "old.jio")
	newPath := filepath.Join(base, "new.jio")

	d, err := Open(oldPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	f, err := d.CreateRecord(1)
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if _, err := f.WriteString("payload"); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()

	if err := d.Move(newPath); err != nil {
		t.Fatalf("Move: %v", err)
	}
	defer d.Close()

	if d.Path() != newPath {
		t.Errorf("Path() = %q, want %q", d.Path(), newPath)
	}

	data, err := os.ReadFile(filepath.Join(newPath, RecordName(1)))
	if err != nil {
		t.Fatalf("read moved record: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("moved record content = %q, want %q", data, "payload")
	}

	if _, err := os.Stat(filepath.Join(oldPath, RecordName(1))); !os.IsNotExist(err) {
		t.Errorf("expected source record to be removed, stat err = %v", err)
	}
}
