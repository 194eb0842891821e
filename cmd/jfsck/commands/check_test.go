package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aasselin/libjio/internal/journal"
)

func TestCheckCommandCleanDataFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")
	if err := os.WriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Open and close a journal directory so check finds one, even though
	// it has no records to reconcile.
	jd, err := journal.Open(journal.DirName(path))
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	jd.Close()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"check", path})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("jfsck check: %v", err)
	}
	if out.Len() == 0 {
		t.Error("expected check command to print a result table")
	}
}

func TestCheckCommandMissingDataFile(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"check", filepath.Join(t.TempDir(), "nope")})

	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error for missing data file")
	}
}
