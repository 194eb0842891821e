package jioconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("Default() failed validation: %v", err)
	}
}

func TestLoadMissingConfigFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Logging.Level = %q, want INFO", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
logging:
  level: DEBUG
  format: json
metrics:
  enabled: true
  addr: ":9999"
autosync:
  max_interval: 10s
  max_bytes: 2048
`
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Logging.Level = %q, want DEBUG", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9999" {
		t.Errorf("Metrics = %+v, want enabled on :9999", cfg.Metrics)
	}
	if cfg.Autosync.MaxBytes != 2048 {
		t.Errorf("Autosync.MaxBytes = %d, want 2048", cfg.Autosync.MaxBytes)
	}
}

func TestLoadAcceptsHumanReadableMaxBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
autosync:
  max_interval: 1s
  max_bytes: "2Mi"
`
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Autosync.MaxBytes.Uint64() != 2<<20 {
		t.Errorf("Autosync.MaxBytes = %d, want %d", cfg.Autosync.MaxBytes.Uint64(), 2<<20)
	}
}

func TestValidateRejectsMaxBytesBelowOneRecord(t *testing.T) {
	cfg := Default()
	cfg.Autosync.MaxBytes = 4
	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for max_bytes too small to hold a record")
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "VERBOSE"
	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for bad log level")
	}
}

func TestValidateRequiresEndpointWhenTelemetryEnabled(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = ""
	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for missing telemetry endpoint")
	}
}

func TestValidateRequiresAddrWhenMetricsEnabled(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = ""
	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for missing metrics addr")
	}
}

func TestToLoggerToTelemetryToAutosync(t *testing.T) {
	cfg := Default()
	lc := cfg.Logging.ToLogger()
	if lc.Level != cfg.Logging.Level || lc.Format != cfg.Logging.Format {
		t.Errorf("ToLogger mismatched: %+v", lc)
	}
	tc := cfg.Telemetry.ToTelemetry()
	if tc.ServiceName != cfg.Telemetry.ServiceName {
		t.Errorf("ToTelemetry mismatched: %+v", tc)
	}
	ac := cfg.Autosync.ToAutosync()
	if ac.MaxBytes != cfg.Autosync.MaxBytes.Uint64() {
		t.Errorf("ToAutosync mismatched: %+v", ac)
	}
}
