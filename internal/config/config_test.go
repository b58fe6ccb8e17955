package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Sweep.Device != nil || cfg.Output.PlotHeight != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[sweep]
device = "BC107"
vce = 2.5
ib = 20.0
vce-transfer = 10.0

[output]
plot-height = 14
history = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Sweep.Device == nil || *cfg.Sweep.Device != "BC107" {
		t.Fatalf("unexpected device: %v", cfg.Sweep.Device)
	}
	if *cfg.Sweep.VCE != 2.5 || *cfg.Sweep.IB != 20 || *cfg.Sweep.VCETransfer != 10 {
		t.Fatalf("unexpected sweep values: %+v", cfg.Sweep)
	}
	if *cfg.Output.PlotHeight != 14 || !*cfg.Output.History {
		t.Fatalf("unexpected output values: %+v", cfg.Output)
	}
	if cfg.Output.ExportDir != nil {
		t.Fatalf("expected unset export dir")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[sweep]\nvbe = 1.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "bjtsim", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/tmp/data", "bjtsim", "bjtsim.db") {
		t.Fatalf("unexpected db path %s", got)
	}
	if got := DefaultExportDir(); got != filepath.Join("/tmp/data", "bjtsim", "exports") {
		t.Fatalf("unexpected export dir %s", got)
	}
}
