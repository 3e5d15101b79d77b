package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != DefaultPITConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pit.yml")
	if err := os.WriteFile(path, []byte("irq: 2\niobase: 0x48\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IRQ != 2 {
		t.Fatalf("expected irq 2, got %d", cfg.IRQ)
	}
	if cfg.IOBase != 0x48 {
		t.Fatalf("expected iobase 0x48, got 0x%x", cfg.IOBase)
	}
}

func TestLoadRejectsZeroIOBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pit.yml")
	if err := os.WriteFile(path, []byte("irq: 0\niobase: 0\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IOBase != DefaultPITConfig().IOBase {
		t.Fatalf("expected fallback iobase, got 0x%x", cfg.IOBase)
	}
}
