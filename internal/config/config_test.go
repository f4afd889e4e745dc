package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simulatron.cfg")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadParsesRecognizedKeys(t *testing.T) {
	path := writeConfig(t, `
# A comment line.
ROM boot.rom
DISKA ./DiskA
DISKB ./DiskB
LOGFILE sim.log
RAMSIZE 0x1000000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ROMPath != "boot.rom" {
		t.Errorf("ROMPath = %q, want boot.rom", cfg.ROMPath)
	}
	if cfg.DiskADir != "./DiskA" || cfg.DiskBDir != "./DiskB" {
		t.Errorf("disk dirs = %q, %q", cfg.DiskADir, cfg.DiskBDir)
	}
	if cfg.LogFile != "sim.log" {
		t.Errorf("LogFile = %q, want sim.log", cfg.LogFile)
	}
	if cfg.RAMSize != 0x1000000 {
		t.Errorf("RAMSize = %#x, want 0x1000000", cfg.RAMSize)
	}
}

func TestLoadIgnoresBlankLinesAndFullLineComments(t *testing.T) {
	path := writeConfig(t, "\n# nothing here\n\nROM boot.rom\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ROMPath != "boot.rom" {
		t.Errorf("ROMPath = %q, want boot.rom", cfg.ROMPath)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "BOGUS value\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.cfg")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestCheckDiskDirsRejectsMissingDirectory(t *testing.T) {
	cfg := Config{DiskADir: t.TempDir(), DiskBDir: filepath.Join(t.TempDir(), "nope")}
	if err := CheckDiskDirs(cfg); err == nil {
		t.Fatal("expected error for missing disk B directory")
	}
}

func TestCheckDiskDirsAcceptsExistingDirectories(t *testing.T) {
	cfg := Config{DiskADir: t.TempDir(), DiskBDir: t.TempDir()}
	if err := CheckDiskDirs(cfg); err != nil {
		t.Fatal(err)
	}
}
