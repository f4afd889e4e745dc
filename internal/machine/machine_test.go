package machine

import (
	"path/filepath"
	"testing"

	"github.com/cjriches/simulatron/internal/bus"
	"github.com/cjriches/simulatron/internal/intc"
	"github.com/cjriches/simulatron/internal/opcode"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	diskA := t.TempDir()
	diskB := t.TempDir()
	rom := make([]byte, bus.ROMSize)

	m, err := New(Config{ROM: rom, DiskADir: diskA, DiskBDir: diskB})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Shutdown)
	return m
}

// TestBootMatchesROMFetchScenario reproduces §8's "ROM fetch" scenario: a
// PAUSE at the ROM entry point leaves the CPU paused until interrupt 0 is
// raised and unmasked.
func TestBootMatchesROMFetchScenario(t *testing.T) {
	diskA := t.TempDir()
	diskB := t.TempDir()
	rom := make([]byte, bus.ROMSize)
	rom[0] = opcode.PAUSE // ROM[0x40] == rom[0]

	m, err := New(Config{ROM: rom, DiskADir: diskA, DiskBDir: diskB})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Shutdown)

	if got := m.CPU().PC(); got != bus.ROMStart {
		t.Fatalf("PC = %#x after boot, want ROM entry point %#x", got, bus.ROMStart)
	}

	m.Step()
	if !m.CPU().Paused() {
		t.Fatal("expected CPU to pause on PAUSE with IMR=0")
	}

	m.Step()
	if !m.CPU().Paused() {
		t.Fatal("expected CPU to remain paused with nothing pending")
	}

	m.InterruptController().SetIMR(1 << intc.IllegalOp)
	m.InterruptController().Raise(intc.IllegalOp)
	m.Step()
	if m.CPU().Paused() {
		t.Fatal("expected CPU to wake once interrupt 0 is unmasked and pending")
	}
}

func TestResetReturnsToDeterministicBootConfiguration(t *testing.T) {
	m := newTestMachine(t)
	m.CPU().SetPC(0x1234)
	m.Reset()
	if got := m.CPU().PC(); got != bus.ROMStart {
		t.Fatalf("PC after Reset = %#x, want %#x", got, bus.ROMStart)
	}
	if m.CPU().Halted() || m.CPU().Paused() {
		t.Fatal("Reset must leave the CPU running, not halted/paused")
	}
	if m.InterruptController().IMR() != 0 {
		t.Fatal("Reset must clear IMR")
	}
}

func TestRunStopsAtHalt(t *testing.T) {
	diskA := t.TempDir()
	diskB := t.TempDir()
	rom := make([]byte, bus.ROMSize)
	rom[0] = opcode.HALT

	m, err := New(Config{ROM: rom, DiskADir: diskA, DiskBDir: diskB})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Shutdown)

	m.Run()
	if !m.CPU().Halted() {
		t.Fatal("expected Run to stop once the CPU halts")
	}
}

func TestNewRejectsWrongSizedROM(t *testing.T) {
	diskA := t.TempDir()
	diskB := t.TempDir()
	if _, err := New(Config{ROM: make([]byte, 10), DiskADir: diskA, DiskBDir: diskB}); err == nil {
		t.Fatal("expected error for undersized ROM image")
	}
}

func TestNewRejectsMissingDiskDirectory(t *testing.T) {
	rom := make([]byte, bus.ROMSize)
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	if _, err := New(Config{ROM: rom, DiskADir: missing, DiskBDir: t.TempDir()}); err == nil {
		t.Fatal("expected error for missing disk A directory")
	}
}

