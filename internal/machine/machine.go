// Package machine wires together the memory provider, bus, MMU, interrupt
// controller, CPU, and device set into a runnable Simulatron instance, and
// owns the boot/reset/run/step lifecycle (§3 "Lifecycle"). It is the
// package `internal/cpu`'s own doc comment points to as "the caller
// responsible for pointing PC at the boot ROM entry point."
package machine

import (
	"fmt"
	"log/slog"

	"github.com/cjriches/simulatron/internal/bus"
	"github.com/cjriches/simulatron/internal/cpu"
	"github.com/cjriches/simulatron/internal/device/disk"
	"github.com/cjriches/simulatron/internal/device/display"
	"github.com/cjriches/simulatron/internal/device/keyboard"
	"github.com/cjriches/simulatron/internal/device/timer"
	"github.com/cjriches/simulatron/internal/intc"
	"github.com/cjriches/simulatron/internal/memory"
	"github.com/cjriches/simulatron/internal/mmu"
	"github.com/cjriches/simulatron/internal/sched"
)

// Version names the instruction-set/interrupt-numbering revision this
// repository implements (§9 Open Questions: "implement ascending as the
// canonical rule").
const Version = "2.0.0"

// DefaultRAMSize is used when a Config leaves RAMSize at zero.
const DefaultRAMSize = 16 * 1024 * 1024

// Config describes everything needed to construct a Machine: the boot ROM
// image and the two disk controllers' backing directories (§6 "CLI/
// filesystem surface"). DiskADir/DiskBDir are required; a missing
// directory is a host-level error surfaced from New, matching the
// teacher's "missing directories cause startup to abort" contract.
type Config struct {
	ROM      []byte
	DiskADir string
	DiskBDir string
	RAMSize  uint32
	Sparse   bool
	Log      *slog.Logger
}

// Machine is a fully wired Simulatron instance: one CPU, one bus, the
// fixed device set, and the scheduler backing the timer and both disks.
type Machine struct {
	log   *slog.Logger
	ram   memory.Provider
	bus   *bus.Bus
	mmu   *mmu.MMU
	intc  *intc.Controller
	cpu   *cpu.CPU
	sched *sched.Scheduler

	display  *display.Display
	keyboard *keyboard.Keyboard
	diskA    *disk.Disk
	diskB    *disk.Disk
	timer    *timer.Timer
}

// New constructs a Machine from cfg and boots it: this is the "all state
// is created at machine boot" moment (§3). The CPU is left halted=false,
// paused=false, in kernel mode with PC at the ROM entry point (§8 "ROM
// fetch": "Boot with kernel mode; PC=0x40").
func New(cfg Config) (*Machine, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	ramSize := cfg.RAMSize
	if ramSize == 0 {
		ramSize = DefaultRAMSize
	}
	var ram memory.Provider
	if cfg.Sparse {
		ram = memory.NewSparse(ramSize)
	} else {
		ram = memory.NewDense(ramSize)
	}

	b := bus.New(ram)
	if err := b.LoadROM(cfg.ROM); err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}

	ic := intc.New()
	sc := sched.New()

	disp := display.New()
	kbd := keyboard.New(ic, intc.Keyboard)
	diskA, err := disk.New("diskA", log, cfg.DiskADir, ic, intc.DiskA, sc)
	if err != nil {
		return nil, fmt.Errorf("machine: disk A: %w", err)
	}
	diskB, err := disk.New("diskB", log, cfg.DiskBDir, ic, intc.DiskB, sc)
	if err != nil {
		return nil, fmt.Errorf("machine: disk B: %w", err)
	}
	tmr := timer.New(ic, intc.Timer, sc)

	b.AttachDisplay(disp)
	b.AttachKeyboard(kbd)
	b.AttachDiskA(diskA, diskA)
	b.AttachDiskB(diskB, diskB)

	mu := mmu.New(b)
	c := cpu.New(b, mu, ic, tmr)

	m := &Machine{
		log:      log,
		ram:      ram,
		bus:      b,
		mmu:      mu,
		intc:     ic,
		cpu:      c,
		sched:    sc,
		display:  disp,
		keyboard: kbd,
		diskA:    diskA,
		diskB:    diskB,
		timer:    tmr,
	}
	m.Boot()
	return m, nil
}

// Boot resets the CPU to its deterministic initial configuration and
// points PC at the ROM entry point (§3, §8 "ROM fetch").
func (m *Machine) Boot() {
	m.cpu.Reset()
	m.cpu.SetPC(bus.ROMStart)
	m.log.Info("machine booted", "version", Version, "pc", bus.ROMStart)
}

// Reset is Boot's public alias for the monitor's `reset` command (§3
// "Reset (if exposed) returns to this state").
func (m *Machine) Reset() { m.Boot() }

// Step advances the CPU by exactly one inter-instruction boundary (§4.5).
func (m *Machine) Step() { m.cpu.Step() }

// Run steps the CPU until it halts. The caller is expected to run this on
// its own goroutine; Shutdown stops any in-flight device activity from
// another goroutine once Run returns (§5 "HALT is terminal and aborts any
// in-flight device activity").
func (m *Machine) Run() {
	for !m.cpu.Halted() {
		m.cpu.Step()
	}
}

// Shutdown releases every device's host resources (open disk files,
// fsnotify watchers, the timer's in-flight tick) and stops the scheduler.
// Called once, when the machine is torn down.
func (m *Machine) Shutdown() {
	m.timer.Stop()
	m.diskA.Shutdown()
	m.diskB.Shutdown()
	m.keyboard.Shutdown()
	m.display.Shutdown()
	m.sched.Stop()
}

// CPU exposes the underlying CPU for the monitor's examine/deposit/step
// commands and for tests.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// Bus exposes the underlying bus for the monitor's memory examine/deposit
// commands and the disassembler.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// Display exposes the display device for a front end to render (§1: the
// renderer itself is out of scope, but the state it would read is not).
func (m *Machine) Display() *display.Display { return m.display }

// Keyboard exposes the keyboard device for a front end to inject events.
func (m *Machine) Keyboard() *keyboard.Keyboard { return m.keyboard }

// InterruptController exposes the interrupt controller for the monitor's
// status display and tests that need to assert IMR/pending state directly.
func (m *Machine) InterruptController() *intc.Controller { return m.intc }
