// Package cpu implements the Simulatron instruction cycle: the register
// file, the fetch/decode/execute loop, interrupt entry/return, and the
// privileged USERMODE/TIMER/PAUSE instructions (§3, §4.5, §4.6, §4.7,
// §4.8, §4.9). It consults the MMU only in user mode and otherwise
// drives the bus directly with physical addresses.
package cpu

import (
	"github.com/cjriches/simulatron/internal/intc"
	"github.com/cjriches/simulatron/internal/mmu"
)

// Mode is the CPU's privilege level.
type Mode int

const (
	Kernel Mode = iota
	User
)

// Bus is the physical memory/device interface the CPU drives directly in
// kernel mode and through the MMU in user mode.
type Bus interface {
	ReadByte(addr uint32) (byte, error)
	WriteByte(addr uint32, v byte) error
	Vector(n int) uint32
}

// Timer is the privileged TIMER instruction's target.
type Timer interface {
	Set(periodMillis uint32)
}

// MMU is the translation unit consulted in user mode.
type MMU interface {
	Translate(pdpr, vaddr uint32, intent mmu.Intent) (uint32, *mmu.Fault)
}

// Controller is the interrupt controller the CPU services against.
type Controller interface {
	Raise(n int)
	Clear(n int)
	IMR() uint16
	SetIMR(v uint16)
	Service() (int, bool)
}

// CPU is the execution engine: register file plus the fetch/decode/
// execute loop (§2 "CPU core"). It has no goroutine of its own; the
// owning machine calls Step repeatedly.
type CPU struct {
	Regs

	mode           Mode
	halted         bool
	paused         bool
	lastWasIreturn bool
	pc             uint32

	bus   Bus
	mmu   MMU
	intc  Controller
	timer Timer
}

// New constructs a CPU wired to its bus, MMU, interrupt controller, and
// internal timer. It starts in the Reset state; the caller (the machine
// package) is responsible for pointing PC at the boot ROM entry point.
func New(bus Bus, m MMU, ic Controller, t Timer) *CPU {
	c := &CPU{bus: bus, mmu: m, intc: ic, timer: t}
	c.Reset()
	return c
}

// Reset returns the CPU to the deterministic boot configuration (§3
// "Lifecycle"): kernel mode, IMR=0, halted=false, paused=false, no
// latched interrupts, registers and flags zero, PDPR/PFSR zero, PC zero.
func (c *CPU) Reset() {
	c.Regs = Regs{}
	c.mode = Kernel
	c.halted = false
	c.paused = false
	c.lastWasIreturn = false
	c.pc = 0
	c.intc.SetIMR(0)
	for n := 0; n < intc.NumInterrupts; n++ {
		c.intc.Clear(n)
	}
}

func (c *CPU) Mode() Mode         { return c.mode }
func (c *CPU) PC() uint32         { return c.pc }
func (c *CPU) SetPC(addr uint32)  { c.pc = addr }
func (c *CPU) Halted() bool       { return c.halted }
func (c *CPU) Paused() bool       { return c.paused }
func (c *CPU) PDPR() uint32       { return c.pdpr }
func (c *CPU) SetPDPR(v uint32)   { c.pdpr = v }
func (c *CPU) KSPR() uint32       { return c.kspr }
func (c *CPU) SetKSPR(v uint32)   { c.kspr = v }
func (c *CPU) USPR() uint32       { return c.uspr }
func (c *CPU) SetUSPR(v uint32)   { c.uspr = v }
func (c *CPU) PFSR() uint32       { return c.pfsr }
func (c *CPU) Int(n int) uint32   { return c.r[n] }
func (c *CPU) Float(n int) float32 { return c.f[n] }

// Step advances the machine by exactly one inter-instruction boundary:
// either one serviced interrupt, or one retired instruction, or — if
// paused with nothing servicable — nothing at all (§4.5).
func (c *CPU) Step() {
	if c.halted {
		return
	}

	if c.paused {
		if n, ok := c.intc.Service(); ok {
			c.paused = false
			c.enterInterrupt(n)
			c.lastWasIreturn = false
		}
		return
	}

	if n, ok := c.intc.Service(); ok {
		c.enterInterrupt(n)
		c.lastWasIreturn = false
		return
	}

	wasIreturn := c.executeOne()
	c.lastWasIreturn = wasIreturn
}

// enterInterrupt performs the atomic 7-step sequence of §4.7. A fault in
// any of its own memory accesses halts the CPU (double fault, no
// recovery) rather than recursing into another interrupt.
func (c *CPU) enterInterrupt(n int) {
	enteringFromKernel := c.mode == Kernel
	c.mode = Kernel

	pushedFlags := c.Flags() &^ flagModeBit
	if enteringFromKernel {
		pushedFlags |= flagModeBit
	}
	if err := c.pushPhysical(uint32(pushedFlags)); err != nil {
		c.halted = true
		return
	}
	if err := c.pushPhysical(c.pc); err != nil {
		c.halted = true
		return
	}
	if err := c.pushPhysical(uint32(c.intc.IMR())); err != nil {
		c.halted = true
		return
	}
	c.intc.SetIMR(0)
	c.intc.Clear(n)
	c.pc = c.bus.Vector(n)
}

// ireturn implements §4.8.
func (c *CPU) ireturn() error {
	imr, err := c.popPhysicalWidth(4)
	if err != nil {
		return err
	}
	retPC, err := c.popPhysicalWidth(4)
	if err != nil {
		return err
	}
	flags, err := c.popPhysicalWidth(4)
	if err != nil {
		return err
	}
	c.intc.SetIMR(uint16(imr))
	c.pc = retPC
	if uint16(flags)&flagModeBit == 0 {
		c.mode = User
	} else {
		c.mode = Kernel
	}
	c.SetFlags(uint16(flags))
	return nil
}

// usermode implements §4.9 USERMODE.
func (c *CPU) usermode() error {
	addr, err := c.popPhysicalWidth(4)
	if err != nil {
		return err
	}
	c.SetFlags(0)
	c.mode = User
	c.pc = addr
	return nil
}

// runTimer implements §4.9 TIMER n.
func (c *CPU) runTimer(periodMillis uint32) {
	c.timer.Set(periodMillis)
}

// pause implements §4.9 PAUSE, including the IRETURN race-freedom
// contract: if the retiring instruction before this one was IRETURN,
// PAUSE does not suspend even with nothing currently pending.
func (c *CPU) pause() {
	if c.lastWasIreturn {
		return
	}
	c.paused = true
}

// privilegeCheck raises illegal-op if the CPU is in user mode, for use by
// every privileged opcode and privileged-register access.
func (c *CPU) privilegeCheck() error {
	if c.mode == User {
		return illegalOp()
	}
	return nil
}
