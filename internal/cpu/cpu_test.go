package cpu

import (
	"testing"

	"github.com/cjriches/simulatron/internal/intc"
	"github.com/cjriches/simulatron/internal/mmu"
	"github.com/cjriches/simulatron/internal/opcode"
)

// flatBus is a trivial byte-addressable memory used to unit-test the CPU
// without a real bus/MMU wiring; it has no region permissions, which is
// fine since these tests exercise the instruction cycle, not §4.2.
type flatBus struct {
	mem    [1 << 16]byte
	vector [intc.NumInterrupts]uint32
}

func (b *flatBus) ReadByte(addr uint32) (byte, error)  { return b.mem[addr], nil }
func (b *flatBus) WriteByte(addr uint32, v byte) error  { b.mem[addr] = v; return nil }
func (b *flatBus) Vector(n int) uint32                  { return b.vector[n] }

func (b *flatBus) putWord(addr, v uint32) {
	b.mem[addr] = byte(v >> 24)
	b.mem[addr+1] = byte(v >> 16)
	b.mem[addr+2] = byte(v >> 8)
	b.mem[addr+3] = byte(v)
}

func (b *flatBus) put(addr uint32, bytes ...byte) {
	copy(b.mem[addr:], bytes)
}

// identityMMU passes every address straight through with no faults, used
// by tests that only exercise kernel mode (where the CPU never consults
// the MMU anyway) or user-mode tests that want to ignore translation.
type identityMMU struct{}

func (identityMMU) Translate(pdpr, vaddr uint32, intent mmu.Intent) (uint32, *mmu.Fault) {
	return vaddr, nil
}

// faultingMMU always returns the given fault, for user-mode fault tests.
type faultingMMU struct{ code uint32 }

func (f faultingMMU) Translate(pdpr, vaddr uint32, intent mmu.Intent) (uint32, *mmu.Fault) {
	return 0, &mmu.Fault{Code: f.code}
}

type fakeTimer struct{ lastPeriod uint32 }

func (t *fakeTimer) Set(p uint32) { t.lastPeriod = p }

func reg(num int, width int) RegRef {
	var w byte
	switch width {
	case 2:
		w = 1
	case 1:
		w = 2
	}
	return RegRef(w<<5 | byte(num))
}

func freg(num int) RegRef { return RegRef(regFloatBit | byte(num)) }

func newTestCPU(t *testing.T) (*CPU, *flatBus, *intc.Controller) {
	t.Helper()
	bus := &flatBus{}
	ic := intc.New()
	tm := &fakeTimer{}
	c := New(bus, identityMMU{}, ic, tm)
	c.SetKSPR(0xF000)
	c.SetUSPR(0xE000)
	return c, bus, ic
}

func TestAddSetsOverflowAndFlags(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	c.WriteInt(reg(0, 1), 0x7F)
	// ADD r0b, 1
	bus.put(0, opcode.ADDI, byte(reg(0, 1)), 1)
	c.Step()

	if v := c.ReadInt(reg(0, 1)); v != 0x80 {
		t.Fatalf("r0b = %#x, want 0x80", v)
	}
	if c.zero() {
		t.Fatal("Z should be clear")
	}
	if !c.negative() {
		t.Fatal("N should be set")
	}
	if c.carry() {
		t.Fatal("C should be clear")
	}
	if !c.overflow() {
		t.Fatal("O should be set")
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	c, _, _ := newTestCPU(t)
	r0 := reg(0, 4)
	c.WriteInt(r0, 0xDEADBEEF)

	sp := c.KSPR()
	if err := c.pushWidth(c.ReadInt(r0), 4); err != nil {
		t.Fatal(err)
	}
	if c.KSPR() != sp-4 {
		t.Fatalf("KSPR = %#x, want %#x", c.KSPR(), sp-4)
	}
	v, err := c.popWidth(4)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("popped %#x, want 0xDEADBEEF", v)
	}
	if c.KSPR() != sp {
		t.Fatal("KSPR not restored after round trip")
	}
}

func TestCallReturnRoundTrip(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	// CALL 0x100; at 0x100: RETURN.
	bus.put(0, opcode.CALL)
	bus.putWord(1, 0x100)
	bus.put(0x100, opcode.RETURN)

	c.Step() // CALL
	if c.PC() != 0x100 {
		t.Fatalf("PC = %#x after CALL, want 0x100", c.PC())
	}
	c.Step() // RETURN
	if c.PC() != 5 {
		t.Fatalf("PC = %#x after RETURN, want 5 (return address)", c.PC())
	}
}

func TestInterruptEntryIsAtomicAndReturnRestoresState(t *testing.T) {
	c, bus, ic := newTestCPU(t)
	bus.vector[intc.Keyboard] = 0x200
	bus.put(0x200, opcode.IRETURN)
	ic.SetIMR(1 << intc.Keyboard)
	ic.Raise(intc.Keyboard)

	c.Step() // services the interrupt
	if c.PC() != 0x200 {
		t.Fatalf("PC = %#x, want vector target 0x200", c.PC())
	}
	if ic.IMR() != 0 {
		t.Fatal("IMR should be zeroed on interrupt entry")
	}
	if ic.Pending()&(1<<intc.Keyboard) != 0 {
		t.Fatal("interrupt bit should be cleared from pending on entry")
	}

	c.Step() // IRETURN
	if c.PC() != 0 {
		t.Fatalf("PC = %#x after IRETURN, want 0 (restored)", c.PC())
	}
	if ic.IMR() != 1<<intc.Keyboard {
		t.Fatal("IMR should be restored by IRETURN")
	}
	if c.Mode() != Kernel {
		t.Fatal("should remain in kernel mode: entered from kernel")
	}
}

func TestPauseWaitsForUnmaskedInterrupt(t *testing.T) {
	c, bus, ic := newTestCPU(t)
	bus.put(0, opcode.PAUSE)
	c.Step()
	if !c.Paused() {
		t.Fatal("expected CPU to be paused")
	}

	c.Step() // still nothing pending/unmasked
	if !c.Paused() {
		t.Fatal("expected CPU to remain paused with IMR=0")
	}

	ic.SetIMR(1 << intc.Keyboard)
	ic.Raise(intc.Keyboard)
	c.Step()
	if c.Paused() {
		t.Fatal("expected CPU to wake once interrupt is unmasked and pending")
	}
}

func TestPauseRaceFreedomAfterIreturn(t *testing.T) {
	c, bus, ic := newTestCPU(t)
	bus.vector[intc.Keyboard] = 0x200
	// At the vector target: IRETURN, then PAUSE.
	bus.put(0x200, opcode.IRETURN)
	bus.put(0x204, opcode.PAUSE)
	ic.SetIMR(1 << intc.Keyboard)
	ic.Raise(intc.Keyboard)

	c.Step() // entry
	c.SetPC(0x200)
	c.Step() // IRETURN, returns to PC=0 with IMR restored (masked, nothing pending)
	if c.Paused() {
		t.Fatal("IRETURN itself must not pause")
	}

	c.SetPC(0x204)
	c.Step() // PAUSE immediately after IRETURN: must not wait
	if c.Paused() {
		t.Fatal("PAUSE following IRETURN must return immediately without waiting")
	}
}

func TestIllegalOpInUserModeForPrivilegedInstruction(t *testing.T) {
	c, bus, ic := newTestCPU(t)
	bus.vector[intc.IllegalOp] = 0x300
	c.mode = User
	bus.put(0, opcode.HALT)

	c.Step()
	if c.Halted() {
		t.Fatal("HALT in user mode must be rejected, not executed")
	}
	if c.PC() != 0x300 {
		t.Fatalf("PC = %#x, want illegal-op vector 0x300", c.PC())
	}
	_ = ic
}

func TestDivideByZeroRaisesInterruptAtFaultingPC(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	bus.vector[intc.DivideByZero] = 0x400
	c.WriteInt(reg(1, 4), 0)
	bus.put(0, opcode.UDIVR, byte(reg(0, 4)), byte(reg(1, 4)))

	c.Step()
	if c.PC() != 0x400 {
		t.Fatalf("PC = %#x, want divide-by-zero vector 0x400", c.PC())
	}
}

func TestPageFaultPublishesPFSRAndLeavesPCAtFaultingInstruction(t *testing.T) {
	bus := &flatBus{}
	ic := intc.New()
	tm := &fakeTimer{}
	c := New(bus, faultingMMU{code: 3}, ic, tm)
	c.SetKSPR(0xF000)
	c.mode = User
	bus.vector[intc.PageFault] = 0x500
	bus.put(0x1000, opcode.LOAD, byte(reg(0, 4)))
	bus.putWord(0x1002, 0x2000)
	c.SetPC(0x1000)

	c.Step()
	if c.PFSR() != 3 {
		t.Fatalf("PFSR = %d, want 3 (copy-on-write)", c.PFSR())
	}
	if c.PC() != 0x500 {
		t.Fatalf("PC = %#x, want page-fault vector 0x500", c.PC())
	}
	// The pushed return address is the faulting instruction itself.
	if _, err := c.popPhysicalWidth(4); err != nil {
		t.Fatal(err)
	}
	retAddr, err := c.popPhysicalWidth(4)
	if err != nil {
		t.Fatal(err)
	}
	if retAddr != 0x1000 {
		t.Fatalf("pushed return address = %#x, want faulting instruction 0x1000", retAddr)
	}
}

func TestBlockCopyRestartsFromScratchOnFault(t *testing.T) {
	// The MMU faults on every access in this test, including the opcode
	// fetch, so BLOCKCOPY never makes progress; the point is that the
	// faulting Step leaves the BLOCKCOPY instruction's own address as the
	// return address, matching the restart-from-scratch contract rather
	// than resuming mid-block.
	bus := &flatBus{}
	ic := intc.New()
	tm := &fakeTimer{}
	c := New(bus, faultingMMU{code: 1}, ic, tm)
	c.SetKSPR(0xF000)
	c.mode = User
	bus.vector[intc.PageFault] = 0x600
	bus.vector[intc.IllegalOp] = 0x600

	dst, src, length := reg(0, 4), reg(1, 4), reg(2, 4)
	c.WriteInt(dst, 0x3000)
	c.WriteInt(src, 0x4000)
	c.WriteInt(length, 16)
	bus.put(0x1000, opcode.BLOCKCOPY, byte(dst), byte(src), byte(length))
	c.SetPC(0x1000)

	c.Step()
	if c.PC() != 0x600 {
		t.Fatalf("PC = %#x, want fault vector", c.PC())
	}
	// The faulting instruction's own address (0x1000) was pushed as the
	// return address onto the kernel stack by interrupt entry, so a
	// handler that clears the fault and IRETURNs re-fetches the whole
	// BLOCKCOPY instruction rather than resuming mid-block.
	if _, err := c.popPhysicalWidth(4); err != nil {
		t.Fatal(err)
	}
	retAddr, err := c.popPhysicalWidth(4)
	if err != nil {
		t.Fatal(err)
	}
	if retAddr != 0x1000 {
		t.Fatalf("pushed return address = %#x, want 0x1000 (restart from scratch)", retAddr)
	}
}

func TestFloatArithmetic(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	c.WriteFloat(freg(0), 1.5)
	c.WriteFloat(freg(1), 2.5)
	bus.put(0, opcode.FADD, byte(freg(0)), byte(freg(1)))
	c.Step()
	if got := c.Float(0); got != 4.0 {
		t.Fatalf("f0 = %v, want 4.0", got)
	}
	if c.carry() || c.overflow() {
		t.Fatal("float arithmetic must clear C and O")
	}
}

func TestSconvertUconvertRoundTrip(t *testing.T) {
	c, bus, _ := newTestCPU(t)
	minusSeven := int32(-7)
	c.WriteInt(reg(0, 4), uint32(minusSeven))
	bus.put(0, opcode.SCONVERT, byte(freg(0)), byte(reg(0, 4)))
	c.Step()
	if c.Float(0) != -7.0 {
		t.Fatalf("f0 = %v, want -7.0", c.Float(0))
	}

	bus.put(3, opcode.UCONVERT, byte(reg(1, 4)), byte(freg(0)))
	c.Step()
	if int32(c.Int(1)) != -7 {
		t.Fatalf("r1 = %d, want -7", int32(c.Int(1)))
	}
}
