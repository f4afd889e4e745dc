package cpu

import (
	"github.com/cjriches/simulatron/internal/mmu"
)

// resolve turns a virtual (user mode) or already-physical (kernel mode)
// address into a physical one for the given intent (§4.3 "The MMU is
// only consulted when the CPU is in user mode").
func (c *CPU) resolve(addr uint32, intent mmu.Intent) (uint32, error) {
	if c.mode == Kernel {
		return addr, nil
	}
	phys, fault := c.mmu.Translate(c.pdpr, addr, intent)
	if fault != nil {
		return 0, pageFault(fault.Code)
	}
	return phys, nil
}

func (c *CPU) fetchByte(addr uint32) (byte, error) {
	phys, err := c.resolve(addr, mmu.Fetch)
	if err != nil {
		return 0, err
	}
	b, err := c.bus.ReadByte(phys)
	if err != nil {
		return 0, illegalOp()
	}
	return b, nil
}

func (c *CPU) readByte(addr uint32) (byte, error) {
	phys, err := c.resolve(addr, mmu.Read)
	if err != nil {
		return 0, err
	}
	b, err := c.bus.ReadByte(phys)
	if err != nil {
		return 0, illegalOp()
	}
	return b, nil
}

func (c *CPU) writeByte(addr uint32, v byte) error {
	phys, err := c.resolve(addr, mmu.Write)
	if err != nil {
		return err
	}
	if err := c.bus.WriteByte(phys, v); err != nil {
		return illegalOp()
	}
	return nil
}

// readWidth/writeWidth move 1/2/4 big-endian bytes starting at addr,
// re-resolving the address for every constituent byte: a multi-byte
// access that straddles a page boundary is not itself atomic (§5 "No
// instruction — other than SWAP — makes atomicity guarantees across its
// constituent byte accesses"), so a fault partway through simply aborts
// with PC unadvanced, same as any other fault.
func (c *CPU) readWidth(addr uint32, width int, intent mmu.Intent) (uint32, error) {
	var v uint32
	for i := 0; i < width; i++ {
		phys, err := c.resolveIntent(addr+uint32(i), intent)
		if err != nil {
			return 0, err
		}
		b, err := c.bus.ReadByte(phys)
		if err != nil {
			return 0, illegalOp()
		}
		v = v<<8 | uint32(b)
	}
	return v, nil
}

func (c *CPU) writeWidth(addr uint32, v uint32, width int) error {
	for i := 0; i < width; i++ {
		phys, err := c.resolveIntent(addr+uint32(i), mmu.Write)
		if err != nil {
			return err
		}
		shift := uint(width-1-i) * 8
		if err := c.bus.WriteByte(phys, byte(v>>shift)); err != nil {
			return illegalOp()
		}
	}
	return nil
}

func (c *CPU) resolveIntent(addr uint32, intent mmu.Intent) (uint32, error) {
	return c.resolve(addr, intent)
}

// fetchWidth reads width code bytes at addr (E-checked), used for decoding
// multi-byte literals and addresses embedded in the instruction stream.
func (c *CPU) fetchWidth(addr uint32, width int) (uint32, error) {
	return c.readWidth(addr, width, mmu.Fetch)
}

// stackPointer returns the active stack pointer register value for the
// current mode (§4.6 "Data movement": KSPR in kernel mode, USPR in user
// mode, regardless of the current page mapping).
func (c *CPU) stackPointer() uint32 {
	if c.mode == Kernel {
		return c.kspr
	}
	return c.uspr
}

func (c *CPU) setStackPointer(v uint32) {
	if c.mode == Kernel {
		c.kspr = v
	} else {
		c.uspr = v
	}
}

// push/pop always move a full 32-bit word at the active stack pointer,
// used for CALL/RETURN's return address. Interrupt entry and IRETURN use
// pushPhysical/popPhysicalWidth instead. General PUSH/POP of a register
// uses pushWidth/popWidth, with the register's own width.
func (c *CPU) push(v uint32) error {
	sp := c.stackPointer() - 4
	if err := c.writeWidth(sp, v, 4); err != nil {
		return err
	}
	c.setStackPointer(sp)
	return nil
}

func (c *CPU) pop() (uint32, error) {
	sp := c.stackPointer()
	v, err := c.readWidth(sp, 4, mmu.Read)
	if err != nil {
		return 0, err
	}
	c.setStackPointer(sp + 4)
	return v, nil
}

func (c *CPU) pushWidth(v uint32, width int) error {
	sp := c.stackPointer() - uint32(width)
	if err := c.writeWidth(sp, v, width); err != nil {
		return err
	}
	c.setStackPointer(sp)
	return nil
}

func (c *CPU) popWidth(width int) (uint32, error) {
	sp := c.stackPointer()
	v, err := c.readWidth(sp, width, mmu.Read)
	if err != nil {
		return 0, err
	}
	c.setStackPointer(sp + uint32(width))
	return v, nil
}

// pushPhysical/popPhysicalWidth always address physical memory directly,
// bypassing mode-based resolution: used only for interrupt entry/IRETURN,
// which the CPU performs in kernel mode after any mode switch has already
// happened (§4.7 step 1 precedes step 2), so the stack pointer at that
// point is KSPR and always physical regardless of the mode the interrupt
// interrupted.
func (c *CPU) pushPhysical(v uint32) error {
	sp := c.kspr - 4
	for i := 0; i < 4; i++ {
		shift := uint(3-i) * 8
		if err := c.bus.WriteByte(sp+uint32(i), byte(v>>shift)); err != nil {
			return err
		}
	}
	c.kspr = sp
	return nil
}

func (c *CPU) pushPhysicalWidth(v uint32, width int) error {
	sp := c.kspr - uint32(width)
	for i := 0; i < width; i++ {
		shift := uint(width-1-i) * 8
		if err := c.bus.WriteByte(sp+uint32(i), byte(v>>shift)); err != nil {
			return err
		}
	}
	c.kspr = sp
	return nil
}

func (c *CPU) popPhysicalWidth(width int) (uint32, error) {
	sp := c.kspr
	var v uint32
	for i := 0; i < width; i++ {
		b, err := c.bus.ReadByte(sp + uint32(i))
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(b)
	}
	c.kspr = sp + uint32(width)
	return v, nil
}
