package cpu

import (
	"math"

	"github.com/cjriches/simulatron/internal/mmu"
	"github.com/cjriches/simulatron/internal/opcode"
)

// execData dispatches the data-movement family (§4.6 "Data movement").
func (c *CPU) execData(instr instruction) error {
	switch instr.code {
	case opcode.LOAD:
		return c.execLoad(instr)
	case opcode.STORE:
		return c.execStore(instr)
	case opcode.COPY:
		return c.execCopy(instr)
	case opcode.COPYI:
		return c.execCopyI(instr)
	case opcode.SWAP:
		return c.execSwap(instr)
	case opcode.PUSH:
		return c.execPush(instr)
	case opcode.POP:
		return c.execPop(instr)
	case opcode.BLOCKCOPY:
		return c.execBlockCopy(instr)
	case opcode.BLOCKSET:
		return c.execBlockSet(instr)
	case opcode.BLOCKCMP:
		return c.execBlockCmp(instr)
	}
	return illegalOp()
}

func (c *CPU) execLoad(instr instruction) error {
	dst := instr.operands[0].reg
	addr := instr.operands[1].value
	width := dst.Width()
	v, err := c.readWidth(addr, width, mmu.Read)
	if err != nil {
		return err
	}
	if dst.Float() {
		c.WriteFloat(dst, math.Float32frombits(v))
		return nil
	}
	return c.writeInt(dst, v)
}

func (c *CPU) execStore(instr instruction) error {
	addr := instr.operands[0].value
	src := instr.operands[1].reg
	width := src.Width()
	var v uint32
	if src.Float() {
		v = math.Float32bits(c.ReadFloat(src))
	} else {
		var err error
		v, err = c.readInt(src)
		if err != nil {
			return err
		}
	}
	return c.writeWidth(addr, v, width)
}

// execCopy moves a value between two same-type registers; float↔int
// transfer is only via SCONVERT/UCONVERT (§3, §9), so a type mismatch
// here is illegal rather than an implicit conversion.
func (c *CPU) execCopy(instr instruction) error {
	dst := instr.operands[0].reg
	src := instr.operands[1].reg
	if dst.Float() != src.Float() {
		return illegalOp()
	}
	if dst.Float() {
		c.WriteFloat(dst, c.ReadFloat(src))
		return nil
	}
	v, err := c.readInt(src)
	if err != nil {
		return err
	}
	return c.writeInt(dst, v)
}

func (c *CPU) execCopyI(instr instruction) error {
	dst := instr.operands[0].reg
	v := instr.operands[1].value
	if dst.Float() {
		c.WriteFloat(dst, math.Float32frombits(v))
		return nil
	}
	return c.writeInt(dst, v)
}

// execSwap exchanges a register and a memory word of the register's
// width (§4.6). The CPU runs on a single logical thread, so the
// intervening read-then-write is indivisible with respect to the only
// other mutator of RAM (the CPU itself); it is not indivisible with
// respect to a device whose register happens to live at addr, which is
// an edge case §4.6 does not call out a use for.
func (c *CPU) execSwap(instr instruction) error {
	reg := instr.operands[0].reg
	addr := instr.operands[1].value
	width := reg.Width()

	memVal, err := c.readWidth(addr, width, mmu.Read)
	if err != nil {
		return err
	}

	var regVal uint32
	if reg.Float() {
		regVal = math.Float32bits(c.ReadFloat(reg))
	} else {
		regVal, err = c.readInt(reg)
		if err != nil {
			return err
		}
	}

	if err := c.writeWidth(addr, regVal, width); err != nil {
		return err
	}
	if reg.Float() {
		c.WriteFloat(reg, math.Float32frombits(memVal))
		return nil
	}
	return c.writeInt(reg, memVal)
}

func (c *CPU) execPush(instr instruction) error {
	reg := instr.operands[0].reg
	width := reg.Width()
	var v uint32
	if reg.Float() {
		v = math.Float32bits(c.ReadFloat(reg))
	} else {
		var err error
		v, err = c.readInt(reg)
		if err != nil {
			return err
		}
	}
	return c.pushWidth(v, width)
}

func (c *CPU) execPop(instr instruction) error {
	reg := instr.operands[0].reg
	width := reg.Width()
	v, err := c.popWidth(width)
	if err != nil {
		return err
	}
	if reg.Float() {
		c.WriteFloat(reg, math.Float32frombits(v))
		return nil
	}
	return c.writeInt(reg, v)
}

func (c *CPU) execBlockCopy(instr instruction) error {
	dst, src, length, err := c.blockAddrs(instr)
	if err != nil {
		return err
	}
	for i := uint32(0); i < length; i++ {
		b, err := c.readByte(src + i)
		if err != nil {
			return err
		}
		if err := c.writeByte(dst+i, b); err != nil {
			return err
		}
	}
	return nil
}

func (c *CPU) execBlockSet(instr instruction) error {
	dst, err := c.readInt(instr.operands[0].reg)
	if err != nil {
		return err
	}
	value, err := c.readInt(instr.operands[1].reg)
	if err != nil {
		return err
	}
	length, err := c.readInt(instr.operands[2].reg)
	if err != nil {
		return err
	}
	b := byte(value)
	for i := uint32(0); i < length; i++ {
		if err := c.writeByte(dst+i, b); err != nil {
			return err
		}
	}
	return nil
}

func (c *CPU) execBlockCmp(instr instruction) error {
	src1, src2, length, err := c.blockAddrs(instr)
	if err != nil {
		return err
	}
	equal := true
	negative := false
	for i := uint32(0); i < length; i++ {
		b1, err := c.readByte(src1 + i)
		if err != nil {
			return err
		}
		b2, err := c.readByte(src2 + i)
		if err != nil {
			return err
		}
		if b1 != b2 {
			equal = false
			negative = b1 < b2
			break
		}
	}
	c.setZNbits(equal, negative)
	return nil
}

func (c *CPU) blockAddrs(instr instruction) (a, b, length uint32, err error) {
	a, err = c.readInt(instr.operands[0].reg)
	if err != nil {
		return
	}
	b, err = c.readInt(instr.operands[1].reg)
	if err != nil {
		return
	}
	length, err = c.readInt(instr.operands[2].reg)
	return
}
