package cpu

import (
	"math"

	"github.com/cjriches/simulatron/internal/opcode"
)

// compare implements COMPARE (§4.6): value1 - value2, flags only.
func (c *CPU) compare(instr instruction) error {
	dst := instr.operands[0].reg
	width := dst.Width()
	a, err := c.readInt(dst)
	if err != nil {
		return err
	}
	b, err := c.operandValue(instr.operands[1])
	if err != nil {
		return err
	}
	result, borrow, overflow := subWithFlags(a, b, false, width)
	c.setZN(result, width)
	c.setC(borrow)
	c.setO(overflow)
	return nil
}

// operandValue reads the second operand of a two-operand arithmetic
// instruction, whether it is a register (R form) or an already-decoded
// literal (I form).
func (c *CPU) operandValue(op operand) (uint32, error) {
	if op.kind == opcode.Reg {
		return c.readInt(op.reg)
	}
	return op.value, nil
}

// execArith dispatches every arithmetic opcode (§4.6 "Arithmetic"):
// ADD/ADDCARRY/SUB/SUBBORROW/MULT/SDIV/UDIV/SREM/UREM on integers, plus
// FADD/FSUB/FMULT/FDIV on floats.
func (c *CPU) execArith(instr instruction) error {
	switch instr.code {
	case opcode.FADD, opcode.FSUB, opcode.FMULT, opcode.FDIV:
		return c.execFloatArith(instr)
	}

	dst := instr.operands[0].reg
	width := dst.Width()
	a, err := c.readInt(dst)
	if err != nil {
		return err
	}
	b, err := c.operandValue(instr.operands[1])
	if err != nil {
		return err
	}

	var result uint32
	var carry, overflow bool
	var isDivide bool

	switch instr.code {
	case opcode.ADDR, opcode.ADDI:
		result, carry, overflow = addWithFlags(a, b, false, width)
	case opcode.ADDCARRYR, opcode.ADDCARRYI:
		result, carry, overflow = addWithFlags(a, b, c.carry(), width)
	case opcode.SUBR, opcode.SUBI:
		result, carry, overflow = subWithFlags(a, b, false, width)
	case opcode.SUBBORROWR, opcode.SUBBORROWI:
		result, carry, overflow = subWithFlags(a, b, c.carry(), width)
	case opcode.MULTR, opcode.MULTI:
		result, overflow = multWithOverflow(a, b, width)

	case opcode.SDIVR, opcode.SDIVI, opcode.SREMR, opcode.SREMI:
		isDivide = true
		if b&maskForWidth(width) == 0 {
			return divideByZero()
		}
		q := signExtend(a, width) / signExtend(b, width)
		r := signExtend(a, width) % signExtend(b, width)
		if instr.code == opcode.SDIVR || instr.code == opcode.SDIVI {
			result = uint32(q) & maskForWidth(width)
		} else {
			result = uint32(r) & maskForWidth(width)
		}

	case opcode.UDIVR, opcode.UDIVI, opcode.UREMR, opcode.UREMI:
		isDivide = true
		aw, bw := a&maskForWidth(width), b&maskForWidth(width)
		if bw == 0 {
			return divideByZero()
		}
		if instr.code == opcode.UDIVR || instr.code == opcode.UDIVI {
			result = aw / bw
		} else {
			result = aw % bw
		}

	default:
		return illegalOp()
	}

	if isDivide {
		carry, overflow = false, false
	}

	c.setZN(result, width)
	c.setC(carry)
	c.setO(overflow)
	return c.writeInt(dst, result)
}

func (c *CPU) execFloatArith(instr instruction) error {
	dst := instr.operands[0].reg
	if !dst.Float() {
		return illegalOp()
	}
	src := instr.operands[1].reg
	if !src.Float() {
		return illegalOp()
	}
	a := c.ReadFloat(dst)
	b := c.ReadFloat(src)

	var result float32
	switch instr.code {
	case opcode.FADD:
		result = a + b
	case opcode.FSUB:
		result = a - b
	case opcode.FMULT:
		result = a * b
	case opcode.FDIV:
		result = a / b
	}

	c.WriteFloat(dst, result)
	c.setZNbits(result == 0, math.Signbit(float64(result)))
	c.setC(false)
	c.setO(false)
	return nil
}
