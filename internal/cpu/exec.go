package cpu

import (
	"github.com/cjriches/simulatron/internal/intc"
	"github.com/cjriches/simulatron/internal/opcode"
)

// execute runs one decoded instruction. next is the address of the
// instruction following it in the stream; straight-line instructions
// land there, control-flow instructions overwrite it explicitly. The
// caller (executeOne) has already confirmed the instruction decoded
// cleanly and, if privileged, that the CPU is in kernel mode.
func (c *CPU) execute(instr instruction, next uint32) error {
	switch instr.code {
	case opcode.HALT:
		c.halted = true
		c.pc = next
		return nil

	case opcode.PAUSE:
		c.pause()
		c.pc = next
		return nil

	case opcode.TIMER:
		c.runTimer(instr.operands[0].value)
		c.pc = next
		return nil

	case opcode.USERMODE:
		return c.usermode()

	case opcode.IRETURN:
		return c.ireturn()

	case opcode.SYSCALL:
		c.pc = next
		c.intc.Raise(intc.Syscall)
		return nil

	case opcode.JUMP:
		c.pc = instr.operands[0].value
		return nil

	case opcode.JEQUAL:
		return c.condJump(instr, next, c.zero())
	case opcode.JNOTEQUAL:
		return c.condJump(instr, next, !c.zero())
	case opcode.JNEGATIVE:
		return c.condJump(instr, next, c.negative())
	case opcode.JNOTNEGATIVE:
		return c.condJump(instr, next, !c.negative())
	case opcode.JCARRY:
		return c.condJump(instr, next, c.carry())
	case opcode.JNOTCARRY:
		return c.condJump(instr, next, !c.carry())
	case opcode.JOVERFLOW:
		return c.condJump(instr, next, c.overflow())
	case opcode.JNOTOVERFLOW:
		return c.condJump(instr, next, !c.overflow())

	case opcode.CALL:
		if err := c.push(next); err != nil {
			return err
		}
		c.pc = instr.operands[0].value
		return nil

	case opcode.RETURN:
		addr, err := c.pop()
		if err != nil {
			return err
		}
		c.pc = addr
		return nil

	case opcode.COMPARER, opcode.COMPAREI:
		if err := c.compare(instr); err != nil {
			return err
		}
		c.pc = next
		return nil
	}

	if err := c.executeStraightLine(instr); err != nil {
		return err
	}
	c.pc = next
	return nil
}

func (c *CPU) condJump(instr instruction, next uint32, taken bool) error {
	if taken {
		c.pc = instr.operands[0].value
	} else {
		c.pc = next
	}
	return nil
}

// executeStraightLine dispatches every opcode whose PC always advances to
// next: data movement, arithmetic, bitwise, and conversion.
func (c *CPU) executeStraightLine(instr instruction) error {
	switch instr.code {
	case opcode.LOAD, opcode.STORE, opcode.COPY, opcode.COPYI, opcode.SWAP,
		opcode.PUSH, opcode.POP, opcode.BLOCKCOPY, opcode.BLOCKSET, opcode.BLOCKCMP:
		return c.execData(instr)

	case opcode.ADDR, opcode.ADDI, opcode.ADDCARRYR, opcode.ADDCARRYI,
		opcode.SUBR, opcode.SUBI, opcode.SUBBORROWR, opcode.SUBBORROWI,
		opcode.MULTR, opcode.MULTI, opcode.SDIVR, opcode.SDIVI,
		opcode.UDIVR, opcode.UDIVI, opcode.SREMR, opcode.SREMI,
		opcode.UREMR, opcode.UREMI,
		opcode.FADD, opcode.FSUB, opcode.FMULT, opcode.FDIV:
		return c.execArith(instr)

	case opcode.NOT, opcode.ANDR, opcode.ANDI, opcode.ORR, opcode.ORI,
		opcode.XORR, opcode.XORI,
		opcode.LSHIFTR, opcode.LSHIFTI, opcode.URSHIFTR, opcode.URSHIFTI,
		opcode.SRSHIFTR, opcode.SRSHIFTI,
		opcode.LROTR, opcode.LROTI, opcode.RROTR, opcode.RROTI,
		opcode.LROTCARRYR, opcode.LROTCARRYI, opcode.RROTCARRYR, opcode.RROTCARRYI:
		return c.execBitwise(instr)

	case opcode.SCONVERT, opcode.UCONVERT:
		return c.execConvert(instr)
	}
	return illegalOp()
}
