package cpu

import "github.com/cjriches/simulatron/internal/opcode"

// operand is one decoded instruction operand. Which fields are
// meaningful depends on kind: Reg operands use reg; every other kind
// uses value (raw, zero-extended, big-endian as fetched).
type operand struct {
	kind  opcode.OperandKind
	reg   RegRef
	value uint32
}

// instruction is one fully decoded instruction, ready for execute.
type instruction struct {
	code     byte
	mnemonic string
	operands []operand
}

// decode fetches and decodes the instruction at addr, returning it along
// with the address of the following instruction. It never mutates c.pc;
// the caller commits the advance only once execution has also succeeded,
// so a fault anywhere leaves PC at the start of the faulting instruction
// (§7 "Propagation").
func (c *CPU) decode(addr uint32) (instruction, uint32, error) {
	cursor := addr
	opByte, err := c.fetchByte(cursor)
	if err != nil {
		return instruction{}, 0, err
	}
	cursor++

	info, ok := opcode.Table[opByte]
	if !ok {
		return instruction{}, 0, illegalOp()
	}

	instr := instruction{code: opByte, mnemonic: info.Mnemonic}

	var lastRegWidth = 4
	var lastRegFloat bool
	for _, kind := range info.Operands {
		switch kind {
		case opcode.Reg:
			b, err := c.fetchByte(cursor)
			if err != nil {
				return instruction{}, 0, err
			}
			cursor++
			ref := RegRef(b)
			lastRegWidth = ref.Width()
			lastRegFloat = ref.Float()
			instr.operands = append(instr.operands, operand{kind: kind, reg: ref})

		case opcode.VarLit:
			width := lastRegWidth
			if lastRegFloat {
				width = 4
			}
			v, err := c.fetchWidth(cursor, width)
			if err != nil {
				return instruction{}, 0, err
			}
			cursor += uint32(width)
			instr.operands = append(instr.operands, operand{kind: kind, value: v})

		case opcode.Lit8:
			v, err := c.fetchWidth(cursor, 1)
			if err != nil {
				return instruction{}, 0, err
			}
			cursor++
			instr.operands = append(instr.operands, operand{kind: kind, value: v})

		case opcode.LitWord, opcode.Addr:
			v, err := c.fetchWidth(cursor, 4)
			if err != nil {
				return instruction{}, 0, err
			}
			cursor += 4
			instr.operands = append(instr.operands, operand{kind: kind, value: v})
		}
	}

	return instr, cursor, nil
}

// executeOne fetches, decodes, and executes one instruction at the
// current PC. It reports whether the retired instruction was IRETURN,
// for the PAUSE race-freedom contract (§4.9). Any trap raised mid-way is
// translated into an interrupt entry with PC left at the faulting
// instruction.
func (c *CPU) executeOne() (wasIreturn bool) {
	instr, next, err := c.decode(c.pc)
	if err != nil {
		c.takeTrap(err)
		return false
	}

	if info := opcode.Table[instr.code]; info.Privileged {
		if err := c.privilegeCheck(); err != nil {
			c.takeTrap(err)
			return false
		}
	}

	if err := c.execute(instr, next); err != nil {
		c.takeTrap(err)
		return false
	}

	return instr.code == opcode.IRETURN
}

// takeTrap converts a trap (or, defensively, any other error) into an
// interrupt entry at the current PC, publishing PFSR first if the trap
// carries a page-fault code.
func (c *CPU) takeTrap(err error) {
	t, ok := err.(*trap)
	if !ok {
		t = &trap{irq: 0}
	}
	if t.hasPFSR {
		c.pfsr = t.pfsr
	}
	c.enterInterrupt(t.irq)
}
