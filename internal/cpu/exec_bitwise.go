package cpu

import "github.com/cjriches/simulatron/internal/opcode"

// execBitwise dispatches NOT/AND/OR/XOR and the shift/rotate family
// (§4.6 "Bitwise"), all integer-only.
func (c *CPU) execBitwise(instr instruction) error {
	dst := instr.operands[0].reg
	width := dst.Width()
	a, err := c.readInt(dst)
	if err != nil {
		return err
	}

	switch instr.code {
	case opcode.NOT:
		result := (^a) & maskForWidth(width)
		c.setZN(result, width)
		c.setC(false)
		c.setO(false)
		return c.writeInt(dst, result)

	case opcode.ANDR, opcode.ANDI, opcode.ORR, opcode.ORI, opcode.XORR, opcode.XORI:
		b, err := c.operandValue(instr.operands[1])
		if err != nil {
			return err
		}
		var result uint32
		switch instr.code {
		case opcode.ANDR, opcode.ANDI:
			result = a & b
		case opcode.ORR, opcode.ORI:
			result = a | b
		default:
			result = a ^ b
		}
		result &= maskForWidth(width)
		c.setZN(result, width)
		c.setC(false)
		c.setO(false)
		return c.writeInt(dst, result)
	}

	// Shifts and rotates: operand 1 is either a register (R form) or a
	// Lit8 immediate (I form) holding the shift/rotate amount.
	amount, err := c.shiftAmount(instr.operands[1])
	if err != nil {
		return err
	}

	var result uint32
	var carryOut bool
	haveCarry := true

	switch instr.code {
	case opcode.LSHIFTR, opcode.LSHIFTI:
		result, carryOut = lshift(a, amount, width)
	case opcode.URSHIFTR, opcode.URSHIFTI:
		result, carryOut = urshift(a, amount, width)
	case opcode.SRSHIFTR, opcode.SRSHIFTI:
		result, carryOut = srshift(a, amount, width)
	case opcode.LROTR, opcode.LROTI:
		result = lrot(a, amount, width)
		haveCarry = false
	case opcode.RROTR, opcode.RROTI:
		result = rrot(a, amount, width)
		haveCarry = false
	case opcode.LROTCARRYR, opcode.LROTCARRYI:
		result, carryOut = lrotcarry(a, c.carry(), amount, width)
	case opcode.RROTCARRYR, opcode.RROTCARRYI:
		result, carryOut = rrotcarry(a, c.carry(), amount, width)
	default:
		return illegalOp()
	}

	c.setZN(result, width)
	if haveCarry {
		c.setC(carryOut)
	}
	return c.writeInt(dst, result)
}

func (c *CPU) shiftAmount(op operand) (uint, error) {
	if op.kind == opcode.Reg {
		v, err := c.readInt(op.reg)
		if err != nil {
			return 0, err
		}
		return uint(v), nil
	}
	return uint(op.value), nil
}

func lshift(v uint32, n uint, width int) (result uint32, carryOut bool) {
	mask := maskForWidth(width)
	wBits := uint(width * 8)
	v &= mask
	switch {
	case n == 0:
		return v, false
	case n > wBits:
		return 0, false
	case n == wBits:
		return 0, (v>>(wBits-n))&1 != 0
	default:
		return (v << n) & mask, (v>>(wBits-n))&1 != 0
	}
}

func urshift(v uint32, n uint, width int) (result uint32, carryOut bool) {
	mask := maskForWidth(width)
	wBits := uint(width * 8)
	v &= mask
	switch {
	case n == 0:
		return v, false
	case n > wBits:
		return 0, false
	case n == wBits:
		return 0, (v>>(n-1))&1 != 0
	default:
		return v >> n, (v>>(n-1))&1 != 0
	}
}

func srshift(v uint32, n uint, width int) (result uint32, carryOut bool) {
	mask := maskForWidth(width)
	wBits := uint(width * 8)
	v &= mask
	neg := isNeg(v, width)
	if n == 0 {
		return v, false
	}
	if n >= wBits {
		// At n == width the last bit shifted out is the sign bit.
		carryOut = n == wBits && neg
		if neg {
			return mask, carryOut
		}
		return 0, carryOut
	}
	signed := signExtend(v, width)
	result = uint32(signed>>n) & mask
	carryOut = (v>>(n-1))&1 != 0
	return
}

func lrot(v uint32, n uint, width int) uint32 {
	mask := maskForWidth(width)
	wBits := uint(width * 8)
	v &= mask
	nn := n % wBits
	if nn == 0 {
		return v
	}
	return ((v << nn) | (v >> (wBits - nn))) & mask
}

func rrot(v uint32, n uint, width int) uint32 {
	mask := maskForWidth(width)
	wBits := uint(width * 8)
	v &= mask
	nn := n % wBits
	if nn == 0 {
		return v
	}
	return ((v >> nn) | (v << (wBits - nn))) & mask
}

func lrotcarry(v uint32, carryIn bool, n uint, width int) (result uint32, carryOut bool) {
	wBits := uint(width * 8)
	total := wBits + 1
	nn := n % total
	var c uint64
	if carryIn {
		c = 1
	}
	ext := (c << wBits) | uint64(v&maskForWidth(width))
	if nn != 0 {
		ext = ((ext << nn) | (ext >> (total - nn))) & ((uint64(1) << total) - 1)
	}
	result = uint32(ext) & maskForWidth(width)
	carryOut = (ext>>wBits)&1 != 0
	return
}

func rrotcarry(v uint32, carryIn bool, n uint, width int) (result uint32, carryOut bool) {
	wBits := uint(width * 8)
	total := wBits + 1
	nn := n % total
	var c uint64
	if carryIn {
		c = 1
	}
	ext := (c << wBits) | uint64(v&maskForWidth(width))
	if nn != 0 {
		ext = ((ext >> nn) | (ext << (total - nn))) & ((uint64(1) << total) - 1)
	}
	result = uint32(ext) & maskForWidth(width)
	carryOut = (ext>>wBits)&1 != 0
	return
}
