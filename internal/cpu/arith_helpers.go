package cpu

// maskForWidth returns the bitmask covering exactly width bytes.
func maskForWidth(width int) uint32 {
	switch width {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

func signBit(width int) uint32 {
	switch width {
	case 1:
		return 0x80
	case 2:
		return 0x8000
	default:
		return 0x80000000
	}
}

func isNeg(v uint32, width int) bool { return v&signBit(width) != 0 }

// signExtend widens a width-byte two's complement value to a full int64.
func signExtend(v uint32, width int) int64 {
	v &= maskForWidth(width)
	if isNeg(v, width) {
		return int64(v) - int64(maskForWidth(width)) - 1
	}
	return int64(v)
}

// addWithFlags adds a+b(+carryIn) at the given width, returning the
// masked result, the unsigned carry out, and the signed overflow (§4.6
// "Arithmetic").
func addWithFlags(a, b uint32, carryIn bool, width int) (result uint32, carry, overflow bool) {
	aw, bw := a&maskForWidth(width), b&maskForWidth(width)
	sum := uint64(aw) + uint64(bw)
	if carryIn {
		sum++
	}
	result = uint32(sum) & maskForWidth(width)
	carry = sum > uint64(maskForWidth(width))
	sameOperandSign := isNeg(aw, width) == isNeg(bw, width)
	overflow = sameOperandSign && isNeg(result, width) != isNeg(aw, width)
	return
}

// subWithFlags computes a-b(-borrowIn) at the given width, returning the
// masked result, the unsigned borrow, and the signed overflow.
func subWithFlags(a, b uint32, borrowIn bool, width int) (result uint32, borrow, overflow bool) {
	aw, bw := a&maskForWidth(width), b&maskForWidth(width)
	diff := int64(aw) - int64(bw)
	if borrowIn {
		diff--
	}
	borrow = diff < 0
	result = uint32(uint64(diff)) & maskForWidth(width)
	differentOperandSign := isNeg(aw, width) != isNeg(bw, width)
	overflow = differentOperandSign && isNeg(result, width) == isNeg(bw, width)
	return
}

// multWithOverflow multiplies a*b at the given width as an unsigned
// magnitude product, reporting whether the true product needed more bits
// than the destination width holds (§4.6 "MULT sets O if the result does
// not fit in the destination width").
func multWithOverflow(a, b uint32, width int) (result uint32, overflow bool) {
	aw, bw := uint64(a&maskForWidth(width)), uint64(b&maskForWidth(width))
	full := aw * bw
	result = uint32(full) & maskForWidth(width)
	overflow = full&^uint64(maskForWidth(width)) != 0
	return
}
