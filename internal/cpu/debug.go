package cpu

// NewIntReg builds the register reference for general-purpose integer
// register num at the given width in bytes (1, 2, or 4). Exported for
// external callers (the monitor's examine/deposit commands) that need to
// construct a reference from a register name rather than decoding one
// from an instruction stream.
func NewIntReg(num, width int) RegRef {
	var w byte
	switch width {
	case 2:
		w = 1
	case 1:
		w = 2
	}
	return RegRef(w<<5 | byte(num))
}

// NewFloatReg builds the register reference for float register num.
func NewFloatReg(num int) RegRef { return RegRef(regFloatBit | byte(num)) }

// NewSpecialReg builds the register reference for one of the six special
// registers (one of the Special* constants).
func NewSpecialReg(num int) RegRef { return RegRef(byte(num)) }

// DebugReadInt reads any integer or special register reference, bypassing
// the privileged-register check: the operator's own debug access is not
// subject to the guest's privilege model (§4.5's privilege rule governs
// instructions the guest executes, not the monitor inspecting it from
// outside).
func (c *CPU) DebugReadInt(ref RegRef) uint32 {
	if ref.IsSpecial() {
		switch ref.Num() {
		case SpecialFlags:
			return uint32(c.Flags())
		case SpecialUSPR:
			return c.uspr
		case SpecialKSPR:
			return c.kspr
		case SpecialPDPR:
			return c.pdpr
		case SpecialIMR:
			return uint32(c.intc.IMR())
		case SpecialPFSR:
			return c.pfsr
		}
	}
	return c.ReadInt(ref)
}

// DebugWriteInt writes any integer or special register reference,
// bypassing the privileged-register check, for the monitor's deposit
// command.
func (c *CPU) DebugWriteInt(ref RegRef, v uint32) {
	if ref.IsSpecial() {
		switch ref.Num() {
		case SpecialFlags:
			c.SetFlags(uint16(v))
		case SpecialUSPR:
			c.uspr = v
		case SpecialKSPR:
			c.kspr = v
		case SpecialPDPR:
			c.pdpr = v
		case SpecialIMR:
			c.intc.SetIMR(uint16(v))
		case SpecialPFSR:
			c.pfsr = v
		}
		return
	}
	c.WriteInt(ref, v)
}
