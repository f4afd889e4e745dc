package cpu

// readInt reads an integer value from any register reference, general-
// purpose or special, enforcing the privileged-register rule (§4.5
// "Privilege": reading a privileged register in user mode is illegal).
func (c *CPU) readInt(ref RegRef) (uint32, error) {
	if ref.IsSpecial() {
		if ref.Privileged() {
			if err := c.privilegeCheck(); err != nil {
				return 0, err
			}
		}
		switch ref.Num() {
		case SpecialFlags:
			return uint32(c.Flags()), nil
		case SpecialUSPR:
			return c.uspr, nil
		case SpecialKSPR:
			return c.kspr, nil
		case SpecialPDPR:
			return c.pdpr, nil
		case SpecialIMR:
			return uint32(c.intc.IMR()), nil
		case SpecialPFSR:
			return c.pfsr, nil
		}
	}
	return c.ReadInt(ref), nil
}

func (c *CPU) writeInt(ref RegRef, v uint32) error {
	if ref.IsSpecial() {
		if ref.Privileged() {
			if err := c.privilegeCheck(); err != nil {
				return err
			}
		}
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
		return nil
	}
	c.WriteInt(ref, v)
	return nil
}
