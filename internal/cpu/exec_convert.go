package cpu

import "github.com/cjriches/simulatron/internal/opcode"

// execConvert implements SCONVERT/UCONVERT (§4.6, §9): the only sanctioned
// int↔float transfers. SCONVERT takes a signed 32-bit register and
// produces its nearest float32; UCONVERT takes a float32 and produces its
// truncated-toward-zero signed 32-bit representation.
func (c *CPU) execConvert(instr instruction) error {
	dst := instr.operands[0].reg
	src := instr.operands[1].reg

	switch instr.code {
	case opcode.SCONVERT:
		if !dst.Float() || src.Float() {
			return illegalOp()
		}
		v, err := c.readInt(src)
		if err != nil {
			return err
		}
		c.WriteFloat(dst, float32(int32(v)))
		return nil

	case opcode.UCONVERT:
		if dst.Float() || !src.Float() {
			return illegalOp()
		}
		f := c.ReadFloat(src)
		result := uint32(int32(f))
		c.setZN(result, dst.Width())
		c.setC(false)
		c.setO(false)
		return c.writeInt(dst, result)
	}
	return illegalOp()
}
