package bus

// BlockCopy copies length bytes from src to dst, lowest address first,
// one byte at a time through the bus so permissions and device side
// effects apply to every byte (§4.2, §4.6). If a byte access faults,
// BlockCopy stops immediately and returns the error; the caller (the CPU)
// is responsible for not having advanced PC yet, so the whole instruction
// restarts from scratch once the fault's handler returns (§8 "Block
// restart") rather than resuming mid-copy.
func (b *Bus) BlockCopy(dst, src, length uint32) error {
	for i := uint32(0); i < length; i++ {
		v, err := b.ReadByte(src + i)
		if err != nil {
			return err
		}
		if err := b.WriteByte(dst+i, v); err != nil {
			return err
		}
	}
	return nil
}

// BlockSet fills length bytes starting at dst with value.
func (b *Bus) BlockSet(dst uint32, value byte, length uint32) error {
	for i := uint32(0); i < length; i++ {
		if err := b.WriteByte(dst+i, value); err != nil {
			return err
		}
	}
	return nil
}

// BlockCmpResult is the outcome of BlockCmp: Equal mirrors the Z flag,
// FirstDiffNegative mirrors the N flag (sign of src1-src2 at the first
// differing byte, unsigned comparison, §4.6).
type BlockCmpResult struct {
	Equal             bool
	FirstDiffNegative bool
}

// BlockCmp compares length bytes at src1 and src2.
func (b *Bus) BlockCmp(src1, src2, length uint32) (BlockCmpResult, error) {
	for i := uint32(0); i < length; i++ {
		v1, err := b.ReadByte(src1 + i)
		if err != nil {
			return BlockCmpResult{}, err
		}
		v2, err := b.ReadByte(src2 + i)
		if err != nil {
			return BlockCmpResult{}, err
		}
		if v1 != v2 {
			return BlockCmpResult{Equal: false, FirstDiffNegative: v1 < v2}, nil
		}
	}
	return BlockCmpResult{Equal: true}, nil
}
