package memory

// Dense allocates the entire RAM window once at construction. Reads and
// writes are constant time; the tradeoff is the full allocation up front,
// which is the right choice when the caller already knows it wants the
// whole address space resident (a small guest image, a test harness).
type Dense struct {
	data []byte
}

// NewDense allocates a Dense provider serving `size` bytes above Base.
func NewDense(size uint32) *Dense {
	return &Dense{data: make([]byte, size)}
}

func (d *Dense) Size() uint32 { return uint32(len(d.data)) }

func (d *Dense) ReadByte(addr uint32) (byte, error) {
	off, err := offset(addr, d.Size())
	if err != nil {
		return 0, err
	}
	return d.data[off], nil
}

func (d *Dense) WriteByte(addr uint32, b byte) error {
	off, err := offset(addr, d.Size())
	if err != nil {
		return err
	}
	d.data[off] = b
	return nil
}

func (d *Dense) ReadBlock(addr uint32, length uint32) ([]byte, error) {
	start, err := offset(addr, d.Size())
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	end := start + length
	if end < start || end > d.Size() {
		return nil, &ErrOutOfRange{Addr: addr + length - 1, Size: d.Size()}
	}
	out := make([]byte, length)
	copy(out, d.data[start:end])
	return out, nil
}

func (d *Dense) WriteBlock(addr uint32, data []byte) error {
	start, err := offset(addr, d.Size())
	if err != nil {
		return err
	}
	end := start + uint32(len(data))
	if end < start || end > d.Size() {
		return &ErrOutOfRange{Addr: addr + uint32(len(data)) - 1, Size: d.Size()}
	}
	copy(d.data[start:end], data)
	return nil
}
