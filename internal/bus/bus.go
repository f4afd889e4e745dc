// Package bus implements the Simulatron memory bus: it owns the physical
// region table and every device handle, classifies each byte address,
// enforces read/write/both/neither permissions, and dispatches to RAM or
// a device (§4.2, §6). Block instructions (BLOCKCOPY/BLOCKCMP/BLOCKSET)
// go through the bus byte by byte so permissions and device side effects
// apply uniformly and a fault partway through leaves the instruction
// restartable (§4.2, §8 "Block restart").
package bus

import (
	"encoding/binary"
	"fmt"

	"github.com/cjriches/simulatron/internal/device"
	"github.com/cjriches/simulatron/internal/device/rom"
	"github.com/cjriches/simulatron/internal/memory"
)

// Direction is the permitted access direction for a physical region.
type Direction int

const (
	Neither Direction = iota
	ReadOnly
	WriteOnly
	ReadWrite
)

func (d Direction) allows(write bool) bool {
	switch d {
	case ReadWrite:
		return true
	case ReadOnly:
		return !write
	case WriteOnly:
		return write
	default:
		return false
	}
}

// Fixed physical map boundaries (§6).
const (
	VectorStart  = 0x00000000
	VectorEnd    = 0x0000001F
	Reserved1Start = 0x00000020
	Reserved1End   = 0x0000003F
	ROMStart     = 0x00000040
	ROMEnd       = 0x0000023F
	ROMSize      = ROMEnd - ROMStart + 1 // 512

	DisplayCharsStart = 0x00000240
	DisplayCharsEnd   = 0x00000A0F
	DisplayFgStart    = 0x00000A10
	DisplayFgEnd      = 0x000011DF
	DisplayBgStart    = 0x000011E0
	DisplayBgEnd      = 0x000019AF

	KeyboardKeyAddr  = 0x000019B0
	KeyboardMetaAddr = 0x000019B1
	Reserved2Start   = 0x000019B2
	Reserved2End     = 0x00001FEB

	DiskARegStart = 0x00001FEC
	DiskARegEnd   = 0x00001FF5
	DiskBRegStart = 0x00001FF6
	DiskBRegEnd   = 0x00001FFF

	DiskADataStart = 0x00002000
	DiskADataEnd   = 0x00002FFF
	DiskBDataStart = 0x00003000
	DiskBDataEnd   = 0x00003FFF

	RAMStart = memory.Base
)

// ErrIllegalOp is returned when an access violates the region's permitted
// direction, touches a reserved region, or otherwise cannot be serviced.
// It carries no further detail; the CPU is responsible for translating it
// into interrupt 0 with PC left at the faulting instruction (§7).
var ErrIllegalOp = fmt.Errorf("bus: illegal operation")

// Reader is the minimal byte-at-a-time view of physical memory the
// disassembler needs; *Bus satisfies it directly.
type Reader interface {
	ReadByte(addr uint32) (byte, error)
}

// RegDevice is a memory-mapped register window (§6 device registers).
type RegDevice interface {
	device.Device
	ReadReg(off uint32) (byte, bool)
	WriteReg(off uint32, b byte) bool
}

// DataWindow is a device that additionally exposes a raw byte buffer
// (the disk controllers' 4 KiB copy-in/copy-out windows, §5).
type DataWindow interface {
	ReadData(off uint32) byte
	WriteData(off uint32, b byte)
}

// Bus wires together the fixed region map, the attached devices, and the
// RAM provider.
type Bus struct {
	rom *rom.ROM

	display   RegDevice
	keyboard  RegDevice
	diskA     RegDevice
	diskB     RegDevice
	diskAData DataWindow
	diskBData DataWindow

	vector [VectorEnd - VectorStart + 1]byte
	ram    memory.Provider
}

// New constructs a Bus. Devices may be nil (e.g. in unit tests that only
// exercise RAM/ROM); an access to a nil device's region raises illegal-op,
// since a region with no device behind it cannot honour its direction.
func New(ram memory.Provider) *Bus {
	return &Bus{ram: ram, rom: rom.New()}
}

// LoadROM installs a 512-byte ROM image (§6). It is a host-level setup
// step, not a bus operation subject to permissions.
func (b *Bus) LoadROM(image []byte) error {
	return b.rom.Load(image)
}

// AttachDisplay, AttachKeyboard, AttachDiskA, AttachDiskB wire a concrete
// device into its fixed region.
func (b *Bus) AttachDisplay(d RegDevice)  { b.display = d }
func (b *Bus) AttachKeyboard(d RegDevice) { b.keyboard = d }

func (b *Bus) AttachDiskA(d RegDevice, data DataWindow) {
	b.diskA = d
	b.diskAData = data
}

func (b *Bus) AttachDiskB(d RegDevice, data DataWindow) {
	b.diskB = d
	b.diskBData = data
}

// ReadByte reads one byte from the given physical address, enforcing the
// region's direction.
func (b *Bus) ReadByte(addr uint32) (byte, error) {
	return b.access(addr, 0, false)
}

// WriteByte writes one byte to the given physical address, enforcing the
// region's direction.
func (b *Bus) WriteByte(addr uint32, v byte) error {
	_, err := b.access(addr, v, true)
	return err
}

// ReadPhysicalWord reads a 4-byte big-endian word directly from RAM,
// bypassing bus permission checks. Used only by the MMU to walk page
// tables (§4.3), which always live in RAM and are not subject to guest
// read/write permissions.
func (b *Bus) ReadPhysicalWord(addr uint32) (uint32, error) {
	buf, err := b.ram.ReadBlock(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

// access is the single dispatch point used by ReadByte/WriteByte.
func (b *Bus) access(addr uint32, v byte, write bool) (byte, error) {
	switch {
	case addr <= VectorEnd:
		if !ReadWrite.allows(write) {
			return 0, ErrIllegalOp // unreachable: ReadWrite allows both
		}
		if write {
			b.vector[addr-VectorStart] = v
			return 0, nil
		}
		return b.vector[addr-VectorStart], nil

	case addr >= Reserved1Start && addr <= Reserved1End:
		return 0, ErrIllegalOp

	case addr >= ROMStart && addr <= ROMEnd:
		if !ReadOnly.allows(write) {
			return 0, ErrIllegalOp
		}
		return b.rom.ReadByte(addr - ROMStart), nil

	case addr >= DisplayCharsStart && addr <= DisplayBgEnd:
		if !WriteOnly.allows(write) {
			return 0, ErrIllegalOp
		}
		return b.regAccess(b.display, addr-DisplayCharsStart, v, write)

	case addr == KeyboardKeyAddr || addr == KeyboardMetaAddr:
		if !ReadOnly.allows(write) {
			return 0, ErrIllegalOp
		}
		return b.regAccess(b.keyboard, addr-KeyboardKeyAddr, v, write)

	case addr >= Reserved2Start && addr <= Reserved2End:
		return 0, ErrIllegalOp

	case addr >= DiskARegStart && addr <= DiskARegEnd:
		return b.diskRegAccess(b.diskA, addr-DiskARegStart, v, write)

	case addr >= DiskBRegStart && addr <= DiskBRegEnd:
		return b.diskRegAccess(b.diskB, addr-DiskBRegStart, v, write)

	case addr >= DiskADataStart && addr <= DiskADataEnd:
		return b.dataAccess(b.diskAData, addr-DiskADataStart, v, write)

	case addr >= DiskBDataStart && addr <= DiskBDataEnd:
		return b.dataAccess(b.diskBData, addr-DiskBDataStart, v, write)

	default: // RAM
		if write {
			return 0, b.ram.WriteByte(addr, v)
		}
		return b.ram.ReadByte(addr)
	}
}

// diskRegAccess enforces the per-byte-offset direction within a disk
// register window: status and blocks-available are read-only; block
// address and command are write-only (§6).
func (b *Bus) diskRegAccess(d RegDevice, off uint32, v byte, write bool) (byte, error) {
	// Offsets 0 (status) and 1-4 (blocks available) are read-only;
	// 5-8 (block address) and 9 (command) are write-only.
	readOnly := off <= 4
	dir := WriteOnly
	if readOnly {
		dir = ReadOnly
	}
	if !dir.allows(write) {
		return 0, ErrIllegalOp
	}
	return b.regAccess(d, off, v, write)
}

func (b *Bus) regAccess(d RegDevice, off uint32, v byte, write bool) (byte, error) {
	if d == nil {
		return 0, ErrIllegalOp
	}
	if write {
		if !d.WriteReg(off, v) {
			return 0, ErrIllegalOp
		}
		return 0, nil
	}
	got, ok := d.ReadReg(off)
	if !ok {
		return 0, ErrIllegalOp
	}
	return got, nil
}

func (b *Bus) dataAccess(w DataWindow, off uint32, v byte, write bool) (byte, error) {
	if w == nil {
		return 0, ErrIllegalOp
	}
	if write {
		w.WriteData(off, v)
		return 0, nil
	}
	return w.ReadData(off), nil
}

// Vector returns the 4-byte big-endian interrupt vector entry n (§4.7
// step 7): the CPU reads it directly rather than through ReadByte since
// the vector region's own direction (Both) would otherwise require four
// redundant permission checks for a privileged CPU-internal operation.
func (b *Bus) Vector(n int) uint32 {
	return binary.BigEndian.Uint32(b.vector[n*4 : n*4+4])
}

// SetVector installs interrupt vector entry n (used at boot/by tests).
func (b *Bus) SetVector(n int, addr uint32) {
	binary.BigEndian.PutUint32(b.vector[n*4:n*4+4], addr)
}
