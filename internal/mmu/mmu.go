// Package mmu implements the Simulatron two-level virtual-to-physical
// translation unit (§3 "Page directory / page table", §4.3). It is
// consulted only when the CPU is in user mode; kernel-mode addresses pass
// straight through to the bus.
package mmu

import "encoding/binary"

// Intent is the kind of access being translated; the MMU checks a
// different permission bit depending on it.
type Intent int

const (
	Fetch Intent = iota
	Read
	Write
)

// Fault codes, per §3 "Faults".
const (
	FaultInvalidPage    = 0 // V=0 in directory or table entry
	FaultIllegalAccess  = 1 // R/W/E bit denied for the intent
	FaultNotPresent     = 2 // V=1, P=0
	FaultCopyOnWrite    = 3 // W=1, C=1, on a write
)

// Page-table entry bit layout (§3), low to high.
const (
	bitV = 1 << 0 // valid
	bitP = 1 << 1 // present
	bitR = 1 << 2 // read
	bitW = 1 << 3 // write
	bitE = 1 << 4 // execute
	bitC = 1 << 5 // copy-on-write
)

const frameMask = 0xFFFFF000

// Fault carries a page-fault code to be published into PFSR by the CPU.
// The MMU never sets PFSR or raises interrupts itself (§4.3).
type Fault struct {
	Code uint32
}

func (f *Fault) Error() string { return "mmu: page fault" }

// Bus is the minimal physical-memory accessor the MMU needs to walk page
// tables: plain 4-byte big-endian reads, bypassing all bus permissions
// (directory/table entries live in RAM and the walk is a privileged
// operation performed on the CPU's behalf, not a guest memory access).
type Bus interface {
	ReadPhysicalWord(addr uint32) (uint32, error)
}

// MMU performs the translation described in §3/§4.3 given a page
// directory pointer register value.
type MMU struct {
	bus Bus
}

// New constructs an MMU backed by the given physical bus.
func New(bus Bus) *MMU {
	return &MMU{bus: bus}
}

// Translate walks the page directory rooted at pdpr for the given virtual
// address and intent, returning either a physical address or a Fault.
func Translate(bus Bus, pdpr uint32, vaddr uint32, intent Intent) (uint32, *Fault) {
	dir := vaddr >> 22
	tab := (vaddr >> 12) & 0x3FF
	off := vaddr & 0xFFF

	dirEntryAddr := pdpr + 4*dir
	dirWord, err := bus.ReadPhysicalWord(dirEntryAddr)
	if err != nil {
		return 0, &Fault{Code: FaultInvalidPage}
	}
	if dirWord&bitV == 0 {
		return 0, &Fault{Code: FaultInvalidPage}
	}
	tableFrame := dirWord & frameMask

	tabEntryAddr := tableFrame + 4*tab
	tabWord, err := bus.ReadPhysicalWord(tabEntryAddr)
	if err != nil {
		return 0, &Fault{Code: FaultInvalidPage}
	}
	if tabWord&bitV == 0 {
		return 0, &Fault{Code: FaultInvalidPage}
	}
	if tabWord&bitP == 0 {
		return 0, &Fault{Code: FaultNotPresent}
	}

	var required uint32
	switch intent {
	case Fetch:
		required = bitE
	case Read:
		required = bitR
	case Write:
		required = bitW
	}
	if tabWord&required == 0 {
		return 0, &Fault{Code: FaultIllegalAccess}
	}

	if intent == Write && tabWord&bitW != 0 && tabWord&bitC != 0 {
		return 0, &Fault{Code: FaultCopyOnWrite}
	}

	frame := tabWord & frameMask
	return frame | off, nil
}

// Translate is the instance-method form, for callers that hold an *MMU.
func (m *MMU) Translate(pdpr, vaddr uint32, intent Intent) (uint32, *Fault) {
	return Translate(m.bus, pdpr, vaddr, intent)
}

// DecodeEntry splits a directory or table entry into its constituent
// fields. Nothing in this repository calls it.
func DecodeEntry(word uint32) (frame uint32, userBits uint8, c, e, w, r, p, v bool) {
	frame = word & frameMask
	userBits = uint8((word >> 9) & 0x7)
	c = word&bitC != 0
	e = word&bitE != 0
	w = word&bitW != 0
	r = word&bitR != 0
	p = word&bitP != 0
	v = word&bitV != 0
	return
}

// EncodeVectorAddress reads the 4-byte big-endian interrupt vector entry n
// (§4.7 step 7) from a raw byte slice. Nothing in this repository calls
// it; the CPU reads vectors through the bus's Vector method.
func EncodeVectorAddress(vector []byte, n int) uint32 {
	return binary.BigEndian.Uint32(vector[n*4 : n*4+4])
}
