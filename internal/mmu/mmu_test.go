package mmu

import "testing"

// fakeBus is a flat in-memory physical store used only to test the
// translation algorithm in isolation from the real bus.
type fakeBus struct {
	words map[uint32]uint32
}

func newFakeBus() *fakeBus { return &fakeBus{words: make(map[uint32]uint32)} }

func (b *fakeBus) ReadPhysicalWord(addr uint32) (uint32, error) {
	return b.words[addr], nil
}

func (b *fakeBus) setDir(pdpr uint32, dir uint32, word uint32) {
	b.words[pdpr+4*dir] = word
}

func (b *fakeBus) setTab(tableFrame, tab, word uint32) {
	b.words[tableFrame+4*tab] = word
}

const pdpr = 0x10000

func TestTranslateInvalidDirectory(t *testing.T) {
	b := newFakeBus() // directory[0] left at V=0
	_, f := Translate(b, pdpr, 0x00000000, Fetch)
	if f == nil || f.Code != FaultInvalidPage {
		t.Fatalf("want invalid-page fault, got %+v", f)
	}
}

func TestTranslateNotPresent(t *testing.T) {
	b := newFakeBus()
	const tableFrame = 0x20000
	b.setDir(pdpr, 0, tableFrame|bitV)
	b.setTab(tableFrame, 0, bitV) // P=0

	_, f := Translate(b, pdpr, 0x00000000, Read)
	if f == nil || f.Code != FaultNotPresent {
		t.Fatalf("want not-present fault, got %+v", f)
	}
}

func TestTranslateIllegalAccess(t *testing.T) {
	b := newFakeBus()
	const tableFrame = 0x20000
	const frame = 0x30000
	b.setDir(pdpr, 0, tableFrame|bitV)
	b.setTab(tableFrame, 0, frame|bitV|bitP|bitR) // no W, no E

	if _, f := Translate(b, pdpr, 0x00000100, Write); f == nil || f.Code != FaultIllegalAccess {
		t.Fatalf("want illegal-access fault on write, got %+v", f)
	}
	if _, f := Translate(b, pdpr, 0x00000100, Fetch); f == nil || f.Code != FaultIllegalAccess {
		t.Fatalf("want illegal-access fault on fetch, got %+v", f)
	}
	if phys, f := Translate(b, pdpr, 0x00000100, Read); f != nil {
		t.Fatalf("want success, got %+v", f)
	} else if phys != frame|0x100 {
		t.Fatalf("got phys %#x", phys)
	}
}

func TestTranslateCopyOnWrite(t *testing.T) {
	b := newFakeBus()
	const tableFrame = 0x20000
	const frame = 0x30000
	b.setDir(pdpr, 0, tableFrame|bitV)
	b.setTab(tableFrame, 1, frame|bitV|bitP|bitR|bitW|bitC)

	vaddr := uint32(1<<12) | 0x055
	_, f := Translate(b, pdpr, vaddr, Write)
	if f == nil || f.Code != FaultCopyOnWrite {
		t.Fatalf("want copy-on-write fault, got %+v", f)
	}
	// A read of the same page is unaffected by C.
	if _, f := Translate(b, pdpr, vaddr, Read); f != nil {
		t.Fatalf("want success on read of COW page, got %+v", f)
	}
}

func TestTranslateAddressSplit(t *testing.T) {
	b := newFakeBus()
	const tableFrame = 0x20000
	const frame = 0x40000
	dir := uint32(3)
	tab := uint32(7)
	off := uint32(0x123)
	b.setDir(pdpr, dir, tableFrame|bitV)
	b.setTab(tableFrame, tab, frame|bitV|bitP|bitR|bitW|bitE)

	vaddr := (dir << 22) | (tab << 12) | off
	phys, f := Translate(b, pdpr, vaddr, Read)
	if f != nil {
		t.Fatalf("unexpected fault %+v", f)
	}
	if phys != frame|off {
		t.Fatalf("got %#x want %#x", phys, frame|off)
	}
}
