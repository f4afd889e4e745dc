// Package disasm implements a best-effort, one-instruction-at-a-time
// mnemonic formatter used only by the monitor's `examine -i` command
// (SUPPLEMENTED FEATURES item 3). It carries no execution semantics of
// its own: it reads the same opcode table the CPU decodes against and
// renders the operands it finds, but never traps or raises an interrupt
// on a malformed byte sequence — it just prints what it can.
package disasm

import (
	"fmt"
	"strings"

	"github.com/cjriches/simulatron/internal/bus"
	"github.com/cjriches/simulatron/internal/opcode"
)

// Format renders the single instruction at addr as text, and returns the
// address immediately following it (mirroring the CPU's own decode
// bounds, so a caller can walk a range with repeated calls). An unknown
// opcode byte or a read failure renders as a DB (define-byte) fallback
// rather than returning an error — the disassembler has no fault model.
func Format(mem bus.Reader, addr uint32) (string, uint32) {
	opByte, err := mem.ReadByte(addr)
	if err != nil {
		return fmt.Sprintf("%08X: <unreadable>", addr), addr + 1
	}

	info, ok := opcode.Table[opByte]
	if !ok {
		return fmt.Sprintf("%08X: DB %#02x", addr, opByte), addr + 1
	}

	cur := addr + 1
	var parts []string
	lastRegWidth := 4
	for _, kind := range info.Operands {
		switch kind {
		case opcode.Reg:
			b, err := mem.ReadByte(cur)
			if err != nil {
				parts = append(parts, "?")
				cur++
				continue
			}
			ref := regRef(b)
			lastRegWidth = ref.width()
			parts = append(parts, ref.String())
			cur++

		case opcode.Lit8:
			b, err := mem.ReadByte(cur)
			if err != nil {
				b = 0
			}
			parts = append(parts, fmt.Sprintf("%#x", b))
			cur++

		case opcode.VarLit:
			v, next := readWidth(mem, cur, lastRegWidth)
			parts = append(parts, fmt.Sprintf("%#x", v))
			cur = next

		case opcode.LitWord, opcode.Addr:
			v, next := readWidth(mem, cur, 4)
			parts = append(parts, fmt.Sprintf("%#08x", v))
			cur = next
		}
	}

	text := info.Mnemonic
	if len(parts) > 0 {
		text += " " + strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%08X: %s", addr, text), cur
}

// readWidth reads a width-byte big-endian value starting at addr,
// zero-filling any byte disasm can't read.
func readWidth(mem bus.Reader, addr uint32, width int) (uint32, uint32) {
	var v uint32
	for i := 0; i < width; i++ {
		b, err := mem.ReadByte(addr + uint32(i))
		if err != nil {
			b = 0
		}
		v = v<<8 | uint32(b)
	}
	return v, addr + uint32(width)
}

// regRef mirrors internal/cpu's RegRef byte layout (§6) closely enough to
// print a register name; it is a read-only render, not a second
// authoritative copy of the encoding's semantics.
type regRef byte

func (r regRef) width() int {
	if int(r)&0x0F >= 8 || r.float() {
		return 4
	}
	switch (byte(r) & 0x60) >> 5 {
	case 1:
		return 2
	case 2:
		return 1
	default:
		return 4
	}
}

func (r regRef) float() bool { return byte(r)&0x80 != 0 && int(r)&0x0F < 8 }

func (r regRef) String() string {
	n := int(r) & 0x0F
	if n >= 8 {
		names := [...]string{"FLAGS", "USPR", "KSPR", "PDPR", "IMR", "PFSR"}
		return names[n-8]
	}
	if r.float() {
		return fmt.Sprintf("f%d", n)
	}
	switch r.width() {
	case 1:
		return fmt.Sprintf("r%db", n)
	case 2:
		return fmt.Sprintf("r%dh", n)
	default:
		return fmt.Sprintf("r%d", n)
	}
}
