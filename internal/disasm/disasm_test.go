package disasm

import (
	"strings"
	"testing"

	"github.com/cjriches/simulatron/internal/opcode"
)

type flatMem [256]byte

func (m *flatMem) ReadByte(addr uint32) (byte, error) { return m[addr], nil }

func TestFormatHalt(t *testing.T) {
	mem := &flatMem{}
	mem[0] = opcode.HALT
	text, next := Format(mem, 0)
	if !strings.Contains(text, "HALT") {
		t.Fatalf("text = %q, want it to contain HALT", text)
	}
	if next != 1 {
		t.Fatalf("next = %d, want 1", next)
	}
}

func TestFormatAddImmediateAdvancesByRegisterWidth(t *testing.T) {
	mem := &flatMem{}
	mem[0] = opcode.ADDI
	mem[1] = 0x02 // r2, full width (4 bytes of VarLit follow)
	mem[2], mem[3], mem[4], mem[5] = 0, 0, 0, 7
	text, next := Format(mem, 0)
	if !strings.Contains(text, "ADD") || !strings.Contains(text, "r2") {
		t.Fatalf("text = %q, want ADD r2, ...", text)
	}
	if next != 6 {
		t.Fatalf("next = %d, want 6 (1 opcode + 1 reg + 4 literal)", next)
	}
}

func TestFormatUnknownOpcodeFallsBackToDB(t *testing.T) {
	mem := &flatMem{}
	mem[0] = 0xFF // not in the table
	text, next := Format(mem, 0)
	if !strings.Contains(text, "DB") {
		t.Fatalf("text = %q, want a DB fallback", text)
	}
	if next != 1 {
		t.Fatalf("next = %d, want 1", next)
	}
}

func TestFormatJumpPrintsAddress(t *testing.T) {
	mem := &flatMem{}
	mem[0] = opcode.JUMP
	mem[1], mem[2], mem[3], mem[4] = 0x00, 0x00, 0x01, 0x00
	text, next := Format(mem, 0)
	if !strings.Contains(text, "JUMP") || !strings.Contains(text, "0x00000100") {
		t.Fatalf("text = %q, want JUMP 0x00000100", text)
	}
	if next != 5 {
		t.Fatalf("next = %d, want 5", next)
	}
}
