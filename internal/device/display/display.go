// Package display implements the Simulatron display device: three
// write-only 2000-byte planes (character, foreground colour, background
// colour) covering a 25x80 character grid (§6). Rendering the grid onto a
// host window is explicitly out of scope (§1) — this package only holds
// and exposes the register state a front end would read to render it.
package display

const (
	Rows    = 25
	Cols    = 80
	Cells   = Rows * Cols // 2000
	charOff = 0
	fgOff   = Cells
	bgOff   = 2 * Cells
	// WindowSize is the size of the combined character+fg+bg register
	// window the bus maps at DisplayCharsStart (§6).
	WindowSize = 3 * Cells
)

// Display holds the three register planes. All access is single-threaded
// from the CPU's perspective (writes arrive through the bus); a
// front-end renderer reads a consistent snapshot via Cell.
type Display struct {
	chars [Cells]byte
	fg    [Cells]byte
	bg    [Cells]byte
}

// New returns an empty display (all cells zero, which renders as
// transparent/black per the front end's own convention — out of scope
// here per §1).
func New() *Display {
	return &Display{}
}

func (d *Display) Name() string { return "display" }

// ReadReg always fails: the display plane registers are write-only (§6).
func (d *Display) ReadReg(uint32) (byte, bool) { return 0, false }

func (d *Display) WriteReg(off uint32, b byte) bool {
	switch {
	case off < fgOff:
		d.chars[off-charOff] = b
	case off < bgOff:
		d.fg[off-fgOff] = b
	case off < WindowSize:
		d.bg[off-bgOff] = b
	default:
		return false
	}
	return true
}

func (d *Display) Shutdown() {}

// Cell returns the character byte and the decoded RGB colour bytes for
// cell i (row i/Cols, column i%Cols, §6), for a front end to render.
// Each colour byte is 00RRGGBB; channel values are in {0, 85, 170, 255}.
func (d *Display) Cell(i int) (ch byte, fgRGB, bgRGB [3]byte) {
	return d.chars[i], decodeColour(d.fg[i]), decodeColour(d.bg[i])
}

func decodeColour(b byte) [3]byte {
	levels := [4]byte{0, 85, 170, 255}
	r := (b >> 4) & 0x3
	g := (b >> 2) & 0x3
	bl := b & 0x3
	return [3]byte{levels[r], levels[g], levels[bl]}
}
