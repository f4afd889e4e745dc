// Package rom implements the Simulatron boot ROM: a fixed 512-byte
// read-only window loaded once at machine boot from a host image file
// (§6). It is deliberately the simplest device in the tree — no
// registers, no interrupts, just a byte array the bus reads straight
// through.
package rom

import "fmt"

// Size is the fixed ROM window size (§6: addresses 0x40-0x23F).
const Size = 512

// ROM holds the loaded boot image. The zero value is an all-zero ROM,
// matching a machine that has not yet had an image installed.
type ROM struct {
	image [Size]byte
}

// New returns an empty ROM.
func New() *ROM { return &ROM{} }

// Load installs a boot image. The image must be exactly Size bytes;
// Simulatron's ROM window has no notion of a partial or padded image.
func (r *ROM) Load(image []byte) error {
	if len(image) != Size {
		return fmt.Errorf("rom: image must be exactly %d bytes, got %d", Size, len(image))
	}
	copy(r.image[:], image)
	return nil
}

// ReadByte returns the byte at offset off within the ROM window.
func (r *ROM) ReadByte(off uint32) byte { return r.image[off] }
