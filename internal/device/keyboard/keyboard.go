// Package keyboard implements the Simulatron keyboard device: a one-byte
// key buffer and a one-byte metadata register, both read-only from the
// guest (§6). Capturing host keystrokes is explicitly out of scope (§1);
// this package exposes Inject, the interface a front end uses to deliver a
// structured key event.
package keyboard

import "github.com/cjriches/simulatron/internal/device"

const (
	keyOff  = 0
	metaOff = 1

	// Metadata bit layout: bit 0 ctrl held, bit 1 alt held.
	metaCtrl = 1 << 0
	metaAlt  = 1 << 1
)

// Event is the structured key event a display/keyboard front end produces
// (§6 "Keyboard interface to host").
type Event struct {
	Key  byte
	Ctrl bool
	Alt  bool
}

// Keyboard holds the latched key buffer/metadata and raises the keyboard
// interrupt (§6) on every injected event.
type Keyboard struct {
	key  byte
	meta byte
	intc device.InterruptRaiser
	irq  int
}

// New constructs a Keyboard that raises interrupt number irq (Keyboard,
// per the interrupt number table, §6) on intc whenever a key arrives.
func New(intc device.InterruptRaiser, irq int) *Keyboard {
	return &Keyboard{intc: intc, irq: irq}
}

func (k *Keyboard) Name() string { return "keyboard" }

func (k *Keyboard) ReadReg(off uint32) (byte, bool) {
	switch off {
	case keyOff:
		return k.key, true
	case metaOff:
		return k.meta, true
	default:
		return 0, false
	}
}

// WriteReg always fails: both registers are read-only (§6).
func (k *Keyboard) WriteReg(uint32, byte) bool { return false }

func (k *Keyboard) Shutdown() {}

// Inject latches a host key event and raises the keyboard interrupt.
func (k *Keyboard) Inject(e Event) {
	k.key = e.Key
	var meta byte
	if e.Ctrl {
		meta |= metaCtrl
	}
	if e.Alt {
		meta |= metaAlt
	}
	k.meta = meta
	k.intc.Raise(k.irq)
}
