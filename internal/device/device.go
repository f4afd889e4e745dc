// Package device defines the shared contract memory-mapped devices present
// to the bus (§6), modeled on the teacher's channel-attached Device
// interface but specialised to Simulatron's flat memory-mapped-register
// devices rather than IBM channel-command devices.
package device

// Device is a memory-mapped register window. The bus calls ReadReg/WriteReg
// for every byte address that falls inside the device's region, with the
// address already translated to an offset within the device's own window.
// A device that has no meaningful response to a direction (e.g. a
// write-only display register read back) returns ok=false; the bus turns
// that into an illegal-op fault (bus.ErrIllegalOp).
type Device interface {
	// Name identifies the device for logging and the monitor.
	Name() string

	// ReadReg reads one byte at offset `off` within the device's window.
	ReadReg(off uint32) (byte, bool)

	// WriteReg writes one byte at offset `off` within the device's window.
	WriteReg(off uint32, b byte) bool

	// Shutdown releases any host resources (open files, watchers, timers)
	// held by the device. Called once, when the machine halts.
	Shutdown()
}

// InterruptRaiser is the minimal view of the interrupt controller a device
// needs: it may only raise, never service or mask, keeping the CPU the
// sole arbiter of priority (§4.4 note on cyclic references).
type InterruptRaiser interface {
	Raise(n int)
}
