package cpu

import (
	"fmt"

	"github.com/cjriches/simulatron/internal/intc"
)

// trap unwinds a partially-executed instruction back to Step, which turns
// it into an interrupt entry at the current (unadvanced) PC (§7
// "Propagation"). It is always handled within the same Step call that
// produced it; it never escapes CPU's exported API.
type trap struct {
	irq     int
	pfsr    uint32
	hasPFSR bool
}

func (t *trap) Error() string { return fmt.Sprintf("cpu: trap irq=%d", t.irq) }

func illegalOp() error { return &trap{irq: intc.IllegalOp} }

func divideByZero() error { return &trap{irq: intc.DivideByZero} }

func pageFault(code uint32) error {
	return &trap{irq: intc.PageFault, pfsr: code, hasPFSR: true}
}
