// Package timer implements the Simulatron internal periodic timer (§4.9
// "TIMER n"). Unlike the other devices, the timer has no memory-mapped
// registers of its own — it is driven purely by the privileged TIMER
// instruction and raises the timer interrupt on the controller every n
// milliseconds of wall time.
package timer

import (
	"time"

	"github.com/cjriches/simulatron/internal/device"
	"github.com/cjriches/simulatron/internal/sched"
)

// Timer raises irq on intc every period, until Set(0) disables it or
// Stop is called.
type Timer struct {
	intc  device.InterruptRaiser
	irq   int
	sched *sched.Scheduler
	tok   sched.Token
}

// New constructs a disabled Timer (period 0).
func New(intc device.InterruptRaiser, irq int, scheduler *sched.Scheduler) *Timer {
	return &Timer{intc: intc, irq: irq, sched: scheduler}
}

// Set changes the timer period. A new period begins counting from now
// (§5); 0 disables the timer without raising a final interrupt.
func (t *Timer) Set(periodMillis uint32) {
	t.sched.Cancel(t.tok)
	if periodMillis == 0 {
		return
	}
	t.arm(time.Duration(periodMillis) * time.Millisecond)
}

func (t *Timer) arm(period time.Duration) {
	t.tok = t.sched.Schedule(period, func() {
		t.intc.Raise(t.irq)
		t.arm(period)
	})
}

// Stop cancels any pending tick, used when the machine halts.
func (t *Timer) Stop() {
	t.sched.Cancel(t.tok)
}
