// Package sched implements a small event scheduler used by devices that
// complete work after a simulated delay (the disk controllers' command
// completion, the timer's periodic tick). Each event is its own wall
// clock timer (time.AfterFunc), tracked in a set so it can be cancelled;
// there is no CPU cycle counting, since Simulatron makes no
// cycle-accurate timing guarantee (§1 Non-goals).
package sched

import (
	"sync"
	"time"
)

// Callback is invoked when a scheduled event fires.
type Callback func()

// handle lets a caller cancel a scheduled event before it fires.
type handle struct {
	timer *time.Timer
}

// Scheduler runs callbacks after a delay on their own goroutine (via
// time.AfterFunc); it exists mainly to give devices a single place to
// track and cancel their own in-flight timers. Devices hold a concrete
// *Scheduler, so tests drive them with real wall-clock delays.
type Scheduler struct {
	mu      sync.Mutex
	handles map[*handle]struct{}
}

// New returns an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{handles: make(map[*handle]struct{})}
}

// Token identifies a scheduled event so it can be cancelled.
type Token struct {
	h *handle
}

// Schedule runs cb after delay elapses, unless cancelled first.
func (s *Scheduler) Schedule(delay time.Duration, cb Callback) Token {
	h := &handle{}
	s.mu.Lock()
	s.handles[h] = struct{}{}
	s.mu.Unlock()

	h.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, live := s.handles[h]
		delete(s.handles, h)
		s.mu.Unlock()
		if live {
			cb()
		}
	})
	return Token{h: h}
}

// Cancel stops a previously scheduled event if it has not yet fired.
func (s *Scheduler) Cancel(t Token) {
	if t.h == nil {
		return
	}
	s.mu.Lock()
	_, live := s.handles[t.h]
	delete(s.handles, t.h)
	s.mu.Unlock()
	if live {
		t.h.timer.Stop()
	}
}

// Stop cancels every outstanding event, used when the machine halts (§5
// "HALT is terminal and aborts any in-flight device activity").
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h := range s.handles {
		h.timer.Stop()
	}
	s.handles = make(map[*handle]struct{})
}
