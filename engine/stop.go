package engine

import (
	"sync/atomic"
	"time"
)

// StopController coordinates cooperative cancellation between the protocol
// thread and the searcher threads. The flag is monotonic within a search:
// once set it stays set until Arm is called for the next search.
type StopController struct {
	stop     atomic.Bool
	deadline time.Time
}

// Arm clears the flag and installs the hard deadline (zero time means no
// deadline). Called by the driver before searcher threads start.
func (s *StopController) Arm(deadline time.Time) {
	s.deadline = deadline
	s.stop.Store(false)
}

// Stopped reports the flag without touching the clock; cheap enough for
// every node.
func (s *StopController) Stopped() bool {
	return s.stop.Load()
}

// Poll checks the flag and the deadline. Hitting the deadline latches the
// flag so that later nodes short-circuit on the cheap path.
func (s *StopController) Poll() bool {
	if s.stop.Load() {
		return true
	}
	if !s.deadline.IsZero() && !time.Now().Before(s.deadline) {
		s.stop.Store(true)
		return true
	}
	return false
}

// ForceStop is called from outside the search: UCI "stop"/"quit" or a
// clock wall hit.
func (s *StopController) ForceStop() {
	s.stop.Store(true)
}
