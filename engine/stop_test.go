package engine

import (
	"testing"
	"time"
)

func TestStopControllerFlagIsMonotonic(t *testing.T) {
	var s StopController
	s.Arm(time.Time{})
	if s.Poll() {
		t.Fatal("armed controller must not report stop")
	}
	s.ForceStop()
	if !s.Poll() || !s.Stopped() {
		t.Fatal("force stop must latch")
	}
	// Stays set until the next Arm.
	if !s.Poll() {
		t.Fatal("stop flag must be monotonic within a search")
	}
	s.Arm(time.Time{})
	if s.Stopped() {
		t.Fatal("arm must clear the flag")
	}
}

func TestStopControllerDeadlineLatches(t *testing.T) {
	var s StopController
	s.Arm(time.Now().Add(-time.Millisecond))
	if !s.Poll() {
		t.Fatal("expired deadline must stop the search")
	}
	// The deadline hit latched the flag for the cheap path.
	if !s.Stopped() {
		t.Fatal("deadline hit must set the flag")
	}
}

func TestStopControllerFutureDeadline(t *testing.T) {
	var s StopController
	s.Arm(time.Now().Add(time.Hour))
	if s.Poll() {
		t.Fatal("future deadline must not stop the search")
	}
}
