package shm

import (
	"fmt"

	"github.com/sebas/elevator-system/internal/floor"
)

// Validate checks the segment's observable fields against the invariants
// of spec.md §3 that are checkable from the segment alone (1-4). The
// caller must hold the lock. Invariants 5 and 6 (emergency/individual
// service mode implies disconnection from the dispatcher) are structural
// properties of the car process's controller-link worker, not of the
// segment's bytes, and are enforced there (see internal/car).
func (s *Segment) Validate() error {
	if !floor.Valid(int(s.CurrentFloor())) {
		return fmt.Errorf("shm: current_floor %d is not a valid floor", s.CurrentFloor())
	}
	if !floor.Valid(int(s.DestinationFloor())) {
		return fmt.Errorf("shm: destination_floor %d is not a valid floor", s.DestinationFloor())
	}
	if !s.Status().Valid() {
		return fmt.Errorf("shm: status %d is not a recognised enum value", s.Status())
	}
	if s.DoorObstruction() {
		switch s.Status() {
		case StatusOpening, StatusClosing:
		default:
			return fmt.Errorf("shm: door_obstruction set while status is %v, want Opening or Closing", s.Status())
		}
	}
	return nil
}
