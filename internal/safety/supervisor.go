// Package safety implements the safety supervisor: an independent process
// that never makes motion decisions, only enforces the invariants of
// spec.md §4.3 on each wake of the shared condition variable.
package safety

import (
	"context"
	"time"

	"github.com/sebas/elevator-system/internal/logger"
	"github.com/sebas/elevator-system/internal/shm"
)

// retryDelay is how long the supervisor sleeps before retrying after a
// mutex or cond-wait error, per §4.3's failure semantics.
const retryDelay = 50 * time.Millisecond

// Supervisor runs the wake procedure (the five steps of §4.3 plus the
// fire-alarm latch) against one car's segment.
type Supervisor struct {
	Name string
	Seg  *shm.Segment
}

// Run blocks on the segment's condition variable and, on every wake, applies
// the ordered checks of §4.3 while holding the mutex. It returns only when
// ctx is cancelled; any lock or wait error is treated as an emergency
// escalation attempt followed by a brief sleep-and-retry, never an exit.
func (s *Supervisor) Run(ctx context.Context) error {
	locked := false
	for !locked {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.Seg.Lock(); err != nil {
			logger.Error("safety: initial lock failed, retrying", "car", s.Name, "error", err)
			time.Sleep(retryDelay)
			continue
		}
		locked = true
	}

	for {
		if ctx.Err() != nil {
			_ = s.Seg.Unlock()
			return nil
		}

		s.check()

		deadline := time.Now().Add(retryDelay)
		if err := s.Seg.WaitUntil(deadline); err != nil {
			// WaitUntil failed somewhere between releasing and
			// reacquiring the lock, so the lock is not held here.
			logger.Error("safety: wait failed, escalating to emergency", "car", s.Name, "error", err)
			s.forceEmergency()
			time.Sleep(retryDelay)

			for {
				if ctx.Err() != nil {
					return nil
				}
				if err := s.Seg.Lock(); err != nil {
					logger.Error("safety: relock after wait failure also failed, retrying", "car", s.Name, "error", err)
					time.Sleep(retryDelay)
					continue
				}
				break
			}
		}
	}
}

// check applies the five ordered steps of §4.3, plus the supplemented
// fire-alarm latch between steps 4 and 5, while the caller holds the
// segment's lock.
func (s *Supervisor) check() {
	s.heartbeat()
	s.doorObstructionRule()
	s.emergencyStopLatch()
	s.overloadLatch()
	s.fireAlarmLatch()
	s.dataConsistency()
}

// heartbeat resets safety_system to 1 on every wake, per §4.3 step 1. The
// car process is solely responsible for aging it upward between wakes.
func (s *Supervisor) heartbeat() {
	if s.Seg.SafetySystem() != 1 {
		s.Seg.SetSafetySystem(1)
		s.Seg.Broadcast()
	}
}

// doorObstructionRule is the edge-triggered override of §4.3 step 2 and
// §4.1's movement table: an obstruction observed while closing reopens the
// door rather than letting it finish closing on an obstruction.
func (s *Supervisor) doorObstructionRule() {
	if s.Seg.DoorObstruction() && s.Seg.Status() == shm.StatusClosing {
		s.Seg.SetStatus(shm.StatusOpening)
		s.Seg.Broadcast()
	}
}

// emergencyStopLatch is §4.3 step 3.
func (s *Supervisor) emergencyStopLatch() {
	if s.Seg.EmergencyStop() && !s.Seg.EmergencyMode() {
		s.Seg.SetEmergencyMode(true)
		s.Seg.SetEmergencyStop(false)
		s.Seg.Broadcast()
		logger.Error("safety: emergency stop latched", "car", s.Name)
	}
}

// overloadLatch is §4.3 step 4.
func (s *Supervisor) overloadLatch() {
	if s.Seg.Overload() && !s.Seg.EmergencyMode() {
		s.Seg.SetEmergencyMode(true)
		s.Seg.Broadcast()
		logger.Error("safety: overload latched", "car", s.Name)
	}
}

// fireAlarmLatch is a supplemented step (see SPEC_FULL.md), invented as a
// synthetic parallel of emergencyStopLatch with no original_source
// grounding: fire_alarm is handled identically to emergency_stop, both
// treated as unconditional, non-recoverable safety trips.
func (s *Supervisor) fireAlarmLatch() {
	if s.Seg.FireAlarm() && !s.Seg.EmergencyMode() {
		s.Seg.SetEmergencyMode(true)
		s.Seg.SetFireAlarm(false)
		s.Seg.Broadcast()
		logger.Error("safety: fire alarm latched", "car", s.Name)
	}
}

// dataConsistency is §4.3 step 5: validate all fields against §3's
// invariants, unless already in emergency mode.
func (s *Supervisor) dataConsistency() {
	if s.Seg.EmergencyMode() {
		return
	}
	if err := s.Seg.Validate(); err != nil {
		s.Seg.SetEmergencyMode(true)
		s.Seg.Broadcast()
		logger.Error("safety: data consistency check failed, entering emergency mode", "car", s.Name, "error", err)
	}
}

// forceEmergency is the escalation path taken when the supervisor itself
// hits a mutex or cond-wait error; it best-effort locks, sets emergency
// mode, and unlocks, swallowing further errors since there is no better
// recovery available.
func (s *Supervisor) forceEmergency() {
	if err := s.Seg.Lock(); err != nil {
		return
	}
	if !s.Seg.EmergencyMode() {
		s.Seg.SetEmergencyMode(true)
		s.Seg.Broadcast()
	}
	_ = s.Seg.Unlock()
}
