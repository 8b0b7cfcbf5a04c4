// Package car implements the per-car motion/door timing engine and the
// controller link worker that registers the car with the dispatcher and
// relays FLOOR/STATUS frames, per spec.md §4.1.
package car

import (
	"context"
	"time"

	"github.com/sebas/elevator-system/internal/floor"
	"github.com/sebas/elevator-system/internal/logger"
	"github.com/sebas/elevator-system/internal/shm"
	"github.com/sebas/elevator-system/internal/wire"
)

// pollInterval is the granularity the motion loop uses to re-check state
// while waiting out a door timer or an idle period, matching §5's "1-ms
// polled waits inside the Open phase" and bounding how quickly the engine
// notices an externally forced emergency or obstruction.
const pollInterval = time.Millisecond

// Engine drives one car's motion/door state machine against its shared
// segment. It is the only writer of status and current_floor (outside the
// safety supervisor's edge-triggered obstruction override and the
// internal-service client's direct field writes under the segment lock).
type Engine struct {
	Name  string
	Low   int
	High  int
	Delay time.Duration
	Seg   *shm.Segment
}

// RunMotion runs the motion/door engine until ctx is cancelled. It never
// returns early on emergency or individual-service mode; those change its
// behavior per-iteration rather than stopping it, matching §4.1.
func (e *Engine) RunMotion(ctx context.Context) error {
	var openingEntry, closingEntry time.Time
	var openDeadline time.Time

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if err := e.Seg.Lock(); err != nil {
			return err
		}

		switch {
		case e.Seg.EmergencyMode():
			e.Seg.Unlock()
			sleepOrDone(ctx, pollInterval)
			continue

		case e.Seg.IndividualServiceMode():
			e.stepIndividualService()
			e.Seg.Unlock()
			sleepOrDone(ctx, pollInterval)
			continue
		}

		status := e.Seg.Status()
		cur := int(e.Seg.CurrentFloor())
		dest := int(e.Seg.DestinationFloor())

		switch status {
		case shm.StatusClosed:
			switch {
			case cur != dest:
				e.Seg.SetStatus(shm.StatusBetween)
				e.Seg.SetDestinationChanged(false)
				e.Seg.Broadcast()
				e.Seg.Unlock()

			case e.Seg.OpenButton():
				e.Seg.SetOpenButton(false)
				e.Seg.SetDestinationChanged(false)
				e.Seg.SetStatus(shm.StatusOpening)
				openingEntry = time.Now()
				e.Seg.Broadcast()
				e.Seg.Unlock()

			case e.Seg.DestinationChanged():
				// Arrival-at-destination latch: the dispatcher wrote a
				// destination equal to the current floor while the car sat
				// parked, so there is no floor change to detect — open
				// directly, mirroring car.c's destination_changed flag.
				e.Seg.SetDestinationChanged(false)
				e.Seg.SetStatus(shm.StatusOpening)
				openingEntry = time.Now()
				e.Seg.Broadcast()
				e.Seg.Unlock()

			default:
				e.Seg.Unlock()
				sleepOrDone(ctx, pollInterval)
			}

		case shm.StatusBetween:
			next := floor.Step(cur, dest)
			e.Seg.SetCurrentFloor(int16(next))
			arrived := next == dest
			if arrived {
				// Arrival during Between cascades directly into the
				// door-open sequence without dwelling in Closed.
				e.Seg.SetStatus(shm.StatusOpening)
				openingEntry = time.Now()
			}
			e.Seg.Broadcast()
			e.Seg.Unlock()
			if !arrived {
				sleepOrDone(ctx, e.Delay)
			}

		case shm.StatusOpening:
			if openingEntry.IsZero() {
				openingEntry = time.Now()
			}
			deadline := openingEntry.Add(e.Delay)
			e.Seg.Unlock()
			if !waitUntilOrDone(ctx, deadline) {
				return nil
			}
			e.Seg.Lock()
			if e.Seg.Status() == shm.StatusOpening {
				e.Seg.SetStatus(shm.StatusOpen)
				openDeadline = time.Now().Add(e.Delay)
				e.Seg.Broadcast()
			}
			openingEntry = time.Time{}
			e.Seg.Unlock()

		case shm.StatusOpen:
			if openDeadline.IsZero() {
				openDeadline = time.Now().Add(e.Delay)
			}
			closeNow := e.Seg.CloseButton()
			e.Seg.Unlock()

			if closeNow || !time.Now().Before(openDeadline) {
				e.Seg.Lock()
				if e.Seg.Status() == shm.StatusOpen {
					e.Seg.SetCloseButton(false)
					e.Seg.SetStatus(shm.StatusClosing)
					closingEntry = time.Now()
					e.Seg.Broadcast()
				}
				openDeadline = time.Time{}
				e.Seg.Unlock()
			} else {
				sleepOrDone(ctx, pollInterval)
			}

		case shm.StatusClosing:
			if closingEntry.IsZero() {
				closingEntry = time.Now()
			}
			deadline := closingEntry.Add(e.Delay)
			e.Seg.Unlock()
			if !waitUntilOrDone(ctx, deadline) {
				return nil
			}
			e.Seg.Lock()
			switch e.Seg.Status() {
			case shm.StatusClosing:
				e.Seg.SetStatus(shm.StatusClosed)
				closingEntry = time.Time{}
				e.Seg.Broadcast()
			case shm.StatusOpening:
				// Safety observed door_obstruction and forced Opening
				// (§4.3 step 2); treat it as a fresh Opening entry.
				openingEntry = time.Now()
				closingEntry = time.Time{}
			}
			e.Seg.Unlock()

		default:
			e.Seg.Unlock()
		}
	}
}

// stepIndividualService implements §4.1's individual-service behavior.
// The caller holds the segment lock.
func (e *Engine) stepIndividualService() {
	if e.Seg.OpenButton() {
		e.Seg.SetOpenButton(false)
		if e.Seg.Status() != shm.StatusOpen && e.Seg.Status() != shm.StatusOpening {
			e.Seg.SetStatus(shm.StatusOpen)
			e.Seg.Broadcast()
		}
		return
	}
	if e.Seg.CloseButton() {
		e.Seg.SetCloseButton(false)
		if e.Seg.Status() != shm.StatusClosed {
			e.Seg.SetStatus(shm.StatusClosed)
			e.Seg.Broadcast()
		}
		return
	}

	cur := int(e.Seg.CurrentFloor())
	dest := int(e.Seg.DestinationFloor())
	if dest == cur || e.Seg.Status() != shm.StatusClosed {
		return
	}
	if dest < e.Low || dest > e.High {
		e.Seg.SetDestinationFloor(int16(cur))
		e.Seg.Broadcast()
		return
	}

	next := floor.Step(cur, dest)
	e.Seg.SetCurrentFloor(int16(next))
	e.Seg.SetDestinationFloor(int16(next))
	e.Seg.Broadcast()
	logger.Debug("individual service move", "car", e.Name, "floor", next)
}

func sleepOrDone(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// waitUntilOrDone sleeps in pollInterval steps until deadline, returning
// false if ctx is cancelled first.
func waitUntilOrDone(ctx context.Context, deadline time.Time) bool {
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		step := pollInterval
		if remaining < step {
			step = remaining
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(step):
		}
	}
}

// doorStatusToWire translates the shm package's compact status enum to the
// wire package's protocol text, keeping shm free of a dependency on the
// framing layer.
func doorStatusToWire(s shm.DoorStatus) wire.DoorStatus {
	switch s {
	case shm.StatusOpening:
		return wire.StatusOpening
	case shm.StatusOpen:
		return wire.StatusOpen
	case shm.StatusClosing:
		return wire.StatusClosing
	case shm.StatusClosed:
		return wire.StatusClosed
	default:
		return wire.StatusBetween
	}
}
