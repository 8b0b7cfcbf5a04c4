// Command internalservice is the internal-service client of spec.md §1's
// external collaborators: a one-shot process that locks a car's segment,
// mutates exactly one field, signals the condition variable, and exits.
package main

import (
	"fmt"
	"os"

	"github.com/sebas/elevator-system/internal/floor"
	"github.com/sebas/elevator-system/internal/shm"
)

func main() {
	args := os.Args[1:]
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: internalservice <name> <op>")
		os.Exit(1)
	}
	name, op := args[0], args[1]

	seg, err := shm.Open(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "internalservice: failed to attach to shared segment: %v\n", err)
		os.Exit(1)
	}
	defer seg.Close()

	seg.Lock()
	defer seg.Unlock()

	if msg, ok := apply(seg, op); !ok {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
	seg.Broadcast()
}

// apply mutates exactly one field of seg per op, per spec.md §1's
// description of the internal-service client. The caller holds the
// segment's lock. It returns (message, false) on a precondition failure,
// leaving the segment untouched.
func apply(seg *shm.Segment, op string) (string, bool) {
	switch op {
	case "open":
		seg.SetOpenButton(true)
	case "close":
		seg.SetCloseButton(true)
	case "stop":
		seg.SetEmergencyStop(true)
	case "service_on":
		seg.SetIndividualServiceMode(true)
	case "service_off":
		seg.SetIndividualServiceMode(false)
	case "up":
		return applyManualMove(seg, 1)
	case "down":
		return applyManualMove(seg, -1)
	default:
		return fmt.Sprintf("Unrecognised operation %q.", op), false
	}
	return "", true
}

// applyManualMove implements the up/down ops: a one-floor destination
// request that only individual-service mode honours (§4.1), and only
// while the doors are not open (§8 scenario 4).
func applyManualMove(seg *shm.Segment, dir int) (string, bool) {
	if !seg.IndividualServiceMode() {
		return "Operation only allowed in service mode.", false
	}
	if seg.Status() == shm.StatusOpen || seg.Status() == shm.StatusOpening {
		return "Operation not allowed while doors are open.", false
	}

	cur := int(seg.CurrentFloor())
	next := cur + dir
	if next == 0 {
		next += dir
	}
	if !floor.Valid(next) {
		next = cur
	}
	seg.SetDestinationFloor(int16(next))
	return "", true
}
