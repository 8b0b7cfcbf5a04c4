package dispatcher

import (
	"net"
	"testing"

	"github.com/sebas/elevator-system/internal/wire"
)

func TestRegisterRejectsDuplicateAndOverCapacity(t *testing.T) {
	table := NewTable()
	_, c1 := net.Pipe()
	defer c1.Close()

	if _, err := table.Register("Alpha", 1, 10, c1); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := table.Register("Alpha", 1, 10, c1); err == nil {
		t.Error("expected error re-registering the same name")
	}

	for i := 0; i < MaxCars-1; i++ {
		_, conn := net.Pipe()
		defer conn.Close()
		if _, err := table.Register(nameFor(i), 1, 10, conn); err != nil {
			t.Fatalf("registration %d: %v", i, err)
		}
	}

	_, overflow := net.Pipe()
	defer overflow.Close()
	if _, err := table.Register("Overflow", 1, 10, overflow); err == nil {
		t.Error("expected error registering beyond MaxCars capacity")
	}
}

func nameFor(i int) string {
	return string(rune('B' + i))
}

func TestUpdateStatusPopsHeadAndReturnsNextFloor(t *testing.T) {
	table := NewTable()
	_, conn := net.Pipe()
	defer conn.Close()
	table.Register("Alpha", 1, 10, conn)

	rec, _ := table.Get("Alpha")
	rec.Queue = []int{3, 6}

	next, shouldSend := table.UpdateStatus("Alpha", wire.StatusOpen, 3, 3)
	if !shouldSend || next != 6 {
		t.Fatalf("UpdateStatus at head with doors open: next=%d shouldSend=%v, want next=6 shouldSend=true", next, shouldSend)
	}
	if len(rec.Queue) != 1 || rec.Queue[0] != 6 {
		t.Errorf("queue after pop = %v, want [6]", rec.Queue)
	}
}

func TestUpdateStatusDoesNotPopWhenNotAtHeadOrDoorsNotOpen(t *testing.T) {
	table := NewTable()
	_, conn := net.Pipe()
	defer conn.Close()
	table.Register("Alpha", 1, 10, conn)
	rec, _ := table.Get("Alpha")
	rec.Queue = []int{3, 6}

	if _, shouldSend := table.UpdateStatus("Alpha", wire.StatusBetween, 2, 3); shouldSend {
		t.Error("should not pop while still Between (not at head's floor yet conceptually, and not door-open)")
	}
	if _, shouldSend := table.UpdateStatus("Alpha", wire.StatusClosed, 3, 3); shouldSend {
		t.Error("should not pop while Closed (doors not open)")
	}
}

func TestAssignCallPicksSmallestPickupIndex(t *testing.T) {
	table := NewTable()
	_, c1 := net.Pipe()
	_, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	table.Register("Near", 1, 10, c1)
	table.Register("Far", 1, 10, c2)

	near, _ := table.Get("Near")
	near.Current = 1
	near.Status = wire.StatusClosed

	far, _ := table.Get("Far")
	far.Current = 5
	far.Status = wire.StatusClosed
	far.Queue = []int{9} // forces a larger pickup index for any call not on that run

	rec, _, _, ok := table.AssignCall(2, 3)
	if !ok {
		t.Fatal("expected assignment")
	}
	if rec.Name != "Near" {
		t.Errorf("assigned %q, want Near (pickup index 0 vs Far's 1)", rec.Name)
	}
}

func TestAssignCallSkipsCandidateOverMaxQueueDepth(t *testing.T) {
	table := NewTable()
	_, c1 := net.Pipe()
	_, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	table.Register("Full", 1, 20, c1)
	table.Register("Empty", 1, 20, c2)

	full, _ := table.Get("Full")
	full.Current = 1
	full.Status = wire.StatusClosed
	// A full queue of stops at 15, none equal to 2 or 3, so neither end of
	// the call (2, 3) can be absorbed by deduping against an existing stop:
	// both are inserted (pickup on the 1→15 segment), pushing the planned
	// length to 22, past MaxQueueDepth.
	queue := make([]int, MaxQueueDepth)
	for i := range queue {
		queue[i] = 15
	}
	full.Queue = queue

	rec, _, _, ok := table.AssignCall(2, 3)
	if !ok {
		t.Fatal("expected assignment to the uncapped car")
	}
	if rec.Name != "Empty" {
		t.Errorf("assigned %q, want Empty (Full is already at MaxQueueDepth)", rec.Name)
	}
	if len(full.Queue) != MaxQueueDepth {
		t.Errorf("Full's queue mutated to length %d, want unchanged at %d", len(full.Queue), MaxQueueDepth)
	}
}

func TestAssignCallUnavailableWhenNoCarCoversRange(t *testing.T) {
	table := NewTable()
	_, conn := net.Pipe()
	defer conn.Close()
	table.Register("Alpha", 1, 4, conn)

	if _, _, _, ok := table.AssignCall(1, 5); ok {
		t.Error("expected no assignment when no car's range covers both src and dst")
	}
}
