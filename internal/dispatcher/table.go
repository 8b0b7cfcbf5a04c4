package dispatcher

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sebas/elevator-system/internal/wire"
)

// CarRecord is the dispatcher's exclusively-owned view of one registered
// car: its registration bounds, its last reported status, and its pending
// stop queue.
type CarRecord struct {
	Name string
	Low  int
	High int

	conn    net.Conn
	writeMu sync.Mutex // serializes frames sent to this car, per §5

	Status  wire.DoorStatus
	Current int

	Queue []int

	// LastStatusAt is a supplemented field (see SPEC_FULL.md) tracking
	// liveness; it plays no part in admission or scheduling.
	LastStatusAt time.Time
}

// send writes one frame to the car's connection, serialized against any
// concurrent send to the same car.
func (c *CarRecord) send(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wire.WriteText(c.conn, text)
}

// Table is the dispatcher's fixed-capacity car table, guarded by a single
// table-wide mutex per §3's ownership rule.
type Table struct {
	mu   sync.Mutex
	cars map[string]*CarRecord
}

// NewTable creates an empty car table.
func NewTable() *Table {
	return &Table{cars: make(map[string]*CarRecord)}
}

// Register allocates a new car record. It fails if the table is already
// at MaxCars capacity or the name is already registered.
func (t *Table) Register(name string, low, high int, conn net.Conn) (*CarRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.cars[name]; exists {
		return nil, fmt.Errorf("dispatcher: car %q already registered", name)
	}
	if len(t.cars) >= MaxCars {
		return nil, fmt.Errorf("dispatcher: car table full (max %d)", MaxCars)
	}

	rec := &CarRecord{
		Name:    name,
		Low:     low,
		High:    high,
		conn:    conn,
		Status:  wire.StatusClosed,
		Current: low,
	}
	t.cars[name] = rec
	return rec, nil
}

// Unregister frees a car record, e.g. on socket close, INDIVIDUAL SERVICE,
// or EMERGENCY.
func (t *Table) Unregister(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cars, name)
}

// Get returns the named car record, if registered.
func (t *Table) Get(name string) (*CarRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.cars[name]
	return rec, ok
}

// Candidates returns every registered car whose [low, high] range covers
// both src and dst. The filter runs under the table lock, but the returned
// records are the live ones, not copies. AssignCall does not use it: it
// applies the same range filter itself while holding the lock for the
// whole assignment decision.
func (t *Table) Candidates(src, dst int) []*CarRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*CarRecord
	for _, rec := range t.cars {
		if rec.Low <= src && src <= rec.High && rec.Low <= dst && dst <= rec.High {
			out = append(out, rec)
		}
	}
	return out
}

// UpdateStatus applies a STATUS frame to the named car's record and, if
// the car has just arrived at the head of its queue with its doors
// opening or open, pops that stop and returns the new head to send as a
// fresh FLOOR command, per §4.2's car-link loop.
func (t *Table) UpdateStatus(name string, status wire.DoorStatus, current, destination int) (nextFloor int, shouldSend bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.cars[name]
	if !ok {
		return 0, false
	}
	rec.Status = status
	rec.Current = current
	rec.LastStatusAt = time.Now()

	if len(rec.Queue) == 0 {
		return 0, false
	}
	if current != rec.Queue[0] {
		return 0, false
	}
	if status != wire.StatusOpen && status != wire.StatusOpening {
		return 0, false
	}

	rec.Queue = rec.Queue[1:]
	if len(rec.Queue) == 0 {
		return 0, false
	}
	return rec.Queue[0], true
}

// AssignCall evaluates every candidate car for a (src, dst) call, commits
// the winning car's new queue, and reports whether the queue head changed
// (meaning a fresh FLOOR command must be pushed to that car).
func (t *Table) AssignCall(src, dst int) (rec *CarRecord, newHead int, headChanged bool, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var best *CarRecord
	bestIdx := -1
	var bestQueue []int

	for _, cand := range t.cars {
		if !(cand.Low <= src && src <= cand.High && cand.Low <= dst && dst <= cand.High) {
			continue
		}
		start := EffectiveStart(cand.Current, cand.Status, cand.Queue)
		planned, idx := Plan(start, cand.Queue, src, dst)
		if len(planned) > MaxQueueDepth {
			// Over-capacity candidate (§3's MaxQueueDepth): never a
			// contender for this call, regardless of pickup cost.
			continue
		}

		switch {
		case best == nil:
			best, bestIdx, bestQueue = cand, idx, planned
		case idx < bestIdx:
			best, bestIdx, bestQueue = cand, idx, planned
		case idx == bestIdx && len(planned) < len(bestQueue):
			best, bestIdx, bestQueue = cand, idx, planned
		}
	}

	if best == nil {
		return nil, 0, false, false
	}

	// Floor -1 (B1) is a valid head, so emptiness is tracked separately
	// rather than with a sentinel value.
	hadHead := len(best.Queue) > 0
	oldHead := 0
	if hadHead {
		oldHead = best.Queue[0]
	}
	best.Queue = bestQueue
	if len(best.Queue) == 0 {
		return best, 0, false, true
	}
	newHeadVal := best.Queue[0]

	return best, newHeadVal, !hadHead || newHeadVal != oldHead, true
}
