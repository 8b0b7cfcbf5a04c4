package car

import (
	"context"
	"time"

	"github.com/sebas/elevator-system/internal/logger"
)

// RunHeartbeatMonitor ages the safety_system heartbeat the way the car side
// of the protocol is responsible for (see the GLOSSARY and spec.md §9's
// open question, resolved here as the promote-then-escalate variant): on
// each tick, if the counter is still sitting at a value the safety
// supervisor last reset, promote it one step; a supervisor that is still
// alive will have reset it back to 1 in the meantime via its own wake. A
// counter found at or above 3 means the supervisor has not woken in at
// least two consecutive ticks, so the car escalates to emergency itself.
func (e *Engine) RunHeartbeatMonitor(ctx context.Context) error {
	ticker := time.NewTicker(e.Delay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		e.Seg.Lock()
		if e.Seg.EmergencyMode() {
			e.Seg.Unlock()
			continue
		}
		switch hb := e.Seg.SafetySystem(); {
		case hb == 0:
			// Supervisor hasn't attached yet; nothing to age.
		case hb == 1:
			e.Seg.SetSafetySystem(2)
		case hb == 2:
			e.Seg.SetSafetySystem(3)
		default:
			e.Seg.SetEmergencyMode(true)
			logger.Error("heartbeat monitor: safety supervisor stalled, forcing emergency", "car", e.Name, "safety_system", hb)
		}
		e.Seg.Broadcast()
		e.Seg.Unlock()
	}
}
