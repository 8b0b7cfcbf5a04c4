package safety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebas/elevator-system/internal/shm"
)

func newTestSegment(t *testing.T) *shm.Segment {
	t.Helper()
	name := "safetytest" + t.Name()
	t.Cleanup(func() {
		// shm places the file in /dev/shm when present, else os.TempDir().
		_ = os.Remove(filepath.Join("/dev/shm", "car"+name))
		_ = os.Remove(filepath.Join(os.TempDir(), "car"+name))
	})

	seg, err := shm.Create(name)
	if err != nil {
		t.Fatalf("shm.Create: %v", err)
	}
	t.Cleanup(func() { seg.Close() })
	return seg
}

func TestHeartbeatResetsToOne(t *testing.T) {
	seg := newTestSegment(t)
	sup := &Supervisor{Name: "Alpha", Seg: seg}

	seg.Lock()
	defer seg.Unlock()

	seg.SetSafetySystem(3)
	sup.heartbeat()
	if seg.SafetySystem() != 1 {
		t.Errorf("SafetySystem() = %d, want 1 after heartbeat reset", seg.SafetySystem())
	}
}

func TestDoorObstructionRuleReopensWhileClosing(t *testing.T) {
	seg := newTestSegment(t)
	sup := &Supervisor{Name: "Alpha", Seg: seg}

	seg.Lock()
	defer seg.Unlock()

	seg.SetStatus(shm.StatusClosing)
	seg.SetDoorObstruction(true)
	sup.doorObstructionRule()

	if seg.Status() != shm.StatusOpening {
		t.Errorf("Status() = %v, want Opening after obstruction override", seg.Status())
	}
}

func TestDoorObstructionRuleLeavesOtherStatusesAlone(t *testing.T) {
	seg := newTestSegment(t)
	sup := &Supervisor{Name: "Alpha", Seg: seg}

	seg.Lock()
	defer seg.Unlock()

	seg.SetStatus(shm.StatusOpen)
	seg.SetDoorObstruction(true)
	sup.doorObstructionRule()

	if seg.Status() != shm.StatusOpen {
		t.Errorf("Status() = %v, want unchanged Open", seg.Status())
	}
}

func TestEmergencyStopLatchSetsModeAndClearsFlag(t *testing.T) {
	seg := newTestSegment(t)
	sup := &Supervisor{Name: "Alpha", Seg: seg}

	seg.Lock()
	defer seg.Unlock()

	seg.SetEmergencyStop(true)
	sup.emergencyStopLatch()

	if !seg.EmergencyMode() {
		t.Error("expected emergency_mode set")
	}
	if seg.EmergencyStop() {
		t.Error("expected emergency_stop cleared after latching")
	}
}

func TestOverloadLatchSetsEmergencyMode(t *testing.T) {
	seg := newTestSegment(t)
	sup := &Supervisor{Name: "Alpha", Seg: seg}

	seg.Lock()
	defer seg.Unlock()

	seg.SetOverload(true)
	sup.overloadLatch()

	if !seg.EmergencyMode() {
		t.Error("expected emergency_mode set after overload")
	}
}

func TestFireAlarmLatchSetsEmergencyMode(t *testing.T) {
	seg := newTestSegment(t)
	sup := &Supervisor{Name: "Alpha", Seg: seg}

	seg.Lock()
	defer seg.Unlock()

	seg.SetFireAlarm(true)
	sup.fireAlarmLatch()

	if !seg.EmergencyMode() {
		t.Error("expected emergency_mode set after fire alarm")
	}
}

func TestDataConsistencySkippedWhileAlreadyInEmergency(t *testing.T) {
	seg := newTestSegment(t)
	sup := &Supervisor{Name: "Alpha", Seg: seg}

	seg.Lock()
	defer seg.Unlock()

	seg.SetEmergencyMode(true)
	seg.SetCurrentFloor(0) // floor 0 is invalid
	sup.dataConsistency()

	// dataConsistency must not touch anything further; no panic, no
	// additional state change beyond what was already true.
	if !seg.EmergencyMode() {
		t.Error("emergency_mode should remain set")
	}
}

func TestDataConsistencyCatchesInvalidFloor(t *testing.T) {
	seg := newTestSegment(t)
	sup := &Supervisor{Name: "Alpha", Seg: seg}

	seg.Lock()
	defer seg.Unlock()

	seg.SetCurrentFloor(0) // floor 0 is invalid, per internal/floor
	sup.dataConsistency()

	if !seg.EmergencyMode() {
		t.Error("expected emergency_mode set after a consistency failure")
	}
}

func TestCheckRunsAllStepsInOrder(t *testing.T) {
	seg := newTestSegment(t)
	sup := &Supervisor{Name: "Alpha", Seg: seg}

	seg.Lock()
	defer seg.Unlock()

	seg.SetCurrentFloor(1)
	seg.SetDestinationFloor(1)
	seg.SetStatus(shm.StatusClosing)
	seg.SetDoorObstruction(true)
	seg.SetSafetySystem(3)

	sup.check()

	if seg.SafetySystem() != 1 {
		t.Errorf("SafetySystem() = %d, want 1", seg.SafetySystem())
	}
	if seg.Status() != shm.StatusOpening {
		t.Errorf("Status() = %v, want Opening (obstruction override ran)", seg.Status())
	}
	if seg.EmergencyMode() {
		t.Error("expected no emergency mode from a clean, consistent state")
	}
}
