package shm

import "encoding/binary"

// Every accessor below assumes the caller already holds the segment's
// lock, per §5's discipline that every field read or write happens inside
// the critical section. shm itself never locks implicitly around a single
// field access, so that a caller can read-modify-write several fields
// atomically under one Lock/Unlock pair.

func (s *Segment) CurrentFloor() int16 {
	return int16(binary.LittleEndian.Uint16(s.data[offCurrentFloor:]))
}

func (s *Segment) SetCurrentFloor(f int16) {
	binary.LittleEndian.PutUint16(s.data[offCurrentFloor:], uint16(f))
}

func (s *Segment) DestinationFloor() int16 {
	return int16(binary.LittleEndian.Uint16(s.data[offDestFloor:]))
}

func (s *Segment) SetDestinationFloor(f int16) {
	binary.LittleEndian.PutUint16(s.data[offDestFloor:], uint16(f))
}

func (s *Segment) Status() DoorStatus {
	return DoorStatus(s.data[offStatus])
}

func (s *Segment) SetStatus(st DoorStatus) {
	s.data[offStatus] = byte(st)
}

func (s *Segment) OpenButton() bool     { return s.data[offOpenButton] != 0 }
func (s *Segment) SetOpenButton(v bool) { s.data[offOpenButton] = boolByte(v) }

func (s *Segment) CloseButton() bool     { return s.data[offCloseButton] != 0 }
func (s *Segment) SetCloseButton(v bool) { s.data[offCloseButton] = boolByte(v) }

func (s *Segment) DoorObstruction() bool     { return s.data[offDoorObstructed] != 0 }
func (s *Segment) SetDoorObstruction(v bool) { s.data[offDoorObstructed] = boolByte(v) }

func (s *Segment) Overload() bool     { return s.data[offOverload] != 0 }
func (s *Segment) SetOverload(v bool) { s.data[offOverload] = boolByte(v) }

func (s *Segment) EmergencyStop() bool     { return s.data[offEmergencyStop] != 0 }
func (s *Segment) SetEmergencyStop(v bool) { s.data[offEmergencyStop] = boolByte(v) }

// FireAlarm is a supplemented sensor bit with no original_source analog,
// invented as a synthetic parallel of emergency_stop; the safety
// supervisor treats it exactly like emergency_stop (see SPEC_FULL.md).
func (s *Segment) FireAlarm() bool     { return s.data[offFireAlarm] != 0 }
func (s *Segment) SetFireAlarm(v bool) { s.data[offFireAlarm] = boolByte(v) }

func (s *Segment) IndividualServiceMode() bool     { return s.data[offIndividualSvc] != 0 }
func (s *Segment) SetIndividualServiceMode(v bool) { s.data[offIndividualSvc] = boolByte(v) }

func (s *Segment) EmergencyMode() bool     { return s.data[offEmergencyMode] != 0 }
func (s *Segment) SetEmergencyMode(v bool) { s.data[offEmergencyMode] = boolByte(v) }

func (s *Segment) SafetySystem() byte     { return s.data[offSafetySystem] }
func (s *Segment) SetSafetySystem(v byte) { s.data[offSafetySystem] = v }

// DestinationChanged is the arrival-at-destination latch of spec.md §4.1's
// Closed state table ("arrival-at-destination latch set by dispatcher"),
// grounded on original_source/car.c's destination_changed flag (car.c:259,
// :574, :599): the link worker sets it on every FLOOR-driven
// destination_floor write, and the motion engine clears it once
// consumed. It exists because destination_floor alone cannot distinguish a
// fresh write of the same value (e.g. FLOOR equal to the current floor)
// from no write at all.
func (s *Segment) DestinationChanged() bool     { return s.data[offDestChanged] != 0 }
func (s *Segment) SetDestinationChanged(v bool) { s.data[offDestChanged] = boolByte(v) }

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
