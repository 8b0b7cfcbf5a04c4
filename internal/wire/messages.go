package wire

import (
	"fmt"
	"strings"

	"github.com/sebas/elevator-system/internal/floor"
)

// DoorStatus is the car motion/door state as carried on the wire.
type DoorStatus string

const (
	StatusOpening DoorStatus = "Opening"
	StatusOpen    DoorStatus = "Open"
	StatusClosing DoorStatus = "Closing"
	StatusClosed  DoorStatus = "Closed"
	StatusBetween DoorStatus = "Between"
)

// Valid reports whether s is one of the five recognised door statuses.
func (s DoorStatus) Valid() bool {
	switch s {
	case StatusOpening, StatusOpen, StatusClosing, StatusClosed, StatusBetween:
		return true
	default:
		return false
	}
}

// Terminal text messages that carry no arguments.
const (
	TextUnavailable       = "UNAVAILABLE"
	TextIndividualService = "INDIVIDUAL SERVICE"
	TextEmergency         = "EMERGENCY"
)

// CarRegistration is the first frame a car link sends: "CAR <name> <low> <high>".
type CarRegistration struct {
	Name string
	Low  int
	High int
}

// ParseCarRegistration parses a "CAR <name> <low> <high>" frame.
func ParseCarRegistration(text string) (CarRegistration, error) {
	fields := strings.Fields(text)
	if len(fields) != 4 || fields[0] != "CAR" {
		return CarRegistration{}, fmt.Errorf("wire: not a CAR registration frame: %q", text)
	}
	if fields[1] == "" || strings.ContainsAny(fields[1], " \t") {
		return CarRegistration{}, fmt.Errorf("wire: invalid car name in %q", text)
	}
	low, err := floor.Parse(fields[2])
	if err != nil {
		return CarRegistration{}, fmt.Errorf("wire: invalid low floor in %q: %w", text, err)
	}
	high, err := floor.Parse(fields[3])
	if err != nil {
		return CarRegistration{}, fmt.Errorf("wire: invalid high floor in %q: %w", text, err)
	}
	return CarRegistration{Name: fields[1], Low: low, High: high}, nil
}

// Format renders a CarRegistration back to its wire text.
func (r CarRegistration) Format() string {
	return fmt.Sprintf("CAR %s %s %s", r.Name, floor.Format(r.Low), floor.Format(r.High))
}

// CallRequest is a call-pad request: "CALL <src> <dst>".
type CallRequest struct {
	Src int
	Dst int
}

// ParseCallRequest parses a "CALL <src> <dst>" frame.
func ParseCallRequest(text string) (CallRequest, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 || fields[0] != "CALL" {
		return CallRequest{}, fmt.Errorf("wire: not a CALL frame: %q", text)
	}
	src, err := floor.Parse(fields[1])
	if err != nil {
		return CallRequest{}, fmt.Errorf("wire: invalid src floor in %q: %w", text, err)
	}
	dst, err := floor.Parse(fields[2])
	if err != nil {
		return CallRequest{}, fmt.Errorf("wire: invalid dst floor in %q: %w", text, err)
	}
	return CallRequest{Src: src, Dst: dst}, nil
}

// Format renders a CallRequest back to its wire text.
func (c CallRequest) Format() string {
	return fmt.Sprintf("CALL %s %s", floor.Format(c.Src), floor.Format(c.Dst))
}

// StatusReport is a car's periodic report: "STATUS <status> <current> <destination>".
type StatusReport struct {
	Status      DoorStatus
	Current     int
	Destination int
}

// ParseStatusReport parses a "STATUS <status> <current> <destination>" frame.
func ParseStatusReport(text string) (StatusReport, error) {
	fields := strings.Fields(text)
	if len(fields) != 4 || fields[0] != "STATUS" {
		return StatusReport{}, fmt.Errorf("wire: not a STATUS frame: %q", text)
	}
	status := DoorStatus(fields[1])
	if !status.Valid() {
		return StatusReport{}, fmt.Errorf("wire: invalid status in %q", text)
	}
	current, err := floor.Parse(fields[2])
	if err != nil {
		return StatusReport{}, fmt.Errorf("wire: invalid current floor in %q: %w", text, err)
	}
	dest, err := floor.Parse(fields[3])
	if err != nil {
		return StatusReport{}, fmt.Errorf("wire: invalid destination floor in %q: %w", text, err)
	}
	return StatusReport{Status: status, Current: current, Destination: dest}, nil
}

// Format renders a StatusReport back to its wire text.
func (s StatusReport) Format() string {
	return fmt.Sprintf("STATUS %s %s %s", s.Status, floor.Format(s.Current), floor.Format(s.Destination))
}

// FloorCommand is a dispatcher-to-car instruction: "FLOOR <floor>".
type FloorCommand struct {
	Floor int
}

// ParseFloorCommand parses a "FLOOR <floor>" frame.
func ParseFloorCommand(text string) (FloorCommand, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 || fields[0] != "FLOOR" {
		return FloorCommand{}, fmt.Errorf("wire: not a FLOOR frame: %q", text)
	}
	f, err := floor.Parse(fields[1])
	if err != nil {
		return FloorCommand{}, fmt.Errorf("wire: invalid floor in %q: %w", text, err)
	}
	return FloorCommand{Floor: f}, nil
}

// Format renders a FloorCommand back to its wire text.
func (f FloorCommand) Format() string {
	return fmt.Sprintf("FLOOR %s", floor.Format(f.Floor))
}

// CarAssigned is the dispatcher's reply to a successful CALL: "CAR <name>".
type CarAssigned struct {
	Name string
}

// ParseCarAssigned parses a "CAR <name>" reply frame (two fields, unlike
// the four-field registration frame).
func ParseCarAssigned(text string) (CarAssigned, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 || fields[0] != "CAR" {
		return CarAssigned{}, fmt.Errorf("wire: not a CAR assignment frame: %q", text)
	}
	return CarAssigned{Name: fields[1]}, nil
}

// Format renders a CarAssigned back to its wire text.
func (c CarAssigned) Format() string {
	return "CAR " + c.Name
}

// FirstToken returns the leading whitespace-delimited token of text, used
// by the dispatcher to distinguish a CAR registration from a CALL request
// before committing to a full parse.
func FirstToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
