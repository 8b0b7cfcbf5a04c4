package wire

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte(""),
		[]byte("CAR Alpha 1 10"),
		[]byte("STATUS Opening 1 1"),
		bytes.Repeat([]byte("x"), 1000),
	}
	for _, p := range payloads {
		var buf bytes.Buffer
		if err := WriteFrame(&buf, p); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if !bytes.Equal(got, p) {
			t.Errorf("round trip mismatch: got %q, want %q", got, p)
		}
	}
}

func TestWriteFrameRejectsOversizePayload(t *testing.T) {
	var buf bytes.Buffer
	big := make([]byte, MaxFrameLen+1)
	if err := WriteFrame(&buf, big); err == nil {
		t.Error("expected error for oversize payload, got nil")
	}
}

func TestParseCarRegistration(t *testing.T) {
	r, err := ParseCarRegistration("CAR Alpha 1 10")
	if err != nil {
		t.Fatalf("ParseCarRegistration: %v", err)
	}
	if r.Name != "Alpha" || r.Low != 1 || r.High != 10 {
		t.Errorf("got %+v", r)
	}
	if r.Format() != "CAR Alpha 1 10" {
		t.Errorf("Format() = %q", r.Format())
	}
}

func TestParseCarAssignedVsRegistration(t *testing.T) {
	assigned, err := ParseCarAssigned("CAR Alpha")
	if err != nil {
		t.Fatalf("ParseCarAssigned: %v", err)
	}
	if assigned.Name != "Alpha" {
		t.Errorf("got %+v", assigned)
	}
	if _, err := ParseCarAssigned("CAR Alpha 1 10"); err == nil {
		t.Error("ParseCarAssigned should reject a 4-field registration frame")
	}
}

func TestParseCallRequest(t *testing.T) {
	c, err := ParseCallRequest("CALL 1 B2")
	if err != nil {
		t.Fatalf("ParseCallRequest: %v", err)
	}
	if c.Src != 1 || c.Dst != -2 {
		t.Errorf("got %+v", c)
	}
}

func TestParseStatusReportRejectsUnknownStatus(t *testing.T) {
	if _, err := ParseStatusReport("STATUS Bogus 1 1"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParseFloorCommand(t *testing.T) {
	f, err := ParseFloorCommand("FLOOR B5")
	if err != nil {
		t.Fatalf("ParseFloorCommand: %v", err)
	}
	if f.Floor != -5 {
		t.Errorf("got %+v", f)
	}
}

func TestFirstToken(t *testing.T) {
	if FirstToken("CAR Alpha 1 10") != "CAR" {
		t.Error("expected CAR")
	}
	if FirstToken("CALL 1 2") != "CALL" {
		t.Error("expected CALL")
	}
	if FirstToken("") != "" {
		t.Error("expected empty token for empty text")
	}
}
