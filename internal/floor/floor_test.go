package floor

import "testing"

func TestParseFormatRoundTrip(t *testing.T) {
	cases := []int{1, 4, 999, -1, -99, -50, 500}
	for _, n := range cases {
		s := Format(n)
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", s, err)
		}
		if got != n {
			t.Errorf("round trip for %d: got %d via %q", n, got, s)
		}
	}
}

func TestParseCanonicalForms(t *testing.T) {
	tests := map[string]int{
		"1":   1,
		"4":   4,
		"999": 999,
		"B1":  -1,
		"B99": -99,
		"B3":  -3,
	}
	for s, want := range tests {
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got != want {
			t.Errorf("Parse(%q) = %d, want %d", s, got, want)
		}
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	invalid := []string{"", "0", "B0", "01", "B01", "1000", "B100", "1a", "BB1", "-1", "B"}
	for _, s := range invalid {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", s)
		}
	}
}

func TestStepTowardDestinationSkipsZero(t *testing.T) {
	if got := Step(-1, 4); got != 1 {
		t.Errorf("Step(-1, 4) = %d, want 1 (skip zero going up)", got)
	}
	if got := Step(1, -4); got != -1 {
		t.Errorf("Step(1, -4) = %d, want -1 (skip zero going down)", got)
	}
	if got := Step(3, 3); got != 3 {
		t.Errorf("Step(3, 3) = %d, want 3 (no movement at destination)", got)
	}
}

func TestDirection(t *testing.T) {
	if Direction(1, 5) != 1 {
		t.Error("Direction(1, 5) should be up")
	}
	if Direction(5, 1) != -1 {
		t.Error("Direction(5, 1) should be down")
	}
	if Direction(3, 3) != 0 {
		t.Error("Direction(3, 3) should be zero")
	}
}
