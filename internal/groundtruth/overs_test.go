package groundtruth

import (
	"errors"
	"fmt"
	"testing"
)

func TestOversToBalls(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"10.4", 64},
		{"59.0", 354},
		{"59", 354},
		{"0.5", 5},
		{"0.0", 0},
		{" 4.2 ", 26},
		{"12.00", 72},
	}
	for _, tt := range tests {
		got, err := OversToBalls(tt.in)
		if err != nil {
			t.Errorf("OversToBalls(%q): expected no error, got %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("OversToBalls(%q): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestOversToBalls_Invalid(t *testing.T) {
	for _, in := range []string{"10.6", "10.10", "abc", "1.x", "-2.1", ".3", "3."} {
		_, err := OversToBalls(in)
		if !errors.Is(err, ErrInvalidOversNotation) {
			t.Errorf("OversToBalls(%q): expected ErrInvalidOversNotation, got %v", in, err)
		}
		var inv *InvalidOversNotationError
		if !errors.As(err, &inv) || inv.Value == "" {
			t.Errorf("OversToBalls(%q): expected *InvalidOversNotationError with value, got %v", in, err)
		}
	}
}

func TestOversToBalls_Missing(t *testing.T) {
	for _, in := range []string{"", "  ", "NA"} {
		if _, err := OversToBalls(in); !errors.Is(err, ErrMissingValue) {
			t.Errorf("OversToBalls(%q): expected ErrMissingValue, got %v", in, err)
		}
	}
}

func TestBallsToOvers(t *testing.T) {
	tests := map[int]string{0: "0.0", 5: "0.5", 6: "1.0", 64: "10.4", 354: "59.0"}
	for in, want := range tests {
		if got := BallsToOvers(in); got != want {
			t.Errorf("BallsToOvers(%d): expected %q, got %q", in, want, got)
		}
	}
}

func TestOvers_RoundTripBalls(t *testing.T) {
	for b := 0; b <= 2000; b++ {
		got, err := OversToBalls(BallsToOvers(b))
		if err != nil {
			t.Fatalf("balls %d: expected no error, got %v", b, err)
		}
		if got != b {
			t.Fatalf("balls %d: round trip returned %d", b, got)
		}
	}
}

func TestOvers_RoundTripNotation(t *testing.T) {
	for w := 0; w <= 60; w++ {
		for p := 0; p <= 5; p++ {
			s := fmt.Sprintf("%d.%d", w, p)
			balls, err := OversToBalls(s)
			if err != nil {
				t.Fatalf("%s: expected no error, got %v", s, err)
			}
			if back := BallsToOvers(balls); back != s {
				t.Fatalf("%s: round trip returned %s", s, back)
			}
		}
	}
}
