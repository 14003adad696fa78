package random

import "testing"

func TestRandStaysInRange(t *testing.T) {
	r := NewSeeded(42)
	seenLow, seenHigh := false, false
	for i := 0; i < 2000; i++ {
		v := r.NextSignedIntInRange(-3, 3)
		if v < -3 || v > 3 {
			t.Fatalf("Expected value in [-3, 3], but got %d", v)
		}
		seenLow = seenLow || v == -3
		seenHigh = seenHigh || v == 3
	}
	if !seenLow || !seenHigh {
		t.Errorf("Expected both range ends to be drawn, low=%v high=%v", seenLow, seenHigh)
	}
}

func TestRandDeterministic(t *testing.T) {
	a, b := NewSeeded(7), NewSeeded(7)
	for i := 0; i < 50; i++ {
		if x, y := a.NextSignedIntInRange(-100, 100), b.NextSignedIntInRange(-100, 100); x != y {
			t.Fatalf("Expected identical sequences, diverged at %d: %d != %d", i, x, y)
		}
	}
}

func TestRandEmptyRange(t *testing.T) {
	if v := NewSeeded(1).NextSignedIntInRange(0, 0); v != 0 {
		t.Errorf("Expected 0, but got %d", v)
	}
	if v := NewSeeded(1).NextSignedIntInRange(5, 2); v != 5 {
		t.Errorf("Expected low bound for inverted range, but got %d", v)
	}
}

func TestFixed(t *testing.T) {
	testCases := []struct {
		name      string
		fixed     Fixed
		low, high int
		expected  int
	}{
		{"Zero inside range", 0, -2, 2, 0},
		{"Clamped to high", 10, -2, 2, 2},
		{"Clamped to low", -10, -2, 2, -2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.fixed.NextSignedIntInRange(tc.low, tc.high); got != tc.expected {
				t.Errorf("Expected %d, but got %d", tc.expected, got)
			}
		})
	}
}
