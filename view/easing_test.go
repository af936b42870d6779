package view

import (
	"math"
	"testing"
)

// TestEasingEndpoints verifies f(0)=0 and f(1)=1 for every easing.
func TestEasingEndpoints(t *testing.T) {
	tests := []struct {
		name string
		fn   Easing
	}{
		{"ExpoOut", ExpoOut},
		{"ExpoIn", ExpoIn},
		{"ElasticOut", ElasticOut},
		{"InOutCirc", InOutCirc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(0); got != 0 {
				t.Errorf("%s(0) = %v, want 0", tt.name, got)
			}
			if got := tt.fn(1); got != 1 {
				t.Errorf("%s(1) = %v, want 1", tt.name, got)
			}
		})
	}
}

// TestEasingClamped verifies out-of-range inputs clamp to the endpoints.
func TestEasingClamped(t *testing.T) {
	fns := []Easing{ExpoOut, ExpoIn, ElasticOut, InOutCirc}
	for _, fn := range fns {
		if got := fn(-0.5); got != 0 {
			t.Errorf("f(-0.5) = %v, want 0", got)
		}
		if got := fn(1.5); got != 1 {
			t.Errorf("f(1.5) = %v, want 1", got)
		}
	}
}

// TestEasingMonotoneEnough spot-checks interior values stay in a sane
// range. ElasticOut intentionally overshoots 1, the rest stay inside
// [0, 1].
func TestEasingInteriorRange(t *testing.T) {
	for _, tt := range []struct {
		name      string
		fn        Easing
		overshoot bool
	}{
		{"ExpoOut", ExpoOut, false},
		{"ExpoIn", ExpoIn, false},
		{"ElasticOut", ElasticOut, true},
		{"InOutCirc", InOutCirc, false},
	} {
		for i := 1; i < 100; i++ {
			x := float64(i) / 100
			y := tt.fn(x)
			if math.IsNaN(y) {
				t.Fatalf("%s(%v) is NaN", tt.name, x)
			}
			if !tt.overshoot && (y < 0 || y > 1) {
				t.Errorf("%s(%v) = %v outside [0,1]", tt.name, x, y)
			}
			if tt.overshoot && (y < -0.5 || y > 1.5) {
				t.Errorf("%s(%v) = %v wildly out of range", tt.name, x, y)
			}
		}
	}
}

// TestExpoOutValues checks a few known samples.
func TestExpoOutValues(t *testing.T) {
	got := ExpoOut(0.5)
	want := 1 - math.Pow(2, -5)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("ExpoOut(0.5) = %v, want %v", got, want)
	}
}
