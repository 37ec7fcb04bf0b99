package audio

import (
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-fxrack/internal/testutil"
)

func TestParamClampsTarget(t *testing.T) {
	t.Parallel()

	p := NewParam(0.5, 0, 1, 1000)

	tests := []struct {
		in, want float64
	}{
		{1.5, 1},
		{-3, 0},
		{0.25, 0.25},
	}

	for _, tc := range tests {
		if got := p.SetValue(tc.in); got != tc.want {
			t.Fatalf("SetValue(%v) = %v, want %v", tc.in, got, tc.want)
		}

		if got := p.Next(); got != tc.want {
			t.Fatalf("Next after SetValue(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParamIgnoresNonFinite(t *testing.T) {
	t.Parallel()

	p := NewParam(0.3, 0, 1, 1000)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := p.SetValue(v); got != 0.3 {
			t.Fatalf("SetValue(%v) = %v, want previous target 0.3", v, got)
		}
	}

	if got := p.Next(); got != 0.3 {
		t.Fatalf("Next = %v, want 0.3", got)
	}
}

func TestParamLinearRamp(t *testing.T) {
	t.Parallel()

	p := NewParam(0, 0, 1, 1000)
	p.RampTo(1, 10*time.Millisecond)

	got := make([]float64, 12)
	p.Fill(got)

	want := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1, 1, 1}
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)

	if got[9] != 1 {
		t.Fatalf("ramp end = %v, want exactly 1", got[9])
	}
}

func TestParamRetargetMidRamp(t *testing.T) {
	t.Parallel()

	p := NewParam(0, 0, 1, 1000)
	p.RampTo(1, 10*time.Millisecond)

	if got := p.Advance(5); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("Advance(5) = %v, want 0.5", got)
	}

	p.RampTo(0, 5*time.Millisecond)

	if got := p.Advance(5); got != 0 {
		t.Fatalf("Advance(5) after retarget = %v, want 0", got)
	}
}

func TestParamSwapsReversedBounds(t *testing.T) {
	t.Parallel()

	p := NewParam(5, 10, 0, 1000)
	if p.Min() != 0 || p.Max() != 10 {
		t.Fatalf("bounds = [%v, %v], want [0, 10]", p.Min(), p.Max())
	}
}
