// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"math"
	"testing"
)

func TestCubicInterpolate_Endpoints(t *testing.T) {
	t.Parallel()

	// At x=0 the spline passes through y1, at x=1 through y2.
	if got := cubicInterpolate(0, 0.3, 0.7, 1, 0); got != 0.3 {
		t.Errorf("cubicInterpolate(..., 0) = %v, want 0.3", got)
	}
	if got := cubicInterpolate(0, 0.3, 0.7, 1, 1); math.Abs(float64(got-0.7)) > 1e-6 {
		t.Errorf("cubicInterpolate(..., 1) = %v, want 0.7", got)
	}
}

func TestCubicInterpolate_Linear(t *testing.T) {
	t.Parallel()

	// Points on a straight line interpolate linearly.
	for _, x := range []float32{0, 0.25, 0.5, 0.75, 1} {
		got := cubicInterpolate(0, 1, 2, 3, x)
		want := 1 + x
		if math.Abs(float64(got-want)) > 1e-5 {
			t.Errorf("cubicInterpolate(line, %v) = %v, want %v", x, got, want)
		}
	}
}

func TestCubicInterpolate_Constant(t *testing.T) {
	t.Parallel()

	for _, x := range []float32{0, 0.1, 0.5, 0.9, 1} {
		if got := cubicInterpolate(0.4, 0.4, 0.4, 0.4, x); math.Abs(float64(got-0.4)) > 1e-6 {
			t.Errorf("cubicInterpolate(const, %v) = %v, want 0.4", x, got)
		}
	}
}
