// SPDX-License-Identifier: EPL-2.0

package wave

import (
	"math"
	"testing"
)

func TestFillWhere_MonotonicAndNonNegative(t *testing.T) {
	t.Parallel()

	const numPixels = 500
	where := make([]int64, numPixels+1)
	fillWhere(where, numPixels, 0, 0, 0.0, 44100, 441)

	if where[0] < 0 {
		t.Errorf("where[0] = %d, want >= 0", where[0])
	}
	for i := 0; i < numPixels; i++ {
		if where[i] > where[i+1] {
			t.Fatalf("where[%d] = %d > where[%d] = %d", i, where[i], i+1, where[i+1])
		}
	}
	if got, want := where[numPixels]-where[0], int64(numPixels*441); got != want {
		t.Errorf("where span = %d, want %d", got, want)
	}
}

func TestFillWhere_NegativeOriginClampsFirstOnly(t *testing.T) {
	t.Parallel()

	where := make([]int64, 11)
	fillWhere(where, 10, 0, 0, -2.0, 100, 10)

	if where[0] != 0 {
		t.Errorf("where[0] = %d, want clamped to 0", where[0])
	}
	if where[10] >= 0 {
		t.Errorf("where[10] = %d, want still negative (no clamp past first)", where[10])
	}
}

func TestFillWhere_SpectrogramBias(t *testing.T) {
	t.Parallel()

	const spp = 100.0
	plain := make([]int64, 11)
	biased := make([]int64, 11)
	fillWhere(plain, 10, 0, 0, 1.0, 1000, spp)
	fillWhere(biased, 10, 0.5, 0, 1.0, 1000, spp)

	for i := range plain {
		if got, want := biased[i]-plain[i], int64(spp/2); got != want {
			t.Errorf("bias at %d = %d samples, want %d", i, got, want)
		}
	}
}

func TestFindCorrection_ExactOverlap(t *testing.T) {
	t.Parallel()

	const (
		oldLen = 100
		spp    = 441.0
		rate   = 44100.0
	)
	oldWhere := make([]int64, oldLen+1)
	fillWhere(oldWhere, oldLen, 0, 0, 0.0, rate, spp)

	// Same origin: column 0 of the new request is column 0 of the old.
	oldX0, correction := findCorrection(oldWhere, oldLen, oldLen, 0.0, rate, spp)
	if oldX0 != 0 {
		t.Errorf("oldX0 = %d, want 0", oldX0)
	}
	if math.Abs(correction) > spp {
		t.Errorf("correction = %v, want within one pixel of samples", correction)
	}
}

func TestFindCorrection_PanByWholePixels(t *testing.T) {
	t.Parallel()

	const (
		oldLen = 100
		spp    = 441.0
		rate   = 44100.0
	)
	oldWhere := make([]int64, oldLen+1)
	fillWhere(oldWhere, oldLen, 0, 0, 0.0, rate, spp)

	// Pan right by 25 pixels worth of time.
	t0 := 25 * spp / rate
	oldX0, correction := findCorrection(oldWhere, oldLen, oldLen, t0, rate, spp)
	if oldX0 != 25 {
		t.Errorf("oldX0 = %d, want 25", oldX0)
	}
	if math.Abs(correction) > spp {
		t.Errorf("correction = %v, want clamped to one pixel", correction)
	}
}

func TestFindCorrection_DisjointSpans(t *testing.T) {
	t.Parallel()

	const (
		oldLen = 100
		spp    = 441.0
		rate   = 44100.0
	)
	oldWhere := make([]int64, oldLen+1)
	fillWhere(oldWhere, oldLen, 0, 0, 0.0, rate, spp)

	// Far beyond the old cache's span.
	oldX0, correction := findCorrection(oldWhere, oldLen, oldLen, 100.0, rate, spp)
	if oldX0 != oldLen || correction != 0 {
		t.Errorf("findCorrection(disjoint) = (%d, %v), want (%d, 0)", oldX0, correction, oldLen)
	}

	// Entirely before it.
	oldX0, correction = findCorrection(oldWhere, oldLen, oldLen, -100.0, rate, spp)
	if oldX0 != oldLen || correction != 0 {
		t.Errorf("findCorrection(before) = (%d, %v), want (%d, 0)", oldX0, correction, oldLen)
	}
}

func TestFindCorrection_DegenerateOldCache(t *testing.T) {
	t.Parallel()

	// An old cache whose span rounds to less than one sample.
	oldWhere := []int64{0, 0}
	oldX0, correction := findCorrection(oldWhere, 1, 10, 0.0, 44100, 0.1)
	if oldX0 != 1 || correction != 0 {
		t.Errorf("findCorrection(degenerate) = (%d, %v), want (1, 0)", oldX0, correction)
	}
}
