// SPDX-License-Identifier: EPL-2.0

package wave

import "math"

// findCorrection maps the origin of a new display request onto an old
// cache's pixel grid. It returns the old-cache column that best matches
// the new origin (possibly out of bounds) and a sub-pixel correction, in
// samples, that re-aligns the new grid with the old one. The correction
// mitigates the accumulation of rounding errors in copies of copies of
// ... of caches.
//
// When the two spans are disjoint, or the old cache's span rounds to less
// than one sample, there is nothing to align: the returned column equals
// oldLen and the correction is zero.
func findCorrection(oldWhere []int64, oldLen, newLen int,
	t0, rate, samplesPerPixel float64,
) (oldX0 int, correction float64) {
	// Find the sample position that is the origin in the old cache.
	oldWhere0 := float64(oldWhere[1]) - samplesPerPixel
	oldWhereLast := oldWhere0 + float64(oldLen)*samplesPerPixel
	// Length of the old cache in samples.
	denom := oldWhereLast - oldWhere0

	// What sample would go in where[0] with no correction?
	guessWhere0 := t0 * rate

	if oldWhereLast <= guessWhere0 ||
		guessWhere0+float64(newLen)*samplesPerPixel <= oldWhere0 ||
		denom < 0.5 {
		// The column computation below could underflow; report no
		// usable overlap instead.
		return oldLen, 0
	}

	// Integer position in the old cache array, even if out of bounds.
	oldX0 = int(math.Floor(0.5 + float64(oldLen)*(guessWhere0-oldWhere0)/denom))
	// The sample the old cache would have put at that column.
	where0 := oldWhere0 + float64(oldX0)*samplesPerPixel
	// Clamp the discrepancy to one pixel's worth of samples.
	correction = math.Max(-samplesPerPixel, math.Min(samplesPerPixel, where0-guessWhere0))
	return oldX0, correction
}

// fillWhere computes the len+1 sample boundaries of a pixel grid.
// biasPixels shifts the whole grid; the spectrogram passes 0.5 so the
// analysis window centers under its column instead of its left edge.
func fillWhere(where []int64, count int, biasPixels, correction,
	t0, rate, samplesPerPixel float64,
) {
	// Be careful to make the first value non-negative
	w0 := 0.5 + correction + biasPixels*samplesPerPixel + t0*rate
	where[0] = int64(math.Max(0, math.Floor(w0)))
	for x := 1; x < count+1; x++ {
		where[x] = int64(math.Floor(w0 + float64(x)*samplesPerPixel))
	}
}
