// SPDX-License-Identifier: EPL-2.0

package wave

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// specCache is one pixel-indexed spectrogram rendering: per column, half
// an FFT's worth of power values in decibels (linear for the
// autocorrelation algorithm). Unlike the waveform cache it has no
// invalid-region set; validity is entirely settings, origin, and dirty
// counter based.
type specCache struct {
	dirty int
	len   int
	start float64
	pps   float64

	settings SpectrogramSettings

	freq  []float32 // len * nBins, pixel-major
	where []int64   // len+1
}

func newSpecCache(numPixels int, pps, t0 float64, dirty int, settings SpectrogramSettings) *specCache {
	return &specCache{
		dirty:    dirty,
		len:      numPixels,
		start:    t0,
		pps:      pps,
		settings: settings,
		freq:     make([]float32, numPixels*settings.NBins()),
		where:    make([]int64, numPixels+1),
	}
}

// matches reports whether the cache can serve requests at the given zoom
// with the given analysis parameters. The zoom comparison is tolerant
// like the waveform cache's; everything else must be exactly equal.
func (c *specCache) matches(dirty int, pps float64, settings SpectrogramSettings, rate float64) bool {
	return ppsMatch(pps, c.pps, c.len, rate) &&
		c.dirty == dirty &&
		c.settings == settings
}

// GetSpectrogram returns the power spectrum columns for the view starting
// at t0 with the given zoom, computed with the given analysis settings.
// The slices reference the clip's cache and stay valid until the next
// call that mutates it. rebuilt reports whether any column had to be
// recomputed (false means a complete cache hit).
func (c *Clip) GetSpectrogram(t0, pixelsPerSecond float64, numPixels int,
	settings SpectrogramSettings,
) (freq []float32, where []int64, rebuilt bool, err error) {
	if numPixels <= 0 || pixelsPerSecond <= 0 {
		return nil, nil, false, ErrBadRequest
	}
	if err := settings.validate(); err != nil {
		return nil, nil, false, err
	}
	// The autocorrelation algorithm never pads; normalize so the cache
	// key does not distinguish settings that compute identically.
	settings.ZeroPaddingFactor = settings.zeroPadding()

	c.mu.Lock()
	defer c.mu.Unlock()

	rate := float64(c.rate)
	old := c.specCache
	match := old != nil && old.len > 0 && old.matches(c.dirty, pixelsPerSecond, settings, rate)

	if match && old.start == t0 && old.len >= numPixels {
		return old.freq[:numPixels*settings.NBins()], old.where[:numPixels+1], false, nil
	}

	// Reassigned energy spills into neighboring columns, so copying a
	// column range out of an old cache is unsound; only the full hit
	// above is allowed to reuse one.
	if settings.Algorithm == AlgReassignment {
		match = false
	}

	samplesPerPixel := rate / pixelsPerSecond

	var (
		oldX0              int
		correction         float64
		copyBegin, copyEnd int
	)
	if match {
		oldX0, correction = findCorrection(old.where, old.len, numPixels,
			t0, rate, samplesPerPixel)
		copyBegin = minInt(numPixels, maxInt(0, -oldX0))
		copyEnd = minInt(numPixels, maxInt(0, old.len-oldX0))
	}
	if copyEnd <= copyBegin {
		copyBegin, copyEnd = 0, 0
		old = nil
	}

	nc := newSpecCache(numPixels, pixelsPerSecond, t0, c.dirty, settings)
	// Offset the grid half a pixel left of the waveform grid so each
	// FFT window centers under its column instead of its left edge.
	fillWhere(nc.where, numPixels, 0.5, correction, t0, rate, samplesPerPixel)

	nBins := settings.NBins()
	if old != nil {
		for x := copyBegin; x < copyEnd; x++ {
			src := (x + oldX0) * nBins
			copy(nc.freq[x*nBins:(x+1)*nBins], old.freq[src:src+nBins])
		}
	}

	if err := nc.populate(settings, c.reader, copyBegin, copyEnd, rate, pixelsPerSecond); err != nil {
		return nil, nil, false, err
	}

	c.specCache = nc
	return nc.freq, nc.where, true, nil
}

// specScratch bundles the per-populate working state so the window
// tables and sample buffer are built once, not per column.
type specScratch struct {
	base, deriv, tramp []float64
	buf                []float64 // fftLen, the windowing/transform buffer
	samples            []float32 // fftLen, raw samples before conversion
	gain               []float32
}

// populate computes every column outside [copyBegin, copyEnd), in the two
// ranges before and after the copied span. For reassignment it also walks
// extra columns beyond each range's edges, since their energy may be
// reassigned into the visible range, then converts the accumulated linear
// power to decibels in a final pass.
func (c *specCache) populate(settings SpectrogramSettings, reader sampleReader,
	copyBegin, copyEnd int, rate, pixelsPerSecond float64,
) error {
	fftLen := settings.fftLen()
	nBins := settings.NBins()
	reassignment := settings.Algorithm == AlgReassignment

	scratch := &specScratch{
		buf:     make([]float64, fftLen),
		samples: make([]float32, fftLen),
	}
	scratch.base, scratch.deriv, scratch.tramp = settings.analysisWindows()
	if settings.Algorithm != AlgAutocorrelation {
		scratch.gain = spectrogramGainFactors(fftLen, rate, settings.FrequencyGain)
	}

	numSamples := reader.NumSamples()

	for jj := 0; jj < 2; jj++ {
		lower, upper := 0, copyBegin
		if jj == 1 {
			lower, upper = copyEnd, c.len
		}

		for xx := lower; xx < upper; xx++ {
			if _, err := c.calculateOneSpectrum(settings, reader, xx, numSamples,
				rate, pixelsPerSecond, lower, upper, scratch); err != nil {
				return err
			}
		}

		if reassignment {
			// Energy from columns beyond the range's edges may land
			// inside it. Walk outward until a column contributes
			// nothing, up to a bounded distance.
			limit := int(0.5 + float64(fftLen)*pixelsPerSecond/rate)
			if limit > maxReassignmentEdgeColumns {
				limit = maxReassignmentEdgeColumns
			}

			xx := lower
			for ii := 0; ii < limit; ii++ {
				xx--
				hit, err := c.calculateOneSpectrum(settings, reader, xx, numSamples,
					rate, pixelsPerSecond, lower, upper, scratch)
				if err != nil {
					return err
				}
				if !hit {
					break
				}
			}

			xx = upper
			for ii := 0; ii < limit; ii++ {
				hit, err := c.calculateOneSpectrum(settings, reader, xx, numSamples,
					rate, pixelsPerSecond, lower, upper, scratch)
				if err != nil {
					return err
				}
				xx++
				if !hit {
					break
				}
			}

			// Only now is cross-column accumulation finished; convert
			// to decibels and apply the gain tilt.
			for xx := lower; xx < upper; xx++ {
				col := c.freq[xx*nBins : (xx+1)*nBins]
				for ii := range col {
					col[ii] = powerToDB(float64(col[ii]))
				}
				for ii, g := range scratch.gain {
					col[ii] += g
				}
			}
		}
	}
	return nil
}

// maxReassignmentEdgeColumns bounds how far beyond a computed range the
// reassignment pass looks for columns whose energy lands inside it. An
// empirically chosen cap, kept tunable.
const maxReassignmentEdgeColumns = 100

// calculateOneSpectrum computes column xx. For in-range columns the
// result lands in the column's slice of freq; for reassignment, power is
// accumulated into whatever columns of [lowerBound, upperBound) the time
// correction selects, and the returned bool reports whether any landed.
func (c *specCache) calculateOneSpectrum(settings SpectrogramSettings,
	reader sampleReader, xx int, numSamples int64,
	rate, pixelsPerSecond float64, lowerBound, upperBound int,
	scratch *specScratch,
) (bool, error) {
	windowSize := settings.WindowSize
	fftLen := settings.fftLen()
	nBins := settings.NBins()
	padding := (windowSize * (settings.zeroPadding() - 1)) / 2
	reassignment := settings.Algorithm == AlgReassignment

	// Map the column to its center sample, extrapolating linearly for
	// the out-of-range columns the reassignment pass visits.
	var from int64
	switch {
	case xx < 0:
		from = int64(float64(c.where[0]) + float64(xx)*(rate/pixelsPerSecond))
	case xx > c.len:
		from = int64(float64(c.where[c.len]) + float64(xx-c.len)*(rate/pixelsPerSecond))
	default:
		from = c.where[xx]
	}

	if from < 0 || from >= numSamples {
		if xx >= 0 && xx < c.len {
			col := c.freq[xx*nBins : (xx+1)*nBins]
			for i := range col {
				col[i] = 0
			}
		}
		return false, nil
	}

	// Take a window of samples centered on the point, zero padded at
	// the clip's edges, placed inside the (possibly longer) buffer.
	for i := range scratch.buf {
		scratch.buf[i] = 0
	}
	from -= int64(windowSize >> 1)
	myLen := windowSize
	adj := padding
	if from < 0 {
		adj += int(-from)
		myLen -= int(-from)
		from = 0
	}
	if from+int64(myLen) > numSamples {
		myLen = int(numSamples - from)
	}
	if myLen > 0 {
		s := scratch.samples[:myLen]
		if err := reader.Floats(s, from, myLen); err != nil {
			return false, err
		}
		for i, v := range s {
			scratch.buf[adj+i] = float64(v)
		}
	}

	switch {
	case settings.Algorithm == AlgAutocorrelation:
		autocorrSpectrum(scratch.buf, scratch.base, c.freq[xx*nBins:(xx+1)*nBins])
		return true, nil

	case !reassignment:
		col := c.freq[xx*nBins : (xx+1)*nBins]
		plainSpectrum(scratch.buf, scratch.base, col)
		for i, g := range scratch.gain {
			col[i] += g
		}
		return true, nil
	}

	// Reassignment: transform the signal three times, windowed by the
	// base window, its derivative, and the time ramp.
	windowed := make([]float64, fftLen)
	for i := range windowed {
		windowed[i] = scratch.buf[i] * scratch.base[i]
	}
	specBase := fft.FFTReal(windowed)

	for i := range windowed {
		windowed[i] = scratch.buf[i] * scratch.deriv[i]
	}
	specDeriv := fft.FFTReal(windowed)

	for i := range windowed {
		windowed[i] = scratch.buf[i] * scratch.tramp[i]
	}
	specTramp := fft.FFTReal(windowed)

	const epsilon = 1e-16
	freqMultiplier := -float64(fftLen) / (2 * math.Pi)

	landed := false
	for ii := 0; ii < nBins; ii++ {
		denomRe, denomIm := real(specBase[ii]), imag(specBase[ii])
		power := denomRe*denomRe + denomIm*denomIm
		if power < epsilon {
			continue
		}

		// Imaginary part of the derivative/base quotient gives the
		// frequency correction for this bin.
		numRe, numIm := real(specDeriv[ii]), imag(specDeriv[ii])
		quotIm := (-numRe*denomIm + numIm*denomRe) / power
		bin := int(float64(ii) + freqMultiplier*quotIm + 0.5)
		if bin < 0 || bin >= nBins {
			continue
		}

		// Real part of the time-ramp/base quotient gives the time
		// correction, in sample intervals.
		numRe, numIm = real(specTramp[ii]), imag(specTramp[ii])
		timeCorrection := (numRe*denomRe + numIm*denomIm) / power

		correctedX := int(math.Floor(0.5 + float64(xx) + timeCorrection*pixelsPerSecond/rate))
		if correctedX >= lowerBound && correctedX < upperBound {
			landed = true
			c.freq[correctedX*nBins+bin] += float32(power)
		}
	}
	return landed, nil
}
