// SPDX-License-Identifier: EPL-2.0

package wave

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// dbFloor is the decibel value reported for zero or negative power.
const dbFloor = -160.0

func powerToDB(power float64) float32 {
	if power <= 0 {
		return dbFloor
	}
	return float32(10 * math.Log10(power))
}

// spectrogramGainFactors precomputes the per-bin dB correction applied
// when a frequency gain is set: gain dB per decade, anchored so the bin
// at 1000 Hz gets zero. Bin 0 replicates bin 1 rather than taking the
// logarithm of zero. Returns nil when the gain is off.
func spectrogramGainFactors(fftLen int, rate float64, frequencyGain int) []float32 {
	if frequencyGain <= 0 {
		return nil
	}
	// Reciprocal of the (possibly fractional) bin number of 1000 Hz.
	factor := (rate / float64(fftLen)) / 1000.0

	half := fftLen / 2
	gain := make([]float32, half)
	gain[0] = float32(float64(frequencyGain) * math.Log10(factor))
	for x := 1; x < half; x++ {
		gain[x] = float32(float64(frequencyGain) * math.Log10(factor*float64(x)))
	}
	return gain
}

// plainSpectrum windows buf in place, transforms it, and writes the
// half-spectrum to out in decibels.
func plainSpectrum(buf, win []float64, out []float32) {
	for i := range buf {
		buf[i] *= win[i]
	}
	spec := fft.FFTReal(buf)
	for i := range out {
		re, im := real(spec[i]), imag(spec[i])
		out[i] = powerToDB(re*re + im*im)
	}
}

// autocorrSpectrum computes the enhanced autocorrelation estimate used
// for pitch display: transform the windowed signal, cube-root the power
// spectrum (flattening formants so the lag peaks stand out), and
// transform again. The output is linear, not decibels.
func autocorrSpectrum(buf, win []float64, out []float32) {
	n := len(buf)
	for i := range buf {
		buf[i] *= win[i]
	}
	spec := fft.FFTReal(buf)

	// The power spectrum of a real signal is even, so the second
	// transform below again sees a real sequence.
	power := make([]float64, n)
	for i, c := range spec {
		re, im := real(c), imag(c)
		power[i] = math.Cbrt(re*re + im*im)
	}

	spec = fft.FFTReal(power)
	for i := range out {
		out[i] = float32(real(spec[i]) / float64(n))
	}
}
