// SPDX-License-Identifier: EPL-2.0

package wave

import (
	"github.com/mjibson/go-dsp/window"
)

// WindowType selects the analysis window applied before each transform.
type WindowType int

const (
	WindowHann WindowType = iota
	WindowHamming
	WindowBlackman
	WindowBartlett
	WindowRectangular
)

func (w WindowType) String() string {
	switch w {
	case WindowHann:
		return "hann"
	case WindowHamming:
		return "hamming"
	case WindowBlackman:
		return "blackman"
	case WindowBartlett:
		return "bartlett"
	case WindowRectangular:
		return "rectangular"
	}
	return "unknown"
}

func (w WindowType) valid() bool {
	return w >= WindowHann && w <= WindowRectangular
}

// values returns the window of length n.
func (w WindowType) values(n int) []float64 {
	switch w {
	case WindowHamming:
		return window.Hamming(n)
	case WindowBlackman:
		return window.Blackman(n)
	case WindowBartlett:
		return window.Bartlett(n)
	case WindowRectangular:
		ones := make([]float64, n)
		for i := range ones {
			ones[i] = 1
		}
		return ones
	default:
		return window.Hann(n)
	}
}

// Algorithm selects the spectral estimation variant.
type Algorithm int

const (
	// AlgPlain is the windowed magnitude spectrum.
	AlgPlain Algorithm = iota
	// AlgAutocorrelation is the enhanced autocorrelation estimate used
	// for pitch display.
	AlgAutocorrelation
	// AlgReassignment relocates each bin's energy to a sharper
	// time/frequency coordinate via derivative and time-ramp windows.
	AlgReassignment
)

func (a Algorithm) String() string {
	switch a {
	case AlgPlain:
		return "plain"
	case AlgAutocorrelation:
		return "autocorrelation"
	case AlgReassignment:
		return "reassignment"
	}
	return "unknown"
}

// SpectrogramSettings are the analysis parameters a spectrogram cache is
// keyed on. Any change forces a full rebuild.
type SpectrogramSettings struct {
	WindowType WindowType
	WindowSize int

	// ZeroPaddingFactor stretches the FFT length beyond the window for
	// finer frequency resolution. Ignored by the autocorrelation
	// algorithm, which always runs unpadded.
	ZeroPaddingFactor int

	// FrequencyGain, when positive, tilts the display by this many dB
	// per decade, anchored so 1000 Hz gets 0 dB of correction.
	FrequencyGain int

	Algorithm Algorithm
}

// DefaultSpectrogramSettings mirrors the usual editor defaults.
func DefaultSpectrogramSettings() SpectrogramSettings {
	return SpectrogramSettings{
		WindowType:        WindowHann,
		WindowSize:        1024,
		ZeroPaddingFactor: 1,
	}
}

func (s SpectrogramSettings) validate() error {
	if s.WindowSize < 8 || s.WindowSize%2 != 0 {
		return ErrBadSettings
	}
	if s.ZeroPaddingFactor < 1 {
		return ErrBadSettings
	}
	if !s.WindowType.valid() {
		return ErrBadSettings
	}
	if s.Algorithm < AlgPlain || s.Algorithm > AlgReassignment {
		return ErrBadSettings
	}
	return nil
}

// zeroPadding is the factor actually in effect.
func (s SpectrogramSettings) zeroPadding() int {
	if s.Algorithm == AlgAutocorrelation {
		return 1
	}
	return s.ZeroPaddingFactor
}

// fftLen is the transform length, window plus zero padding.
func (s SpectrogramSettings) fftLen() int {
	return s.WindowSize * s.zeroPadding()
}

// NBins is the number of output frequency bins per pixel column.
func (s SpectrogramSettings) NBins() int {
	return s.fftLen() / 2
}

// analysisWindows builds the three window tables used by the estimators,
// each of fftLen length with the window values centered and the padding
// zones zero. All three share one scale, chosen so a full-scale sine
// lands at 0 dB. The derivative window is a central difference; the time
// ramp weights each position by its signed distance from the center.
func (s SpectrogramSettings) analysisWindows() (base, deriv, tramp []float64) {
	fftLen := s.fftLen()
	padding := (s.WindowSize * (s.zeroPadding() - 1)) / 2

	base = make([]float64, fftLen)
	copy(base[padding:], s.WindowType.values(s.WindowSize))

	var sum float64
	for _, v := range base {
		sum += v
	}
	scale := 1.0
	if sum > 0 {
		scale = 2.0 / sum
	}
	for i := range base {
		base[i] *= scale
	}

	deriv = make([]float64, fftLen)
	for i := range deriv {
		var prev, next float64
		if i > 0 {
			prev = base[i-1]
		}
		if i < fftLen-1 {
			next = base[i+1]
		}
		deriv[i] = (next - prev) / 2
	}

	tramp = make([]float64, fftLen)
	for i := range tramp {
		tramp[i] = base[i] * (float64(i) - float64(fftLen)/2)
	}
	return base, deriv, tramp
}
