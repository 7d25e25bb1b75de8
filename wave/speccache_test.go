// SPDX-License-Identifier: EPL-2.0

package wave

import (
	"math"
	"testing"

	"github.com/ik5/waveview/sample"
)

func plainSettings(windowSize int) SpectrogramSettings {
	return SpectrogramSettings{
		WindowType:        WindowHann,
		WindowSize:        windowSize,
		ZeroPaddingFactor: 1,
		Algorithm:         AlgPlain,
	}
}

func TestGetSpectrogram_SilenceHitsDecibelFloor(t *testing.T) {
	t.Parallel()

	const rate = 8000
	c := newTestClip(t, rate, make([]float32, rate))

	freq, where, rebuilt, err := c.GetSpectrogram(0.0, 10, 10, plainSettings(256))
	if err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}
	if !rebuilt {
		t.Errorf("rebuilt = false on first request")
	}
	if len(where) != 11 {
		t.Fatalf("len(where) = %d, want 11", len(where))
	}
	if got, want := len(freq), 10*128; got != want {
		t.Fatalf("len(freq) = %d, want %d", got, want)
	}
	for i, v := range freq {
		if v != dbFloor {
			t.Fatalf("freq[%d] = %v, want exactly %v for silence", i, v, float32(dbFloor))
		}
	}
}

func TestGetSpectrogram_FullHitServedFromCache(t *testing.T) {
	t.Parallel()

	c := newTestClip(t, 8000, sine(8000, 500, 8000))

	f1, _, rebuilt, err := c.GetSpectrogram(0.0, 20, 16, plainSettings(256))
	if err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}
	if !rebuilt {
		t.Fatalf("first request rebuilt = false")
	}

	f2, _, rebuilt, err := c.GetSpectrogram(0.0, 20, 16, plainSettings(256))
	if err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}
	if rebuilt {
		t.Errorf("identical request rebuilt = true, want cache hit")
	}
	if &f1[0] != &f2[0] {
		t.Errorf("cache hit returned different backing array")
	}
}

func TestGetSpectrogram_SettingsChangeForcesRebuild(t *testing.T) {
	t.Parallel()

	c := newTestClip(t, 8000, sine(8000, 500, 8000))

	if _, _, _, err := c.GetSpectrogram(0.0, 20, 16, plainSettings(256)); err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}

	changed := plainSettings(256)
	changed.WindowType = WindowHamming
	_, _, rebuilt, err := c.GetSpectrogram(0.0, 20, 16, changed)
	if err != nil {
		t.Fatalf("GetSpectrogram(changed) error = %v", err)
	}
	if !rebuilt {
		t.Errorf("window type change did not force a rebuild")
	}
}

func TestGetSpectrogram_DirtyForcesRebuild(t *testing.T) {
	t.Parallel()

	c := newTestClip(t, 8000, sine(8000, 500, 8000))

	if _, _, _, err := c.GetSpectrogram(0.0, 20, 16, plainSettings(256)); err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}
	c.MarkChanged()
	_, _, rebuilt, err := c.GetSpectrogram(0.0, 20, 16, plainSettings(256))
	if err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}
	if !rebuilt {
		t.Errorf("dirty-counter bump did not force a rebuild")
	}
}

func TestGetSpectrogram_PanMatchesFreshComputation(t *testing.T) {
	t.Parallel()

	const (
		rate = 8000
		pps  = 20.0
	)
	samples := sine(rate, 500, 4*rate)

	c := newTestClip(t, rate, samples)
	if _, _, _, err := c.GetSpectrogram(0.0, pps, 32, plainSettings(256)); err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}

	// Pan right by 8 whole pixels so the grids align exactly.
	t0 := 8 / pps
	panned, _, _, err := c.GetSpectrogram(t0, pps, 32, plainSettings(256))
	if err != nil {
		t.Fatalf("GetSpectrogram(panned) error = %v", err)
	}

	fresh := newTestClip(t, rate, samples)
	want, _, _, err := fresh.GetSpectrogram(t0, pps, 32, plainSettings(256))
	if err != nil {
		t.Fatalf("GetSpectrogram(fresh) error = %v", err)
	}
	for i := range want {
		if panned[i] != want[i] {
			t.Fatalf("freq[%d]: panned %v != fresh %v", i, panned[i], want[i])
		}
	}
}

func TestGetSpectrogram_AutocorrelationIgnoresZeroPadding(t *testing.T) {
	t.Parallel()

	c := newTestClip(t, 8000, sine(8000, 200, 8000))

	s := SpectrogramSettings{
		WindowType:        WindowHann,
		WindowSize:        256,
		ZeroPaddingFactor: 4,
		Algorithm:         AlgAutocorrelation,
	}
	if _, _, _, err := c.GetSpectrogram(0.0, 10, 10, s); err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}

	// Padding never applies to autocorrelation, so a request differing
	// only in the padding factor is the same cache key.
	s.ZeroPaddingFactor = 1
	_, _, rebuilt, err := c.GetSpectrogram(0.0, 10, 10, s)
	if err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}
	if rebuilt {
		t.Errorf("padding factor changed the autocorrelation cache key")
	}
}

func TestGetSpectrogram_BadSettings(t *testing.T) {
	t.Parallel()

	c := newTestClip(t, 8000, nil)

	bad := plainSettings(7) // too small and odd
	if _, _, _, err := c.GetSpectrogram(0.0, 10, 10, bad); err != ErrBadSettings {
		t.Errorf("GetSpectrogram(bad window) error = %v, want ErrBadSettings", err)
	}

	bad = plainSettings(256)
	bad.ZeroPaddingFactor = 0
	if _, _, _, err := c.GetSpectrogram(0.0, 10, 10, bad); err != ErrBadSettings {
		t.Errorf("GetSpectrogram(bad padding) error = %v, want ErrBadSettings", err)
	}

	if _, _, _, err := c.GetSpectrogram(0.0, 0, 10, plainSettings(256)); err != ErrBadRequest {
		t.Errorf("GetSpectrogram(pps 0) error = %v, want ErrBadRequest", err)
	}
}

func TestGetSpectrogram_GridBiasedHalfPixel(t *testing.T) {
	t.Parallel()

	const (
		rate = 8000
		pps  = 10.0 // 800 samples per pixel
	)
	c := newTestClip(t, rate, make([]float32, rate))

	_, specWhere, _, err := c.GetSpectrogram(0.0, pps, 10, plainSettings(256))
	if err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}

	waveWhere := make([]int64, 11)
	fillWhere(waveWhere, 10, 0, 0, 0.0, rate, rate/pps)

	for i := range waveWhere {
		if got, want := specWhere[i]-waveWhere[i], int64(rate/pps/2); got != want {
			t.Errorf("where[%d] bias = %d samples, want %d", i, got, want)
		}
	}
}

func TestGetSpectrogram_OutOfRangeColumnsZeroFilled(t *testing.T) {
	t.Parallel()

	c := newTestClip(t, 8000, make([]float32, 8000)) // one second

	// A view entirely past the end of the clip.
	freq, _, _, err := c.GetSpectrogram(5.0, 10, 10, plainSettings(256))
	if err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}
	for i, v := range freq {
		if v != 0 {
			t.Fatalf("freq[%d] = %v, want zero fill past the clip", i, v)
		}
	}
}

// peakFraction converts a column from dB back to linear power and returns
// the share of its total power within one bin of the peak.
func peakFraction(col []float32) float64 {
	peak, total := 0, 0.0
	powers := make([]float64, len(col))
	for i, v := range col {
		p := math.Pow(10, float64(v)/10)
		powers[i] = p
		total += p
		if p > powers[peak] {
			peak = i
		}
	}
	if total == 0 {
		return 0
	}
	near := powers[peak]
	if peak > 0 {
		near += powers[peak-1]
	}
	if peak < len(powers)-1 {
		near += powers[peak+1]
	}
	return near / total
}

func TestGetSpectrogram_ReassignmentSharpensTone(t *testing.T) {
	t.Parallel()

	const (
		rate      = 8000
		numPixels = 20
		pps       = 20.0
	)
	// Halfway between bins 32 and 33 of a 256-sample window at 8 kHz,
	// the worst case for plain analysis: energy smears across the whole
	// mainlobe and scallops into sidelobes, while reassignment relocates
	// it onto the rounded bin.
	samples := sine(rate, 1015.625, rate)

	plainClip := newTestClip(t, rate, samples)
	plainFreq, _, _, err := plainClip.GetSpectrogram(0.0, pps, numPixels, plainSettings(256))
	if err != nil {
		t.Fatalf("GetSpectrogram(plain) error = %v", err)
	}

	reClip := newTestClip(t, rate, samples)
	reSettings := plainSettings(256)
	reSettings.Algorithm = AlgReassignment
	reFreq, _, _, err := reClip.GetSpectrogram(0.0, pps, numPixels, reSettings)
	if err != nil {
		t.Fatalf("GetSpectrogram(reassignment) error = %v", err)
	}

	const nBins = 128
	col := numPixels / 2
	plainFrac := peakFraction(plainFreq[col*nBins : (col+1)*nBins])
	reFrac := peakFraction(reFreq[col*nBins : (col+1)*nBins])

	if reFrac <= plainFrac {
		t.Errorf("reassignment peak fraction = %v, plain = %v; want sharper concentration",
			reFrac, plainFrac)
	}
	if reFrac < 0.9 {
		t.Errorf("reassignment peak fraction = %v, want a steady tone nearly all in one bin", reFrac)
	}
}

func TestGetSpectrogram_ReassignmentNeverPartiallyReuses(t *testing.T) {
	t.Parallel()

	const pps = 20.0
	c := newTestClip(t, 8000, sine(8000, 500, 16000))

	s := plainSettings(256)
	s.Algorithm = AlgReassignment
	if _, _, _, err := c.GetSpectrogram(0.0, pps, 16, s); err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}

	// Identical request: the full hit is still allowed.
	_, _, rebuilt, err := c.GetSpectrogram(0.0, pps, 16, s)
	if err != nil {
		t.Fatalf("GetSpectrogram() error = %v", err)
	}
	if rebuilt {
		t.Errorf("exact reassignment request rebuilt = true, want full hit")
	}

	// A pan must recompute every column; verify against scratch.
	panned, _, rebuilt, err := c.GetSpectrogram(4/pps, pps, 16, s)
	if err != nil {
		t.Fatalf("GetSpectrogram(panned) error = %v", err)
	}
	if !rebuilt {
		t.Fatalf("panned reassignment request did not rebuild")
	}
	fresh := newTestClip(t, 8000, sine(8000, 500, 16000))
	want, _, _, err := fresh.GetSpectrogram(4/pps, pps, 16, s)
	if err != nil {
		t.Fatalf("GetSpectrogram(fresh) error = %v", err)
	}
	for i := range want {
		if panned[i] != want[i] {
			t.Fatalf("freq[%d]: panned %v != fresh %v", i, panned[i], want[i])
		}
	}
}

func TestSpectrogramGainFactors(t *testing.T) {
	t.Parallel()

	if got := spectrogramGainFactors(1024, 44100, 0); got != nil {
		t.Errorf("gain factors for zero gain = %v, want nil", got)
	}

	gain := spectrogramGainFactors(1024, 44100, 20)
	if len(gain) != 512 {
		t.Fatalf("len(gain) = %d, want 512", len(gain))
	}
	if gain[0] != gain[1] {
		t.Errorf("gain[0] = %v, want replicated from bin 1 (%v)", gain[0], gain[1])
	}
	// Anchored at 1000 Hz: bins well below are attenuated, bins well
	// above are boosted.
	if gain[4] >= 0 {
		t.Errorf("gain[4] = %v, want negative below 1 kHz", gain[4])
	}
	if gain[500] <= 0 {
		t.Errorf("gain[500] = %v, want positive above 1 kHz", gain[500])
	}
}

func TestWindowTypeAndAlgorithmStrings(t *testing.T) {
	t.Parallel()

	if got := WindowBlackman.String(); got != "blackman" {
		t.Errorf("WindowBlackman.String() = %q", got)
	}
	if got := AlgReassignment.String(); got != "reassignment" {
		t.Errorf("AlgReassignment.String() = %q", got)
	}
	if got := WindowType(99).String(); got != "unknown" {
		t.Errorf("WindowType(99).String() = %q", got)
	}
}

func BenchmarkGetSpectrogram_Rebuild(b *testing.B) {
	c, _ := NewClip(sample.Float32, 8000, 0)
	c.Append(sine(8000, 440, 8000))
	c.Flush()

	settings := plainSettings(256)

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		c.MarkChanged()
		c.GetSpectrogram(0, 100, 100, settings)
	}
}
