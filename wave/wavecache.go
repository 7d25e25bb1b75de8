// SPDX-License-Identifier: EPL-2.0

package wave

// sampleReader is the read-only view of the sample store the caches
// consume. *store.Sequence satisfies it.
type sampleReader interface {
	NumSamples() int64
	// Floats decodes count normalized samples starting at start.
	Floats(dst []float32, start int64, count int) error
	// WaveDisplay fills per-pixel min/max/rms/flags for count pixels
	// bounded by where (count+1 entries). Negative flags mark columns
	// backed by still-loading data.
	WaveDisplay(min, max, rms []float32, flags []int, count int, where []int64) error
}

// waveCache is one pixel-indexed rendering of min/max/rms per column for
// a given pan/zoom state.
type waveCache struct {
	dirty int
	len   int // counts pixels, not samples
	start float64
	pps   float64
	rate  float64

	where []int64 // len+1 sample boundaries
	min   []float32
	max   []float32
	rms   []float32
	flags []int

	// odPixels counts columns whose flag is negative, i.e. columns backed
	// by data a background decoder has not finished yet. Maintained
	// incrementally as invalid regions are resolved.
	odPixels int

	invalid invalidRegions
}

func newWaveCache(numPixels int, pps, rate, t0 float64, dirty int) *waveCache {
	return &waveCache{
		dirty: dirty,
		len:   numPixels,
		start: t0,
		pps:   pps,
		rate:  rate,
		where: make([]int64, numPixels+1),
		min:   make([]float32, numPixels),
		max:   make([]float32, numPixels),
		rms:   make([]float32, numPixels),
		flags: make([]int, numPixels),
	}
}

// markInvalidSamples translates a stale sample range into pixel columns
// and records it. A no-op when the cache has no active pps or the range
// misses the cached span entirely.
func (c *waveCache) markInvalidSamples(sampleStart, sampleEnd int64) {
	if c.pps == 0 {
		return
	}
	samplesPerPixel := c.rate / c.pps
	origin := c.start * c.rate

	invalStart := int((float64(sampleStart) - origin) / samplesPerPixel)
	invalEnd := int((float64(sampleEnd)-origin)/samplesPerPixel) + 1 // cover the end

	c.invalid.add(invalStart, invalEnd, c.len)
}

// loadInvalidRegions recomputes every stale pixel range in place from the
// store and clears the set. When updateODCount is set the cache's
// still-loading pixel count is adjusted by the before/after difference so
// callers never need to rescan all flags.
func (c *waveCache) loadInvalidRegions(reader sampleReader, updateODCount bool) error {
	return c.invalid.drain(func(start, end int) error {
		before := 0
		if updateODCount {
			before = c.countODPixels(start, end)
		}

		err := reader.WaveDisplay(
			c.min[start:end], c.max[start:end], c.rms[start:end],
			c.flags[start:end], end-start, c.where[start:end+1],
		)
		if err != nil {
			return err
		}

		if updateODCount {
			c.odPixels -= before - c.countODPixels(start, end)
		}
		return nil
	})
}

func (c *waveCache) countODPixels(start, end int) int {
	n := 0
	for _, f := range c.flags[start:end] {
		if f < 0 {
			n++
		}
	}
	return n
}
