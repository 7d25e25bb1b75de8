// SPDX-License-Identifier: EPL-2.0

package wave

import (
	"math"
	"sync"

	"github.com/ik5/waveview/audio"
	"github.com/ik5/waveview/sample"
	"github.com/ik5/waveview/store"
)

// Display receives one waveform rendering: four pixel-indexed columns plus
// the sample boundaries that produced them. Normally the arrays are served
// by reference out of the clip's cache and stay valid until the next call
// that mutates the same cache. A caller that needs arrays it owns calls
// Allocate first; such a request bypasses the cache entirely.
type Display struct {
	Width int

	Min   []float32
	Max   []float32
	RMS   []float32
	Flags []int
	Where []int64

	owned bool
}

// Allocate gives the display its own backing arrays for width columns.
func (d *Display) Allocate(width int) {
	d.Width = width
	d.owned = true
	d.Min = make([]float32, width)
	d.Max = make([]float32, width)
	d.RMS = make([]float32, width)
	d.Flags = make([]int, width)
	d.Where = make([]int64, width+1)
}

// Clip is a contiguous, offset, rate-tagged span of audio samples together
// with the display caches rendered from it. All methods are safe for
// concurrent use; a background decoder may fill pending regions and mark
// them invalid while a rendering goroutine requests displays.
type Clip struct {
	mu sync.Mutex

	seq    *store.Sequence
	reader sampleReader // normally seq

	rate   int
	offset float64 // start time in seconds

	// dirty is bumped on every mutation of the underlying samples. A
	// cache built against an older value is never trusted.
	dirty int

	// appendBuf holds the unflushed tail of Append calls, already
	// normalized. The display path reads it for the newest audio that
	// has not reached the sequence yet.
	appendBuf []float32

	waveCache *waveCache
	specCache *specCache

	cutLines []*Clip
}

// NewClip creates an empty clip storing samples in the given format.
func NewClip(format sample.Format, rate int, offset float64) (*Clip, error) {
	if rate <= 0 {
		return nil, ErrBadRate
	}
	seq, err := store.NewSequence(format)
	if err != nil {
		return nil, err
	}
	return &Clip{
		seq:    seq,
		reader: seq,
		rate:   rate,
		offset: offset,
	}, nil
}

// Rate returns the clip's sample rate.
func (c *Clip) Rate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// SetRate retags the clip's samples with a new rate. The audio is not
// resampled, it just plays faster or slower; both caches are discarded.
func (c *Clip) SetRate(rate int) error {
	if rate <= 0 {
		return ErrBadRate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rate = rate
	c.markChangedLocked()
	return nil
}

// Offset returns the clip's start time in seconds.
func (c *Clip) Offset() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// SetOffset moves the clip on the timeline without touching its samples.
func (c *Clip) SetOffset(offset float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = offset
}

// NumSamples reports the committed sample count, excluding the unflushed
// append buffer.
func (c *Clip) NumSamples() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reader.NumSamples()
}

// StartTime returns the clip's position on the timeline.
func (c *Clip) StartTime() float64 {
	return c.Offset()
}

// EndTime returns the time one sample past the clip's committed samples.
func (c *Clip) EndTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset + float64(c.reader.NumSamples())/float64(c.rate)
}

// StartSample returns the clip's first sample position on the timeline.
func (c *Clip) StartSample() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(math.Floor(c.offset*float64(c.rate) + 0.5))
}

// EndSample returns the timeline sample position one past the clip's last.
func (c *Clip) EndSample() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(math.Floor(c.offset*float64(c.rate)+0.5)) + c.reader.NumSamples()
}

// WithinClip reports whether t falls inside the clip, with half a sample
// of slack on either side so boundary times land somewhere.
func (c *Clip) WithinClip(t float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	slack := 0.5 / float64(c.rate)
	end := c.offset + float64(c.reader.NumSamples())/float64(c.rate)
	return t > c.offset-slack && t < end+slack
}

// BeforeClip reports whether t falls before the clip's slack-adjusted start.
func (c *Clip) BeforeClip(t float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return t <= c.offset-0.5/float64(c.rate)
}

// AfterClip reports whether t falls at or past the clip's slack-adjusted end.
func (c *Clip) AfterClip(t float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	end := c.offset + float64(c.reader.NumSamples())/float64(c.rate)
	return t >= end+0.5/float64(c.rate)
}

// TimeToSamples converts a timeline instant to a sample index relative to
// the clip's start, clamped to the committed range.
func (c *Clip) TimeToSamples(t float64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeToSamplesLocked(t)
}

func (c *Clip) timeToSamplesLocked(t float64) int64 {
	s := int64(math.Floor((t-c.offset)*float64(c.rate) + 0.5))
	if s < 0 {
		return 0
	}
	if n := c.reader.NumSamples(); s > n {
		return n
	}
	return s
}

// MarkChanged bumps the dirty counter, forcing the next display request
// to recompute rather than reuse either cache.
func (c *Clip) MarkChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markChangedLocked()
}

func (c *Clip) markChangedLocked() {
	c.dirty++
}

// Append adds normalized samples to the clip. Whole blocks are committed
// to the sample store immediately; the remainder sits in the append
// buffer, still visible to the display path, until more samples arrive or
// Flush is called.
func (c *Clip) Append(floats []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.appendBuf = append(c.appendBuf, floats...)
	for len(c.appendBuf) >= store.BlockSize {
		if err := c.seq.Append(c.appendBuf[:store.BlockSize]); err != nil {
			return err
		}
		c.appendBuf = c.appendBuf[:copy(c.appendBuf, c.appendBuf[store.BlockSize:])]
	}
	c.markChangedLocked()
	return nil
}

// Flush commits whatever remains in the append buffer.
func (c *Clip) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

func (c *Clip) flushLocked() error {
	if len(c.appendBuf) == 0 {
		return nil
	}
	if err := c.seq.Append(c.appendBuf); err != nil {
		return err
	}
	c.appendBuf = c.appendBuf[:0]
	c.markChangedLocked()
	return nil
}

// AppendPending reserves count samples of not-yet-decoded audio at the end
// of the clip and returns the sample index where the region starts. The
// region displays as silence with a negative flag until FillPending
// supplies real data.
func (c *Clip) AppendPending(count int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.flushLocked(); err != nil {
		return 0, err
	}
	at := c.seq.AppendPending(count)
	c.markChangedLocked()
	return at, nil
}

// FillPending commits decoded samples into a pending region and marks the
// affected columns of the current waveform cache stale, so the next
// display request repairs just that span. Called by the background
// decoder; does not bump the dirty counter, the cache stays reusable.
func (c *Clip) FillPending(start int64, floats []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.seq.FillAt(start, floats); err != nil {
		return err
	}
	c.markInvalidLocked(start, start+int64(len(floats)))
	return nil
}

// MarkInvalid tells the waveform cache that samples in [sampleStart,
// sampleEnd) changed underneath it. A no-op when no cache is active or
// the range misses the cached span.
func (c *Clip) MarkInvalid(sampleStart, sampleEnd int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markInvalidLocked(sampleStart, sampleEnd)
}

func (c *Clip) markInvalidLocked(sampleStart, sampleEnd int64) {
	if c.waveCache != nil {
		c.waveCache.markInvalidSamples(sampleStart, sampleEnd)
	}
}

// IsLoading reports whether any part of the clip is still waiting for a
// background decoder.
func (c *Clip) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.HasPending()
}

// ppsMatch treats two zoom levels as equal when the accumulated timing
// error over numPixels columns stays under one sample period.
func ppsMatch(newPPS, oldPPS float64, numPixels int, rate float64) bool {
	if oldPPS == 0 {
		return false
	}
	return math.Abs(1/newPPS-1/oldPPS)*float64(numPixels) < 1/rate
}

// GetWaveDisplay fills d with min/max/RMS/flag columns for the view
// starting at time t0 with the given zoom. It reuses as much of the
// existing cache as the pan/zoom delta allows and recomputes only the
// rest. The returned bool reports whether any column is still backed by
// data a background decoder has not finished.
//
// When d owns its arrays (after Allocate) the cache is bypassed and the
// columns are computed fresh into them.
func (c *Clip) GetWaveDisplay(d *Display, t0, pixelsPerSecond float64) (bool, error) {
	numPixels := d.Width
	if numPixels <= 0 || pixelsPerSecond <= 0 {
		return false, ErrBadRequest
	}
	allocated := d.owned

	c.mu.Lock()
	defer c.mu.Unlock()

	rate := float64(c.rate)
	samplesPerPixel := rate / pixelsPerSecond

	if allocated {
		fillWhere(d.Where, numPixels, 0, 0, t0, rate, samplesPerPixel)
		if err := c.fillRange(d.Min, d.Max, d.RMS, d.Flags, d.Where, 0, numPixels); err != nil {
			return false, err
		}
		for _, f := range d.Flags[:numPixels] {
			if f < 0 {
				return true, nil
			}
		}
		return false, nil
	}

	old := c.waveCache
	match := old != nil && old.len > 0 && old.dirty == c.dirty &&
		ppsMatch(pixelsPerSecond, old.pps, numPixels, rate)

	if match && old.start == t0 && old.len >= numPixels {
		// Full hit. Repair any stale columns in place and hand out the
		// cache body.
		if err := old.loadInvalidRegions(c.reader, true); err != nil {
			return false, err
		}
		d.Min = old.min[:numPixels]
		d.Max = old.max[:numPixels]
		d.RMS = old.rms[:numPixels]
		d.Flags = old.flags[:numPixels]
		d.Where = old.where[:numPixels+1]
		return old.odPixels > 0, nil
	}

	// Rebuild, harvesting the overlapping columns of the old cache when
	// the pan delta leaves any.
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
		old = nil
	}

	nc := newWaveCache(numPixels, pixelsPerSecond, rate, t0, c.dirty)
	fillWhere(nc.where, numPixels, 0, correction, t0, rate, samplesPerPixel)

	// The pixel range we cannot copy and must compute. When the copied
	// slice touches one edge this collapses to a single contiguous run.
	p0, p1 := 0, numPixels
	if old != nil {
		if copyBegin == 0 {
			p0 = copyEnd
		}
		if copyEnd >= numPixels {
			p1 = copyBegin
		}

		// Stale columns must not be copied forward.
		if err := old.loadInvalidRegions(c.reader, false); err != nil {
			return false, err
		}
		src := copyBegin + oldX0
		copy(nc.min[copyBegin:copyEnd], old.min[src:])
		copy(nc.max[copyBegin:copyEnd], old.max[src:])
		copy(nc.rms[copyBegin:copyEnd], old.rms[src:])
		copy(nc.flags[copyBegin:copyEnd], old.flags[src:])
	}

	if err := c.fillRange(nc.min, nc.max, nc.rms, nc.flags, nc.where, p0, p1); err != nil {
		return false, err
	}

	nc.odPixels = nc.countODPixels(0, numPixels)
	c.waveCache = nc

	d.Min = nc.min
	d.Max = nc.max
	d.RMS = nc.rms
	d.Flags = nc.flags
	d.Where = nc.where
	return nc.odPixels > 0, nil
}

// fillRange computes columns [p0, p1) from scratch. Columns whose sample
// range reaches past the committed store but into the append buffer are
// summarized straight from the buffer; everything else goes through the
// store's bulk summarizer.
func (c *Clip) fillRange(min, max, rms []float32, flags []int, where []int64, p0, p1 int) error {
	if p1 <= p0 {
		return nil
	}
	numSamples := c.reader.NumSamples()

	a := p0
	for ; a < p1; a++ {
		if where[a+1] > numSamples {
			break
		}
	}

	if a < p1 && len(c.appendBuf) > 0 {
		bufLen := int64(len(c.appendBuf))
		didUpdate := false
		for i := a; i < p1; i++ {
			left := where[i] - numSamples
			if left < 0 {
				left = 0
			}
			right := where[i+1] - numSamples
			if right > bufLen {
				right = bufLen
			}
			if left >= right {
				continue
			}

			b := c.appendBuf[int(left):int(right)]
			lo, hi := b[0], b[0]
			sumSq := float64(b[0]) * float64(b[0])
			for _, v := range b[1:] {
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
				sumSq += float64(v) * float64(v)
			}
			min[i] = lo
			max[i] = hi
			rms[i] = float32(math.Sqrt(sumSq / float64(len(b))))
			flags[i] = 1
			didUpdate = true
		}
		if didUpdate {
			p1 = a
		}
	}

	if p1 > p0 {
		return c.reader.WaveDisplay(min[p0:p1], max[p0:p1], rms[p0:p1],
			flags[p0:p1], p1-p0, where[p0:p1+1])
	}
	return nil
}

// MinMax returns the sample extrema over the timeline span [t0, t1].
func (c *Clip) MinMax(t0, t1 float64) (float32, float32, error) {
	if t0 > t1 {
		return 0, 0, ErrTimeOrder
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s0 := c.timeToSamplesLocked(t0)
	s1 := c.timeToSamplesLocked(t1)
	if s1 <= s0 {
		return 0, 0, nil
	}
	return c.seq.MinMax(s0, s1-s0)
}

// RMS returns the root mean square over the timeline span [t0, t1].
func (c *Clip) RMS(t0, t1 float64) (float32, error) {
	if t0 > t1 {
		return 0, ErrTimeOrder
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s0 := c.timeToSamplesLocked(t0)
	s1 := c.timeToSamplesLocked(t1)
	if s1 <= s0 {
		return 0, nil
	}
	return c.seq.RMS(s0, s1-s0)
}

// ConvertToFormat re-encodes the stored samples. The caches keep working
// since they only ever see normalized floats, but the conversion may
// round, so they are discarded anyway.
func (c *Clip) ConvertToFormat(format sample.Format) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed, err := c.seq.ConvertToFormat(format)
	if err != nil {
		return err
	}
	if changed {
		c.markChangedLocked()
	}
	return nil
}

// Resample rewrites the clip's samples at a new rate, streaming them
// through the resampler block by block. Both caches are replaced
// wholesale; there is no way to patch a cache across a rate change.
func (c *Clip) Resample(rate int) error {
	if rate <= 0 {
		return ErrBadRate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if rate == c.rate {
		return nil
	}
	if err := c.flushLocked(); err != nil {
		return err
	}

	ratio := float64(rate) / float64(c.rate)
	rs, err := audio.NewBlockResampler(ratio)
	if err != nil {
		return ErrResampleFail
	}

	newSeq, err := store.NewSequence(c.seq.Format())
	if err != nil {
		return err
	}

	total := c.seq.NumSamples()
	buf := make([]float32, store.BlockSize)
	var pos int64
	for pos < total {
		n := store.BlockSize
		if rem := total - pos; rem < int64(n) {
			n = int(rem)
		}
		if err := c.seq.Floats(buf[:n], pos, n); err != nil {
			return err
		}
		pos += int64(n)

		out := rs.Process(buf[:n], pos == total)
		if len(out) > 0 {
			if err := newSeq.Append(out); err != nil {
				return err
			}
		}
	}

	c.seq = newSeq
	c.reader = newSeq
	c.rate = rate
	c.waveCache = nil
	c.specCache = nil
	c.markChangedLocked()
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
