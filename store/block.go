// SPDX-License-Identifier: EPL-2.0

package store

import (
	"math"

	"github.com/ik5/waveview/sample"
)

const (
	// BlockSize is the number of samples one block holds at most.
	BlockSize = 65536
	// summaryFrame is the granularity of the precomputed per-block
	// summaries used for zoomed-out display.
	summaryFrame = 256
)

// block is one contiguous run of samples plus its display summaries.
// A pending block has no data yet; a background decoder fills it later.
type block struct {
	data    []byte // raw samples in the sequence format, nil while pending
	n       int    // number of samples
	pending bool

	// Whole-block aggregates.
	min, max float32
	sumSq    float64

	// Per-frame aggregates, one entry per summaryFrame samples
	// (the last frame may be shorter).
	frameMin, frameMax []float32
	frameSumSq         []float64
}

func newBlock(floats []float32, format sample.Format) *block {
	b := &block{n: len(floats)}
	b.data = make([]byte, len(floats)*format.Size())
	sample.FromFloat32(b.data, floats, format, len(floats))
	b.summarize(floats)
	return b
}

func newPendingBlock(n int) *block {
	return &block{n: n, pending: true}
}

// fill replaces a pending block's contents and computes its summaries.
func (b *block) fill(floats []float32, format sample.Format) {
	b.data = make([]byte, len(floats)*format.Size())
	sample.FromFloat32(b.data, floats, format, len(floats))
	b.n = len(floats)
	b.pending = false
	b.summarize(floats)
}

func (b *block) summarize(floats []float32) {
	frames := (b.n + summaryFrame - 1) / summaryFrame
	b.frameMin = make([]float32, frames)
	b.frameMax = make([]float32, frames)
	b.frameSumSq = make([]float64, frames)

	b.min = float32(math.Inf(1))
	b.max = float32(math.Inf(-1))
	b.sumSq = 0

	for f := 0; f < frames; f++ {
		lo := f * summaryFrame
		hi := lo + summaryFrame
		if hi > b.n {
			hi = b.n
		}

		fmin := float32(math.Inf(1))
		fmax := float32(math.Inf(-1))
		var sumSq float64
		for _, v := range floats[lo:hi] {
			if v < fmin {
				fmin = v
			}
			if v > fmax {
				fmax = v
			}
			sumSq += float64(v) * float64(v)
		}

		b.frameMin[f] = fmin
		b.frameMax[f] = fmax
		b.frameSumSq[f] = sumSq

		if fmin < b.min {
			b.min = fmin
		}
		if fmax > b.max {
			b.max = fmax
		}
		b.sumSq += sumSq
	}

	if b.n == 0 {
		b.min, b.max = 0, 0
	}
}

// rangeSummary aggregates [lo, hi) of the block, using the precomputed
// frame summaries for fully covered frames and decoding only the edges.
// scratch must hold at least summaryFrame samples. Pending blocks report
// silence with the pending flag set.
func (b *block) rangeSummary(lo, hi int, format sample.Format, scratch []float32) (float32, float32, float64, bool) {
	if b.pending || b.data == nil {
		return 0, 0, 0, b.pending
	}

	rmin := float32(math.Inf(1))
	rmax := float32(math.Inf(-1))
	var sumSq float64

	scan := func(from, to int) {
		for from < to {
			n := to - from
			if n > len(scratch) {
				n = len(scratch)
			}
			b.floats(scratch, from, from+n, format)
			for _, v := range scratch[:n] {
				if v < rmin {
					rmin = v
				}
				if v > rmax {
					rmax = v
				}
				sumSq += float64(v) * float64(v)
			}
			from += n
		}
	}

	firstFrame := (lo + summaryFrame - 1) / summaryFrame
	lastFrame := hi / summaryFrame

	if firstFrame >= lastFrame {
		// Range too small to cover a whole frame.
		scan(lo, hi)
		return rmin, rmax, sumSq, false
	}

	scan(lo, firstFrame*summaryFrame)
	for f := firstFrame; f < lastFrame; f++ {
		if b.frameMin[f] < rmin {
			rmin = b.frameMin[f]
		}
		if b.frameMax[f] > rmax {
			rmax = b.frameMax[f]
		}
		sumSq += b.frameSumSq[f]
	}
	scan(lastFrame*summaryFrame, hi)

	return rmin, rmax, sumSq, false
}

// clone duplicates the block, transcoding when formats differ. Pending
// blocks clone as pending.
func (b *block) clone(from, to sample.Format) *block {
	if b.pending || b.data == nil {
		return newPendingBlock(b.n)
	}
	floats := make([]float32, b.n)
	b.floats(floats, 0, b.n, from)
	return newBlock(floats, to)
}

// floats decodes samples [lo, hi) of the block into dst.
func (b *block) floats(dst []float32, lo, hi int, format sample.Format) {
	if b.pending || b.data == nil {
		for i := range dst[:hi-lo] {
			dst[i] = 0
		}
		return
	}
	sample.ToFloat32(dst, b.data[lo*format.Size():], format, hi-lo)
}
