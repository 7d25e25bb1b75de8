// SPDX-License-Identifier: EPL-2.0

package audio

// BlockResampler converts mono sample blocks between rates without a
// Source pipeline. It is meant for batch jobs that already hold blocks of
// samples, such as re-rating a whole clip, where the caller pushes input
// chunks and collects output until it marks the last one.
//
// The same cubic interpolation as Resampler is used; state carried between
// calls keeps the output seamless across block boundaries.
type BlockResampler struct {
	step float64 // source samples advanced per output sample

	pending []float32 // unconsumed source tail, pending[0] is the lookback sample
	pos     float64   // next output position within pending, in source samples
	done    bool
}

// NewBlockResampler creates a resampler producing ratio output samples per
// input sample (ratio = dstRate/srcRate).
func NewBlockResampler(ratio float64) (*BlockResampler, error) {
	if ratio <= 0 {
		return nil, ErrInvalidRatio
	}
	return &BlockResampler{step: 1.0 / ratio}, nil
}

// Process consumes in and returns all output samples that can be produced
// so far. When isLast is true the internal tail is flushed and the
// resampler must not be used again. The returned slice is owned by the
// caller.
func (b *BlockResampler) Process(in []float32, isLast bool) []float32 {
	if b.done {
		return nil
	}

	b.pending = append(b.pending, in...)
	if len(b.pending) == 0 {
		if isLast {
			b.done = true
		}
		return nil
	}

	last := len(b.pending) - 1
	out := make([]float32, 0, int(float64(len(in))/b.step)+2)

	for {
		i := int(b.pos)

		if isLast {
			// Flush through the final sample, clamping the window edges.
			if b.pos > float64(last) {
				break
			}
		} else if i+2 > last {
			// Need more input for the right side of the window.
			break
		}

		i0, i3 := i-1, i+2
		if i0 < 0 {
			i0 = 0
		}
		if i3 > last {
			i3 = last
		}
		i2 := i + 1
		if i2 > last {
			i2 = last
		}

		out = append(out, cubicInterpolate(
			b.pending[i0], b.pending[i], b.pending[i2], b.pending[i3],
			float32(b.pos-float64(i)),
		))
		b.pos += b.step
	}

	if isLast {
		b.done = true
		b.pending = nil
		return out
	}

	// Drop the consumed head, retaining one lookback sample.
	keep := int(b.pos) - 1
	if keep > 0 {
		if keep > len(b.pending) {
			keep = len(b.pending)
		}
		b.pending = append(b.pending[:0], b.pending[keep:]...)
		b.pos -= float64(keep)
	}

	return out
}
