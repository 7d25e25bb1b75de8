// SPDX-License-Identifier: EPL-2.0

package store

import (
	"math"
	"sync"

	"github.com/ik5/waveview/sample"
)

// Sequence is a block-organized, in-memory store of mono samples with
// precomputed display summaries. Blocks may be appended in a pending
// state and filled later by a background decoder; until filled they read
// as silence and summarize with a negative flag.
//
// All methods are safe for concurrent use.
type Sequence struct {
	mtx    sync.RWMutex
	format sample.Format
	blocks []*block
	total  int64
}

func NewSequence(format sample.Format) (*Sequence, error) {
	if !format.Valid() {
		return nil, ErrBadFormat
	}
	return &Sequence{format: format}, nil
}

func (s *Sequence) Format() sample.Format {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.format
}

func (s *Sequence) NumSamples() int64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.total
}

// locate returns the index of the block containing pos and the offset of
// pos within it. Caller holds the lock; pos must be in [0, total).
func (s *Sequence) locate(pos int64) (int, int) {
	var at int64
	for i, b := range s.blocks {
		if pos < at+int64(b.n) {
			return i, int(pos - at)
		}
		at += int64(b.n)
	}
	return len(s.blocks), 0
}

// Get decodes count samples starting at start into dst, converting to the
// requested format. Pending blocks decode as silence.
func (s *Sequence) Get(dst []byte, format sample.Format, start int64, count int) error {
	if !format.Valid() {
		return ErrBadFormat
	}
	tmp := make([]float32, count)
	if err := s.Floats(tmp, start, count); err != nil {
		return err
	}
	sample.FromFloat32(dst, tmp, format, count)
	return nil
}

// Floats decodes count samples starting at start into dst as normalized
// float32. Pending blocks decode as silence.
func (s *Sequence) Floats(dst []float32, start int64, count int) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.floatsLocked(dst, start, count)
}

func (s *Sequence) floatsLocked(dst []float32, start int64, count int) error {
	if start < 0 || count < 0 || start+int64(count) > s.total {
		return ErrOutOfRange
	}
	if count == 0 {
		return nil
	}

	bi, off := s.locate(start)
	filled := 0
	for filled < count {
		if bi >= len(s.blocks) {
			return ErrMissingBlock
		}
		b := s.blocks[bi]
		take := b.n - off
		if take > count-filled {
			take = count - filled
		}
		b.floats(dst[filled:], off, off+take, s.format)
		filled += take
		off = 0
		bi++
	}
	return nil
}

// Append adds samples to the end of the sequence, re-encoded into the
// sequence format.
func (s *Sequence) Append(floats []float32) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for len(floats) > 0 {
		n := len(floats)
		if n > BlockSize {
			n = BlockSize
		}
		s.blocks = append(s.blocks, newBlock(floats[:n], s.format))
		s.total += int64(n)
		floats = floats[n:]
	}
	return nil
}

// AppendPending reserves count samples of not-yet-decoded audio at the end
// of the sequence. It returns the sample index where the pending region
// starts. The region reads as silence until FillAt supplies real data.
func (s *Sequence) AppendPending(count int64) int64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	start := s.total
	for count > 0 {
		n := count
		if n > BlockSize {
			n = BlockSize
		}
		s.blocks = append(s.blocks, newPendingBlock(int(n)))
		s.total += n
		count -= n
	}
	return start
}

// FillAt supplies decoded data for a pending region. The range
// [start, start+len(floats)) must cover whole pending blocks exactly
// (start on a block boundary), as produced by AppendPending.
func (s *Sequence) FillAt(start int64, floats []float32) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if start < 0 || start+int64(len(floats)) > s.total {
		return ErrOutOfRange
	}

	bi, off := s.locate(start)
	if off != 0 {
		return ErrNotPending
	}

	handed := 0
	for handed < len(floats) {
		if bi >= len(s.blocks) {
			return ErrNotPending
		}
		b := s.blocks[bi]
		if !b.pending || b.n > len(floats)-handed {
			return ErrNotPending
		}
		b.fill(floats[handed:handed+b.n], s.format)
		handed += b.n
		bi++
	}
	return nil
}

// HasPending reports whether any block is still awaiting data.
func (s *Sequence) HasPending() bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, b := range s.blocks {
		if b.pending {
			return true
		}
	}
	return false
}

// WaveDisplay fills per-pixel min/max/rms/flags for count pixels whose
// sample boundaries are given by where (count+1 entries). A flag of 1
// marks a column backed by decoded data; -1 marks a column overlapping a
// pending block. Columns beyond the sequence read as silence.
func (s *Sequence) WaveDisplay(min, max, rms []float32, flags []int, count int, where []int64) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if count < 0 || len(where) < count+1 {
		return ErrInvalidArgument
	}

	scratch := make([]float32, summaryFrame)

	for i := 0; i < count; i++ {
		s0, s1 := where[i], where[i+1]
		if s0 < 0 {
			s0 = 0
		}
		if s1 > s.total {
			s1 = s.total
		}

		if s1 <= s0 {
			min[i], max[i], rms[i] = 0, 0, 0
			flags[i] = 1
			continue
		}

		pmin := float32(math.Inf(1))
		pmax := float32(math.Inf(-1))
		var sumSq float64
		pending := false

		bi, off := s.locate(s0)
		remaining := int(s1 - s0)
		for remaining > 0 && bi < len(s.blocks) {
			b := s.blocks[bi]
			take := b.n - off
			if take > remaining {
				take = remaining
			}
			bmin, bmax, bsum, bpend := b.rangeSummary(off, off+take, s.format, scratch)
			if bmin < pmin {
				pmin = bmin
			}
			if bmax > pmax {
				pmax = bmax
			}
			sumSq += bsum
			pending = pending || bpend

			remaining -= take
			off = 0
			bi++
		}

		min[i] = pmin
		max[i] = pmax
		rms[i] = float32(math.Sqrt(sumSq / float64(s1-s0)))
		if pending {
			flags[i] = -1
		} else {
			flags[i] = 1
		}
	}
	return nil
}

// MinMax returns the extrema over [start, start+count).
func (s *Sequence) MinMax(start, count int64) (float32, float32, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if start < 0 || count < 0 || start+count > s.total {
		return 0, 0, ErrOutOfRange
	}
	if count == 0 {
		return 0, 0, nil
	}

	lo := float32(math.Inf(1))
	hi := float32(math.Inf(-1))
	scratch := make([]float32, summaryFrame)

	bi, off := s.locate(start)
	remaining := int(count)
	for remaining > 0 && bi < len(s.blocks) {
		b := s.blocks[bi]
		take := b.n - off
		if take > remaining {
			take = remaining
		}
		bmin, bmax, _, _ := b.rangeSummary(off, off+take, s.format, scratch)
		if bmin < lo {
			lo = bmin
		}
		if bmax > hi {
			hi = bmax
		}
		remaining -= take
		off = 0
		bi++
	}
	return lo, hi, nil
}

// RMS returns the root mean square over [start, start+count).
func (s *Sequence) RMS(start, count int64) (float32, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if start < 0 || count < 0 || start+count > s.total {
		return 0, ErrOutOfRange
	}
	if count == 0 {
		return 0, nil
	}

	var sumSq float64
	scratch := make([]float32, summaryFrame)

	bi, off := s.locate(start)
	remaining := int(count)
	for remaining > 0 && bi < len(s.blocks) {
		b := s.blocks[bi]
		take := b.n - off
		if take > remaining {
			take = remaining
		}
		_, _, bsum, _ := b.rangeSummary(off, off+take, s.format, scratch)
		sumSq += bsum
		remaining -= take
		off = 0
		bi++
	}
	return float32(math.Sqrt(sumSq / float64(count))), nil
}

// splitAt makes pos a block boundary, splitting the containing block if
// needed. Caller holds the write lock.
func (s *Sequence) splitAt(pos int64) {
	if pos <= 0 || pos >= s.total {
		return
	}
	bi, off := s.locate(pos)
	if off == 0 {
		return
	}
	b := s.blocks[bi]

	var left, right *block
	if b.pending {
		left = newPendingBlock(off)
		right = newPendingBlock(b.n - off)
	} else {
		floats := make([]float32, b.n)
		b.floats(floats, 0, b.n, s.format)
		left = newBlock(floats[:off], s.format)
		right = newBlock(floats[off:], s.format)
	}

	s.blocks = append(s.blocks[:bi], append([]*block{left, right}, s.blocks[bi+1:]...)...)
}

// Delete removes [start, start+count) from the sequence.
func (s *Sequence) Delete(start, count int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if start < 0 || count < 0 || start+count > s.total {
		return ErrOutOfRange
	}
	if count == 0 {
		return nil
	}

	s.splitAt(start)
	s.splitAt(start + count)

	from, _ := s.locate(start)
	to := from
	var removed int64
	for to < len(s.blocks) && removed < count {
		removed += int64(s.blocks[to].n)
		to++
	}

	s.blocks = append(s.blocks[:from], s.blocks[to:]...)
	s.total -= removed
	return nil
}

// InsertSilence inserts count zero samples at position at.
func (s *Sequence) InsertSilence(at, count int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if at < 0 || count < 0 || at > s.total {
		return ErrOutOfRange
	}
	if count == 0 {
		return nil
	}

	s.splitAt(at)
	bi, _ := s.locate(at)

	var silence []*block
	for count > 0 {
		n := count
		if n > BlockSize {
			n = BlockSize
		}
		silence = append(silence, newBlock(make([]float32, n), s.format))
		s.total += n
		count -= n
	}

	s.blocks = append(s.blocks[:bi], append(silence, s.blocks[bi:]...)...)
	return nil
}

// Paste splices a copy of other into the sequence at position at,
// converting formats when they differ.
func (s *Sequence) Paste(at int64, other *Sequence) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if at < 0 || at > s.total {
		return ErrOutOfRange
	}

	other.mtx.RLock()
	defer other.mtx.RUnlock()

	s.splitAt(at)
	bi, _ := s.locate(at)

	pasted := make([]*block, 0, len(other.blocks))
	var added int64
	for _, b := range other.blocks {
		pasted = append(pasted, b.clone(other.format, s.format))
		added += int64(b.n)
	}

	s.blocks = append(s.blocks[:bi], append(pasted, s.blocks[bi:]...)...)
	s.total += added
	return nil
}

// Copy returns a new sequence holding [start, end). Pending blocks stay
// pending in the copy.
func (s *Sequence) Copy(start, end int64) (*Sequence, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if start < 0 || end < start || end > s.total {
		return nil, ErrOutOfRange
	}

	dst := &Sequence{format: s.format}
	if end == start {
		return dst, nil
	}

	s.splitAt(start)
	s.splitAt(end)

	bi, _ := s.locate(start)
	var copied int64
	for bi < len(s.blocks) && copied < end-start {
		b := s.blocks[bi]
		dst.blocks = append(dst.blocks, b.clone(s.format, s.format))
		copied += int64(b.n)
		bi++
	}
	dst.total = copied
	return dst, nil
}

// ConvertToFormat re-encodes every block into the new format. Returns
// whether anything changed.
func (s *Sequence) ConvertToFormat(format sample.Format) (bool, error) {
	if !format.Valid() {
		return false, ErrBadFormat
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if format == s.format {
		return false, nil
	}

	old := s.format
	for _, b := range s.blocks {
		if b.pending || b.data == nil {
			continue
		}
		floats := make([]float32, b.n)
		b.floats(floats, 0, b.n, old)
		b.data = make([]byte, b.n*format.Size())
		sample.FromFloat32(b.data, floats, format, b.n)
	}
	s.format = format
	return true, nil
}
