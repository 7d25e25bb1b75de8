// SPDX-License-Identifier: EPL-2.0

package wave

import (
	"math"
	"sort"

	"github.com/ik5/waveview/store"
)

// Copy returns a new clip holding the samples of the timeline span
// [t0, t1], at offset zero, together with deep copies of any cut lines
// inside the span.
func (c *Clip) Copy(t0, t1 float64) (*Clip, error) {
	if t0 > t1 {
		return nil, ErrTimeOrder
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.flushLocked(); err != nil {
		return nil, err
	}

	s0 := c.timeToSamplesLocked(t0)
	s1 := c.timeToSamplesLocked(t1)
	seq, err := c.seq.Copy(s0, s1)
	if err != nil {
		return nil, err
	}

	out := &Clip{
		seq:    seq,
		reader: seq,
		rate:   c.rate,
	}
	for _, cl := range c.cutLines {
		pos := c.offset + cl.offset
		if pos >= t0 && pos <= t1 {
			dup := cl.duplicate()
			dup.offset = pos - t0
			out.cutLines = append(out.cutLines, dup)
		}
	}
	return out, nil
}

// Duplicate returns a deep copy of the whole clip, cut lines included.
func (c *Clip) Duplicate() (*Clip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.flushLocked(); err != nil {
		return nil, err
	}
	return c.duplicate(), nil
}

func (c *Clip) duplicate() *Clip {
	seq, _ := c.seq.Copy(0, c.seq.NumSamples())
	out := &Clip{
		seq:    seq,
		reader: seq,
		rate:   c.rate,
		offset: c.offset,
	}
	for _, cl := range c.cutLines {
		out.cutLines = append(out.cutLines, cl.duplicate())
	}
	return out
}

// Clear removes the timeline span [t0, t1] from the clip. Cut lines
// inside the span are dropped; later ones slide left with the audio.
func (c *Clip) Clear(t0, t1 float64) error {
	if t0 > t1 {
		return ErrTimeOrder
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.flushLocked(); err != nil {
		return err
	}

	s0 := c.timeToSamplesLocked(t0)
	s1 := c.timeToSamplesLocked(t1)
	if s1 > s0 {
		if err := c.seq.Delete(s0, s1-s0); err != nil {
			return err
		}
	}

	clipT0 := t0 - c.offset
	clipT1 := t1 - c.offset
	kept := c.cutLines[:0]
	for _, cl := range c.cutLines {
		switch {
		case cl.offset < clipT0:
			kept = append(kept, cl)
		case cl.offset > clipT1:
			cl.offset -= clipT1 - clipT0
			kept = append(kept, cl)
		}
	}
	c.cutLines = kept

	c.markChangedLocked()
	return nil
}

// ClearAndAddCutLine removes the span like Clear but stashes the removed
// audio as a cut line at t0, so it can be expanded back later.
func (c *Clip) ClearAndAddCutLine(t0, t1 float64) error {
	if t0 > t1 {
		return ErrTimeOrder
	}

	removed, err := c.Copy(t0, t1)
	if err != nil {
		return err
	}
	if err := c.Clear(t0, t1); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	removed.offset = t0 - c.offset
	c.cutLines = append(c.cutLines, removed)
	sort.Slice(c.cutLines, func(i, j int) bool {
		return c.cutLines[i].offset < c.cutLines[j].offset
	})
	return nil
}

// Paste inserts other's samples at timeline instant t0. When the rates
// differ, a resampled copy of other is pasted instead. Cut lines at or
// after the insertion point slide right; other's cut lines come along.
func (c *Clip) Paste(t0 float64, other *Clip) error {
	if other.Rate() != c.Rate() {
		dup, err := other.Duplicate()
		if err != nil {
			return err
		}
		if err := dup.Resample(c.Rate()); err != nil {
			return err
		}
		other = dup
	}

	// Snapshot the source before taking our own lock, so pasting one
	// clip into another never holds two locks at once.
	other.mu.Lock()
	if err := other.flushLocked(); err != nil {
		other.mu.Unlock()
		return err
	}
	srcSeq, err := other.seq.Copy(0, other.seq.NumSamples())
	if err != nil {
		other.mu.Unlock()
		return err
	}
	var srcCutLines []*Clip
	for _, cl := range other.cutLines {
		srcCutLines = append(srcCutLines, cl.duplicate())
	}
	other.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.flushLocked(); err != nil {
		return err
	}

	s0 := c.timeToSamplesLocked(t0)
	if err := c.seq.Paste(s0, srcSeq); err != nil {
		return err
	}

	clipT0 := t0 - c.offset
	duration := float64(srcSeq.NumSamples()) / float64(c.rate)
	for _, cl := range c.cutLines {
		if cl.offset >= clipT0 {
			cl.offset += duration
		}
	}
	for _, cl := range srcCutLines {
		cl.offset += clipT0
		c.cutLines = append(c.cutLines, cl)
	}
	sort.Slice(c.cutLines, func(i, j int) bool {
		return c.cutLines[i].offset < c.cutLines[j].offset
	})

	c.markChangedLocked()
	return nil
}

// InsertSilence inserts seconds of silence at timeline instant t.
func (c *Clip) InsertSilence(t, seconds float64) error {
	if seconds < 0 {
		return ErrTimeOrder
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.flushLocked(); err != nil {
		return err
	}

	at := c.timeToSamplesLocked(t)
	count := int64(math.Floor(seconds*float64(c.rate) + 0.5))
	if err := c.seq.InsertSilence(at, count); err != nil {
		return err
	}

	clipT := t - c.offset
	for _, cl := range c.cutLines {
		if cl.offset >= clipT {
			cl.offset += seconds
		}
	}

	c.markChangedLocked()
	return nil
}

// CutLines returns the clip's cut lines in offset order. The offsets are
// relative to the clip's start. Callers must not mutate the returned
// clips while using this clip concurrently.
func (c *Clip) CutLines() []*Clip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Clip(nil), c.cutLines...)
}

// FindCutLine locates the cut line at timeline instant t, within half a
// sample of slack.
func (c *Clip) FindCutLine(t float64) (*Clip, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.findCutLineLocked(t); i >= 0 {
		return c.cutLines[i], true
	}
	return nil, false
}

func (c *Clip) findCutLineLocked(t float64) int {
	clipT := t - c.offset
	slack := 0.5 / float64(c.rate)
	for i, cl := range c.cutLines {
		if math.Abs(cl.offset-clipT) < slack {
			return i
		}
	}
	return -1
}

// ExpandCutLine pastes the audio stored in the cut line at t back into
// the clip and removes the cut line. Later cut lines slide right.
func (c *Clip) ExpandCutLine(t float64) error {
	c.mu.Lock()
	i := c.findCutLineLocked(t)
	if i < 0 {
		c.mu.Unlock()
		return ErrNoCutLine
	}
	cl := c.cutLines[i]
	c.cutLines = append(c.cutLines[:i], c.cutLines[i+1:]...)
	at := c.offset + cl.offset
	c.mu.Unlock()

	return c.Paste(at, cl)
}

// RemoveCutLine discards the cut line at t, audio and all.
func (c *Clip) RemoveCutLine(t float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.findCutLineLocked(t)
	if i < 0 {
		return false
	}
	c.cutLines = append(c.cutLines[:i], c.cutLines[i+1:]...)
	return true
}

// RemoveAllCutLines discards every cut line, audio and all.
func (c *Clip) RemoveAllCutLines() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cutLines = nil
}

// Sequence exposes the underlying sample store, mainly so a background
// decoder can coordinate with it directly.
func (c *Clip) Sequence() *store.Sequence {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}
