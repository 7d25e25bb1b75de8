// SPDX-License-Identifier: EPL-2.0

package waveview

import (
	"io"

	"github.com/ik5/waveview/audio"
	"github.com/ik5/waveview/formats/aiff"
	"github.com/ik5/waveview/formats/mp3"
	"github.com/ik5/waveview/formats/vorbis"
	"github.com/ik5/waveview/formats/wav"
	"github.com/ik5/waveview/sample"
	"github.com/ik5/waveview/store"
	"github.com/ik5/waveview/wave"
)

// NewFormatRegistry returns a registry with every decoder this module
// ships: wav, aiff, mp3 and ogg (Vorbis).
func NewFormatRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	return reg
}

// LoadClip decodes src completely into a new clip, resampled to
// targetRate and mixed down to mono. format selects the clip's storage
// encoding.
//
// The pipeline mirrors what the display layer expects: a clip holds mono
// normalized samples at a single rate, so multi-channel and mismatched
// rate sources are converted on the way in.
func LoadClip(src audio.Source, format sample.Format, targetRate int) (*wave.Clip, error) {
	c, err := wave.NewClip(format, targetRate, 0)
	if err != nil {
		return nil, err
	}

	mono := audio.NewMonoMixer(audio.NewResampler(src, targetRate))
	buf := make([]float32, 4096)
	for {
		n, err := mono.ReadSamples(buf)
		if n > 0 {
			if aerr := c.Append(buf[:n]); aerr != nil {
				return nil, aerr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if err := c.Flush(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadClipBackground returns a clip of totalSamples pending samples
// immediately and decodes src into it on a separate goroutine, the way
// an editor keeps drawing while a long file loads. The clip is fully
// usable while loading: pending spans display as silence with a loading
// flag, and each delivered block invalidates just the columns it covers.
//
// totalSamples is the expected length after resampling to targetRate.
// If src runs short the remainder stays silence; if it runs long the
// excess is dropped. The returned channel reports the decode's terminal
// error (nil on success) and is closed afterwards.
func LoadClipBackground(src audio.Source, format sample.Format, targetRate int,
	totalSamples int64,
) (*wave.Clip, <-chan error, error) {
	c, err := wave.NewClip(format, targetRate, 0)
	if err != nil {
		return nil, nil, err
	}
	start, err := c.AppendPending(totalSamples)
	if err != nil {
		return nil, nil, err
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- fillFromSource(c, src, targetRate, start, totalSamples)
	}()
	return c, done, nil
}

// fillFromSource streams the decode pipeline into the clip's pending
// region. Deliveries are sized to the store's blocks, since a pending
// block only becomes readable as a whole.
func fillFromSource(c *wave.Clip, src audio.Source, targetRate int, start, total int64) error {
	mono := audio.NewMonoMixer(audio.NewResampler(src, targetRate))

	var filled int64
	nextChunk := func() []float32 {
		n := total - filled
		if n > store.BlockSize {
			n = store.BlockSize
		}
		return make([]float32, n)
	}

	chunk := nextChunk()
	used := 0
	for filled < total {
		n, err := mono.ReadSamples(chunk[used:])
		used += n

		if used == len(chunk) || err == io.EOF {
			// Short final reads deliver the chunk zero padded.
			if err := c.FillPending(start+filled, chunk); err != nil {
				return err
			}
			filled += int64(len(chunk))
			if filled < total {
				chunk = nextChunk()
				used = 0
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	// The source ran short; the remaining blocks become silence.
	for filled < total {
		chunk = nextChunk()
		if err := c.FillPending(start+filled, chunk); err != nil {
			return err
		}
		filled += int64(len(chunk))
	}
	return nil
}
