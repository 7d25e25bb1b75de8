// SPDX-License-Identifier: EPL-2.0

// Package wave renders pixel-column display summaries of audio clips:
// min/max/RMS waveform envelopes and spectrograms, cached so that a
// scroll or zoom does not recompute columns the previous view already
// had.
//
// # Clip
//
// A Clip is a contiguous, offset, rate-tagged span of samples backed by
// a store.Sequence, plus one waveform cache and one spectrogram cache.
// GetWaveDisplay and GetSpectrogram serve a view request (time origin,
// zoom, pixel count) from the matching cache when they can, repair or
// partially rebuild it when the view moved nearby, and recompute from
// the store only for the columns no previous view covered.
//
// # Cache reuse
//
// A cache built for one pan/zoom state is aligned onto a nearby one with
// a sub-pixel correction, bounded to one pixel's worth of samples so
// that repeated incremental rebuilds (a cache of a cache of a cache) do
// not drift. Columns the old cache cannot supply are computed from the
// store's bulk summarizer, or from the clip's unflushed append buffer
// for audio newer than the store.
//
// # Background loading
//
// While a background decoder fills pending regions of the store, the
// affected columns carry a negative flag and the display keeps drawing
// silence for them. The decoder calls MarkInvalid (or FillPending) as
// data arrives; the stale columns are tracked as merged pixel ranges and
// recomputed on the next request, without discarding the rest of the
// cache.
//
// # Spectrograms
//
// Spectrogram columns are computed with one FFT per column at a choice
// of analysis window, zero padding, and algorithm: plain magnitude,
// enhanced autocorrelation for pitch, or time-frequency reassignment,
// which sharpens the display by relocating each bin's energy to a
// corrected time/frequency coordinate.
package wave
