// SPDX-License-Identifier: EPL-2.0

// Package waveview builds display caches for large audio clips: per-pixel
// waveform summaries (min/max/RMS) and spectrogram columns, computed once
// per view and reused incrementally as the view pans and zooms.
//
// # Clips
//
// The central type is wave.Clip: mono normalized samples at a single rate,
// stored as a block sequence with per-block summaries so a display request
// over millions of samples touches summaries, not samples. LoadClip decodes
// any supported format into a clip:
//
//	file, _ := os.Open("take.wav")
//	src, _ := wav.Decoder{}.Decode(file)
//	clip, _ := waveview.LoadClip(src, sample.Int16, 44100)
//
// # Displays
//
// A display request names a time origin, a zoom (pixels per second) and a
// width. The clip answers with one column per pixel:
//
//	var d wave.Display
//	changed, _ := clip.GetWaveDisplay(&d, t0, pps)
//
// Repeated requests at the same zoom reuse the previous answer: a pan
// recomputes only the newly exposed columns, and a full repeat is served
// by reference without touching samples. Spectrograms work the same way
// through clip.GetSpectrogram with a wave.SpectrogramSettings describing
// the window, FFT size, zero padding and algorithm.
//
// # Background loading
//
// LoadClipBackground returns a clip immediately and decodes into it on a
// goroutine. Pending spans display as silence with a loading flag, so a
// caller can draw a clip that is still arriving and redraw only the
// columns each delivered block invalidates.
//
// # Supported formats
//
// The formats subpackages decode WAV and AIFF (PCM 16-bit), MP3 and Ogg
// Vorbis into the common audio.Source interface; NewFormatRegistry wires
// them all into an audio.Registry keyed by extension.
package waveview
