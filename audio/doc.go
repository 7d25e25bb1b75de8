// SPDX-License-Identifier: EPL-2.0

// Package audio provides the low-level streaming primitives that feed the
// display-cache layer.
//
// # Source Interface
//
// The Source interface is the foundation of audio input:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    Close() error
//	}
//
// All format decoders and processors implement this interface, allowing
// them to be chained together in processing pipelines. Samples are
// interleaved float32 in [-1.0, 1.0].
//
// # Resampling
//
// Two resamplers are provided for the two shapes of work in this module:
//
//   - Resampler wraps a Source and streams at a new rate. Used when
//     loading audio into a clip.
//   - BlockResampler converts blocks the caller already holds, carrying
//     interpolation state across calls. Used when re-rating an existing
//     clip's sample store.
//
// Both use cubic (Catmull-Rom) interpolation.
//
// # Channel Mixing
//
// MonoMixer converts multi-channel audio to mono by averaging. The clip
// store is mono, so loading pipelines normally end with a MonoMixer.
//
// # Format Registry
//
// The Registry allows dynamic decoder registration:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, _ := registry.Get("wav")
//
// # Error Handling
//
// Sources return io.EOF when no more data is available. Other errors
// indicate problems with the underlying reader and end the stream.
package audio
