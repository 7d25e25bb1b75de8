// SPDX-License-Identifier: EPL-2.0

// Package sample defines the closed set of PCM sample encodings the module
// stores audio in, and the conversion routines between them and the
// normalized float32 representation used everywhere else.
//
// # Formats
//
// Three encodings are supported:
//   - sample.Int16: 16-bit signed little-endian PCM
//   - sample.Int24: 24-bit signed little-endian PCM
//   - sample.Float32: 32-bit IEEE float, nominal range [-1, 1]
//
// A Format travels with every raw byte buffer that crosses a package
// boundary; inside the waveform and spectrogram code only float32 is used.
//
// # Conversion
//
// Decoding and encoding are explicit:
//
//	floats := make([]float32, n)
//	sample.ToFloat32(floats, raw, sample.Int16, n)
//
//	raw := make([]byte, n*sample.Int24.Size())
//	sample.FromFloat32(raw, floats, sample.Int24, n)
//
// Integer encodings clamp to their representable range on encode.
package sample
