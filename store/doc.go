// SPDX-License-Identifier: EPL-2.0

// Package store holds audio samples in fixed-size blocks with precomputed
// display summaries, so that a display layer can summarize millions of
// samples per pixel column without touching most of the raw data.
//
// # Sequence
//
// A Sequence is an ordered list of blocks of mono samples, stored in one
// of the sample package's encodings. Alongside the raw data every block
// keeps min/max/sum-of-squares aggregates at a 256-sample granularity;
// WaveDisplay serves per-pixel-column summaries from these aggregates and
// only decodes raw samples at the column edges.
//
// # On-demand loading
//
// AppendPending reserves blocks for audio that a background decoder has
// not produced yet. Pending blocks read as silence and make WaveDisplay
// report a negative flag for the columns they touch; FillAt later
// replaces them with real data. The display layer uses the flag to keep
// drawing while loading continues, and recomputes the affected columns
// once the loader announces them.
//
// # Editing
//
// Delete, InsertSilence, Paste and Copy operate at block granularity:
// only the blocks at the boundaries of the edited range are re-encoded,
// untouched blocks are kept (or cloned) as is.
package store
