// SPDX-License-Identifier: EPL-2.0

package wave

import (
	"sort"
	"sync"
)

// pixelRange is a half-open run [start, end) of stale pixel columns.
type pixelRange struct {
	start, end int
}

// invalidRegions tracks which pixel columns of a cache must be recomputed
// from the sample store before being trusted. Ranges that overlap or sit
// within one pixel of each other are always kept merged, so the set stays
// tiny: during background loading it is usually a single growing range.
//
// Writers and region-consuming readers share the one mutex.
type invalidRegions struct {
	mu      sync.Mutex
	regions []pixelRange
}

// add marks [start, end) invalid, clipping to [0, limit]. Out-of-bounds
// or empty ranges are ignored.
func (r *invalidRegions) add(start, end, limit int) {
	if (start < 0 && end < 0) || (start >= limit && end >= limit) {
		return
	}
	start = clampInt(start, 0, limit)
	end = clampInt(end, 0, limit)
	if end <= start {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Union into an existing range when the new one intersects it or is
	// pixel adjacent. Linear search: the set is expected to hold one
	// growing range during background loading.
	merged := false
	for i := range r.regions {
		reg := &r.regions[i]
		if reg.start <= end+1 && reg.end >= start-1 {
			if reg.start > start {
				reg.start = start
			}
			if reg.end < end {
				reg.end = end
			}
			merged = true
			break
		}
	}
	if !merged {
		r.regions = append(r.regions, pixelRange{start, end})
	}

	// The union may have bridged neighbors; re-establish the invariant
	// that no two stored ranges are within one pixel of each other.
	sort.Slice(r.regions, func(i, j int) bool {
		return r.regions[i].start < r.regions[j].start
	})
	out := r.regions[:1]
	for _, reg := range r.regions[1:] {
		last := &out[len(out)-1]
		if reg.start <= last.end+1 {
			if reg.end > last.end {
				last.end = reg.end
			}
		} else {
			out = append(out, reg)
		}
	}
	r.regions = out
}

// drain invokes load for every stored range and clears the set. The mutex
// is held across the whole pass so a concurrent writer cannot interleave;
// load must not call back into this set.
func (r *invalidRegions) drain(load func(start, end int) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reg := range r.regions {
		if err := load(reg.start, reg.end); err != nil {
			return err
		}
	}
	r.regions = r.regions[:0]
	return nil
}

func (r *invalidRegions) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.regions)
}

// snapshot returns a copy of the stored ranges, for tests and diagnostics.
func (r *invalidRegions) snapshot() []pixelRange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pixelRange(nil), r.regions...)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
