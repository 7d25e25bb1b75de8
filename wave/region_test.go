// SPDX-License-Identifier: EPL-2.0

package wave

import (
	"errors"
	"testing"
)

func TestInvalidRegions_MergeAdjacent(t *testing.T) {
	t.Parallel()

	var r invalidRegions
	r.add(10, 20, 100)
	r.add(21, 30, 100) // within one pixel, must union

	got := r.snapshot()
	if len(got) != 1 {
		t.Fatalf("regions = %v, want one merged range", got)
	}
	if got[0] != (pixelRange{10, 30}) {
		t.Errorf("merged range = %v, want {10 30}", got[0])
	}
}

func TestInvalidRegions_DisjointStaySeparate(t *testing.T) {
	t.Parallel()

	var r invalidRegions
	r.add(10, 20, 100)
	r.add(50, 60, 100)

	if got := r.snapshot(); len(got) != 2 {
		t.Errorf("regions = %v, want two separate ranges", got)
	}
}

func TestInvalidRegions_BridgingMergesAll(t *testing.T) {
	t.Parallel()

	var r invalidRegions
	r.add(10, 20, 100)
	r.add(40, 50, 100)
	r.add(15, 45, 100) // overlaps both

	got := r.snapshot()
	if len(got) != 1 || got[0] != (pixelRange{10, 50}) {
		t.Errorf("regions = %v, want single {10 50}", got)
	}
}

func TestInvalidRegions_ClipsToBounds(t *testing.T) {
	t.Parallel()

	var r invalidRegions
	r.add(-5, 10, 100)
	r.add(95, 200, 100)

	got := r.snapshot()
	if len(got) != 2 {
		t.Fatalf("regions = %v, want two clipped ranges", got)
	}
	if got[0] != (pixelRange{0, 10}) || got[1] != (pixelRange{95, 100}) {
		t.Errorf("regions = %v, want {0 10} and {95 100}", got)
	}
}

func TestInvalidRegions_OutOfBoundsIgnored(t *testing.T) {
	t.Parallel()

	var r invalidRegions
	r.add(-20, -5, 100)
	r.add(100, 150, 100)
	r.add(30, 30, 100)

	if got := r.snapshot(); len(got) != 0 {
		t.Errorf("regions = %v, want none stored", got)
	}
}

func TestInvalidRegions_DrainClearsSet(t *testing.T) {
	t.Parallel()

	var r invalidRegions
	r.add(0, 10, 100)
	r.add(50, 60, 100)

	var seen []pixelRange
	err := r.drain(func(start, end int) error {
		seen = append(seen, pixelRange{start, end})
		return nil
	})
	if err != nil {
		t.Fatalf("drain() error = %v", err)
	}
	if len(seen) != 2 {
		t.Errorf("drain visited %v, want both ranges", seen)
	}
	if got := r.count(); got != 0 {
		t.Errorf("count() after drain = %d, want 0", got)
	}
}

func TestInvalidRegions_DrainErrorKeepsRegions(t *testing.T) {
	t.Parallel()

	var r invalidRegions
	r.add(0, 10, 100)

	boom := errors.New("boom")
	if err := r.drain(func(start, end int) error { return boom }); err != boom {
		t.Fatalf("drain() error = %v, want boom", err)
	}
	if got := r.count(); got != 1 {
		t.Errorf("count() after failed drain = %d, want 1", got)
	}
}
