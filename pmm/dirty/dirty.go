package dirty

import (
	"context"
	"sort"
	"sync"

	"github.com/joshuapare/framekit/pmm"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64

	// standardPageSize is the flush granularity; it matches pmm.FrameSize.
	standardPageSize = pmm.FrameSize
)

// Range represents a dirty byte range (absolute physical addresses).
type Range struct {
	Off int64
	Len int64
}

// Tracker accumulates dirty ranges and flushes them efficiently.
//
// Safe for concurrent use: several pools may share one tracker.
type Tracker struct {
	mu       sync.Mutex
	mem      *pmm.Memory
	ranges   []Range // coalesced at flush time
	pageSize int64
}

// NewTracker creates a dirty tracker for the given memory.
func NewTracker(mem *pmm.Memory) *Tracker {
	return &Tracker{
		mem:      mem,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: standardPageSize,
	}
}

// Add records a dirty range. Empty ranges are ignored.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// Pending reports whether any ranges are waiting to be flushed.
func (t *Tracker) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ranges) > 0
}

// Flush writes every dirty page back to the image file and syncs it.
//
// The context can be used to cancel the flush. If cancelled midway, some
// pages may have been written and the ranges are kept for a retry.
func (t *Tracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f := t.mem.File()
	data := t.mem.Bytes()
	if f == nil || len(data) == 0 {
		// Anonymous memory: nothing to persist.
		t.ranges = t.ranges[:0]
		return nil
	}

	if err := t.flushRanges(ctx, data); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fdatasync(f); err != nil {
		return err
	}

	t.ranges = t.ranges[:0]
	return nil
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ranges = t.ranges[:0]
}

// DebugRanges returns the current raw, uncoalesced dirty ranges.
func (t *Tracker) DebugRanges() []Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// DebugCoalescedRanges returns the page-aligned, sorted, merged ranges that
// Flush would write.
func (t *Tracker) DebugCoalescedRanges() []Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.coalesce()
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping or
// adjacent ranges. Ranges are clipped to the end of memory. Callers hold t.mu.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}
	limit := int64(len(t.mem.Bytes()))

	aligned := make([]Range, 0, len(t.ranges))
	for _, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize
		end := r.Off + r.Len
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}
		if end > limit {
			end = limit
		}
		if start >= end {
			continue
		}
		aligned = append(aligned, Range{Off: start, Len: end - start})
	}
	if len(aligned) == 0 {
		return nil
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.Off+current.Len {
			end := max(current.Off+current.Len, next.Off+next.Len)
			current.Len = end - current.Off
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
