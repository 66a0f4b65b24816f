// Package dirty tracks which parts of a physical memory image were modified
// by allocator bookkeeping and flushes them to the backing file.
//
// # Overview
//
// Frame pools keep their packed state maps inside pmm.Memory. When that memory
// is backed by an image file, every allocation and release changes a few map
// bytes. The Tracker records those byte ranges and, on Flush, rounds them to
// page boundaries, merges neighbours, and writes only the affected pages:
//
//	Dirty bytes: [0x1000+3, 0x1000+9, 0x5000] → Ranges: [0x1000-0x2000, 0x5000-0x6000]
//
// # Usage
//
//	mem, _ := pmm.OpenMemory("phys.img", 1024)
//	tracker := dirty.NewTracker(mem)
//	pool, _ := framepool.New(mem, 100, 100, 0, framepool.WithDirtyTracker(tracker))
//	pool.GetFrames(5)
//	if err := tracker.Flush(ctx); err != nil {
//	    return err
//	}
//
// Anonymous memory has nothing to flush; Flush only clears the ranges.
//
// # Thread Safety
//
// Tracker instances are not thread-safe. Pools calling Add hold their own
// lock, so a tracker shared by several pools must be guarded by the caller.
package dirty
