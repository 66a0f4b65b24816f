// Package framepool allocates runs of physically contiguous frames.
//
// # Overview
//
// A Pool manages one contiguous range of physical frames and hands out runs
// of N adjacent frames as a unit. Callers keep only the first frame number of
// a run; ReleaseFrames recovers the run length from the pool's bookkeeping and
// finds the owning pool through a process-wide Registry, so release needs no
// pool handle:
//
//	mem, _ := pmm.NewMemory(256)
//	pool, err := framepool.New(mem, 100, 100, pmm.NoFrame, nil)
//	if err != nil {
//	    return err
//	}
//
//	f := pool.GetFrames(5) // Frame(101): frame 100 holds the state map
//	if !f.Valid() {
//	    return errOutOfFrames
//	}
//
//	// Later, from anywhere:
//	err = framepool.ReleaseFrames(f)
//
// # State Map
//
// Every frame has a 2-bit state, packed four frames per byte:
//
//	Free            0b00  available
//	Used            0b01  allocated, not the first frame of its run
//	HeadOfSequence  0b10  allocated, first frame of its run
//
// A run is one HeadOfSequence frame followed by zero or more Used frames.
// Release frees the head and walks forward while frames are Used, so the
// run length never has to be stored. The map occupies
// NeededInfoFrames(n) whole frames of physical memory.
//
// # Metadata Placement
//
// With metadata == pmm.NoFrame the pool self-hosts: its map lives in its own
// first frames, which are marked allocated and dropped from the usable range.
// Passing a metadata frame instead places the map there; the caller must have
// reserved those frames already, typically from another pool:
//
//	k := framepool.NeededInfoFrames(n)
//	meta := kernelPool.GetFrames(k)
//	procPool, err := framepool.New(mem, procBase, n, meta, nil)
//
// # Allocation
//
// GetFrames is first-fit: it scans the usable range upward and takes the
// first free run that reaches the requested length. It returns pmm.NoFrame
// when no run is long enough.
//
// MarkInaccessible claims frames consumed outside the allocator. It never
// reports failure, but the frames must lie inside the range the pool was
// constructed with; a range reaching outside it panics.
//
// # Registry
//
// Pools register themselves at construction and are never removed. No two
// registered pools may share a frame, counting self-hosted map frames. The
// Default registry holds at most DefaultCapacity pools; New fails with
// ErrRegistryFull beyond that. Tests and tools can build their own Registry.
//
// # Thread Safety
//
// Each Pool serializes state-map access with its own mutex, and the Registry
// guards its table with a read/write lock, so allocation and release may be
// called from several goroutines. A dirty.Tracker passed in Options may be shared by
// several pools; it locks internally.
package framepool
