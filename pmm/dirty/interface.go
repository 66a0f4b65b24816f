package dirty

// DirtyTracker is the minimal interface for tracking modified byte ranges.
// Offsets are physical addresses inside the tracked pmm.Memory.
//
// This interface is intended for components that only report what they
// wrote (frame pools) and leave flushing to their owner.
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	Add(off, length int)
}
