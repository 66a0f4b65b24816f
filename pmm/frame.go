package pmm

import "fmt"

const (
	// FrameShift is log2(FrameSize).
	FrameShift = 12

	// FrameSize is the size in bytes of every physical frame.
	FrameSize = 1 << FrameShift
)

// Frame describes a physical memory frame number.
type Frame uint64

// NoFrame is returned by allocators when no frame could be reserved.
// Frame 0 is never a valid allocation.
const NoFrame Frame = 0

// Valid returns true if f is not the NoFrame sentinel.
func (f Frame) Valid() bool {
	return f != NoFrame
}

// Address returns the physical address of the first byte of the frame.
func (f Frame) Address() uint64 {
	return uint64(f) << FrameShift
}

// Add returns the frame n frames after f.
func (f Frame) Add(n uint64) Frame {
	return f + Frame(n)
}

func (f Frame) String() string {
	if !f.Valid() {
		return "Frame(none)"
	}
	return fmt.Sprintf("Frame(%d)", uint64(f))
}

// FrameOf returns the frame containing physical address addr.
func FrameOf(addr uint64) Frame {
	return Frame(addr >> FrameShift)
}
