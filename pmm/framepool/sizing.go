package framepool

import (
	"github.com/joshuapare/framekit/internal/buf"
	"github.com/joshuapare/framekit/pmm"
)

// NeededInfoFrames returns how many whole frames a state map for n frames
// occupies: ceil(ceil(2n / 8) / FrameSize).
//
// Callers placing a pool's map elsewhere use it to reserve the frames first.
func NeededInfoFrames(n uint64) uint64 {
	return buf.CeilDiv(MapBytes(n), pmm.FrameSize)
}
