package framepool

import "errors"

var (
	// ErrBadRange indicates a pool range that is empty, starts at frame 0,
	// overflows, or is too small to host its own state map.
	ErrBadRange = errors.New("framepool: invalid frame range")

	// ErrRegistryFull indicates the registry already holds its maximum number of pools.
	ErrRegistryFull = errors.New("framepool: pool registry is full")

	// ErrOverlap indicates a pool range that intersects an already registered pool.
	ErrOverlap = errors.New("framepool: range overlaps a registered pool")

	// ErrUnknownFrame indicates a frame that no registered pool manages.
	ErrUnknownFrame = errors.New("framepool: frame does not belong to any known pool")

	// ErrNotHead indicates a release of a frame that does not start a run.
	ErrNotHead = errors.New("framepool: frame is not head of a sequence")

	// ErrCorrupt indicates a state map that violates the run invariant.
	ErrCorrupt = errors.New("framepool: corrupt state map")
)
