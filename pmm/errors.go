package pmm

import "errors"

var (
	// ErrOutOfRange indicates a frame span that does not fit in the backing memory.
	ErrOutOfRange = errors.New("pmm: frame span outside physical memory")

	// ErrClosed indicates use of a Memory after Close.
	ErrClosed = errors.New("pmm: memory closed")
)
