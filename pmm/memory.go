package pmm

import (
	"fmt"
	"os"

	"github.com/joshuapare/framekit/internal/buf"
	"github.com/joshuapare/framekit/internal/mmfile"
)

// Memory is a physical address space of whole frames, backed by an anonymous
// mapping or by a mapped image file.
//
// Memory itself does no locking; framepool serializes access to the state
// maps it places here.
type Memory struct {
	f       *os.File
	data    []byte
	cleanup func() error
}

// NewMemory maps nFrames frames of zeroed anonymous memory.
func NewMemory(nFrames uint64) (*Memory, error) {
	size, err := memSize(nFrames)
	if err != nil {
		return nil, err
	}
	data, cleanup, err := mmfile.Anon(size)
	if err != nil {
		return nil, err
	}
	return &Memory{data: data, cleanup: cleanup}, nil
}

// OpenMemory maps the image at path as nFrames frames of physical memory,
// creating or extending the file as needed. Existing contents are kept.
func OpenMemory(path string, nFrames uint64) (*Memory, error) {
	size, err := memSize(nFrames)
	if err != nil {
		return nil, err
	}
	data, f, cleanup, err := mmfile.MapFile(path, size)
	if err != nil {
		return nil, err
	}
	return &Memory{f: f, data: data, cleanup: cleanup}, nil
}

func memSize(nFrames uint64) (int, error) {
	if nFrames == 0 {
		return 0, fmt.Errorf("pmm: memory must hold at least one frame")
	}
	_, end, err := buf.CheckSpan(int(^uint(0)>>1), 0, nFrames, FrameSize)
	if err != nil {
		return 0, fmt.Errorf("pmm: memory of %d frames: %w", nFrames, err)
	}
	return end, nil
}

// Bytes returns the whole address space. Offsets are physical addresses.
func (m *Memory) Bytes() []byte { return m.data }

// Frames returns the number of frames the memory holds.
func (m *Memory) Frames() uint64 {
	return uint64(len(m.data)) / FrameSize
}

// FD returns the descriptor of the backing image, or -1 for anonymous memory.
func (m *Memory) FD() int {
	if m == nil || m.f == nil {
		return -1
	}
	return int(m.f.Fd())
}

// File returns the backing image file, or nil for anonymous memory.
func (m *Memory) File() *os.File {
	if m == nil {
		return nil
	}
	return m.f
}

// Span returns the bytes of frames [f, f+n).
func (m *Memory) Span(f Frame, n uint64) ([]byte, error) {
	if m.data == nil {
		return nil, ErrClosed
	}
	start, end, err := buf.CheckSpan(len(m.data), uint64(f), n, FrameSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %d frames at %s: %v", ErrOutOfRange, n, f, err)
	}
	return m.data[start:end], nil
}

// Close unmaps the memory and closes any backing file. It is safe to call
// more than once.
func (m *Memory) Close() error {
	if m.cleanup == nil {
		return nil
	}
	err := m.cleanup()
	m.cleanup = nil
	m.data = nil
	m.f = nil
	return err
}
