//go:build unix

package mmfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Anon maps size bytes of zeroed anonymous memory.
func Anon(size int) ([]byte, func() error, error) {
	if size == 0 {
		return []byte{}, func() error { return nil }, nil
	}
	if size < 0 {
		return nil, nil, fmt.Errorf("mmfile: negative mapping size (%d bytes)", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: anonymous mmap: %w", err)
	}
	return data, unmapper(data), nil
}

// MapFile maps the file at path read/write and shared, creating it or
// extending it to size bytes first. The returned file stays open until
// cleanup runs so callers can sync its descriptor.
func MapFile(path string, size int) ([]byte, *os.File, func() error, error) {
	if size <= 0 {
		return nil, nil, nil, fmt.Errorf("mmfile: invalid mapping size (%d bytes)", size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, nil, err
	}
	if info.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, nil, nil, fmt.Errorf("mmfile: extend %s: %w", path, err)
		}
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, nil, nil, fmt.Errorf("mmfile: mmap %s: %w", path, err)
	}
	unmap := unmapper(data)
	closed := false
	cleanup := func() error {
		if closed {
			return nil
		}
		closed = true
		return errors.Join(unmap(), f.Close())
	}
	return data, f, cleanup, nil
}

func unmapper(data []byte) func() error {
	done := false
	return func() error {
		if done {
			return nil
		}
		done = true
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
}
