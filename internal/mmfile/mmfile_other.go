//go:build !unix

package mmfile

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Anon allocates size bytes of zeroed memory when mmap is not available.
func Anon(size int) ([]byte, func() error, error) {
	if size < 0 {
		return nil, nil, fmt.Errorf("mmfile: negative mapping size (%d bytes)", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}

// MapFile reads the file into a buffer of size bytes when mmap is not
// available. Cleanup writes the buffer back and closes the file.
func MapFile(path string, size int) ([]byte, *os.File, func() error, error) {
	if size <= 0 {
		return nil, nil, nil, fmt.Errorf("mmfile: invalid mapping size (%d bytes)", size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, nil, err
	}
	data := make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, nil, nil, err
	}
	closed := false
	cleanup := func() error {
		if closed {
			return nil
		}
		closed = true
		_, werr := f.WriteAt(data, 0)
		return errors.Join(werr, f.Close())
	}
	return data, f, cleanup, nil
}
