//go:build !linux && !freebsd && !darwin

package dirty

import (
	"context"
	"os"
)

// flushRanges writes each coalesced range through the file. Platforms here
// either lack mmap (the image is a plain buffer) or lack a portable msync for
// sub-slices; WriteAt is correct for both.
func (t *Tracker) flushRanges(ctx context.Context, data []byte) error {
	f := t.mem.File()
	for _, r := range t.coalesce() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := f.WriteAt(data[r.Off:r.Off+r.Len], r.Off); err != nil {
			return err
		}
	}
	return nil
}

func fdatasync(f *os.File) error {
	return f.Sync()
}
