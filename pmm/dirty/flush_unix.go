//go:build linux || freebsd

package dirty

import (
	"context"
	"os"

	"golang.org/x/sys/unix"
)

// flushRanges msyncs each coalesced range. Ranges are page-aligned, which is
// what msync requires of sub-slices on Linux and FreeBSD.
func (t *Tracker) flushRanges(ctx context.Context, data []byte) error {
	for _, r := range t.coalesce() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := unix.Msync(data[r.Off:r.Off+r.Len], unix.MS_SYNC); err != nil {
			return err
		}
	}
	return nil
}

func fdatasync(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
