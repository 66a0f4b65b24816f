// Package pmm models the physical address space that frame pools manage.
//
// # Frames
//
// Physical memory is carved into fixed-size frames of FrameSize bytes. A
// frame is identified solely by its number; the physical address of frame f
// is f * FrameSize:
//
//	f := pmm.Frame(101)
//	addr := f.Address() // 0x65000
//
// Frame 0 is reserved for low memory and is never handed out, so NoFrame (0)
// doubles as the failure sentinel returned by allocators.
//
// # Memory
//
// Memory is the byte-addressable backing for a range of physical frames
// starting at frame 0. Allocator metadata (the packed state maps of
// framepool.Pool) lives inside it at frame-aligned addresses, exactly where a
// kernel would keep it in RAM:
//
//	mem, err := pmm.NewMemory(256) // 1 MiB of anonymous memory
//	if err != nil {
//	    return err
//	}
//	defer mem.Close()
//
// OpenMemory maps a file instead, so an image of the address space survives
// the process and can be flushed with the dirty package.
//
// # Related Packages
//
//   - github.com/joshuapare/framekit/pmm/framepool: Contiguous frame allocation
//   - github.com/joshuapare/framekit/pmm/dirty: Flushing modified metadata
package pmm
