package framepool

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/joshuapare/framekit/internal/buf"
	"github.com/joshuapare/framekit/pmm"
	"github.com/joshuapare/framekit/pmm/dirty"
)

// Pool manages one contiguous range of physical frames.
type Pool struct {
	mu sync.Mutex

	// Usable range [base, base+n). Excludes self-hosted metadata frames.
	base pmm.Frame
	n    uint64

	// The map covers [mapBase, mapBase+mapLen), the range as constructed.
	mapBase pmm.Frame
	mapLen  uint64

	mapFrame   pmm.Frame // where the map lives
	selfHosted bool
	states     stateMap

	tracker dirty.DirtyTracker
	log     *slog.Logger
}

// New creates a pool over frames [base, base+n) and registers it.
//
// With metadata == pmm.NoFrame the state map is stored in the range's own
// first NeededInfoFrames(n) frames, which become a permanent allocation and
// are excluded from the usable range. Otherwise the map is stored at frame
// metadata, which the caller must already have reserved.
//
// The map must fit in mem. New fails with ErrRegistryFull when the target
// registry is at capacity, and with ErrOverlap when [base, base+n)
// intersects the range a registered pool was constructed with, its
// self-hosted map frames included; neither touches mem.
func New(mem *pmm.Memory, base pmm.Frame, n uint64, metadata pmm.Frame, opts *Options) (*Pool, error) {
	if base == pmm.NoFrame || n == 0 {
		return nil, fmt.Errorf("%w: %d frames at %s", ErrBadRange, n, base)
	}
	if _, ok := buf.AddOverflowSafe(uint64(base), n); !ok {
		return nil, fmt.Errorf("%w: %d frames at %s overflows", ErrBadRange, n, base)
	}

	p := &Pool{
		base:     base,
		n:        n,
		mapBase:  base,
		mapLen:   n,
		mapFrame: metadata,
		tracker:  opts.tracker(),
		log:      opts.logger(),
	}

	// n is only used for sizing here; later code works from mapLen.
	k := NeededInfoFrames(n)
	if metadata == pmm.NoFrame {
		if k >= n {
			return nil, fmt.Errorf("%w: %d frames cannot host a %d-frame state map", ErrBadRange, n, k)
		}
		p.selfHosted = true
		p.mapFrame = base
		p.base = base.Add(k)
		p.n = n - k
	}

	span, err := mem.Span(p.mapFrame, k)
	if err != nil {
		return nil, fmt.Errorf("framepool: state map: %w", err)
	}
	p.states = stateMap(span[:MapBytes(n)])

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := opts.registry().register(p); err != nil {
		return nil, err
	}

	clear(p.states)
	if p.selfHosted {
		p.markRun(0, k)
	}
	p.touch(0, p.mapLen)

	p.log.Info("frame pool initialized",
		"base", uint64(p.base),
		"frames", p.n,
		"map_frame", uint64(p.mapFrame),
		"map_frames", k,
		"self_hosted", p.selfHosted,
	)
	return p, nil
}

// MustNew is like New but panics if the pool cannot be created. Boot code
// uses it where a missing pool means the allocator never came up.
func MustNew(mem *pmm.Memory, base pmm.Frame, n uint64, metadata pmm.Frame, opts *Options) *Pool {
	p, err := New(mem, base, n, metadata, opts)
	if err != nil {
		panic(err)
	}
	return p
}

// Base returns the first usable frame.
func (p *Pool) Base() pmm.Frame { return p.base }

// Len returns the number of usable frames.
func (p *Pool) Len() uint64 { return p.n }

// MapFrame returns the frame holding the state map.
func (p *Pool) MapFrame() pmm.Frame { return p.mapFrame }

// SelfHosted reports whether the state map lives inside the pool's own range.
func (p *Pool) SelfHosted() bool { return p.selfHosted }

// Contains reports whether f lies in the usable range.
func (p *Pool) Contains(f pmm.Frame) bool {
	return f >= p.base && uint64(f-p.base) < p.n
}

// overlaps reports whether the constructed ranges of p and q intersect.
// Self-hosted map frames count: they belong to their pool for good.
func (p *Pool) overlaps(q *Pool) bool {
	return uint64(p.mapBase) < uint64(q.mapBase)+q.mapLen && uint64(q.mapBase) < uint64(p.mapBase)+p.mapLen
}

// GetFrames allocates n contiguous frames and returns the first one, or
// pmm.NoFrame if n is 0 or no free run of n frames exists.
//
// The lowest-addressed run that fits is chosen.
func (p *Pool) GetFrames(n uint64) pmm.Frame {
	if n == 0 {
		return pmm.NoFrame
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	first, end := p.usable()
	var run uint64
	for i := first; i < end; i++ {
		if p.states.get(i) != Free {
			run = 0
			continue
		}
		run++
		if run == n {
			start := i + 1 - n
			p.markRun(start, n)
			f := p.mapBase.Add(start)
			p.log.Debug("frames allocated", "frame", uint64(f), "count", n)
			return f
		}
	}

	p.log.Debug("no free run", "count", n, "base", uint64(p.base), "frames", p.n)
	return pmm.NoFrame
}

// MarkInaccessible unconditionally marks frames [base, base+n) as one
// allocated run, whatever their previous state. It is meant for frames
// consumed outside the allocator (a kernel image, another pool's map).
//
// Marking frames that are already allocated silently overwrites their
// bookkeeping; keeping claims disjoint is the caller's job. The frames must
// lie inside the range the pool was constructed with.
func (p *Pool) MarkInaccessible(base pmm.Frame, n uint64) {
	if n == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if base < p.mapBase || uint64(base-p.mapBase) >= p.mapLen || n > p.mapLen-uint64(base-p.mapBase) {
		panic(fmt.Sprintf("framepool: MarkInaccessible(%d, %d) outside pool frames [%d, %d)",
			uint64(base), n, uint64(p.mapBase), uint64(p.mapBase)+p.mapLen))
	}
	p.markRun(uint64(base-p.mapBase), n)
	p.log.Debug("frames marked inaccessible", "frame", uint64(base), "count", n)
}

// release frees the run headed by f and returns its length. f must be
// inside the usable range.
func (p *Pool) release(f pmm.Frame) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := uint64(f - p.mapBase)
	if s := p.states.get(i); s != HeadOfSequence {
		return 0, fmt.Errorf("%w: %s is %s", ErrNotHead, f, s)
	}

	_, end := p.usable()
	p.states.set(i, Free)
	j := i + 1
	for j < end && p.states.get(j) == Used {
		p.states.set(j, Free)
		j++
	}
	p.touch(i, j-i)
	return j - i, nil
}

// State returns the state of any frame the map covers, including
// self-hosted metadata frames.
func (p *Pool) State(f pmm.Frame) (State, bool) {
	if f < p.mapBase || uint64(f-p.mapBase) >= p.mapLen {
		return Free, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states.get(uint64(f - p.mapBase)), true
}

// usable returns the map indexes [first, end) of the usable range.
func (p *Pool) usable() (uint64, uint64) {
	first := uint64(p.base - p.mapBase)
	return first, first + p.n
}

// markRun writes one run at map index i: a head, then n-1 used frames.
func (p *Pool) markRun(i, n uint64) {
	p.states.set(i, HeadOfSequence)
	for j := i + 1; j < i+n; j++ {
		p.states.set(j, Used)
	}
	p.touch(i, n)
}

// touch reports the map bytes holding states [i, i+n) to the tracker.
func (p *Pool) touch(i, n uint64) {
	if p.tracker == nil || n == 0 {
		return
	}
	first := i / framesPerByte
	last := (i + n - 1) / framesPerByte
	p.tracker.Add(int(p.mapFrame.Address()+first), int(last-first+1))
}
