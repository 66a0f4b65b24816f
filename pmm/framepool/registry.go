package framepool

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/joshuapare/framekit/pmm"
)

// DefaultCapacity is the number of pools the Default registry accepts.
const DefaultCapacity = 2

// Default is the process-wide registry used by New and ReleaseFrames unless
// Options.Registry says otherwise.
var Default = NewRegistry(DefaultCapacity, nil)

// Registry is a fixed-capacity table of live pools, searched linearly to
// find the owner of a bare frame number.
type Registry struct {
	mu       sync.RWMutex
	pools    []*Pool
	capacity int
	log      *slog.Logger
}

// NewRegistry returns an empty registry holding at most capacity pools.
// A capacity <= 0 means no limit. A nil logger uses slog.Default() at the
// time a message is logged.
func NewRegistry(capacity int, logger *slog.Logger) *Registry {
	r := &Registry{capacity: capacity, log: logger}
	if capacity > 0 {
		r.pools = make([]*Pool, 0, capacity)
	}
	return r
}

func (r *Registry) logger() *slog.Logger {
	if r.log == nil {
		return slog.Default()
	}
	return r.log
}

func (r *Registry) register(p *Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capacity > 0 && len(r.pools) >= r.capacity {
		return fmt.Errorf("%w: capacity %d", ErrRegistryFull, r.capacity)
	}
	for _, q := range r.pools {
		if p.overlaps(q) {
			return fmt.Errorf("%w: [%d, %d) and [%d, %d)", ErrOverlap,
				uint64(p.mapBase), uint64(p.mapBase)+p.mapLen, uint64(q.mapBase), uint64(q.mapBase)+q.mapLen)
		}
	}
	r.pools = append(r.pools, p)
	return nil
}

// Lookup returns the pool whose usable range contains f, or nil.
func (r *Registry) Lookup(f pmm.Frame) *Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.pools {
		if p.Contains(f) {
			return p
		}
	}
	return nil
}

// ReleaseFrames frees the run that starts at f in whichever registered pool
// owns it.
//
// Releasing a frame no pool owns, or one that does not start a run, is
// logged and returns ErrUnknownFrame or ErrNotHead; no state changes.
func (r *Registry) ReleaseFrames(f pmm.Frame) error {
	p := r.Lookup(f)
	if p == nil {
		r.logger().Warn("frame does not belong to any known pool", "frame", uint64(f))
		return fmt.Errorf("%w: %s", ErrUnknownFrame, f)
	}

	n, err := p.release(f)
	if err != nil {
		p.log.Warn("frame is not head of a sequence", "frame", uint64(f))
		return err
	}
	p.log.Debug("frames released", "frame", uint64(f), "count", n)
	return nil
}

// Pools returns the registered pools in registration order.
func (r *Registry) Pools() []*Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Pool, len(r.pools))
	copy(out, r.pools)
	return out
}

// Len returns the number of registered pools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// Cap returns the registry capacity; 0 means unlimited.
func (r *Registry) Cap() int {
	return max(r.capacity, 0)
}

// Reset forgets every registered pool. The pools keep working but can no
// longer be found by ReleaseFrames. Meant for tests and tools that rebuild
// their pools from scratch.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools = r.pools[:0]
}

// ReleaseFrames frees the run starting at f using the Default registry.
func ReleaseFrames(f pmm.Frame) error {
	return Default.ReleaseFrames(f)
}
