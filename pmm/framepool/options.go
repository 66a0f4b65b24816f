package framepool

import (
	"log/slog"

	"github.com/joshuapare/framekit/pmm/dirty"
)

// Options controls pool construction. A nil *Options uses the defaults.
type Options struct {
	// Logger receives the construction notice and per-call debug lines.
	// If nil, slog.Default() at construction time is used.
	Logger *slog.Logger

	// Registry is where the pool registers itself.
	// If nil, the process-wide Default registry is used.
	Registry *Registry

	// Tracker, when set, is told which state-map bytes every operation
	// writes, so a file-backed image can be flushed incrementally.
	// Add is called under the pool's own lock, so a tracker shared between
	// pools must be safe for concurrent use, as *dirty.Tracker is.
	Tracker dirty.DirtyTracker
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *Options) registry() *Registry {
	if o == nil || o.Registry == nil {
		return Default
	}
	return o.Registry
}

func (o *Options) tracker() dirty.DirtyTracker {
	if o == nil {
		return nil
	}
	return o.Tracker
}
