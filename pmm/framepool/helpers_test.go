package framepool

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/framekit/pmm"
)

// newTestMemory maps frames frames of anonymous memory, unmapped at cleanup.
func newTestMemory(t testing.TB, frames uint64) *pmm.Memory {
	t.Helper()
	mem, err := pmm.NewMemory(frames)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })
	return mem
}

// quietOptions returns options with a private registry and a discarding logger.
func quietOptions(reg *Registry) *Options {
	return &Options{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry: reg,
	}
}

// newTestPool builds a self-hosted pool over [base, base+n) in its own registry.
func newTestPool(t testing.TB, base pmm.Frame, n uint64) (*Pool, *Registry) {
	t.Helper()
	mem := newTestMemory(t, uint64(base)+n)
	reg := NewRegistry(DefaultCapacity, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p, err := New(mem, base, n, pmm.NoFrame, quietOptions(reg))
	require.NoError(t, err)
	return p, reg
}

// captureLogger returns a logger writing text records at debug level into buf.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// states returns the states of frames [from, from+n).
func states(t testing.TB, p *Pool, from pmm.Frame, n uint64) []State {
	t.Helper()
	out := make([]State, n)
	for i := range n {
		s, ok := p.State(from.Add(i))
		require.True(t, ok, "frame %d not covered", uint64(from)+i)
		out[i] = s
	}
	return out
}

// requireRunIntegrity checks that every run is one head followed by used
// frames and that Runs agrees with a direct walk of the map.
func requireRunIntegrity(t testing.TB, p *Pool) {
	t.Helper()
	require.NoError(t, p.Verify())
	for _, r := range p.Runs() {
		got := states(t, p, r.Head, r.Len)
		require.Equal(t, HeadOfSequence, got[0], "run at %d", uint64(r.Head))
		for i, s := range got[1:] {
			require.Equal(t, Used, s, "run at %d offset %d", uint64(r.Head), i+1)
		}
		if next, ok := p.State(r.Head.Add(r.Len)); ok {
			require.NotEqual(t, Used, next, "run at %d continues past its length", uint64(r.Head))
		}
	}
}
