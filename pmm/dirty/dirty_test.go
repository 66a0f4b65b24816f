package dirty

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/joshuapare/framekit/pmm"
)

// setupTestMemory maps a small file-backed image for testing.
func setupTestMemory(t testing.TB, frames uint64) (*pmm.Memory, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "phys.img")
	mem, err := pmm.OpenMemory(path, frames)
	if err != nil {
		t.Fatalf("Failed to open test memory: %v", err)
	}
	t.Cleanup(func() { _ = mem.Close() })
	return mem, path
}

func Test_DirtyTracker_PageAlignment(t *testing.T) {
	mem, _ := setupTestMemory(t, 4)
	tracker := NewTracker(mem)

	tracker.Add(100, 200)
	coalesced := tracker.coalesce()

	if len(coalesced) != 1 {
		t.Fatalf("Expected 1 coalesced range, got %d", len(coalesced))
	}
	if coalesced[0].Off != 0 {
		t.Errorf("Start not aligned: got %d, want 0", coalesced[0].Off)
	}
	if coalesced[0].Len != 4096 {
		t.Errorf("Length not aligned: got %d, want 4096", coalesced[0].Len)
	}
}

func Test_DirtyTracker_Coalesce_Adjacent(t *testing.T) {
	mem, _ := setupTestMemory(t, 4)
	tracker := NewTracker(mem)

	tracker.Add(4096, 4096)
	tracker.Add(8192, 4096)

	coalesced := tracker.coalesce()
	if len(coalesced) != 1 {
		t.Fatalf("Expected 1 merged range, got %d", len(coalesced))
	}
	if coalesced[0].Off != 4096 || coalesced[0].Len != 8192 {
		t.Errorf("Merged range: got %+v, want {4096 8192}", coalesced[0])
	}
}

func Test_DirtyTracker_Coalesce_Disjoint(t *testing.T) {
	mem, _ := setupTestMemory(t, 8)
	tracker := NewTracker(mem)

	// Added out of order: state-map bytes of two different pools.
	tracker.Add(5*4096+10, 1)
	tracker.Add(4096+3, 2)
	tracker.Add(4096+9, 1)

	coalesced := tracker.coalesce()
	want := []Range{{Off: 4096, Len: 4096}, {Off: 5 * 4096, Len: 4096}}
	if len(coalesced) != len(want) {
		t.Fatalf("Expected %d ranges, got %d: %+v", len(want), len(coalesced), coalesced)
	}
	for i := range want {
		if coalesced[i] != want[i] {
			t.Errorf("range %d: got %+v, want %+v", i, coalesced[i], want[i])
		}
	}
}

func Test_DirtyTracker_ClipsToMemory(t *testing.T) {
	mem, _ := setupTestMemory(t, 2)
	tracker := NewTracker(mem)

	tracker.Add(4096, 3*4096)
	coalesced := tracker.coalesce()
	if len(coalesced) != 1 || coalesced[0].Off+coalesced[0].Len != 2*4096 {
		t.Fatalf("expected range clipped to end of memory, got %+v", coalesced)
	}
}

func Test_DirtyTracker_IgnoresEmpty(t *testing.T) {
	mem, _ := setupTestMemory(t, 1)
	tracker := NewTracker(mem)

	tracker.Add(10, 0)
	if tracker.Pending() {
		t.Fatalf("zero-length range should not be recorded")
	}
	if got := tracker.DebugCoalescedRanges(); got != nil {
		t.Fatalf("expected no ranges, got %+v", got)
	}
}

func Test_DirtyTracker_FlushPersists(t *testing.T) {
	mem, path := setupTestMemory(t, 2)
	tracker := NewTracker(mem)

	mem.Bytes()[4096+1] = 0x99
	tracker.Add(4096+1, 1)

	if err := tracker.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if tracker.Pending() {
		t.Fatalf("ranges should be cleared after flush")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if data[4096+1] != 0x99 {
		t.Fatalf("flushed byte not on disk: got 0x%x", data[4096+1])
	}
}

func Test_DirtyTracker_FlushCancelled(t *testing.T) {
	mem, _ := setupTestMemory(t, 1)
	tracker := NewTracker(mem)
	tracker.Add(0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := tracker.Flush(ctx); err == nil {
		t.Fatalf("expected context error")
	}
	if !tracker.Pending() {
		t.Fatalf("ranges must survive a cancelled flush")
	}
}

func Test_DirtyTracker_AnonymousFlushClears(t *testing.T) {
	mem, err := pmm.NewMemory(1)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	defer mem.Close()

	tracker := NewTracker(mem)
	tracker.Add(0, 8)
	if err := tracker.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if tracker.Pending() {
		t.Fatalf("anonymous flush should clear ranges")
	}
}

func Test_DirtyTracker_ResetAndDebug(t *testing.T) {
	mem, _ := setupTestMemory(t, 1)
	tracker := NewTracker(mem)

	tracker.Add(1, 2)
	raw := tracker.DebugRanges()
	if len(raw) != 1 || raw[0] != (Range{Off: 1, Len: 2}) {
		t.Fatalf("DebugRanges: got %+v", raw)
	}
	raw[0].Off = 99
	if tracker.DebugRanges()[0].Off != 1 {
		t.Fatalf("DebugRanges must return a copy")
	}

	tracker.Reset()
	if tracker.Pending() {
		t.Fatalf("Reset should clear ranges")
	}
}

func Test_DirtyTracker_ConcurrentAdd(t *testing.T) {
	mem, _ := setupTestMemory(t, 8)
	tracker := NewTracker(mem)

	const workers, perWorker = 8, 200
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				tracker.Add(w*int(pmm.FrameSize)+i, 1)
			}
		}()
	}
	wg.Wait()

	if got := len(tracker.DebugRanges()); got != workers*perWorker {
		t.Fatalf("DebugRanges: got %d ranges, want %d", got, workers*perWorker)
	}
	coalesced := tracker.DebugCoalescedRanges()
	if len(coalesced) != 1 || coalesced[0] != (Range{Off: 0, Len: workers * pmm.FrameSize}) {
		t.Fatalf("DebugCoalescedRanges: got %+v", coalesced)
	}
	if err := tracker.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
