package framepool

import (
	"fmt"

	"github.com/joshuapare/framekit/pmm"
)

// Run is one allocated run: a head frame and its length.
type Run struct {
	Head pmm.Frame `json:"head"`
	Len  uint64    `json:"len"`
}

// Stats summarizes the usable range of a pool.
type Stats struct {
	Base           pmm.Frame `json:"base"`
	Frames         uint64    `json:"frames"`
	Free           uint64    `json:"free"`
	Allocated      uint64    `json:"allocated"`
	Runs           uint64    `json:"runs"`
	LargestFreeRun uint64    `json:"largest_free_run"`
}

// Stats counts free and allocated frames in the usable range.
// GetFrames(n) succeeds exactly when n <= LargestFreeRun.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Stats{Base: p.base, Frames: p.n}
	first, end := p.usable()
	var run uint64
	for i := first; i < end; i++ {
		switch p.states.get(i) {
		case Free:
			st.Free++
			run++
			st.LargestFreeRun = max(st.LargestFreeRun, run)
			continue
		case HeadOfSequence:
			st.Runs++
		}
		st.Allocated++
		run = 0
	}
	return st
}

// Runs returns every allocated run the map covers, in address order.
// Self-hosted metadata frames show up as the first run.
func (p *Pool) Runs() []Run {
	p.mu.Lock()
	defer p.mu.Unlock()

	var runs []Run
	for i := uint64(0); i < p.mapLen; i++ {
		switch p.states.get(i) {
		case HeadOfSequence:
			runs = append(runs, Run{Head: p.mapBase.Add(i), Len: 1})
		case Used:
			if len(runs) > 0 && uint64(runs[len(runs)-1].Head)+runs[len(runs)-1].Len == uint64(p.mapBase)+i {
				runs[len(runs)-1].Len++
			}
		}
	}
	return runs
}

// Verify checks that every Used frame follows a head or another Used frame
// and that no slot holds an undefined state.
func (p *Pool) Verify() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	inRun := false
	for i := uint64(0); i < p.mapLen; i++ {
		switch s := p.states.get(i); s {
		case Free:
			inRun = false
		case HeadOfSequence:
			inRun = true
		case Used:
			if !inRun {
				return fmt.Errorf("%w: %s is used outside any run", ErrCorrupt, p.mapBase.Add(i))
			}
		default:
			return fmt.Errorf("%w: %s has state %d", ErrCorrupt, p.mapBase.Add(i), uint8(s))
		}
	}
	return nil
}
