package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/framekit/pmm"
	"github.com/joshuapare/framekit/pmm/dirty"
	"github.com/joshuapare/framekit/pmm/framepool"
)

var (
	runImage    string
	runFrames   uint64
	runCapacity int
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVar(&runImage, "image", "", "Back physical memory with this image file")
	cmd.Flags().Uint64Var(&runFrames, "frames", 4096, "Size of physical memory in frames")
	cmd.Flags().IntVar(&runCapacity, "capacity", framepool.DefaultCapacity,
		"Maximum number of pools (0 = unlimited)")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script|->",
		Short: "Run a frame pool command script",
		Long: `The run command executes a script of pool commands, one per line:

  pool <name> <base> <count> [meta]   create a pool (meta = external map frame)
  get <name> <n>                      allocate n contiguous frames
  mark <name> <base> <count>          mark frames as consumed elsewhere
  release <frame>                     release the run starting at frame
  dump <name>                         print the pool's state map
  stats <name>                        print free/allocated counts
  verify                              check every pool's run invariant

Numbers may be decimal or 0x-prefixed hex. '#' starts a comment. Failed
releases are reported and the script continues; failed pool creation stops it.

Example:
  framectl run boot.txt
  echo "pool k 100 100
get k 5" | framectl run -
  framectl run boot.txt --image phys.img --frames 65536 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.Context(), args)
		},
	}
}

// result is one executed step, as reported in JSON output.
type result struct {
	Line  int              `json:"line"`
	Op    string           `json:"op"`
	Pool  string           `json:"pool,omitempty"`
	Frame *uint64          `json:"frame,omitempty"`
	Error string           `json:"error,omitempty"`
	Stats *framepool.Stats `json:"stats,omitempty"`
	Runs  []framepool.Run  `json:"runs,omitempty"`
	Map   string           `json:"map,omitempty"`
	Pools []poolCheck      `json:"pools,omitempty"`
}

// poolCheck is one pool's verify outcome.
type poolCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// session holds the address space and pools a script works on.
type session struct {
	mem     *pmm.Memory
	reg     *framepool.Registry
	tracker *dirty.Tracker
	pools   map[string]*framepool.Pool
	order   []string
}

func runScript(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		in = f
	}
	steps, err := parseScript(in)
	if err != nil {
		return fmt.Errorf("failed to parse script: %w", err)
	}

	s, err := newSession(runImage, runFrames, runCapacity)
	if err != nil {
		return err
	}
	defer s.close()

	var results []result
	var runErr error
	for _, st := range steps {
		res, err := s.exec(st)
		results = append(results, res)
		if err != nil {
			runErr = fmt.Errorf("line %d: %w", st.Line, err)
			break
		}
		if !jsonOut {
			printResult(res)
		}
	}

	if s.tracker != nil {
		printVerbose("Flushing %d dirty range(s) to %s\n", len(s.tracker.DebugCoalescedRanges()), runImage)
		if err := s.tracker.Flush(ctx); err != nil {
			return errors.Join(runErr, fmt.Errorf("failed to flush image: %w", err))
		}
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	}
	return runErr
}

func newSession(image string, frames uint64, capacity int) (*session, error) {
	s := &session{
		reg:   framepool.NewRegistry(capacity, nil),
		pools: make(map[string]*framepool.Pool),
	}
	var err error
	if image != "" {
		printVerbose("Mapping image: %s (%d frames)\n", image, frames)
		s.mem, err = pmm.OpenMemory(image, frames)
		if err == nil {
			s.tracker = dirty.NewTracker(s.mem)
		}
	} else {
		s.mem, err = pmm.NewMemory(frames)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to map physical memory: %w", err)
	}
	return s, nil
}

func (s *session) close() {
	_ = s.mem.Close()
}

func (s *session) pool(name string) (*framepool.Pool, error) {
	p, ok := s.pools[name]
	if !ok {
		return nil, fmt.Errorf("unknown pool %q", name)
	}
	return p, nil
}

// exec runs one step. A returned error stops the script; per-step failures
// that leave state untouched are recorded in the result instead.
func (s *session) exec(st step) (result, error) {
	res := result{Line: st.Line, Op: st.Op}
	nums := func(from int) ([]uint64, error) {
		out := make([]uint64, 0, len(st.Args)-from)
		for _, a := range st.Args[from:] {
			n, err := parseNum(a)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}

	switch st.Op {
	case "pool":
		name := st.Args[0]
		res.Pool = name
		if _, dup := s.pools[name]; dup {
			return res, fmt.Errorf("pool %q already exists", name)
		}
		n, err := nums(1)
		if err != nil {
			return res, err
		}
		meta := pmm.NoFrame
		if len(n) == 3 {
			meta = pmm.Frame(n[2])
		}
		var tracker dirty.DirtyTracker
		if s.tracker != nil {
			tracker = s.tracker
		}
		p, err := framepool.New(s.mem, pmm.Frame(n[0]), n[1], meta, &framepool.Options{
			Registry: s.reg,
			Tracker:  tracker,
		})
		if err != nil {
			return res, err
		}
		s.pools[name] = p
		s.order = append(s.order, name)
		base := uint64(p.Base())
		res.Frame = &base

	case "get":
		res.Pool = st.Args[0]
		p, err := s.pool(st.Args[0])
		if err != nil {
			return res, err
		}
		n, err := nums(1)
		if err != nil {
			return res, err
		}
		f := uint64(p.GetFrames(n[0]))
		res.Frame = &f

	case "mark":
		res.Pool = st.Args[0]
		p, err := s.pool(st.Args[0])
		if err != nil {
			return res, err
		}
		n, err := nums(1)
		if err != nil {
			return res, err
		}
		if err := markChecked(p, pmm.Frame(n[0]), n[1]); err != nil {
			return res, err
		}
		res.Frame = &n[0]

	case "release":
		n, err := nums(0)
		if err != nil {
			return res, err
		}
		res.Frame = &n[0]
		if err := s.reg.ReleaseFrames(pmm.Frame(n[0])); err != nil {
			res.Error = err.Error()
		}

	case "dump":
		res.Pool = st.Args[0]
		p, err := s.pool(st.Args[0])
		if err != nil {
			return res, err
		}
		res.Runs = p.Runs()
		res.Map = renderMap(p)

	case "stats":
		res.Pool = st.Args[0]
		p, err := s.pool(st.Args[0])
		if err != nil {
			return res, err
		}
		stats := p.Stats()
		res.Stats = &stats

	case "verify":
		for _, name := range s.order {
			status := "ok"
			if err := s.pools[name].Verify(); err != nil {
				status = err.Error()
				res.Error = "state map invariant violated"
			}
			res.Pools = append(res.Pools, poolCheck{Name: name, Status: status})
		}
	}
	return res, nil
}

// markChecked turns MarkInaccessible's out-of-range panic into an error so
// a bad script line does not crash the tool.
func markChecked(p *framepool.Pool, base pmm.Frame, n uint64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	p.MarkInaccessible(base, n)
	return nil
}

// mapLineFrames is how many frame states one dump line shows.
const mapLineFrames = 64

// renderMap draws every frame the pool's map covers: '.' free, 'H' head of
// a run, '=' used. Lines start with the first frame number they show.
func renderMap(p *framepool.Pool) string {
	first := p.Base()
	if p.SelfHosted() {
		first = p.MapFrame()
	}
	end := p.Base().Add(p.Len())

	var b strings.Builder
	for f := first; f < end; f++ {
		if uint64(f-first)%mapLineFrames == 0 {
			if f != first {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%8d ", uint64(f))
		}
		s, _ := p.State(f)
		switch s {
		case framepool.Free:
			b.WriteByte('.')
		case framepool.HeadOfSequence:
			b.WriteByte('H')
		case framepool.Used:
			b.WriteByte('=')
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

func printResult(res result) {
	switch res.Op {
	case "pool":
		printInfo("pool %s: usable from %d\n", res.Pool, *res.Frame)
	case "get":
		if *res.Frame == uint64(pmm.NoFrame) {
			printInfo("get %s -> none\n", res.Pool)
		} else {
			printInfo("get %s -> %d\n", res.Pool, *res.Frame)
		}
	case "mark":
		printInfo("mark %s %d\n", res.Pool, *res.Frame)
	case "release":
		if res.Error != "" {
			printInfo("release %d -> %s\n", *res.Frame, res.Error)
		} else {
			printInfo("release %d -> ok\n", *res.Frame)
		}
	case "dump":
		printInfo("%s\n", res.Map)
		for _, r := range res.Runs {
			printVerbose("  run %d +%d\n", uint64(r.Head), r.Len)
		}
	case "stats":
		st := res.Stats
		printInfo("stats %s: base=%d %s", res.Pool, uint64(st.Base),
			counts.Sprintf("frames=%d free=%d allocated=%d runs=%d largest_free_run=%d\n",
				st.Frames, st.Free, st.Allocated, st.Runs, st.LargestFreeRun))
	case "verify":
		for _, c := range res.Pools {
			printInfo("verify %s: %s\n", c.Name, c.Status)
		}
	}
}
