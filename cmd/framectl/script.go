package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// step is one parsed script line.
type step struct {
	Line int
	Op   string
	Args []string
}

// arity lists the accepted argument counts per operation.
var arity = map[string][2]int{
	"pool":    {3, 4}, // pool <name> <base> <count> [meta]
	"get":     {2, 2}, // get <name> <n>
	"mark":    {3, 3}, // mark <name> <base> <count>
	"release": {1, 1}, // release <frame>
	"dump":    {1, 1}, // dump <name>
	"stats":   {1, 1}, // stats <name>
	"verify":  {0, 0},
}

// parseScript reads one command per line. Blank lines and text after '#'
// are ignored.
func parseScript(r io.Reader) ([]step, error) {
	var steps []step
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		op := strings.ToLower(fields[0])
		bounds, ok := arity[op]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown command %q", line, fields[0])
		}
		args := fields[1:]
		if len(args) < bounds[0] || len(args) > bounds[1] {
			return nil, fmt.Errorf("line %d: %s takes %s argument(s), got %d",
				line, op, arityString(bounds), len(args))
		}
		steps = append(steps, step{Line: line, Op: op, Args: args})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

func arityString(b [2]int) string {
	if b[0] == b[1] {
		return strconv.Itoa(b[0])
	}
	return fmt.Sprintf("%d-%d", b[0], b[1])
}

// parseNum accepts decimal, 0x hex, 0o octal and 0b binary numbers.
func parseNum(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}
