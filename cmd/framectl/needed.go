package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/framekit/pmm"
	"github.com/joshuapare/framekit/pmm/framepool"
)

func init() {
	rootCmd.AddCommand(newNeededCmd())
}

func newNeededCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "needed <frames>",
		Short: "Show how many frames a pool's state map needs",
		Long: `The needed command prints how many whole frames the packed state map of
a pool over the given number of frames occupies. Reserve that many frames
before creating a pool with an external map.

Example:
  framectl needed 100
  framectl needed 1048576 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNeeded(args)
		},
	}
}

// counts formats human-readable output with digit grouping.
var counts = message.NewPrinter(language.English)

type neededResult struct {
	Frames     uint64 `json:"frames"`
	MapBytes   uint64 `json:"map_bytes"`
	InfoFrames uint64 `json:"info_frames"`
}

func runNeeded(args []string) error {
	n, err := strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		return fmt.Errorf("invalid frame count %q: %w", args[0], err)
	}

	k := framepool.NeededInfoFrames(n)
	res := neededResult{
		Frames:     n,
		MapBytes:   framepool.MapBytes(n),
		InfoFrames: k,
	}
	if jsonOut {
		return printJSON(res)
	}
	printInfo("%s", counts.Sprintf("%d frames need %d map bytes in %d frame(s) of %d bytes\n",
		res.Frames, res.MapBytes, res.InfoFrames, pmm.FrameSize))
	return nil
}
