package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"

	"v.io/x/lib/cmdline"
)

// newCmdRandBed implements the "random-BED fixture generator" spec.md
// §2 names as out-of-scope external glue, supplied here for generating
// test inputs against pack/query without a real annotation track on
// hand.
func newCmdRandBed() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "randbed",
		Short: "Generate a random BED file for packing/query fixtures",
	}
	nFlag := cmd.Flags.Int("n", 1000, "Number of records to generate.")
	seqsFlag := cmd.Flags.Int("sequences", 4, "Number of distinct sequence names (chr1..chrN).")
	maxLenFlag := cmd.Flags.Int("max-len", 10000, "Maximum interval length.")
	maxCoordFlag := cmd.Flags.Uint("max-coord", 1<<24, "Maximum coordinate value.")
	seedFlag := cmd.Flags.Int64("seed", 1, "Random seed, for reproducible fixtures.")
	sortedFlag := cmd.Flags.Bool("sorted", false, "Emit records in ascending start order within each sequence.")
	outFlag := cmd.Flags.String("o", "", "Output path. Defaults to stdout.")
	cmd.Runner = runnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			fmt.Fprintf(os.Stderr, "randbed takes no positional arguments, got %v\n", argv)
			os.Exit(2)
		}
		out := os.Stdout
		if *outFlag != "" {
			f, err := os.Create(*outFlag)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			defer f.Close()
			out = f
		}
		generateRandBED(out, randBedOpts{
			n:         *nFlag,
			sequences: *seqsFlag,
			maxLen:    *maxLenFlag,
			maxCoord:  uint32(*maxCoordFlag),
			seed:      *seedFlag,
			sorted:    *sortedFlag,
		})
		return nil
	})
	return cmd
}

type randBedOpts struct {
	n, sequences, maxLen int
	maxCoord             uint32
	seed                 int64
	sorted               bool
}

func generateRandBED(w io.Writer, o randBedOpts) {
	rng := rand.New(rand.NewSource(o.seed))
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	if o.sequences < 1 {
		o.sequences = 1
	}
	perSeq := make([][]uint32, o.sequences)
	names := make([]string, o.sequences)
	for i := range names {
		names[i] = fmt.Sprintf("chr%d", i+1)
	}
	for i := 0; i < o.n; i++ {
		seq := rng.Intn(o.sequences)
		start := rng.Uint32() % o.maxCoord
		length := uint32(rng.Intn(o.maxLen) + 1)
		end := start + length
		if end > o.maxCoord {
			end = o.maxCoord
		}
		if end <= start {
			end = start + 1
		}
		perSeq[seq] = append(perSeq[seq], start, end)
	}

	for si, name := range names {
		coords := perSeq[si]
		if o.sorted {
			sortPairsByStart(coords)
		}
		for i := 0; i+1 < len(coords); i += 2 {
			fmt.Fprintf(bw, "%s\t%d\t%d\tfeature%d\n", name, coords[i], coords[i+1], i/2)
		}
	}
}

// sortPairsByStart insertion-sorts the (start,end) pairs packed in
// coords by start; n is small enough per sequence in fixture generation
// that O(n^2) insertion sort is simpler than re-slicing into structs for
// sort.Slice.
func sortPairsByStart(coords []uint32) {
	for i := 2; i+1 < len(coords); i += 2 {
		for j := i; j > 0 && coords[j] < coords[j-2]; j -= 2 {
			coords[j], coords[j-2] = coords[j-2], coords[j]
			coords[j+1], coords[j-1] = coords[j-1], coords[j+1]
		}
	}
}
