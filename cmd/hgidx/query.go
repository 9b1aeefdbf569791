package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"v.io/x/lib/cmdline"

	"github.com/biostore/hgidx"
)

type region struct {
	seq        string
	start, end uint32
}

func newCmdQuery() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "query",
		Short:    "Query overlapping records from an hgidx store, printed as BED",
		ArgsName: "[SEQ:START-END]",
	}
	inFlag := cmd.Flags.String("i", "", "Input store directory (required).")
	regionsFlag := cmd.Flags.String("regions", "", "File of SEQ:START-END regions, one per line, instead of a positional argument.")
	orderedFlag := cmd.Flags.Bool("ordered", false, "Sort each region's results by start position before printing.")
	cmd.Runner = runnerFunc(func(env *cmdline.Env, argv []string) error {
		if *inFlag == "" {
			fmt.Fprintln(os.Stderr, "query: -i IN.hgidx is required")
			os.Exit(2)
		}
		var regions []region
		switch {
		case *regionsFlag != "" && len(argv) == 0:
			rs, err := readRegionsFile(*regionsFlag)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitCodeFor(err))
			}
			regions = rs
		case *regionsFlag == "" && len(argv) == 1:
			r, err := parseRegion(argv[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			regions = []region{r}
		default:
			fmt.Fprintln(os.Stderr, "query: give exactly one of --regions FILE or a SEQ:START-END argument")
			os.Exit(2)
		}

		if err := runQuery(os.Stdout, *inFlag, regions, *orderedFlag); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitCodeFor(err))
		}
		return nil
	})
	return cmd
}

func runQuery(w io.Writer, storeDir string, regions []region, ordered bool) error {
	r, err := hgidx.Open(storeDir, hgidx.RawCodec{})
	if err != nil {
		return err
	}
	defer r.Close()

	bw := bufio.NewWriter(w)
	for _, reg := range regions {
		hits, err := r.Query(reg.seq, reg.start, reg.end, hgidx.QueryOptions{Ordered: ordered})
		if err != nil {
			return err
		}
		for _, h := range hits {
			line, _ := h.Payload.([]byte)
			if _, err := bw.Write(line); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func parseRegion(s string) (region, error) {
	colon := strings.LastIndex(s, ":")
	if colon < 0 {
		return region{}, &parseError{fmt.Errorf("bad region %q: want SEQ:START-END", s)}
	}
	seq, rng := s[:colon], s[colon+1:]
	dash := strings.Index(rng, "-")
	if dash < 0 {
		return region{}, &parseError{fmt.Errorf("bad region %q: want SEQ:START-END", s)}
	}
	start, err := strconv.ParseUint(rng[:dash], 10, 32)
	if err != nil {
		return region{}, &parseError{fmt.Errorf("bad region %q: %v", s, err)}
	}
	end, err := strconv.ParseUint(rng[dash+1:], 10, 32)
	if err != nil {
		return region{}, &parseError{fmt.Errorf("bad region %q: %v", s, err)}
	}
	return region{seq: seq, start: uint32(start), end: uint32(end)}, nil
}

func readRegionsFile(path string) ([]region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var regions []region
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r, err := parseRegion(line)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return regions, nil
}
