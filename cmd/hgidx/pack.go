package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"v.io/x/lib/cmdline"

	"github.com/biostore/hgidx"
)

func newCmdPack() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "pack",
		Short:    "Pack a BED/TSV interval track into an hgidx store",
		ArgsName: "input.bed",
	}
	outFlag := cmd.Flags.String("o", "", "Output store directory. Defaults to input path + \".hgidx\".")
	schemaFlag := cmd.Flags.String("schema", "ucsc", "Bin geometry: \"ucsc\", \"dense\", or \"custom:b,s,L\".")
	forceFlag := cmd.Flags.Bool("force", false, "Overwrite an existing output directory.")
	cmd.Runner = runnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			fmt.Fprintf(os.Stderr, "pack takes exactly one input.bed argument, got %v\n", argv)
			os.Exit(2)
		}
		geom, err := parseSchema(*schemaFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		out := *outFlag
		if out == "" {
			out = argv[0] + ".hgidx"
		}
		if !*forceFlag {
			if _, statErr := os.Stat(out); statErr == nil {
				fmt.Fprintf(os.Stderr, "output %s already exists; use --force to overwrite\n", out)
				os.Exit(1)
			}
		}
		if err := runPack(argv[0], out, geom); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitCodeFor(err))
		}
		return nil
	})
	return cmd
}

// exitCodeFor implements spec.md §6's "pack ... exit 0 on success; 1 on
// I/O; 2 on parse" contract.
func exitCodeFor(err error) int {
	if isParseError(err) {
		return 2
	}
	return 1
}

type parseError struct{ error }

func isParseError(err error) bool {
	_, ok := err.(*parseError)
	return ok
}

func parseSchema(s string) (hgidx.BinGeometry, error) {
	switch {
	case s == "ucsc" || s == "":
		return hgidx.GeometryUCSC, nil
	case s == "dense":
		return hgidx.GeometryDense, nil
	case strings.HasPrefix(s, "custom:"):
		parts := strings.Split(strings.TrimPrefix(s, "custom:"), ",")
		if len(parts) != 3 {
			return hgidx.BinGeometry{}, &parseError{fmt.Errorf("--schema custom: want b,s,L, got %q", s)}
		}
		var nums [3]uint64
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return hgidx.BinGeometry{}, &parseError{fmt.Errorf("--schema custom: %v", err)}
			}
			nums[i] = n
		}
		return hgidx.NewCustomGeometry(uint8(nums[0]), uint8(nums[1]), uint8(nums[2])), nil
	default:
		return hgidx.BinGeometry{}, &parseError{fmt.Errorf("unknown --schema %q: want ucsc, dense, or custom:b,s,L", s)}
	}
}

// runPack streams BED lines from inputPath into a new store at outDir.
// A BED line is "chrom\tstart\tend[\t...rest]"; the whole line
// (including chrom/start/end) is kept verbatim as the record payload so
// query can reprint it unchanged (spec.md §6, RawCodec).
func runPack(inputPath, outDir string, geom hgidx.BinGeometry) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := hgidx.Create(outDir, hgidx.BuildOptions{Geometry: geom, Codec: hgidx.RawCodec{}})
	if err != nil {
		return err
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}
		chrom, start, end, err := parseBEDLine(line)
		if err != nil {
			return &parseError{fmt.Errorf("%s:%d: %v", inputPath, lineNo, err)}
		}
		b.AddRecord(chrom, start, end, []byte(line))
		if berr := b.Err(); berr != nil {
			if errors.Is(berr, hgidx.ErrInvalidInterval) {
				return &parseError{fmt.Errorf("%s:%d: %v", inputPath, lineNo, berr)}
			}
			return berr
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return b.Finalize()
}

func parseBEDLine(line string) (chrom string, start, end uint32, err error) {
	fields := strings.SplitN(line, "\t", 4)
	if len(fields) < 3 {
		return "", 0, 0, fmt.Errorf("want at least 3 tab-separated fields, got %d", len(fields))
	}
	s, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return "", 0, 0, fmt.Errorf("bad start %q: %v", fields[1], err)
	}
	e, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return "", 0, 0, fmt.Errorf("bad end %q: %v", fields[2], err)
	}
	return fields[0], uint32(s), uint32(e), nil
}
