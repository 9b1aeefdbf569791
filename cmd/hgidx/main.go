// Command hgidx packs BED/TSV interval tracks into an hgidx store and
// queries them back out. It is the thin external collaborator spec.md
// §2 and §6 describe: all binning and query logic lives in the hgidx
// package; this tree only parses flags, scans input lines, and formats
// results as BED.
package main

import (
	"log"

	"v.io/x/lib/cmdline"
)

// runnerFunc adapts a plain function to cmdline.Runner, the same role
// github.com/grailbio/base/cmdutil.RunnerFunc plays elsewhere; reimplemented
// locally since that package is not part of this module's dependency set.
type runnerFunc func(env *cmdline.Env, args []string) error

func (f runnerFunc) Run(env *cmdline.Env, args []string) error { return f(env, args) }

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(&cmdline.Command{
		Name:  "hgidx",
		Short: "Pack and query a hierarchical-binning genomic interval store",
		Children: []*cmdline.Command{
			newCmdPack(),
			newCmdQuery(),
			newCmdRandBed(),
		},
	})
}
