// Command earlyboot simulates the bring-up phase of a kernel on the host. It maps a region of memory,
// hands it to the bootstrap allocator, copies every input word into byte allocations, records each
// word in a bring-up symbol table, reserves page blocks, and reports the state of the region.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vkngwrapper/earlyboot/early"
	"github.com/vkngwrapper/earlyboot/memutils"
)

type config struct {
	regionSize   int
	pageSize     uint
	pages        int
	pageAlign    uint
	reservePages bool
	debug        bool
	verbose      bool
	color        bool
	ttyPath      string
	useTTY       bool
}

func (c config) validate() error {
	err := memutils.CheckPow2(c.pageSize, "page-size")
	if err != nil {
		return err
	}

	return memutils.CheckPow2(c.pageAlign, "page-align")
}

func newRootCmd() *cobra.Command {
	var cfg config

	cmd := &cobra.Command{
		Use:   "earlyboot [words...]",
		Short: "Simulate kernel bring-up on a bootstrap memory region",
		Long: `earlyboot maps a region of host memory and serves early allocations from it
the way a kernel does before its permanent allocators are online. Words are read
from the arguments, or from stdin when there are none; each one is copied into a
byte allocation and recorded in a symbol table. Page blocks are reserved after the
byte allocations are released, and a JSON report of the region is printed.

Example:
  earlyboot --region 65536 --pages 4 alpha beta alpha
  cat words.txt | earlyboot --reserve-pages --debug -v`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cfg.validate()
			if err != nil {
				return err
			}

			var input io.Reader = cmd.InOrStdin()
			if len(args) > 0 {
				input = strings.NewReader(strings.Join(args, " "))
			}

			return run(cfg, input, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.regionSize, "region", 1<<20, "size in bytes of the bootstrap region")
	flags.UintVar(&cfg.pageSize, "page-size", uint(early.DefaultPageSize), "page size in bytes, a power of two")
	flags.IntVar(&cfg.pages, "pages", 4, "number of page blocks to reserve after the byte allocations")
	flags.UintVar(&cfg.pageAlign, "page-align", uint(early.DefaultPageSize), "alignment of each page block, a power of two")
	flags.BoolVar(&cfg.reservePages, "reserve-pages", false, "reserve numPages*pageSize for each page block instead of aligning the region end")
	flags.BoolVar(&cfg.debug, "debug", false, "check alignment preconditions and region invariants")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "log every allocation to stderr")
	flags.BoolVar(&cfg.color, "color", false, "color console output")
	flags.BoolVar(&cfg.useTTY, "tty", false, "write the report to a terminal instead of stdout")
	flags.StringVar(&cfg.ttyPath, "tty-path", "", "terminal device to use with --tty, the controlling terminal by default")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
