package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/seaward/cgt/renderer"
)

// poolsCmd holds the flags for the 'pools' subcommand.
type poolsCmd struct {
	asset string
}

func (*poolsCmd) Name() string     { return "pools" }
func (*poolsCmd) Synopsis() string { return "holding pools and their history" }
func (*poolsCmd) Usage() string {
	return `cgt pools [-asset <asset>]

  Shows the holding pool of each asset with every change that
  built it, or a single asset's pool with -asset.
`
}

func (c *poolsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asset, "asset", "", "Only show this asset's pool.")
}

func (c *poolsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, err := Calculate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing gains: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.asset != "" {
		p := res.Pool(c.asset)
		if p == nil {
			fmt.Fprintf(os.Stderr, "No pool for asset %q\n", c.asset)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.PoolMarkdown(p))
		return subcommands.ExitSuccess
	}

	printMarkdown(renderer.PoolsMarkdown(res))
	return subcommands.ExitSuccess
}
