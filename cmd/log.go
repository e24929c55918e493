package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/seaward/cgt/renderer"
)

type logCmd struct{}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "list the ledger's events in chronological order" }
func (*logCmd) Usage() string {
	return `cgt log

  Lists every event of the ledger, sorted by date.
`
}

func (*logCmd) SetFlags(_ *flag.FlagSet) {}

func (c *logCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.LedgerMarkdown(ledger))
	return subcommands.ExitSuccess
}
