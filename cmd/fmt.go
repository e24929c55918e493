package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/seaward/cgt"
)

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the ledger file into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `cgt fmt

  Validates and formats the ledger file. This command reads all events,
  validates them, sorts them by date, and writes them back in a
  canonical JSONL form. Duplicate trades are reported on stderr but
  kept in the file.
`
}

func (*fmtCmd) SetFlags(_ *flag.FlagSet) {}

func (p *fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	for _, d := range ledger.Duplicates() {
		fmt.Fprintf(os.Stderr, "Warning: duplicate trade %s %s on %s\n", d.Side, d.Security, d.Date)
	}

	out, err := os.Create(*ledgerFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not write ledger file %q: %v\n", *ledgerFile, err)
		return subcommands.ExitFailure
	}
	defer out.Close()

	if err := cgt.EncodeLedger(out, ledger); err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(os.Stderr, "Formatted %d events into %s\n", ledger.Len(), *ledgerFile)
	return subcommands.ExitSuccess
}
