package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/seaward/cgt"
)

// fxCmd holds the flags for the 'fx' subcommand.
type fxCmd struct {
	currency string
	month    string
}

func (*fxCmd) Name() string     { return "fx" }
func (*fxCmd) Synopsis() string { return "HMRC monthly exchange rate for a currency" }
func (*fxCmd) Usage() string {
	return `cgt fx -currency <code> [-month <YYYY-MM>]

  Looks up HMRC's published monthly exchange rate, the rate accepted
  for converting foreign amounts to sterling on a tax return.
`
}

func (c *fxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "ISO currency code to look up (e.g. USD)")
	f.StringVar(&c.month, "month", "", "Month of the rate as YYYY-MM. Defaults to the current month.")
}

func (c *fxCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.currency == "" {
		fmt.Fprintln(os.Stderr, "the -currency flag is required")
		return subcommands.ExitUsageError
	}

	year, month := cgt.Today().Year(), cgt.Today().Month()
	if c.month != "" {
		t, err := time.Parse("2006-01", c.month)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing month: %v\n", err)
			return subcommands.ExitUsageError
		}
		year, month = t.Year(), t.Month()
	}

	rate, err := cgt.HMRCMonthlyRate(c.currency, year, month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching rate: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("HMRC rate for %s in %d-%02d: %v per £1\n", c.currency, year, int(month), rate)
	return subcommands.ExitSuccess
}
