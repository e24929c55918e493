package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/seaward/cgt"
	"github.com/seaward/cgt/renderer"
)

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	year string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "capital gains report for one tax year" }
func (*reportCmd) Usage() string {
	return `cgt report [-year <tax year>]

  Computes the capital gains figures for one UK tax year: each disposal
  with the rule that identified it, the year's totals, repayment claims
  and the pools left open at year end.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.year, "year", "", "Tax year to report, by its starting calendar year (e.g. 2024). Defaults to the current tax year.")
}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	year := cgt.TaxYearOf(cgt.Today())
	if c.year != "" {
		var err error
		year, err = cgt.ParseTaxYear(c.year)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing tax year: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	res, err := Calculate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing gains: %v\n", err)
		return subcommands.ExitFailure
	}

	if dups := res.Duplicates; len(dups) > 0 {
		for _, d := range dups {
			fmt.Fprintf(os.Stderr, "Warning: duplicate trade %s %s on %s\n", d.Side, d.Security, d.Date)
		}
	}

	printMarkdown(renderer.ReportMarkdown(res.Report(year)))
	return subcommands.ExitSuccess
}
