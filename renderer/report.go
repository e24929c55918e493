package renderer

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/seaward/cgt"
)

// ReportMarkdown renders one tax year's figures as a markdown document:
// disposal by disposal with its identified matches, then the year's totals.
func ReportMarkdown(rep *cgt.TaxYearReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Capital Gains Report %s\n\n", rep.Year)
	fmt.Fprintf(&b, "Tax year from %s to %s\n\n", rep.Year.Start(), rep.Year.End())

	fmt.Fprint(&b, "## Disposals\n\n")
	if len(rep.Disposals) == 0 {
		fmt.Fprint(&b, "No disposals in this tax year.\n\n")
	}
	for _, c := range rep.Disposals {
		fmt.Fprintf(&b, "### %s %s %s on %s\n\n", strings.ToUpper(string(c.Side)), c.Quantity, c.Asset, c.Date)

		fmt.Fprintln(&b, "| Rule | Quantity | Cost | Proceeds | Gain | Taxable |")
		fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|:---|")
		for _, m := range c.Matches {
			if m.DisposalID != c.ID {
				continue
			}
			taxable := "yes"
			if !m.IsTaxable() {
				taxable = "no"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				m.Type, m.Quantity, m.Cost.SignedString(), m.Proceeds.SignedString(), m.Gain().SignedString(), taxable)
		}
		fmt.Fprintf(&b, "| **Total** | | | | **%s** | |\n\n", c.Gain().SignedString())

		if c.Option != nil && !c.Option.PremiumRolled.IsZero() {
			fmt.Fprintf(&b, "Premium of %s rolled into the underlying trade.\n\n", c.Option.PremiumRolled)
		}
		if c.Action != nil && c.Action.Note != "" {
			fmt.Fprintf(&b, "%s\n\n", c.Action.Note)
		}
	}

	fmt.Fprint(&b, "## Totals\n\n")
	fmt.Fprintln(&b, "| | |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Disposals | %d |\n", len(rep.Disposals))
	fmt.Fprintf(&b, "| Proceeds | %s |\n", rep.Proceeds.SignedString())
	fmt.Fprintf(&b, "| Allowable costs | %s |\n", rep.AllowableCosts.SignedString())
	fmt.Fprintf(&b, "| Gains | %s |\n", rep.Gains.SignedString())
	fmt.Fprintf(&b, "| Losses | %s |\n", rep.Losses.SignedString())
	fmt.Fprintf(&b, "| **Net gain** | **%s** |\n", rep.NetGain.SignedString())
	if !rep.NonTaxableGain.IsZero() {
		fmt.Fprintf(&b, "| Non-taxable gain | %s |\n", rep.NonTaxableGain.SignedString())
	}
	fmt.Fprintln(&b)

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Dividend Income\n\n")
		fmt.Fprintln(w, "| | |")
		fmt.Fprintln(w, "|:---|---:|")
		fmt.Fprintf(w, "| Dividends | %s |\n", rep.DividendIncome.SignedString())
		fmt.Fprintf(w, "| Tax withheld | %s |\n", rep.WithheldTax.SignedString())
		fmt.Fprintln(w)
		return !rep.DividendIncome.IsZero() || !rep.WithheldTax.IsZero()
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Repayment Claims\n\n")
		fmt.Fprintln(w, "| Against Year | Amount |")
		fmt.Fprintln(w, "|:---|---:|")
		for _, r := range rep.Repayments {
			fmt.Fprintf(w, "| %s | %s |\n", r.Year, r.Amount.SignedString())
		}
		fmt.Fprintln(w)
		return len(rep.Repayments) > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Unmatched Disposals\n\n")
		fmt.Fprintln(w, "| Asset | Date | Open Quantity |")
		fmt.Fprintln(w, "|:---|:---|---:|")
		for _, c := range rep.Unmatched {
			fmt.Fprintf(w, "| %s | %s | %s |\n", c.Asset, c.Date, c.Unmatched())
		}
		fmt.Fprintln(w)
		return len(rep.Unmatched) > 0
	})

	fmt.Fprint(&b, "## Pools at Year End\n\n")
	if len(rep.EndOfYearPools) == 0 {
		fmt.Fprint(&b, "No open pools at year end.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| Asset | Quantity | Cost | Average |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	assets := make([]string, 0, len(rep.EndOfYearPools))
	for asset := range rep.EndOfYearPools {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	for _, asset := range assets {
		snap := rep.EndOfYearPools[asset]
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			asset, snap.Quantity, snap.Cost, snap.Cost.Div(snap.Quantity).Round())
	}

	return b.String()
}
