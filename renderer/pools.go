package renderer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seaward/cgt"
)

// PoolMarkdown renders one holding pool with its full mutation history.
func PoolMarkdown(p *cgt.Pool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Pool %s\n\n", p.Asset)
	if p.IsEmpty() {
		fmt.Fprint(&b, "The pool is empty.\n\n")
	} else {
		fmt.Fprintf(&b, "Holding %s for a cost of %s (average %s).\n\n",
			p.Quantity(), p.Cost(), p.AverageCost().Round())
	}

	history := p.History()
	if len(history) == 0 {
		return b.String()
	}
	fmt.Fprintln(&b, "| Date | Reason | ΔQuantity | ΔCost | Quantity | Cost |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|")
	for _, ch := range history {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			ch.Date, ch.Reason, ch.QuantityDelta, ch.CostDelta.SignedString(), ch.Quantity, ch.Cost)
	}
	fmt.Fprintln(&b)

	return b.String()
}

// PoolsMarkdown renders every pool of a calculation result, empty ones last.
func PoolsMarkdown(res *cgt.Result) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Holding Pools\n\n")

	assets := make([]string, 0, len(res.Pools))
	for asset := range res.Pools {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool {
		pi, pj := res.Pools[assets[i]], res.Pools[assets[j]]
		if pi.IsEmpty() != pj.IsEmpty() {
			return !pi.IsEmpty()
		}
		return assets[i] < assets[j]
	})

	for _, asset := range assets {
		b.WriteString(PoolMarkdown(res.Pools[asset]))
	}
	if len(assets) == 0 {
		fmt.Fprint(&b, "No holdings.\n")
	}
	return b.String()
}
