package renderer

import (
	"fmt"
	"strings"

	"github.com/seaward/cgt"
)

// LedgerMarkdown renders the ledger's events as a chronological table.
func LedgerMarkdown(l *cgt.Ledger) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Ledger\n\n")
	fmt.Fprintln(&b, "| Date | Event | Asset | Detail |")
	fmt.Fprintln(&b, "|:---|:---|:---|:---|")
	for _, evt := range l.Events() {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", evt.When(), evt.What(), evt.Asset(), eventDetail(evt))
	}
	return b.String()
}

func eventDetail(evt cgt.TaxEvent) string {
	switch e := evt.(type) {
	case cgt.Trade:
		d := fmt.Sprintf("%s %s for %s", e.Side, e.Quantity, e.Gross.Base)
		if e.Status != cgt.StatusOpen {
			d += fmt.Sprintf(" (%s)", e.Status)
		}
		return d
	case cgt.CorporateAction:
		return string(e.Kind)
	case cgt.Dividend:
		return fmt.Sprintf("%s (withheld %s)", e.Value.Base, e.Withheld.Base)
	case cgt.CashSettlement:
		return fmt.Sprintf("settled at %s", e.Value.Base)
	case cgt.Declare:
		return fmt.Sprintf("currency %s", e.Currency)
	}
	return ""
}
