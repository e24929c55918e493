package cgt

import (
	"fmt"
)

// reconcile applies cash-settlement corrections to the event stream and
// returns the corrected copy. Ledger events are never mutated: every
// patched trade is a fresh value, so a session can be re-run and the
// original records re-exported byte for byte.
//
// A CashSettlement names a cash-settled contract and the amount the broker
// actually paid out. The nominal gross on the contract's terminating trade
// is replaced with that amount.
func reconcile(events []TaxEvent) ([]TaxEvent, error) {
	out := make([]TaxEvent, len(events))
	copy(out, events)

	for _, ev := range events {
		cs, ok := ev.(CashSettlement)
		if !ok {
			continue
		}
		idx := -1
		for i, cand := range out {
			t, ok := cand.(Trade)
			if !ok || t.Security != cs.Security || t.Status != StatusCashSettled {
				continue
			}
			if t.Date.After(cs.Date) {
				continue
			}
			// Keep the latest terminating trade not after the settlement.
			if idx < 0 || out[idx].When().Before(t.Date) {
				idx = i
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: cash settlement for %q on %s has no cash-settled trade to correct",
				ErrInvalidOperation, cs.Security, cs.Date)
		}
		t := out[idx].(Trade)
		t.Gross = cs.Value
		out[idx] = t
	}
	return out, nil
}
