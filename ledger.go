package cgt

import (
	"fmt"
	"sort"
)

// Ledger holds the full stream of tax events for one taxpayer, together with
// declared instrument metadata. Events are immutable once appended; every
// derived figure is recomputed from scratch by a Session.
type Ledger struct {
	events      []TaxEvent
	instruments map[string]Declare
}

// NewLedger creates a new empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{instruments: make(map[string]Declare)}
}

// Append validates and adds events to the ledger, stamping each with its
// input order. The stamp is the tiebreak for same-day events, so append
// order is part of the ledger's meaning.
func (l *Ledger) Append(events ...TaxEvent) error {
	for _, ev := range events {
		if err := ev.Validate(l); err != nil {
			return err
		}
		if s, ok := ev.(seqStamper); ok {
			ev = s.withSeq(len(l.events))
		}
		if d, ok := ev.(Declare); ok {
			if l.instruments == nil {
				l.instruments = make(map[string]Declare)
			}
			l.instruments[d.Security] = d
		}
		l.events = append(l.events, ev)
	}
	return nil
}

// Events returns the ledger's events in stable chronological order:
// by date first, then by input order. The returned slice is shared;
// callers must not modify it.
func (l *Ledger) Events() []TaxEvent {
	l.stableSort()
	return l.events
}

// Len returns the number of events in the ledger.
func (l *Ledger) Len() int { return len(l.events) }

// Instrument returns the declared metadata for an asset, if any.
func (l *Ledger) Instrument(asset string) (Declare, bool) {
	d, ok := l.instruments[asset]
	return d, ok
}

// Assets returns the sorted list of asset identifiers traded in the ledger.
func (l *Ledger) Assets() []string {
	seen := make(map[string]bool)
	for _, ev := range l.events {
		if ev.What() == EvtTrade || ev.What() == EvtAction {
			seen[ev.Asset()] = true
		}
	}
	assets := make([]string, 0, len(seen))
	for a := range seen {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	return assets
}

// CurrencyOf returns the trading currency declared for an asset,
// defaulting to the base currency.
func (l *Ledger) CurrencyOf(asset string) string {
	if d, ok := l.instruments[asset]; ok && d.Currency != "" {
		return d.Currency
	}
	return BaseCurrency
}

// UKTaxableSitus reports whether the asset's disposals stay within the
// UK tax net during non-resident periods.
func (l *Ledger) UKTaxableSitus(asset string) bool {
	d, ok := l.instruments[asset]
	return ok && d.UKTaxableSitus
}

// Duplicates returns the trades whose identity appears more than once in the
// ledger. Identity is computed from the fields as supplied, before any
// cash-settlement reconciliation, so reported duplicates always correspond
// to the input records.
func (l *Ledger) Duplicates() []Trade {
	seen := make(map[string]int)
	var dups []Trade
	for _, ev := range l.events {
		t, ok := ev.(Trade)
		if !ok {
			continue
		}
		seen[t.Identity()]++
		if seen[t.Identity()] == 2 {
			dups = append(dups, t)
		}
	}
	return dups
}

// stableSort sorts events chronologically, preserving input order within a
// day. It is idempotent, so repeated Session runs see the same order.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.events, func(i, j int) bool {
		a, b := l.events[i], l.events[j]
		if !a.When().Equal(b.When()) {
			return a.When().Before(b.When())
		}
		return a.Seq() < b.Seq()
	})
}

// EventsOn returns the events dated on the given day, in input order.
func (l *Ledger) EventsOn(day Date) []TaxEvent {
	var out []TaxEvent
	for _, ev := range l.Events() {
		if ev.When().Equal(day) {
			out = append(out, ev)
		}
	}
	return out
}

// String implements the Stringer interface, summarizing the ledger.
func (l *Ledger) String() string {
	return fmt.Sprintf("ledger: %d events, %d assets", len(l.events), len(l.Assets()))
}
