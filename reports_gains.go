package cgt

import (
	"sort"
)

// Result is the outcome of one calculation pass: every calculation lot with
// its match history, the final Section 104 pools, and the raw material for
// per-year reporting.
type Result struct {
	Calculations []*Calculation
	Pools        map[string]*Pool
	Dividends    []Dividend
	// Duplicates are input trades whose identity appears more than once,
	// surfaced for review rather than silently processed twice.
	Duplicates []Trade

	ledger *Ledger
}

func newResult(ledger *Ledger, h *holdings) *Result {
	calcs := make([]*Calculation, len(h.calcs))
	copy(calcs, h.calcs)
	sort.SliceStable(calcs, func(i, j int) bool {
		if !calcs[i].Date.Equal(calcs[j].Date) {
			return calcs[i].Date.Before(calcs[j].Date)
		}
		return calcs[i].ID < calcs[j].ID
	})
	return &Result{
		Calculations: calcs,
		Pools:        h.pools,
		Dividends:    h.dividends,
		Duplicates:   ledger.Duplicates(),
		ledger:       ledger,
	}
}

// Years returns the tax years touched by any calculation or dividend,
// ascending.
func (r *Result) Years() []TaxYear {
	seen := make(map[TaxYear]bool)
	for _, c := range r.Calculations {
		seen[c.TaxYear()] = true
	}
	for _, d := range r.Dividends {
		seen[TaxYearOf(d.Date)] = true
	}
	years := make([]TaxYear, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Slice(years, func(i, j int) bool { return years[i] < years[j] })
	return years
}

// Pool returns the final Section 104 pool for the asset, or nil.
func (r *Result) Pool(asset string) *Pool { return r.Pools[asset] }

// Unmatched returns the calculations left with an open remainder: disposals
// that went short and were never covered, surfaced as data, never hidden.
func (r *Result) Unmatched() []*Calculation {
	var out []*Calculation
	for _, c := range r.Calculations {
		if !c.Completed() {
			out = append(out, c)
		}
	}
	return out
}

// TaxYearReport aggregates one UK tax year, 6 April to 5 April.
type TaxYearReport struct {
	Year      TaxYear
	Disposals []*Calculation

	// Totals over taxable matches only.
	Proceeds       Money
	AllowableCosts Money
	Gains          Money // sum of positive taxable gains
	Losses         Money // sum of negative taxable gains, as a positive figure
	NetGain        Money

	// NonTaxableGain is the raw gain excluded by the residency overlay.
	NonTaxableGain Money

	// DividendIncome excludes returns of capital, which are pool
	// adjustments rather than income.
	DividendIncome Money
	WithheldTax    Money

	// Repayments are claims against earlier years from cross-year short
	// option closures.
	Repayments []TaxRepayment

	// Unmatched disposals of the year, shown rather than errored.
	Unmatched []*Calculation

	// EndOfYearPools is each asset's pool state at the year end.
	EndOfYearPools map[string]*PoolSnapshot
}

// Report aggregates the result into one tax year's figures.
func (r *Result) Report(year TaxYear) *TaxYearReport {
	rep := &TaxYearReport{Year: year, EndOfYearPools: make(map[string]*PoolSnapshot)}

	for _, c := range r.Calculations {
		if c.Option != nil && c.Option.TaxRepayment != nil && c.Option.TaxRepayment.Year == year {
			// The claim surfaces in the year it is owed against.
			rep.Repayments = append(rep.Repayments, *c.Option.TaxRepayment)
		}
		if !c.IsDisposal() || c.TaxYear() != year {
			continue
		}
		rep.Disposals = append(rep.Disposals, c)
		if !c.Completed() {
			rep.Unmatched = append(rep.Unmatched, c)
		}
		for _, m := range c.Matches {
			if m.DisposalID != c.ID {
				continue
			}
			gain := m.Gain()
			if !m.IsTaxable() {
				rep.NonTaxableGain = rep.NonTaxableGain.Add(gain)
				continue
			}
			rep.Proceeds = rep.Proceeds.Add(m.Proceeds)
			rep.AllowableCosts = rep.AllowableCosts.Add(m.Cost)
			if gain.IsNegative() {
				rep.Losses = rep.Losses.Add(gain.Neg())
			} else {
				rep.Gains = rep.Gains.Add(gain)
			}
			rep.NetGain = rep.NetGain.Add(gain)
		}
	}

	for _, d := range r.Dividends {
		if TaxYearOf(d.Date) != year {
			continue
		}
		rep.DividendIncome = rep.DividendIncome.Add(d.Value.Base)
		rep.WithheldTax = rep.WithheldTax.Add(d.Withheld.Base)
	}

	end := year.End()
	for asset, p := range r.Pools {
		snap := p.snapshotAt(end)
		if snap != nil && !snap.Quantity.IsZero() {
			rep.EndOfYearPools[asset] = snap
		}
	}
	return rep
}

// snapshotAt replays the pool's history up to the given day, inclusive.
func (p *Pool) snapshotAt(day Date) *PoolSnapshot {
	var snap *PoolSnapshot
	for _, ch := range p.history {
		if ch.Date.After(day) {
			break
		}
		snap = &PoolSnapshot{Quantity: ch.Quantity, Cost: ch.Cost}
	}
	return snap
}
