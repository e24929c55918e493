package cgt

import (
	"errors"
	"fmt"
)

// Calculate runs one full pass over the ledger and returns the derived
// calculations, pools and per-year figures. The pass is pure: ledger events
// are never mutated, and rerunning with a fresh Session reproduces the
// result exactly.
//
// Invalid input aborts the pass with an error wrapping ErrInvalidOperation;
// currency mismatches abort with ErrCurrencyMismatch. A disposal exceeding
// everything available is not an error: it surfaces as an unmatched
// remainder in the result.
func (s *Session) Calculate(ledger *Ledger, timeline *ResidencyTimeline) (result *Result, err error) {
	defer func() {
		// Money arithmetic panics on mismatched currencies deep inside
		// the matching rules; surface it as an ordinary error here.
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && errors.Is(e, ErrCurrencyMismatch) {
				result, err = nil, e
				return
			}
			panic(r)
		}
	}()

	events, err := reconcile(ledger.Events())
	if err != nil {
		return nil, err
	}
	h := s.buildHoldings(events)
	e := &engine{session: s, h: h, timeline: timeline, ledger: ledger}

	// Options and futures settle first, so an exercised premium lands on
	// the underlying trade before the underlying's own matching runs.
	if err := e.run(true); err != nil {
		return nil, err
	}
	if err := e.rollPremiums(); err != nil {
		return nil, err
	}
	if err := e.run(false); err != nil {
		return nil, err
	}
	return newResult(ledger, h), nil
}

type engine struct {
	session  *Session
	h        *holdings
	timeline *ResidencyTimeline
	ledger   *Ledger
}

// run walks one tier of assets chronologically, corporate actions
// interleaved at their effective date. Same-day identification runs as a
// pre-pass so a bed-and-breakfast scan can never consume quantity owed to
// a same-day pairing later in the walk.
func (e *engine) run(derivativeTier bool) error {
	e.sameDayPass(derivativeTier)
	for _, en := range e.h.order {
		if e.h.derivative[en.asset()] != derivativeTier {
			continue
		}
		switch {
		case en.action != nil:
			if err := e.applyAction(*en.action); err != nil {
				return err
			}
		case en.calc.IsDisposal():
			e.processDisposal(en.calc)
		default:
			e.processAcquisition(en.calc)
		}
	}
	return nil
}

// sameDayPass applies the same-day rule across the tier: every disposal
// matches acquisitions of its own calendar day before any other rule sees
// either side.
func (e *engine) sameDayPass(derivativeTier bool) {
	for _, en := range e.h.order {
		c := en.calc
		if c == nil || !c.IsDisposal() || e.h.derivative[c.Asset] != derivativeTier {
			continue
		}
		for _, acq := range e.h.stream(c.Asset).acquisitionsBetween(c.Date, c.Date) {
			if c.Completed() {
				break
			}
			if acq.Completed() || e.timeline.SuppressesPairing(c.Date, acq.Date) {
				continue
			}
			e.matchPair(SameDay, c, acq)
		}
	}
}

// matchPair identifies min(unmatched, unmatched) between a disposal and an
// acquisition, consuming the proportional share of each side's amount.
func (e *engine) matchPair(typ MatchType, disp, acq *Calculation) *TradeMatch {
	qty := disp.Unmatched().Min(acq.Unmatched())
	if qty.IsZero() {
		return nil
	}
	m := &TradeMatch{
		Type:            typ,
		Quantity:        qty,
		Proceeds:        disp.take(qty),
		Cost:            acq.take(qty),
		DisposalID:      disp.ID,
		AcquisitionID:   acq.ID,
		DisposalDate:    disp.Date,
		AcquisitionDate: acq.Date,
		Taxability:      e.timeline.Verdict(disp.Date, acq.Date, e.ledger.UKTaxableSitus(disp.Asset)),
	}
	disp.record(m)
	acq.record(m)
	return m
}

// processDisposal applies the bed-and-breakfast rule, then the Section 104
// pool, to whatever the same-day pass left unmatched. A remainder beyond
// the pool opens a short position.
func (e *engine) processDisposal(c *Calculation) {
	for _, acq := range e.h.stream(c.Asset).acquisitionsBetween(c.Date.Add(1), c.Date.Add(30)) {
		if c.Completed() {
			break
		}
		if acq.Completed() || e.timeline.SuppressesPairing(c.Date, acq.Date) {
			continue
		}
		e.matchPair(BedAndBreakfast, c, acq)
	}

	p := e.h.pool(c.Asset)
	if !c.Completed() && !p.IsEmpty() {
		qty := c.Unmatched().Min(p.Quantity())
		lastAcquired := p.LastAcquired()
		before := p.Snapshot()
		cost, err := p.Remove(c.Date, fmt.Sprintf("sell #%d", c.ID), qty)
		if err != nil {
			// qty is clamped to the pool, removal cannot fail
			panic(err)
		}
		m := &TradeMatch{
			Type:            Section104,
			Quantity:        qty,
			Proceeds:        c.take(qty),
			Cost:            cost,
			DisposalID:      c.ID,
			DisposalDate:    c.Date,
			AcquisitionDate: lastAcquired,
			Taxability:      e.timeline.Verdict(c.Date, lastAcquired, e.ledger.UKTaxableSitus(c.Asset)),
			PoolBefore:      before,
			PoolAfter:       p.Snapshot(),
		}
		c.record(m)
	}

	if !c.Completed() {
		e.h.shorts[c.Asset] = append(e.h.shorts[c.Asset], c)
	}
}

// processAcquisition covers open shorts oldest first, then pools whatever
// remains at its remaining cost.
func (e *engine) processAcquisition(c *Calculation) {
	queue := e.h.shorts[c.Asset]
	for len(queue) > 0 && !c.Completed() {
		sh := queue[0]
		m := e.shortCover(sh, c)
		if m == nil || sh.Completed() {
			queue = queue[1:]
		}
	}
	e.h.shorts[c.Asset] = queue

	if c.Completed() {
		return
	}
	qty := c.Unmatched()
	p := e.h.pool(c.Asset)
	if c.Future != nil && !c.Future.ContractValue.IsZero() {
		p.AddContractValue(c.Date, c.Future.ContractValue.Mul(qty).Div(c.Quantity))
	}
	before := p.Snapshot()
	cost := c.take(qty)
	p.Add(c.Date, fmt.Sprintf("buy #%d", c.ID), qty, cost)
	c.record(&TradeMatch{
		Type:            Section104,
		Quantity:        qty,
		Cost:            cost,
		AcquisitionID:   c.ID,
		AcquisitionDate: c.Date,
		Taxability:      Taxable,
		Note:            "entered pool",
		PoolBefore:      before,
		PoolAfter:       p.Snapshot(),
	})
}

// shortCover pairs a covering acquisition with the oldest open short. A
// short option bought back in a later tax year converts its cost into a
// repayment claim against the year the premium was taxed, unless both legs
// sit inside the same spell of non-residence.
func (e *engine) shortCover(sh, c *Calculation) *TradeMatch {
	qty := sh.Unmatched().Min(c.Unmatched())
	if qty.IsZero() {
		return nil
	}
	m := &TradeMatch{
		Type:            ShortCover,
		Quantity:        qty,
		Proceeds:        sh.take(qty),
		Cost:            c.take(qty),
		DisposalID:      sh.ID,
		AcquisitionID:   c.ID,
		DisposalDate:    sh.Date,
		AcquisitionDate: c.Date,
		Taxability:      e.timeline.Verdict(sh.Date, c.Date, e.ledger.UKTaxableSitus(sh.Asset)),
	}
	if sh.Kind == Option && !m.Cost.IsZero() && TaxYearOf(sh.Date) != TaxYearOf(c.Date) &&
		!e.timeline.SameNonResidentSpan(sh.Date, c.Date) {
		e.repayToGrantYear(sh, m)
	}
	sh.record(m)
	c.record(m)
	return m
}

// repayToGrantYear moves the buy-back cost of a cross-year short option
// closure out of the current year: the premium was already taxed on grant,
// so the cost becomes a repayment claim against the grant year instead of
// a current-year allowable cost.
func (e *engine) repayToGrantYear(write *Calculation, m *TradeMatch) {
	year := TaxYearOf(write.Date)
	if r := write.Option.TaxRepayment; r != nil {
		r.Amount = r.Amount.Add(m.Cost)
	} else {
		write.Option.TaxRepayment = &TaxRepayment{Year: year, Amount: m.Cost}
	}
	m.Note = fmt.Sprintf("buy-back cost repaid against %s", year)
	m.Cost = Money{}
}

// rollPremiums transfers exercised and assigned option premiums onto the
// underlying trades. Each match of a terminated option slice nets to zero
// and its cost-minus-proceeds moves to the underlying calculation, so the
// gain is recognized where the shares are, not on the contract.
func (e *engine) rollPremiums() error {
	for _, c := range e.h.calcs {
		if c.Option == nil || (c.Option.Status != StatusExercised && c.Option.Status != StatusAssigned) {
			continue
		}
		under := e.underlyingOf(c)
		if under == nil {
			return fmt.Errorf("%w: %s of %q on %s has no underlying trade to roll the premium onto",
				ErrInvalidOperation, c.Option.Status, c.Asset, c.Date)
		}
		for _, m := range c.Matches {
			if m.DisposalID != c.ID && m.AcquisitionID != c.ID {
				continue
			}
			rolled := m.Cost.Sub(m.Proceeds)
			if under.Side == Buy {
				under.Amount = under.Amount.Add(rolled)
				under.unmatchedAmt = under.unmatchedAmt.Add(rolled)
			} else {
				under.Amount = under.Amount.Sub(rolled)
				under.unmatchedAmt = under.unmatchedAmt.Sub(rolled)
			}
			c.Option.PremiumRolled = c.Option.PremiumRolled.Add(rolled)
			m.Cost = Money{}
			m.Proceeds = Money{}
			m.Note = fmt.Sprintf("premium rolled onto %s", under.Asset)
		}
	}
	return nil
}

// underlyingOf finds the trade calculation produced by exercising the
// option: the lot whose fills name the contract as their origin, dated on
// the termination day.
func (e *engine) underlyingOf(c *Calculation) *Calculation {
	for _, u := range e.h.calcs {
		if u == c || !u.Date.Equal(c.Date) {
			continue
		}
		for _, f := range u.Fills() {
			if f.ExerciseOf == c.Asset {
				return u
			}
		}
	}
	return nil
}
