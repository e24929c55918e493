package cgt

import (
	"fmt"
)

// smallCashLimit is the fixed floor of the small-distribution test: cash up
// to this amount can always be deferred into the pool's cost, following the
// s122 TCGA practice of £3,000 or 5% of the total consideration.
var smallCashLimit = GBP(3000)

// smallCash reports whether a cash distribution qualifies for deferral
// against the total consideration it came out of.
func smallCash(cash, total Money) bool {
	limit := smallCashLimit
	if pct := total.Mul(Q(0.05)); pct.GreaterThan(limit) {
		limit = pct
	}
	return cash.LessThanOrEqual(limit)
}

// applyAction routes a corporate action to its pool arithmetic. Each kind
// re-resolves against the pool's current state, so chained events (a B
// taken over by C after absorbing A) compound correctly.
func (e *engine) applyAction(a CorporateAction) error {
	switch a.Kind {
	case StockSplit:
		return e.applySplit(a)
	case Takeover:
		return e.applyTakeover(a)
	case Spinoff:
		return e.applySpinoff(a)
	case PartnerTransfer:
		return e.applyPartnerTransfer(a)
	case ReturnOfCapital:
		return e.applyReturnOfCapital(a)
	case ExcessReportableIncome:
		p := e.h.pool(a.Security)
		return p.AdjustCost(a.Date, fmt.Sprintf("excess reportable income (%s)", a.IncomeType), a.Value.Base)
	default:
		return fmt.Errorf("%w: unknown corporate action kind %q", ErrInvalidOperation, a.Kind)
	}
}

// actionCalculation synthesizes the cash-disposal lot a corporate action
// realizes, recording one Section 104 match for it.
func (e *engine) actionCalculation(a CorporateAction, detail ActionDetail, qty Quantity, proceeds, cost Money, before, after *PoolSnapshot) *Calculation {
	p := e.h.pool(a.Security)
	c := &Calculation{
		ID:       e.session.newID(),
		Asset:    a.Security,
		Date:     a.Date,
		Side:     Sell,
		Kind:     Stock,
		Quantity: qty,
		Amount:   proceeds,
		Action:   &detail,
	}
	c.record(&TradeMatch{
		Type:            Section104,
		Quantity:        qty,
		Cost:            cost,
		Proceeds:        proceeds,
		DisposalID:      c.ID,
		DisposalDate:    a.Date,
		AcquisitionDate: p.LastAcquired(),
		Taxability:      e.timeline.Verdict(a.Date, p.LastAcquired(), e.ledger.UKTaxableSitus(a.Security)),
		Note:            detail.Note,
		PoolBefore:      before,
		PoolAfter:       after,
	})
	e.h.calcs = append(e.h.calcs, c)
	return c
}

// deferIntoPool applies the small-distribution deferral: cash reduces the
// pool's cost instead of creating a disposal. Cash beyond the available
// cost cannot be deferred; the excess is an immediate gain and the pool's
// cost lands at exactly zero.
func (e *engine) deferIntoPool(a CorporateAction, p *Pool, cash Money, reason string) error {
	deferred := cash
	var excess Money
	if cash.GreaterThan(p.Cost()) {
		excess = cash.Sub(p.Cost())
		deferred = p.Cost()
	}
	before := p.Snapshot()
	if err := p.AdjustCost(a.Date, reason, deferred.Neg()); err != nil {
		return err
	}
	if !excess.IsZero() {
		e.actionCalculation(a, ActionDetail{
			Kind:     a.Kind,
			Deferred: deferred,
			Note:     fmt.Sprintf("cash beyond pool cost, %s deferred", deferred),
		}, Quantity{}, excess, Money{}, before, p.Snapshot())
	}
	return nil
}

// applySplit rescales the pool by to/from, flooring the result. A fractional
// remainder is paid out via cash-in-lieu as a quantity-proportioned part
// disposal: the fraction's cost share is poolCost x fraction / rawQuantity,
// whatever the cash was actually worth.
func (e *engine) applySplit(a CorporateAction) error {
	p := e.h.pool(a.Security)
	raw := p.Quantity().Mul(Q(a.To)).Div(Q(a.From))
	newQty := raw.Floor()
	fraction := raw.Sub(newQty)
	reason := fmt.Sprintf("split %d:%d", a.To, a.From)

	if a.Cash != nil && fraction.IsZero() {
		return fmt.Errorf("%w: cash-in-lieu on the %s of %q but no fractional share produced",
			ErrInvalidOperation, reason, a.Security)
	}

	p.Rescale(a.Date, reason, newQty)
	if a.Cash == nil {
		return nil
	}

	cash := a.Cash.Base
	fractionCost := p.Cost().Mul(fraction).Div(raw)

	if a.ElectTaxDeferral {
		// Extrapolate the whole holding's value from the cash paid for
		// the fraction, the base of the smallness test.
		total := cash.Mul(raw).Div(fraction)
		if smallCash(cash, total) {
			return e.deferIntoPool(a, p, cash, reason+" cash-in-lieu deferred")
		}
	}
	before := p.Snapshot()
	if err := p.AdjustCost(a.Date, reason+" cash-in-lieu", fractionCost.Neg()); err != nil {
		return err
	}
	e.actionCalculation(a, ActionDetail{Kind: a.Kind, Note: reason + " cash-in-lieu"},
		fraction, cash, fractionCost, before, p.Snapshot())
	return nil
}

// applyTakeover moves the holding into the acquiring company's pool. A cash
// component is either deferred into the transferred cost (small, elected)
// or realized as a part disposal with its value-proportioned cost share.
func (e *engine) applyTakeover(a CorporateAction) error {
	p := e.h.pool(a.Security)
	if p.IsEmpty() {
		return fmt.Errorf("%w: takeover of %q with an empty pool", ErrInvalidOperation, a.Security)
	}
	newQty := p.Quantity().Mul(Q(a.To)).Div(Q(a.From))
	reason := fmt.Sprintf("takeover by %s", a.NewAsset)

	if a.Cash != nil {
		cash := a.Cash.Base
		total := cash.Add(a.NewSharesValue.Base)
		if a.ElectTaxDeferral && smallCash(cash, total) {
			if err := e.deferIntoPool(a, p, cash, reason+", cash deferred"); err != nil {
				return err
			}
		} else {
			costToCash := p.Cost().Mul(Q(cash.value)).Div(Q(total.value))
			before := p.Snapshot()
			if err := p.AdjustCost(a.Date, reason+", cash component", costToCash.Neg()); err != nil {
				return err
			}
			e.actionCalculation(a, ActionDetail{Kind: a.Kind, Note: reason + ", cash component"},
				Quantity{}, cash, costToCash, before, p.Snapshot())
		}
	}

	// The remaining cost moves across in one atomic step.
	transferred, err := p.Remove(a.Date, reason, p.Quantity())
	if err != nil {
		return err
	}
	e.h.pool(a.NewAsset).Add(a.Date, fmt.Sprintf("takeover of %s", a.Security), newQty, transferred)
	return nil
}

// applySpinoff splits the parent's cost with the new company by market
// value. Cash-in-lieu of fractional spun-off shares takes its share of the
// spun-off portion only, proportioned against (spinoff value + cash).
func (e *engine) applySpinoff(a CorporateAction) error {
	p := e.h.pool(a.Security)
	if p.IsEmpty() {
		return fmt.Errorf("%w: spinoff from %q with an empty pool", ErrInvalidOperation, a.Security)
	}
	spinQty := p.Quantity().Mul(a.SpinRatio).Floor()
	spinValue := a.NewSharesValue.Base
	remaining := a.RemainingValue.Base
	reason := fmt.Sprintf("spinoff of %s", a.NewAsset)

	var cash Money
	if a.Cash != nil {
		cash = a.Cash.Base
	}
	departing := spinValue.Add(cash)
	total := departing.Add(remaining)
	if !total.IsPositive() {
		return fmt.Errorf("%w: spinoff of %q needs a positive market-value split", ErrInvalidOperation, a.Security)
	}
	departingCost := p.Cost().Mul(Q(departing.value)).Div(Q(total.value))

	var costToCash Money
	if !cash.IsZero() {
		costToCash = departingCost.Mul(Q(cash.value)).Div(Q(departing.value))
	}
	spinCost := departingCost.Sub(costToCash)

	before := p.Snapshot()
	if err := p.AdjustCost(a.Date, reason, departingCost.Neg()); err != nil {
		return err
	}
	if !cash.IsZero() {
		e.actionCalculation(a, ActionDetail{Kind: a.Kind, Note: reason + " cash-in-lieu"},
			Quantity{}, cash, costToCash, before, p.Snapshot())
	}
	e.h.pool(a.NewAsset).Add(a.Date, fmt.Sprintf("spinoff from %s", a.Security), spinQty, spinCost)
	return nil
}

// applyPartnerTransfer moves quantity between spouses at no gain and no
// loss: a gift leaves with its proportional cost, a receipt arrives with
// the cost the giving side computed.
func (e *engine) applyPartnerTransfer(a CorporateAction) error {
	p := e.h.pool(a.Security)
	switch a.Direction {
	case Gift:
		before := p.Snapshot()
		share, err := p.Remove(a.Date, "gift to partner", a.Quantity)
		if err != nil {
			return err
		}
		// Deemed proceeds equal the cost leaving the pool: no gain, no loss.
		e.actionCalculation(a, ActionDetail{Kind: a.Kind, Note: "gift to partner, no gain no loss"},
			a.Quantity, share, share, before, p.Snapshot())
		return nil
	case Receive:
		if a.TransferredCost == nil {
			return fmt.Errorf("%w: receiving %s %q from partner without a transferred cost",
				ErrInvalidOperation, a.Quantity, a.Security)
		}
		p.Add(a.Date, "received from partner", a.Quantity, a.TransferredCost.Base)
		return nil
	default:
		return fmt.Errorf("%w: partner transfer needs a direction", ErrInvalidOperation)
	}
}

// applyReturnOfCapital reduces the pool's cost by the distribution. It is
// not a dividend: it never reaches taxable dividend totals, and any amount
// beyond the available cost is an immediate gain.
func (e *engine) applyReturnOfCapital(a CorporateAction) error {
	return e.deferIntoPool(a, e.h.pool(a.Security), a.Value.Base, "return of capital")
}
