package cgt

import (
	"fmt"
)

// Session owns one calculation run over a ledger. It allocates calculation
// ids from a private sequence, so two sessions over the same ledger produce
// byte-identical results and a fresh session always starts from one.
type Session struct {
	nextID int
}

// NewSession creates a new calculation session.
func NewSession() *Session { return &Session{} }

func (s *Session) newID() int {
	s.nextID++
	return s.nextID
}

// OptionDetail carries the option-specific facts attached to a calculation.
type OptionDetail struct {
	Underlying string
	Strike     Money
	Status     OptionStatus
	// PremiumRolled is the net premium transferred onto the underlying
	// trade when the option was exercised or assigned.
	PremiumRolled Money
	// TaxRepayment is set when a short option written in an earlier tax
	// year is closed: the premium taxed in the writing year becomes a
	// repayment claim against that year rather than a current-year cost.
	TaxRepayment *TaxRepayment
}

// TaxRepayment is a claim to recover tax paid in a closed tax year.
type TaxRepayment struct {
	Year   TaxYear
	Amount Money
}

// FutureDetail carries the future-specific facts attached to a calculation.
type FutureDetail struct {
	ContractValue Money // nominal exposure, tracked but never part of cost
	Status        OptionStatus
}

// ActionDetail marks a calculation that was synthesized from a corporate
// action rather than from trades.
type ActionDetail struct {
	Kind ActionKind
	// Deferred is the part of a distribution rolled into the pool's cost
	// under the small-distribution rules instead of being taxed now.
	Deferred Money
	Note     string
}

// Calculation is the unit the matching rules operate on: all fills of one
// asset, on one side, on one calendar day, aggregated. The engine mutates
// the unmatched remainder as identification rules consume it; once the
// remainder reaches zero the calculation is fully identified.
type Calculation struct {
	ID    int
	Asset string
	Date  Date
	Side  Side
	Kind  TradeKind

	fills []Trade

	// Totals across all fills. Amount is cost for a buy and net
	// proceeds for a sell, always in base currency.
	Quantity Quantity
	Amount   Money

	unmatchedQty Quantity
	unmatchedAmt Money

	Matches []*TradeMatch

	Option *OptionDetail
	Future *FutureDetail
	Action *ActionDetail
}

func (s *Session) newCalculation(t Trade) *Calculation {
	c := &Calculation{
		ID:    s.newID(),
		Asset: t.Security,
		Date:  t.Date,
		Side:  t.Side,
		Kind:  t.Kind,
	}
	if t.Kind == Option {
		c.Option = &OptionDetail{Underlying: t.Underlying, Strike: t.Strike, Status: t.Status}
	}
	if t.Kind == Future {
		c.Future = &FutureDetail{Status: t.Status}
	}
	c.addFill(t)
	return c
}

// addFill merges one more fill into the calculation. Buys accumulate cost,
// sells accumulate net proceeds.
func (c *Calculation) addFill(t Trade) {
	c.fills = append(c.fills, t)
	c.Quantity = c.Quantity.Add(t.Quantity)
	if t.Side == Buy {
		c.Amount = c.Amount.Add(t.Cost())
	} else {
		c.Amount = c.Amount.Add(t.NetProceeds())
	}
	if c.Future != nil {
		c.Future.ContractValue = c.Future.ContractValue.Add(t.ContractValue.Base)
	}
	if c.Option != nil && t.Status != StatusOpen {
		c.Option.Status = t.Status
	}
	c.unmatchedQty = c.Quantity
	c.unmatchedAmt = c.Amount
}

// absorbs reports whether the fill belongs to this calculation: same asset,
// side and calendar day.
func (c *Calculation) absorbs(t Trade) bool {
	return c.Asset == t.Security && c.Side == t.Side && c.Date.Equal(t.Date) && c.Kind == t.Kind
}

// Fills returns the trades aggregated into this calculation.
func (c *Calculation) Fills() []Trade { return c.fills }

// Unmatched returns the quantity not yet consumed by any identification rule.
func (c *Calculation) Unmatched() Quantity { return c.unmatchedQty }

// UnmatchedAmount returns the cost or proceeds carried by the unmatched
// quantity.
func (c *Calculation) UnmatchedAmount() Money { return c.unmatchedAmt }

// Completed reports whether the whole quantity has been identified.
func (c *Calculation) Completed() bool { return c.unmatchedQty.IsZero() }

// IsDisposal reports whether the calculation disposes of the asset.
func (c *Calculation) IsDisposal() bool { return c.Side == Sell }

// take consumes qty from the unmatched remainder and returns the
// proportional share of the amount. Taking the exact remainder returns the
// exact remaining amount, so a calculation split into many partial matches
// never drifts: the pieces always sum back to the original total.
func (c *Calculation) take(qty Quantity) Money {
	if qty.GreaterThan(c.unmatchedQty) {
		panic(fmt.Errorf("%w: taking %s from a remainder of %s", ErrInvalidOperation, qty, c.unmatchedQty))
	}
	var share Money
	if qty.Equal(c.unmatchedQty) {
		share = c.unmatchedAmt
	} else {
		share = c.Amount.Mul(qty).Div(c.Quantity)
	}
	c.unmatchedQty = c.unmatchedQty.Sub(qty)
	c.unmatchedAmt = c.unmatchedAmt.Sub(share)
	return share
}

// record appends a match to the calculation's history.
func (c *Calculation) record(m *TradeMatch) { c.Matches = append(c.Matches, m) }

// Gain sums proceeds minus cost across the disposal's matches. It returns
// the raw gain regardless of taxability; taxable aggregation is the tax
// year report's concern.
func (c *Calculation) Gain() Money {
	var g Money
	for _, m := range c.Matches {
		if m.DisposalID == c.ID {
			g = g.Add(m.Gain())
		}
	}
	return g
}

// TaxableGain sums gains over matches the residency overlay left taxable.
func (c *Calculation) TaxableGain() Money {
	var g Money
	for _, m := range c.Matches {
		if m.DisposalID == c.ID && m.IsTaxable() {
			g = g.Add(m.Gain())
		}
	}
	return g
}

// TaxYear returns the tax year the calculation's date falls in.
func (c *Calculation) TaxYear() TaxYear { return TaxYearOf(c.Date) }

// String implements the Stringer interface for Calculation.
func (c *Calculation) String() string {
	return fmt.Sprintf("#%d %s %s %s %s for %s", c.ID, c.Date, c.Side, c.Quantity, c.Asset, c.Amount)
}

// MarshalJSON implements the json.Marshaler interface for Calculation.
func (c *Calculation) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", c.ID)
	w.Append("asset", c.Asset)
	w.Append("date", c.Date)
	w.Append("side", c.Side)
	w.Append("kind", c.Kind)
	w.Append("quantity", c.Quantity)
	w.Append("amount", c.Amount)
	if !c.unmatchedQty.IsZero() {
		w.Append("unmatched", c.unmatchedQty)
	}
	if len(c.Matches) > 0 {
		w.Append("matches", c.Matches)
	}
	if c.Option != nil {
		w.Append("option", optionDetailJSON(c.Option))
	}
	if c.Future != nil {
		var fw jsonObjectWriter
		fw.Append("contractValue", c.Future.ContractValue)
		fw.Optional("status", string(c.Future.Status))
		w.Append("future", &fw)
	}
	if c.Action != nil {
		var aw jsonObjectWriter
		aw.Append("kind", c.Action.Kind)
		if !c.Action.Deferred.IsZero() {
			aw.Append("deferred", c.Action.Deferred)
		}
		aw.Optional("note", c.Action.Note)
		w.Append("action", &aw)
	}
	return w.MarshalJSON()
}

func optionDetailJSON(o *OptionDetail) *jsonObjectWriter {
	var w jsonObjectWriter
	w.Optional("underlying", o.Underlying)
	if !o.Strike.IsZero() {
		w.Append("strike", o.Strike)
	}
	w.Optional("status", string(o.Status))
	if !o.PremiumRolled.IsZero() {
		w.Append("premiumRolled", o.PremiumRolled)
	}
	if o.TaxRepayment != nil {
		var rw jsonObjectWriter
		rw.Append("year", o.TaxRepayment.Year.String())
		rw.Append("amount", o.TaxRepayment.Amount)
		w.Append("taxRepayment", &rw)
	}
	return &w
}
