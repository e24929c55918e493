package cgt

import (
	"fmt"
)

// PoolChange records one mutation of a Section 104 pool. The pool's history
// is append-only: every mutation, Add through AddContractValue, contributes
// exactly one entry, so a report can replay how the pool reached its state.
type PoolChange struct {
	Date   Date
	Reason string
	// Deltas applied by the change. QuantityDelta is zero for a pure
	// cost adjustment; CostDelta is zero for a pure rescale.
	QuantityDelta Quantity
	CostDelta     Money
	// Pool state after the change.
	Quantity Quantity
	Cost     Money
}

// MarshalJSON implements the json.Marshaler interface for PoolChange.
func (pc PoolChange) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", pc.Date)
	w.Append("reason", pc.Reason)
	if !pc.QuantityDelta.IsZero() {
		w.Append("quantityDelta", pc.QuantityDelta)
	}
	if !pc.CostDelta.IsZero() {
		w.Append("costDelta", pc.CostDelta)
	}
	w.Append("quantity", pc.Quantity)
	w.Append("cost", pc.Cost)
	return w.MarshalJSON()
}

// Pool is one asset's Section 104 holding: a quantity and its aggregate
// allowable cost, averaged over every share in it. Removals take cost in
// proportion to the quantity removed.
type Pool struct {
	Asset   string
	qty     Quantity
	cost    Money // base currency
	history []PoolChange

	// contractValue tracks the nominal exposure of pooled futures.
	// It scales with the pool but never enters the cost.
	contractValue Money

	// lastAcquired is the most recent date shares entered the pool.
	// Section 104 matches use it as their acquisition-side date.
	lastAcquired Date
}

// NewPool creates an empty Section 104 pool for the asset.
func NewPool(asset string) *Pool { return &Pool{Asset: asset} }

// Quantity returns the pooled quantity.
func (p *Pool) Quantity() Quantity { return p.qty }

// Cost returns the pool's aggregate allowable cost.
func (p *Pool) Cost() Money { return p.cost }

// ContractValue returns the pooled nominal contract value for futures.
func (p *Pool) ContractValue() Money { return p.contractValue }

// LastAcquired returns the date shares last entered the pool.
func (p *Pool) LastAcquired() Date { return p.lastAcquired }

// IsEmpty reports whether the pool holds nothing.
func (p *Pool) IsEmpty() bool { return p.qty.IsZero() }

// History returns the pool's mutation log, oldest first. The returned
// slice is shared; callers must not modify it.
func (p *Pool) History() []PoolChange { return p.history }

// Snapshot captures the pool's current quantity and cost.
func (p *Pool) Snapshot() *PoolSnapshot {
	return &PoolSnapshot{Quantity: p.qty, Cost: p.cost}
}

// AverageCost returns the cost per unit, or zero for an empty pool.
func (p *Pool) AverageCost() Money {
	if p.qty.IsZero() {
		return Money{}
	}
	return p.cost.Div(p.qty)
}

func (p *Pool) log(day Date, reason string, dq Quantity, dc Money) {
	p.history = append(p.history, PoolChange{
		Date:          day,
		Reason:        reason,
		QuantityDelta: dq,
		CostDelta:     dc,
		Quantity:      p.qty,
		Cost:          p.cost,
	})
}

// Add puts quantity and cost into the pool.
func (p *Pool) Add(day Date, reason string, qty Quantity, cost Money) {
	p.qty = p.qty.Add(qty)
	p.cost = p.cost.Add(cost)
	p.lastAcquired = day
	p.log(day, reason, qty, cost)
}

// Remove takes quantity out of the pool together with a proportional share
// of the cost, and returns that share. Removing the whole pool returns the
// exact remaining cost, so proportional rounding never strands a residue.
func (p *Pool) Remove(day Date, reason string, qty Quantity) (Money, error) {
	if qty.GreaterThan(p.qty) {
		return Money{}, fmt.Errorf("%w: removing %s from a pool of %s %s", ErrInvalidOperation, qty, p.qty, p.Asset)
	}
	var share Money
	if qty.Equal(p.qty) {
		share = p.cost
	} else {
		share = p.cost.Mul(qty).Div(p.qty)
	}
	if !p.contractValue.IsZero() {
		if qty.Equal(p.qty) {
			p.contractValue = Money{}
		} else {
			p.contractValue = p.contractValue.Sub(p.contractValue.Mul(qty).Div(p.qty))
		}
	}
	p.qty = p.qty.Sub(qty)
	p.cost = p.cost.Sub(share)
	p.log(day, reason, qty.Neg(), share.Neg())
	return share, nil
}

// AdjustCost shifts the pool's cost without changing its quantity. A
// negative delta greater than the pool's cost is an upstream data error.
func (p *Pool) AdjustCost(day Date, reason string, delta Money) error {
	next := p.cost.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("%w: cost adjustment of %s would leave pool %s at %s", ErrInvalidOperation, delta, p.Asset, next)
	}
	p.cost = next
	p.log(day, reason, Quantity{}, delta)
	return nil
}

// Rescale replaces the pool's quantity, leaving its cost untouched. Stock
// splits change how many units carry the same aggregate cost.
func (p *Pool) Rescale(day Date, reason string, qty Quantity) {
	dq := qty.Sub(p.qty)
	p.qty = qty
	p.log(day, reason, dq, Money{})
}

// AddContractValue accumulates nominal futures exposure alongside the pool.
// The exposure never enters the cost, but the mutation still lands in the
// history so a replayed log accounts for every change.
func (p *Pool) AddContractValue(day Date, v Money) {
	p.contractValue = p.contractValue.Add(v)
	p.log(day, "contract value", Quantity{}, Money{})
}

// String implements the Stringer interface for Pool.
func (p *Pool) String() string {
	return fmt.Sprintf("%s: %s units costing %s", p.Asset, p.qty, p.cost)
}

// MarshalJSON implements the json.Marshaler interface for Pool.
func (p *Pool) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("asset", p.Asset)
	w.Append("quantity", p.qty)
	w.Append("cost", p.cost)
	if !p.contractValue.IsZero() {
		w.Append("contractValue", p.contractValue)
	}
	if len(p.history) > 0 {
		w.Append("history", p.history)
	}
	return w.MarshalJSON()
}
