package cgt

import (
	"errors"
	"testing"
	"time"
)

func TestPool_AddRemoveProportionalCost(t *testing.T) {
	p := NewPool("VOD")
	d := day(2024, time.May, 1)
	p.Add(d, "buy", Q(100), GBP(500))

	share, err := p.Remove(d.Add(10), "sell", Q(25))
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	wantMoney(t, "removed cost", share, GBP(125))
	if !p.Quantity().Equal(Q(75)) {
		t.Errorf("quantity = %s, want 75", p.Quantity())
	}
	wantMoney(t, "remaining cost", p.Cost(), GBP(375))
}

func TestPool_RemoveAllReturnsExactCost(t *testing.T) {
	p := NewPool("VOD")
	d := day(2024, time.May, 1)
	// A cost that does not divide evenly by the quantity.
	p.Add(d, "buy", Q(3), GBP(100))

	share, err := p.Remove(d.Add(1), "sell", Q(3))
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if !share.Equal(GBP(100)) {
		t.Errorf("removed cost = %s, want exactly %s", share, GBP(100))
	}
	if !p.Cost().IsZero() || !p.Quantity().IsZero() {
		t.Errorf("pool not empty: %s", p)
	}
}

func TestPool_RemoveMoreThanHeldFails(t *testing.T) {
	p := NewPool("VOD")
	p.Add(day(2024, time.May, 1), "buy", Q(10), GBP(10))
	if _, err := p.Remove(day(2024, time.May, 2), "sell", Q(11)); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Remove() error = %v, want ErrInvalidOperation", err)
	}
}

func TestPool_AdjustCostNeverGoesNegative(t *testing.T) {
	p := NewPool("VOD")
	d := day(2024, time.May, 1)
	p.Add(d, "buy", Q(10), GBP(100))
	if err := p.AdjustCost(d, "return of capital", GBP(40).Neg()); err != nil {
		t.Fatalf("AdjustCost() error = %v", err)
	}
	wantMoney(t, "cost", p.Cost(), GBP(60))
	if err := p.AdjustCost(d, "return of capital", GBP(61).Neg()); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("AdjustCost() error = %v, want ErrInvalidOperation", err)
	}
}

func TestPool_RescaleKeepsCost(t *testing.T) {
	p := NewPool("VOD")
	d := day(2024, time.May, 1)
	p.Add(d, "buy", Q(100), GBP(500))
	p.Rescale(d.Add(1), "split 2:1", Q(200))
	if !p.Quantity().Equal(Q(200)) {
		t.Errorf("quantity = %s, want 200", p.Quantity())
	}
	wantMoney(t, "cost", p.Cost(), GBP(500))
	wantMoney(t, "average cost", p.AverageCost(), GBP(2.5))
}

func TestPool_EveryMutationAppendsOneHistoryEntry(t *testing.T) {
	p := NewPool("VOD")
	d := day(2024, time.May, 1)
	p.Add(d, "buy", Q(100), GBP(500))
	if _, err := p.Remove(d.Add(1), "sell", Q(50)); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := p.AdjustCost(d.Add(2), "eri", GBP(10)); err != nil {
		t.Fatalf("AdjustCost() error = %v", err)
	}
	p.Rescale(d.Add(3), "split", Q(100))
	p.AddContractValue(d.Add(4), GBP(1000))

	h := p.History()
	if len(h) != 5 {
		t.Fatalf("got %d history entries, want 5", len(h))
	}
	for i, ch := range h {
		if ch.Quantity.IsNegative() || ch.Cost.IsNegative() {
			t.Errorf("entry %d left the pool negative: %+v", i, ch)
		}
	}
	last := h[len(h)-1]
	if last.Reason != "contract value" {
		t.Errorf("last entry reason = %q, want %q", last.Reason, "contract value")
	}
	if !last.Quantity.Equal(p.Quantity()) || !last.Cost.Equal(p.Cost()) {
		t.Errorf("last entry %+v does not reflect pool state %s", last, p)
	}
	wantMoney(t, "contract value", p.ContractValue(), GBP(1000))
}

func TestPool_LastAcquiredTracksAdds(t *testing.T) {
	p := NewPool("VOD")
	first := day(2024, time.May, 1)
	second := day(2024, time.June, 1)
	p.Add(first, "buy", Q(10), GBP(10))
	p.Add(second, "buy", Q(10), GBP(10))
	if !p.LastAcquired().Equal(second) {
		t.Errorf("LastAcquired() = %s, want %s", p.LastAcquired(), second)
	}
}
