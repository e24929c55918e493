package cgt

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestCalculate_SameDayRule(t *testing.T) {
	l := NewLedger()
	d := day(2024, time.June, 3)
	mustAppend(t, l,
		NewTrade(d, "VOD", Buy, Q(100), stg(200), stg(0)),
		NewTrade(d, "VOD", Sell, Q(100), stg(250), stg(0)),
	)
	res := mustCalculate(t, l, nil)

	c := disposalOn(t, res, "VOD", d)
	if len(c.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(c.Matches))
	}
	m := c.Matches[0]
	if m.Type != SameDay {
		t.Errorf("match type = %s, want %s", m.Type, SameDay)
	}
	wantMoney(t, "gain", c.Gain(), GBP(50))
	if p := res.Pool("VOD"); p != nil && !p.IsEmpty() {
		t.Errorf("pool not empty after same-day closure: %s", p)
	}
}

// The worked Section 104 + bed-and-breakfast scenario: a sale matches a
// purchase made within 30 days after it before touching the pool.
func TestCalculate_BedAndBreakfastThenPool(t *testing.T) {
	l := NewLedger()
	sellDay := day(2025, time.January, 6)
	mustAppend(t, l,
		NewTrade(day(2024, time.January, 10), "LSEG", Buy, Q(9500), stg(1850), stg(0)),
		NewTrade(sellDay, "LSEG", Sell, Q(4000), stg(6000), stg(0)),
		NewTrade(day(2025, time.January, 20), "LSEG", Buy, Q(500), stg(850), stg(0)),
	)
	res := mustCalculate(t, l, nil)

	c := disposalOn(t, res, "LSEG", sellDay)
	if !c.Completed() {
		t.Fatalf("disposal not completed, unmatched %s", c.Unmatched())
	}
	if len(c.Matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(c.Matches))
	}

	bb := c.Matches[0]
	if bb.Type != BedAndBreakfast || !bb.Quantity.Equal(Q(500)) {
		t.Fatalf("first match = %s, want bed-and-breakfast of 500", bb)
	}
	wantMoney(t, "b&b cost", bb.Cost, GBP(850))
	wantMoney(t, "b&b proceeds", bb.Proceeds, GBP(750))

	s104 := c.Matches[1]
	if s104.Type != Section104 || !s104.Quantity.Equal(Q(3500)) {
		t.Fatalf("second match = %s, want section-104 of 3500", s104)
	}
	wantMoney(t, "s104 cost", s104.Cost, GBP(681.58))
	wantMoney(t, "s104 proceeds", s104.Proceeds, GBP(5250))

	wantMoney(t, "total gain", c.Gain(), GBP(4468.42))

	p := res.Pool("LSEG")
	if !p.Quantity().Equal(Q(6000)) {
		t.Errorf("pool quantity = %s, want 6000", p.Quantity())
	}
	wantMoney(t, "pool cost", p.Cost(), GBP(1168.42))
}

func TestCalculate_AcquisitionOutsideWindowPoolsInstead(t *testing.T) {
	l := NewLedger()
	sellDay := day(2025, time.March, 3)
	mustAppend(t, l,
		NewTrade(day(2024, time.May, 1), "VOD", Buy, Q(100), stg(100), stg(0)),
		NewTrade(sellDay, "VOD", Sell, Q(100), stg(150), stg(0)),
		// 31 days after the sale: outside the window.
		NewTrade(sellDay.Add(31), "VOD", Buy, Q(100), stg(120), stg(0)),
	)
	res := mustCalculate(t, l, nil)

	c := disposalOn(t, res, "VOD", sellDay)
	if len(c.Matches) != 1 || c.Matches[0].Type != Section104 {
		t.Fatalf("matches = %v, want a single section-104 match", c.Matches)
	}
	wantMoney(t, "gain", c.Gain(), GBP(50))

	// The late purchase starts a fresh pool.
	p := res.Pool("VOD")
	if !p.Quantity().Equal(Q(100)) {
		t.Errorf("pool quantity = %s, want 100", p.Quantity())
	}
	wantMoney(t, "pool cost", p.Cost(), GBP(120))
}

func TestCalculate_WindowEdge30Days(t *testing.T) {
	l := NewLedger()
	sellDay := day(2025, time.June, 2)
	mustAppend(t, l,
		NewTrade(sellDay, "VOD", Sell, Q(10), stg(100), stg(0)),
		NewTrade(sellDay.Add(30), "VOD", Buy, Q(10), stg(90), stg(0)),
	)
	res := mustCalculate(t, l, nil)

	c := disposalOn(t, res, "VOD", sellDay)
	if len(c.Matches) != 1 || c.Matches[0].Type != BedAndBreakfast {
		t.Fatalf("day-30 acquisition must still match as bed-and-breakfast, got %v", c.Matches)
	}
}

func TestCalculate_ShortCover(t *testing.T) {
	l := NewLedger()
	sellDay := day(2024, time.September, 2)
	coverDay := day(2024, time.November, 4) // beyond the 30-day window
	mustAppend(t, l,
		NewTrade(sellDay, "BARC", Sell, Q(200), stg(400), stg(0)),
		NewTrade(coverDay, "BARC", Buy, Q(200), stg(300), stg(0)),
	)
	res := mustCalculate(t, l, nil)

	c := disposalOn(t, res, "BARC", sellDay)
	if len(c.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(c.Matches))
	}
	m := c.Matches[0]
	if m.Type != ShortCover {
		t.Errorf("match type = %s, want %s", m.Type, ShortCover)
	}
	wantMoney(t, "gain", c.Gain(), GBP(100))
	if !c.Completed() {
		t.Errorf("covered short still has unmatched %s", c.Unmatched())
	}
}

func TestCalculate_UnmatchedRemainderIsDataNotError(t *testing.T) {
	l := NewLedger()
	sellDay := day(2024, time.July, 1)
	mustAppend(t, l,
		NewTrade(day(2024, time.June, 3), "VOD", Buy, Q(60), stg(60), stg(0)),
		NewTrade(sellDay, "VOD", Sell, Q(100), stg(200), stg(0)),
	)
	res := mustCalculate(t, l, nil)

	c := disposalOn(t, res, "VOD", sellDay)
	if c.Completed() {
		t.Fatal("over-disposal must stay incomplete")
	}
	if !c.Unmatched().Equal(Q(40)) {
		t.Errorf("unmatched = %s, want 40", c.Unmatched())
	}
	unmatched := res.Unmatched()
	if len(unmatched) != 1 || unmatched[0] != c {
		t.Errorf("Unmatched() = %v, want the open disposal", unmatched)
	}
}

func TestCalculate_FillsAggregateByDay(t *testing.T) {
	l := NewLedger()
	d := day(2024, time.June, 3)
	mustAppend(t, l,
		NewTrade(d, "VOD", Buy, Q(40), stg(40), stg(1)),
		NewTrade(d, "VOD", Buy, Q(60), stg(60), stg(1)),
	)
	res := mustCalculate(t, l, nil)

	var buys []*Calculation
	for _, c := range res.Calculations {
		if c.Asset == "VOD" && !c.IsDisposal() {
			buys = append(buys, c)
		}
	}
	if len(buys) != 1 {
		t.Fatalf("got %d buy calculations, want 1", len(buys))
	}
	if !buys[0].Quantity.Equal(Q(100)) {
		t.Errorf("quantity = %s, want 100", buys[0].Quantity)
	}
	wantMoney(t, "amount", buys[0].Amount, GBP(102))
}

// A disposal split over many covering acquisitions must not leak rounding:
// the proportional shares have to sum back to the totals within one minor
// unit of the currency.
func TestCalculate_ProportionalSharesDoNotDrift(t *testing.T) {
	l := NewLedger()
	sellDay := day(2023, time.May, 1)
	const n = 101
	mustAppend(t, l, NewTrade(sellDay, "VOD", Sell, Q(n), stg(1000), stg(0)))
	buyDay := sellDay.Add(40) // beyond the window, every cover is a short-cover
	for i := 0; i < n; i++ {
		mustAppend(t, l, NewTrade(buyDay.Add(i), "VOD", Buy, Q(1), stg(7.77), stg(0)))
	}
	res := mustCalculate(t, l, nil)

	c := disposalOn(t, res, "VOD", sellDay)
	if len(c.Matches) != n {
		t.Fatalf("got %d matches, want %d", len(c.Matches), n)
	}
	var proceeds, cost Money
	for _, m := range c.Matches {
		proceeds = proceeds.Add(m.Proceeds)
		cost = cost.Add(m.Cost)
	}
	wantMoney(t, "sum of proceeds", proceeds, GBP(1000))
	wantMoney(t, "sum of costs", cost, GBP(7.77*n))
	if !c.Completed() {
		t.Errorf("unmatched remainder %s after full cover", c.Unmatched())
	}
}

func TestCalculate_DeterministicAcrossSessions(t *testing.T) {
	build := func() *Ledger {
		l := NewLedger()
		mustAppend(t, l,
			NewTrade(day(2024, time.January, 10), "LSEG", Buy, Q(9500), stg(1850), stg(0)),
			NewTrade(day(2025, time.January, 6), "LSEG", Sell, Q(4000), stg(6000), stg(0)),
			NewTrade(day(2025, time.January, 20), "LSEG", Buy, Q(500), stg(850), stg(0)),
			NewTrade(day(2024, time.June, 3), "VOD", Buy, Q(100), stg(200), stg(1)),
			NewTrade(day(2024, time.June, 3), "VOD", Sell, Q(50), stg(150), stg(1)),
		)
		return l
	}
	render := func(res *Result) []byte {
		var buf bytes.Buffer
		for _, c := range res.Calculations {
			b, err := json.Marshal(c)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			buf.Write(b)
			buf.WriteByte('\n')
		}
		return buf.Bytes()
	}

	a := render(mustCalculate(t, build(), nil))
	b := render(mustCalculate(t, build(), nil))
	if !bytes.Equal(a, b) {
		t.Errorf("two fresh sessions differ:\n%s\n----\n%s", a, b)
	}
}

func TestCalculate_CurrencyMismatchFailsFast(t *testing.T) {
	l := NewLedger()
	bad := Amount{Original: USD(100), Base: USD(100)} // base not converted upstream
	mustAppend(t, l,
		NewTrade(day(2024, time.June, 3), "AAPL", Buy, Q(10), bad, stg(1)),
		NewTrade(day(2024, time.July, 3), "AAPL", Sell, Q(10), stg(200), stg(0)),
	)
	_, err := NewSession().Calculate(l, nil)
	if err == nil {
		t.Fatal("Calculate() expected a currency mismatch error")
	}
	if !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("Calculate() error = %v, want ErrCurrencyMismatch", err)
	}
}

func TestLedger_DuplicatesSurfaceInResult(t *testing.T) {
	l := NewLedger()
	d := day(2024, time.June, 3)
	tr := NewTrade(d, "VOD", Buy, Q(100), stg(200), stg(0))
	mustAppend(t, l, tr, tr)
	res := mustCalculate(t, l, nil)
	if len(res.Duplicates) != 1 {
		t.Fatalf("got %d duplicates, want 1", len(res.Duplicates))
	}
	if res.Duplicates[0].Identity() != tr.Identity() {
		t.Errorf("duplicate identity = %q, want %q", res.Duplicates[0].Identity(), tr.Identity())
	}
}
