package cgt

import (
	"testing"
	"time"
)

// USD is a helper for tests to create dollar money from const.
func USD(v float64) Money { return M(v, "USD") }

// day is a helper for tests to create dates tersely.
func day(y int, m time.Month, d int) Date { return NewDate(y, m, d) }

// stg is a helper for tests to create a sterling Amount from const.
func stg(v float64) Amount { return Sterling(v) }

// mustAppend fails the test on any invalid event.
func mustAppend(t *testing.T, l *Ledger, events ...TaxEvent) {
	t.Helper()
	if err := l.Append(events...); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
}

// mustCalculate runs a fresh session over the ledger and fails on error.
func mustCalculate(t *testing.T, l *Ledger, timeline *ResidencyTimeline) *Result {
	t.Helper()
	res, err := NewSession().Calculate(l, timeline)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	return res
}

// disposalOn returns the single disposal calculation of the asset on the day.
func disposalOn(t *testing.T, res *Result, asset string, d Date) *Calculation {
	t.Helper()
	for _, c := range res.Calculations {
		if c.Asset == asset && c.IsDisposal() && c.Date.Equal(d) {
			return c
		}
	}
	t.Fatalf("no disposal of %s on %s", asset, d)
	return nil
}

// wantMoney fails unless got equals want to within one minor unit.
func wantMoney(t *testing.T, name string, got, want Money) {
	t.Helper()
	if !got.WithinMinorUnit(want) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
