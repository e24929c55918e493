package cgt

import (
	"testing"
)

func TestMoney_AddMergesWeakCurrency(t *testing.T) {
	var zero Money // currency-less zero value
	got := zero.Add(GBP(10))
	if got.Currency() != BaseCurrency {
		t.Errorf("currency = %q, want %q", got.Currency(), BaseCurrency)
	}
	wantMoney(t, "sum", got, GBP(10))
}

func TestMoney_AddMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Add() across currencies expected a panic")
		}
	}()
	_ = GBP(10).Add(USD(10))
}

func TestMoney_CompareMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("LessThan() across currencies expected a panic")
		}
	}()
	_ = GBP(10).LessThan(USD(10))
}

func TestMoney_CompareWeakCurrency(t *testing.T) {
	var zero Money
	if !zero.LessThan(GBP(10)) {
		t.Error("a currency-less zero must compare below £10")
	}
	if !GBP(10).GreaterThan(zero) {
		t.Error("£10 must compare above a currency-less zero")
	}
}

func TestMoney_ProportionalShare(t *testing.T) {
	total := GBP(1850)
	share := total.Mul(Q(3500)).Div(Q(9500))
	wantMoney(t, "share", share, GBP(681.58))
}

func TestMoney_WithinMinorUnit(t *testing.T) {
	if !GBP(100).WithinMinorUnit(GBP(100.01)) {
		t.Error("one penny apart must be within tolerance")
	}
	if GBP(100).WithinMinorUnit(GBP(100.02)) {
		t.Error("two pence apart must be outside tolerance")
	}
}

func TestMoney_RoundToMinorUnit(t *testing.T) {
	got := GBP(681.5789)
	if !got.Round().Equal(GBP(681.58)) {
		t.Errorf("Round() = %s, want %s", got.Round(), GBP(681.58))
	}
}

func TestMoney_SignedString(t *testing.T) {
	if got := GBP(0).SignedString(); got != "-" {
		t.Errorf("SignedString(0) = %q, want \"-\"", got)
	}
	if got := GBP(5).SignedString(); got == "" || got[0] != '+' {
		t.Errorf("SignedString(5) = %q, want a leading +", got)
	}
}

func TestAmount_SterlingCarriesBothLegs(t *testing.T) {
	a := Sterling(100)
	if !a.Original.Equal(GBP(100)) || !a.Base.Equal(GBP(100)) {
		t.Errorf("Sterling(100) = %+v, want both legs at £100", a)
	}
}

func TestQuantity_MinAndFloor(t *testing.T) {
	if got := Q(3).Min(Q(5)); !got.Equal(Q(3)) {
		t.Errorf("Min = %s, want 3", got)
	}
	if got := Q(2.5).Floor(); !got.Equal(Q(2)) {
		t.Errorf("Floor = %s, want 2", got)
	}
}
