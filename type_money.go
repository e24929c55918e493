package cgt

import (
	"encoding/json"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// BaseCurrency is the currency every engine amount is normalized into.
const BaseCurrency = "GBP"

// Money represents a monetary value.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// GBP is shorthand for a base-currency amount.
func GBP[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Money {
	return M(value, BaseCurrency)
}

// currency returns the money's full currency definition.
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.Round(0).IntPart())
}

func (m Money) Currency() string                { return m.cur }
func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
// comparison operators share Add/Sub's currency rules: the "" currency is
// weak, a genuine mismatch fails fast.
func (m Money) LessThan(n Money) bool           { cur(m, n); return m.value.LessThan(n.value) }
func (m Money) LessThanOrEqual(n Money) bool    { cur(m, n); return m.value.LessThanOrEqual(n.value) }
func (m Money) GreaterThan(n Money) bool        { cur(m, n); return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { cur(m, n); return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Mul(n Quantity) Money            { return Money{value: m.value.Mul(n.value), cur: m.cur} }
func (m Money) Div(n Quantity) Money            { return Money{value: m.value.Div(n.value), cur: m.cur} }

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// cur merges two currencies, the "" currency is totally weak.
// A genuine mismatch fails fast: it panics with an error wrapping
// ErrCurrencyMismatch, recovered at the calculation boundary.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic(fmt.Errorf("%w: %s != %s", ErrCurrencyMismatch, A.cur, B.cur))
	}
	return A.cur
}

// Round returns the amount rounded to the currency's minor unit.
func (m Money) Round() Money {
	return Money{value: m.value.Round(int32(m.currency().Fraction)), cur: m.cur}
}

// WithinMinorUnit reports whether two amounts differ by at most one minor
// currency unit, the tolerance used when reconciling proportional shares.
func (m Money) WithinMinorUnit(n Money) bool {
	diff := m.Sub(n).value.Abs()
	unit := decimal.New(1, -int32(m.currency().Fraction))
	return diff.LessThanOrEqual(unit)
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-".
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// MarshalJSON implements the json.Marshaler interface for Money.
func (m Money) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("currency", m.cur)
	w.Append("amount", m.value)
	return w.MarshalJSON()
}

// moneyJSON is a specialized struct to decode a money value from two fields.
type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (a moneyJSON) Money() Money { return M(a.Amount, a.Currency) }

// UnmarshalJSON implements the json.Unmarshaler interface for Money.
func (m *Money) UnmarshalJSON(data []byte) error {
	var j moneyJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*m = j.Money()
	return nil
}
