package cgt

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Amount is a money flow carried in two units: the originating currency of
// the trade and the pre-converted base-currency value the engine computes
// with. Input normalization (out of scope here) performs the conversion;
// the engine never looks up exchange rates.
type Amount struct {
	Original Money // amount in the instrument's currency
	Base     Money // the same amount converted to BaseCurrency
}

// A builds an Amount from an original value and its base-currency conversion.
func A(original Money, base decimal.Decimal) Amount {
	return Amount{Original: original, Base: M(base, BaseCurrency)}
}

// Sterling builds an Amount already denominated in the base currency.
func Sterling[T float32 | float64 | int | int64 | decimal.Decimal](value T) Amount {
	m := M(value, BaseCurrency)
	return Amount{Original: m, Base: m}
}

func (a Amount) Add(b Amount) Amount {
	return Amount{Original: a.Original.Add(b.Original), Base: a.Base.Add(b.Base)}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{Original: a.Original.Sub(b.Original), Base: a.Base.Sub(b.Base)}
}

func (a Amount) IsZero() bool { return a.Base.IsZero() }

func (a Amount) Equal(b Amount) bool {
	return a.Original.Equal(b.Original) && a.Base.Equal(b.Base)
}

// MarshalJSON implements the json.Marshaler interface for Amount.
func (a Amount) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("currency", a.Original.cur)
	w.Append("amount", a.Original.value)
	if a.Original.cur != BaseCurrency {
		w.Append("base", a.Base.value)
	}
	return w.MarshalJSON()
}

// amountJSON is a specialized struct to decode an Amount from its flat fields.
type amountJSON struct {
	Amount   decimal.Decimal  `json:"amount"`
	Currency string           `json:"currency"`
	Base     *decimal.Decimal `json:"base"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for Amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var j amountJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*a = j.Value()
	return nil
}

func (a amountJSON) Value() Amount {
	currency := a.Currency
	if currency == "" {
		currency = BaseCurrency
	}
	base := a.Amount
	if a.Base != nil {
		base = *a.Base
	}
	return A(M(a.Amount, currency), base)
}
