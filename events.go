package cgt

import (
	"fmt"
)

// EventType is a typed string for identifying tax event records.
type EventType string

// Event types used for identifying records in a ledger.
const (
	EvtTrade      EventType = "trade"
	EvtAction     EventType = "action"
	EvtDividend   EventType = "dividend"
	EvtSettlement EventType = "settlement"
	EvtDeclare    EventType = "declare"
)

// TaxEvent defines the common interface for all records the engine consumes.
// Events are immutable once appended to a Ledger; the engine mutates only
// derived calculation objects, never the events themselves.
type TaxEvent interface {
	What() EventType // What returns the kind of record (e.g. "trade", "action").
	Asset() string   // Asset returns the identifier of the instrument involved.
	When() Date      // When returns the date on which the event occurred.
	Seq() int        // Seq returns the stable input order, the tiebreak for same-day events.
	Equal(TaxEvent) bool
	Validate(ledger *Ledger) error
}

type baseEvent struct {
	Event    EventType
	Security string // asset identifier (ticker or contract name)
	Date     Date
	Memo     string
	seq      int // assigned by Ledger.Append
}

// withSeq returns a copy of the event with its input order stamped.
// Ledger.Append calls it once per append; events keep value semantics.
type seqStamper interface {
	withSeq(n int) TaxEvent
}

func (e baseEvent) What() EventType { return e.Event }
func (e baseEvent) Asset() string   { return e.Security }
func (e baseEvent) When() Date      { return e.Date }
func (e baseEvent) Seq() int        { return e.seq }

func (e baseEvent) validate() error {
	if e.Security == "" {
		return fmt.Errorf("%w: event is missing an asset identifier", ErrInvalidOperation)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: event on %q is missing a date", ErrInvalidOperation, e.Security)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for baseEvent.
func (e baseEvent) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("event", e.Event)
	w.Append("security", e.Security)
	w.Append("date", e.Date)
	w.Optional("memo", e.Memo)
	return w.MarshalJSON()
}

// --- Trade ---

// TradeKind distinguishes the instrument classes the engine knows about.
type TradeKind string

const (
	Stock  TradeKind = "stock"
	FX     TradeKind = "fx"
	Option TradeKind = "option"
	Future TradeKind = "future"
)

// Side is the direction of a trade.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// OptionStatus records how an option or future position terminated, if it did.
type OptionStatus string

const (
	StatusOpen        OptionStatus = ""
	StatusExpired     OptionStatus = "expired"
	StatusExercised   OptionStatus = "exercised"
	StatusAssigned    OptionStatus = "assigned"
	StatusCashSettled OptionStatus = "cash-settled"
)

// Trade represents one fill: a purchase or sale of a stock, FX position,
// option contract or future. Fills on the same asset, side and day aggregate
// into a single taxable lot during a calculation pass.
type Trade struct {
	baseEvent
	Kind     TradeKind
	Side     Side
	Quantity Quantity
	Gross    Amount // total consideration, excluding expenses
	Expenses Amount // commissions, fees, stamp duty

	// Option and future fields.
	Underlying    string       // underlying asset of an option contract
	Strike        Money        // strike price per unit, informational
	Status        OptionStatus // how the position terminated, if at all
	ExerciseOf    string       // asset of the option whose exercise produced this trade
	ContractValue Amount       // futures: nominal contract value
}

// NewTrade creates a plain stock trade.
func NewTrade(day Date, security string, side Side, quantity Quantity, gross, expenses Amount) Trade {
	return Trade{
		baseEvent: baseEvent{Event: EvtTrade, Security: security, Date: day},
		Kind:      Stock,
		Side:      side,
		Quantity:  quantity,
		Gross:     gross,
		Expenses:  expenses,
	}
}

// NewOptionTrade creates an option trade for the named contract.
func NewOptionTrade(day Date, contract, underlying string, side Side, quantity Quantity, gross, expenses Amount) Trade {
	t := NewTrade(day, contract, side, quantity, gross, expenses)
	t.Kind = Option
	t.Underlying = underlying
	return t
}

// NewFutureTrade creates a future trade carrying its nominal contract value.
func NewFutureTrade(day Date, contract string, side Side, quantity Quantity, gross, expenses, contractValue Amount) Trade {
	t := NewTrade(day, contract, side, quantity, gross, expenses)
	t.Kind = Future
	t.ContractValue = contractValue
	return t
}

func (t Trade) withSeq(n int) TaxEvent { t.seq = n; return t }

// Cost returns the total acquisition cost of the fill (gross plus expenses).
func (t Trade) Cost() Money { return t.Gross.Base.Add(t.Expenses.Base) }

// NetProceeds returns the disposal proceeds net of expenses.
func (t Trade) NetProceeds() Money { return t.Gross.Base.Sub(t.Expenses.Base) }

// IsDisposal reports whether the fill disposes of the asset.
func (t Trade) IsDisposal() bool { return t.Side == Sell }

// Identity returns a stable identity for duplicate detection. It is computed
// from the originating fields only, never from values patched later by a
// cash-settlement reconciliation.
func (t Trade) Identity() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		t.Security, t.Date, t.Side, t.Quantity, t.Gross.Original.value, t.Gross.Original.cur)
}

func (t Trade) Equal(other TaxEvent) bool {
	o, ok := other.(Trade)
	return ok && t.Security == o.Security && t.Date == o.Date &&
		t.Kind == o.Kind && t.Side == o.Side && t.Quantity.Equal(o.Quantity) &&
		t.Gross.Equal(o.Gross) && t.Expenses.Equal(o.Expenses) &&
		t.Status == o.Status && t.Underlying == o.Underlying
}

// Validate checks the trade's fields for upstream data errors.
func (t Trade) Validate(ledger *Ledger) error {
	if err := t.baseEvent.validate(); err != nil {
		return err
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("%w: trade quantity must be positive, got %s", ErrInvalidOperation, t.Quantity)
	}
	if t.Gross.Base.IsNegative() {
		return fmt.Errorf("%w: trade gross amount must not be negative, got %s", ErrInvalidOperation, t.Gross.Base)
	}
	if t.Kind == Option && t.Underlying == "" && t.Status != StatusOpen {
		return fmt.Errorf("%w: option trade on %q is missing its underlying", ErrInvalidOperation, t.Security)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Trade.
func (t Trade) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(t.baseEvent)
	w.Append("kind", t.Kind)
	w.Append("side", t.Side)
	w.Append("quantity", t.Quantity)
	w.Append("gross", t.Gross)
	if !t.Expenses.IsZero() {
		w.Append("expenses", t.Expenses)
	}
	w.Optional("underlying", t.Underlying)
	if !t.Strike.IsZero() {
		w.Append("strike", t.Strike)
	}
	w.Optional("status", string(t.Status))
	w.Optional("exerciseOf", t.ExerciseOf)
	if !t.ContractValue.IsZero() {
		w.Append("contractValue", t.ContractValue)
	}
	return w.MarshalJSON()
}

// --- Corporate actions ---

// ActionKind identifies the corporate action variants. The processor switches
// exhaustively over this closed set: adding a kind is a compile-time exercise.
type ActionKind string

const (
	StockSplit             ActionKind = "split"
	Takeover               ActionKind = "takeover"
	Spinoff                ActionKind = "spinoff"
	PartnerTransfer        ActionKind = "partner-transfer"
	ReturnOfCapital        ActionKind = "return-of-capital"
	ExcessReportableIncome ActionKind = "excess-income"
)

// TransferDirection is the direction of a partner transfer.
type TransferDirection string

const (
	Gift    TransferDirection = "gift"
	Receive TransferDirection = "receive"
)

// CorporateAction represents one corporate event adjusting a Section 104
// pool. The Kind discriminates which of the optional fields are meaningful.
type CorporateAction struct {
	baseEvent
	Kind ActionKind

	// Split and takeover ratio: To new shares for every From old shares.
	From int64
	To   int64

	// Cash paid out: cash-in-lieu of a fractional share (split, spinoff)
	// or the cash component of a takeover consideration.
	Cash *Amount
	// ElectTaxDeferral applies the s122 TCGA small-distribution election.
	ElectTaxDeferral bool

	// Takeover and spinoff destination.
	NewAsset       string
	NewSharesValue Amount   // market value of the new-company shares received
	RemainingValue Amount   // spinoff: market value retained by the parent
	SpinRatio      Quantity // spinoff: spun-off shares per parent share

	// Partner transfer.
	Direction       TransferDirection
	Quantity        Quantity
	TransferredCost *Amount

	// Return of capital and excess reportable income.
	Value      Amount
	IncomeType string // excess reportable income classification
}

func (a CorporateAction) withSeq(n int) TaxEvent { a.seq = n; return a }

func (a CorporateAction) Equal(other TaxEvent) bool {
	o, ok := other.(CorporateAction)
	return ok && a.Security == o.Security && a.Date == o.Date && a.Kind == o.Kind &&
		a.From == o.From && a.To == o.To && a.NewAsset == o.NewAsset &&
		a.Direction == o.Direction && a.Quantity.Equal(o.Quantity) &&
		a.Value.Equal(o.Value)
}

// Validate checks the fields required by the action kind.
func (a CorporateAction) Validate(ledger *Ledger) error {
	if err := a.baseEvent.validate(); err != nil {
		return err
	}
	switch a.Kind {
	case StockSplit:
		if a.From <= 0 || a.To <= 0 {
			return fmt.Errorf("%w: split ratio must be positive, got %d:%d", ErrInvalidOperation, a.From, a.To)
		}
	case Takeover:
		if a.From <= 0 || a.To <= 0 {
			return fmt.Errorf("%w: takeover ratio must be positive, got %d:%d", ErrInvalidOperation, a.From, a.To)
		}
		if a.NewAsset == "" {
			return fmt.Errorf("%w: takeover of %q is missing the acquiring company", ErrInvalidOperation, a.Security)
		}
	case Spinoff:
		if a.NewAsset == "" {
			return fmt.Errorf("%w: spinoff of %q is missing the new company", ErrInvalidOperation, a.Security)
		}
		if !a.SpinRatio.IsPositive() {
			return fmt.Errorf("%w: spinoff ratio must be positive, got %s", ErrInvalidOperation, a.SpinRatio)
		}
		if !a.NewSharesValue.Base.IsPositive() {
			return fmt.Errorf("%w: spinoff of %q needs the new shares' market value", ErrInvalidOperation, a.Security)
		}
		if a.RemainingValue.Base.IsNegative() {
			return fmt.Errorf("%w: spinoff of %q has a negative remaining value", ErrInvalidOperation, a.Security)
		}
	case PartnerTransfer:
		if a.Direction != Gift && a.Direction != Receive {
			return fmt.Errorf("%w: partner transfer needs a direction", ErrInvalidOperation)
		}
		if !a.Quantity.IsPositive() {
			return fmt.Errorf("%w: partner transfer quantity must be positive, got %s", ErrInvalidOperation, a.Quantity)
		}
	case ReturnOfCapital, ExcessReportableIncome:
		if !a.Value.Base.IsPositive() {
			return fmt.Errorf("%w: %s amount must be positive", ErrInvalidOperation, a.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown corporate action kind %q", ErrInvalidOperation, a.Kind)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for CorporateAction.
func (a CorporateAction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(a.baseEvent)
	w.Append("kind", a.Kind)
	w.Optional("from", a.From)
	w.Optional("to", a.To)
	if a.Cash != nil {
		w.Append("cash", *a.Cash)
	}
	w.Optional("electTaxDeferral", a.ElectTaxDeferral)
	w.Optional("newAsset", a.NewAsset)
	if !a.NewSharesValue.IsZero() {
		w.Append("newSharesValue", a.NewSharesValue)
	}
	if !a.RemainingValue.IsZero() {
		w.Append("remainingValue", a.RemainingValue)
	}
	if !a.SpinRatio.IsZero() {
		w.Append("spinRatio", a.SpinRatio)
	}
	w.Optional("direction", string(a.Direction))
	if !a.Quantity.IsZero() {
		w.Append("quantity", a.Quantity)
	}
	if a.TransferredCost != nil {
		w.Append("transferredCost", *a.TransferredCost)
	}
	if !a.Value.IsZero() {
		w.Append("value", a.Value)
	}
	w.Optional("incomeType", a.IncomeType)
	return w.MarshalJSON()
}

// --- Dividend ---

// Dividend represents a dividend payment received for a held security.
// Returns of capital are not dividends: they are corporate actions and are
// excluded from taxable dividend totals.
type Dividend struct {
	baseEvent
	Value    Amount // gross dividend received
	Withheld Amount // tax withheld at source
}

// NewDividend creates a new Dividend event.
func NewDividend(day Date, security string, value, withheld Amount) Dividend {
	return Dividend{
		baseEvent: baseEvent{Event: EvtDividend, Security: security, Date: day},
		Value:     value,
		Withheld:  withheld,
	}
}

func (d Dividend) withSeq(n int) TaxEvent { d.seq = n; return d }

func (d Dividend) Equal(other TaxEvent) bool {
	o, ok := other.(Dividend)
	return ok && d.Security == o.Security && d.Date == o.Date &&
		d.Value.Equal(o.Value) && d.Withheld.Equal(o.Withheld)
}

func (d Dividend) Validate(ledger *Ledger) error {
	if err := d.baseEvent.validate(); err != nil {
		return err
	}
	if !d.Value.Base.IsPositive() {
		return fmt.Errorf("%w: dividend must have a positive amount", ErrInvalidOperation)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Dividend.
func (d Dividend) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(d.baseEvent)
	w.Append("value", d.Value)
	if !d.Withheld.IsZero() {
		w.Append("withheld", d.Withheld)
	}
	return w.MarshalJSON()
}

// --- Cash settlement ---

// CashSettlement reports the externally observed settlement amount of a
// cash-settled option or future. It never mutates the terminating trade:
// the reconciliation step produces a corrected copy instead.
type CashSettlement struct {
	baseEvent
	Value Amount // the reported settlement amount, replacing the nominal gross
}

// NewCashSettlement creates a new CashSettlement event.
func NewCashSettlement(day Date, security string, value Amount) CashSettlement {
	return CashSettlement{
		baseEvent: baseEvent{Event: EvtSettlement, Security: security, Date: day},
		Value:     value,
	}
}

func (c CashSettlement) withSeq(n int) TaxEvent { c.seq = n; return c }

func (c CashSettlement) Equal(other TaxEvent) bool {
	o, ok := other.(CashSettlement)
	return ok && c.Security == o.Security && c.Date == o.Date && c.Value.Equal(o.Value)
}

func (c CashSettlement) Validate(ledger *Ledger) error {
	return c.baseEvent.validate()
}

// MarshalJSON implements the json.Marshaler interface for CashSettlement.
func (c CashSettlement) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(c.baseEvent)
	w.Append("value", c.Value)
	return w.MarshalJSON()
}

// --- Declare ---

// Declare registers instrument metadata in the ledger: its currency and
// whether it stays within the UK tax net while the holder is non-resident.
type Declare struct {
	baseEvent
	Currency string
	// UKTaxableSitus marks assets (UK land, certain UK property-rich funds)
	// whose disposals remain taxable during non-resident periods.
	UKTaxableSitus bool
}

// NewDeclare creates a new Declare event.
func NewDeclare(day Date, security, currency string, ukTaxableSitus bool) Declare {
	return Declare{
		baseEvent:      baseEvent{Event: EvtDeclare, Security: security, Date: day},
		Currency:       currency,
		UKTaxableSitus: ukTaxableSitus,
	}
}

func (d Declare) withSeq(n int) TaxEvent { d.seq = n; return d }

func (d Declare) Equal(other TaxEvent) bool {
	o, ok := other.(Declare)
	return ok && d.Security == o.Security && d.Currency == o.Currency &&
		d.UKTaxableSitus == o.UKTaxableSitus
}

func (d Declare) Validate(ledger *Ledger) error {
	return d.baseEvent.validate()
}

// MarshalJSON implements the json.Marshaler interface for Declare.
func (d Declare) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(d.baseEvent)
	w.Optional("currency", d.Currency)
	w.Optional("ukTaxableSitus", d.UKTaxableSitus)
	return w.MarshalJSON()
}
