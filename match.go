package cgt

import "fmt"

// MatchType identifies which identification rule paired a disposal with an
// acquisition. The order of the constants is the statutory priority order.
type MatchType string

const (
	SameDay         MatchType = "same-day"
	BedAndBreakfast MatchType = "bed-and-breakfast"
	ShortCover      MatchType = "short-cover"
	Section104      MatchType = "section-104"
)

// Taxability classifies a match under the residency overlay.
type Taxability string

const (
	Taxable    Taxability = "taxable"
	NonTaxable Taxability = "non-taxable"
)

// PoolSnapshot captures a Section 104 pool's state at the moment a match
// consumed it, so a report can show the pool before and after each disposal.
type PoolSnapshot struct {
	Quantity Quantity
	Cost     Money
}

// MarshalJSON implements the json.Marshaler interface for PoolSnapshot.
func (s PoolSnapshot) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("quantity", s.Quantity)
	w.Append("cost", s.Cost)
	return w.MarshalJSON()
}

// TradeMatch pairs a quantity disposed of with the acquisition cost that
// identifies it. One match object is shared by both sides' histories: the
// disposal calculation and (for same-day, bed-and-breakfast and short-cover
// matches) the acquisition calculation hold the same pointer.
type TradeMatch struct {
	Type     MatchType
	Quantity Quantity
	Cost     Money // identified acquisition cost, in base currency
	Proceeds Money // disposal proceeds for the matched quantity

	// Calculation ids of the two sides. AcquisitionID is zero for
	// Section 104 matches, where the other side is the pool itself.
	DisposalID    int
	AcquisitionID int

	// Dates of the two legs. For Section 104 matches AcquisitionDate is
	// the date the pool last acquired shares.
	DisposalDate    Date
	AcquisitionDate Date

	Taxability Taxability
	Note       string

	// Pool state around a Section 104 match.
	PoolBefore *PoolSnapshot
	PoolAfter  *PoolSnapshot
}

// Gain returns proceeds minus identified cost. Non-taxable matches
// contribute zero to a tax year's totals but still report their raw gain.
func (m *TradeMatch) Gain() Money { return m.Proceeds.Sub(m.Cost) }

// IsTaxable reports whether the match counts toward taxable totals.
func (m *TradeMatch) IsTaxable() bool { return m.Taxability != NonTaxable }

// String implements the Stringer interface for TradeMatch.
func (m *TradeMatch) String() string {
	return fmt.Sprintf("%s %s: cost %s, proceeds %s", m.Type, m.Quantity, m.Cost, m.Proceeds)
}

// MarshalJSON implements the json.Marshaler interface for TradeMatch.
func (m *TradeMatch) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", m.Type)
	w.Append("quantity", m.Quantity)
	w.Append("cost", m.Cost)
	w.Append("proceeds", m.Proceeds)
	w.Append("disposal", m.DisposalID)
	w.Optional("acquisition", m.AcquisitionID)
	w.Append("disposalDate", m.DisposalDate)
	if !m.AcquisitionDate.IsZero() {
		w.Append("acquisitionDate", m.AcquisitionDate)
	}
	w.Append("taxability", m.Taxability)
	w.Optional("note", m.Note)
	if m.PoolBefore != nil {
		w.Append("poolBefore", *m.PoolBefore)
	}
	if m.PoolAfter != nil {
		w.Append("poolAfter", *m.PoolAfter)
	}
	return w.MarshalJSON()
}
