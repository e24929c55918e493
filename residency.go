package cgt

import (
	"fmt"
	"sort"
)

// ResidencyStatus is the taxpayer's UK residence position over a period.
type ResidencyStatus string

const (
	// Resident: ordinary UK residence, all matches taxable.
	Resident ResidencyStatus = "resident"
	// NonResident: outside the UK tax net. Disposals escape UK tax
	// (unless the asset keeps a UK situs) and acquisitions made in the
	// period do not pair with resident-period disposals.
	NonResident ResidencyStatus = "non-resident"
	// TemporaryNonResident: a non-resident spell short enough that the
	// anti-avoidance rules tax its disposals on return, except for
	// assets both acquired and disposed of within the same spell.
	TemporaryNonResident ResidencyStatus = "temporary-non-resident"
)

// ResidencyPeriod is one span of the taxpayer's residence history. A zero
// To date means the period is open-ended.
type ResidencyPeriod struct {
	From   Date
	To     Date
	Status ResidencyStatus
}

// Contains reports whether the day falls inside the period, inclusive.
func (p ResidencyPeriod) Contains(day Date) bool {
	if day.Before(p.From) {
		return false
	}
	return p.To.IsZero() || !day.After(p.To)
}

// ResidencyTimeline is the taxpayer's residence history. Days not covered
// by any period default to Resident.
type ResidencyTimeline struct {
	periods []ResidencyPeriod
}

// NewResidencyTimeline builds a timeline from the given periods, sorted by
// start date. Overlapping periods are an upstream data error.
func NewResidencyTimeline(periods ...ResidencyPeriod) (*ResidencyTimeline, error) {
	sorted := make([]ResidencyPeriod, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].From.Before(sorted[j].From) })
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.To.IsZero() || !prev.To.Before(sorted[i].From) {
			return nil, fmt.Errorf("%w: residency periods overlap at %s", ErrInvalidOperation, sorted[i].From)
		}
	}
	return &ResidencyTimeline{periods: sorted}, nil
}

// StatusOn returns the residence status on the given day.
func (t *ResidencyTimeline) StatusOn(day Date) ResidencyStatus {
	if t == nil {
		return Resident
	}
	for _, p := range t.periods {
		if p.Contains(day) {
			return p.Status
		}
	}
	return Resident
}

// indexOf returns the index of the period covering the day, or -1.
func (t *ResidencyTimeline) indexOf(day Date) int {
	if t == nil {
		return -1
	}
	for i, p := range t.periods {
		if p.Contains(day) {
			return i
		}
	}
	return -1
}

// SameNonResidentSpan reports whether both days fall inside one continuous
// spell abroad. A spell may be recorded as several date-contiguous
// non-resident or temporarily non-resident periods; a gap, an open end
// before the other day, or an intervening resident period breaks it.
func (t *ResidencyTimeline) SameNonResidentSpan(a, b Date) bool {
	ia, ib := t.indexOf(a), t.indexOf(b)
	if ia < 0 || ib < 0 ||
		t.periods[ia].Status == Resident || t.periods[ib].Status == Resident {
		return false
	}
	if ia > ib {
		ia, ib = ib, ia
	}
	for i := ia; i < ib; i++ {
		p, next := t.periods[i], t.periods[i+1]
		if next.Status == Resident || p.To.IsZero() || !p.To.Add(1).Equal(next.From) {
			return false
		}
	}
	return true
}

// SuppressesPairing reports whether the same-day and bed-and-breakfast
// rules must skip the pairing of these two dates. A plainly non-resident
// leg never pairs; a temporarily non-resident leg still does, because its
// disposals come back into charge on return.
func (t *ResidencyTimeline) SuppressesPairing(disposal, acquisition Date) bool {
	return t.StatusOn(disposal) == NonResident || t.StatusOn(acquisition) == NonResident
}

// Verdict classifies a match's taxability from the residence position on
// its two legs. ukSitus marks assets whose disposals stay within the UK
// tax net regardless of residence.
func (t *ResidencyTimeline) Verdict(disposal, acquisition Date, ukSitus bool) Taxability {
	switch t.StatusOn(disposal) {
	case NonResident:
		if ukSitus {
			return Taxable
		}
		return NonTaxable
	case TemporaryNonResident:
		if ukSitus {
			return Taxable
		}
		// Acquired and disposed of within the same spell abroad:
		// outside the anti-avoidance net for good.
		if t.SameNonResidentSpan(disposal, acquisition) {
			return NonTaxable
		}
		return Taxable
	default:
		return Taxable
	}
}
