package cgt

import (
	"testing"
	"time"
)

func abroad(from, to Date, status ResidencyStatus) ResidencyPeriod {
	return ResidencyPeriod{From: from, To: to, Status: status}
}

func TestResidencyTimeline_StatusOnDefaultsToResident(t *testing.T) {
	tl, err := NewResidencyTimeline(
		abroad(day(2020, time.July, 1), day(2022, time.June, 30), NonResident),
	)
	if err != nil {
		t.Fatalf("NewResidencyTimeline() error = %v", err)
	}
	cases := []struct {
		day  Date
		want ResidencyStatus
	}{
		{day(2020, time.June, 30), Resident},
		{day(2020, time.July, 1), NonResident},
		{day(2022, time.June, 30), NonResident},
		{day(2022, time.July, 1), Resident},
	}
	for _, tc := range cases {
		if got := tl.StatusOn(tc.day); got != tc.want {
			t.Errorf("StatusOn(%s) = %s, want %s", tc.day, got, tc.want)
		}
	}
}

func TestResidencyTimeline_OverlappingPeriodsFail(t *testing.T) {
	_, err := NewResidencyTimeline(
		abroad(day(2020, time.July, 1), day(2022, time.June, 30), NonResident),
		abroad(day(2021, time.January, 1), day(2021, time.December, 31), Resident),
	)
	if err == nil {
		t.Fatal("NewResidencyTimeline() expected an error for overlapping periods")
	}
}

// The worked residency scenario: a disposal while non-resident of an asset
// acquired while resident escapes UK tax; the same disposal after returning
// is taxable.
func TestCalculate_NonResidentDisposalIsNonTaxable(t *testing.T) {
	tl, err := NewResidencyTimeline(
		abroad(day(2023, time.July, 1), day(2025, time.June, 30), NonResident),
	)
	if err != nil {
		t.Fatalf("NewResidencyTimeline() error = %v", err)
	}

	build := func(sellDay Date) *Ledger {
		l := NewLedger()
		mustAppend(t, l,
			NewTrade(day(2022, time.May, 2), "VOD", Buy, Q(100), stg(100), stg(0)),
			NewTrade(sellDay, "VOD", Sell, Q(100), stg(200), stg(0)),
		)
		return l
	}

	// Disposal abroad.
	res := mustCalculate(t, build(day(2024, time.May, 2)), tl)
	c := disposalOn(t, res, "VOD", day(2024, time.May, 2))
	if c.Matches[0].Taxability != NonTaxable {
		t.Errorf("abroad disposal taxability = %s, want %s", c.Matches[0].Taxability, NonTaxable)
	}
	if !c.TaxableGain().IsZero() {
		t.Errorf("abroad disposal taxable gain = %s, want zero", c.TaxableGain())
	}

	// Disposal after returning.
	res = mustCalculate(t, build(day(2025, time.August, 4)), tl)
	c = disposalOn(t, res, "VOD", day(2025, time.August, 4))
	if c.Matches[0].Taxability != Taxable {
		t.Errorf("returned disposal taxability = %s, want %s", c.Matches[0].Taxability, Taxable)
	}
}

func TestCalculate_UKSitusStaysTaxableWhileAbroad(t *testing.T) {
	tl, err := NewResidencyTimeline(
		abroad(day(2023, time.July, 1), day(2025, time.June, 30), NonResident),
	)
	if err != nil {
		t.Fatalf("NewResidencyTimeline() error = %v", err)
	}
	l := NewLedger()
	mustAppend(t, l,
		NewDeclare(day(2022, time.January, 1), "UKLAND", BaseCurrency, true),
		NewTrade(day(2022, time.May, 2), "UKLAND", Buy, Q(1), stg(100), stg(0)),
		NewTrade(day(2024, time.May, 2), "UKLAND", Sell, Q(1), stg(200), stg(0)),
	)
	res := mustCalculate(t, l, tl)
	c := disposalOn(t, res, "UKLAND", day(2024, time.May, 2))
	if c.Matches[0].Taxability != Taxable {
		t.Errorf("UK-situs disposal abroad = %s, want %s", c.Matches[0].Taxability, Taxable)
	}
}

// Temporarily non-resident: positions opened and closed within the same
// spell abroad stay out of charge; everything else comes back into charge
// on return.
func TestCalculate_TemporaryNonResidentSameSpanExemption(t *testing.T) {
	tnrFrom, tnrTo := day(2023, time.July, 1), day(2025, time.June, 30)
	tl, err := NewResidencyTimeline(abroad(tnrFrom, tnrTo, TemporaryNonResident))
	if err != nil {
		t.Fatalf("NewResidencyTimeline() error = %v", err)
	}

	l := NewLedger()
	mustAppend(t, l,
		// Held before departure, sold abroad: taxed on return.
		NewTrade(day(2022, time.May, 2), "VOD", Buy, Q(100), stg(100), stg(0)),
		NewTrade(day(2024, time.May, 2), "VOD", Sell, Q(100), stg(200), stg(0)),
		// Opened and closed within the spell: out of charge.
		NewTrade(day(2023, time.September, 4), "BARC", Buy, Q(50), stg(100), stg(0)),
		NewTrade(day(2024, time.September, 4), "BARC", Sell, Q(50), stg(150), stg(0)),
	)
	res := mustCalculate(t, l, tl)

	vod := disposalOn(t, res, "VOD", day(2024, time.May, 2))
	if vod.Matches[0].Taxability != Taxable {
		t.Errorf("pre-departure holding = %s, want %s", vod.Matches[0].Taxability, Taxable)
	}
	barc := disposalOn(t, res, "BARC", day(2024, time.September, 4))
	if barc.Matches[0].Taxability != NonTaxable {
		t.Errorf("same-span position = %s, want %s", barc.Matches[0].Taxability, NonTaxable)
	}
}

// A spell abroad can be logged as several contiguous periods, say a plain
// non-resident year reclassified as temporarily non-resident once the return
// date is known. Back-to-back periods form one continuous spell; a gap or an
// intervening resident period breaks it.
func TestResidencyTimeline_SameNonResidentSpanAcrossContiguousPeriods(t *testing.T) {
	cases := []struct {
		name    string
		periods []ResidencyPeriod
		a, b    Date
		want    bool
	}{
		{
			name: "contiguous NR then TNR",
			periods: []ResidencyPeriod{
				abroad(day(2023, time.July, 1), day(2023, time.December, 31), NonResident),
				abroad(day(2024, time.January, 1), day(2025, time.June, 30), TemporaryNonResident),
			},
			a: day(2023, time.September, 4), b: day(2024, time.September, 4),
			want: true,
		},
		{
			name: "gap between the periods",
			periods: []ResidencyPeriod{
				abroad(day(2023, time.July, 1), day(2023, time.December, 30), NonResident),
				abroad(day(2024, time.January, 1), day(2025, time.June, 30), TemporaryNonResident),
			},
			a: day(2023, time.September, 4), b: day(2024, time.September, 4),
			want: false,
		},
		{
			name: "resident period in between",
			periods: []ResidencyPeriod{
				abroad(day(2023, time.July, 1), day(2023, time.December, 31), NonResident),
				abroad(day(2024, time.January, 1), day(2024, time.March, 31), Resident),
				abroad(day(2024, time.April, 1), day(2025, time.June, 30), TemporaryNonResident),
			},
			a: day(2023, time.September, 4), b: day(2024, time.September, 4),
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tl, err := NewResidencyTimeline(tc.periods...)
			if err != nil {
				t.Fatalf("NewResidencyTimeline() error = %v", err)
			}
			if got := tl.SameNonResidentSpan(tc.a, tc.b); got != tc.want {
				t.Errorf("SameNonResidentSpan(%s, %s) = %t, want %t", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

// The same reclassified spell, end to end: a position opened in the
// non-resident stretch and closed in the temporarily-non-resident one stays
// out of charge.
func TestCalculate_SameSpanSurvivesReclassifiedSpell(t *testing.T) {
	tl, err := NewResidencyTimeline(
		abroad(day(2023, time.July, 1), day(2023, time.December, 31), NonResident),
		abroad(day(2024, time.January, 1), day(2025, time.June, 30), TemporaryNonResident),
	)
	if err != nil {
		t.Fatalf("NewResidencyTimeline() error = %v", err)
	}
	l := NewLedger()
	mustAppend(t, l,
		NewTrade(day(2023, time.September, 4), "BARC", Buy, Q(50), stg(100), stg(0)),
		NewTrade(day(2024, time.September, 4), "BARC", Sell, Q(50), stg(150), stg(0)),
	)
	res := mustCalculate(t, l, tl)
	c := disposalOn(t, res, "BARC", day(2024, time.September, 4))
	if c.Matches[0].Taxability != NonTaxable {
		t.Errorf("reclassified-spell position = %s, want %s", c.Matches[0].Taxability, NonTaxable)
	}
	if !c.TaxableGain().IsZero() {
		t.Errorf("reclassified-spell taxable gain = %s, want zero", c.TaxableGain())
	}
}

// Same-day and bed-and-breakfast pairing never cross a non-resident
// boundary: the acquisition falls through to the pool instead.
func TestCalculate_PairingSuppressedAcrossNonResidentBoundary(t *testing.T) {
	tl, err := NewResidencyTimeline(
		abroad(day(2024, time.May, 10), day(2026, time.May, 10), NonResident),
	)
	if err != nil {
		t.Fatalf("NewResidencyTimeline() error = %v", err)
	}
	l := NewLedger()
	sellDay := day(2024, time.May, 1) // resident
	mustAppend(t, l,
		NewTrade(day(2023, time.May, 1), "VOD", Buy, Q(100), stg(100), stg(0)),
		NewTrade(sellDay, "VOD", Sell, Q(100), stg(200), stg(0)),
		// Within 30 days of the sale, but bought while non-resident.
		NewTrade(day(2024, time.May, 20), "VOD", Buy, Q(100), stg(150), stg(0)),
	)
	res := mustCalculate(t, l, tl)

	c := disposalOn(t, res, "VOD", sellDay)
	if len(c.Matches) != 1 || c.Matches[0].Type != Section104 {
		t.Fatalf("matches = %v, want a single section-104 match", c.Matches)
	}
	wantMoney(t, "gain", c.Gain(), GBP(100))
}
