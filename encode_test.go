package cgt

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLedger_JSONLRoundTrip(t *testing.T) {
	l := NewLedger()
	cash := Sterling(500)
	usdGross := A(USD(1300), newDecimal(1000))
	mustAppend(t, l,
		NewDeclare(day(2024, time.January, 1), "AAPL", "USD", false),
		NewTrade(day(2024, time.January, 10), "AAPL", Buy, Q(10), usdGross, stg(5)),
		NewOptionTrade(day(2024, time.May, 1), "VOD JUN24 C100", "VOD", Buy, Q(1), stg(502), stg(1)),
		CorporateAction{
			baseEvent:      baseEvent{Event: EvtAction, Security: "AAA", Date: day(2024, time.March, 1)},
			Kind:           Takeover,
			From:           1, To: 2,
			Cash:           &cash,
			NewAsset:       "BBB",
			NewSharesValue: Sterling(1500),
		},
		NewDividend(day(2024, time.August, 1), "AAPL", stg(80), stg(8)),
		NewCashSettlement(day(2024, time.June, 5), "FTSE JUN24 C8000", Sterling(250)),
	)

	var buf bytes.Buffer
	if err := EncodeLedger(&buf, l); err != nil {
		t.Fatalf("EncodeLedger() error = %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != l.Len() {
		t.Fatalf("encoded %d lines, want %d", got, l.Len())
	}

	decoded, err := DecodeLedger(&buf)
	if err != nil {
		t.Fatalf("DecodeLedger() error = %v", err)
	}
	if decoded.Len() != l.Len() {
		t.Fatalf("decoded %d events, want %d", decoded.Len(), l.Len())
	}
	want := l.Events()
	got := decoded.Events()
	for i := range want {
		if !want[i].Equal(got[i]) {
			t.Errorf("event %d round-trip mismatch:\n got %+v\nwant %+v", i, got[i], want[i])
		}
	}
}

func TestDecodeLedger_ForeignAmountKeepsBase(t *testing.T) {
	line := `{"event":"trade","security":"AAPL","date":"2024-01-10","kind":"stock","side":"buy","quantity":10,"gross":{"currency":"USD","amount":1300,"base":1000}}` + "\n"
	l, err := DecodeLedger(strings.NewReader(line))
	if err != nil {
		t.Fatalf("DecodeLedger() error = %v", err)
	}
	tr := l.Events()[0].(Trade)
	if !tr.Gross.Original.Equal(USD(1300)) {
		t.Errorf("original = %s, want %s", tr.Gross.Original, USD(1300))
	}
	wantMoney(t, "base", tr.Gross.Base, GBP(1000))
}

func TestDecodeLedger_UnknownEventFails(t *testing.T) {
	if _, err := DecodeLedger(strings.NewReader(`{"event":"wibble"}` + "\n")); err == nil {
		t.Error("DecodeLedger() expected an error for an unknown event type")
	}
}

func TestDecodeLedger_SkipsEmptyLines(t *testing.T) {
	in := "\n" + `{"event":"dividend","security":"VOD","date":"2024-08-01","value":{"amount":80}}` + "\n\n"
	l, err := DecodeLedger(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeLedger() error = %v", err)
	}
	if l.Len() != 1 {
		t.Errorf("decoded %d events, want 1", l.Len())
	}
}

func TestDecodeResidency(t *testing.T) {
	in := `{"from":"2020-06-01","to":"2022-05-31","status":"non-resident"}` + "\n" +
		`{"from":"2023-01-01","status":"temporary-non-resident"}` + "\n"
	timeline, err := DecodeResidency(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeResidency() error = %v", err)
	}
	if got := timeline.StatusOn(day(2021, time.March, 1)); got != NonResident {
		t.Errorf("StatusOn(2021-03-01) = %v, want %v", got, NonResident)
	}
	// Open-ended period covers any later day.
	if got := timeline.StatusOn(day(2030, time.January, 1)); got != TemporaryNonResident {
		t.Errorf("StatusOn(2030-01-01) = %v, want %v", got, TemporaryNonResident)
	}
	if got := timeline.StatusOn(day(2022, time.July, 1)); got != Resident {
		t.Errorf("StatusOn(2022-07-01) = %v, want %v", got, Resident)
	}
}

func TestDecodeResidency_UnknownStatusFails(t *testing.T) {
	in := `{"from":"2020-06-01","status":"expat"}` + "\n"
	if _, err := DecodeResidency(strings.NewReader(in)); err == nil {
		t.Error("DecodeResidency() expected an error for an unknown status")
	}
}
