package cgt

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// The ledger persists as JSONL: one event per line, identified by its
// "event" field. The format is human-readable and git-friendly, and
// round-trips: DecodeLedger(EncodeLedger(l)) reproduces the ledger.

// baseLine carries the fields every event line shares.
type baseLine struct {
	Event    EventType `json:"event"`
	Security string    `json:"security"`
	Date     Date      `json:"date"`
	Memo     string    `json:"memo"`
}

func (b baseLine) base(evt EventType) baseEvent {
	return baseEvent{Event: evt, Security: b.Security, Date: b.Date, Memo: b.Memo}
}

// tradeLine is a specialized struct for decoding a trade line.
type tradeLine struct {
	baseLine
	Kind          TradeKind `json:"kind"`
	Side          Side      `json:"side"`
	Quantity      Quantity  `json:"quantity"`
	Gross         Amount    `json:"gross"`
	Expenses      Amount    `json:"expenses"`
	Underlying    string    `json:"underlying"`
	Strike        Money     `json:"strike"`
	Status        string    `json:"status"`
	ExerciseOf    string    `json:"exerciseOf"`
	ContractValue Amount    `json:"contractValue"`
}

// actionLine is a specialized struct for decoding a corporate action line.
type actionLine struct {
	baseLine
	Kind             ActionKind `json:"kind"`
	From             int64      `json:"from"`
	To               int64      `json:"to"`
	Cash             *Amount    `json:"cash"`
	ElectTaxDeferral bool       `json:"electTaxDeferral"`
	NewAsset         string     `json:"newAsset"`
	NewSharesValue   Amount     `json:"newSharesValue"`
	RemainingValue   Amount     `json:"remainingValue"`
	SpinRatio        Quantity   `json:"spinRatio"`
	Direction        string     `json:"direction"`
	Quantity         Quantity   `json:"quantity"`
	TransferredCost  *Amount    `json:"transferredCost"`
	Value            Amount     `json:"value"`
	IncomeType       string     `json:"incomeType"`
}

// DecodeLedger reads JSONL events from r, decodes each line into the
// appropriate event struct, and returns the assembled ledger.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	ledger := NewLedger()
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var identifier struct {
			Event EventType `json:"event"`
		}
		if err := json.Unmarshal(lineBytes, &identifier); err != nil {
			return nil, fmt.Errorf("could not identify event in line %q: %w", string(lineBytes), err)
		}

		var decoded TaxEvent
		switch identifier.Event {
		case EvtTrade:
			var line tradeLine
			if err := json.Unmarshal(lineBytes, &line); err != nil {
				return nil, err
			}
			decoded = Trade{
				baseEvent:     line.base(EvtTrade),
				Kind:          line.Kind,
				Side:          line.Side,
				Quantity:      line.Quantity,
				Gross:         line.Gross,
				Expenses:      line.Expenses,
				Underlying:    line.Underlying,
				Strike:        line.Strike,
				Status:        OptionStatus(line.Status),
				ExerciseOf:    line.ExerciseOf,
				ContractValue: line.ContractValue,
			}
		case EvtAction:
			var line actionLine
			if err := json.Unmarshal(lineBytes, &line); err != nil {
				return nil, err
			}
			decoded = CorporateAction{
				baseEvent:        line.base(EvtAction),
				Kind:             line.Kind,
				From:             line.From,
				To:               line.To,
				Cash:             line.Cash,
				ElectTaxDeferral: line.ElectTaxDeferral,
				NewAsset:         line.NewAsset,
				NewSharesValue:   line.NewSharesValue,
				RemainingValue:   line.RemainingValue,
				SpinRatio:        line.SpinRatio,
				Direction:        TransferDirection(line.Direction),
				Quantity:         line.Quantity,
				TransferredCost:  line.TransferredCost,
				Value:            line.Value,
				IncomeType:       line.IncomeType,
			}
		case EvtDividend:
			var line struct {
				baseLine
				Value    Amount `json:"value"`
				Withheld Amount `json:"withheld"`
			}
			if err := json.Unmarshal(lineBytes, &line); err != nil {
				return nil, err
			}
			decoded = Dividend{baseEvent: line.base(EvtDividend), Value: line.Value, Withheld: line.Withheld}
		case EvtSettlement:
			var line struct {
				baseLine
				Value Amount `json:"value"`
			}
			if err := json.Unmarshal(lineBytes, &line); err != nil {
				return nil, err
			}
			decoded = CashSettlement{baseEvent: line.base(EvtSettlement), Value: line.Value}
		case EvtDeclare:
			var line struct {
				baseLine
				Currency       string `json:"currency"`
				UKTaxableSitus bool   `json:"ukTaxableSitus"`
			}
			if err := json.Unmarshal(lineBytes, &line); err != nil {
				return nil, err
			}
			decoded = Declare{baseEvent: line.base(EvtDeclare), Currency: line.Currency, UKTaxableSitus: line.UKTaxableSitus}
		default:
			return nil, fmt.Errorf("%w: unknown event type %q in line %q", ErrInvalidOperation, identifier.Event, string(lineBytes))
		}

		if err := ledger.Append(decoded); err != nil {
			return nil, fmt.Errorf("invalid event in line %q: %w", string(lineBytes), err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read ledger: %w", err)
	}
	return ledger, nil
}

// EncodeLedger writes the ledger as JSONL, one event per line, in stable
// chronological order.
func EncodeLedger(w io.Writer, ledger *Ledger) error {
	for _, ev := range ledger.Events() {
		lineBytes, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("could not encode event on %s: %w", ev.When(), err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", lineBytes); err != nil {
			return err
		}
	}
	return nil
}

// DecodeResidency reads a JSONL residency history, one period per line.
// A missing "to" date leaves the period open-ended.
func DecodeResidency(r io.Reader) (*ResidencyTimeline, error) {
	var periods []ResidencyPeriod

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineBytes := bytes.TrimSpace(scanner.Bytes())
		if len(lineBytes) == 0 {
			continue
		}
		var line struct {
			From   Date   `json:"from"`
			To     Date   `json:"to"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(lineBytes, &line); err != nil {
			return nil, fmt.Errorf("invalid residency period in line %q: %w", string(lineBytes), err)
		}
		switch ResidencyStatus(line.Status) {
		case Resident, NonResident, TemporaryNonResident:
		default:
			return nil, fmt.Errorf("%w: unknown residency status %q", ErrInvalidOperation, line.Status)
		}
		periods = append(periods, ResidencyPeriod{From: line.From, To: line.To, Status: ResidencyStatus(line.Status)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read residency history: %w", err)
	}
	return NewResidencyTimeline(periods...)
}
