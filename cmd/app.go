// Package cmd implements the CLI application to manage a capital gains ledger.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/subcommands"
	"github.com/seaward/cgt"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&reportCmd{}, "reports")
	c.Register(&poolsCmd{}, "reports")
	c.Register(&logCmd{}, "reports")

	c.Register(&fmtCmd{}, "ledger")

	c.Register(&fxCmd{}, "reference")
	c.Register(&topicCmd{}, "reference")
	c.Register(&assistCmd{}, "reference")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var ledgerFile = flag.String("ledger-file", "ledger.jsonl", "Path to the ledger file containing tax events (JSONL format)")
var residencyFile = flag.String("residency-file", "", "Optional path to the residency history file (JSONL format)")

// DecodeLedger decodes the ledger from the app ledger file.
func DecodeLedger() (*cgt.Ledger, error) {
	f, err := os.Open(*ledgerFile)
	if errors.Is(err, fs.ErrNotExist) {
		// A missing file is an empty ledger.
		return cgt.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open ledger file %q: %w", *ledgerFile, err)
	}
	defer f.Close()

	return cgt.DecodeLedger(f)
}

// DecodeTimeline decodes the residency history from the app residency
// file. A nil timeline means the taxpayer was always resident.
func DecodeTimeline() (*cgt.ResidencyTimeline, error) {
	if *residencyFile == "" {
		return nil, nil
	}
	f, err := os.Open(*residencyFile)
	if err != nil {
		return nil, fmt.Errorf("could not open residency file %q: %w", *residencyFile, err)
	}
	defer f.Close()

	return cgt.DecodeResidency(f)
}

// Calculate loads the ledger and the residency history and runs the
// matching rules over them.
func Calculate() (*cgt.Result, error) {
	ledger, err := DecodeLedger()
	if err != nil {
		return nil, err
	}
	timeline, err := DecodeTimeline()
	if err != nil {
		return nil, err
	}
	return cgt.NewSession().Calculate(ledger, timeline)
}
