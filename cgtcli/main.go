package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	"github.com/seaward/cgt/cmd"
)

// completion describes the command tree for shell completion. It runs
// before flag parsing and exits when invoked by the shell.
var completion = &complete.Command{
	Sub: map[string]*complete.Command{
		"report": {Flags: map[string]complete.Predictor{"year": predict.Something}},
		"pools":  {Flags: map[string]complete.Predictor{"asset": predict.Something}},
		"log":    {},
		"fmt":    {},
		"fx": {Flags: map[string]complete.Predictor{
			"currency": predict.Set{"USD", "EUR", "JPY", "CHF", "AUD", "CAD"},
			"month":    predict.Something,
		}},
		"topic":  {Args: predict.Set{"readme", "ledger", "matching", "actions", "options", "residency", "dates"}},
		"assist": {},
	},
	Flags: map[string]complete.Predictor{
		"ledger-file":    predict.Files("*.jsonl"),
		"residency-file": predict.Files("*.jsonl"),
	},
}

func main() {
	completion.Complete("cgt")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
