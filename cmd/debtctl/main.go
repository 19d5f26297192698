// Command debtctl manages the debt ledger database from a terminal: backups,
// clearing, and read-only reports.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/mmynk/debtledger/pkg/logging"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&exportCmd{}, "backup")
	commander.Register(&importCmd{}, "backup")
	commander.Register(&clearCmd{}, "backup")

	commander.Register(&summaryCmd{}, "reports")
	commander.Register(&remindersCmd{}, "reports")

	flag.Parse()
	logging.Setup()
	os.Exit(int(commander.Execute(context.Background())))
}
