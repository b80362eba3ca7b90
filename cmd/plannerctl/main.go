package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"planner/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	decimal.MarshalJSONWithoutQuotes = true

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range Commands {
		commander.Register(c, "planner")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
