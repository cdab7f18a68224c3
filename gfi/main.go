// Command gfi converts broker exports into Ghostfolio imports.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/ghostimport/cmd"
	"github.com/google/subcommands"
)

func main() {
	cmd.Completion().Complete("gfi")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
