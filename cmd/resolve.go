package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/ghostimport"
	"github.com/etnz/ghostimport/resolver"
	"github.com/google/subcommands"
)

// resolveCmd implements the "resolve" command.
type resolveCmd struct {
	queryFlags
}

func (*resolveCmd) Name() string     { return "resolve" }
func (*resolveCmd) Synopsis() string { return "resolves a single security, as a converter would" }
func (*resolveCmd) Usage() string {
	return `gfi resolve [-isin <isin>] [-ticker <ticker>] [-exchange <exchange>] [-currency <currency>] [-name <name>]

  Resolves the provider symbol of a security, using and updating the symbol
  cache exactly like 'gfi convert' does.
`
}

func (c *resolveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) (status subcommands.ExitStatus) {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeApp(a, &status)

	client, _, err := a.lookupClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	q := c.query()
	sym, err := resolver.New(a.store, client, resolver.WithLogger(a.log)).Resolve(ctx, q)
	switch {
	case errors.Is(err, ghostimport.ErrInvalidQuery):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	case sym == nil:
		fmt.Printf("No match for %s.\n", q)
		return subcommands.ExitSuccess
	}

	fmt.Printf("Symbol      : %s\n", sym.Symbol)
	fmt.Printf("Currency    : %s\n", sym.Currency)
	fmt.Printf("Data source : %s\n", sym.DataSource)
	if sym.CanonicalName != "" {
		fmt.Printf("Name        : %s\n", sym.CanonicalName)
	}
	return subcommands.ExitSuccess
}
