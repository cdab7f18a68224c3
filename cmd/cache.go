package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/ghostimport"
	"github.com/google/subcommands"
)

// cacheStatsCmd implements the "cache-stats" command.
type cacheStatsCmd struct{}

func (*cacheStatsCmd) Name() string     { return "cache-stats" }
func (*cacheStatsCmd) Synopsis() string { return "shows what the symbol cache contains" }
func (*cacheStatsCmd) Usage() string {
	return `gfi cache-stats

  Prints the location of the symbol cache and the number of entries it holds.
`
}
func (*cacheStatsCmd) SetFlags(*flag.FlagSet) {}

func (*cacheStatsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) (status subcommands.ExitStatus) {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeApp(a, &status)

	isins, symbols := a.store.Len()
	missedISINs, missedSymbols := a.store.Tombstones()
	fmt.Printf("Cache file   : %s\n", a.store.Path())
	fmt.Printf("ISINs        : %d (%d without match)\n", isins, missedISINs)
	fmt.Printf("Symbols      : %d (%d without match)\n", symbols, missedSymbols)
	return subcommands.ExitSuccess
}

// cacheSetCmd implements the "cache-set" command.
type cacheSetCmd struct {
	queryFlags
	symbol         string
	symbolCurrency string
}

func (*cacheSetCmd) Name() string     { return "cache-set" }
func (*cacheSetCmd) Synopsis() string { return "pins the symbol of a security in the cache" }
func (*cacheSetCmd) Usage() string {
	return `gfi cache-set -symbol <symbol> [-symbol-currency <currency>] (-isin <isin> | -ticker <ticker>) [-currency <currency>]

  Records a manual symbol for a security the provider cannot find, or finds
  wrong. The entry is keyed exactly like a converter query: by ISIN when one
  is given, by ticker otherwise, and by currency.

  Activities using a manual symbol are written with the MANUAL data source.
`
}

func (c *cacheSetCmd) SetFlags(f *flag.FlagSet) {
	c.queryFlags.SetFlags(f)
	f.StringVar(&c.symbol, "symbol", "", "symbol to record")
	f.StringVar(&c.symbolCurrency, "symbol-currency", "", "currency of the symbol, defaults to -currency")
}

func (c *cacheSetCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) (status subcommands.ExitStatus) {
	if strings.TrimSpace(c.symbol) == "" {
		fmt.Fprintln(os.Stderr, "Error: -symbol is required.")
		return subcommands.ExitUsageError
	}
	q := c.query()
	key, err := q.Key()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	currency := c.symbolCurrency
	if currency == "" {
		currency = c.currency
	}
	if currency != "" && !ghostimport.ValidCurrency(currency) {
		fmt.Fprintf(os.Stderr, "Error: unknown currency %q\n", currency)
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeApp(a, &status)

	sym := &ghostimport.ResolvedSymbol{
		Symbol:        strings.TrimSpace(c.symbol),
		Currency:      strings.TrimSpace(currency),
		DataSource:    ghostimport.Manual,
		CanonicalName: strings.TrimSpace(c.name),
	}
	a.store.Put(key, sym)
	fmt.Printf("%s is now %s\n", key, sym)
	return subcommands.ExitSuccess
}

// cacheForgetCmd implements the "cache-forget" command.
type cacheForgetCmd struct {
	queryFlags
}

func (*cacheForgetCmd) Name() string     { return "cache-forget" }
func (*cacheForgetCmd) Synopsis() string { return "removes a security from the cache" }
func (*cacheForgetCmd) Usage() string {
	return `gfi cache-forget (-isin <isin> | -ticker <ticker>) [-currency <currency>]

  Removes the cache entry a converter query would use, so that the next
  conversion asks the provider again.
`
}

func (c *cacheForgetCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) (status subcommands.ExitStatus) {
	key, err := c.query().Key()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeApp(a, &status)

	if !a.store.Delete(key) {
		fmt.Printf("%s is not in the cache.\n", key)
		return subcommands.ExitSuccess
	}
	fmt.Printf("%s removed.\n", key)
	return subcommands.ExitSuccess
}

// cachePurgeMissesCmd implements the "cache-purge-misses" command.
type cachePurgeMissesCmd struct{}

func (*cachePurgeMissesCmd) Name() string { return "cache-purge-misses" }
func (*cachePurgeMissesCmd) Synopsis() string {
	return "forgets the securities the provider had no match for"
}
func (*cachePurgeMissesCmd) Usage() string {
	return `gfi cache-purge-misses

  Removes every "no match" entry from the cache, so that the provider is asked
  again for them on the next conversion. Use it when the provider added
  securities, or after changing provider settings.
`
}
func (*cachePurgeMissesCmd) SetFlags(*flag.FlagSet) {}

func (*cachePurgeMissesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) (status subcommands.ExitStatus) {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeApp(a, &status)

	n := a.store.PurgeTombstones()
	fmt.Printf("Removed %d entries without match.\n", n)
	return subcommands.ExitSuccess
}
