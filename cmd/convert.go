package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/etnz/ghostimport"
	"github.com/etnz/ghostimport/converter"
	"github.com/etnz/ghostimport/report"
	"github.com/etnz/ghostimport/resolver"
	"github.com/google/subcommands"
)

// convertCmd implements the "convert" command.
type convertCmd struct {
	output    string
	accountID string
	plain     bool
}

func (*convertCmd) Name() string     { return "convert" }
func (*convertCmd) Synopsis() string { return "converts a broker export into a Ghostfolio import" }
func (*convertCmd) Usage() string {
	return `gfi convert [-output <dir>] [-account <id>] [-plain] <converter> <export.csv>

  Converts a broker CSV export into a Ghostfolio JSON import file, named
  ghostfolio-<converter>-<timestamp>.json.

  Securities are resolved through the quote provider, and remembered in the
  symbol cache for the next runs. Records whose security cannot be found are
  listed at the end and left out of the import.

  Converters: ` + strings.Join(converter.Names(), ", ") + `

  Requires the ` + envAccountID + ` environment variable to be set or passed as a flag.
`
}

func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "output", ".", "folder where the Ghostfolio import is written")
	f.StringVar(&c.accountID, "account", "", "Ghostfolio account ID, takes precedence over the "+envAccountID+" environment variable")
	f.BoolVar(&c.plain, "plain", false, "print the summary as plain markdown")
}

func (c *convertCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) (status subcommands.ExitStatus) {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: a converter and an input file are required.")
		return subcommands.ExitUsageError
	}
	name, input := strings.ToLower(f.Arg(0)), f.Arg(1)

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeApp(a, &status)

	accountID := c.accountID
	if accountID == "" {
		accountID = a.cfg.AccountID
	}
	if accountID == "" {
		fmt.Fprintf(os.Stderr, "Error: environment variable %s not set!\n", envAccountID)
		return subcommands.ExitFailure
	}

	client, dataSource, err := a.lookupClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	rep := report.New(a.log)
	res := resolver.New(a.store, client, resolver.WithReporter(rep), resolver.WithLogger(a.log))

	conv, err := converter.New(name, converter.Options{
		AccountID:  accountID,
		DataSource: dataSource,
		Resolver:   res,
		Reporter:   rep,
		Log:        a.log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	file, err := os.Open(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	export, err := conv.Convert(ctx, file)
	rep.Done()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	filename, err := ghostimport.WriteExport(c.output, name, time.Now(), export, a.cfg.Indent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	a.log.Info().Str("file", filename).Int("activities", len(export.Activities)).Msg("wrote Ghostfolio import")

	if err := rep.Render(os.Stdout, res.Stats(), c.plain); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Wrote data to %q\n", filename)
	return subcommands.ExitSuccess
}
