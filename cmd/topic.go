package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/ghostimport/docs"
	"github.com/google/subcommands"
)

type topicCmd struct {
	plain bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `gfi topic [-plain] [<topic>...]

  Show documentation for the given topics, or the list of topics. "*" shows them all.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.plain, "plain", false, "print the raw markdown")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	topics := f.Args()
	if len(topics) == 0 {
		topics = []string{"readme"}
	}

	doc, err := docs.Topics(topics...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading doc: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(doc, c.plain)
	return subcommands.ExitSuccess
}

// printMarkdown renders md for the terminal, or prints it as is when plain
// is set or rendering fails.
func printMarkdown(md string, plain bool) {
	if !plain {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err == nil {
			if out, err := r.Render(md); err == nil {
				fmt.Print(out)
				return
			}
		}
	}
	fmt.Print(md)
}
