package cmd

import (
	"flag"

	"github.com/etnz/ghostimport/converter"
	"github.com/etnz/ghostimport/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	"github.com/rs/zerolog"
)

// flagPredictors complete the values of flags that have a known domain.
// Other flags complete to anything, boolean ones to nothing.
var flagPredictors = map[string]complete.Predictor{
	"env-file":        predict.Files("*"),
	"cache-folder":    predict.Dirs("*"),
	"cache-file":      predict.Files("*"),
	"provider":        predict.Set(providers),
	"provider-url":    predict.Something,
	"log-level":       predict.Set{zerolog.DebugLevel.String(), zerolog.InfoLevel.String(), zerolog.WarnLevel.String(), zerolog.ErrorLevel.String()},
	"output":          predict.Dirs("*"),
	"currency":        predict.Something,
	"symbol-currency": predict.Something,
}

// argPredictors complete the positional arguments of commands.
var argPredictors = map[string]complete.Predictor{
	"convert": predict.Or(predict.Set(converter.Names()), predict.Files("*.csv")),
	"topic":   complete.PredictFunc(predictTopics),
}

func predictTopics(string) []string {
	topics, err := docs.All()
	if err != nil {
		return nil
	}
	return append(topics, "readme")
}

// Completion returns the shell completion of the command line: the global
// flags, the commands and their own flags.
//
// A main package calls Completion().Complete(name) before parsing flags.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{"help": {Args: commandNames()}, "flags": {Args: commandNames()}, "commands": {}},
		Flags: predictFlags(flag.CommandLine),
	}
	for _, g := range commands {
		fs := flag.NewFlagSet(g.cmd.Name(), flag.ContinueOnError)
		g.cmd.SetFlags(fs)
		args := argPredictors[g.cmd.Name()]
		if args == nil {
			args = predict.Nothing
		}
		root.Sub[g.cmd.Name()] = &complete.Command{Flags: predictFlags(fs), Args: args}
	}
	return root
}

func commandNames() predict.Set {
	names := make(predict.Set, 0, len(commands))
	for _, g := range commands {
		names = append(names, g.cmd.Name())
	}
	return names
}

func predictFlags(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := flagPredictors[f.Name]; ok {
			flags[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		flags[f.Name] = predict.Something
	})
	return flags
}
