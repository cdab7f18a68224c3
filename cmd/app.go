// Package cmd implements the gfi command line application: converting broker
// exports to Ghostfolio imports, and maintaining the symbol cache.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/ghostimport/cache"
	"github.com/etnz/ghostimport/eodhd"
	"github.com/etnz/ghostimport/lookup"
	"github.com/etnz/ghostimport/yahoo"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// commands of gfi, by group.
var commands = []struct {
	group string
	cmd   subcommands.Command
}{
	{"conversion", &convertCmd{}},
	{"conversion", &resolveCmd{}},

	{"cache", &cacheStatsCmd{}},
	{"cache", &cacheSetCmd{}},
	{"cache", &cacheForgetCmd{}},
	{"cache", &cachePurgeMissesCmd{}},

	{"help", &topicCmd{}},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, g := range commands {
		c.Register(g.cmd, g.group)
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	envFile     = flag.String("env-file", ".env", "dotenv file loaded, if it exists, before reading the environment")
	cacheFolder = flag.String("cache-folder", "", "Folder of the symbol cache. Defaults to $"+envCacheFolder+" or the user cache folder")
	cacheFile   = flag.String("cache-file", "", "Path of the symbol cache file, takes precedence over -cache-folder. A .msgpack extension selects the binary format")
	provider    = flag.String("provider", "", "Quote provider: yahoo or eodhd. Defaults to $"+envProvider+" or yahoo")
	providerURL = flag.String("provider-url", "", "Base URL of the quote provider API, for proxies. Defaults to $"+envProviderURL+" or the provider host")
	eodhdAPIKey = flag.String("eodhd-api-key", "", "EODHD API key, takes precedence over $"+envEODHDKey+". You can get one at https://eodhd.com/")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn or error. Defaults to $"+envLogLevel+" or info")
)

// app is what commands share: the configuration, the logger and the cache.
type app struct {
	cfg   *config
	log   zerolog.Logger
	store *cache.Store
}

// openApp loads the configuration and the symbol cache.
// A missing or unreadable cache file yields an empty cache.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg.LogLevel)
	store := cache.Open(cfg.CacheFile, log)
	isins, symbols := store.Load()
	log.Info().Int("isins", isins).Int("symbols", symbols).Str("path", store.Path()).
		Msg("restored ISIN-symbol pairs and symbols from cache")
	return &app{cfg: cfg, log: log, store: store}, nil
}

// close saves the cache. It is deferred right after openApp so that what was
// learnt is kept whatever the outcome of the command.
func (a *app) close() error {
	if err := a.store.Save(); err != nil {
		a.log.Error().Err(err).Msg("cannot save cache")
		return err
	}
	return nil
}

// lookupClient returns the client of the configured quote provider and the
// Ghostfolio data source of the symbols it finds.
func (a *app) lookupClient() (*lookup.Client, string, error) {
	var (
		s          lookup.Searcher
		dataSource string
	)
	switch a.cfg.Provider {
	case providerYahoo:
		opts := []yahoo.Option{yahoo.WithLogger(a.log)}
		if a.cfg.ProviderURL != "" {
			opts = append(opts, yahoo.WithBaseURL(a.cfg.ProviderURL))
		}
		s, dataSource = yahoo.New(opts...), yahoo.DataSource
	case providerEODHD:
		if a.cfg.EODHDKey == "" {
			return nil, "", errors.New("EODHD API key is not set. Use -eodhd-api-key flag or " + envEODHDKey + " environment variable")
		}
		opts := []eodhd.Option{eodhd.WithLogger(a.log)}
		if a.cfg.ProviderURL != "" {
			opts = append(opts, eodhd.WithBaseURL(a.cfg.ProviderURL))
		}
		s, dataSource = eodhd.New(a.cfg.EODHDKey, opts...), eodhd.DataSource
	default:
		return nil, "", fmt.Errorf("unknown provider %q", a.cfg.Provider)
	}
	return lookup.New(s, lookup.WithLogger(a.log)), dataSource, nil
}

// closeApp saves the cache and turns a failure into an exit status.
func closeApp(a *app, status *subcommands.ExitStatus) {
	if err := a.close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if *status == subcommands.ExitSuccess {
			*status = subcommands.ExitFailure
		}
	}
}
