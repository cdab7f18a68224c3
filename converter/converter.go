// Package converter turns broker CSV exports into Ghostfolio activities.
package converter

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/etnz/ghostimport"
	"github.com/rs/zerolog"
)

// Resolver resolves the security of a record. It returns (nil, nil) when the
// security is known to have no match.
type Resolver interface {
	Resolve(ctx context.Context, q ghostimport.SymbolQuery) (*ghostimport.ResolvedSymbol, error)
}

// Reporter is told about progress and about the records that were not
// converted.
type Reporter interface {
	Start(total int)
	Step()
	NoMatch(line int, q ghostimport.SymbolQuery)
	Skipped(line int, reason string)
}

// Converter converts one broker's CSV export.
type Converter interface {
	Convert(ctx context.Context, r io.Reader) (*ghostimport.Export, error)
}

// Options are shared by all converters.
type Options struct {
	AccountID string // Ghostfolio account of every activity
	// DataSource is the Ghostfolio data source of provider symbols, like
	// "YAHOO". Manual symbols are always written with "MANUAL".
	DataSource string
	Resolver   Resolver
	Reporter   Reporter // optional
	Now        func() time.Time
	Log        zerolog.Logger
}

type factory func(Options) Converter

// converters by name, aliases included.
var converters = map[string]factory{
	"freetrade": newFreetrade,
	"ft":        newFreetrade,
}

// Names returns the known converter names, aliases included.
func Names() []string {
	names := make([]string, 0, len(converters))
	for name := range converters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the converter called name.
func New(name string, opts Options) (Converter, error) {
	f, ok := converters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown converter %q, use one of %s", name, strings.Join(Names(), ", "))
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("converter %q: no resolver", name)
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return f(opts), nil
}

type nopReporter struct{}

func (nopReporter) Start(int) {}
func (nopReporter) Step() {}
func (nopReporter) NoMatch(int, ghostimport.SymbolQuery) {}
func (nopReporter) Skipped(int, string) {}

// dataSource returns the Ghostfolio data source to write for sym.
func (o Options) dataSource(sym *ghostimport.ResolvedSymbol) string {
	if sym.DataSource == ghostimport.Manual || o.DataSource == "" {
		return string(ghostimport.Manual)
	}
	return o.DataSource
}
