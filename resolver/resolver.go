// Package resolver turns broker queries into provider symbols, asking the
// quote provider only for queries the cache knows nothing about.
//
// A query goes through CHECK_CACHE and then either returns the cached answer
// (a symbol, or nil for a known miss) or asks the Finder. The Finder outcome
// is RESOLVED (cached and returned), NO_MATCH (a tombstone is cached and nil
// returned) or FAILED (nothing cached, the error is returned).
package resolver

import (
	"context"
	"errors"

	"github.com/etnz/ghostimport"
	"github.com/etnz/ghostimport/lookup"
	"github.com/rs/zerolog"
)

// Cache is the storage of resolved symbols. A nil symbol with found true is
// a tombstone.
type Cache interface {
	Get(key ghostimport.CacheKey) (sym *ghostimport.ResolvedSymbol, found bool)
	Put(key ghostimport.CacheKey, sym *ghostimport.ResolvedSymbol)
}

// Finder asks the quote provider. It returns lookup.ErrNoMatch when the
// provider has no acceptable candidate.
type Finder interface {
	Find(ctx context.Context, q ghostimport.SymbolQuery) (lookup.Match, error)
}

// Reporter is told about matches that had equally acceptable alternatives.
type Reporter interface {
	Ambiguous(q ghostimport.SymbolQuery, chosen lookup.Candidate, alternatives []lookup.Candidate)
}

// Stats counts what happened to the queries of a run.
type Stats struct {
	Queries       int // every call to Resolve
	Invalid       int
	Hits          int // cache hits, tombstones included
	TombstoneHits int
	Lookups       int // calls to the Finder
	Resolved      int
	NoMatches     int
	Failures      int
	Ambiguous     int
}

// Resolver resolves queries through a Cache and a Finder.
//
// A Resolver is not safe for concurrent use.
type Resolver struct {
	store    Cache
	finder   Finder
	reporter Reporter
	log      zerolog.Logger
	stats    Stats
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithReporter sets where ambiguous matches are reported.
func WithReporter(r Reporter) Option {
	return func(res *Resolver) { res.reporter = r }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(res *Resolver) { res.log = log }
}

// New returns a Resolver owning store.
func New(store Cache, finder Finder, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		finder: finder,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With().Str("component", "resolver").Logger()
	return r
}

// Stats returns the counters since the Resolver was created.
func (r *Resolver) Stats() Stats { return r.stats }

// Resolve returns the provider symbol for q.
//
// It returns (nil, nil) when the provider is known to have no match for q. It
// returns an error matching ghostimport.ErrInvalidQuery when q has neither a
// well formed ISIN nor a ticker, and one matching ghostimport.ErrLookupFailure
// when the provider could not be asked. Failures are not cached.
func (r *Resolver) Resolve(ctx context.Context, q ghostimport.SymbolQuery) (*ghostimport.ResolvedSymbol, error) {
	r.stats.Queries++
	key, err := q.Key()
	if err != nil {
		r.stats.Invalid++
		return nil, err
	}

	if sym, found := r.store.Get(key); found {
		r.stats.Hits++
		if sym == nil {
			r.stats.TombstoneHits++
			r.log.Debug().Stringer("key", key).Msg("cache hit, known miss")
			return nil, nil
		}
		r.log.Debug().Stringer("key", key).Str("symbol", sym.Symbol).Msg("cache hit")
		return sym, nil
	}

	r.stats.Lookups++
	m, err := r.finder.Find(ctx, q)
	switch {
	case errors.Is(err, lookup.ErrNoMatch):
		r.stats.NoMatches++
		r.store.Put(key, nil)
		r.log.Info().Stringer("query", q).Msg("no match")
		return nil, nil
	case err != nil:
		r.stats.Failures++
		return nil, &ghostimport.LookupError{Query: q, Err: err}
	}

	sym := &ghostimport.ResolvedSymbol{
		Symbol:        m.Symbol,
		Currency:      m.Currency,
		DataSource:    ghostimport.Provider,
		CanonicalName: m.Name,
	}
	if err := sym.Validate(); err != nil {
		r.stats.Failures++
		return nil, &ghostimport.LookupError{Query: q, Err: err}
	}

	r.stats.Resolved++
	r.store.Put(key, sym)
	n := q.Normalize()
	if sk, ok := q.SymbolKey(); ok && sk != key {
		r.putSecondary(sk, sym)
	}
	if sk := ghostimport.NewSymbolKey(sym.Symbol, n.Currency); sk != key {
		r.putSecondary(sk, sym)
	}

	if m.Ambiguous() {
		r.stats.Ambiguous++
		if r.reporter != nil {
			r.reporter.Ambiguous(q, m.Candidate, m.Alternatives)
		}
	}
	r.log.Info().Stringer("query", q).Str("symbol", sym.Symbol).Str("currency", sym.Currency).
		Str("via", string(m.Via)).Msg("resolved")
	return sym, nil
}

// putSecondary records sym under a ticker key, unless the operator pinned
// that key to a manual entry.
func (r *Resolver) putSecondary(key ghostimport.CacheKey, sym *ghostimport.ResolvedSymbol) {
	if old, found := r.store.Get(key); found && old != nil && old.DataSource == ghostimport.Manual {
		return
	}
	r.store.Put(key, sym)
}
