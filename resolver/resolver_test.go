package resolver

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/ghostimport"
	"github.com/etnz/ghostimport/cache"
	"github.com/etnz/ghostimport/lookup"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// fakeFinder answers from a table keyed by normalized ISIN, or ticker when
// the query has no valid ISIN.
type fakeFinder struct {
	matches map[string]lookup.Match
	err     error
	calls   int
}

func (f *fakeFinder) Find(_ context.Context, q ghostimport.SymbolQuery) (lookup.Match, error) {
	f.calls++
	if f.err != nil {
		return lookup.Match{}, f.err
	}
	n := q.Normalize()
	id := n.ISIN
	if id == "" {
		id = n.Ticker
	}
	m, ok := f.matches[id]
	if !ok {
		return lookup.Match{}, lookup.ErrNoMatch
	}
	return m, nil
}

// scriptedSearcher plays the provider behind a real lookup.Client.
type scriptedSearcher struct {
	results map[string][]lookup.Candidate
	err     error
	terms   []string
}

func (s *scriptedSearcher) Search(_ context.Context, term string) ([]lookup.Candidate, error) {
	s.terms = append(s.terms, term)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[term], nil
}

type recorder struct{ ambiguous []string }

func (r *recorder) Ambiguous(q ghostimport.SymbolQuery, chosen lookup.Candidate, alternatives []lookup.Candidate) {
	r.ambiguous = append(r.ambiguous, chosen.Symbol)
}

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	return cache.Open(filepath.Join(t.TempDir(), "symbols.json"), zerolog.Nop())
}

func newClient(s lookup.Searcher) *lookup.Client {
	return lookup.New(s, lookup.WithRate(rate.Inf, 1), lookup.WithBackoff(time.Millisecond, time.Millisecond))
}

func isinKey(t *testing.T, isin, currency string) ghostimport.CacheKey {
	t.Helper()
	k, err := ghostimport.NewISINKey(isin, currency)
	require.NoError(t, err)
	return k
}

var (
	appleMatch = lookup.Match{Candidate: lookup.Candidate{Symbol: "AAPL", Name: "Apple Inc.", Currency: "USD"}, Via: lookup.ViaISIN}
	appleQuery = ghostimport.SymbolQuery{ISIN: "US0378331005", Ticker: "AAPL", Currency: "USD"}
)

func TestResolve_OneRemoteCallPerKey(t *testing.T) {
	f := &fakeFinder{matches: map[string]lookup.Match{"US0378331005": appleMatch}}
	r := New(newStore(t), f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sym, err := r.Resolve(ctx, appleQuery)
		require.NoError(t, err)
		require.NotNil(t, sym)
		assert.Equal(t, "AAPL", sym.Symbol)
		assert.Equal(t, ghostimport.Provider, sym.DataSource)
	}
	// Same key, spelled differently.
	_, err := r.Resolve(ctx, ghostimport.SymbolQuery{ISIN: " us0378331005 ", Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)

	for i := 0; i < 3; i++ {
		sym, err := r.Resolve(ctx, ghostimport.SymbolQuery{Ticker: "NOPE", Currency: "USD"})
		require.NoError(t, err)
		assert.Nil(t, sym)
	}
	assert.Equal(t, 2, f.calls)
}

func TestResolve_PrepopulatedISIN(t *testing.T) {
	store := newStore(t)
	store.Put(isinKey(t, "US0378331005", "USD"), &ghostimport.ResolvedSymbol{Symbol: "AAPL", Currency: "USD", DataSource: ghostimport.Provider})
	f := &fakeFinder{}

	sym, err := New(store, f).Resolve(context.Background(), appleQuery)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, "AAPL", sym.Symbol)
	assert.Zero(t, f.calls)
}

func TestResolve_TombstoneIsFinal(t *testing.T) {
	store := newStore(t)
	store.Put(isinKey(t, "US0378331005", "USD"), nil)
	f := &fakeFinder{matches: map[string]lookup.Match{"US0378331005": appleMatch}}
	r := New(store, f)

	sym, err := r.Resolve(context.Background(), appleQuery)
	require.NoError(t, err)
	assert.Nil(t, sym)
	assert.Zero(t, f.calls)
	assert.Equal(t, 1, r.Stats().TombstoneHits)
}

func TestResolve_MalformedISINUsesTicker(t *testing.T) {
	s := &scriptedSearcher{results: map[string][]lookup.Candidate{
		"AAPL": {{Symbol: "AAPL", Name: "Apple Inc.", Currency: "USD", Exchange: "NMS", Score: 10}},
	}}
	store := newStore(t)
	r := New(store, newClient(s))

	sym, err := r.Resolve(context.Background(), ghostimport.SymbolQuery{ISIN: "INVALID_ISIN_FORMAT", Ticker: "AAPL", Currency: "USD"})
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, "AAPL", sym.Symbol)
	assert.Equal(t, "Apple Inc.", sym.CanonicalName)
	assert.Equal(t, []string{"AAPL"}, s.terms, "only the ticker is searched")

	cached, found := store.Get(ghostimport.NewSymbolKey("AAPL", "USD"))
	assert.True(t, found)
	assert.Equal(t, sym, cached)
}

func TestResolve_CurrencyMismatchIsNoMatch(t *testing.T) {
	s := &scriptedSearcher{results: map[string][]lookup.Candidate{
		"GB00BH4HKS39": {{Symbol: "VOD", Currency: "USD", Score: 20}, {Symbol: "VODI.DE", Currency: "EUR", Score: 10}},
		"VOD":          {{Symbol: "VOD", Currency: "USD", Score: 20}, {Symbol: "VODI.DE", Currency: "EUR", Score: 10}},
	}}
	store := newStore(t)
	r := New(store, newClient(s))
	q := ghostimport.SymbolQuery{ISIN: "GB00BH4HKS39", Ticker: "VOD", Currency: "GBP"}

	sym, err := r.Resolve(context.Background(), q)
	require.NoError(t, err)
	assert.Nil(t, sym)

	cached, found := store.Get(isinKey(t, "GB00BH4HKS39", "GBP"))
	assert.True(t, found, "a tombstone is recorded")
	assert.Nil(t, cached)

	// The tombstone answers the next identical query.
	n := len(s.terms)
	_, err = r.Resolve(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, s.terms, n)
}

func TestResolve_TransientFailuresLeaveCacheUnchanged(t *testing.T) {
	s := &scriptedSearcher{err: &lookup.StatusError{StatusCode: 503, Status: "503 Service Unavailable"}}
	store := newStore(t)
	r := New(store, newClient(s))

	sym, err := r.Resolve(context.Background(), appleQuery)
	assert.Nil(t, sym)
	require.Error(t, err)
	assert.ErrorIs(t, err, ghostimport.ErrLookupFailure)
	var le *ghostimport.LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, appleQuery, le.Query)
	assert.Len(t, s.terms, lookup.DefaultMaxAttempts)

	isins, symbols := store.Len()
	assert.Zero(t, isins)
	assert.Zero(t, symbols)
	assert.Equal(t, 1, r.Stats().Failures)
}

func TestResolve_InvalidQuery(t *testing.T) {
	tests := []ghostimport.SymbolQuery{
		{},
		{Currency: "USD", Name: "Apple"},
		{ISIN: "INVALID_ISIN_FORMAT"},
	}
	for _, q := range tests {
		t.Run(q.String(), func(t *testing.T) {
			store := newStore(t)
			f := &fakeFinder{}
			sym, err := New(store, f).Resolve(context.Background(), q)
			assert.Nil(t, sym)
			assert.ErrorIs(t, err, ghostimport.ErrInvalidQuery)
			assert.Zero(t, f.calls)
			isins, symbols := store.Len()
			assert.Zero(t, isins+symbols)
		})
	}
}

func TestResolve_SecondaryKeys(t *testing.T) {
	m := lookup.Match{Candidate: lookup.Candidate{Symbol: "VUSA.L", Currency: "GBp"}, Via: lookup.ViaISIN}
	f := &fakeFinder{matches: map[string]lookup.Match{"IE00B3XXRP09": m}}
	store := newStore(t)
	r := New(store, f)
	ctx := context.Background()

	sym, err := r.Resolve(ctx, ghostimport.SymbolQuery{ISIN: "IE00B3XXRP09", Ticker: "VUSA", Currency: "GBP"})
	require.NoError(t, err)
	assert.Equal(t, "GBp", sym.Currency, "the provider currency is kept")

	for _, k := range []ghostimport.CacheKey{
		ghostimport.NewSymbolKey("VUSA", "GBP"),
		ghostimport.NewSymbolKey("VUSA.L", "GBP"),
	} {
		got, found := store.Get(k)
		assert.True(t, found, k.String())
		assert.Equal(t, sym, got, k.String())
	}

	// Ticker only queries for the same security are answered by the cache.
	_, err = r.Resolve(ctx, ghostimport.SymbolQuery{Ticker: "vusa", Currency: "GBX"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
}

func TestResolve_ISINQueriesIgnoreTickerEntries(t *testing.T) {
	// Brokers reuse tickers across securities, the ISIN decides.
	f := &fakeFinder{matches: map[string]lookup.Match{
		"GB00B03MLX29": {Candidate: lookup.Candidate{Symbol: "RDSA.L", Currency: "GBp"}, Via: lookup.ViaISIN},
		"GB00BP6MXD84": {Candidate: lookup.Candidate{Symbol: "SHEL.L", Currency: "GBp"}, Via: lookup.ViaISIN},
	}}
	r := New(newStore(t), f)
	ctx := context.Background()

	old, err := r.Resolve(ctx, ghostimport.SymbolQuery{ISIN: "GB00B03MLX29", Ticker: "SHEL", Currency: "GBP"})
	require.NoError(t, err)
	require.NotNil(t, old)
	assert.Equal(t, "RDSA.L", old.Symbol)

	sym, err := r.Resolve(ctx, ghostimport.SymbolQuery{ISIN: "GB00BP6MXD84", Ticker: "SHEL", Currency: "GBP"})
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, "SHEL.L", sym.Symbol)
	assert.Equal(t, 2, f.calls)
}

func TestResolve_ISINQueryLooksUpDespiteTickerEntry(t *testing.T) {
	store := newStore(t)
	vusa := &ghostimport.ResolvedSymbol{Symbol: "VUSA.L", Currency: "GBp", DataSource: ghostimport.Manual}
	store.Put(ghostimport.NewSymbolKey("VUSA", "GBP"), vusa)
	f := &fakeFinder{}

	sym, err := New(store, f).Resolve(context.Background(), ghostimport.SymbolQuery{ISIN: "IE00B3XXRP09", Ticker: "VUSA", Currency: "GBP"})
	require.NoError(t, err)
	assert.Nil(t, sym)
	assert.Equal(t, 1, f.calls)

	got, found := store.Get(isinKey(t, "IE00B3XXRP09", "GBP"))
	assert.True(t, found)
	assert.Nil(t, got, "the ISIN miss is recorded under its own key")
	got, _ = store.Get(ghostimport.NewSymbolKey("VUSA", "GBP"))
	assert.Equal(t, vusa, got)
}

func TestResolve_TickerTombstoneDoesNotHideISIN(t *testing.T) {
	store := newStore(t)
	store.Put(ghostimport.NewSymbolKey("AAPL", "USD"), nil)
	f := &fakeFinder{matches: map[string]lookup.Match{"US0378331005": appleMatch}}

	sym, err := New(store, f).Resolve(context.Background(), appleQuery)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, 1, f.calls)

	got, _ := store.Get(ghostimport.NewSymbolKey("AAPL", "USD"))
	assert.Equal(t, sym, got, "the resolved symbol replaces the ticker tombstone")
}

func TestResolve_ManualEntriesArePinned(t *testing.T) {
	store := newStore(t)
	manual := &ghostimport.ResolvedSymbol{Symbol: "AAPL.MX", Currency: "USD", DataSource: ghostimport.Manual}
	store.Put(ghostimport.NewSymbolKey("AAPL", "USD"), manual)
	f := &fakeFinder{matches: map[string]lookup.Match{"US0378331005": appleMatch}}

	_, err := New(store, f).Resolve(context.Background(), ghostimport.SymbolQuery{ISIN: "US0378331005", Currency: "USD", Ticker: "XXX"})
	require.NoError(t, err)
	// Resolving AAPL through another query would write the AAPL|USD key.
	got, _ := store.Get(ghostimport.NewSymbolKey("AAPL", "USD"))
	assert.Equal(t, manual, got)
}

func TestResolve_ReportsAmbiguity(t *testing.T) {
	m := appleMatch
	m.Alternatives = []lookup.Candidate{{Symbol: "AAPL.MX", Currency: "USD"}}
	f := &fakeFinder{matches: map[string]lookup.Match{"US0378331005": m}}
	rec := &recorder{}
	r := New(newStore(t), f, WithReporter(rec))

	_, err := r.Resolve(context.Background(), appleQuery)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), appleQuery)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, rec.ambiguous, "reported once, when looked up")
}

func TestResolve_Stats(t *testing.T) {
	f := &fakeFinder{matches: map[string]lookup.Match{"US0378331005": appleMatch}}
	r := New(newStore(t), f)
	ctx := context.Background()

	_, _ = r.Resolve(ctx, appleQuery)
	_, _ = r.Resolve(ctx, appleQuery)
	_, _ = r.Resolve(ctx, ghostimport.SymbolQuery{Ticker: "NOPE"})
	_, _ = r.Resolve(ctx, ghostimport.SymbolQuery{Ticker: "NOPE"})
	_, _ = r.Resolve(ctx, ghostimport.SymbolQuery{})

	want := Stats{
		Queries:       5,
		Invalid:       1,
		Hits:          2,
		TombstoneHits: 1,
		Lookups:       2,
		Resolved:      1,
		NoMatches:     1,
	}
	assert.Equal(t, want, r.Stats())
}
