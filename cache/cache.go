// Package cache implements the durable symbol cache.
//
// The cache holds two mappings, one keyed by ISIN and one keyed by ticker
// (or provider symbol), both optionally qualified by a currency. A present
// key with a nil value is a tombstone: a query known to have no match,
// remembered so that the provider is not asked again.
//
// A Store is owned by a single resolver for the duration of a run and is not
// safe for concurrent use.
package cache

import (
	"github.com/etnz/ghostimport"
	"github.com/rs/zerolog"
)

// entries is one of the two mappings. A nil value is a tombstone.
type entries map[string]*ghostimport.ResolvedSymbol

// Store is the in-memory cache bound to its file.
type Store struct {
	path    string
	codec   codec
	isins   entries
	symbols entries
	dirty   bool
	log     zerolog.Logger
}

// Open returns an empty store bound to path. It does not touch the disk:
// call Load to restore a previous run.
func Open(path string, log zerolog.Logger) *Store {
	return &Store{
		path:    path,
		codec:   codecFor(path),
		isins:   make(entries),
		symbols: make(entries),
		log:     log.With().Str("component", "cache").Logger(),
	}
}

// Path returns the file the store is bound to.
func (s *Store) Path() string { return s.path }

func (s *Store) mapping(kind ghostimport.KeyKind) entries {
	if kind == ghostimport.ISINKey {
		return s.isins
	}
	return s.symbols
}

// Get returns the entry stored under key. found is false when the key is
// absent; a found entry with a nil symbol is a tombstone.
func (s *Store) Get(key ghostimport.CacheKey) (sym *ghostimport.ResolvedSymbol, found bool) {
	sym, found = s.mapping(key.Kind)[key.Value]
	if sym != nil {
		// Hand out a copy so that callers cannot alter the cache.
		c := *sym
		sym = &c
	}
	return sym, found
}

// Put stores sym under key, replacing any previous entry. A nil sym stores a
// tombstone.
func (s *Store) Put(key ghostimport.CacheKey, sym *ghostimport.ResolvedSymbol) {
	if sym != nil {
		c := *sym
		sym = &c
	}
	s.mapping(key.Kind)[key.Value] = sym
	s.dirty = true
}

// Delete removes the entry stored under key and reports whether there was one.
func (s *Store) Delete(key ghostimport.CacheKey) bool {
	m := s.mapping(key.Kind)
	if _, ok := m[key.Value]; !ok {
		return false
	}
	delete(m, key.Value)
	s.dirty = true
	return true
}

// PurgeTombstones removes every tombstone and returns how many were removed,
// so that known misses are asked again on the next run.
func (s *Store) PurgeTombstones() int {
	n := 0
	for _, m := range []entries{s.isins, s.symbols} {
		for k, v := range m {
			if v == nil {
				delete(m, k)
				n++
			}
		}
	}
	if n > 0 {
		s.dirty = true
	}
	return n
}

// Len returns the number of entries, tombstones included, of each mapping.
func (s *Store) Len() (isins, symbols int) { return len(s.isins), len(s.symbols) }

// Tombstones returns the number of tombstones of each mapping.
func (s *Store) Tombstones() (isins, symbols int) {
	return countNil(s.isins), countNil(s.symbols)
}

func countNil(m entries) int {
	n := 0
	for _, v := range m {
		if v == nil {
			n++
		}
	}
	return n
}
