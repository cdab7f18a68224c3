// Package lookup finds the provider symbol matching a broker query.
//
// A Searcher talks to one quote provider (see the yahoo and eodhd packages)
// and returns raw candidates. The Client wraps a Searcher with pacing and
// bounded retries, and implements the matching heuristics on top of it.
package lookup

import (
	"context"
	"errors"
	"sort"
)

// ErrNoMatch is returned by Find when the query is valid but no candidate
// satisfies it. It is an answer, not a failure.
var ErrNoMatch = errors.New("no match")

// Candidate is a security returned by a provider search.
type Candidate struct {
	Symbol   string
	Name     string
	Currency string
	Exchange string
	ISIN     string // when the provider returns it
	Score    float64
}

// Searcher is a provider search endpoint.
//
// Errors that implement `Temporary() bool` and return true, as well as
// network errors, are retried by the Client. Any other error is final.
type Searcher interface {
	Search(ctx context.Context, term string) ([]Candidate, error)
}

// Via tells which search produced a Match.
type Via string

const (
	ViaISIN   Via = "isin"
	ViaTicker Via = "ticker"
	ViaName   Via = "name"
)

// Match is the outcome of Find.
type Match struct {
	Candidate
	Via Via
	// Alternatives are other candidates that satisfied the same filters with
	// a different symbol. A non empty list means the match is ambiguous.
	Alternatives []Candidate
}

// Ambiguous reports whether other candidates were equally acceptable.
func (m Match) Ambiguous() bool { return len(m.Alternatives) > 0 }

// sortByScore sorts candidates by decreasing score, keeping the provider
// order between equal scores.
func sortByScore(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Score > c[j].Score })
}
