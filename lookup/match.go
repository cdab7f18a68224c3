package lookup

import (
	"context"
	"strings"

	"github.com/etnz/ghostimport"
)

// Find returns the provider candidate that matches q.
//
// The ISIN, when well formed, is searched first and its top candidate is
// accepted only if it is traded in the requested currency. Otherwise the
// ticker is searched, then the name if any; among the candidates traded in
// the requested currency the best scored wins, listings on the requested
// exchange being preferred.
//
// Find returns ErrNoMatch when no candidate qualifies, and a *FailureError
// when the provider could not be searched.
func (c *Client) Find(ctx context.Context, q ghostimport.SymbolQuery) (Match, error) {
	n := q.Normalize()

	if n.ISIN != "" {
		candidates, err := c.Search(ctx, n.ISIN)
		if err != nil {
			return Match{}, err
		}
		if m, ok := pickTop(candidates, n); ok {
			m.Via = ViaISIN
			return m, nil
		}
		c.log.Debug().Str("isin", n.ISIN).Str("currency", n.Currency).Int("candidates", len(candidates)).
			Msg("no isin candidate in the requested currency, falling back")
	}

	terms := []struct {
		term string
		via  Via
	}{
		{n.Ticker, ViaTicker},
		{n.Name, ViaName},
	}
	for _, t := range terms {
		if t.term == "" {
			continue
		}
		candidates, err := c.Search(ctx, t.term)
		if err != nil {
			return Match{}, err
		}
		if m, ok := pickBest(candidates, n); ok {
			m.Via = t.via
			return m, nil
		}
	}
	return Match{}, ErrNoMatch
}

// pickTop accepts the first candidate if it is in the requested currency.
// candidates must be sorted by decreasing score.
func pickTop(candidates []Candidate, q ghostimport.SymbolQuery) (Match, bool) {
	if len(candidates) == 0 {
		return Match{}, false
	}
	top := candidates[0]
	if top.Symbol == "" || !currencyMatches(q.Currency, top.Currency) {
		return Match{}, false
	}
	return Match{Candidate: top, Alternatives: alternatives(top, filter(candidates, q.Currency))}, true
}

// pickBest keeps the candidates in the requested currency, prefers those on
// the requested exchange, and returns the best scored one.
// candidates must be sorted by decreasing score.
func pickBest(candidates []Candidate, q ghostimport.SymbolQuery) (Match, bool) {
	kept := filter(candidates, q.Currency)
	if q.Exchange != "" {
		var onExchange []Candidate
		for _, c := range kept {
			if strings.EqualFold(c.Exchange, q.Exchange) {
				onExchange = append(onExchange, c)
			}
		}
		if len(onExchange) > 0 {
			kept = onExchange
		}
	}
	if len(kept) == 0 {
		return Match{}, false
	}
	return Match{Candidate: kept[0], Alternatives: alternatives(kept[0], kept)}, true
}

// filter returns the candidates with a symbol traded in currency. An empty
// currency keeps every candidate with a symbol.
func filter(candidates []Candidate, currency string) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Symbol != "" && currencyMatches(currency, c.Currency) {
			kept = append(kept, c)
		}
	}
	return kept
}

// alternatives lists the candidates whose symbol differs from chosen's.
func alternatives(chosen Candidate, candidates []Candidate) []Candidate {
	var alts []Candidate
	seen := map[string]bool{strings.ToUpper(chosen.Symbol): true}
	for _, c := range candidates {
		s := strings.ToUpper(c.Symbol)
		if seen[s] {
			continue
		}
		seen[s] = true
		alts = append(alts, c)
	}
	return alts
}

func currencyMatches(want, got string) bool {
	return want == "" || ghostimport.SameCurrency(want, got)
}
