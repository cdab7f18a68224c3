package ghostimport

import (
	"fmt"
	"strings"
)

// SymbolQuery is what a converter knows about a security from a broker record.
// At least one of ISIN or Ticker must be present.
type SymbolQuery struct {
	ISIN     string
	Ticker   string
	Exchange string // optional hint, used to break ties between listings
	Currency string // currency the broker traded the security in
	Name     string // optional, last resort search term, never part of the key
}

// String returns a compact human readable form of the query, for diagnostics.
func (q SymbolQuery) String() string {
	parts := make([]string, 0, 4)
	if q.ISIN != "" {
		parts = append(parts, "isin="+q.ISIN)
	}
	if q.Ticker != "" {
		parts = append(parts, "ticker="+q.Ticker)
	}
	if q.Exchange != "" {
		parts = append(parts, "exchange="+q.Exchange)
	}
	if q.Currency != "" {
		parts = append(parts, "currency="+q.Currency)
	}
	if len(parts) == 0 && q.Name != "" {
		parts = append(parts, fmt.Sprintf("name=%q", q.Name))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Normalize returns the canonical form of the query: fields are trimmed,
// identifiers upper-cased, the currency aliased to its ISO code, and an ISIN
// that does not pass ValidateISIN is dropped.
func (q SymbolQuery) Normalize() SymbolQuery {
	n := SymbolQuery{
		ISIN:     strings.ToUpper(strings.TrimSpace(q.ISIN)),
		Ticker:   strings.ToUpper(strings.TrimSpace(q.Ticker)),
		Exchange: strings.ToUpper(strings.TrimSpace(q.Exchange)),
		Currency: CanonicalCurrency(q.Currency),
		Name:     strings.TrimSpace(q.Name),
	}
	if ValidateISIN(n.ISIN) != nil {
		n.ISIN = ""
	}
	return n
}

// Key returns the cache key of the query. A well formed ISIN takes
// precedence over the ticker. Queries with neither fail with ErrInvalidQuery.
func (q SymbolQuery) Key() (CacheKey, error) {
	n := q.Normalize()
	switch {
	case n.ISIN != "":
		return CacheKey{Kind: ISINKey, Value: keyValue(n.ISIN, n.Currency)}, nil
	case n.Ticker != "":
		return CacheKey{Kind: SymbolKey, Value: keyValue(n.Ticker, n.Currency)}, nil
	}
	reason := "neither ISIN nor ticker"
	if strings.TrimSpace(q.ISIN) != "" {
		reason = fmt.Sprintf("malformed ISIN %q and no ticker", q.ISIN)
	}
	return CacheKey{}, &QueryError{Query: q, Reason: reason}
}

// SymbolKey returns the ticker based key of the query, if it has a ticker.
// For ISIN queries this is the secondary key that ticker-only queries for
// the same security will use.
func (q SymbolQuery) SymbolKey() (CacheKey, bool) {
	n := q.Normalize()
	if n.Ticker == "" {
		return CacheKey{}, false
	}
	return CacheKey{Kind: SymbolKey, Value: keyValue(n.Ticker, n.Currency)}, true
}

// KeyKind is the mapping a CacheKey belongs to.
type KeyKind int

const (
	ISINKey KeyKind = iota + 1
	SymbolKey
)

func (k KeyKind) String() string {
	switch k {
	case ISINKey:
		return "isin"
	case SymbolKey:
		return "symbol"
	}
	return fmt.Sprintf("KeyKind(%d)", int(k))
}

// CacheKey identifies an entry in the symbol cache.
type CacheKey struct {
	Kind  KeyKind
	Value string
}

func (k CacheKey) String() string { return k.Kind.String() + ":" + k.Value }

// NewSymbolKey returns the key under which a ticker (or a provider symbol)
// traded in currency is cached.
func NewSymbolKey(symbol, currency string) CacheKey {
	return CacheKey{Kind: SymbolKey, Value: keyValue(strings.ToUpper(strings.TrimSpace(symbol)), CanonicalCurrency(currency))}
}

// NewISINKey returns the key under which an ISIN traded in currency is cached.
func NewISINKey(isin, currency string) (CacheKey, error) {
	isin = strings.ToUpper(strings.TrimSpace(isin))
	if err := ValidateISIN(isin); err != nil {
		return CacheKey{}, fmt.Errorf("invalid ISIN %q: %w", isin, err)
	}
	return CacheKey{Kind: ISINKey, Value: keyValue(isin, CanonicalCurrency(currency))}, nil
}

// keyValue joins an identifier and an optional currency.
// '|' never appears in tickers nor ISINs.
func keyValue(id, currency string) string {
	if currency == "" {
		return id
	}
	return id + "|" + currency
}
