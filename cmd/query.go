package cmd

import (
	"flag"

	"github.com/etnz/ghostimport"
)

// queryFlags are the flags describing a security the way a broker does.
type queryFlags struct {
	isin     string
	ticker   string
	exchange string
	currency string
	name     string
}

func (q *queryFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&q.isin, "isin", "", "ISIN of the security")
	f.StringVar(&q.ticker, "ticker", "", "ticker of the security, as the broker knows it")
	f.StringVar(&q.exchange, "exchange", "", "exchange hint, used to choose between listings")
	f.StringVar(&q.currency, "currency", "", "currency the security is traded in")
	f.StringVar(&q.name, "name", "", "name of the security, searched when nothing else matches")
}

func (q *queryFlags) query() ghostimport.SymbolQuery {
	return ghostimport.SymbolQuery{
		ISIN:     q.isin,
		Ticker:   q.ticker,
		Exchange: q.exchange,
		Currency: q.currency,
		Name:     q.name,
	}
}
