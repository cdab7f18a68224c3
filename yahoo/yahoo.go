// Package yahoo searches securities on Yahoo Finance.
package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/ghostimport"
	"github.com/etnz/ghostimport/lookup"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Yahoo Finance API host.
const DefaultBaseURL = "https://query2.finance.yahoo.com"

// DataSource is the Ghostfolio name of this provider.
const DataSource = "YAHOO"

const (
	searchPath = "/v1/finance/search"
	quotePath  = "/v7/finance/quote"
	// quotesCount is the number of quotes asked to the search endpoint.
	quotesCount = 10
)

// Client implements lookup.Searcher on Yahoo Finance.
type Client struct {
	baseURL string
	http    *http.Client
	header  http.Header
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL replaces the API host, for tests and proxies.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient sets the http client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Yahoo Finance client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		// Yahoo rejects requests without a browser-like agent.
		header: http.Header{"User-Agent": {"Mozilla/5.0 (compatible; gfi)"}},
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("client", "yahoo").Logger()
	return c
}

// Search returns the quotes Yahoo finds for term, with their trading currency.
//
// The search endpoint does not tell currencies, so a second request fetches
// them for all the symbols found at once.
func (c *Client) Search(ctx context.Context, term string) ([]lookup.Candidate, error) {
	addr := fmt.Sprintf("%s%s?q=%s&quotesCount=%d&newsCount=0", c.baseURL, searchPath, url.QueryEscape(term), quotesCount)
	var payload any
	if err := lookup.GetJSON(ctx, c.http, addr, c.header, &payload); err != nil {
		return nil, err
	}
	quotes, err := list(payload, "$.quotes")
	if err != nil {
		return nil, c.decodeError(searchPath, err)
	}

	var isin string
	if ghostimport.IsISIN(term) {
		isin = strings.ToUpper(term)
	}
	candidates := make([]lookup.Candidate, 0, len(quotes))
	symbols := make([]string, 0, len(quotes))
	for _, q := range quotes {
		symbol := str(q, "symbol")
		if symbol == "" {
			continue
		}
		name := str(q, "longname")
		if name == "" {
			name = str(q, "shortname")
		}
		score, _ := q["score"].(float64)
		candidates = append(candidates, lookup.Candidate{
			Symbol:   symbol,
			Name:     name,
			Exchange: str(q, "exchange"),
			ISIN:     isin,
			Score:    score,
		})
		symbols = append(symbols, symbol)
	}
	c.log.Debug().Str("term", term).Int("quotes", len(candidates)).Msg("search")
	if len(candidates) == 0 {
		return candidates, nil
	}

	currencies, err := c.currencies(ctx, symbols)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Currency = currencies[candidates[i].Symbol]
	}
	return candidates, nil
}

// currencies returns the trading currency of each symbol, as Yahoo spells it
// (GBp for pence).
func (c *Client) currencies(ctx context.Context, symbols []string) (map[string]string, error) {
	addr := fmt.Sprintf("%s%s?symbols=%s", c.baseURL, quotePath, url.QueryEscape(strings.Join(symbols, ",")))
	var payload any
	if err := lookup.GetJSON(ctx, c.http, addr, c.header, &payload); err != nil {
		return nil, err
	}
	results, err := list(payload, "$.quoteResponse.result")
	if err != nil {
		return nil, c.decodeError(quotePath, err)
	}
	currencies := make(map[string]string, len(results))
	for _, r := range results {
		if s := str(r, "symbol"); s != "" {
			currencies[s] = str(r, "currency")
		}
	}
	return currencies, nil
}

func (c *Client) decodeError(path string, err error) error {
	host := c.baseURL
	if u, perr := url.Parse(c.baseURL); perr == nil {
		host = u.Host
	}
	return &lookup.DecodeError{Host: host, Path: path, Err: err}
}

// list evaluates path on payload, which must select a list, and returns the
// objects in it. path must not be ambiguous: wildcards hide missing keys.
func list(payload any, path string) ([]map[string]any, error) {
	v, err := jsonpath.Get(path, payload)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: not a list", path)
	}
	objs := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			objs = append(objs, obj)
		}
	}
	return objs, nil
}

func str(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}
