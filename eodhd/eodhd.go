// Package eodhd searches securities on EOD Historical Data.
package eodhd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etnz/ghostimport/lookup"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the EODHD API host.
const DefaultBaseURL = "https://eodhd.com"

// DataSource is the Ghostfolio name of this provider.
const DataSource = "EOD_HISTORICAL_DATA"

// ErrMissingKey is returned by Search when the client has no API key.
var ErrMissingKey = errors.New("eodhd: missing API key")

// searchResult matches the structure of a single item in the EODHD search API response.
type searchResult struct {
	Code     string `json:"Code"`
	Exchange string `json:"Exchange"`
	Name     string `json:"Name"`
	Type     string `json:"Type"`
	Country  string `json:"Country"`
	Currency string `json:"Currency"`
	ISIN     string `json:"ISIN"`
}

// Client implements lookup.Searcher on EODHD.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL replaces the API host, for tests.
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

// New returns an EODHD client using apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("client", "eodhd").Logger()
	return c
}

// Search searches for securities via the EODHD search API.
//
// Symbols are returned in EODHD's "CODE.EXCHANGE" form. The API ranks
// results without telling a score, so the score is derived from the rank.
func (c *Client) Search(ctx context.Context, term string) ([]lookup.Candidate, error) {
	if c.apiKey == "" {
		return nil, ErrMissingKey
	}
	// https://eodhd.com/api/search/AAPL?api_token=demo&fmt=json
	addr := fmt.Sprintf("%s/api/search/%s?api_token=%s&fmt=json", c.baseURL, url.PathEscape(term), url.QueryEscape(c.apiKey))

	var results []searchResult
	if err := lookup.GetJSON(ctx, c.http, addr, nil, &results); err != nil {
		return nil, err
	}
	c.log.Debug().Str("term", term).Int("results", len(results)).Msg("search")

	candidates := make([]lookup.Candidate, 0, len(results))
	for i, r := range results {
		if r.Code == "" || r.Exchange == "" {
			continue
		}
		candidates = append(candidates, lookup.Candidate{
			Symbol:   r.Code + "." + r.Exchange,
			Name:     r.Name,
			Currency: r.Currency,
			Exchange: r.Exchange,
			ISIN:     strings.ToUpper(r.ISIN),
			Score:    float64(len(results) - i),
		})
	}
	return candidates, nil
}
