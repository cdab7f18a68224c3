package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/etnz/ghostimport/lookup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchVOD = `{
  "explains": [],
  "count": 3,
  "quotes": [
    {"exchange": "LSE", "shortname": "VODAFONE GROUP PLC", "quoteType": "EQUITY", "symbol": "VOD.L", "score": 20034, "longname": "Vodafone Group Public Limited Company"},
    {"exchange": "NMS", "shortname": "Vodafone Group Plc", "quoteType": "EQUITY", "symbol": "VOD", "score": 20010},
    {"exchange": "FRA", "shortname": "VODAFONE GROUP", "quoteType": "EQUITY", "symbol": "VODI.F", "score": 20002},
    {"index": "quicktake", "name": "no symbol here"}
  ],
  "news": []
}`

const quoteVOD = `{"quoteResponse": {"result": [
  {"symbol": "VOD.L", "currency": "GBp"},
  {"symbol": "VOD", "currency": "USD"},
  {"symbol": "VODI.F", "currency": "EUR"}
], "error": null}}`

func newServer(t *testing.T, search, quote string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case searchPath:
			fmt.Fprint(w, search)
		case quotePath:
			assert.Equal(t, "VOD.L,VOD,VODI.F", r.URL.Query().Get("symbols"))
			fmt.Fprint(w, quote)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSearch(t *testing.T) {
	srv, calls := newServer(t, searchVOD, quoteVOD)
	c := New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	got, err := c.Search(context.Background(), "VOD")
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
	want := []lookup.Candidate{
		{Symbol: "VOD.L", Name: "Vodafone Group Public Limited Company", Currency: "GBp", Exchange: "LSE", Score: 20034},
		{Symbol: "VOD", Name: "Vodafone Group Plc", Currency: "USD", Exchange: "NMS", Score: 20010},
		{Symbol: "VODI.F", Name: "VODAFONE GROUP", Currency: "EUR", Exchange: "FRA", Score: 20002},
	}
	assert.Equal(t, want, got)
}

func TestSearchByISIN(t *testing.T) {
	srv, _ := newServer(t, searchVOD, quoteVOD)
	c := New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	got, err := c.Search(context.Background(), "GB00BH4HKS39")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, cand := range got {
		assert.Equal(t, "GB00BH4HKS39", cand.ISIN)
	}
}

func TestSearchNothingFound(t *testing.T) {
	srv, calls := newServer(t, `{"quotes": [], "news": []}`, quoteVOD)
	c := New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	got, err := c.Search(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, *calls, "no quote request without symbols")
}

func TestSearchMalformed(t *testing.T) {
	tests := []struct {
		name, search, quote string
	}{
		{"no quotes", `{"news": []}`, quoteVOD},
		{"quotes not a list", `{"quotes": 3}`, quoteVOD},
		{"no quote response", searchVOD, `{"finance": {"error": "gone"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.search, tt.quote)
			c := New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
			_, err := c.Search(context.Background(), "VOD")
			var de *lookup.DecodeError
			assert.ErrorAs(t, err, &de)
		})
	}
}

func TestSearchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c := New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := c.Search(context.Background(), "VOD")
	var se *lookup.StatusError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Temporary())
}
