package ghostimport

import (
	"errors"
	"testing"
)

func TestSymbolQuery_Key(t *testing.T) {
	tests := []struct {
		name    string
		query   SymbolQuery
		want    CacheKey
		wantErr bool
	}{
		{
			name:  "isin only",
			query: SymbolQuery{ISIN: "US0378331005"},
			want:  CacheKey{ISINKey, "US0378331005"},
		},
		{
			name:  "isin takes precedence",
			query: SymbolQuery{ISIN: "US0378331005", Ticker: "AAPL", Currency: "usd"},
			want:  CacheKey{ISINKey, "US0378331005|USD"},
		},
		{
			name:  "isin is normalized",
			query: SymbolQuery{ISIN: " us0378331005 ", Currency: "GBp"},
			want:  CacheKey{ISINKey, "US0378331005|GBP"},
		},
		{
			name:  "malformed isin falls back to ticker",
			query: SymbolQuery{ISIN: "INVALID_ISIN_FORMAT", Ticker: "aapl", Currency: "USD"},
			want:  CacheKey{SymbolKey, "AAPL|USD"},
		},
		{
			name:  "ticker without currency",
			query: SymbolQuery{Ticker: "VUSA"},
			want:  CacheKey{SymbolKey, "VUSA"},
		},
		{
			name:    "malformed isin and no ticker",
			query:   SymbolQuery{ISIN: "US0378331006", Currency: "USD"},
			wantErr: true,
		},
		{
			name:    "name only",
			query:   SymbolQuery{Name: "Apple Inc."},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.query.Key()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Key() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidQuery) {
					t.Errorf("Key() error = %v, want ErrInvalidQuery", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Key() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestSymbolQuery_KeyIsDeterministic checks that equivalent spellings of a query share a key.
func TestSymbolQuery_KeyIsDeterministic(t *testing.T) {
	spellings := []SymbolQuery{
		{ISIN: "GB0002634946", Currency: "GBP"},
		{ISIN: "gb0002634946", Currency: "gbp"},
		{ISIN: "GB0002634946 ", Currency: "GBX", Ticker: "BA."},
		{ISIN: "GB0002634946", Currency: "GBp", Name: "BAE Systems"},
	}
	first, err := spellings[0].Key()
	if err != nil {
		t.Fatalf("Key() unexpected error: %v", err)
	}
	for _, q := range spellings[1:] {
		got, err := q.Key()
		if err != nil {
			t.Fatalf("Key(%v) unexpected error: %v", q, err)
		}
		if got != first {
			t.Errorf("Key(%v) = %v, want %v", q, got, first)
		}
	}
}

func TestSymbolQuery_SymbolKey(t *testing.T) {
	q := SymbolQuery{ISIN: "US0378331005", Ticker: "aapl", Currency: "USD"}
	got, ok := q.SymbolKey()
	if !ok {
		t.Fatalf("SymbolKey() ok = false, want true")
	}
	if want := NewSymbolKey("AAPL", "usd"); got != want {
		t.Errorf("SymbolKey() = %v, want %v", got, want)
	}
	if _, ok := (SymbolQuery{ISIN: "US0378331005"}).SymbolKey(); ok {
		t.Errorf("SymbolKey() ok = true for a query without ticker")
	}
}

func TestNewISINKey(t *testing.T) {
	if _, err := NewISINKey("NOPE", "EUR"); err == nil {
		t.Errorf("NewISINKey() accepted a malformed ISIN")
	}
	got, err := NewISINKey("ie00b4l5y983", "eur")
	if err != nil {
		t.Fatalf("NewISINKey() unexpected error: %v", err)
	}
	if got.String() != "isin:IE00B4L5Y983|EUR" {
		t.Errorf("NewISINKey() = %v, want isin:IE00B4L5Y983|EUR", got)
	}
}

func TestSymbolQuery_String(t *testing.T) {
	q := SymbolQuery{ISIN: "US0378331005", Currency: "USD"}
	if got, want := q.String(), "{isin=US0378331005 currency=USD}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
