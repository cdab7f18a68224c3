package ghostimport

import "fmt"

// DataSource tells where a ResolvedSymbol comes from.
type DataSource string

const (
	// Provider marks symbols found by the remote quote provider.
	Provider DataSource = "PROVIDER"
	// Manual marks symbols entered by the operator.
	Manual DataSource = "MANUAL"
)

// Valid reports whether d is one of the known data sources.
func (d DataSource) Valid() bool { return d == Provider || d == Manual }

// ResolvedSymbol is the canonical tradable symbol of a security, as known by
// the quote provider.
type ResolvedSymbol struct {
	Symbol        string     `json:"symbol" msgpack:"symbol"`
	Currency      string     `json:"currency" msgpack:"currency"`
	DataSource    DataSource `json:"dataSource" msgpack:"dataSource"`
	CanonicalName string     `json:"canonicalName,omitempty" msgpack:"canonicalName,omitempty"`
}

// Validate checks that the symbol can be written in an export.
func (s ResolvedSymbol) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("resolved symbol: empty symbol")
	}
	if !s.DataSource.Valid() {
		return fmt.Errorf("resolved symbol %q: unknown data source %q", s.Symbol, s.DataSource)
	}
	return nil
}

func (s ResolvedSymbol) String() string {
	if s.Currency == "" {
		return s.Symbol
	}
	return fmt.Sprintf("%s (%s)", s.Symbol, s.Currency)
}
