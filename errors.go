package ghostimport

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery is returned for queries that carry neither a valid
	// ISIN nor a ticker. The caller should skip the record.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrLookupFailure is returned when the quote provider could not be
	// queried: credentials, malformed answers or exhausted retries. The
	// caller should abort the run rather than produce an incomplete export.
	ErrLookupFailure = errors.New("lookup failure")
)

// QueryError reports an invalid query.
type QueryError struct {
	Query  SymbolQuery
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid query %s: %s", e.Query, e.Reason)
}

func (e *QueryError) Unwrap() error { return ErrInvalidQuery }

// LookupError reports a failed remote lookup for a given query.
type LookupError struct {
	Query SymbolQuery
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("cannot resolve %s: %v", e.Query, e.Err)
}

// Unwrap returns both ErrLookupFailure and the underlying error, so that
// errors.Is works against either.
func (e *LookupError) Unwrap() []error { return []error{ErrLookupFailure, e.Err} }
