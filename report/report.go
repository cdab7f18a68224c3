// Package report tells the operator how a conversion goes: progress lines
// while records are processed, and a markdown summary at the end listing what
// needs manual attention.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/etnz/ghostimport"
	"github.com/etnz/ghostimport/lookup"
	"github.com/rs/zerolog"
)

// NoMatch is a record skipped because its security could not be resolved.
type NoMatch struct {
	Line  int
	Query string
}

// Ambiguity is a resolution that had other acceptable candidates.
type Ambiguity struct {
	Query        string
	Chosen       string
	Alternatives []string
}

// Skip is a record skipped for any other reason.
type Skip struct {
	Line   int
	Reason string
}

// Reporter collects diagnostics during a run and logs progress.
type Reporter struct {
	log     zerolog.Logger
	now     func() time.Time
	started time.Time
	total   int
	done    int
	every   int

	noMatches   []NoMatch
	ambiguities []Ambiguity
	skipped     []Skip
}

// New returns a Reporter logging to log.
func New(log zerolog.Logger) *Reporter {
	return &Reporter{
		log:   log.With().Str("component", "report").Logger(),
		now:   time.Now,
		every: 1,
	}
}

// Start announces total records to process.
func (r *Reporter) Start(total int) {
	r.total = total
	r.done = 0
	r.started = r.now()
	// about ten progress lines per run
	r.every = max(1, total/10)
	r.log.Info().Int("records", total).Msg("start processing")
}

// Step marks one more record as processed.
func (r *Reporter) Step() {
	r.done++
	if r.done%r.every != 0 && r.done != r.total {
		return
	}
	ev := r.log.Info().Int("done", r.done).Int("total", r.total)
	if r.total > 0 {
		ev = ev.Int("percent", r.done*100/r.total)
	}
	ev.Msg("progress")
}

// Done logs the end of the run.
func (r *Reporter) Done() {
	r.log.Info().
		Int("records", r.done).
		Int("no_match", len(r.noMatches)).
		Int("ambiguous", len(r.ambiguities)).
		Int("skipped", len(r.skipped)).
		Dur("elapsed", r.now().Sub(r.started)).
		Msg("processing complete")
}

// NoMatch records that the security of the record at line could not be resolved.
func (r *Reporter) NoMatch(line int, q ghostimport.SymbolQuery) {
	r.noMatches = append(r.noMatches, NoMatch{Line: line, Query: q.String()})
	r.log.Warn().Int("line", line).Stringer("query", q).Msg("no match, please add this manually")
}

// Ambiguous records that chosen was picked among alternatives for q.
func (r *Reporter) Ambiguous(q ghostimport.SymbolQuery, chosen lookup.Candidate, alternatives []lookup.Candidate) {
	a := Ambiguity{Query: q.String(), Chosen: describe(chosen)}
	for _, c := range alternatives {
		a.Alternatives = append(a.Alternatives, describe(c))
	}
	r.ambiguities = append(r.ambiguities, a)
	r.log.Warn().Stringer("query", q).Str("chosen", chosen.Symbol).Int("alternatives", len(alternatives)).
		Msg("ambiguous match")
}

// Skipped records that the record at line was not converted.
func (r *Reporter) Skipped(line int, reason string) {
	r.skipped = append(r.skipped, Skip{Line: line, Reason: reason})
	r.log.Warn().Int("line", line).Str("reason", reason).Msg("record skipped")
}

// NoMatches returns the records skipped for lack of a match.
func (r *Reporter) NoMatches() []NoMatch { return r.noMatches }

// describe formats a candidate as "SYMBOL (CURRENCY, EXCHANGE)".
func describe(c lookup.Candidate) string {
	var details []string
	if c.Currency != "" {
		details = append(details, c.Currency)
	}
	if c.Exchange != "" {
		details = append(details, c.Exchange)
	}
	if len(details) == 0 {
		return c.Symbol
	}
	return fmt.Sprintf("%s (%s)", c.Symbol, strings.Join(details, ", "))
}
