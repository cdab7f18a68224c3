package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/etnz/ghostimport"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 8 * time.Second
	// DefaultRate paces requests to the provider.
	DefaultRate = rate.Limit(4)

	// maxRetryAfter caps the delay a server can impose through Retry-After.
	maxRetryAfter = time.Minute
)

// Client searches a provider with pacing and bounded retries.
type Client struct {
	searcher        Searcher
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	limiter         *rate.Limiter
	log             zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMaxAttempts sets how many times a search is attempted before giving up.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the first and the largest wait between attempts.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		c.initialInterval = initial
		c.maxInterval = max
	}
}

// WithRate sets the request pace. rate.Inf disables pacing.
func WithRate(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client searching with s.
func New(s Searcher, opts ...Option) *Client {
	c := &Client{
		searcher:        s,
		maxAttempts:     DefaultMaxAttempts,
		initialInterval: DefaultInitialInterval,
		maxInterval:     DefaultMaxInterval,
		limiter:         rate.NewLimiter(DefaultRate, 1),
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "lookup").Logger()
	return c
}

// FailureError is returned when a search could not be completed: the
// provider refused it, answered nonsense, or kept failing.
type FailureError struct {
	Term     string
	Attempts int
	Err      error
}

func (e *FailureError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("search %q failed after %d attempts: %v", e.Term, e.Attempts, e.Err)
	}
	return fmt.Sprintf("search %q failed: %v", e.Term, e.Err)
}

// Unwrap makes FailureError match both ghostimport.ErrLookupFailure and its cause.
func (e *FailureError) Unwrap() []error { return []error{ghostimport.ErrLookupFailure, e.Err} }

// Search runs a provider search for term and returns the candidates sorted
// by decreasing score.
//
// Transient errors are retried with exponential backoff, at most
// maxAttempts times in total. Other errors, and the last transient one once
// attempts are exhausted, are returned as a *FailureError.
func (c *Client) Search(ctx context.Context, term string) ([]Candidate, error) {
	var (
		result   []Candidate
		attempts int
		policy   = c.policy()
	)

	op := func() error {
		attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		candidates, err := c.searcher.Search(ctx, term)
		if err != nil {
			if !transient(err) {
				return backoff.Permanent(err)
			}
			var se *StatusError
			if errors.As(err, &se) && se.RetryAfter > 0 {
				policy.hint = min(se.RetryAfter, maxRetryAfter)
			}
			return err
		}
		result = candidates
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.log.Warn().Err(err).
			Str("term", term).
			Int("attempt", attempts).
			Dur("wait", wait).
			Msg("search failed, retrying")
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		return nil, &FailureError{Term: term, Attempts: attempts, Err: err}
	}
	sortByScore(result)
	c.log.Debug().Str("term", term).Int("candidates", len(result)).Msg("search done")
	return result, nil
}

func (c *Client) policy() *hintedBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxInterval = c.maxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return &hintedBackOff{BackOff: backoff.WithMaxRetries(b, uint64(c.maxAttempts-1))}
}

// hintedBackOff waits at least as long as the server asked for.
type hintedBackOff struct {
	backoff.BackOff
	hint time.Duration
}

func (b *hintedBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next != backoff.Stop && b.hint > next {
		next = b.hint
	}
	b.hint = 0
	return next
}

// transient reports whether err is worth retrying: network errors,
// timeouts, rate limiting and server side errors.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var t interface{ Temporary() bool }
	if errors.As(err, &t) && t.Temporary() {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
