package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// StatusError is returned by GetJSON when the server answers anything but 200 OK.
type StatusError struct {
	Host       string
	Path       string
	StatusCode int
	Status     string
	RetryAfter time.Duration // zero when the server did not say
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot http GET %v%v: %v", e.Host, e.Path, e.Status)
}

// Temporary reports whether the request may succeed if retried: rate
// limiting and server side errors.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// DecodeError is returned by GetJSON when the payload cannot be decoded.
type DecodeError struct {
	Host string
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed answer from %v%v: %v", e.Host, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// GetJSON performs an HTTP GET request to addr and unmarshals the JSON
// response body into data. Header values, if any, are added to the request.
//
// The query string of addr never appears in errors since it may carry
// credentials.
func GetJSON(ctx context.Context, client *http.Client, addr string, header http.Header, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return fmt.Errorf("cannot build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = req.URL.Scheme + "://" + req.URL.Host + req.URL.Path
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so that the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &StatusError{
			Host:       req.URL.Host,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("cannot read answer from %v%v: %w", req.URL.Host, req.URL.Path, err)
	}
	if err := json.Unmarshal(body, data); err != nil {
		return &DecodeError{Host: req.URL.Host, Path: req.URL.Path, Err: err}
	}
	return nil
}

// retryAfter parses the delay-seconds form of a Retry-After header.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
