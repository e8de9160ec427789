package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind classifies provider failures for the retry policy.
type ErrorKind int

const (
	// Unavailable covers network failures and 5xx replies.
	Unavailable ErrorKind = iota
	RateLimited
	// Invalid means the reply did not match the requested schema.
	Invalid
	// Truncated means the reply stopped at MaxTokens.
	Truncated
	// Rejected covers other 4xx replies such as a bad key.
	Rejected
)

func (k ErrorKind) String() string {
	switch k {
	case RateLimited:
		return "rate limited"
	case Invalid:
		return "invalid response"
	case Truncated:
		return "truncated response"
	case Rejected:
		return "request rejected"
	}
	return "provider unavailable"
}

// Error is a classified provider failure.
type Error struct {
	Kind ErrorKind

	// RetryAfter is the server's requested wait, when it sent one.
	RetryAfter time.Duration

	// Body is the offending reply for Invalid and Truncated.
	Body json.RawMessage

	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "llm: " + e.Kind.String()
	}
	return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a classified error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// classify maps an HTTP status from a vendor SDK error to an Error.
func classify(status int, header http.Header, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &Error{Kind: RateLimited, RetryAfter: retryAfter(header), Err: err}
	case status >= 400 && status < 500:
		return &Error{Kind: Rejected, Err: err}
	}
	return &Error{Kind: Unavailable, Err: err}
}

func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
