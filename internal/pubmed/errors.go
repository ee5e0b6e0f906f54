package pubmed

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrRetryExhausted  = errors.New("retries exhausted")
)

// HTTPError is a non-2xx answer from E-utilities. It is the transient
// failure class: NCBI answers 429 and 5xx under load and a later call
// usually succeeds.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("pubmed: http %d from %s", e.StatusCode, e.URL)
}

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}

// RetryExhaustedError carries the last transient failure after every
// attempt failed.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("pubmed: giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetryExhausted
}
