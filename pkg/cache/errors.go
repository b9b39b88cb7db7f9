package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by cache users.
var (
	// ErrNotFound means the remote side answered 404.
	ErrNotFound = errors.New("not found")

	// ErrNetwork covers timeouts, connection failures and 5xx responses.
	ErrNetwork = errors.New("network error")

	// ErrCacheMiss is returned by helpers that require a hit.
	ErrCacheMiss = errors.New("cache miss")
)

// RetryableError marks an error as worth another attempt.
type RetryableError struct{ Err error }

// Retryable wraps err. Nil stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff runs fn up to attempts times, doubling delay after each
// retryable failure. Non-retryable errors return immediately.
func RetryWithBackoff(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}
