package solscan

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned when no credential is configured.
var ErrMissingAPIKey = errors.New("solscan API key not configured")

// ErrInvalidAPIKey is returned when no probe endpoint accepts the credential.
var ErrInvalidAPIKey = errors.New("solscan API key rejected by all probe endpoints")

// TransientError wraps a failure that is worth retrying: network errors,
// 429 throttling, and 5xx responses. Everything else is permanent.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is retryable under the rate governor.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// statusError is a non-OK HTTP response from the explorer API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}
