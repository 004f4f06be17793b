// Package remote implements a provider-agnostic paginated listing and
// content retrieval core: a bounded retry policy, a sequential pagination
// loop, and a whole-object content fetcher, all driven through
// caller-supplied capability interfaces.
package remote

import (
	"errors"
	"fmt"
)

// ErrNotAuthorized is returned when a listing or fetch is attempted
// before credentials are bound. Surfaced before any network call and
// never retried.
var ErrNotAuthorized = errors.New("remote: not authorized")

// ErrRetryExhausted matches any *ExhaustedError via errors.Is.
var ErrRetryExhausted = errors.New("remote: retry attempts exhausted")

// ExhaustedError is returned after all permitted attempts at an
// operation have failed. It wraps the last underlying error; no partial
// results accompany it.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error // last attempt's error, for errors.Is/As
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("remote: %s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Is reports true for ErrRetryExhausted so callers can test for
// exhaustion without losing access to the wrapped cause.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrRetryExhausted
}
