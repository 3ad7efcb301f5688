package gist

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/google/go-github/v57/github"
)

// StorageError wraps a transport-level failure from the document store.
// Retryable errors may be re-attempted by the concurrency layer on top of
// the client's own transport retry.
type StorageError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("gist storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a storage failure worth retrying
func IsRetryable(err error) bool {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// classifyRetryable decides whether a raw gist API error is transient:
// rate limiting, abuse detection, server errors, and network failures are;
// 404/422/auth errors are not.
func classifyRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) {
		if errResp.Response != nil && errResp.Response.StatusCode >= 500 {
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Unclassified transport failures (connection reset, DNS, EOF) reach
	// here as plain errors from the HTTP layer
	return true
}
