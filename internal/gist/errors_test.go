package gist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func errorResponse(status int) *github.ErrorResponse {
	req, _ := http.NewRequest(http.MethodGet, "https://api.github.com/gists", nil)
	return &github.ErrorResponse{
		Response: &http.Response{StatusCode: status, Request: req},
		Message:  http.StatusText(status),
	}
}

func TestClassifyRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"wrapped cancellation", fmt.Errorf("call failed: %w", context.Canceled), false},
		{"rate limit", &github.RateLimitError{Message: "rate limited"}, true},
		{"abuse detection", &github.AbuseRateLimitError{Message: "slow down"}, true},
		{"server error", errorResponse(http.StatusBadGateway), true},
		{"not found", errorResponse(http.StatusNotFound), false},
		{"unprocessable", errorResponse(http.StatusUnprocessableEntity), false},
		{"unauthorized", errorResponse(http.StatusUnauthorized), false},
		{"network timeout", timeoutErr{}, true},
		{"plain transport failure", errors.New("connection reset by peer"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyRetryable(tt.err))
		})
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := errorResponse(http.StatusNotFound)
	err := &StorageError{Op: "get gist", Retryable: false, Err: cause}

	assert.Contains(t, err.Error(), "get gist")
	var errResp *github.ErrorResponse
	assert.True(t, errors.As(err, &errResp))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&StorageError{Op: "update gist", Retryable: true, Err: errors.New("boom")}))
	assert.False(t, IsRetryable(&StorageError{Op: "get gist", Retryable: false, Err: errors.New("boom")}))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.False(t, IsRetryable(nil))

	wrapped := fmt.Errorf("outer: %w", &StorageError{Op: "list gists", Retryable: true, Err: errors.New("boom")})
	assert.True(t, IsRetryable(wrapped))
}
