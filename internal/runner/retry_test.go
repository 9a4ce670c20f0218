package runner_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odysseylab/msgload/internal/runner"
)

func TestRetryRespectsMaxAttempts(t *testing.T) {
	var attempts int64
	requester := &retryableRequester{
		attempts:  &attempts,
		failUntil: 3,
	}

	policy := runner.RetryPolicy{
		MaxAttempts: 5,
		DelayFunc: func(attempt int, err error) time.Duration {
			return time.Duration(attempt) * time.Millisecond // linear backoff for test determinism
		},
	}

	require.NoError(t, runner.WithRetry(requester, policy).Do(context.Background()))
	// Succeeds on the 4th attempt (3 retries after the initial failure).
	assert.EqualValues(t, 4, attempts)
}

func TestRetryExceedsMaxAttempts(t *testing.T) {
	var attempts int64
	requester := &retryableRequester{
		attempts:  &attempts,
		failUntil: 100, // always fails
	}

	policy := runner.RetryPolicy{
		MaxAttempts: 3,
		DelayFunc:   func(attempt int, err error) time.Duration { return time.Millisecond },
	}

	assert.Error(t, runner.WithRetry(requester, policy).Do(context.Background()))
	assert.EqualValues(t, 3, attempts)
}

func TestWithRetrySingleAttemptIsPassthrough(t *testing.T) {
	req := &statusRequester{statusCode: 200}
	assert.Same(t, req, runner.WithRetry(req, runner.RetryPolicy{MaxAttempts: 1}))
}

func TestNon2xxLogged(t *testing.T) {
	logger := &testLogger{}
	wrapped := runner.WithLogging(&statusRequester{statusCode: 500}, logger)

	for i := 0; i < 2; i++ {
		err := wrapped.Do(context.Background())
		var httpErr *runner.HTTPError
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, 500, httpErr.HTTPStatus())
	}
	assert.Equal(t, 2, logger.count)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"wrapped deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), false},
		{"too many requests", &runner.HTTPError{StatusCode: http.StatusTooManyRequests}, true},
		{"server error", &runner.HTTPError{StatusCode: http.StatusBadGateway}, true},
		{"client error", &runner.HTTPError{StatusCode: http.StatusBadRequest}, false},
		{"transport", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runner.Retryable(tt.err))
		})
	}
}

func TestNewRetryPolicyBackoff(t *testing.T) {
	policy := runner.NewRetryPolicy(3)
	require.Equal(t, 4, policy.MaxAttempts)

	cases := []struct {
		attempt int
		base    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{10, 5 * time.Second},
		{40, 5 * time.Second},
	}
	for _, c := range cases {
		d := policy.DelayFunc(c.attempt, nil)
		assert.GreaterOrEqual(t, d, c.base, "attempt %d", c.attempt)
		assert.Less(t, d, c.base+c.base/2, "attempt %d", c.attempt)
	}
}

type retryableRequester struct {
	attempts  *int64
	failUntil int64
}

func (r *retryableRequester) Do(ctx context.Context) error {
	attempt := atomic.AddInt64(r.attempts, 1)
	if attempt <= r.failUntil {
		return errors.New("transient failure")
	}
	return nil
}

type statusRequester struct {
	statusCode int
}

func (s *statusRequester) Do(ctx context.Context) error {
	if s.statusCode >= 400 {
		return &runner.HTTPError{StatusCode: s.statusCode, Body: "error body"}
	}
	return nil
}

type testLogger struct {
	count int
}

func (l *testLogger) LogFailure(err error) {
	l.count++
}
