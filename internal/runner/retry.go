package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const (
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 5 * time.Second
)

// HTTPError represents an HTTP request failure with status details.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus exposes the status code to the metrics error breakdown.
func (e *HTTPError) HTTPStatus() int {
	return e.StatusCode
}

// FailureLogger logs failed requests.
type FailureLogger interface {
	LogFailure(err error)
}

// RetryPolicy configures retry behavior.
type RetryPolicy struct {
	MaxAttempts int                                        // total attempts including initial try
	Delay       time.Duration                              // fixed delay between retries (used if DelayFunc nil)
	ShouldRetry func(error) bool                           // predicate; if nil, all errors retried
	DelayFunc   func(attempt int, err error) time.Duration // dynamic backoff; attempt is 1-based
}

// NewRetryPolicy returns the default policy for retries extra attempts:
// exponential backoff from 100ms capped at 5s, plus up to 50% jitter.
// 429, 5xx and transport errors are retried; cancellation never is.
func NewRetryPolicy(retries int) RetryPolicy {
	source := &jitterSource{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}

	return RetryPolicy{
		MaxAttempts: retries + 1,
		ShouldRetry: Retryable,
		DelayFunc: func(attempt int, _ error) time.Duration {
			d := backoff(attempt)
			return d + source.jitter(d/2)
		},
	}
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		return httpErr.StatusCode >= 500
	}

	return true
}

func backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 16 {
		return maxRetryDelay
	}
	d := time.Duration(1<<uint(attempt-1)) * baseRetryDelay
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	return d
}

type jitterSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (j *jitterSource) jitter(max time.Duration) time.Duration {
	if j == nil || max <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return time.Duration(j.rnd.Int63n(int64(max)))
}

// retryRequester wraps a Requester with retry logic.
type retryRequester struct {
	inner  Requester
	policy RetryPolicy
}

// WithRetry wraps a Requester with retry capability.
func WithRetry(req Requester, policy RetryPolicy) Requester {
	if policy.MaxAttempts <= 1 {
		return req // no retries needed
	}
	return &retryRequester{
		inner:  req,
		policy: policy,
	}
}

func (r *retryRequester) Do(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = r.inner.Do(ctx)
		if lastErr == nil {
			return nil // success
		}

		// Don't delay after the last attempt.
		if attempt < r.policy.MaxAttempts {
			if r.policy.ShouldRetry != nil && !r.policy.ShouldRetry(lastErr) {
				return lastErr
			}
			var delay time.Duration
			if r.policy.DelayFunc != nil {
				delay = r.policy.DelayFunc(attempt, lastErr)
			} else {
				delay = r.policy.Delay
			}
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}

// loggingRequester wraps a Requester with failure logging.
type loggingRequester struct {
	inner  Requester
	logger FailureLogger
}

// WithLogging wraps a Requester to log failures.
func WithLogging(req Requester, logger FailureLogger) Requester {
	if logger == nil {
		return req
	}
	return &loggingRequester{
		inner:  req,
		logger: logger,
	}
}

func (l *loggingRequester) Do(ctx context.Context) error {
	err := l.inner.Do(ctx)
	if err != nil && l.logger != nil {
		l.logger.LogFailure(err)
	}
	return err
}
