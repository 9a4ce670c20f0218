// Package runner provides the virtual-user execution engine for msgload.
//
// A run starts MaxVUs worker goroutines up front. A controller ticking every
// 100ms asks the [Plan] how many users should be active and admits workers
// with a lower index; the rest wait at a gate. This mirrors k6 constant-vus
// and ramping-vus executors.
//
// # Basic Usage
//
//	r := runner.New(runner.Options{
//		MaxVUs:    sc.MaxVUs(),
//		Plan:      sc,
//		Duration:  sc.TotalDuration(),
//		ThinkTime: thinkTime,
//		Iteration: func(ctx context.Context, vu int) error {
//			return exec.Iterate(ctx, vu)
//		},
//		OnVUs: collector.SetVUs,
//	})
//	result := r.Run(ctx)
//
// The run ends when Duration elapses, the shared Iterations budget is spent,
// or ctx is cancelled. Iterations still in flight get GracefulStop to finish.
// RatePerSecond paces iteration starts across all users with a
// golang.org/x/time/rate limiter.
//
// # Middleware
//
// Single requests are modelled by [Requester], which composes with:
//   - [WithLogging]: Log request failures
//   - [WithRetry]: Automatic retry with backoff ([NewRetryPolicy])
//
// # Error Handling
//
// The [HTTPError] type provides structured error information for HTTP requests:
//
//	var httpErr *runner.HTTPError
//	if errors.As(err, &httpErr) {
//		fmt.Printf("Status: %d, Body: %s\n", httpErr.StatusCode, httpErr.Body)
//	}
package runner
