package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Requester abstracts executing a single request operation.
// Implementations should return an error for failed requests.
type Requester interface {
	Do(ctx context.Context) error
}

// RequesterFunc adapts a function to the Requester interface.
type RequesterFunc func(ctx context.Context) error

func (f RequesterFunc) Do(ctx context.Context) error { return f(ctx) }

// IterationFunc runs one iteration for the virtual user with index vu.
type IterationFunc func(ctx context.Context, vu int) error

// Plan yields the number of virtual users that should be active elapsed into
// the run. scenario.Scenario satisfies it.
type Plan interface {
	TargetAt(elapsed time.Duration) int
}

// Options configure the Runner.
type Options struct {
	MaxVUs         int                         // worker goroutines started up front
	Plan           Plan                        // active VU target over time; nil keeps all MaxVUs active
	Duration       time.Duration               // overall time limit (0 means no duration cap)
	Iterations     int                         // total iterations across all VUs (0 means unlimited)
	RatePerSecond  int                         // iteration starts per second (0 means unlimited)
	GracefulStop   time.Duration               // time in-flight iterations get once the run ends
	ThinkTime      func() time.Duration        // pause after each iteration; nil means none
	Iteration      IterationFunc               // iteration body (required)
	OnVUs          func(active int)            // called once per second with the active VU count
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
	TickInterval   time.Duration               // controller period; defaults to 100ms
}

const (
	defaultTick         = 100 * time.Millisecond
	defaultGracefulStop = 5 * time.Second
)

func (o *Options) normalize() {
	if o.MaxVUs <= 0 {
		o.MaxVUs = 1
	}
	if o.Iterations < 0 {
		o.Iterations = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.GracefulStop <= 0 {
		o.GracefulStop = defaultGracefulStop
	}
	if o.TickInterval <= 0 {
		o.TickInterval = defaultTick
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
