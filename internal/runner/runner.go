package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Result captures execution summary.
type Result struct {
	Iterations int64
	Errors     int64
	Duration   time.Duration
	PeakVUs    int
}

// Runner drives a pool of virtual users through a VU plan.
type Runner struct {
	opt   Options
	pacer *pacer
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, pacer: newPacer(opt)}
}

// Run starts MaxVUs workers and admits as many as the plan asks for, until
// the duration elapses, the iteration budget is spent or ctx is cancelled.
// Iterations in flight when the run ends get GracefulStop to finish.
func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()
	if r.opt.Iteration == nil {
		return Result{Duration: time.Since(start)}
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var stopCtx context.Context
	var halt context.CancelFunc
	if r.opt.Duration > 0 {
		stopCtx, halt = context.WithTimeout(runCtx, r.opt.Duration)
	} else {
		stopCtx, halt = context.WithCancel(runCtx)
	}
	defer halt()

	finished := make(chan struct{})
	go func() {
		select {
		case <-finished:
			return
		case <-stopCtx.Done():
		}
		timer := time.NewTimer(r.opt.GracefulStop)
		defer timer.Stop()
		select {
		case <-timer.C:
			cancelRun()
		case <-finished:
		}
	}()

	gate := newVUGate(r.targetAt(0))
	peak := gate.Target()
	ctrlDone := make(chan struct{})
	go func() {
		defer close(ctrlDone)
		r.control(stopCtx, start, gate, &peak)
	}()

	var reserved, completed, errs int64
	var wg sync.WaitGroup
	wg.Add(r.opt.MaxVUs)
	for i := 0; i < r.opt.MaxVUs; i++ {
		go func(vu int) {
			defer wg.Done()
			for {
				if !gate.Wait(vu, stopCtx.Done()) || stopCtx.Err() != nil {
					return
				}
				if err := r.pacer.Wait(stopCtx); err != nil {
					return
				}
				if r.opt.Iterations > 0 {
					n := atomic.AddInt64(&reserved, 1)
					if n > int64(r.opt.Iterations) {
						return
					}
					if n == int64(r.opt.Iterations) {
						halt()
					}
				}

				if err := r.opt.Iteration(runCtx, vu); err != nil {
					atomic.AddInt64(&errs, 1)
				}
				atomic.AddInt64(&completed, 1)

				if !r.think(stopCtx) {
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(finished)
	halt()
	<-ctrlDone

	return Result{
		Iterations: atomic.LoadInt64(&completed),
		Errors:     atomic.LoadInt64(&errs),
		Duration:   time.Since(start),
		PeakVUs:    peak,
	}
}

// control recomputes the VU target every tick and reports the active count
// once per second.
func (r *Runner) control(ctx context.Context, start time.Time, gate *vuGate, peak *int) {
	ticker := time.NewTicker(r.opt.TickInterval)
	defer ticker.Stop()
	report := time.NewTicker(time.Second)
	defer report.Stop()

	r.reportVUs(gate.Target())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			target := r.targetAt(time.Since(start))
			gate.Set(target)
			if target > *peak {
				*peak = target
			}
		case <-report.C:
			r.reportVUs(gate.Target())
		}
	}
}

func (r *Runner) reportVUs(n int) {
	if r.opt.OnVUs != nil {
		r.opt.OnVUs(n)
	}
}

func (r *Runner) targetAt(elapsed time.Duration) int {
	if r.opt.Plan == nil {
		return r.opt.MaxVUs
	}
	target := r.opt.Plan.TargetAt(elapsed)
	if target < 0 {
		return 0
	}
	if target > r.opt.MaxVUs {
		return r.opt.MaxVUs
	}
	return target
}

// think sleeps for the configured think time. It reports false when the run
// stopped while sleeping.
func (r *Runner) think(ctx context.Context) bool {
	if r.opt.ThinkTime == nil {
		return ctx.Err() == nil
	}
	d := r.opt.ThinkTime()
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
