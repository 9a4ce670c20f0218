package runner

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// pacer spaces iteration starts across all virtual users.
type pacer struct {
	limiter *rate.Limiter
}

func newPacer(opt Options) *pacer {
	if opt.RatePerSecond <= 0 {
		return nil
	}
	return &pacer{limiter: opt.LimiterFactory(opt.RatePerSecond)}
}

func (p *pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// vuGate holds workers whose index is at or above the current target.
type vuGate struct {
	mu      sync.Mutex
	target  int
	changed chan struct{}
}

func newVUGate(target int) *vuGate {
	return &vuGate{target: target, changed: make(chan struct{})}
}

// Set updates the target and wakes every waiting worker. It returns the
// previous target.
func (g *vuGate) Set(target int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	prev := g.target
	if target == prev {
		return prev
	}
	g.target = target
	close(g.changed)
	g.changed = make(chan struct{})
	return prev
}

func (g *vuGate) Target() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.target
}

// Wait blocks until worker idx is admitted or stop is closed. It reports
// whether the worker may proceed.
func (g *vuGate) Wait(idx int, stop <-chan struct{}) bool {
	for {
		g.mu.Lock()
		if idx < g.target {
			g.mu.Unlock()
			return true
		}
		ch := g.changed
		g.mu.Unlock()

		select {
		case <-ch:
		case <-stop:
			return false
		}
	}
}
