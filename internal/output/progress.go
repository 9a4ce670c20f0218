package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/odysseylab/msgload/internal/metrics"
)

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	collector *metrics.Collector
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
	start     time.Time
	total     time.Duration
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval. planned is the expected run length; 0 hides the percentage.
func NewProgressReporter(collector *metrics.Collector, interval, planned time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
		start:     time.Now(),
		total:     planned,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprintln(p.writer)
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, progressLine(p.collector.Stats(time.Since(p.start)), p.total))
		case <-p.done:
			return
		}
	}
}

func progressLine(stats metrics.Stats, planned time.Duration) string {
	line := fmt.Sprintf("\rVUs: %d | Iterations: %d | Requests: %d | Failures: %d | RPS: %.1f | P95: %.0fms",
		stats.VUs, stats.Iterations, stats.Total, stats.Failures, stats.RequestsPerSec, stats.P95LatencyMs)
	if planned > 0 {
		pct := float64(stats.Duration) / float64(planned) * 100
		if pct > 100 {
			pct = 100
		}
		line += fmt.Sprintf(" | %3.0f%%", pct)
	}
	if name, ok := slowestEndpoint(stats); ok {
		line += fmt.Sprintf(" | Slowest: %s (P95 %.0fms)", name, stats.Endpoints[name].P95LatencyMs)
	}
	return line
}

func slowestEndpoint(stats metrics.Stats) (string, bool) {
	best := ""
	for name, ep := range stats.Endpoints {
		if best == "" || ep.P95LatencyMs > stats.Endpoints[best].P95LatencyMs ||
			(ep.P95LatencyMs == stats.Endpoints[best].P95LatencyMs && name < best) {
			best = name
		}
	}
	return best, best != ""
}
