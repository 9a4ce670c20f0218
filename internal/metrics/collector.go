package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// historyLimit bounds the number of retained snapshots (one hour at 1s).
const historyLimit = 3600

// RequestMetadata describes one request for per-case and status breakdowns.
type RequestMetadata struct {
	Endpoint     string // catalog case label, e.g. "1 SMS Basic"
	Category     string
	StatusCode   string // HTTP status, or "" for transport errors
	ChecksPassed int
	ChecksFailed int
}

// Collector records per-request metrics in a thread-safe manner.
type Collector struct {
	mu           sync.Mutex
	total        *bucket
	endpoints    map[string]*bucket
	errorsByKind map[string]int64
	statusCounts map[string]map[string]int

	iterations   int64
	iterationSum time.Duration
	vus          int
	peakVUs      int

	start        time.Time
	history      []DataPoint
	lastSnapshot snapshotMark
}

type bucket struct {
	category     string
	hist         *hdrhistogram.Histogram
	successes    int64
	failures     int64
	checksPassed int64
	checksFailed int64
	apiSuccesses int64
	minLatency   time.Duration
	maxLatency   time.Duration
	sumLatency   time.Duration
	statuses     map[string]int
}

type snapshotMark struct {
	at       time.Time
	total    int64
	failures int64
}

// DataPoint is one time-series sample taken by Snapshot.
type DataPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	Elapsed        float64   `json:"elapsed_seconds"`
	VUs            int       `json:"vus"`
	Total          int64     `json:"total"`
	Failures       int64     `json:"failures"`
	RequestsPerSec float64   `json:"requests_per_sec"`
	P95LatencyMs   float64   `json:"p95_latency_ms"`
	ErrorRate      float64   `json:"error_rate"`
}

// Stats represents aggregated metrics.
type Stats struct {
	Total          int64         `json:"total"`
	Successes      int64         `json:"successes"`
	Failures       int64         `json:"failures"`
	MinLatency     time.Duration `json:"-"`
	MaxLatency     time.Duration `json:"-"`
	MeanLatency    time.Duration `json:"-"`
	P50Latency     time.Duration `json:"-"`
	P90Latency     time.Duration `json:"-"`
	P95Latency     time.Duration `json:"-"`
	P99Latency     time.Duration `json:"-"`
	Duration       time.Duration `json:"-"`
	RequestsPerSec float64       `json:"requests_per_sec"`

	Iterations       int64   `json:"iterations"`
	IterationsPerSec float64 `json:"iterations_per_sec"`
	MeanIterationMs  float64 `json:"mean_iteration_ms"`
	ChecksPassed     int64   `json:"checks_passed"`
	ChecksFailed     int64   `json:"checks_failed"`
	APISuccesses     int64   `json:"api_successes"`
	VUs              int     `json:"vus"`
	PeakVUs          int     `json:"peak_vus"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms"`
	P90LatencyMs  float64 `json:"p90_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms"`
	DurationMs    float64 `json:"duration_ms"`

	// Errors counts failures by ClassifyError kind. Requests that succeeded
	// with failed checks count under KindCheckFailed.
	Errors        map[string]int            `json:"errors,omitempty"`
	StatusBuckets map[string]map[string]int `json:"status_buckets,omitempty"`
	Endpoints     map[string]EndpointStats  `json:"endpoints,omitempty"`
}

// EndpointStats is the per-case breakdown.
type EndpointStats struct {
	Category       string         `json:"category"`
	Total          int64          `json:"total"`
	Successes      int64          `json:"successes"`
	Failures       int64          `json:"failures"`
	ChecksPassed   int64          `json:"checks_passed"`
	ChecksFailed   int64          `json:"checks_failed"`
	RequestsPerSec float64        `json:"requests_per_sec"`
	MeanLatencyMs  float64        `json:"mean_latency_ms"`
	P95LatencyMs   float64        `json:"p95_latency_ms"`
	P99LatencyMs   float64        `json:"p99_latency_ms"`
	MaxLatencyMs   float64        `json:"max_latency_ms"`
	StatusBuckets  map[string]int `json:"status_buckets,omitempty"`
}

// CheckRate is the fraction of checks that passed; 0 when none ran.
func (s Stats) CheckRate() float64 {
	n := s.ChecksPassed + s.ChecksFailed
	if n == 0 {
		return 0
	}
	return float64(s.ChecksPassed) / float64(n)
}

// FailureRate is Failures/Total; 0 when no request completed.
func (s Stats) FailureRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Total)
}

// APISuccessRate is the fraction of requests whose checks all passed.
func (s Stats) APISuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.APISuccesses) / float64(s.Total)
}

func newHistogram() *hdrhistogram.Histogram {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	return hdrhistogram.New(1, 60_000_000, 3)
}

func newBucket(category string) *bucket {
	return &bucket{category: category, hist: newHistogram(), statuses: map[string]int{}}
}

func NewCollector() *Collector {
	now := time.Now()
	return &Collector{
		total:        newBucket(""),
		endpoints:    make(map[string]*bucket),
		errorsByKind: make(map[string]int64),
		statusCounts: make(map[string]map[string]int),
		start:        now,
		lastSnapshot: snapshotMark{at: now},
	}
}

// Start marks the beginning of the run for rate and history calculations.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
	c.lastSnapshot = snapshotMark{at: c.start}
}

func (b *bucket) record(latency time.Duration, err error, meta *RequestMetadata) {
	if latency > 0 {
		us := latency.Microseconds()
		if us < b.hist.LowestTrackableValue() {
			us = b.hist.LowestTrackableValue()
		}
		if us > b.hist.HighestTrackableValue() {
			us = b.hist.HighestTrackableValue()
		}
		_ = b.hist.RecordValue(us)
	}
	b.sumLatency += latency
	if (b.successes+b.failures) == 0 || latency < b.minLatency {
		b.minLatency = latency
	}
	if latency > b.maxLatency {
		b.maxLatency = latency
	}
	if err == nil {
		b.successes++
	} else {
		b.failures++
	}
	if meta == nil {
		if err == nil {
			b.apiSuccesses++
		}
		return
	}
	b.checksPassed += int64(meta.ChecksPassed)
	b.checksFailed += int64(meta.ChecksFailed)
	if err == nil && meta.ChecksFailed == 0 {
		b.apiSuccesses++
	}
	if meta.StatusCode != "" {
		b.statuses[meta.StatusCode]++
	}
}

// RecordRequest records a single request's latency, error state and metadata.
func (c *Collector) RecordRequest(latency time.Duration, err error, meta *RequestMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total.record(latency, err, meta)
	if meta != nil && meta.Endpoint != "" {
		b, ok := c.endpoints[meta.Endpoint]
		if !ok {
			b = newBucket(meta.Category)
			c.endpoints[meta.Endpoint] = b
		}
		b.record(latency, err, meta)
	}

	if err == nil {
		if meta != nil && meta.ChecksFailed > 0 {
			c.errorsByKind[KindCheckFailed]++
		}
		return
	}
	c.errorsByKind[ClassifyError(err)]++

	category, code := "http", transportCode
	if meta != nil {
		if meta.Category != "" {
			category = meta.Category
		}
		if meta.StatusCode != "" {
			code = meta.StatusCode
		}
	}
	if c.statusCounts[category] == nil {
		c.statusCounts[category] = map[string]int{}
	}
	c.statusCounts[category][code]++
}

// RecordIteration records one completed VU iteration.
func (c *Collector) RecordIteration(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.iterations++
	c.iterationSum += d
}

// SetVUs records the current number of active virtual users.
func (c *Collector) SetVUs(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vus = n
	if n > c.peakVUs {
		c.peakVUs = n
	}
}

// Snapshot appends a time-series point covering the interval since the
// previous snapshot.
func (c *Collector) Snapshot() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	total := c.total.successes + c.total.failures
	interval := now.Sub(c.lastSnapshot.at)
	dTotal := total - c.lastSnapshot.total
	dFail := c.total.failures - c.lastSnapshot.failures

	point := DataPoint{
		Timestamp: now,
		Elapsed:   now.Sub(c.start).Seconds(),
		VUs:       c.vus,
		Total:     total,
		Failures:  c.total.failures,
	}
	if interval > 0 {
		point.RequestsPerSec = float64(dTotal) / interval.Seconds()
	}
	if dTotal > 0 {
		point.ErrorRate = float64(dFail) / float64(dTotal)
	}
	if c.total.hist.TotalCount() > 0 {
		point.P95LatencyMs = float64(c.total.hist.ValueAtQuantile(95)) / 1000
	}

	c.history = append(c.history, point)
	if len(c.history) > historyLimit {
		c.history = c.history[len(c.history)-historyLimit:]
	}
	c.lastSnapshot = snapshotMark{at: now, total: total, failures: c.total.failures}
}

// History returns a copy of the recorded snapshots.
func (c *Collector) History() []DataPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DataPoint(nil), c.history...)
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.total
	total := b.successes + b.failures
	stats := Stats{
		Total:        total,
		Successes:    b.successes,
		Failures:     b.failures,
		MinLatency:   b.minLatency,
		MaxLatency:   b.maxLatency,
		Iterations:   c.iterations,
		ChecksPassed: b.checksPassed,
		ChecksFailed: b.checksFailed,
		APISuccesses: b.apiSuccesses,
		VUs:          c.vus,
		PeakVUs:      c.peakVUs,
	}

	if total > 0 {
		stats.MeanLatency = time.Duration(int64(b.sumLatency) / total)
	}
	if b.hist.TotalCount() > 0 {
		stats.P50Latency = quantile(b.hist, 50)
		stats.P90Latency = quantile(b.hist, 90)
		stats.P95Latency = quantile(b.hist, 95)
		stats.P99Latency = quantile(b.hist, 99)
	}

	stats.MinLatencyMs = ms(stats.MinLatency)
	stats.MaxLatencyMs = ms(stats.MaxLatency)
	stats.MeanLatencyMs = ms(stats.MeanLatency)
	stats.P50LatencyMs = ms(stats.P50Latency)
	stats.P90LatencyMs = ms(stats.P90Latency)
	stats.P95LatencyMs = ms(stats.P95Latency)
	stats.P99LatencyMs = ms(stats.P99Latency)

	stats.Duration = elapsed
	stats.DurationMs = ms(elapsed)
	if elapsed > 0 {
		stats.RequestsPerSec = float64(total) / elapsed.Seconds()
		stats.IterationsPerSec = float64(c.iterations) / elapsed.Seconds()
	}
	if c.iterations > 0 {
		stats.MeanIterationMs = ms(c.iterationSum) / float64(c.iterations)
	}

	if len(c.errorsByKind) > 0 {
		stats.Errors = make(map[string]int, len(c.errorsByKind))
		for k, v := range c.errorsByKind {
			stats.Errors[k] = int(v)
		}
	}
	if len(c.statusCounts) > 0 {
		stats.StatusBuckets = make(map[string]map[string]int, len(c.statusCounts))
		for category, codes := range c.statusCounts {
			inner := make(map[string]int, len(codes))
			for code, n := range codes {
				inner[code] = n
			}
			stats.StatusBuckets[category] = inner
		}
	}
	if len(c.endpoints) > 0 {
		stats.Endpoints = make(map[string]EndpointStats, len(c.endpoints))
		for name, eb := range c.endpoints {
			stats.Endpoints[name] = eb.stats(elapsed)
		}
	}

	return stats
}

func (b *bucket) stats(elapsed time.Duration) EndpointStats {
	total := b.successes + b.failures
	es := EndpointStats{
		Category:     b.category,
		Total:        total,
		Successes:    b.successes,
		Failures:     b.failures,
		ChecksPassed: b.checksPassed,
		ChecksFailed: b.checksFailed,
		MaxLatencyMs: ms(b.maxLatency),
	}
	if total > 0 {
		es.MeanLatencyMs = ms(b.sumLatency) / float64(total)
	}
	if elapsed > 0 {
		es.RequestsPerSec = float64(total) / elapsed.Seconds()
	}
	if b.hist.TotalCount() > 0 {
		es.P95LatencyMs = ms(quantile(b.hist, 95))
		es.P99LatencyMs = ms(quantile(b.hist, 99))
	}
	if len(b.statuses) > 0 {
		es.StatusBuckets = make(map[string]int, len(b.statuses))
		for k, v := range b.statuses {
			es.StatusBuckets[k] = v
		}
	}
	return es
}

// GetErrorBreakdown returns failure counts keyed by ClassifyError kind.
func (c *Collector) GetErrorBreakdown() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]int)
	for k, v := range c.errorsByKind {
		result[k] = int(v)
	}
	return result
}

func quantile(h *hdrhistogram.Histogram, q float64) time.Duration {
	return time.Duration(h.ValueAtQuantile(q)) * time.Microsecond
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
