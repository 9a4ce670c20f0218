package metrics_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odysseylab/msgload/internal/metrics"
)

func TestCollectorLatencyStats(t *testing.T) {
	c := metrics.NewCollector()

	// Record deterministic latencies.
	c.RecordRequest(10*time.Millisecond, nil, nil)
	c.RecordRequest(20*time.Millisecond, nil, nil)
	c.RecordRequest(30*time.Millisecond, nil, nil)
	c.RecordRequest(40*time.Millisecond, nil, nil)
	c.RecordRequest(50*time.Millisecond, nil, nil)

	stats := c.Stats(0)

	assert.EqualValues(t, 5, stats.Total)
	assert.EqualValues(t, 5, stats.Successes)
	assert.Zero(t, stats.Failures)
	assert.Equal(t, 10*time.Millisecond, stats.MinLatency)
	assert.Equal(t, 50*time.Millisecond, stats.MaxLatency)
	assert.Equal(t, 30*time.Millisecond, stats.MeanLatency)
}

func TestPercentilesCalculations(t *testing.T) {
	c := metrics.NewCollector()

	// 100 samples: 1ms, 2ms, ..., 100ms.
	for i := 1; i <= 100; i++ {
		c.RecordRequest(time.Duration(i)*time.Millisecond, nil, nil)
	}

	stats := c.Stats(0)

	assert.InDelta(t, 50*time.Millisecond, stats.P50Latency, float64(time.Millisecond))
	assert.InDelta(t, 90*time.Millisecond, stats.P90Latency, float64(time.Millisecond))
	// P95 is read from the histogram, not interpolated from P90/P99.
	assert.InDelta(t, 95*time.Millisecond, stats.P95Latency, float64(time.Millisecond))
	assert.InDelta(t, 99*time.Millisecond, stats.P99Latency, float64(time.Millisecond))
}

func TestJSONReportSchema(t *testing.T) {
	c := metrics.NewCollector()

	c.RecordRequest(15*time.Millisecond, nil, nil)
	c.RecordRequest(25*time.Millisecond, nil, nil)

	data, err := json.Marshal(c.Stats(100 * time.Millisecond))
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))

	requiredFields := []string{"total", "successes", "failures", "min_latency_ms", "max_latency_ms", "mean_latency_ms", "p50_latency_ms", "p90_latency_ms", "p95_latency_ms", "p99_latency_ms", "iterations", "checks_passed", "peak_vus", "duration_ms", "requests_per_sec"}
	for _, field := range requiredFields {
		assert.Contains(t, parsed, field)
	}
}

func TestConcurrentRecording(t *testing.T) {
	c := metrics.NewCollector()

	var wg sync.WaitGroup
	workers := 10
	recordsPerWorker := 100

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < recordsPerWorker; j++ {
				c.RecordRequest(time.Millisecond, nil, nil)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, workers*recordsPerWorker, c.Stats(0).Total)
}

func TestEndpointBreakdown(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordRequest(10*time.Millisecond, nil, &metrics.RequestMetadata{Endpoint: "1 SMS Basic", Category: "sms", StatusCode: "200", ChecksPassed: 3})
	c.RecordRequest(20*time.Millisecond, nil, &metrics.RequestMetadata{Endpoint: "1 SMS Basic", Category: "sms", StatusCode: "200", ChecksPassed: 2, ChecksFailed: 1})
	c.RecordRequest(15*time.Millisecond, nil, &metrics.RequestMetadata{Endpoint: "22 Get Report File", Category: "reports", StatusCode: "200", ChecksPassed: 2})

	stats := c.Stats(2 * time.Second)
	require.Len(t, stats.Endpoints, 2)

	sms := stats.Endpoints["1 SMS Basic"]
	require.EqualValues(t, 2, sms.Total)
	require.Equal(t, "sms", sms.Category)
	assert.NotZero(t, sms.P95LatencyMs)
	assert.Positive(t, sms.RequestsPerSec)
	assert.EqualValues(t, 1, sms.ChecksFailed)
	assert.Equal(t, 2, sms.StatusBuckets["200"])

	assert.EqualValues(t, 7, stats.ChecksPassed)
	assert.EqualValues(t, 1, stats.ChecksFailed)
	assert.EqualValues(t, 2, stats.APISuccesses)
	assert.Equal(t, 7.0/8.0, stats.CheckRate())
	assert.Equal(t, map[string]int{metrics.KindCheckFailed: 1}, stats.Errors)
}

func TestFailuresBucketedByCategoryAndStatus(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordRequest(time.Millisecond, errors.New("boom"), &metrics.RequestMetadata{Endpoint: "8 Email Basic", Category: "email", StatusCode: "500"})
	c.RecordRequest(time.Millisecond, errors.New("dial"), &metrics.RequestMetadata{Endpoint: "8 Email Basic", Category: "email"})
	c.RecordRequest(time.Millisecond, errors.New("dial"), nil)

	stats := c.Stats(time.Second)
	require.EqualValues(t, 3, stats.Failures)
	require.Equal(t, 1.0, stats.FailureRate())
	assert.Equal(t, map[string]int{"500": 1, "transport": 1}, stats.StatusBuckets["email"])
	assert.Equal(t, map[string]int{"transport": 1}, stats.StatusBuckets["http"])
	assert.Zero(t, stats.APISuccessRate())
}

func TestErrorBreakdownUsesFailureKinds(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordRequest(time.Millisecond, statusErr(503), nil)
	c.RecordRequest(time.Millisecond, wrapped(statusErr(503)), nil)
	c.RecordRequest(time.Millisecond, timeoutErr{}, nil)

	assert.Equal(t, map[string]int{
		"Server error (HTTP 503)": 2,
		metrics.KindTimeout:       1,
	}, c.GetErrorBreakdown())
}

func TestIterationsAndVUs(t *testing.T) {
	c := metrics.NewCollector()
	c.SetVUs(3)
	c.SetVUs(7)
	c.SetVUs(2)
	c.RecordIteration(100 * time.Millisecond)
	c.RecordIteration(300 * time.Millisecond)

	stats := c.Stats(2 * time.Second)
	assert.Equal(t, 2, stats.VUs)
	assert.Equal(t, 7, stats.PeakVUs)
	assert.EqualValues(t, 2, stats.Iterations)
	assert.Equal(t, 1.0, stats.IterationsPerSec)
	assert.Equal(t, 200.0, stats.MeanIterationMs)
}

func TestSnapshotHistory(t *testing.T) {
	c := metrics.NewCollector()
	c.Start()
	c.SetVUs(4)
	c.RecordRequest(10*time.Millisecond, nil, nil)
	c.RecordRequest(10*time.Millisecond, errors.New("x"), nil)
	time.Sleep(5 * time.Millisecond)
	c.Snapshot()
	c.Snapshot()

	history := c.History()
	require.Len(t, history, 2)
	first := history[0]
	assert.Equal(t, 4, first.VUs)
	assert.EqualValues(t, 2, first.Total)
	assert.Equal(t, 0.5, first.ErrorRate)
	assert.Positive(t, first.RequestsPerSec)
	assert.Zero(t, history[1].ErrorRate, "second point should cover an empty interval")
}
