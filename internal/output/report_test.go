package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odysseylab/msgload/internal/metrics"
	"github.com/odysseylab/msgload/internal/threshold"
)

func sampleStats() metrics.Stats {
	return metrics.Stats{
		Total:          100,
		Successes:      95,
		Failures:       5,
		RequestsPerSec: 50.0,
		Duration:       2 * time.Second,
		DurationMs:     2000,
		Iterations:     20,
		ChecksPassed:   280,
		ChecksFailed:   20,
		APISuccesses:   90,
		PeakVUs:        10,
		P95Latency:     300 * time.Millisecond,
		P95LatencyMs:   300,
		Errors:         map[string]int{"Server error (HTTP 503)": 4, metrics.KindConnection: 1},
		StatusBuckets:  map[string]map[string]int{"sms": {"503": 4}, "job_summaries": {"transport": 1}},
		Endpoints: map[string]metrics.EndpointStats{
			"1 SMS Basic":          {Category: "sms", Total: 60, Failures: 4, ChecksPassed: 170, ChecksFailed: 10, StatusBuckets: map[string]int{"503": 4}},
			"25 Get Job Summaries": {Category: "job_summaries", Total: 40, Failures: 1},
		},
	}
}

func TestPrintHeader(t *testing.T) {
	var buf bytes.Buffer
	PrintHeader(&buf, RunInfo{RunID: "abc", Scenario: "smoke", Environment: "test", BaseURL: "https://api.example.com", MaxVUs: 2}, "Quick check")
	out := buf.String()
	for _, want := range []string{"Run ID:            abc", "smoke", "Quick check", "test (https://api.example.com)", "Max VUs:           2"} {
		assert.Contains(t, out, want)
	}
}

func TestPrintReportBasic(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleStats())

	output := buf.String()
	for _, want := range []string{
		"Total Requests:    100",
		"Failed:            5 (5.00%)",
		"Checks:            93.33% (280 passed, 20 failed)",
		"API Success Rate:  90.00%",
		"  SMS 503: 4",
		"  JOB_SUMMARIES transport: 1",
		"  Server error (HTTP 503): 4",
		"  Connection error: 1",
		"1 SMS Basic [sms]: total=60 (60.0%)",
		"      SMS 503: 4",
	} {
		assert.Contains(t, output, want)
	}
	assert.Less(t, strings.Index(output, "1 SMS Basic"), strings.Index(output, "25 Get Job Summaries"), "cases ordered by volume")
	assert.Less(t, strings.Index(output, "Server error (HTTP 503)"), strings.Index(output, "Connection error"), "errors ordered by count")
}

func TestPrintReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, metrics.Stats{})
	out := buf.String()
	assert.Contains(t, out, "Total Requests:    0")
	assert.NotContains(t, out, "Test Case Breakdown", "empty stats should omit optional sections")
	assert.NotContains(t, out, "Errors:", "empty stats should omit optional sections")
}

func evaluated(t *testing.T, flags ...string) []threshold.Result {
	t.Helper()
	ths, err := threshold.ParseMultiple(flags)
	require.NoError(t, err)
	return threshold.NewEvaluator(ths).Evaluate(sampleStats())
}

func TestPrintThresholds(t *testing.T) {
	var buf bytes.Buffer
	PrintThresholds(&buf, evaluated(t, "http_req_failed:rate<0.1", "api_success_rate:rate>0.95"))
	out := buf.String()
	assert.Contains(t, out, "✓ http_req_failed:rate<0.1")
	assert.Contains(t, out, "✗ api_success_rate:rate>0.95")
	assert.Contains(t, out, "Some thresholds failed.")

	buf.Reset()
	PrintThresholds(&buf, nil)
	assert.Zero(t, buf.Len(), "expected no output without thresholds")
}

func TestPrintJSONReport(t *testing.T) {
	var buf bytes.Buffer
	info := RunInfo{RunID: "run-1", Scenario: "load", Environment: "staging"}
	require.NoError(t, PrintJSONReport(&buf, info, sampleStats(), evaluated(t, "http_req_failed:rate<0.1")))

	var decoded JSONReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.Run.RunID)
	assert.EqualValues(t, 100, decoded.Stats.Total)
	assert.True(t, decoded.Passed)
	require.Len(t, decoded.Thresholds, 1)
	assert.Equal(t, "http_req_failed:rate<0.1", decoded.Thresholds[0].Name)
	assert.Contains(t, buf.String(), `"endpoints"`)
}
