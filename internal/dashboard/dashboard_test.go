package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odysseylab/msgload/internal/metrics"
)

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name     string
		v, max   float64
		expected int
	}{
		{"half", 5, 10, 50},
		{"capped", 20, 10, 100},
		{"no max", 5, 0, 0},
		{"negative", -1, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, percentOf(tt.v, tt.max))
		})
	}
}

func TestRPSSeries(t *testing.T) {
	history := []metrics.DataPoint{
		{RequestsPerSec: 1},
		{RequestsPerSec: 2},
		{RequestsPerSec: 3},
	}
	assert.Equal(t, []float64{2, 3}, rpsSeries(history, 2))
	assert.Empty(t, rpsSeries(nil, 2), "expected empty series without history")
}

func TestFormatStatusListRows(t *testing.T) {
	rows := formatStatusListRows(map[string]map[string]int{
		"sms": {"503": 3},
		"fax": {"transport": 1},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "[SMS 503](fg:red) 3", rows[0], "most frequent status first")
	assert.Equal(t, "[FAX transport](fg:red) 1", rows[1])

	empty := formatStatusListRows(nil)
	require.Len(t, empty, 1)
	assert.Contains(t, empty[0], "No failures")
}

func TestSummarizeStatuses(t *testing.T) {
	assert.Equal(t, "429 x4, 503 x2", summarizeStatuses(map[string]int{"500": 1, "429": 4, "503": 2}, 2))
	assert.Empty(t, summarizeStatuses(nil, 2))
}

func TestFormatCaseRows(t *testing.T) {
	stats := metrics.Stats{
		Total: 100,
		Endpoints: map[string]metrics.EndpointStats{
			"1 SMS Basic": {
				Category:      "sms",
				Total:         80,
				Failures:      2,
				P95LatencyMs:  120.4,
				StatusBuckets: map[string]int{"500": 2},
			},
			"25 Get Job Summaries": {
				Category:     "job_summaries",
				Total:        20,
				P95LatencyMs: 50,
			},
		},
	}

	rows := formatCaseRows(stats, 10)
	require.Len(t, rows, 3, "header plus 2 rows")
	assert.Equal(t, "Case", rows[0][0])
	assert.Equal(t, []string{"1 SMS Basic", "sms", "80", "2", "120", "500 x2"}, rows[1])
	assert.Equal(t, "-", rows[2][5], "placeholder status")

	assert.Len(t, formatCaseRows(stats, 1), 2, "limit keeps header plus 1 row")

	empty := formatCaseRows(metrics.Stats{}, 10)
	require.Len(t, empty, 2)
	assert.Equal(t, "Awaiting data", empty[1][0])
}

func TestFormatChecks(t *testing.T) {
	assert.Contains(t, formatChecks(metrics.Stats{}), "Waiting")

	got := formatChecks(metrics.Stats{Total: 10, ChecksPassed: 8, ChecksFailed: 2, APISuccesses: 7, PeakVUs: 3})
	for _, want := range []string{"80.00%", "fg:red", "Passed:      8", "API success: 70.00%", "Peak VUs:    3"} {
		assert.Contains(t, got, want)
	}
}

func TestRunConfigParams(t *testing.T) {
	tests := []struct {
		name     string
		config   RunConfig
		contains []string
		excludes []string
	}{
		{
			name: "basic config",
			config: RunConfig{
				MaxVUs:   10,
				Rate:     100,
				Duration: 30 * time.Second,
			},
			contains: []string{"VUs: 10", "Rate: 100/s", "Duration: 30s"},
			excludes: []string{"Retries:", "Config:"},
		},
		{
			name: "unlimited rate",
			config: RunConfig{
				MaxVUs: 5,
			},
			contains: []string{"VUs: 5", "Rate: unlimited"},
		},
		{
			name: "full config",
			config: RunConfig{
				MaxVUs:     2,
				Iterations: 50,
				Cases:      7,
				Timeout:    30 * time.Second,
				Retries:    3,
				ConfigFile: "smoke.yaml",
			},
			contains: []string{"Iterations: 50", "Cases: 7", "Timeout: 30s", "Retries: 3", "Config: smoke.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.config.params()
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestRunConfigHeadline(t *testing.T) {
	got := RunConfig{Scenario: "spike", Executor: "ramping-vus", Environment: "staging", BaseURL: "https://staging.example.com"}.headline()
	assert.Equal(t, "Scenario: spike | ramping-vus | Env: staging | https://staging.example.com", got)
}
