package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odysseylab/msgload/internal/events"
	"github.com/odysseylab/msgload/internal/output"
	"github.com/odysseylab/msgload/internal/report"
	"github.com/odysseylab/msgload/internal/summary"
)

func runArgs(srvURL, dir string, extra ...string) []string {
	args := []string{
		"run",
		"--base-url", srvURL,
		"--auth-token", "Bearer test-token-123",
		"--scenario", "smoke",
		"--vus", "2",
		"--duration", "10s",
		"--test-case", "1",
		"--think-time-min", "0s",
		"--think-time-max", "0s",
		"--log-level", "error",
		"--out", filepath.Join(dir, "results.ndjson"),
	}
	return append(args, extra...)
}

func TestRunEndToEnd(t *testing.T) {
	var requests int64
	var badAuth int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		if r.Header.Get("Authorization") != "Bearer test-token-123" {
			atomic.AddInt64(&badAuth, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"JobNumber":"J-42"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "report.html")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), runArgs(srv.URL, dir, "--iterations", "6", "--html-output", htmlPath), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	assert.EqualValues(t, 6, atomic.LoadInt64(&requests))
	assert.Zero(t, atomic.LoadInt64(&badAuth), "requests were sent without the configured Authorization header")

	out := stdout.String()
	for _, want := range []string{"Odyssey API Load Test", "Scenario:          smoke", "Load Test Results", "All thresholds passed."} {
		assert.Contains(t, out, want)
	}

	sc, f, err := events.Open(filepath.Join(dir, "results.ndjson"))
	require.NoError(t, err)
	defer f.Close()
	sum, err := summary.FromScanner(sc)
	require.NoError(t, err)
	assert.EqualValues(t, 6, sum.Requests)
	assert.EqualValues(t, 6, sum.Iterations)
	assert.Zero(t, sum.Failures)
	assert.GreaterOrEqual(t, sum.PeakConcurrency, float64(1))

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err, "html report not written")
	assert.Contains(t, string(html), "results.ndjson", "html report should name its source log")
}

func TestRunThresholdFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), runArgs(srv.URL, dir, "--iterations", "2", "--retries", "0", "--json-output"), &stdout, &stderr)
	require.ErrorIs(t, err, ErrThresholdsFailed)

	var rep output.JSONReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rep), "stdout is not a JSON report:\n%s", stdout.String())
	assert.False(t, rep.Passed)
	assert.EqualValues(t, 2, rep.Stats.Failures)
	assert.Equal(t, 2, rep.Stats.Errors["Server error (HTTP 500)"])
	assert.Equal(t, "smoke", rep.Run.Scenario)
	assert.NotEmpty(t, rep.Run.RunID)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"run", "--environment", "qa", "--out", filepath.Join(t.TempDir(), "r.ndjson")}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment")
}

func TestReportSubcommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.ndjson")
	lines := strings.Join([]string{
		`{"type":"Point","metric":"vus","data":{"time":"2025-01-01T00:00:00Z","value":3}}`,
		`{"type":"Point","metric":"http_reqs","data":{"time":"2025-01-01T00:00:10Z","value":1}}`,
	}, "\n")
	require.NoError(t, os.WriteFile(input, []byte(lines), 0o644))
	outPath := filepath.Join(dir, "out.html")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"report", input, outPath}, &stdout, &stderr))
	_, err := os.Stat(outPath)
	require.NoError(t, err, "report not written")
	assert.Contains(t, stderr.String(), "report written")
}

func TestReportSubcommandUsage(t *testing.T) {
	for _, args := range [][]string{{"report", "only-input"}, {"report", "--help"}} {
		var stdout, stderr bytes.Buffer
		err := run(context.Background(), args, &stdout, &stderr)
		require.ErrorIs(t, err, report.ErrUsage, "args %v", args)
		assert.Contains(t, stderr.String(), "Usage:")
	}
}

func TestCasesCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"cases"}, &stdout, &stderr))
	out := stdout.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 52, "header plus 51 cases")
	for _, want := range []string{"/api/V1/SMSJobs", "SMS Basic", "POST", "DELETE"} {
		assert.Contains(t, out, want)
	}
}

func TestScenariosCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"scenarios"}, &stdout, &stderr))
	out := stdout.String()
	for _, want := range []string{"smoke", "constant-vus", "ramping-vus", "endurance", "quick:", "long:"} {
		assert.Contains(t, out, want)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[string]string{
		"2m0s":    "2m",
		"1h0m0s":  "1h",
		"1h30m0s": "1h30m",
		"45s":     "45s",
	}
	for in, want := range tests {
		d, err := time.ParseDuration(in)
		require.NoError(t, err)
		assert.Equal(t, want, formatDuration(d), in)
	}
}
