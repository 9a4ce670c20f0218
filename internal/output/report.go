package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/odysseylab/msgload/internal/metrics"
	"github.com/odysseylab/msgload/internal/threshold"
)

// RunInfo identifies the run a report describes.
type RunInfo struct {
	RunID       string `json:"run_id"`
	Scenario    string `json:"scenario"`
	Environment string `json:"environment"`
	BaseURL     string `json:"base_url"`
	MaxVUs      int    `json:"max_vus"`
	ResultsFile string `json:"results_file,omitempty"`
}

// PrintHeader outputs the run banner shown before load starts.
func PrintHeader(w io.Writer, info RunInfo, description string) {
	fmt.Fprintln(w, "--- Odyssey API Load Test ---")
	fmt.Fprintf(w, "Run ID:            %s\n", info.RunID)
	fmt.Fprintf(w, "Scenario:          %s\n", info.Scenario)
	if description != "" {
		fmt.Fprintf(w, "                   %s\n", description)
	}
	fmt.Fprintf(w, "Environment:       %s (%s)\n", info.Environment, info.BaseURL)
	fmt.Fprintf(w, "Max VUs:           %d\n", info.MaxVUs)
	if info.ResultsFile != "" {
		fmt.Fprintf(w, "Results file:      %s\n", info.ResultsFile)
	}
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, stats metrics.Stats) {
	fmt.Fprintln(w, "\n--- Load Test Results ---")
	fmt.Fprintf(w, "Total Requests:    %d\n", stats.Total)
	fmt.Fprintf(w, "Successful:        %d\n", stats.Successes)
	fmt.Fprintf(w, "Failed:            %d (%.2f%%)\n", stats.Failures, stats.FailureRate()*100)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintf(w, "Requests/sec:      %.2f\n", stats.RequestsPerSec)
	fmt.Fprintf(w, "Iterations:        %d (%.2f/s, mean %.0fms)\n", stats.Iterations, stats.IterationsPerSec, stats.MeanIterationMs)
	fmt.Fprintf(w, "Peak VUs:          %d\n", stats.PeakVUs)
	fmt.Fprintf(w, "Checks:            %.2f%% (%d passed, %d failed)\n", stats.CheckRate()*100, stats.ChecksPassed, stats.ChecksFailed)
	fmt.Fprintf(w, "API Success Rate:  %.2f%%\n", stats.APISuccessRate()*100)
	fmt.Fprintln(w, "\nLatency:")
	fmt.Fprintf(w, "  Min:             %s\n", stats.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", stats.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", stats.MeanLatency)
	fmt.Fprintf(w, "  P50:             %s\n", stats.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", stats.P90Latency)
	fmt.Fprintf(w, "  P95:             %s\n", stats.P95Latency)
	fmt.Fprintf(w, "  P99:             %s\n", stats.P99Latency)
	if len(stats.StatusBuckets) > 0 {
		fmt.Fprintln(w, "\nFailures by Status:")
		writeFailureRows(w, metrics.FailureBreakdown(stats.StatusBuckets), "  ")
	}

	if len(stats.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		names := make([]string, 0, len(stats.Errors))
		for name := range stats.Errors {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if stats.Errors[names[i]] == stats.Errors[names[j]] {
				return names[i] < names[j]
			}
			return stats.Errors[names[i]] > stats.Errors[names[j]]
		})
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %d\n", name, stats.Errors[name])
		}
	}

	if len(stats.Endpoints) > 0 {
		fmt.Fprintln(w, "\nTest Case Breakdown:")
		for _, name := range endpointsByVolume(stats) {
			endpoint := stats.Endpoints[name]
			share := 0.0
			if stats.Total > 0 {
				share = (float64(endpoint.Total) / float64(stats.Total)) * 100
			}

			fmt.Fprintf(
				w,
				"  - %s [%s]: total=%d (%.1f%%), failures=%d, checks=%d/%d, mean=%.1fms, p95=%.1fms\n",
				name,
				endpoint.Category,
				endpoint.Total,
				share,
				endpoint.Failures,
				endpoint.ChecksPassed,
				endpoint.ChecksPassed+endpoint.ChecksFailed,
				endpoint.MeanLatencyMs,
				endpoint.P95LatencyMs,
			)
			if rows := metrics.CategoryFailures(endpoint.Category, endpoint.StatusBuckets); len(rows) > 0 {
				writeFailureRows(w, rows, "      ")
			}
		}
	}
}

// PrintThresholds outputs one line per threshold and the overall verdict.
func PrintThresholds(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "\nThresholds:")
	width := 0
	for _, r := range results {
		if n := len(r.Threshold.Name()); n > width {
			width = n
		}
	}
	for _, r := range results {
		mark := "✓"
		if !r.Pass {
			mark = "✗"
		}
		actual := fmt.Sprintf("%.4g", r.Actual)
		if strings.HasPrefix(r.Message, "error:") {
			actual = r.Message
		}
		fmt.Fprintf(w, "  %s %-*s  actual=%s\n", mark, width, r.Threshold.Name(), actual)
	}
	if threshold.AllPassed(results) {
		fmt.Fprintln(w, "All thresholds passed.")
	} else {
		fmt.Fprintln(w, "Some thresholds failed.")
	}
}

// JSONReport is the machine-readable end-of-run summary.
type JSONReport struct {
	Run        RunInfo         `json:"run"`
	Stats      metrics.Stats   `json:"stats"`
	Thresholds []JSONThreshold `json:"thresholds,omitempty"`
	Passed     bool            `json:"passed"`
}

// JSONThreshold is one evaluated threshold.
type JSONThreshold struct {
	Name   string  `json:"name"`
	Actual float64 `json:"actual"`
	Pass   bool    `json:"pass"`
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, info RunInfo, stats metrics.Stats, results []threshold.Result) error {
	report := JSONReport{
		Run:    info,
		Stats:  stats,
		Passed: threshold.AllPassed(results),
	}
	for _, r := range results {
		report.Thresholds = append(report.Thresholds, JSONThreshold{
			Name:   r.Threshold.Name(),
			Actual: r.Actual,
			Pass:   r.Pass,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func endpointsByVolume(stats metrics.Stats) []string {
	names := make([]string, 0, len(stats.Endpoints))
	for name := range stats.Endpoints {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := stats.Endpoints[names[i]], stats.Endpoints[names[j]]
		if a.Total == b.Total {
			return names[i] < names[j]
		}
		return a.Total > b.Total
	})
	return names
}

func writeFailureRows(w io.Writer, rows []metrics.FailureRow, indent string) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "%sNone\n", indent)
		return
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s%s: %d\n", indent, row.Label(), row.Count)
	}
}
