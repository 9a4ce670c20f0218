// Package threshold evaluates k6-style pass/fail criteria against run metrics.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/odysseylab/msgload/internal/metrics"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric     string  // e.g., "http_req_duration", "http_req_failed"
	Aggregate  string  // "p", "avg", "min", "max", "med", "rate" or "count"
	Percentile float64 // set when Aggregate is "p"
	Operator   string  // e.g., "<", "<=", ">", ">=", "==", "!="
	Value      float64 // The threshold value to compare against
	Raw        string  // Original expression for display, e.g. "p(95)<5000"
}

// Name renders the threshold as metric:expression.
func (t Threshold) Name() string {
	return t.Metric + ":" + t.Raw
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against collected metrics.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the provided stats.
func (e *Evaluator) Evaluate(stats metrics.Stats) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, stats))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, stats metrics.Stats) Result {
	actual, err := extractMetricValue(t, stats)
	if err != nil {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %s = %.4g", status, t.Metric, t.Raw, actual),
	}
}

var exprPattern = regexp.MustCompile(`^(p\(\s*[0-9.]+\s*\)|p[0-9]+|avg|min|max|med|rate|count)\s*(<=|>=|==|!=|<|>)\s*(-?[0-9]*\.?[0-9]+)$`)

// metricAggregates lists the aggregates each metric supports.
var metricAggregates = map[string][]string{
	"http_req_duration":  {"p", "avg", "min", "max", "med"},
	"api_response_time":  {"p", "avg", "min", "max", "med"},
	"iteration_duration": {"avg"},
	"http_req_failed":    {"rate", "count"},
	"checks":             {"rate", "count"},
	"api_success_rate":   {"rate"},
	"api_errors_total":   {"count", "rate"},
	"http_reqs":          {"count", "rate"},
	"iterations":         {"count", "rate"},
	"vus":                {"max"},
}

// supportedPercentiles are the quantiles the collector computes.
var supportedPercentiles = map[float64]bool{50: true, 90: true, 95: true, 99: true}

// Metrics lists the metric names thresholds may target.
func Metrics() []string {
	names := make([]string, 0, len(metricAggregates))
	for name := range metricAggregates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse parses one k6 threshold expression for metric.
// Supported forms:
//   - "p(95)<5000"  (latency percentile in ms; p95 is accepted as well)
//   - "avg<200", "min<10", "max<1000", "med<300"
//   - "rate<0.1"    (failure or check rate as a fraction, or per-second rate for counters)
//   - "count<10"
func Parse(metric, expr string) (Threshold, error) {
	metric = strings.TrimSpace(metric)
	raw := strings.TrimSpace(expr)
	if raw == "" {
		return Threshold{}, fmt.Errorf("empty threshold expression")
	}
	allowed, ok := metricAggregates[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: %s)", metric, strings.Join(Metrics(), ", "))
	}

	matches := exprPattern.FindStringSubmatch(raw)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold expression %q (expected e.g. 'p(95)<500' or 'rate<0.01')", raw)
	}

	t := Threshold{Metric: metric, Aggregate: matches[1], Operator: matches[2], Raw: raw}
	if strings.HasPrefix(t.Aggregate, "p") {
		digits := strings.Trim(strings.TrimPrefix(t.Aggregate, "p"), "() ")
		pct, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return Threshold{}, fmt.Errorf("invalid percentile %q: %v", t.Aggregate, err)
		}
		if !supportedPercentiles[pct] {
			return Threshold{}, fmt.Errorf("unsupported percentile %g (supported: 50, 90, 95, 99)", pct)
		}
		t.Aggregate = "p"
		t.Percentile = pct
	}

	if !contains(allowed, t.Aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", matches[1], metric, strings.Join(allowed, ", "))
	}

	value, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", matches[3], err)
	}
	t.Value = value
	return t, nil
}

// ParseFlag parses the command-line form "metric:expression",
// e.g. "http_req_duration:p(95)<2000".
func ParseFlag(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}
	metric, expr, ok := strings.Cut(s, ":")
	if !ok {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected metric:expression, e.g. 'http_req_duration:p(95)<500')", s)
	}
	return Parse(metric, expr)
}

// ParseMultiple parses multiple "metric:expression" strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string

	for i, s := range thresholds {
		t, err := ParseFlag(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}

	return result, nil
}

// ParseMap parses the k6 options form {metric: [expr, ...]}. Metrics are
// returned in name order, expressions in their given order.
func ParseMap(m map[string][]string) ([]Threshold, error) {
	metricNames := make([]string, 0, len(m))
	for name := range m {
		metricNames = append(metricNames, name)
	}
	sort.Strings(metricNames)

	var result []Threshold
	var errs []string
	for _, name := range metricNames {
		for _, expr := range m[name] {
			t, err := Parse(name, expr)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
				continue
			}
			result = append(result, t)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}
	return result, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, stats metrics.Stats) (float64, error) {
	switch t.Metric {
	case "http_req_duration", "api_response_time":
		return extractLatencyMetric(t, stats)
	case "iteration_duration":
		return stats.MeanIterationMs, nil
	case "http_req_failed":
		if t.Aggregate == "count" {
			return float64(stats.Failures), nil
		}
		return stats.FailureRate(), nil
	case "checks":
		if t.Aggregate == "count" {
			return float64(stats.ChecksPassed), nil
		}
		return stats.CheckRate(), nil
	case "api_success_rate":
		return stats.APISuccessRate(), nil
	case "api_errors_total":
		failed := float64(stats.Total - stats.APISuccesses)
		if t.Aggregate == "rate" {
			if stats.Duration <= 0 {
				return 0, nil
			}
			return failed / stats.Duration.Seconds(), nil
		}
		return failed, nil
	case "http_reqs":
		if t.Aggregate == "rate" {
			return stats.RequestsPerSec, nil
		}
		return float64(stats.Total), nil
	case "iterations":
		if t.Aggregate == "rate" {
			return stats.IterationsPerSec, nil
		}
		return float64(stats.Iterations), nil
	case "vus":
		return float64(stats.PeakVUs), nil
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractLatencyMetric(t Threshold, stats metrics.Stats) (float64, error) {
	switch t.Aggregate {
	case "p":
		switch t.Percentile {
		case 50:
			return stats.P50LatencyMs, nil
		case 90:
			return stats.P90LatencyMs, nil
		case 95:
			return stats.P95LatencyMs, nil
		case 99:
			return stats.P99LatencyMs, nil
		}
		return 0, fmt.Errorf("unsupported percentile %g", t.Percentile)
	case "med":
		return stats.P50LatencyMs, nil
	case "avg":
		return stats.MeanLatencyMs, nil
	case "min":
		return stats.MinLatencyMs, nil
	case "max":
		return stats.MaxLatencyMs, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for %s", t.Aggregate, t.Metric)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	case "!=":
		return math.Abs(actual-expected) >= epsilon
	default:
		return false
	}
}
