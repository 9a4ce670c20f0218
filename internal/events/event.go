package events

import (
	"errors"
	"time"
)

// Record kinds.
const (
	KindPoint  = "Point"
	KindMetric = "Metric"
)

// Metric names understood by the summary and emitted by the runner.
const (
	MetricVUs               = "vus"
	MetricIterations        = "iterations"
	MetricIterationDuration = "iteration_duration"
	MetricHTTPReqs          = "http_reqs"
	MetricHTTPReqFailed     = "http_req_failed"
	MetricHTTPReqDuration   = "http_req_duration"
	MetricChecks            = "checks"
	MetricAPIErrors         = "api_errors_total"
	MetricAPISuccessRate    = "api_success_rate"
	MetricAPIResponseTime   = "api_response_time"
)

// ErrInputUnreadable reports that the metric log could not be opened or read.
var ErrInputUnreadable = errors.New("input unreadable")

// Event is one parsed record of the metric log.
type Event struct {
	Kind   string
	Metric string
	Value  float64
	// Time is the zero value when the record carries no usable timestamp.
	Time time.Time
	Tags map[string]string
}

// IsPoint reports whether the event is a timestamped metric observation.
func (e Event) IsPoint() bool {
	return e.Kind == KindPoint
}

// HasTime reports whether the event carried a parseable timestamp.
func (e Event) HasTime() bool {
	return !e.Time.IsZero()
}
