// Package summary folds a run's metric events into the handful of aggregates
// the report shows.
package summary

import (
	"math"
	"time"

	"github.com/odysseylab/msgload/internal/events"
)

// Summary is the aggregate of one run. The zero value is an empty run.
type Summary struct {
	PeakConcurrency float64
	Iterations      int64
	Requests        int64
	Failures        int64
	// First and Last are the timestamps of the first and last Point records in
	// arrival order. Either may be zero when records lacked a timestamp.
	First time.Time
	Last  time.Time
}

// Apply returns s updated with one event. Non-Point events leave s unchanged.
func Apply(s Summary, e events.Event) Summary {
	if !e.IsPoint() {
		return s
	}

	switch e.Metric {
	case events.MetricVUs:
		if e.Value > s.PeakConcurrency {
			s.PeakConcurrency = e.Value
		}
	case events.MetricIterations:
		s.Iterations++
	case events.MetricHTTPReqs:
		s.Requests++
	case events.MetricHTTPReqFailed:
		if e.Value > 0 {
			s.Failures++
		}
	}

	if s.First.IsZero() {
		s.First = e.Time
	}
	s.Last = e.Time
	return s
}

// Fold applies every event in order, starting from an empty Summary.
func Fold(evs []events.Event) Summary {
	var s Summary
	for _, e := range evs {
		s = Apply(s, e)
	}
	return s
}

// FromScanner consumes sc to completion. A stream error discards the partial
// aggregate.
func FromScanner(sc *events.Scanner) (Summary, error) {
	var s Summary
	for sc.Scan() {
		s = Apply(s, sc.Event())
	}
	if err := sc.Err(); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// ErrorRate is Failures/Requests. ok is false when no request was recorded.
func (s Summary) ErrorRate() (rate float64, ok bool) {
	if s.Requests <= 0 {
		return 0, false
	}
	return float64(s.Failures) / float64(s.Requests), true
}

// Duration is Last-First. ok is false unless both timestamps are present.
// The value may be negative when the log was written out of order.
func (s Summary) Duration() (time.Duration, bool) {
	if s.First.IsZero() || s.Last.IsZero() {
		return 0, false
	}
	return s.Last.Sub(s.First), true
}

// DurationSeconds is Duration rounded to whole seconds.
func (s Summary) DurationSeconds() (int64, bool) {
	d, ok := s.Duration()
	if !ok {
		return 0, false
	}
	return int64(math.Round(d.Seconds())), true
}
