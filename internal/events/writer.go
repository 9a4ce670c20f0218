package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// MetricType classifies a declared metric.
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeGauge   MetricType = "gauge"
	MetricTypeRate    MetricType = "rate"
	MetricTypeTrend   MetricType = "trend"
)

// ErrResultsLocked is returned by Create when another run holds the results file.
var ErrResultsLocked = errors.New("results file is locked by another run")

type pointRecord struct {
	Type   string    `json:"type"`
	Metric string    `json:"metric"`
	Data   pointData `json:"data"`
}

type pointData struct {
	Time  string            `json:"time"`
	Value float64           `json:"value"`
	Tags  map[string]string `json:"tags,omitempty"`
}

type metricRecord struct {
	Type   string     `json:"type"`
	Metric string     `json:"metric"`
	Data   metricData `json:"data"`
}

type metricData struct {
	Name string     `json:"name"`
	Type MetricType `json:"type"`
}

// Writer appends metric records to a log. It is safe for concurrent use.
type Writer struct {
	mu       sync.Mutex
	buf      *bufio.Writer
	enc      *json.Encoder
	closer   io.Closer
	lock     *flock.Flock
	declared map[string]struct{}
	err      error
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriter(w)
	return &Writer{
		buf:      buf,
		enc:      json.NewEncoder(buf),
		declared: make(map[string]struct{}),
	}
}

// Create truncates or creates the log at path and locks it for the lifetime of
// the Writer.
func Create(path string) (*Writer, error) {
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", path, ErrResultsLocked)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := NewWriter(f)
	w.closer = f
	w.lock = lock
	return w, nil
}

// Declare emits a Metric record the first time a metric name is seen.
func (w *Writer) Declare(metric string, typ MetricType) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.declared[metric]; ok {
		return w.err
	}
	w.declared[metric] = struct{}{}
	return w.encode(metricRecord{
		Type:   KindMetric,
		Metric: metric,
		Data:   metricData{Name: metric, Type: typ},
	})
}

// WritePoint emits one Point record.
func (w *Writer) WritePoint(metric string, value float64, at time.Time, tags map[string]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.encode(pointRecord{
		Type:   KindPoint,
		Metric: metric,
		Data: pointData{
			Time:  at.Format(time.RFC3339Nano),
			Value: value,
			Tags:  tags,
		},
	})
}

func (w *Writer) encode(v interface{}) error {
	if w.err != nil {
		return w.err
	}
	if err := w.enc.Encode(v); err != nil {
		w.err = fmt.Errorf("write metric record: %w", err)
	}
	return w.err
}

// Flush writes buffered records to the underlying writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil && w.err == nil {
		w.err = fmt.Errorf("flush metric records: %w", err)
	}
	return w.err
}

// Close flushes pending records and releases the file and its lock.
func (w *Writer) Close() error {
	errs := []error{w.Flush()}
	if w.closer != nil {
		errs = append(errs, w.closer.Close())
	}
	if w.lock != nil {
		errs = append(errs, w.lock.Unlock())
	}
	return errors.Join(errs...)
}
