package events

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tidwall/gjson"
)

// Scanner yields events from a metric log in input order. It is one-shot:
// once Scan returns false the scanner is exhausted.
type Scanner struct {
	r    *bufio.Reader
	ev   Event
	err  error
	done bool
	line int
	skip int
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 64*1024)}
}

// Open opens the metric log at path. The caller must close the returned file.
func Open(path string) (*Scanner, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInputUnreadable, err)
	}
	return NewScanner(f), f, nil
}

// Scan advances to the next parseable record. Malformed lines are skipped.
func (s *Scanner) Scan() bool {
	for !s.done {
		raw, err := s.r.ReadBytes('\n')
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = fmt.Errorf("%w: line %d: %w", ErrInputUnreadable, s.line+1, err)
				return false
			}
		}
		if len(raw) == 0 && s.done {
			return false
		}
		s.line++

		ev, ok := parseLine(raw)
		if !ok {
			s.skip++
			continue
		}
		s.ev = ev
		return true
	}
	return false
}

// Event returns the record produced by the last successful Scan.
func (s *Scanner) Event() Event {
	return s.ev
}

// Err returns the first stream error encountered, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Lines returns the number of lines read so far.
func (s *Scanner) Lines() int {
	return s.line
}

// Skipped returns the number of lines dropped as malformed.
func (s *Scanner) Skipped() int {
	return s.skip
}

func parseLine(raw []byte) (Event, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return Event{}, false
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Event{}, false
	}

	ev := Event{
		Kind:   doc.Get("type").String(),
		Metric: doc.Get("metric").String(),
		Value:  doc.Get("data.value").Float(),
	}
	if ts := doc.Get("data.time"); ts.Type == gjson.String {
		if parsed, err := time.Parse(time.RFC3339Nano, ts.Str); err == nil {
			ev.Time = parsed
		}
	}
	if tags := doc.Get("data.tags"); tags.IsObject() {
		ev.Tags = make(map[string]string)
		tags.ForEach(func(key, value gjson.Result) bool {
			ev.Tags[key.String()] = value.String()
			return true
		})
	}
	return ev, true
}
