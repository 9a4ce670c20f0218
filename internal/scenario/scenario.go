// Package scenario holds the named load profiles a run can use and the
// thresholds each one is judged against.
package scenario

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/odysseylab/msgload/internal/catalog"
)

// Executors follow k6 naming.
const (
	ExecutorConstantVUs = "constant-vus"
	ExecutorRampingVUs  = "ramping-vus"
)

// DefaultName is used when no scenario is requested.
const DefaultName = "load"

// TestID tags every point emitted by a run.
const TestID = "odyssey-api-load-test"

var ErrUnknownScenario = errors.New("unknown scenario")

// Stage is one leg of a ramping profile: move linearly to Target over Duration.
type Stage struct {
	Duration time.Duration
	Target   int
}

// Scenario describes how many virtual users run, for how long, and which
// catalog cases they draw from.
type Scenario struct {
	Name        string
	Description string
	Executor    string
	VUs         int
	Duration    time.Duration
	StartVUs    int
	Stages      []Stage
	// Cases restricts the catalog; empty means every case.
	Cases      []int
	Tags       map[string]string
	Thresholds map[string][]string
}

// MaxVUs is the largest number of concurrent users the profile reaches.
func (s Scenario) MaxVUs() int {
	if s.Executor == ExecutorConstantVUs {
		return s.VUs
	}
	peak := s.StartVUs
	for _, st := range s.Stages {
		if st.Target > peak {
			peak = st.Target
		}
	}
	return peak
}

// TotalDuration is the wall time of the profile.
func (s Scenario) TotalDuration() time.Duration {
	if s.Executor == ExecutorConstantVUs {
		return s.Duration
	}
	var total time.Duration
	for _, st := range s.Stages {
		total += st.Duration
	}
	return total
}

// TargetAt returns the number of users that should be active elapsed into the
// run. Ramping profiles interpolate linearly within a stage.
func (s Scenario) TargetAt(elapsed time.Duration) int {
	if s.Executor == ExecutorConstantVUs {
		if elapsed >= s.Duration {
			return 0
		}
		return s.VUs
	}
	from := s.StartVUs
	var offset time.Duration
	for _, st := range s.Stages {
		if elapsed < offset+st.Duration {
			if st.Duration <= 0 {
				return st.Target
			}
			frac := float64(elapsed-offset) / float64(st.Duration)
			return from + int(float64(st.Target-from)*frac+0.5)
		}
		offset += st.Duration
		from = st.Target
	}
	return 0
}

// Validate reports structural problems with a profile.
func (s Scenario) Validate() error {
	switch s.Executor {
	case ExecutorConstantVUs:
		if s.VUs <= 0 {
			return fmt.Errorf("scenario %s: vus must be greater than 0", s.Name)
		}
		if s.Duration <= 0 {
			return fmt.Errorf("scenario %s: duration must be greater than 0", s.Name)
		}
	case ExecutorRampingVUs:
		if len(s.Stages) == 0 {
			return fmt.Errorf("scenario %s: ramping-vus requires at least one stage", s.Name)
		}
		for i, st := range s.Stages {
			if st.Duration <= 0 {
				return fmt.Errorf("scenario %s: stage %d duration must be greater than 0", s.Name, i)
			}
			if st.Target < 0 {
				return fmt.Errorf("scenario %s: stage %d target must be non-negative", s.Name, i)
			}
		}
	default:
		return fmt.Errorf("scenario %s: unsupported executor %q", s.Name, s.Executor)
	}
	if _, err := catalog.Select(s.Cases); err != nil {
		return fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return nil
}

// BaseThresholds apply to every scenario before its own overrides.
func BaseThresholds() map[string][]string {
	return map[string][]string{
		"http_req_duration": {"p(95)<5000", "p(99)<10000"},
		"http_req_failed":   {"rate<0.1"},
		"checks":            {"rate>0.9"},
		"api_success_rate":  {"rate>0.95"},
		"api_response_time": {"p(95)<3000"},
	}
}

// MergedThresholds overlays the scenario's thresholds on BaseThresholds. A
// metric named by the scenario replaces the base entry entirely.
func (s Scenario) MergedThresholds() map[string][]string {
	out := BaseThresholds()
	for metric, exprs := range s.Thresholds {
		out[metric] = append([]string(nil), exprs...)
	}
	return out
}

// Lookup returns the named scenario.
func Lookup(name string) (Scenario, error) {
	s, ok := registry[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownScenario, name, Names())
	}
	return s.clone(), nil
}

// Names lists every scenario alphabetically.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CustomOptions configures Custom. Zero values take the defaults a
// hand-built profile would: ramping-vus, 10 users, 10 minutes.
type CustomOptions struct {
	Name     string
	Executor string
	VUs      int
	Duration time.Duration
	Stages   []Stage
	Cases    []int
	Tags     map[string]string
}

// Custom builds an ad-hoc scenario.
func Custom(o CustomOptions) Scenario {
	s := Scenario{
		Name:     o.Name,
		Executor: o.Executor,
		Cases:    append([]int(nil), o.Cases...),
		Tags:     map[string]string{},
	}
	if s.Name == "" {
		s.Name = "custom"
	}
	if s.Executor == "" {
		s.Executor = ExecutorRampingVUs
	}
	for k, v := range o.Tags {
		s.Tags[k] = v
	}
	s.Tags["test_type"] = s.Name

	switch s.Executor {
	case ExecutorConstantVUs:
		s.VUs = o.VUs
		if s.VUs <= 0 {
			s.VUs = 10
		}
		s.Duration = o.Duration
		if s.Duration <= 0 {
			s.Duration = 10 * time.Minute
		}
	case ExecutorRampingVUs:
		s.Stages = append([]Stage(nil), o.Stages...)
	}
	return s
}

// Matrix groups scenarios by expected wall time.
func Matrix() map[string][]string {
	return map[string][]string{
		"quick":  {"smoke", "spike", "file_management"},
		"medium": {"load", "stress", "messaging_apis", "reporting_apis"},
		"long":   {"endurance", "volume"},
	}
}

func (s Scenario) clone() Scenario {
	c := s
	c.Stages = append([]Stage(nil), s.Stages...)
	c.Cases = append([]int(nil), s.Cases...)
	c.Tags = make(map[string]string, len(s.Tags))
	for k, v := range s.Tags {
		c.Tags[k] = v
	}
	c.Thresholds = make(map[string][]string, len(s.Thresholds))
	for k, v := range s.Thresholds {
		c.Thresholds[k] = append([]string(nil), v...)
	}
	return c
}
