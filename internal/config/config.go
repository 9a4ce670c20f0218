package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/odysseylab/msgload/internal/catalog"
	"github.com/odysseylab/msgload/internal/logging"
	"github.com/odysseylab/msgload/internal/scenario"
	"github.com/odysseylab/msgload/internal/threshold"
)

const (
	EnvironmentTest       = "test"
	EnvironmentStaging    = "staging"
	EnvironmentProduction = "production"
)

// DefaultAuthToken is the placeholder used when no token is configured.
// Requests sent with it are rejected by the API, which is what a dry run wants.
const DefaultAuthToken = "Bearer YOUR_TOKEN_HERE"

const DefaultResultsFile = "msgload-results.ndjson"

// Profile holds the per-environment connection defaults.
type Profile struct {
	BaseURL string
	Timeout time.Duration
	Retries int
}

var profiles = map[string]Profile{
	EnvironmentTest: {
		BaseURL: "https://api.odyssey-services.fr",
		Timeout: 30 * time.Second,
		Retries: 3,
	},
	EnvironmentStaging: {
		BaseURL: "https://staging-api.odyssey-services.fr",
		Timeout: 30 * time.Second,
		Retries: 2,
	},
	EnvironmentProduction: {
		BaseURL: "https://api.odyssey-services.fr",
		Timeout: 60 * time.Second,
		Retries: 1,
	},
}

// LookupProfile returns the defaults for the named environment.
func LookupProfile(name string) (Profile, bool) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Environments lists the known environment names.
func Environments() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Config struct {
	BaseURL      string            `mapstructure:"base_url"`
	AuthToken    string            `mapstructure:"auth_token"`
	Environment  string            `mapstructure:"environment"`
	Scenario     string            `mapstructure:"scenario"`
	TestCases    []int             `mapstructure:"test_cases"`
	VUs          int               `mapstructure:"vus"`
	Duration     time.Duration     `mapstructure:"duration"`
	Iterations   int               `mapstructure:"iterations"`
	Timeout      time.Duration     `mapstructure:"timeout"`
	Retries      int               `mapstructure:"retries"`
	Rate         int               `mapstructure:"rate"`
	ThinkTimeMin time.Duration     `mapstructure:"think_time_min"`
	ThinkTimeMax time.Duration     `mapstructure:"think_time_max"`
	JobNumber    string            `mapstructure:"job_number"`
	Seed         int64             `mapstructure:"seed"`
	ResultsFile  string            `mapstructure:"results_file"`
	HTMLOutput   string            `mapstructure:"html_output"`
	JSONOutput   bool              `mapstructure:"json_output"`
	Dashboard    bool              `mapstructure:"dashboard"`
	LogErrors    bool              `mapstructure:"log_errors"`
	LogLevel     string            `mapstructure:"log_level"`
	Thresholds   []string          `mapstructure:"thresholds"`
	DataFile     string            `mapstructure:"data_file"`
	Tags         map[string]string `mapstructure:"tags"`
	Tracing      TracingConfig     `mapstructure:"tracing"`
	ConfigFile   string            `mapstructure:"-"`
}

// TracingConfig configures OpenTelemetry export. Tracing stays off unless
// Enable is set or an endpoint is given.
type TracingConfig struct {
	Enable      bool    `mapstructure:"enable"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	// Propagate controls traceparent injection; nil means on when tracing is enabled.
	Propagate *bool `mapstructure:"propagate"`
}

func (t TracingConfig) Enabled() bool {
	return t.Enable || strings.TrimSpace(t.Endpoint) != ""
}

func (t TracingConfig) ShouldPropagate() bool {
	if !t.Enabled() {
		return false
	}
	if t.Propagate == nil {
		return true
	}
	return *t.Propagate
}

// ScenarioName resolves the configured scenario, mapping "default" and the
// empty string to scenario.DefaultName.
func (c Config) ScenarioName() string {
	name := strings.ToLower(strings.TrimSpace(c.Scenario))
	if name == "" || name == "default" {
		return scenario.DefaultName
	}
	return name
}

// ResolveScenario builds the profile the run executes. A positive VUs or
// Duration turns the named scenario into an ad-hoc constant-vus profile, and
// TestCases replaces the scenario's case list.
func (c Config) ResolveScenario() (scenario.Scenario, error) {
	s, err := scenario.Lookup(c.ScenarioName())
	if err != nil {
		return scenario.Scenario{}, err
	}
	if c.VUs > 0 || c.Duration > 0 {
		custom := scenario.Custom(scenario.CustomOptions{
			Name:     s.Name,
			Executor: scenario.ExecutorConstantVUs,
			VUs:      c.VUs,
			Duration: c.Duration,
			Cases:    s.Cases,
			Tags:     s.Tags,
		})
		custom.Description = s.Description
		custom.Thresholds = s.Thresholds
		s = custom
	}
	if len(c.TestCases) > 0 {
		s.Cases = append([]int(nil), c.TestCases...)
	}
	for k, v := range c.Tags {
		if s.Tags == nil {
			s.Tags = map[string]string{}
		}
		s.Tags[k] = v
	}
	return s, nil
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if _, ok := LookupProfile(c.Environment); !ok {
		issues = append(issues, fmt.Sprintf("environment %q is not one of %s", c.Environment, strings.Join(Environments(), ", ")))
	}

	if strings.TrimSpace(c.BaseURL) == "" {
		issues = append(issues, "base url is required")
	} else if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		issues = append(issues, fmt.Sprintf("base url %q must be an absolute http(s) URL", c.BaseURL))
	}

	if _, err := scenario.Lookup(c.ScenarioName()); err != nil {
		issues = append(issues, err.Error())
	}
	if _, err := catalog.Select(c.TestCases); err != nil {
		issues = append(issues, fmt.Sprintf("test cases: %v", err))
	}

	if c.VUs < 0 {
		issues = append(issues, "vus must be >= 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.Iterations < 0 {
		issues = append(issues, "iterations must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Retries < 0 {
		issues = append(issues, "retries must be >= 0")
	}
	if c.ThinkTimeMin < 0 || c.ThinkTimeMax < 0 {
		issues = append(issues, "think time must be >= 0")
	}
	if c.ThinkTimeMax < c.ThinkTimeMin {
		issues = append(issues, "think-time-max must be >= think-time-min")
	}
	if strings.TrimSpace(c.ResultsFile) == "" {
		issues = append(issues, "results file is required")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		issues = append(issues, err.Error())
	}

	for _, raw := range c.Thresholds {
		if _, err := threshold.ParseFlag(raw); err != nil {
			issues = append(issues, fmt.Sprintf("threshold %q: %v", raw, err))
		}
	}

	issues = append(issues, validateTracing(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Warnings reports settings that are allowed but probably unintended.
func (c Config) Warnings() []string {
	var warnings []string
	if !ValidAuthToken(c.AuthToken) {
		warnings = append(warnings, "auth token does not look like a bearer token (expected \"Bearer <token>\")")
	} else if c.AuthToken == DefaultAuthToken {
		warnings = append(warnings, "auth token is the placeholder value; requests will be rejected by the API")
	}
	if c.Environment == EnvironmentProduction {
		warnings = append(warnings, "running against production; ensure you have authorization to load the target system")
	}
	if c.Rate > 1000 {
		warnings = append(warnings, fmt.Sprintf("high rate limit configured (%d iterations/s)", c.Rate))
	}
	if c.VUs > 500 {
		warnings = append(warnings, fmt.Sprintf("high virtual user count configured (%d)", c.VUs))
	}
	return warnings
}

// ValidAuthToken reports whether token is a bearer token with a payload.
func ValidAuthToken(token string) bool {
	return strings.HasPrefix(token, "Bearer ") && len(token) > 10
}

func validateTracing(t TracingConfig) []string {
	var issues []string
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing sample rate must be between 0 and 1, got %g", t.SampleRate))
	}
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q must be grpc or http", t.Protocol))
	}
	return issues
}
