package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/odysseylab/msgload/internal/catalog"
)

const (
	defaultThinkMin = time.Second
	defaultThinkMax = 3 * time.Second
)

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string][]string{
	"auth_token":  {"AUTH_TOKEN", "MSGLOAD_AUTH_TOKEN"},
	"test_cases":  {"TEST_CASE", "MSGLOAD_TEST_CASE"},
	"scenario":    {"TEST_SCENARIO", "MSGLOAD_SCENARIO"},
	"environment": {"ENVIRONMENT", "MSGLOAD_ENVIRONMENT"},
	"base_url":    {"MSGLOAD_BASE_URL"},
}

// Loader handles loading configuration from files, the environment and
// command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments, environment variables and the optional
// configuration file to produce a Config. Precedence, highest first: flags,
// environment variables, config file, environment profile, built-in defaults.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}
	if flagSet.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(flagSet.Args(), " "))
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	for key, names := range envBindings {
		if err := cfgViper.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, err
		}
	}
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	envName := EnvironmentTest
	if raw, ok := lookupSetting(settings, "environment"); ok {
		if val, err := asString(raw); err == nil && strings.TrimSpace(val) != "" {
			envName = strings.ToLower(strings.TrimSpace(val))
		}
	}
	if flagSet.Changed("environment") {
		val, err := flagSet.GetString("environment")
		if err != nil {
			return nil, err
		}
		envName = strings.ToLower(strings.TrimSpace(val))
	}

	cfg := defaultConfig(envName)
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Tags == nil {
		cfg.Tags = map[string]string{}
	}

	return cfg, nil
}

// defaultConfig seeds a Config from built-in defaults and the named
// environment's profile. Unknown environments fall back to the test profile
// and are reported later by Validate.
func defaultConfig(envName string) *Config {
	profile, ok := LookupProfile(envName)
	if !ok {
		profile = profiles[EnvironmentTest]
	}
	return &Config{
		BaseURL:      profile.BaseURL,
		AuthToken:    DefaultAuthToken,
		Environment:  envName,
		Scenario:     "default",
		Timeout:      profile.Timeout,
		Retries:      profile.Retries,
		ThinkTimeMin: defaultThinkMin,
		ThinkTimeMax: defaultThinkMax,
		JobNumber:    catalog.DefaultJobNumber,
		ResultsFile:  DefaultResultsFile,
		LogLevel:     "info",
		Tags:         map[string]string{},
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
	}
}

// applyConfigSettings applies settings from a config file or the environment
// to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "environment", "env"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("environment: %w", err)
		}
		if strings.TrimSpace(val) != "" {
			cfg.Environment = strings.ToLower(strings.TrimSpace(val))
		}
	}

	if raw, ok := lookupSetting(settings, "base_url", "baseurl", "base-url"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("baseUrl: %w", err)
		}
		if strings.TrimSpace(val) != "" {
			cfg.BaseURL = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "auth_token", "authtoken", "auth-token"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("authToken: %w", err)
		}
		if strings.TrimSpace(val) != "" {
			cfg.AuthToken = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "job_number", "jobnumber", "job-number"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("jobNumber: %w", err)
		}
		if strings.TrimSpace(val) != "" {
			cfg.JobNumber = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "scenario", "test_scenario"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("scenario: %w", err)
		}
		if strings.TrimSpace(val) != "" {
			cfg.Scenario = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "test_cases", "testcases", "test_case", "test-case"); ok {
		ids, err := asIntList(raw)
		if err != nil {
			return fmt.Errorf("testCases: %w", err)
		}
		cfg.TestCases = ids
	}

	if raw, ok := lookupSetting(settings, "vus"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("vus: %w", err)
		}
		cfg.VUs = val
	}

	if raw, ok := lookupSetting(settings, "duration"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		cfg.Duration = val
	}

	if raw, ok := lookupSetting(settings, "iterations"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("iterations: %w", err)
		}
		cfg.Iterations = val
	}

	if raw, ok := lookupSetting(settings, "rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		cfg.Rate = val
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = val
	}

	if raw, ok := lookupSetting(settings, "retries"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("retries: %w", err)
		}
		cfg.Retries = val
	}

	if raw, ok := lookupSetting(settings, "think_time", "thinktime"); ok {
		lo, hi, err := parseThinkTime(raw)
		if err != nil {
			return fmt.Errorf("thinkTime: %w", err)
		}
		cfg.ThinkTimeMin, cfg.ThinkTimeMax = lo, hi
	}

	if raw, ok := lookupSetting(settings, "think_time_min", "thinktimemin"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("thinkTimeMin: %w", err)
		}
		cfg.ThinkTimeMin = val
	}

	if raw, ok := lookupSetting(settings, "think_time_max", "thinktimemax"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("thinkTimeMax: %w", err)
		}
		cfg.ThinkTimeMax = val
	}

	if raw, ok := lookupSetting(settings, "seed"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		cfg.Seed = int64(val)
	}

	if raw, ok := lookupSetting(settings, "results_file", "resultsfile", "out"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("resultsFile: %w", err)
		}
		if strings.TrimSpace(val) != "" {
			cfg.ResultsFile = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "html_output", "htmloutput", "html-output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("htmlOutput: %w", err)
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "json_output", "jsonoutput", "json-output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("jsonOutput: %w", err)
		}
		cfg.JSONOutput = val
	}

	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		cfg.Dashboard = val
	}

	if raw, ok := lookupSetting(settings, "log_errors", "logerrors", "log-errors"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("logErrors: %w", err)
		}
		cfg.LogErrors = val
	}

	if raw, ok := lookupSetting(settings, "log_level", "loglevel", "log-level"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("logLevel: %w", err)
		}
		if strings.TrimSpace(val) != "" {
			cfg.LogLevel = val
		}
	}

	if raw, ok := lookupSetting(settings, "data_file", "datafile", "data-file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("dataFile: %w", err)
		}
		cfg.DataFile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "tags"); ok {
		tags, err := asStringMap(raw)
		if err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		if cfg.Tags == nil {
			cfg.Tags = map[string]string{}
		}
		for k, v := range tags {
			cfg.Tags[k] = v
		}
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := parseThresholds(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracing(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}

	return nil
}

// parseThinkTime accepts {min: 1s, max: 3s} or a single duration used for both.
func parseThinkTime(value interface{}) (time.Duration, time.Duration, error) {
	switch value.(type) {
	case map[string]interface{}, map[interface{}]interface{}:
		settings, err := toStringKeyMap(value)
		if err != nil {
			return 0, 0, err
		}
		var lo, hi time.Duration
		if raw, ok := lookupSetting(settings, "min"); ok {
			if lo, err = asDuration(raw); err != nil {
				return 0, 0, fmt.Errorf("min: %w", err)
			}
		}
		if raw, ok := lookupSetting(settings, "max"); ok {
			if hi, err = asDuration(raw); err != nil {
				return 0, 0, fmt.Errorf("max: %w", err)
			}
		}
		if hi == 0 {
			hi = lo
		}
		return lo, hi, nil
	default:
		d, err := asDuration(value)
		if err != nil {
			return 0, 0, err
		}
		return d, d, nil
	}
}

// parseThresholds accepts either a list of "metric:expr" strings or the k6
// map form {metric: [expr, ...]}, which is flattened into the list form.
func parseThresholds(value interface{}) ([]string, error) {
	switch value.(type) {
	case map[string]interface{}, map[interface{}]interface{}:
		settings, err := toStringKeyMap(value)
		if err != nil {
			return nil, err
		}
		metrics := make([]string, 0, len(settings))
		for metric := range settings {
			metrics = append(metrics, metric)
		}
		sort.Strings(metrics)
		var out []string
		for _, metric := range metrics {
			exprs, err := asStringSlice(settings[metric])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", metric, err)
			}
			for _, expr := range exprs {
				out = append(out, metric+":"+expr)
			}
		}
		return out, nil
	default:
		return asStringSlice(value)
	}
}

func parseTracing(value interface{}, base TracingConfig) (TracingConfig, error) {
	settings, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}
	cfg := base

	if raw, ok := lookupSetting(settings, "enable", "enabled"); ok {
		if cfg.Enable, err = asBool(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("enable: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("endpoint: %w", err)
		}
		cfg.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("protocol: %w", err)
		}
		cfg.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "service_name", "servicename"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("service_name: %w", err)
		}
		cfg.ServiceName = val
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "samplerate"); ok {
		if cfg.SampleRate, err = asFloat64(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		if cfg.Insecure, err = asBool(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		val, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("propagate: %w", err)
		}
		cfg.Propagate = &val
	}
	return cfg, nil
}
