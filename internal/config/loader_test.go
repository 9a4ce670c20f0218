package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		require.NoError(t, err, "asString(%v)", tt.input)
		assert.Equal(t, tt.want, got, "asString(%v)", tt.input)
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{" 12 ", 12},
		{int64(789), 789},
		{float64(10.0), 10},
		{"", 0},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		require.NoError(t, err, "asInt(%v)", tt.input)
		assert.Equal(t, tt.want, got, "asInt(%v)", tt.input)
	}

	_, err := asInt("many")
	assert.Error(t, err)
}

func TestAsFloat64(t *testing.T) {
	got, err := asFloat64("0.25")
	require.NoError(t, err)
	assert.Equal(t, 0.25, got)

	got, err = asFloat64(3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	got, err = asFloat64("  ")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestAsBool(t *testing.T) {
	tests := []struct {
		input interface{}
		want  bool
	}{
		{true, true},
		{"true", true},
		{"1", true},
		{false, false},
		{"false", false},
		{"0", false},
		{"", false},
		{nil, false},
	}

	for _, tt := range tests {
		got, err := asBool(tt.input)
		require.NoError(t, err, "asBool(%v)", tt.input)
		assert.Equal(t, tt.want, got, "asBool(%v)", tt.input)
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{time.Second, time.Second},
		{"1m", time.Minute},
		{10, 10 * time.Second},
		{1.5, 1500 * time.Millisecond},
		{"", 0},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asDuration(tt.input)
		require.NoError(t, err, "asDuration(%v)", tt.input)
		assert.Equal(t, tt.want, got, "asDuration(%v)", tt.input)
	}

	_, err := asDuration("ten seconds")
	assert.Error(t, err)
	_, err = asDuration([]string{"1s"})
	assert.Error(t, err)
}

func TestAsStringMap(t *testing.T) {
	got, err := asStringMap(map[string]interface{}{"team": "qa", "build": 42})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"team": "qa", "build": "42"}, got)

	_, err = asStringMap(map[string]interface{}{" ": "x"})
	assert.Error(t, err)
}

func TestAsStringSlice(t *testing.T) {
	got, err := asStringSlice("p(95) < 2000")
	require.NoError(t, err)
	assert.Equal(t, []string{"p(95) < 2000"}, got, "single string stays whole")

	got, err = asStringSlice([]interface{}{"rate<0.05", "avg<800"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rate<0.05", "avg<800"}, got)

	got, err = asStringSlice(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestToStringKeyMap(t *testing.T) {
	got, err := toStringKeyMap(map[interface{}]interface{}{" Base_URL ": "https://mock.local"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"base_url": "https://mock.local"}, got)

	_, err = toStringKeyMap([]interface{}{"not", "a", "map"})
	assert.Error(t, err)
}

func TestAsIntList(t *testing.T) {
	tests := []struct {
		input   interface{}
		want    []int
		wantErr bool
	}{
		{"1,8,13", []int{1, 8, 13}, false},
		{"0", nil, false},
		{[]interface{}{13, "1", 13}, []int{1, 13}, false},
		{7, []int{7}, false},
		{nil, nil, false},
		{"99", nil, true},
	}

	for _, tt := range tests {
		got, err := asIntList(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "asIntList(%v)", tt.input)
			continue
		}
		require.NoError(t, err, "asIntList(%v)", tt.input)
		assert.Equal(t, tt.want, got, "asIntList(%v)", tt.input)
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := defaultConfig(EnvironmentTest)
	settings := map[string]interface{}{
		"base_url":   "https://mock.local",
		"scenario":   "smoke",
		"test_cases": []interface{}{1, 8},
		"timeout":    "5s",
		"think_time": map[string]interface{}{"min": "100ms", "max": "200ms"},
		"tags": map[string]interface{}{
			"team": "qa",
		},
		"thresholds": map[string]interface{}{
			"http_req_failed":   []interface{}{"rate<0.05"},
			"http_req_duration": []interface{}{"p(95)<2000", "avg<800"},
		},
		"tracing": map[string]interface{}{
			"endpoint":  "collector:4317",
			"propagate": false,
		},
	}

	require.NoError(t, applyConfigSettings(cfg, settings))

	assert.Equal(t, "https://mock.local", cfg.BaseURL)
	assert.Equal(t, "smoke", cfg.Scenario)
	assert.Equal(t, []int{1, 8}, cfg.TestCases)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.ThinkTimeMin)
	assert.Equal(t, 200*time.Millisecond, cfg.ThinkTimeMax)
	assert.Equal(t, "qa", cfg.Tags["team"])
	assert.Equal(t, []string{
		"http_req_duration:p(95)<2000",
		"http_req_duration:avg<800",
		"http_req_failed:rate<0.05",
	}, cfg.Thresholds)
	assert.Equal(t, "collector:4317", cfg.Tracing.Endpoint)
	assert.Equal(t, "grpc", cfg.Tracing.Protocol)
	assert.False(t, cfg.Tracing.ShouldPropagate(), "propagate=false in settings should disable propagation")
	assert.Equal(t, 3, cfg.Retries, "profile default retries")
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := defaultConfig(EnvironmentTest)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)

	args := []string{
		"--vus=5",
		"--test-case=13,1",
		"--tag=team=qa",
		"--threshold=checks:rate>0.99",
		"--tracing-propagate=false",
		"--tracing-endpoint=localhost:4318",
	}
	require.NoError(t, fs.Parse(args))
	require.NoError(t, applyFlagOverrides(cfg, fs))

	assert.Equal(t, 5, cfg.VUs)
	assert.Equal(t, []int{1, 13}, cfg.TestCases)
	assert.Equal(t, "qa", cfg.Tags["team"])
	assert.Equal(t, []string{"checks:rate>0.99"}, cfg.Thresholds)
	assert.False(t, cfg.Tracing.ShouldPropagate())
	assert.Equal(t, 30*time.Second, cfg.Timeout, "unchanged timeout flag overrode profile")
}

func TestApplyFlagOverridesRejectsUnknownCase(t *testing.T) {
	cfg := defaultConfig(EnvironmentTest)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)
	require.NoError(t, fs.Parse([]string{"--test-case=52"}))
	assert.Error(t, applyFlagOverrides(cfg, fs))
}

func TestLoader_Load(t *testing.T) {
	loader := NewLoader()
	args := []string{
		"--environment=staging",
		"--vus=2",
	}

	cfg, err := loader.Load(args)
	require.NoError(t, err)

	assert.Equal(t, "https://staging-api.odyssey-services.fr", cfg.BaseURL)
	assert.Equal(t, 2, cfg.Retries)
	assert.Equal(t, 2, cfg.VUs)
}

func TestParseThinkTimeScalar(t *testing.T) {
	lo, hi, err := parseThinkTime("2s")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, lo)
	assert.Equal(t, 2*time.Second, hi)
}
