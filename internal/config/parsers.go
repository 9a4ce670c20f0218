// Package config loads msgload run settings from flags, environment
// variables and an optional JSON or YAML file.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/odysseylab/msgload/internal/catalog"
)

// lookupSetting returns the first candidate key present in settings. File
// keys are lowercased by toStringKeyMap, so candidates match either case.
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		for _, k := range []string{key, strings.ToLower(key)} {
			if val, ok := settings[k]; ok {
				return val, true
			}
		}
	}
	return nil, false
}

// blank reports whether value is an empty or whitespace-only string, which
// file and env settings use to mean "unset".
func blank(value interface{}) bool {
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == ""
}

func asString(value interface{}) (string, error) {
	return cast.ToStringE(value)
}

func asInt(value interface{}) (int, error) {
	if value == nil || blank(value) {
		return 0, nil
	}
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	return cast.ToIntE(value)
}

func asFloat64(value interface{}) (float64, error) {
	if value == nil || blank(value) {
		return 0, nil
	}
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	return cast.ToFloat64E(value)
}

func asBool(value interface{}) (bool, error) {
	if value == nil || blank(value) {
		return false, nil
	}
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	return cast.ToBoolE(value)
}

// asDuration accepts Go duration strings; bare numbers are seconds, the way
// k6 scripts write sleep and timeout values.
func asDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		if blank(v) {
			return 0, nil
		}
		return time.ParseDuration(strings.TrimSpace(v))
	}
	secs, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, fmt.Errorf("unsupported duration type %T", value)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func asStringMap(value interface{}) (map[string]string, error) {
	if value == nil {
		return nil, nil
	}
	m, err := cast.ToStringMapStringE(value)
	if err != nil {
		return nil, err
	}
	for k := range m {
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("map key cannot be empty")
		}
	}
	return m, nil
}

// asStringSlice keeps a single string whole; threshold expressions may
// contain spaces.
func asStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	}
	return cast.ToStringSliceE(value)
}

// toStringKeyMap normalizes a decoded YAML or JSON object to trimmed
// lowercase keys.
func toStringKeyMap(value interface{}) (map[string]interface{}, error) {
	m, err := cast.ToStringMapE(value)
	if err != nil {
		return nil, fmt.Errorf("expected map, got %T", value)
	}
	result := make(map[string]interface{}, len(m))
	for key, val := range m {
		result[strings.ToLower(strings.TrimSpace(key))] = val
	}
	return result, nil
}

// asIntList converts a case list to sorted, de-duplicated IDs. A string is
// parsed as a comma-separated list the way TEST_CASE is; lists may mix
// numbers and numeric strings.
func asIntList(value interface{}) ([]int, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return catalog.ParseIDs(v)
	case []int:
		return catalog.ParseIDs(catalog.FormatIDs(v))
	case []interface{}:
		parts := make([]string, 0, len(v))
		for i, item := range v {
			n, err := asInt(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			parts = append(parts, strconv.Itoa(n))
		}
		return catalog.ParseIDs(strings.Join(parts, ","))
	default:
		n, err := asInt(v)
		if err != nil {
			return nil, err
		}
		return catalog.ParseIDs(strconv.Itoa(n))
	}
}
