package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one configuration value.
//
// Loading never fails: an unparsable or invalid environment value is
// replaced by the default, FallbackApplied is set and a warning describes
// what was rejected.
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvWithFallback loads a string value and validates it.
//
// Loading behavior:
//  1. Not set or empty: default value, no warning
//  2. Set and valid: the environment value
//  3. Set and invalid: default value plus a warning
//
// Example:
//
//	result := LoadEnvWithFallback("RECONCILE_SCHEDULE", "*/5 * * * *", ValidateCronSchedule)
//	if result.FallbackApplied {
//	    logger.Warn("configuration fallback", slog.Any("warnings", result.Warnings))
//	}
func LoadEnvWithFallback(key, defaultValue string, validator func(string) error) LoadResult[string] {
	return loadEnv(key, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvInt loads an integer value with the same fallback rules as
// LoadEnvWithFallback. Parse failures are treated as invalid values.
func LoadEnvInt(key string, defaultValue int, validator func(int) error) LoadResult[int] {
	return loadEnv(key, defaultValue, func(s string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(s))
	}, validator)
}

// LoadEnvDuration loads a time.ParseDuration value with the same fallback
// rules as LoadEnvWithFallback.
func LoadEnvDuration(key string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return loadEnv(key, defaultValue, time.ParseDuration, validator)
}

func loadEnv[T any](key string, defaultValue T, parse func(string) (T, error), validator func(T) error) LoadResult[T] {
	raw := os.Getenv(key)
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	value, err := parse(raw)
	if err == nil && validator != nil {
		err = validator(value)
	}
	if err != nil {
		return LoadResult[T]{
			Value: defaultValue,
			Warnings: []string{fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'", key, raw, err, defaultValue,
			)},
			FallbackApplied: true,
		}
	}
	return LoadResult[T]{Value: value}
}
