package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigLoadResult is the outcome of loading one configuration value.
// Loading never fails: an unset variable yields the default silently, and an
// unparseable or invalid one yields the default together with a warning.
//
//	result := LoadEnvDuration("CYCLE_TIMEOUT", 0, ValidateNonNegativeDuration)
//	for _, w := range result.Warnings {
//	    logger.Warn("configuration fallback", slog.String("detail", w))
//	}
//	timeout := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString returns the trimmed value of envKey, or defaultValue when unset or blank.
func LoadEnvString(envKey, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(envKey))
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string and checks it with validator (nil skips validation).
//
// Warning format:
//
//	"Invalid {envKey}='{value}': {error}, falling back to default '{default}'"
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string ("30s", "5m", "1h30m").
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, func(s string) (int, error) {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return v, nil
	}, validator)
}

// LoadEnvBool loads a boolean. Accepted spellings are those of strconv.ParseBool.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, func(s string) (bool, error) {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return v, nil
	}, nil)
}

func loadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) ConfigLoadResult {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	fallback := func(err error) ConfigLoadResult {
		return ConfigLoadResult{
			Value: defaultValue,
			Warnings: []string{fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'",
				envKey, raw, err, defaultValue,
			)},
			FallbackApplied: true,
		}
	}

	parsed, err := parse(raw)
	if err != nil {
		return fallback(err)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(err)
		}
	}
	return ConfigLoadResult{Value: parsed}
}
