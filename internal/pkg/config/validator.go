package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard five-field expressions (minute hour dom month dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseCronSchedule parses a five-field cron expression.
func ParseCronSchedule(schedule string) (cron.Schedule, error) {
	if schedule == "" {
		return nil, fmt.Errorf("invalid cron schedule: cannot be empty")
	}
	s, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return s, nil
}

// ValidateCronSchedule reports whether schedule is a valid five-field cron expression.
// Examples: "0 10 * * *" (daily at 10:00), "*/5 * * * *" (every five minutes).
func ValidateCronSchedule(schedule string) error {
	_, err := ParseCronSchedule(schedule)
	return err
}

// ValidateTimezone reports whether timezone is an IANA name known to time.LoadLocation.
// "Local" and "UTC" are accepted.
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}
	return nil
}

// ValidateDuration checks min <= duration <= max (both bounds inclusive).
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}
	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}
	return nil
}

// ValidateIntRange checks min <= value <= max (both bounds inclusive).
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}
	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}
	return nil
}

// ValidateNonNegativeDuration accepts zero, which callers treat as "no limit".
func ValidateNonNegativeDuration(duration time.Duration) error {
	if duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", duration)
	}
	return nil
}

// ValidatePort checks that port is a usable TCP port number.
func ValidatePort(port int) error {
	return ValidateIntRange(port, 1, 65535)
}
