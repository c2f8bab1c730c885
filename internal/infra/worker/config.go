package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bloop/internal/pkg/config"
)

// WorkerConfig holds the operational settings of the bot process: when the
// cycle fires, how the supervisor polls, and where the side servers listen.
//
// Every field has a default, and LoadConfigFromEnv never fails: an invalid
// environment value is replaced by its default with a warning.
type WorkerConfig struct {
	// CronSchedule is the five-field cron expression of the cycle.
	// Default: "0 10 * * *" (daily at 10:00)
	CronSchedule string

	// Timezone is the IANA name the schedule and the topic calendar use.
	// Default: "Local"
	Timezone string

	// PollInterval is the pause between scheduler polls (1s-1h).
	// Default: 60s
	PollInterval time.Duration

	// PollCooldown is the pause after a failed poll (1s-6h).
	// Default: 300s
	PollCooldown time.Duration

	// CycleTimeout bounds one cycle. Zero disables the limit.
	CycleTimeout time.Duration

	// HealthPort serves /health and /health/ready (1024-65535).
	// Default: 9091
	HealthPort int

	// MetricsPort serves /metrics and /health/collaborators.
	// Default: 9090
	MetricsPort int

	// RunOnStart runs one cycle right after startup.
	RunOnStart bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "0 10 * * *",
		Timezone:     "Local",
		PollInterval: 60 * time.Second,
		PollCooldown: 300 * time.Second,
		CycleTimeout: 0,
		HealthPort:   9091,
		MetricsPort:  9090,
		RunOnStart:   false,
	}
}

func validatePollInterval(d time.Duration) error {
	return config.ValidateDuration(d, time.Second, time.Hour)
}

func validatePollCooldown(d time.Duration) error {
	return config.ValidateDuration(d, time.Second, 6*time.Hour)
}

func validateHealthPort(p int) error {
	return config.ValidateIntRange(p, 1024, 65535)
}

// Validate checks every field and returns all problems joined.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := validatePollInterval(c.PollInterval); err != nil {
		errs = append(errs, fmt.Errorf("poll interval: %w", err))
	}
	if err := validatePollCooldown(c.PollCooldown); err != nil {
		errs = append(errs, fmt.Errorf("poll cooldown: %w", err))
	}
	if err := config.ValidateNonNegativeDuration(c.CycleTimeout); err != nil {
		errs = append(errs, fmt.Errorf("cycle timeout: %w", err))
	}
	if err := validateHealthPort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidatePort(c.MetricsPort); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves Timezone, falling back to time.Local.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LoadConfigFromEnv loads WorkerConfig from the environment with fail-open
// fallback.
//
// Environment variables:
//   - CRON_SCHEDULE, WORKER_TIMEZONE
//   - POLL_INTERVAL, POLL_COOLDOWN, CYCLE_TIMEOUT (Go duration strings)
//   - WORKER_HEALTH_PORT, METRICS_PORT
//   - RUN_ON_START (strconv.ParseBool)
func LoadConfigFromEnv(logger *slog.Logger, metrics *config.ConfigMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field string, result config.ConfigLoadResult) {
		if metrics != nil {
			metrics.Apply(field, result)
		}
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	apply("cron_schedule", result)
	cfg.CronSchedule = result.Value.(string)

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	apply("timezone", result)
	cfg.Timezone = result.Value.(string)

	result = config.LoadEnvDuration("POLL_INTERVAL", cfg.PollInterval, validatePollInterval)
	apply("poll_interval", result)
	cfg.PollInterval = result.Value.(time.Duration)

	result = config.LoadEnvDuration("POLL_COOLDOWN", cfg.PollCooldown, validatePollCooldown)
	apply("poll_cooldown", result)
	cfg.PollCooldown = result.Value.(time.Duration)

	result = config.LoadEnvDuration("CYCLE_TIMEOUT", cfg.CycleTimeout, config.ValidateNonNegativeDuration)
	apply("cycle_timeout", result)
	cfg.CycleTimeout = result.Value.(time.Duration)

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, validateHealthPort)
	apply("health_port", result)
	cfg.HealthPort = result.Value.(int)

	result = config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, config.ValidatePort)
	apply("metrics_port", result)
	cfg.MetricsPort = result.Value.(int)

	result = config.LoadEnvBool("RUN_ON_START", cfg.RunOnStart)
	apply("run_on_start", result)
	cfg.RunOnStart = result.Value.(bool)

	if metrics != nil {
		metrics.SetFallbackActive(fallbackApplied)
		metrics.RecordLoadTimestamp()
	}

	return &cfg
}
