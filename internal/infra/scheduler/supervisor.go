package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultPollInterval is the pause between polls.
	DefaultPollInterval = 60 * time.Second

	// DefaultCooldown is the pause after a failed poll.
	DefaultCooldown = 300 * time.Second
)

// Pender is polled by the Supervisor. *Scheduler implements it.
type Pender interface {
	RunPending(ctx context.Context) error
}

// PollObserver is told the outcome of every poll.
type PollObserver interface {
	ObservePoll(err error)
}

// SleepFunc pauses for d or until ctx is done, returning ctx.Err() in the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SupervisorConfig tunes a Supervisor. Zero durations select the defaults.
type SupervisorConfig struct {
	PollInterval time.Duration
	Cooldown     time.Duration
	Sleep        SleepFunc
	Logger       *slog.Logger
	Observer     PollObserver
}

// Supervisor polls a Pender forever: a fixed pause after each poll, and a longer
// fixed pause after a failed one. There is no growth and no retry limit.
type Supervisor struct {
	pender       Pender
	pollInterval time.Duration
	cooldown     time.Duration
	sleep        SleepFunc
	logger       *slog.Logger
	observer     PollObserver
}

// NewSupervisor returns a Supervisor for p.
func NewSupervisor(p Pender, cfg SupervisorConfig) *Supervisor {
	s := &Supervisor{
		pender:       p,
		pollInterval: cfg.PollInterval,
		cooldown:     cfg.Cooldown,
		sleep:        cfg.Sleep,
		logger:       cfg.Logger,
		observer:     cfg.Observer,
	}
	if s.pollInterval <= 0 {
		s.pollInterval = DefaultPollInterval
	}
	if s.cooldown <= 0 {
		s.cooldown = DefaultCooldown
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Run polls until ctx is cancelled and then returns ctx.Err().
// No poll failure ends the loop.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("supervisor started",
		slog.Duration("poll_interval", s.pollInterval),
		slog.Duration("cooldown", s.cooldown))

	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("supervisor stopped")
			return err
		}

		pause := s.pollInterval
		if err := s.poll(ctx); err != nil {
			s.logger.Error("Error in main loop: "+err.Error(),
				slog.Duration("cooldown", s.cooldown))
			pause = s.cooldown
		}

		if err := s.sleep(ctx, pause); err != nil {
			s.logger.Info("supervisor stopped")
			return err
		}
	}
}

func (s *Supervisor) poll(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("poll panicked: %v", r)
		}
		if s.observer != nil {
			s.observer.ObservePoll(err)
		}
	}()
	return s.pender.RunPending(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
