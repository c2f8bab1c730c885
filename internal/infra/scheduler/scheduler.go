// Package scheduler runs jobs on cron schedules from an explicit, caller-owned
// instance, and keeps polling it from a fault-tolerant supervisor loop.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	pkgconfig "bloop/internal/pkg/config"
)

// ErrJobPanicked is returned by RunPending when a job panicked.
var ErrJobPanicked = errors.New("scheduled job panicked")

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

type entry struct {
	name     string
	schedule cron.Schedule
	job      Job
	next     time.Time
}

// Scheduler holds registered jobs and their next fire times.
// It never starts goroutines; jobs run only inside RunPending or RunAll.
type Scheduler struct {
	mu       sync.Mutex
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
	entries  []*entry
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocation sets the time zone schedules are evaluated in. Default: time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.location = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// New returns an empty Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		location: time.Local,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Every registers job under name to fire on the five-field cron spec,
// e.g. "0 10 * * *" for daily at 10:00.
func (s *Scheduler) Every(name, spec string, job Job) error {
	schedule, err := pkgconfig.ParseCronSchedule(spec)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %q is nil", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.name == name {
			return fmt.Errorf("job %q already registered", name)
		}
	}
	e := &entry{
		name:     name,
		schedule: schedule,
		job:      job,
		next:     schedule.Next(s.now().In(s.location)),
	}
	s.entries = append(s.entries, e)

	s.logger.Info("job scheduled",
		slog.String("job", name),
		slog.String("schedule", spec),
		slog.Time("next_run", e.next))
	return nil
}

// NextRun returns the next fire time of the named job.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.name == name {
			return e.next, true
		}
	}
	return time.Time{}, false
}

// RunPending runs every job whose fire time has passed, at most once each, and
// moves its fire time to the next occurrence after now. Missed occurrences are
// not replayed. Job errors and panics are joined into the returned error.
func (s *Scheduler) RunPending(ctx context.Context) error {
	now := s.now().In(s.location)

	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if !now.Before(e.next) {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	var errs []error
	for _, e := range due {
		if err := s.run(ctx, e); err != nil {
			errs = append(errs, err)
		}
		s.mu.Lock()
		e.next = e.schedule.Next(s.now().In(s.location))
		next := e.next
		s.mu.Unlock()
		s.logger.Debug("job rescheduled", slog.String("job", e.name), slog.Time("next_run", next))
	}
	return errors.Join(errs...)
}

// RunAll runs every job immediately without changing fire times.
func (s *Scheduler) RunAll(ctx context.Context) error {
	s.mu.Lock()
	entries := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := s.run(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) run(ctx context.Context, e *entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked",
				slog.String("job", e.name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %s: %v", ErrJobPanicked, e.name, r)
		}
	}()

	s.logger.Info("job started", slog.String("job", e.name))
	if err := e.job(ctx); err != nil {
		return fmt.Errorf("job %s: %w", e.name, err)
	}
	return nil
}
